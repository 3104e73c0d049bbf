// Command gojospatial_cli is an interactive shell over an in-memory loose
// quadtree index. It exists for poking at the index: insert boxes, run the
// different search strategies, and watch the scan statistics.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"go.opentelemetry.io/otel/metric"

	"github.com/sushant-115/gojospatial/core/indexing/loosequad"
	"github.com/sushant-115/gojospatial/pkg/logger"
	"github.com/sushant-115/gojospatial/pkg/telemetry"
)

const helpText = `Commands:
  insert <id> <minx> <miny> <maxx> <maxy>    add a box to the index
  search <strategy> <minx> <miny> <maxx> <maxy>
                                             query the index; strategies:
                                             overlap contains containedby same
                                             left overleft right overright
                                             above overabove below overbelow
  count                                      number of indexed entries
  help                                       show this help
  exit                                       quit
`

func main() {
	logLevel := flag.String("log-level", "info", "minimum log level")
	logFormat := flag.String("log-format", "console", "log format: json or console")
	leafCap := flag.Int("leaf-cap", loosequad.DefaultMaxLeafEntries, "leaf capacity before splitting")
	telemetryEnabled := flag.Bool("telemetry", false, "expose prometheus metrics")
	metricsPort := flag.Int("metrics-port", 9464, "port for the /metrics endpoint")
	flag.Parse()

	zlog, err := logger.New(logger.Config{Level: *logLevel, Format: *logFormat, OutputFile: "stderr"})
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zlog.Sync()

	var meter metric.Meter = telemetry.NoopMeter()
	if *telemetryEnabled {
		tel, shutdown, err := telemetry.New(telemetry.Config{
			Enabled:        true,
			ServiceName:    "gojospatial_cli",
			PrometheusPort: *metricsPort,
		})
		if err != nil {
			log.Fatalf("failed to set up telemetry: %v", err)
		}
		defer shutdown(context.Background())
		meter = tel.Meter
	}

	tree, err := loosequad.NewTree(
		loosequad.Config{MaxLeafEntries: *leafCap},
		logger.ForComponent(zlog, "loosequad"),
		meter,
	)
	if err != nil {
		log.Fatalf("failed to create index: %v", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "gojospatial> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		log.Fatalf("failed to initialize readline: %v", err)
	}
	defer rl.Close()

	fmt.Print(helpText)

	ctx := context.Background()
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			break
		}

		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "insert":
			if len(fields) != 6 {
				fmt.Println("usage: insert <id> <minx> <miny> <maxx> <maxy>")
				continue
			}
			box, err := parseBox(fields[2:])
			if err != nil {
				fmt.Printf("bad box: %v\n", err)
				continue
			}
			if err := tree.Insert(ctx, box, fields[1]); err != nil {
				fmt.Printf("insert failed: %v\n", err)
				continue
			}
			fmt.Printf("inserted %s\n", fields[1])

		case "search":
			if len(fields) != 6 {
				fmt.Println("usage: search <strategy> <minx> <miny> <maxx> <maxy>")
				continue
			}
			strategy, err := loosequad.ParseStrategy(fields[1])
			if err != nil {
				fmt.Printf("bad strategy: %v\n", err)
				continue
			}
			box, err := parseBox(fields[2:])
			if err != nil {
				fmt.Printf("bad box: %v\n", err)
				continue
			}
			results, err := tree.Search(ctx, box, strategy)
			if err != nil {
				fmt.Printf("search failed: %v\n", err)
				continue
			}
			for _, e := range results {
				fmt.Printf("  %s  (%g,%g)-(%g,%g)\n", e.ID, e.Box.MinX, e.Box.MinY, e.Box.MaxX, e.Box.MaxY)
			}
			fmt.Printf("%d result(s)\n", len(results))

		case "count":
			fmt.Println(tree.Len())

		case "help":
			fmt.Print(helpText)

		case "exit", "quit":
			return

		default:
			fmt.Printf("unknown command %q, try help\n", fields[0])
		}
	}
}

func parseBox(coords []string) (loosequad.Box, error) {
	vals := make([]float64, 4)
	for i, s := range coords {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return loosequad.Box{}, fmt.Errorf("coordinate %q: %w", s, err)
		}
		vals[i] = v
	}
	return loosequad.Box{MinX: vals[0], MinY: vals[1], MaxX: vals[2], MaxY: vals[3]}, nil
}
