package loosequad

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const (
	// DefaultMaxLeafEntries is the leaf capacity used when the config does
	// not set one. A leaf holding more entries than this is split into four
	// quadrants on the next insert.
	DefaultMaxLeafEntries = 16
)

// ErrEmptyBox is returned when an inserted or queried box is inverted
// (min greater than max on either axis).
var ErrEmptyBox = errors.New("loosequad: box has min greater than max")

// Entry is one indexed item: a box and the identifier of the record it
// belongs to.
type Entry struct {
	Box Box
	ID  string
}

// Config holds the tuning knobs for a Tree.
type Config struct {
	// MaxLeafEntries is the leaf capacity before a split is attempted.
	MaxLeafEntries int `yaml:"max_leaf_entries"`
}

// node is either a leaf (entries) or an inner node (centroid, children,
// resident). Resident entries are boxes whose size keeps them at this
// level: ChooseLevel placed them here rather than in any child, which is
// what makes the quadtree "loose".
type node struct {
	isLeaf  bool
	entries []Entry

	centroid Box
	children [NumQuadrants]*node
	resident []Entry
}

// Tree is an in-memory loose quadtree over 2D boxes. It is the traversal
// driver for the core primitives in this package: inserts use QuadrantOf
// and ChooseLevel, scans thread a RectBox down every path and prune with
// the strategy region predicates.
//
// A Tree is not safe for concurrent use; the caller owns cross-operation
// coordination.
type Tree struct {
	cfg     Config
	root    *node
	size    int
	logger  *zap.Logger
	metrics *treeMetrics
}

// NewTree creates an empty tree. A nil logger disables logging; metrics are
// registered against the supplied meter (use telemetry.NoopMeter to discard
// them).
func NewTree(cfg Config, logger *zap.Logger, meter metric.Meter) (*Tree, error) {
	if cfg.MaxLeafEntries <= 0 {
		cfg.MaxLeafEntries = DefaultMaxLeafEntries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics, err := newTreeMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to register tree metrics: %w", err)
	}
	return &Tree{cfg: cfg, logger: logger, metrics: metrics}, nil
}

// Len returns the number of entries in the tree.
func (t *Tree) Len() int { return t.size }

func validBox(b Box) error {
	if b.MinX > b.MaxX || b.MinY > b.MaxY {
		return fmt.Errorf("%w: %+v", ErrEmptyBox, b)
	}
	return nil
}

// Insert adds an entry to the tree. The box descends until ChooseLevel
// reports it is too large for any deeper level, and lands either in a leaf
// or in an inner node's resident list.
func (t *Tree) Insert(ctx context.Context, box Box, id string) error {
	if err := validBox(box); err != nil {
		return err
	}

	if t.root == nil {
		t.root = &node{isLeaf: true}
	}

	n := t.root
	level := 0
	for !n.isLeaf {
		levelAdd, _ := ChooseLevel(n.centroid, box, level)
		if levelAdd == 0 {
			// Too large for any child: the box stays at this level.
			n.resident = append(n.resident, Entry{Box: box, ID: id})
			t.size++
			t.logger.Debug("box kept resident",
				zap.Int("level", level), zap.String("id", id))
			return nil
		}
		q := QuadrantOf(n.centroid, box)
		if n.children[q] == nil {
			n.children[q] = &node{isLeaf: true}
		}
		n = n.children[q]
		level++
	}

	n.entries = append(n.entries, Entry{Box: box, ID: id})
	t.size++

	if len(n.entries) > t.cfg.MaxLeafEntries {
		t.splitLeaf(ctx, n, level)
	}
	return nil
}

// allSameCentroid reports whether every entry's centroid coincides, in
// which case no quadrant assignment can separate them.
func allSameCentroid(entries []Entry) bool {
	for _, e := range entries[1:] {
		if !fpEq(e.Box.CenterX(), entries[0].Box.CenterX()) ||
			!fpEq(e.Box.CenterY(), entries[0].Box.CenterY()) {
			return false
		}
	}
	return true
}

// pickCentroid derives the splitting point for an overflowing leaf: the
// minimum bounding square of all the entries' 4D coordinates.
func pickCentroid(entries []Entry) Box {
	n := len(entries)
	lowXs := make([]float64, n)
	highXs := make([]float64, n)
	lowYs := make([]float64, n)
	highYs := make([]float64, n)
	for i, e := range entries {
		lowXs[i] = e.Box.MinX
		highXs[i] = e.Box.MaxX
		lowYs[i] = e.Box.MinY
		highYs[i] = e.Box.MaxY
	}
	sort.Float64s(lowXs)
	sort.Float64s(highXs)
	sort.Float64s(lowYs)
	sort.Float64s(highYs)

	minXY := lowXs[0]
	if lowYs[0] < minXY {
		minXY = lowYs[0]
	}
	maxXY := highXs[n-1]
	if highYs[n-1] > maxXY {
		maxXY = highYs[n-1]
	}
	return Box{MinX: minXY, MinY: minXY, MaxX: maxXY, MaxY: maxXY}
}

// splitLeaf converts an overflowing leaf into an inner node with up to four
// leaf children, redistributing entries by quadrant. Entries too large for
// the next level stay resident at the new inner node.
func (t *Tree) splitLeaf(ctx context.Context, n *node, level int) {
	if allSameCentroid(n.entries) {
		// No split can separate coincident centroids; keep the oversize
		// leaf and let it grow.
		t.logger.Warn("leaf split skipped, all centroids coincide",
			zap.Int("level", level), zap.Int("entries", len(n.entries)))
		return
	}

	centroid := pickCentroid(n.entries)
	entries := n.entries

	var children [NumQuadrants]*node
	var resident []Entry
	placed := 0
	for _, e := range entries {
		levelAdd, _ := ChooseLevel(centroid, e.Box, level)
		if levelAdd == 0 {
			resident = append(resident, e)
			continue
		}
		q := QuadrantOf(centroid, e.Box)
		if children[q] == nil {
			children[q] = &node{isLeaf: true}
			placed++
		}
		children[q].entries = append(children[q].entries, e)
	}

	if placed <= 1 && len(resident) == 0 {
		// Degenerate: everything landed in one quadrant. Cope by keeping
		// the oversize leaf rather than growing a chain of single-child
		// inner nodes.
		t.logger.Warn("leaf split degenerate, keeping oversize leaf",
			zap.Int("level", level), zap.Int("entries", len(entries)))
		return
	}

	n.isLeaf = false
	n.entries = nil
	n.centroid = centroid
	n.children = children
	n.resident = resident
	t.metrics.addSplit(ctx)

	t.logger.Debug("leaf split",
		zap.Int("level", level),
		zap.Int("entries", len(entries)),
		zap.Int("resident", len(resident)))
}

// Search returns every entry satisfying the strategy against the query
// box. Inner nodes are pruned with the conservative region predicates over
// an incrementally tightened RectBox; leaf entries are accepted with the
// exact predicates.
func (t *Tree) Search(ctx context.Context, query Box, strategy Strategy) ([]Entry, error) {
	if err := validBox(query); err != nil {
		return nil, err
	}
	if t.root == nil {
		return nil, nil
	}

	scanID := uuid.NewString()
	queryRB := NewRangeBox(query)

	type visit struct {
		n  *node
		rb RectBox
	}
	stack := []visit{{n: t.root, rb: NewRootRectBox()}}

	var results []Entry
	var visited, pruned, leaves int64

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if v.n.isLeaf {
			leaves += int64(len(v.n.entries))
			for _, e := range v.n.entries {
				ok, err := strategy.ConsistentLeaf(e.Box, query)
				if err != nil {
					return nil, err
				}
				if ok {
					results = append(results, e)
				}
			}
			continue
		}

		visited++
		// Resident entries are exact boxes stored at the inner node.
		leaves += int64(len(v.n.resident))
		for _, e := range v.n.resident {
			ok, err := strategy.ConsistentLeaf(e.Box, query)
			if err != nil {
				return nil, err
			}
			if ok {
				results = append(results, e)
			}
		}

		centroid := NewRangeBox(v.n.centroid)
		for q := NW; q <= SE; q++ {
			child := v.n.children[q]
			if child == nil {
				continue
			}
			// Each child gets its own independently owned copy.
			next := v.rb.Next(centroid, q)
			ok, err := strategy.ConsistentRegion(next, queryRB)
			if err != nil {
				return nil, err
			}
			if !ok {
				pruned++
				continue
			}
			stack = append(stack, visit{n: child, rb: next})
		}
	}

	t.metrics.addVisited(ctx, strategy, visited)
	t.metrics.addPruned(ctx, strategy, pruned)
	t.metrics.addLeaves(ctx, strategy, leaves)

	t.logger.Debug("scan complete",
		zap.String("scan_id", scanID),
		zap.String("strategy", strategy.String()),
		zap.Int64("nodes_visited", visited),
		zap.Int64("nodes_pruned", pruned),
		zap.Int64("entries_tested", leaves),
		zap.Int("results", len(results)))

	return results, nil
}
