package loosequad

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// treeMetrics holds the instruments recorded during scans and splits.
// Instruments are created against the supplied meter; with a noop meter
// every record call is free.
type treeMetrics struct {
	nodesVisited  metric.Int64Counter
	nodesPruned   metric.Int64Counter
	leavesScanned metric.Int64Counter
	leafSplits    metric.Int64Counter
}

func newTreeMetrics(meter metric.Meter) (*treeMetrics, error) {
	m := &treeMetrics{}
	var err error

	if m.nodesVisited, err = meter.Int64Counter("loosequad.scan_nodes_visited_total",
		metric.WithDescription("Inner nodes visited during scans")); err != nil {
		return nil, err
	}
	if m.nodesPruned, err = meter.Int64Counter("loosequad.scan_nodes_pruned_total",
		metric.WithDescription("Subtrees pruned by region predicates during scans")); err != nil {
		return nil, err
	}
	if m.leavesScanned, err = meter.Int64Counter("loosequad.scan_leaves_total",
		metric.WithDescription("Leaf entries tested during scans")); err != nil {
		return nil, err
	}
	if m.leafSplits, err = meter.Int64Counter("loosequad.leaf_splits_total",
		metric.WithDescription("Leaf nodes split on overflow")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *treeMetrics) scanAttrs(s Strategy) metric.AddOption {
	return metric.WithAttributes(attribute.String("strategy", s.String()))
}

func (m *treeMetrics) addVisited(ctx context.Context, s Strategy, n int64) {
	m.nodesVisited.Add(ctx, n, m.scanAttrs(s))
}

func (m *treeMetrics) addPruned(ctx context.Context, s Strategy, n int64) {
	m.nodesPruned.Add(ctx, n, m.scanAttrs(s))
}

func (m *treeMetrics) addLeaves(ctx context.Context, s Strategy, n int64) {
	m.leavesScanned.Add(ctx, n, m.scanAttrs(s))
}

func (m *treeMetrics) addSplit(ctx context.Context) {
	m.leafSplits.Add(ctx, 1)
}
