package quadsplit

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type engineMetrics struct {
	fallbackSplits   metric.Int64Counter
	redistributions  metric.Int64Counter
	degenerateSplits metric.Int64Counter
}

func newEngineMetrics(meter metric.Meter) (*engineMetrics, error) {
	m := &engineMetrics{}
	var err error

	if m.fallbackSplits, err = meter.Int64Counter("quadsplit.fallback_splits_total",
		metric.WithDescription("Splits that fell back to deterministic quartering")); err != nil {
		return nil, err
	}
	if m.redistributions, err = meter.Int64Counter("quadsplit.dontcare_redistributions_total",
		metric.WithDescription("Don't-care entries redistributed using later attributes")); err != nil {
		return nil, err
	}
	if m.degenerateSplits, err = meter.Int64Counter("quadsplit.degenerate_splits_total",
		metric.WithDescription("Attribute splits discarded as degenerate")); err != nil {
		return nil, err
	}
	return m, nil
}

func attrOpt(attno int) metric.AddOption {
	return metric.WithAttributes(attribute.Int("attribute", attno))
}

func (m *engineMetrics) addFallback(attno int) {
	m.fallbackSplits.Add(context.Background(), 1, attrOpt(attno))
}

func (m *engineMetrics) addRedistributed(attno int, n int64) {
	m.redistributions.Add(context.Background(), n, attrOpt(attno))
}

func (m *engineMetrics) addDegenerate(attno int) {
	m.degenerateSplits.Add(context.Background(), 1, attrOpt(attno))
}
