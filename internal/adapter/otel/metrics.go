package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "crmlite"

// Metrics holds all crmlite metric instruments.
type Metrics struct {
	StrategiesGenerated metric.Int64Counter
	StrategiesFailed    metric.Int64Counter
	GenerationDuration  metric.Float64Histogram
	CascadeDeletes      metric.Int64Counter
	CascadeRows         metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.StrategiesGenerated, err = meter.Int64Counter("crmlite.strategies.generated",
		metric.WithDescription("Number of strategies generated and persisted"))
	if err != nil {
		return nil, err
	}

	m.StrategiesFailed, err = meter.Int64Counter("crmlite.strategies.failed",
		metric.WithDescription("Number of strategy generations that failed"))
	if err != nil {
		return nil, err
	}

	m.GenerationDuration, err = meter.Float64Histogram("crmlite.strategy.generation_seconds",
		metric.WithDescription("Strategy generation latency in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.CascadeDeletes, err = meter.Int64Counter("crmlite.opportunities.deleted",
		metric.WithDescription("Number of opportunities deleted"))
	if err != nil {
		return nil, err
	}

	m.CascadeRows, err = meter.Int64Counter("crmlite.cascade.rows",
		metric.WithDescription("Child rows removed by opportunity deletes"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordGeneration counts one generation attempt and its latency. reason is
// empty on success.
func (m *Metrics) RecordGeneration(ctx context.Context, started time.Time, reason string) {
	if m == nil {
		return
	}
	m.GenerationDuration.Record(ctx, time.Since(started).Seconds())
	if reason == "" {
		m.StrategiesGenerated.Add(ctx, 1)
		return
	}
	m.StrategiesFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordCascade counts one opportunity delete and the children it removed.
func (m *Metrics) RecordCascade(ctx context.Context, interactions, strategies int64) {
	if m == nil {
		return
	}
	m.CascadeDeletes.Add(ctx, 1)
	m.CascadeRows.Add(ctx, interactions, metric.WithAttributes(attribute.String("entity", "interaction")))
	m.CascadeRows.Add(ctx, strategies, metric.WithAttributes(attribute.String("entity", "strategy")))
}
