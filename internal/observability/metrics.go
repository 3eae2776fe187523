package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/healthdesk/assistant"

// Metrics records resolver outcomes through OpenTelemetry instruments.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	answers    metric.Int64Counter
	confidence metric.Float64Histogram
	cacheHits  metric.Int64Counter
}

// NewMetrics creates the assistant instruments on the given provider.
// A nil provider falls back to the global one, which is a no-op until the host installs an SDK.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	answers, err := meter.Int64Counter("assistant.answers",
		metric.WithDescription("Answers produced, by resolution stage"),
	)
	if err != nil {
		return nil, fmt.Errorf("create answers counter: %w", err)
	}

	confidence, err := meter.Float64Histogram("assistant.match.confidence",
		metric.WithDescription("Confidence of knowledge base matches"),
		metric.WithExplicitBucketBoundaries(0, 0.2, 0.35, 0.5, 0.65, 0.8, 0.9, 1),
	)
	if err != nil {
		return nil, fmt.Errorf("create confidence histogram: %w", err)
	}

	cacheHits, err := meter.Int64Counter("assistant.cache.hits",
		metric.WithDescription("Answers served from the answer cache"),
	)
	if err != nil {
		return nil, fmt.Errorf("create cache counter: %w", err)
	}

	return &Metrics{answers: answers, confidence: confidence, cacheHits: cacheHits}, nil
}

// RecordAnswer counts one answer for the given stage.
func (m *Metrics) RecordAnswer(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.answers.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordConfidence records the confidence of a knowledge base match.
func (m *Metrics) RecordConfidence(ctx context.Context, confidence float64) {
	if m == nil {
		return
	}
	m.confidence.Record(ctx, confidence)
}

// RecordCacheHit counts one cache hit.
func (m *Metrics) RecordCacheHit(ctx context.Context) {
	if m == nil {
		return
	}
	m.cacheHits.Add(ctx, 1)
}
