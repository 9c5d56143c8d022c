package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// JobMetrics holds instruments for the transcription job pipeline.
// A nil *JobMetrics is valid: all record methods become no-ops, so callers
// never need to branch on whether metrics are enabled.
type JobMetrics struct {
	submitted            metric.Int64Counter
	finished             metric.Int64Counter
	active               metric.Int64UpDownCounter
	transcriptionSeconds metric.Float64Histogram
}

// NewJobMetrics creates job pipeline instruments on the given meter.
func NewJobMetrics(meter metric.Meter) (*JobMetrics, error) {
	submitted, err := meter.Int64Counter("jobs.submitted",
		metric.WithDescription("Total jobs accepted for processing"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating jobs.submitted counter: %w", err)
	}

	finished, err := meter.Int64Counter("jobs.finished",
		metric.WithDescription("Total jobs reaching a terminal state, by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating jobs.finished counter: %w", err)
	}

	active, err := meter.Int64UpDownCounter("jobs.active",
		metric.WithDescription("Jobs currently pending or processing"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating jobs.active gauge: %w", err)
	}

	transcriptionSeconds, err := meter.Float64Histogram("transcription.duration",
		metric.WithDescription("Duration of remote transcription calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcription.duration histogram: %w", err)
	}

	return &JobMetrics{
		submitted:            submitted,
		finished:             finished,
		active:               active,
		transcriptionSeconds: transcriptionSeconds,
	}, nil
}

// RecordSubmitted counts an accepted job.
func (m *JobMetrics) RecordSubmitted(ctx context.Context) {
	if m == nil {
		return
	}
	m.submitted.Add(ctx, 1)
	m.active.Add(ctx, 1)
}

// RecordFinished counts a job reaching a terminal state and records the
// remote call duration.
func (m *JobMetrics) RecordFinished(ctx context.Context, status string, callDuration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.finished.Add(ctx, 1, attrs)
	m.active.Add(ctx, -1)
	m.transcriptionSeconds.Record(ctx, callDuration.Seconds(), attrs)
}
