package observability

import (
	"context"
	"log/slog"
	"time"
)

// Timer measures one call of an operation. Stop records the duration, the
// outcome and, when a logger is attached, a log line carrying the request
// IDs from ctx.
type Timer struct {
	operation string
	start     time.Time
	logger    *slog.Logger
	metrics   Metrics
	tags      []Tag
}

// StartTimer starts timing operation.
func StartTimer(operation string) *Timer {
	return &Timer{operation: operation, start: time.Now()}
}

// WithLogger logs completions at debug level and failures at warn level.
func (t *Timer) WithLogger(logger *slog.Logger) *Timer {
	t.logger = logger
	return t
}

// WithMetrics records duration and outcome counters on Stop.
func (t *Timer) WithMetrics(metrics Metrics) *Timer {
	t.metrics = metrics
	return t
}

// WithTags adds metric labels.
func (t *Timer) WithTags(tags ...Tag) *Timer {
	t.tags = append(t.tags, tags...)
	return t
}

// Stop ends the measurement with the outcome of err.
func (t *Timer) Stop(ctx context.Context, err error) time.Duration {
	duration := time.Since(t.start)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}

	if t.logger != nil {
		level := slog.LevelDebug
		attrs := []slog.Attr{
			slog.String("operation", t.operation),
			slog.Int64("duration_ms", duration.Milliseconds()),
		}
		if err != nil {
			level = slog.LevelWarn
			attrs = append(attrs, slog.Any("error", err))
		}
		t.logger.LogAttrs(ctx, level, "operation "+outcome, attrs...)
	}

	if t.metrics != nil {
		tags := append([]Tag{T("operation", t.operation), T("outcome", outcome)}, t.tags...)
		t.metrics.Timing(MetricOperationDuration, duration, tags...)
		t.metrics.Counter(MetricOperationTotal, 1, tags...)
		if err != nil {
			t.metrics.Counter(MetricOperationErrors, 1, T("operation", t.operation))
		}
	}
	return duration
}
