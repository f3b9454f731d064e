package eventbus

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/jobtrack/pkg/observability"
)

// ActivityConsumer records every delivered event in the log and in the
// consumed-events counter. The worker uses it when no broker is reachable.
type ActivityConsumer struct {
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewActivityConsumer creates an ActivityConsumer.
func NewActivityConsumer(logger *slog.Logger, metrics observability.Metrics) *ActivityConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &ActivityConsumer{logger: logger, metrics: metrics}
}

// EventTypes subscribes to everything.
func (c *ActivityConsumer) EventTypes() []string {
	return []string{AllEvents}
}

// Handle logs the event.
func (c *ActivityConsumer) Handle(ctx context.Context, event *ConsumedEvent) error {
	c.metrics.Counter(observability.MetricEventsConsumed, 1, observability.T("event_type", event.EventType))
	c.logger.InfoContext(ctx, "domain event",
		"event_type", event.EventType,
		"aggregate_type", event.AggregateType,
		"aggregate_id", event.AggregateID,
		"owner_id", event.Metadata.OwnerID,
		"correlation_id", event.Metadata.CorrelationID,
		"occurred_at", event.OccurredAt,
	)
	return nil
}
