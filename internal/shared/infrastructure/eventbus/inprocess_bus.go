package eventbus

import (
	"context"
	"log/slog"
	"time"
)

// InProcessPublisher delivers events synchronously to registered consumers.
// The worker falls back to it in development when RabbitMQ is unreachable.
type InProcessPublisher struct {
	registry *ConsumerRegistry
	logger   *slog.Logger
}

// NewInProcessPublisher creates an in-process publisher.
func NewInProcessPublisher(registry *ConsumerRegistry, logger *slog.Logger) *InProcessPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = NewConsumerRegistry(logger)
	}
	return &InProcessPublisher{registry: registry, logger: logger}
}

// Publish decodes the envelope and dispatches it. Consumer failures are
// returned so the outbox retries the message.
func (p *InProcessPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event, err := DecodeEvent(payload)
	if err != nil {
		p.logger.Error("failed to decode event payload", "routing_key", routingKey, "error", err)
		return err
	}
	if event.EventType == "" {
		event.EventType = routingKey
	}

	start := time.Now()
	if err := p.registry.Dispatch(ctx, event); err != nil {
		return err
	}

	p.logger.Debug("event dispatched",
		"routing_key", routingKey,
		"event_id", event.EventID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Close is a no-op.
func (p *InProcessPublisher) Close() error {
	return nil
}
