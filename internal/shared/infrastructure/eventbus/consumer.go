package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/jobtrack/internal/shared/domain"
	"github.com/google/uuid"
)

// EventConsumer handles specific event types.
type EventConsumer interface {
	// EventTypes returns the routing keys this consumer handles,
	// e.g. ["jobs.job.created"]. AllEvents subscribes to everything.
	EventTypes() []string

	// Handle processes the event.
	Handle(ctx context.Context, event *ConsumedEvent) error
}

// AllEvents subscribes a consumer to every routing key.
const AllEvents = "#"

// ConsumedEvent is the envelope written by the outbox and delivered to consumers.
type ConsumedEvent struct {
	EventID       uuid.UUID            `json:"event_id"`
	EventType     string               `json:"event_type"`
	AggregateType string               `json:"aggregate_type"`
	AggregateID   uuid.UUID            `json:"aggregate_id"`
	OccurredAt    time.Time            `json:"occurred_at"`
	Metadata      domain.EventMetadata `json:"metadata"`
	Data          json.RawMessage      `json:"data"`
}

// DecodeEvent parses an envelope.
func DecodeEvent(payload []byte) (*ConsumedEvent, error) {
	var event ConsumedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
