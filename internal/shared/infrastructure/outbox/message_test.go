package outbox

import (
	"encoding/json"
	"testing"

	"github.com/felixgeelhaar/jobtrack/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	domain.BaseEvent
	Company string `json:"company"`
}

func newTestEvent(owner string) *testEvent {
	e := &testEvent{
		BaseEvent: domain.NewBaseEvent(uuid.New(), "Job", "jobs.job.created"),
		Company:   "Acme",
	}
	e.SetMetadata(domain.EventMetadata{CorrelationID: uuid.New(), OwnerID: owner})
	return e
}

func TestNewMessage(t *testing.T) {
	event := newTestEvent("user_123")

	msg, err := NewMessage(event)
	require.NoError(t, err)

	assert.Equal(t, event.EventID(), msg.EventID)
	assert.Equal(t, "Job", msg.AggregateType)
	assert.Equal(t, event.AggregateID(), msg.AggregateID)
	assert.Equal(t, "jobs.job.created", msg.RoutingKey)
	assert.Equal(t, "jobs.job.created", msg.EventType)
	assert.Equal(t, "user_123", msg.OwnerID())
	assert.False(t, msg.IsPublished())

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Payload, &body))
	assert.Equal(t, event.EventID().String(), body["event_id"])
	assert.Equal(t, "jobs.job.created", body["event_type"])
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Acme", data["company"])
	meta, ok := body["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "user_123", meta["owner_id"])
}

func TestNewMessages(t *testing.T) {
	msgs, err := NewMessages([]domain.DomainEvent{newTestEvent("a"), newTestEvent("b")})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "a", msgs[0].OwnerID())
	assert.Equal(t, "b", msgs[1].OwnerID())

	empty, err := NewMessages(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMessageOwnerIDWithoutMetadata(t *testing.T) {
	assert.Equal(t, "", (&Message{}).OwnerID())
	assert.Equal(t, "", (&Message{Metadata: []byte("not json")}).OwnerID())
}
