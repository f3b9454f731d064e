package domain

import (
	sharedDomain "github.com/felixgeelhaar/jobtrack/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "User"

	RoutingKeyUserSynced = "identity.user.synced"
)

// AggregateID maps a provider subject to a stable UUID for event envelopes.
func AggregateID(userID string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("jobtrack:user:"+userID))
}

// UserSynced is emitted when a stored profile is created or changed.
type UserSynced struct {
	sharedDomain.BaseEvent
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Created bool   `json:"created"`
}

// NewUserSynced creates a UserSynced event.
func NewUserSynced(p Profile, created bool) *UserSynced {
	return &UserSynced{
		BaseEvent: sharedDomain.NewBaseEvent(AggregateID(p.ID), AggregateType, RoutingKeyUserSynced),
		UserID:    p.ID,
		Email:     p.Email,
		Created:   created,
	}
}
