package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/jobtrack/internal/shared/domain"
)

const (
	AggregateType = "Subscription"

	RoutingKeyActivated = "billing.subscription.activated"
)

// SubscriptionActivated is emitted when a payment upgrades an owner.
type SubscriptionActivated struct {
	sharedDomain.BaseEvent
	PlanID           string     `json:"plan_id"`
	PaymentReference string     `json:"payment_reference"`
	PeriodEnd        *time.Time `json:"current_period_end,omitempty"`
}

// NewSubscriptionActivated creates a SubscriptionActivated event.
func NewSubscriptionActivated(sub *Subscription) *SubscriptionActivated {
	var ref string
	if sub.PaymentReference != nil {
		ref = *sub.PaymentReference
	}
	return &SubscriptionActivated{
		BaseEvent:        sharedDomain.NewBaseEvent(sub.ID, AggregateType, RoutingKeyActivated),
		PlanID:           sub.PlanID,
		PaymentReference: ref,
		PeriodEnd:        sub.CurrentPeriodEnd,
	}
}
