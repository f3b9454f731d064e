package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus represents the current billing state.
type SubscriptionStatus string

const (
	SubscriptionFree      SubscriptionStatus = "free"
	SubscriptionPro       SubscriptionStatus = "pro"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
)

// BillingPeriod is the length of a paid period. It is advisory only;
// nothing expires a subscription when it lapses.
const BillingPeriod = 30 * 24 * time.Hour

// Subscription is the single subscription row an owner may have.
type Subscription struct {
	ID                 uuid.UUID          `json:"id"`
	OwnerID            string             `json:"user_id"`
	PlanID             string             `json:"plan_id"`
	Status             SubscriptionStatus `json:"status"`
	PaymentReference   *string            `json:"payment_reference,omitempty"`
	CurrentPeriodStart *time.Time         `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time         `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool               `json:"cancel_at_period_end"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// IsPro reports whether the subscription grants paid entitlement.
// A nil subscription is the free tier.
func (s *Subscription) IsPro() bool {
	return s != nil && s.Status == SubscriptionPro
}

// ActivatePro returns the pro subscription for ownerID after a verified
// payment, reusing the identity of existing when there is one.
func ActivatePro(existing *Subscription, ownerID, planID, reference string, now time.Time) *Subscription {
	now = now.UTC()
	end := now.Add(BillingPeriod)
	ref := reference

	sub := &Subscription{
		ID:                 uuid.New(),
		OwnerID:            ownerID,
		PlanID:             planID,
		Status:             SubscriptionPro,
		PaymentReference:   &ref,
		CurrentPeriodStart: &now,
		CurrentPeriodEnd:   &end,
		CancelAtPeriodEnd:  false,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if existing != nil {
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
	}
	return sub
}
