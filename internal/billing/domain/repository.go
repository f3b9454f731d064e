package domain

import "context"

// SubscriptionRepository persists subscriptions, one per owner.
type SubscriptionRepository interface {
	// FindByOwner returns (nil, nil) when the owner has no subscription.
	// A non-nil error always means the lookup failed.
	FindByOwner(ctx context.Context, ownerID string) (*Subscription, error)
	// Upsert inserts or replaces the owner's subscription.
	Upsert(ctx context.Context, sub *Subscription) error
	// LockOwner serializes subscription changes for one owner until the
	// surrounding unit of work ends.
	LockOwner(ctx context.Context, ownerID string) error
}
