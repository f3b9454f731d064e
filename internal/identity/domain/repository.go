package domain

import "context"

// UserRepository mirrors identity profiles. Each call is scoped to the
// profile's own ID.
type UserRepository interface {
	// Upsert inserts or refreshes the stored profile.
	Upsert(ctx context.Context, p Profile) error
	// FindByID returns (nil, nil) when the user was never synced.
	FindByID(ctx context.Context, id string) (*Profile, error)
}

// ProfileSource fetches profiles from the identity provider.
type ProfileSource interface {
	GetProfile(ctx context.Context, id string) (*Profile, error)
}
