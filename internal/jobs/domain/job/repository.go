package job

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists jobs. Every method is scoped to an owner; rows of
// other owners behave as if they did not exist.
type Repository interface {
	// List returns the owner's jobs newest first, optionally filtered by status.
	List(ctx context.Context, ownerID string, status *Status) ([]*Job, error)
	// Get returns (nil, nil) when the job is absent or foreign.
	Get(ctx context.Context, id uuid.UUID, ownerID string) (*Job, error)
	Create(ctx context.Context, j *Job) error
	// Update writes the supplied fields of changes and reports whether a row matched.
	Update(ctx context.Context, j *Job, changes Patch) (bool, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id uuid.UUID, ownerID string) (bool, error)
	// StatusCounts returns the number of jobs per stored status token.
	StatusCounts(ctx context.Context, ownerID string) (map[string]int, error)
	Count(ctx context.Context, ownerID string) (int, error)
	// LockOwner serialises job creation for one owner until the surrounding
	// transaction ends.
	LockOwner(ctx context.Context, ownerID string) error
}
