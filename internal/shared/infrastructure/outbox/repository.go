package outbox

import (
	"context"
	"time"
)

// Writer stores outbox messages, inside the caller's transaction when there is one.
type Writer interface {
	SaveBatch(ctx context.Context, msgs []*Message) error
}

// Repository is the full outbox store used by the relay.
type Repository interface {
	Writer

	// GetUnpublished returns messages due for publishing, oldest first.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)

	// MarkPublished marks a message as successfully published.
	MarkPublished(ctx context.Context, id int64) error

	// MarkFailed records a publish failure and schedules the next attempt.
	MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error

	// MarkDead stops retrying a message.
	MarkDead(ctx context.Context, id int64, reason string) error

	// DeleteOld removes published messages older than the retention period.
	DeleteOld(ctx context.Context, olderThanDays int) (int64, error)
}
