package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/jobtrack/internal/billing/domain"
	sharedPersistence "github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

// SQLiteSubscriptionRepository implements SubscriptionRepository with SQLite.
type SQLiteSubscriptionRepository struct {
	db *sql.DB
}

// NewSQLiteSubscriptionRepository creates a new repository.
func NewSQLiteSubscriptionRepository(db *sql.DB) *SQLiteSubscriptionRepository {
	return &SQLiteSubscriptionRepository{db: db}
}

// LockOwner requires an open transaction.
func (r *SQLiteSubscriptionRepository) LockOwner(ctx context.Context, ownerID string) error {
	return sharedPersistence.RequireSQLiteTx(ctx, ownerID)
}

// Upsert inserts or updates the owner's subscription.
func (r *SQLiteSubscriptionRepository) Upsert(ctx context.Context, sub *domain.Subscription) error {
	if sub.OwnerID == "" {
		return sharedPersistence.ErrMissingOwner
	}
	cancel := 0
	if sub.CancelAtPeriodEnd {
		cancel = 1
	}
	query := `
		INSERT INTO subscriptions (
			id, user_id, plan_id, status, payment_reference,
			current_period_start, current_period_end, cancel_at_period_end,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			plan_id = excluded.plan_id,
			status = excluded.status,
			payment_reference = excluded.payment_reference,
			current_period_start = excluded.current_period_start,
			current_period_end = excluded.current_period_end,
			cancel_at_period_end = excluded.cancel_at_period_end,
			updated_at = excluded.updated_at
	`
	_, err := sharedPersistence.SQLiteExecutor(ctx, r.db).ExecContext(ctx, query,
		sub.ID.String(),
		sub.OwnerID,
		sub.PlanID,
		string(sub.Status),
		sharedPersistence.NullString(sub.PaymentReference),
		sharedPersistence.NullSQLiteTime(sub.CurrentPeriodStart),
		sharedPersistence.NullSQLiteTime(sub.CurrentPeriodEnd),
		cancel,
		sharedPersistence.FormatSQLiteTime(sub.CreatedAt),
		sharedPersistence.FormatSQLiteTime(sub.UpdatedAt),
	)
	return err
}

// FindByOwner returns the owner's subscription, (nil, nil) when absent.
func (r *SQLiteSubscriptionRepository) FindByOwner(ctx context.Context, ownerID string) (*domain.Subscription, error) {
	if ownerID == "" {
		return nil, sharedPersistence.ErrMissingOwner
	}
	query := `
		SELECT id, user_id, plan_id, status, payment_reference,
		       current_period_start, current_period_end, cancel_at_period_end,
		       created_at, updated_at
		FROM subscriptions
		WHERE user_id = ?
	`
	var (
		sub                    domain.Subscription
		id, status             string
		reference              sql.NullString
		periodStart, periodEnd sql.NullString
		cancel                 int
		createdAt, updatedAt   string
	)
	err := sharedPersistence.SQLiteExecutor(ctx, r.db).QueryRowContext(ctx, query, ownerID).Scan(
		&id, &sub.OwnerID, &sub.PlanID, &status, &reference,
		&periodStart, &periodEnd, &cancel,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if sub.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("subscription id %q: %w", id, err)
	}
	if sub.CurrentPeriodStart, err = sharedPersistence.ParseNullSQLiteTime(periodStart); err != nil {
		return nil, err
	}
	if sub.CurrentPeriodEnd, err = sharedPersistence.ParseNullSQLiteTime(periodEnd); err != nil {
		return nil, err
	}
	if sub.CreatedAt, err = sharedPersistence.ParseSQLiteTime(createdAt); err != nil {
		return nil, err
	}
	if sub.UpdatedAt, err = sharedPersistence.ParseSQLiteTime(updatedAt); err != nil {
		return nil, err
	}
	sub.Status = domain.SubscriptionStatus(status)
	sub.PaymentReference = sharedPersistence.StringPtr(reference)
	sub.CancelAtPeriodEnd = cancel != 0
	return &sub, nil
}
