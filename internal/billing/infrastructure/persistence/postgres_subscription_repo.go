package persistence

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/jobtrack/internal/billing/domain"
	sharedPersistence "github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/persistence"
	"github.com/felixgeelhaar/jobtrack/pkg/observability"
	"github.com/jackc/pgx/v5"
)

const tracerName = "jobtrack/billing/persistence"

// PostgresSubscriptionRepository implements SubscriptionRepository with PostgreSQL.
type PostgresSubscriptionRepository struct {
	pool sharedPersistence.Pool
}

// NewPostgresSubscriptionRepository creates a new repository.
func NewPostgresSubscriptionRepository(pool sharedPersistence.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// LockOwner takes the owner's subscription advisory lock in the current
// transaction.
func (r *PostgresSubscriptionRepository) LockOwner(ctx context.Context, ownerID string) error {
	return sharedPersistence.LockOwnerKey(ctx, "subscriptions", ownerID)
}

// Upsert inserts or updates the owner's subscription.
func (r *PostgresSubscriptionRepository) Upsert(ctx context.Context, sub *domain.Subscription) (err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "PostgresSubscriptionRepository.Upsert")
	defer func() { observability.EndSpan(span, err) }()

	query := `
		INSERT INTO subscriptions (
			id, user_id, plan_id, status, payment_reference,
			current_period_start, current_period_end, cancel_at_period_end,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			plan_id = EXCLUDED.plan_id,
			status = EXCLUDED.status,
			payment_reference = EXCLUDED.payment_reference,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			updated_at = EXCLUDED.updated_at
	`
	return sharedPersistence.InOwnerScope(ctx, r.pool, sub.OwnerID, func(exec sharedPersistence.DBExecutor) error {
		_, err := exec.Exec(ctx, query,
			sub.ID,
			sub.OwnerID,
			sub.PlanID,
			string(sub.Status),
			sub.PaymentReference,
			sub.CurrentPeriodStart,
			sub.CurrentPeriodEnd,
			sub.CancelAtPeriodEnd,
			sub.CreatedAt,
			sub.UpdatedAt,
		)
		return err
	})
}

// FindByOwner returns the owner's subscription, (nil, nil) when absent.
func (r *PostgresSubscriptionRepository) FindByOwner(ctx context.Context, ownerID string) (sub *domain.Subscription, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "PostgresSubscriptionRepository.FindByOwner")
	defer func() { observability.EndSpan(span, err) }()

	query := `
		SELECT id, user_id, plan_id, status, payment_reference,
		       current_period_start, current_period_end, cancel_at_period_end,
		       created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1
	`
	err = sharedPersistence.InOwnerScope(ctx, r.pool, ownerID, func(exec sharedPersistence.DBExecutor) error {
		var (
			row    domain.Subscription
			status string
		)
		err := exec.QueryRow(ctx, query, ownerID).Scan(
			&row.ID,
			&row.OwnerID,
			&row.PlanID,
			&status,
			&row.PaymentReference,
			&row.CurrentPeriodStart,
			&row.CurrentPeriodEnd,
			&row.CancelAtPeriodEnd,
			&row.CreatedAt,
			&row.UpdatedAt,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		row.Status = domain.SubscriptionStatus(status)
		sub = &row
		return nil
	})
	return sub, err
}
