package persistence

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/jobtrack/internal/identity/domain"
	sharedPersistence "github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/persistence"
	"github.com/felixgeelhaar/jobtrack/pkg/observability"
	"github.com/jackc/pgx/v5"
)

const tracerName = "jobtrack/identity/persistence"

// PostgresUserRepository handles persistence for users using PostgreSQL.
type PostgresUserRepository struct {
	pool sharedPersistence.Pool
}

// NewPostgresUserRepository creates a new PostgresUserRepository.
func NewPostgresUserRepository(pool sharedPersistence.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Upsert inserts the profile or refreshes the stored copy.
func (r *PostgresUserRepository) Upsert(ctx context.Context, p domain.Profile) (err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "PostgresUserRepository.Upsert")
	defer func() { observability.EndSpan(span, err) }()

	query := `
		INSERT INTO users (id, email, first_name, last_name, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			image_url = EXCLUDED.image_url,
			updated_at = EXCLUDED.updated_at
	`
	return sharedPersistence.InOwnerScope(ctx, r.pool, p.ID, func(exec sharedPersistence.DBExecutor) error {
		_, err := exec.Exec(ctx, query,
			p.ID,
			nullable(p.Email),
			nullable(p.FirstName),
			nullable(p.LastName),
			nullable(p.ImageURL),
			p.UpdatedAt,
		)
		return err
	})
}

// FindByID returns the stored profile, (nil, nil) when absent.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (p *domain.Profile, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "PostgresUserRepository.FindByID")
	defer func() { observability.EndSpan(span, err) }()

	query := `
		SELECT id, COALESCE(email, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
		       COALESCE(image_url, ''), updated_at
		FROM users
		WHERE id = $1
	`
	err = sharedPersistence.InOwnerScope(ctx, r.pool, id, func(exec sharedPersistence.DBExecutor) error {
		var row domain.Profile
		err := exec.QueryRow(ctx, query, id).Scan(
			&row.ID, &row.Email, &row.FirstName, &row.LastName, &row.ImageURL, &row.UpdatedAt,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		p = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
