package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/felixgeelhaar/jobtrack/internal/identity/domain"
	sharedPersistence "github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/persistence"
)

// SQLiteUserRepository implements UserRepository using SQLite.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository creates a new SQLite user repository.
func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

// Upsert inserts the profile or refreshes the stored copy.
func (r *SQLiteUserRepository) Upsert(ctx context.Context, p domain.Profile) error {
	if p.ID == "" {
		return sharedPersistence.ErrMissingOwner
	}
	query := `
		INSERT INTO users (id, email, first_name, last_name, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			email = excluded.email,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			image_url = excluded.image_url,
			updated_at = excluded.updated_at
	`
	ts := sharedPersistence.FormatSQLiteTime(p.UpdatedAt)
	_, err := sharedPersistence.SQLiteExecutor(ctx, r.db).ExecContext(ctx, query,
		p.ID,
		sharedPersistence.NullString(nullable(p.Email)),
		sharedPersistence.NullString(nullable(p.FirstName)),
		sharedPersistence.NullString(nullable(p.LastName)),
		sharedPersistence.NullString(nullable(p.ImageURL)),
		ts,
		ts,
	)
	return err
}

// FindByID returns the stored profile, (nil, nil) when absent.
func (r *SQLiteUserRepository) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	if id == "" {
		return nil, sharedPersistence.ErrMissingOwner
	}
	query := `
		SELECT id, COALESCE(email, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
		       COALESCE(image_url, ''), updated_at
		FROM users
		WHERE id = ?
	`
	var (
		p         domain.Profile
		updatedAt string
	)
	err := sharedPersistence.SQLiteExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.ImageURL, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = sharedPersistence.ParseSQLiteTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
