package persistence

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/felixgeelhaar/jobtrack/internal/jobs/domain/job"
	sharedPersistence "github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/persistence"
	"github.com/felixgeelhaar/jobtrack/pkg/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var pgEncoder = valueEncoder{
	text: func(s *string) any { return s },
	date: func(t *time.Time) any { return t },
	time: func(t time.Time) any { return t },
}

// PostgresJobRepository implements job.Repository using PostgreSQL.
// Every call runs with app.user_id set so row-level security applies, and
// also filters on user_id explicitly.
type PostgresJobRepository struct {
	pool sharedPersistence.Pool
}

// NewPostgresJobRepository creates a new PostgreSQL job repository.
func NewPostgresJobRepository(pool sharedPersistence.Pool) *PostgresJobRepository {
	return &PostgresJobRepository{pool: pool}
}

// List returns the owner's jobs, newest first.
func (r *PostgresJobRepository) List(ctx context.Context, ownerID string, status *job.Status) (jobs []*job.Job, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "PostgresJobRepository.List")
	defer func() { observability.EndSpan(span, err) }()

	q := psql.Select(jobColumns...).From("jobs").Where(sq.Eq{"user_id": ownerID})
	if status != nil {
		q = q.Where(sq.Eq{"status": status.String()})
	}
	query, args, err := q.OrderBy("created_at DESC", "id").ToSql()
	if err != nil {
		return nil, err
	}

	err = sharedPersistence.InOwnerScope(ctx, r.pool, ownerID, func(exec sharedPersistence.DBExecutor) error {
		rows, err := exec.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		jobs, err = pgx.CollectRows(rows, scanPgJob)
		return err
	})
	return jobs, err
}

// Get returns (nil, nil) when no job with id belongs to ownerID.
func (r *PostgresJobRepository) Get(ctx context.Context, id uuid.UUID, ownerID string) (j *job.Job, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "PostgresJobRepository.Get",
		attribute.String("job.id", id.String()))
	defer func() { observability.EndSpan(span, err) }()

	query, args, err := psql.Select(jobColumns...).From("jobs").
		Where(sq.Eq{"id": id, "user_id": ownerID}).ToSql()
	if err != nil {
		return nil, err
	}

	err = sharedPersistence.InOwnerScope(ctx, r.pool, ownerID, func(exec sharedPersistence.DBExecutor) error {
		rows, err := exec.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		found, err := pgx.CollectRows(rows, scanPgJob)
		if err != nil {
			return err
		}
		if len(found) > 0 {
			j = found[0]
		}
		return nil
	})
	return j, err
}

// Create inserts a new job.
func (r *PostgresJobRepository) Create(ctx context.Context, j *job.Job) (err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "PostgresJobRepository.Create")
	defer func() { observability.EndSpan(span, err) }()

	query, args, err := psql.Insert("jobs").Columns(jobColumns...).Values(
		j.ID(), j.OwnerID(), j.CompanyName(), j.Role(), j.Status().String(),
		j.Salary(), j.DateSubmitted(), j.JobLink(), j.Notes(),
		j.CreatedAt(), j.UpdatedAt(),
	).ToSql()
	if err != nil {
		return err
	}

	return sharedPersistence.InOwnerScope(ctx, r.pool, j.OwnerID(), func(exec sharedPersistence.DBExecutor) error {
		_, err := exec.Exec(ctx, query, args...)
		return writeErr(err)
	})
}

// Update writes only the supplied fields and reports whether a row matched.
func (r *PostgresJobRepository) Update(ctx context.Context, j *job.Job, changes job.Patch) (found bool, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "PostgresJobRepository.Update",
		attribute.String("job.id", j.ID().String()))
	defer func() { observability.EndSpan(span, err) }()

	query, args, err := setChanges(psql.Update("jobs"), j, changes, pgEncoder).
		Where(sq.Eq{"id": j.ID(), "user_id": j.OwnerID()}).ToSql()
	if err != nil {
		return false, err
	}

	err = sharedPersistence.InOwnerScope(ctx, r.pool, j.OwnerID(), func(exec sharedPersistence.DBExecutor) error {
		tag, err := exec.Exec(ctx, query, args...)
		if err != nil {
			return writeErr(err)
		}
		found = tag.RowsAffected() > 0
		return nil
	})
	return found, err
}

// Delete removes the job if the owner has it.
func (r *PostgresJobRepository) Delete(ctx context.Context, id uuid.UUID, ownerID string) (deleted bool, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "PostgresJobRepository.Delete",
		attribute.String("job.id", id.String()))
	defer func() { observability.EndSpan(span, err) }()

	err = sharedPersistence.InOwnerScope(ctx, r.pool, ownerID, func(exec sharedPersistence.DBExecutor) error {
		tag, err := exec.Exec(ctx, `DELETE FROM jobs WHERE id = $1 AND user_id = $2`, id, ownerID)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		return nil
	})
	return deleted, err
}

// StatusCounts groups the owner's jobs by stored status.
func (r *PostgresJobRepository) StatusCounts(ctx context.Context, ownerID string) (counts map[string]int, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "PostgresJobRepository.StatusCounts")
	defer func() { observability.EndSpan(span, err) }()

	counts = make(map[string]int)
	err = sharedPersistence.InOwnerScope(ctx, r.pool, ownerID, func(exec sharedPersistence.DBExecutor) error {
		rows, err := exec.Query(ctx,
			`SELECT status, COUNT(*) FROM jobs WHERE user_id = $1 GROUP BY status`, ownerID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				status string
				n      int
			)
			if err := rows.Scan(&status, &n); err != nil {
				return err
			}
			counts[status] = n
		}
		return rows.Err()
	})
	return counts, err
}

// Count returns the number of jobs the owner has.
func (r *PostgresJobRepository) Count(ctx context.Context, ownerID string) (n int, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "PostgresJobRepository.Count")
	defer func() { observability.EndSpan(span, err) }()

	err = sharedPersistence.InOwnerScope(ctx, r.pool, ownerID, func(exec sharedPersistence.DBExecutor) error {
		return exec.QueryRow(ctx, `SELECT COUNT(*) FROM jobs WHERE user_id = $1`, ownerID).Scan(&n)
	})
	return n, err
}

// LockOwner takes a transaction-scoped advisory lock keyed on the owner.
// It must run inside a unit of work to have any effect.
func (r *PostgresJobRepository) LockOwner(ctx context.Context, ownerID string) error {
	return sharedPersistence.LockOwnerKey(ctx, "jobs", ownerID)
}

func scanPgJob(row pgx.CollectableRow) (*job.Job, error) {
	var (
		s      job.Snapshot
		status string
	)
	if err := row.Scan(
		&s.ID, &s.OwnerID, &s.CompanyName, &s.Role, &status,
		&s.Salary, &s.DateSubmitted, &s.JobLink, &s.Notes,
		&s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.Status = job.Status(status)
	return job.Rehydrate(s), nil
}
