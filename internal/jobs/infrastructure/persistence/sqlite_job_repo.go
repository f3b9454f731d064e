package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/felixgeelhaar/jobtrack/internal/jobs/domain/job"
	sharedPersistence "github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

var sqliteEncoder = valueEncoder{
	text: func(s *string) any { return sharedPersistence.NullString(s) },
	date: func(t *time.Time) any { return sharedPersistence.NullSQLiteDate(t) },
	time: func(t time.Time) any { return sharedPersistence.FormatSQLiteTime(t) },
}

// SQLiteJobRepository implements job.Repository using SQLite.
type SQLiteJobRepository struct {
	db *sql.DB
}

// NewSQLiteJobRepository creates a new SQLite job repository.
func NewSQLiteJobRepository(db *sql.DB) *SQLiteJobRepository {
	return &SQLiteJobRepository{db: db}
}

func (r *SQLiteJobRepository) exec(ctx context.Context) sharedPersistence.SQLExecutor {
	return sharedPersistence.SQLiteExecutor(ctx, r.db)
}

// List returns the owner's jobs, newest first.
func (r *SQLiteJobRepository) List(ctx context.Context, ownerID string, status *job.Status) ([]*job.Job, error) {
	if ownerID == "" {
		return nil, sharedPersistence.ErrMissingOwner
	}
	q := sq.Select(jobColumns...).From("jobs").Where(sq.Eq{"user_id": ownerID})
	if status != nil {
		q = q.Where(sq.Eq{"status": status.String()})
	}
	query, args, err := q.OrderBy("created_at DESC", "id").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*job.Job
	for rows.Next() {
		j, err := scanSQLiteJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// Get returns (nil, nil) when no job with id belongs to ownerID.
func (r *SQLiteJobRepository) Get(ctx context.Context, id uuid.UUID, ownerID string) (*job.Job, error) {
	if ownerID == "" {
		return nil, sharedPersistence.ErrMissingOwner
	}
	query, args, err := sq.Select(jobColumns...).From("jobs").
		Where(sq.Eq{"id": id.String(), "user_id": ownerID}).ToSql()
	if err != nil {
		return nil, err
	}

	j, err := scanSQLiteJob(r.exec(ctx).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return j, err
}

// Create inserts a new job.
func (r *SQLiteJobRepository) Create(ctx context.Context, j *job.Job) error {
	query, args, err := sq.Insert("jobs").Columns(jobColumns...).Values(
		j.ID().String(), j.OwnerID(), j.CompanyName(), j.Role(), j.Status().String(),
		sharedPersistence.NullString(j.Salary()),
		sharedPersistence.NullSQLiteDate(j.DateSubmitted()),
		sharedPersistence.NullString(j.JobLink()),
		sharedPersistence.NullString(j.Notes()),
		sharedPersistence.FormatSQLiteTime(j.CreatedAt()),
		sharedPersistence.FormatSQLiteTime(j.UpdatedAt()),
	).ToSql()
	if err != nil {
		return err
	}
	_, err = r.exec(ctx).ExecContext(ctx, query, args...)
	return writeErr(err)
}

// Update writes only the supplied fields and reports whether a row matched.
func (r *SQLiteJobRepository) Update(ctx context.Context, j *job.Job, changes job.Patch) (bool, error) {
	query, args, err := setChanges(sq.Update("jobs"), j, changes, sqliteEncoder).
		Where(sq.Eq{"id": j.ID().String(), "user_id": j.OwnerID()}).ToSql()
	if err != nil {
		return false, err
	}
	result, err := r.exec(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return false, writeErr(err)
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// Delete removes the job if the owner has it.
func (r *SQLiteJobRepository) Delete(ctx context.Context, id uuid.UUID, ownerID string) (bool, error) {
	result, err := r.exec(ctx).ExecContext(ctx,
		`DELETE FROM jobs WHERE id = ? AND user_id = ?`, id.String(), ownerID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// StatusCounts groups the owner's jobs by stored status.
func (r *SQLiteJobRepository) StatusCounts(ctx context.Context, ownerID string) (map[string]int, error) {
	rows, err := r.exec(ctx).QueryContext(ctx,
		`SELECT status, COUNT(*) FROM jobs WHERE user_id = ? GROUP BY status`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// Count returns the number of jobs the owner has.
func (r *SQLiteJobRepository) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.exec(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE user_id = ?`, ownerID).Scan(&n)
	return n, err
}

// LockOwner requires an open transaction; SQLite serializes writers.
func (r *SQLiteJobRepository) LockOwner(ctx context.Context, ownerID string) error {
	return sharedPersistence.RequireSQLiteTx(ctx, ownerID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteJob(row rowScanner) (*job.Job, error) {
	var (
		id, status, createdAt, updatedAt string
		salary, dateSubmitted            sql.NullString
		jobLink, notes                   sql.NullString
		s                                job.Snapshot
	)
	if err := row.Scan(
		&id, &s.OwnerID, &s.CompanyName, &s.Role, &status,
		&salary, &dateSubmitted, &jobLink, &notes,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if s.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("job id %q: %w", id, err)
	}
	if s.DateSubmitted, err = sharedPersistence.ParseNullSQLiteDate(dateSubmitted); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = sharedPersistence.ParseSQLiteTime(createdAt); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = sharedPersistence.ParseSQLiteTime(updatedAt); err != nil {
		return nil, err
	}
	s.Status = job.Status(status)
	s.Salary = sharedPersistence.StringPtr(salary)
	s.JobLink = sharedPersistence.StringPtr(jobLink)
	s.Notes = sharedPersistence.StringPtr(notes)
	return job.Rehydrate(s), nil
}
