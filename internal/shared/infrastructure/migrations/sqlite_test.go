package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestRunSQLiteMigrations(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	require.NoError(t, RunSQLiteMigrations(ctx, db))
	require.NoError(t, RunSQLiteMigrations(ctx, db), "migrations must be re-runnable")

	for _, table := range []string{"users", "jobs", "subscriptions", "outbox"} {
		var name string
		err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}

	var versions int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = '0001_init'`).Scan(&versions))
	assert.Equal(t, 1, versions)
}

func TestJobStatusConstraint(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()
	require.NoError(t, RunSQLiteMigrations(ctx, db))

	insert := `INSERT INTO jobs (id, user_id, company_name, role, status, created_at, updated_at)
		VALUES (?, 'user_1', 'Acme', 'Engineer', ?, '2025-01-01', '2025-01-01')`

	_, err = db.ExecContext(ctx, insert, "a", "Interview")
	assert.NoError(t, err)

	_, err = db.ExecContext(ctx, insert, "b", "INTERVIEW")
	assert.Error(t, err)
}
