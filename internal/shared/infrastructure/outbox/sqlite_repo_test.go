package outbox

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/migrations"
	sharedPersistence "github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.RunSQLiteMigrations(context.Background(), db))
	return db
}

func TestSQLiteRepository_SaveAndFetch(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupSQLite(t))

	msg, err := NewMessage(newTestEvent("user_1"))
	require.NoError(t, err)
	require.NoError(t, repo.SaveBatch(ctx, []*Message{msg}))
	assert.NotZero(t, msg.ID)

	pending, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	got := pending[0]
	assert.Equal(t, msg.EventID, got.EventID)
	assert.Equal(t, msg.AggregateID, got.AggregateID)
	assert.Equal(t, "jobs.job.created", got.RoutingKey)
	assert.JSONEq(t, string(msg.Payload), string(got.Payload))
	assert.Equal(t, "user_1", got.OwnerID())
	assert.WithinDuration(t, msg.CreatedAt, got.CreatedAt, time.Microsecond)

	require.NoError(t, repo.MarkPublished(ctx, got.ID))
	pending, err = repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSQLiteRepository_SaveBatchJoinsAmbientTx(t *testing.T) {
	ctx := context.Background()
	db := setupSQLite(t)
	repo := NewSQLiteRepository(db)
	uow := sharedPersistence.NewSQLiteUnitOfWork(db)

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	msg, err := NewMessage(newTestEvent("user_1"))
	require.NoError(t, err)
	require.NoError(t, repo.SaveBatch(txCtx, []*Message{msg}))
	require.NoError(t, uow.Rollback(txCtx))

	pending, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "rolled back messages must not be relayed")
}

func TestSQLiteRepository_RetryAndDeadLetter(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupSQLite(t))

	first, err := NewMessage(newTestEvent("a"))
	require.NoError(t, err)
	second, err := NewMessage(newTestEvent("b"))
	require.NoError(t, err)
	require.NoError(t, repo.SaveBatch(ctx, []*Message{first, second}))

	require.NoError(t, repo.MarkFailed(ctx, first.ID, "broker down", time.Now().Add(time.Hour)))
	require.NoError(t, repo.MarkDead(ctx, second.ID, "poison"))

	pending, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "retry is scheduled in the future and the other is dead")

	require.NoError(t, repo.MarkFailed(ctx, first.ID, "broker down", time.Now().Add(-time.Second)))
	pending, err = repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].RetryCount)
	require.NotNil(t, pending[0].LastError)
	assert.Equal(t, "broker down", *pending[0].LastError)
}

func TestSQLiteRepository_DeleteOld(t *testing.T) {
	ctx := context.Background()
	db := setupSQLite(t)
	repo := NewSQLiteRepository(db)

	msg, err := NewMessage(newTestEvent("a"))
	require.NoError(t, err)
	require.NoError(t, repo.SaveBatch(ctx, []*Message{msg}))

	old := sharedPersistence.FormatSQLiteTime(time.Now().AddDate(0, 0, -30))
	_, err = db.ExecContext(ctx, `UPDATE outbox SET published_at = ? WHERE id = ?`, old, msg.ID)
	require.NoError(t, err)

	deleted, err := repo.DeleteOld(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
