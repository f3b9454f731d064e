package persistence

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var setOwnerSQL = regexp.QuoteMeta("SELECT set_config('app.user_id', $1, true)")

func TestInOwnerScope(t *testing.T) {
	t.Run("opens a scoped transaction", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		pool.ExpectBegin()
		pool.ExpectExec(setOwnerSQL).WithArgs("user_1").WillReturnResult(pgxmock.NewResult("SELECT", 1))
		pool.ExpectExec("DELETE FROM jobs").WillReturnResult(pgxmock.NewResult("DELETE", 0))
		pool.ExpectCommit()

		err = InOwnerScope(context.Background(), pool, "user_1", func(exec DBExecutor) error {
			_, err := exec.Exec(context.Background(), "DELETE FROM jobs")
			return err
		})

		require.NoError(t, err)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		pool.ExpectBegin()
		pool.ExpectExec(setOwnerSQL).WithArgs("user_1").WillReturnResult(pgxmock.NewResult("SELECT", 1))
		pool.ExpectRollback()

		boom := errors.New("boom")
		err = InOwnerScope(context.Background(), pool, "user_1", func(DBExecutor) error {
			return boom
		})

		assert.ErrorIs(t, err, boom)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("joins the ambient transaction", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		pool.ExpectBegin()
		pool.ExpectExec(setOwnerSQL).WithArgs("user_1").WillReturnResult(pgxmock.NewResult("SELECT", 1))

		tx, err := pool.Begin(context.Background())
		require.NoError(t, err)
		ctx := WithTx(context.Background(), tx, true)

		called := false
		err = InOwnerScope(ctx, pool, "user_1", func(exec DBExecutor) error {
			called = true
			assert.Equal(t, tx, exec)
			return nil
		})

		require.NoError(t, err)
		assert.True(t, called)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("requires an owner", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		pool.ExpectBegin()
		pool.ExpectRollback()

		err = InOwnerScope(context.Background(), pool, "", func(DBExecutor) error { return nil })
		assert.ErrorIs(t, err, ErrMissingOwner)
	})
}
