package persistence

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// TxInfo is the Postgres transaction held by a unit of work.
type TxInfo = AmbientTx[pgx.Tx]

// WithTx stores a Postgres transaction in the context.
func WithTx(ctx context.Context, tx pgx.Tx, owned bool) context.Context {
	return withAmbient(ctx, tx, owned)
}

// TxInfoFromContext returns the Postgres transaction in ctx, if any.
func TxInfoFromContext(ctx context.Context) (TxInfo, bool) {
	return ambientFrom[pgx.Tx](ctx)
}

// DBExecutor is what *pgxpool.Pool, pgx.Tx and pgxmock have in common.
type DBExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// TxBeginner starts transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Pool is the subset of *pgxpool.Pool the repositories use.
type Pool interface {
	DBExecutor
	TxBeginner
}

// Executor returns the ambient transaction when present, otherwise the pool.
func Executor(ctx context.Context, pool DBExecutor) DBExecutor {
	if info, ok := TxInfoFromContext(ctx); ok {
		return info.Tx
	}
	return pool
}
