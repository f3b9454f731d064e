package persistence

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// PostgresUnitOfWork keeps a pgx transaction in the context.
type PostgresUnitOfWork struct {
	txUnit[pgx.Tx]
}

// NewPostgresUnitOfWork creates a unit of work over pool.
func NewPostgresUnitOfWork(pool TxBeginner) *PostgresUnitOfWork {
	return &PostgresUnitOfWork{txUnit[pgx.Tx]{
		begin:    func(ctx context.Context) (pgx.Tx, error) { return pool.Begin(ctx) },
		commit:   func(ctx context.Context, tx pgx.Tx) error { return tx.Commit(ctx) },
		rollback: func(ctx context.Context, tx pgx.Tx) error { return tx.Rollback(ctx) },
	}}
}
