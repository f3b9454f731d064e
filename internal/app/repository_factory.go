package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	billingDomain "github.com/felixgeelhaar/jobtrack/internal/billing/domain"
	billingPersistence "github.com/felixgeelhaar/jobtrack/internal/billing/infrastructure/persistence"
	identityDomain "github.com/felixgeelhaar/jobtrack/internal/identity/domain"
	identityPersistence "github.com/felixgeelhaar/jobtrack/internal/identity/infrastructure/persistence"
	"github.com/felixgeelhaar/jobtrack/internal/jobs/domain/job"
	jobsPersistence "github.com/felixgeelhaar/jobtrack/internal/jobs/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/jobtrack/internal/shared/application"
	"github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/persistence"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryFactory creates repositories based on the database driver.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{
		conn:   conn,
		driver: conn.Driver(),
	}
}

// backends holds one constructor per driver; perDriver picks the one
// matching the connection.
type backends[T any] struct {
	postgres func(*pgxpool.Pool) T
	sqlite   func(*sql.DB) T
}

func perDriver[T any](f *RepositoryFactory, b backends[T]) (T, error) {
	var zero T
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return zero, err
		}
		return b.postgres(pool), nil
	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return zero, err
		}
		return b.sqlite(db), nil
	default:
		return zero, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// JobRepository creates the owner-scoped job store.
func (f *RepositoryFactory) JobRepository() (job.Repository, error) {
	return perDriver(f, backends[job.Repository]{
		postgres: func(p *pgxpool.Pool) job.Repository { return jobsPersistence.NewPostgresJobRepository(p) },
		sqlite:   func(db *sql.DB) job.Repository { return jobsPersistence.NewSQLiteJobRepository(db) },
	})
}

// SubscriptionRepository creates the subscription store.
func (f *RepositoryFactory) SubscriptionRepository() (billingDomain.SubscriptionRepository, error) {
	return perDriver(f, backends[billingDomain.SubscriptionRepository]{
		postgres: func(p *pgxpool.Pool) billingDomain.SubscriptionRepository {
			return billingPersistence.NewPostgresSubscriptionRepository(p)
		},
		sqlite: func(db *sql.DB) billingDomain.SubscriptionRepository {
			return billingPersistence.NewSQLiteSubscriptionRepository(db)
		},
	})
}

// UserRepository creates the store for synced identity profiles.
func (f *RepositoryFactory) UserRepository() (identityDomain.UserRepository, error) {
	return perDriver(f, backends[identityDomain.UserRepository]{
		postgres: func(p *pgxpool.Pool) identityDomain.UserRepository { return identityPersistence.NewPostgresUserRepository(p) },
		sqlite:   func(db *sql.DB) identityDomain.UserRepository { return identityPersistence.NewSQLiteUserRepository(db) },
	})
}

// OutboxRepository creates the event outbox.
func (f *RepositoryFactory) OutboxRepository() (outbox.Repository, error) {
	return perDriver(f, backends[outbox.Repository]{
		postgres: func(p *pgxpool.Pool) outbox.Repository { return outbox.NewPostgresRepository(p) },
		sqlite:   func(db *sql.DB) outbox.Repository { return outbox.NewSQLiteRepository(db) },
	})
}

// UnitOfWork creates the transaction boundary shared by the repositories.
func (f *RepositoryFactory) UnitOfWork() (sharedApplication.UnitOfWork, error) {
	return perDriver(f, backends[sharedApplication.UnitOfWork]{
		postgres: func(p *pgxpool.Pool) sharedApplication.UnitOfWork { return sharedPersistence.NewPostgresUnitOfWork(p) },
		sqlite:   func(db *sql.DB) sharedApplication.UnitOfWork { return sharedPersistence.NewSQLiteUnitOfWork(db) },
	})
}

// Migrate applies the schema: goose for Postgres, the embedded runner for
// SQLite.
func (f *RepositoryFactory) Migrate(ctx context.Context, logger *slog.Logger) error {
	run, err := perDriver(f, backends[func() error]{
		postgres: func(p *pgxpool.Pool) func() error {
			return func() error { return migrations.RunPostgresMigrations(ctx, p, logger) }
		},
		sqlite: func(db *sql.DB) func() error {
			return func() error { return migrations.RunSQLiteMigrations(ctx, db) }
		},
	})
	if err != nil {
		return err
	}
	return run()
}

func (f *RepositoryFactory) getPostgresPool() (*pgxpool.Pool, error) {
	pgConn, ok := f.conn.(interface{ Pool() *pgxpool.Pool })
	if !ok {
		return nil, fmt.Errorf("postgres connection does not expose Pool()")
	}
	return pgConn.Pool(), nil
}

func (f *RepositoryFactory) getSQLiteDB() (*sql.DB, error) {
	sqliteConn, ok := f.conn.(interface{ DB() *sql.DB })
	if !ok {
		return nil, fmt.Errorf("sqlite connection does not expose DB()")
	}
	return sqliteConn.DB(), nil
}

// Driver returns the database driver type.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}

// Connection returns the underlying database connection.
func (f *RepositoryFactory) Connection() database.Connection {
	return f.conn
}
