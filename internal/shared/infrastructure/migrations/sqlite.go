package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"
)

//go:embed sqlite/*.sql
var sqliteFS embed.FS

// RunSQLiteMigrations applies the embedded scripts that are not yet recorded
// in schema_migrations, in file-name order, one transaction per script.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	scripts, err := fs.Glob(sqliteFS, "sqlite/*.up.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	applied, err := appliedSQLiteVersions(ctx, db)
	if err != nil {
		return err
	}

	for _, script := range scripts {
		version := strings.TrimSuffix(path.Base(script), ".up.sql")
		if applied[version] {
			continue
		}
		body, err := sqliteFS.ReadFile(script)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", version, err)
		}
		if err := applySQLiteMigration(ctx, db, version, string(body)); err != nil {
			return err
		}
	}
	return nil
}

func appliedSQLiteVersions(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func applySQLiteMigration(ctx context.Context, db *sql.DB, version, body string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return fmt.Errorf("apply migration %s: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
		version, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	return tx.Commit()
}
