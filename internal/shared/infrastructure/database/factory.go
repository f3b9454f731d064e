package database

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Config holds storage connection settings.
type Config struct {
	// Driver overrides detection from URL when set.
	Driver Driver

	// URL is the storage backend connection string.
	URL string

	// Key is the storage access key. When set it replaces the password in URL.
	Key string

	// SQLitePath is used when URL is empty.
	SQLitePath string

	// MaxConns caps the Postgres pool size.
	MaxConns int
}

// Connection is an open storage backend.
type Connection interface {
	Ping(ctx context.Context) error
	Close() error
	Driver() Driver
}

// Opener opens a connection for one driver.
type Opener func(ctx context.Context, cfg Config) (Connection, error)

var (
	openersMu sync.RWMutex
	openers   = make(map[Driver]Opener)
)

// Register makes a driver available to NewConnection. Driver packages call
// it from init, so importing them for side effects is enough.
func Register(driver Driver, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[driver] = open
}

// NewConnection opens the backend selected by cfg.Driver, or detected from
// cfg.URL when unset.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DetectDriver(cfg.URL)
	}
	if !driver.IsValid() {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	openersMu.RLock()
	open, ok := openers[driver]
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s driver not registered", driver)
	}
	return open(ctx, cfg)
}

// ConnString returns URL with Key applied as the password.
func (c Config) ConnString() (string, error) {
	if c.Key == "" {
		return c.URL, nil
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	username := "postgres"
	if u.User != nil && u.User.Username() != "" {
		username = u.User.Username()
	}
	u.User = url.UserPassword(username, c.Key)
	return u.String(), nil
}

// SQLiteFile resolves the SQLite file path from URL or SQLitePath.
func (c Config) SQLiteFile() string {
	if c.URL != "" {
		return strings.TrimPrefix(c.URL, "sqlite://")
	}
	if c.SQLitePath != "" {
		return c.SQLitePath
	}
	return "jobtrack.db"
}

// EnsureDirectory creates the parent directory of path.
func EnsureDirectory(path string) error {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
