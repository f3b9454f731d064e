package database

import "strings"

// Driver names a storage backend.
type Driver string

const (
	// DriverPostgres is the managed Postgres backend with row-level security.
	DriverPostgres Driver = "postgres"
	// DriverSQLite is the embedded single-file backend used locally and in tests.
	DriverSQLite Driver = "sqlite"
)

func (d Driver) String() string { return string(d) }

// IsValid reports whether d is a known backend.
func (d Driver) IsValid() bool {
	return d == DriverPostgres || d == DriverSQLite
}

var (
	sqlitePrefixes = []string{"sqlite://", "file:", ":memory:"}
	sqliteSuffixes = []string{".db", ".sqlite", ".sqlite3"}
)

// DetectDriver picks the backend a storage URL points at. An empty URL
// selects SQLite; anything not recognisably SQLite is treated as a Postgres
// DSN.
func DetectDriver(url string) Driver {
	if url == "" {
		return DriverSQLite
	}
	lower := strings.ToLower(url)
	for _, p := range sqlitePrefixes {
		if strings.HasPrefix(lower, p) {
			return DriverSQLite
		}
	}
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DriverPostgres
	}
	for _, s := range sqliteSuffixes {
		if strings.HasSuffix(lower, s) {
			return DriverSQLite
		}
	}
	return DriverPostgres
}
