package persistence

import (
	"database/sql"
	"time"
)

// sqliteTimeLayout is fixed-width so TEXT columns sort chronologically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// sqliteDateLayout stores calendar dates.
const sqliteDateLayout = "2006-01-02"

// FormatSQLiteTime encodes t in UTC for a TEXT column.
func FormatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

// ParseSQLiteTime decodes a value written by FormatSQLiteTime.
// RFC 3339 values written by other tools are accepted too.
func ParseSQLiteTime(s string) (time.Time, error) {
	if t, err := time.Parse(sqliteTimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// NullSQLiteTime encodes an optional timestamp.
func NullSQLiteTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: FormatSQLiteTime(*t), Valid: true}
}

// ParseNullSQLiteTime decodes an optional timestamp.
func ParseNullSQLiteTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := ParseSQLiteTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// NullSQLiteDate encodes an optional calendar date.
func NullSQLiteDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(sqliteDateLayout), Valid: true}
}

// ParseNullSQLiteDate decodes an optional calendar date.
func ParseNullSQLiteDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(sqliteDateLayout, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// NullString maps nil to NULL.
func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// StringPtr maps NULL to nil.
func StringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
