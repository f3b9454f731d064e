package persistence

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteTime_SortsChronologically(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	whole := FormatSQLiteTime(base)
	fraction := FormatSQLiteTime(base.Add(100 * time.Millisecond))

	assert.Less(t, whole, fraction)

	parsed, err := ParseSQLiteTime(fraction)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(base.Add(100*time.Millisecond)))
}

func TestParseSQLiteTime_AcceptsRFC3339(t *testing.T) {
	parsed, err := ParseSQLiteTime("2025-03-01T12:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 10, parsed.UTC().Hour())
}

func TestNullableHelpers(t *testing.T) {
	assert.False(t, NullString(nil).Valid)
	assert.Nil(t, StringPtr(sql.NullString{}))

	s := "Remote"
	assert.Equal(t, "Remote", *StringPtr(NullString(&s)))

	date := time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC)
	encoded := NullSQLiteDate(&date)
	assert.Equal(t, "2025-02-14", encoded.String)
	decoded, err := ParseNullSQLiteDate(encoded)
	require.NoError(t, err)
	assert.True(t, decoded.Equal(date))

	none, err := ParseNullSQLiteTime(sql.NullString{})
	require.NoError(t, err)
	assert.Nil(t, none)
}
