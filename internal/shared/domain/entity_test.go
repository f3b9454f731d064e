package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/jobtrack/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEntity(t *testing.T) {
	before := time.Now().UTC()
	entity := domain.NewBaseEntity()
	after := time.Now().UTC()

	assert.NotEqual(t, uuid.Nil, entity.ID())
	require.False(t, entity.CreatedAt().Before(before))
	require.False(t, entity.CreatedAt().After(after))
	assert.Equal(t, entity.CreatedAt(), entity.UpdatedAt())
}

func TestRehydrateBaseEntity(t *testing.T) {
	id := uuid.New()
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	updated := created.Add(time.Hour)

	entity := domain.RehydrateBaseEntity(id, created, updated)

	assert.Equal(t, id, entity.ID())
	assert.Equal(t, created, entity.CreatedAt())
	assert.Equal(t, updated, entity.UpdatedAt())
}

func TestBaseEntity_Touch(t *testing.T) {
	entity := domain.NewBaseEntity()
	created := entity.CreatedAt()

	time.Sleep(time.Millisecond)
	entity.Touch()

	assert.True(t, entity.UpdatedAt().After(created))
	assert.Equal(t, created, entity.CreatedAt())
}

func TestSameIdentity(t *testing.T) {
	id := uuid.New()
	now := time.Now()
	a := domain.RehydrateBaseEntity(id, now, now)
	b := domain.RehydrateBaseEntity(id, now, now.Add(time.Minute))
	c := domain.NewBaseEntity()

	assert.True(t, domain.SameIdentity(a, b))
	assert.False(t, domain.SameIdentity(a, c))
	assert.False(t, domain.SameIdentity(a, nil))
}
