package domain_test

import (
	"testing"

	"github.com/felixgeelhaar/jobtrack/internal/identity/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileNormalize(t *testing.T) {
	p, err := domain.Profile{
		ID:        " user_1 ",
		Email:     "Ada@Example.COM",
		FirstName: " Ada ",
		LastName:  "Lovelace",
	}.Normalize()

	require.NoError(t, err)
	assert.Equal(t, "user_1", p.ID)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.Equal(t, "Ada", p.FirstName)
	assert.Equal(t, "Lovelace", p.LastName)

	p, err = domain.Profile{ID: "user_2", Email: "not-an-email"}.Normalize()
	require.NoError(t, err)
	assert.Empty(t, p.Email)

	_, err = domain.Profile{Email: "a@example.com"}.Normalize()
	assert.ErrorIs(t, err, domain.ErrMissingUserID)
}

func TestUserSyncedAggregateIDIsStable(t *testing.T) {
	first := domain.NewUserSynced(domain.Profile{ID: "user_1"}, true)
	second := domain.NewUserSynced(domain.Profile{ID: "user_1"}, false)

	assert.Equal(t, first.AggregateID(), second.AggregateID())
	assert.Equal(t, domain.RoutingKeyUserSynced, first.RoutingKey())
	assert.NotEqual(t, first.AggregateID(), domain.AggregateID("user_2"))
}
