package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/felixgeelhaar/jobtrack/internal/identity/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Profile)
	return p, args.Error(1)
}

func TestMemoryProfileCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryProfileCache(time.Minute)

	_, ok := c.Get(ctx, "user_1")
	assert.False(t, ok)

	c.Set(ctx, domain.Profile{ID: "user_1", Email: "a@example.com"})
	p, ok := c.Get(ctx, "user_1")
	require.True(t, ok)
	assert.Equal(t, "a@example.com", p.Email)

	c.Delete(ctx, "user_1")
	_, ok = c.Get(ctx, "user_1")
	assert.False(t, ok)
}

func TestCachedProfileSource(t *testing.T) {
	ctx := context.Background()
	source := new(mockSource)
	source.On("GetProfile", mock.Anything, "user_1").
		Return(&domain.Profile{ID: "user_1", Email: "a@example.com"}, nil).Once()
	source.On("GetProfile", mock.Anything, "user_2").
		Return(nil, errors.New("clerk down")).Once()

	cached := NewCachedProfileSource(source, NewMemoryProfileCache(time.Minute))

	for i := 0; i < 3; i++ {
		p, err := cached.GetProfile(ctx, "user_1")
		require.NoError(t, err)
		assert.Equal(t, "a@example.com", p.Email)
	}

	_, err := cached.GetProfile(ctx, "user_2")
	assert.Error(t, err)

	source.AssertNumberOfCalls(t, "GetProfile", 2)
}

func TestCachedProfileSource_Invalidate(t *testing.T) {
	ctx := context.Background()
	source := new(mockSource)
	source.On("GetProfile", mock.Anything, "user_1").
		Return(&domain.Profile{ID: "user_1"}, nil).Twice()

	cached := NewCachedProfileSource(source, NewMemoryProfileCache(time.Minute))
	_, _ = cached.GetProfile(ctx, "user_1")
	cached.Invalidate(ctx, "user_1")
	_, _ = cached.GetProfile(ctx, "user_1")

	source.AssertExpectations(t)
}

func TestRedisProfileCache_UnreachableIsAMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewRedisProfileCache(client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.Set(context.Background(), domain.Profile{ID: "user_1"})

	_, ok := c.Get(context.Background(), "user_1")
	assert.False(t, ok)
}
