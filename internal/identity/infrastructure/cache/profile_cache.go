// Package cache keeps identity profiles close to the API so dashboard loads
// do not call the identity provider every time.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/jobtrack/internal/identity/domain"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// ProfileCache stores profiles by user ID. Misses and backend errors both
// report found=false.
type ProfileCache interface {
	Get(ctx context.Context, id string) (*domain.Profile, bool)
	Set(ctx context.Context, p domain.Profile)
	Delete(ctx context.Context, id string)
}

// MemoryProfileCache is a process-local cache.
type MemoryProfileCache struct {
	items *gocache.Cache
}

// NewMemoryProfileCache creates a cache whose entries live for ttl.
func NewMemoryProfileCache(ttl time.Duration) *MemoryProfileCache {
	return &MemoryProfileCache{items: gocache.New(ttl, 2*ttl)}
}

func (c *MemoryProfileCache) Get(_ context.Context, id string) (*domain.Profile, bool) {
	v, ok := c.items.Get(id)
	if !ok {
		return nil, false
	}
	p := v.(domain.Profile)
	return &p, true
}

func (c *MemoryProfileCache) Set(_ context.Context, p domain.Profile) {
	c.items.SetDefault(p.ID, p)
}

func (c *MemoryProfileCache) Delete(_ context.Context, id string) {
	c.items.Delete(id)
}

// RedisProfileCache shares profiles between API replicas.
type RedisProfileCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisProfileCache creates a Redis-backed cache.
func NewRedisProfileCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisProfileCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisProfileCache{client: client, ttl: ttl, logger: logger}
}

func profileKey(id string) string {
	return "jobtrack:profile:" + id
}

func (c *RedisProfileCache) Get(ctx context.Context, id string) (*domain.Profile, bool) {
	raw, err := c.client.Get(ctx, profileKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "profile cache read failed", "error", err)
		}
		return nil, false
	}
	var p domain.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *RedisProfileCache) Set(ctx context.Context, p domain.Profile) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, profileKey(p.ID), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "profile cache write failed", "error", err)
	}
}

func (c *RedisProfileCache) Delete(ctx context.Context, id string) {
	if err := c.client.Del(ctx, profileKey(id)).Err(); err != nil {
		c.logger.WarnContext(ctx, "profile cache delete failed", "error", err)
	}
}

// CachedProfileSource reads through the cache to the identity provider.
type CachedProfileSource struct {
	source domain.ProfileSource
	cache  ProfileCache
}

// NewCachedProfileSource wraps source with cache.
func NewCachedProfileSource(source domain.ProfileSource, cache ProfileCache) *CachedProfileSource {
	return &CachedProfileSource{source: source, cache: cache}
}

// GetProfile serves from the cache and fills it on a miss.
func (s *CachedProfileSource) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	if p, ok := s.cache.Get(ctx, id); ok {
		return p, nil
	}
	p, err := s.source.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, *p)
	return p, nil
}

// Invalidate drops the cached copy so the next read refetches.
func (s *CachedProfileSource) Invalidate(ctx context.Context, id string) {
	s.cache.Delete(ctx, id)
}
