package api

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ownerLimiter hands out one token bucket per owner. Idle buckets are
// dropped on the next sweep.
type ownerLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	buckets  map[string]*ownerBucket
	lastScan time.Time
	now      func() time.Time
}

type ownerBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const limiterIdleTTL = 10 * time.Minute

func newOwnerLimiter(perSecond float64, burst int) *ownerLimiter {
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &ownerLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		buckets: make(map[string]*ownerBucket),
		now:     time.Now,
	}
}

// Allow consumes a token for owner.
func (l *ownerLimiter) Allow(owner string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastScan) > limiterIdleTTL {
		for id, b := range l.buckets {
			if now.Sub(b.lastSeen) > limiterIdleTTL {
				delete(l.buckets, id)
			}
		}
		l.lastScan = now
	}

	b, ok := l.buckets[owner]
	if !ok {
		b = &ownerBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[owner] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}
