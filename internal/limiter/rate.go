package limiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Keyed hands out one token bucket per key (client address or account).
type Keyed struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewKeyed allows rps requests per second per key with the given burst.
// A non-positive rps disables limiting.
func NewKeyed(rps float64, burst int) *Keyed {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &Keyed{
		buckets: make(map[string]*bucket),
		limit:   limit,
		burst:   max(burst, 1),
		now:     time.Now,
	}
}

// Allow takes one token from the bucket of key.
func (k *Keyed) Allow(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	b, ok := k.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(k.limit, k.burst)}
		k.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// Sweep forgets buckets unused for longer than idle and returns how many went.
func (k *Keyed) Sweep(idle time.Duration) int {
	k.mu.Lock()
	defer k.mu.Unlock()

	cutoff := k.now().Add(-idle)
	n := 0
	for key, b := range k.buckets {
		if b.seen.Before(cutoff) {
			delete(k.buckets, key)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}
