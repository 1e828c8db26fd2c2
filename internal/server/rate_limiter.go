package server

import (
	"sync"
	"time"

	"github.com/schoolworks/feeledger/internal/cache"
)

type rateWindow struct {
	mu    sync.Mutex
	count int
}

// rateLimiter bounds requests per client key over a sliding window. The
// TTL store evicts idle windows instead of growing without bound.
type rateLimiter struct {
	limit   int
	windows *cache.TTL[string, *rateWindow]
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		windows: cache.NewTTL[string, *rateWindow](window),
	}
}

func (r *rateLimiter) Allow(key string) bool {
	if r.limit <= 0 {
		return true
	}
	if key == "" {
		return false
	}

	win, ok := r.windows.Get(key)
	if !ok {
		win = &rateWindow{}
		r.windows.Set(key, win)
	}

	win.mu.Lock()
	defer win.mu.Unlock()
	if win.count >= r.limit {
		return false
	}
	win.count++
	return true
}
