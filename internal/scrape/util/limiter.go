package util

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DomainLimiter spaces requests to the same registered domain by a fixed
// interval. One limiter is shared by every worker of a pipeline run.
type DomainLimiter struct {
	mu       sync.Mutex
	m        map[string]*rate.Limiter
	interval time.Duration
}

// NewDomainLimiter builds a limiter allowing reqPerSec requests per second per
// domain. reqPerSec <= 0 disables limiting.
func NewDomainLimiter(reqPerSec float64) *DomainLimiter {
	dl := &DomainLimiter{m: make(map[string]*rate.Limiter)}
	if reqPerSec > 0 {
		dl.interval = time.Duration(float64(time.Second) / reqPerSec)
	}
	return dl
}

// Interval is the minimum spacing between two requests to one domain.
func (dl *DomainLimiter) Interval() time.Duration {
	if dl == nil {
		return 0
	}
	return dl.interval
}

func (dl *DomainLimiter) limiterFor(key string) *rate.Limiter {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if lim, ok := dl.m[key]; ok {
		return lim
	}
	// burst 1: the first request goes out immediately, every later one
	// waits a full interval after the previous reservation.
	lim := rate.NewLimiter(rate.Every(dl.interval), 1)
	dl.m[key] = lim
	return lim
}

// Wait blocks until a request to raw's domain may be issued.
func (dl *DomainLimiter) Wait(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return dl.WaitHost(ctx, "_")
	}
	return dl.WaitHost(ctx, u.Host)
}

// WaitHost is Wait for an already extracted host (port allowed).
func (dl *DomainLimiter) WaitHost(ctx context.Context, host string) error {
	if dl == nil || dl.interval <= 0 {
		return nil
	}
	return dl.limiterFor(DomainKey(host)).Wait(ctx)
}
