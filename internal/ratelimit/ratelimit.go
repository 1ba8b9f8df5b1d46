// Package ratelimit implements per-domain request pacing for the download
// manager (spec §4.1): a token bucket per host, a 429-triggered backoff,
// and a robots.txt Crawl-delay floor. Grounded on
// utils/rate_limiter/rate_limiter.go's HostRateLimiter, generalized to
// accept a per-domain floor raised by robots policy.
package ratelimit

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter enforces one token-bucket limiter per domain. Requests may
// be issued concurrently across domains but a single domain is serialized
// by its limiter.
type HostLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	floors   map[string]time.Duration // robots Crawl-delay, raises the effective interval
	interval time.Duration
}

// NewHostLimiter creates a HostLimiter with the given default interval
// between requests to the same host.
func NewHostLimiter(interval time.Duration) *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		floors:   make(map[string]time.Duration),
		interval: interval,
	}
}

// WaitForHost blocks until the limiter for urlStr's host allows a request,
// or ctx is cancelled.
func (h *HostLimiter) WaitForHost(ctx context.Context, urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return err
	}
	host := parsed.Host
	if host == "" {
		return &url.Error{Op: "parse", URL: urlStr, Err: errors.New("missing host in URL")}
	}
	return h.limiterForHost(host).Wait(ctx)
}

func (h *HostLimiter) limiterForHost(host string) *rate.Limiter {
	h.mu.RLock()
	limiter, ok := h.limiters[host]
	h.mu.RUnlock()
	if ok {
		return limiter
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if limiter, ok := h.limiters[host]; ok {
		return limiter
	}
	interval := h.intervalForHostLocked(host)
	limiter = rate.NewLimiter(rate.Every(interval), 1)
	h.limiters[host] = limiter
	return limiter
}

func (h *HostLimiter) intervalForHostLocked(host string) time.Duration {
	if floor, ok := h.floors[host]; ok && floor > h.interval {
		return floor
	}
	return h.interval
}

// RaiseFloor applies a robots.txt Crawl-delay for host, replacing the
// limiter if the new floor is stricter than whatever is currently in
// effect.
func (h *HostLimiter) RaiseFloor(host string, crawlDelay time.Duration) {
	if crawlDelay <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.floors[host]; ok && existing >= crawlDelay {
		return
	}
	h.floors[host] = crawlDelay
	if crawlDelay > h.interval {
		h.limiters[host] = rate.NewLimiter(rate.Every(crawlDelay), 1)
	}
}

// RecordRateLimitHit backs off a host after a 429 response, honoring
// Retry-After if present, otherwise doubling the current interval, capped
// at one hour.
func (h *HostLimiter) RecordRateLimitHit(host string, retryAfter time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	backoff := retryAfter
	if backoff == 0 {
		current := h.interval
		if floor, ok := h.floors[host]; ok && floor > current {
			current = floor
		}
		backoff = current * 2
	}
	if backoff > time.Hour {
		backoff = time.Hour
	}
	h.floors[host] = backoff
	h.limiters[host] = rate.NewLimiter(rate.Every(backoff), 1)
}
