// Package ratelimit enforces the fixed per-request delay, tracked separately for every host.
package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Recorder receives the time spent waiting for a token.
type Recorder interface {
	ObserveRateLimitDelay(host string, delay time.Duration)
}

// Limiter manages per-host rate limits.
type Limiter struct {
	mu           sync.Mutex
	limiters     map[string]*rate.Limiter
	defaultRate  rate.Limit
	defaultBurst int
	recorder     Recorder
}

// Config holds rate limiter configuration.
type Config struct {
	// Delay is the minimum spacing between two requests to the same host. Zero disables limiting.
	Delay time.Duration
	// Burst allows that many requests before the delay applies. Defaults to 1.
	Burst int
}

// New creates a new Limiter. recorder may be nil.
func New(cfg Config, recorder Recorder) *Limiter {
	r := rate.Inf
	if cfg.Delay > 0 {
		r = rate.Every(cfg.Delay)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  r,
		defaultBurst: burst,
		recorder:     recorder,
	}
}

// Wait blocks until a token is available for the URL's host, respecting the context.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host := "unknown"
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	l.mu.Lock()
	limiter, exists := l.limiters[host]
	if !exists {
		limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	// Immediate grants are not interesting.
	if waited := time.Since(start); waited > time.Millisecond && l.recorder != nil {
		l.recorder.ObserveRateLimitDelay(host, waited)
	}
	return nil
}
