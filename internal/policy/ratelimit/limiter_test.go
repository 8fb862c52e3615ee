package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type delayRecorder struct {
	mu    sync.Mutex
	hosts []string
}

func (d *delayRecorder) ObserveRateLimitDelay(host string, _ time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hosts = append(d.hosts, host)
}

func TestLimiter_Wait(t *testing.T) {
	recorder := &delayRecorder{}
	l := New(Config{Delay: 100 * time.Millisecond}, recorder)
	ctx := context.Background()

	// Consume initial token
	start := time.Now()
	if err := l.Wait(ctx, "https://test.com/a"); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Errorf("first wait should be immediate, took %v", time.Since(start))
	}

	// Next one should wait ~100ms
	start = time.Now()
	if err := l.Wait(ctx, "https://test.com/b"); err != nil {
		t.Fatal(err)
	}
	if dur := time.Since(start); dur < 80*time.Millisecond {
		t.Errorf("expected wait ~100ms, got %v", dur)
	}
	if len(recorder.hosts) != 1 || recorder.hosts[0] != "test.com" {
		t.Errorf("expected one recorded delay for test.com, got %v", recorder.hosts)
	}
}

func TestLimiter_DifferentDomains(t *testing.T) {
	l := New(Config{Delay: time.Second}, nil)
	ctx := context.Background()

	if err := l.Wait(ctx, "https://a.com/1"); err != nil {
		t.Fatal(err)
	}

	// Domain B should not be blocked by A
	start := time.Now()
	if err := l.Wait(ctx, "https://b.com/1"); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Errorf("domain B blocked unexpectedly")
	}
}

func TestLimiter_ZeroDelayNeverBlocks(t *testing.T) {
	l := New(Config{}, nil)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := l.Wait(ctx, "https://a.com/"); err != nil {
			t.Fatal(err)
		}
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Errorf("unlimited limiter blocked for %v", time.Since(start))
	}
}

func TestLimiter_ContextCanceled(t *testing.T) {
	l := New(Config{Delay: time.Hour}, nil)
	if err := l.Wait(context.Background(), "https://a.com/"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Wait(ctx, "https://a.com/")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
