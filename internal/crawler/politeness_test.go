package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimerPauseControllerHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pauser := &timerPauseController{}
	start := time.Now()
	pauser.Pause(ctx, 5*time.Second)
	require.Less(t, time.Since(start), time.Second, "pause should exit immediately when context is done")
}

func TestExponentialRetryPolicy(t *testing.T) {
	t.Parallel()

	policy := NewExponentialRetryPolicy(2)
	timeout := &FetchError{URL: "https://x.com", Kind: FetchErrorTimeout, Err: context.DeadlineExceeded}
	status := &FetchError{URL: "https://x.com", Kind: FetchErrorStatus, StatusCode: 500}
	redirects := &FetchError{URL: "https://x.com", Kind: FetchErrorRedirects, Err: ErrTooManyRedirects}

	require.True(t, policy.ShouldRetry(timeout, 1))
	require.True(t, policy.ShouldRetry(timeout, 2))
	require.False(t, policy.ShouldRetry(timeout, 3), "attempts are capped")
	require.False(t, policy.ShouldRetry(status, 1))
	require.False(t, policy.ShouldRetry(redirects, 1))
	require.False(t, policy.ShouldRetry(context.Canceled, 1))
	require.False(t, policy.ShouldRetry(nil, 1))
	require.True(t, policy.ShouldRetry(errors.New("connection reset"), 1))

	for attempt := 1; attempt <= 5; attempt++ {
		delay := policy.Backoff(attempt)
		require.GreaterOrEqual(t, delay, time.Duration(0))
		require.LessOrEqual(t, delay, 5*time.Second)
	}
}

func TestNewExponentialRetryPolicyNegativeRetries(t *testing.T) {
	t.Parallel()

	policy := NewExponentialRetryPolicy(-1)
	require.False(t, policy.ShouldRetry(errors.New("boom"), 1))
}
