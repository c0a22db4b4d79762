package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/suggestbox/internal/platform/retry"
)

var fastPolicy = retry.Policy{
	MaxAttempts:      3,
	InitialBackoff:   1 * time.Millisecond,
	RateLimitBackoff: 5 * time.Millisecond,
}

func alwaysRetry(error) retry.Action { return retry.Retry }
func alwaysStop(error) retry.Action  { return retry.Stop }

type rateLimited struct{ wait time.Duration }

func (e rateLimited) Error() string             { return "rate limited" }
func (e rateLimited) RetryAfter() time.Duration { return e.wait }

func TestDo_SuccessAfterRetries(t *testing.T) {
	calls := 0
	val, err := retry.Do(context.Background(), fastPolicy, alwaysRetry, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, val)
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	permanent := errors.New("unknown message")
	calls := 0
	_, err := retry.Do(context.Background(), fastPolicy, alwaysStop, func(context.Context) (struct{}, error) {
		calls++
		return struct{}{}, permanent
	})

	var permErr *retry.PermanentError
	require.ErrorAs(t, err, &permErr)
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustedRetries(t *testing.T) {
	underlying := errors.New("transient")
	calls := 0
	_, err := retry.Do(context.Background(), fastPolicy, alwaysRetry, func(context.Context) (struct{}, error) {
		calls++
		return struct{}{}, underlying
	})

	assert.ErrorIs(t, err, underlying)
	assert.Equal(t, fastPolicy.MaxAttempts, calls)
}

func TestDo_RateLimitUsesServerHint(t *testing.T) {
	var observed []time.Duration
	p := fastPolicy
	p.MaxAttempts = 3
	p.OnRetry = func(_ int, _ error, backoff time.Duration) { observed = append(observed, backoff) }

	calls := 0
	_, _ = retry.Do(context.Background(), p, func(error) retry.Action { return retry.After }, func(context.Context) (struct{}, error) {
		calls++
		if calls == 1 {
			return struct{}{}, rateLimited{wait: 2 * time.Millisecond}
		}
		return struct{}{}, errors.New("rate limited without hint")
	})

	assert.Equal(t, []time.Duration{2 * time.Millisecond, 5 * time.Millisecond}, observed)
}

func TestDo_BackoffCapped(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var observed []time.Duration
	p := retry.Policy{
		MaxAttempts:    4,
		InitialBackoff: time.Second,
		MaxBackoff:     1500 * time.Millisecond,
		Clock:          clock,
		OnRetry:        func(_ int, _ error, backoff time.Duration) { observed = append(observed, backoff) },
	}

	done := make(chan error, 1)
	go func() {
		done <- retry.DoVoid(context.Background(), p, alwaysRetry, func(context.Context) error {
			return errors.New("transient")
		})
	}()

	for range 3 {
		require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
		clock.Advance(2 * time.Second)
	}

	assert.Error(t, <-done)
	assert.Equal(t, []time.Duration{time.Second, 1500 * time.Millisecond, 1500 * time.Millisecond}, observed)
}

func TestDo_ContextCancellationDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := retry.Policy{MaxAttempts: 3, InitialBackoff: 10 * time.Second}

	calls := 0
	_, err := retry.Do(ctx, p, alwaysRetry, func(context.Context) (struct{}, error) {
		calls++
		cancel()
		return struct{}{}, errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_InvalidPolicy(t *testing.T) {
	_, err := retry.Do(context.Background(), retry.Policy{}, alwaysRetry, func(context.Context) (int, error) {
		return 1, nil
	})
	assert.Error(t, err)
}
