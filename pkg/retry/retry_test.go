package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	attempts := 0
	policy := Policy{MaxAttempts: 3, Backoff: func(int) time.Duration { return 0 }}

	err := policy.Do(context.Background(), func(context.Context) error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	attempts := 0
	policy := Policy{MaxAttempts: 3, Backoff: func(int) time.Duration { return time.Millisecond }}

	err := policy.Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ExhaustsBudget(t *testing.T) {
	attempts := 0
	wantErr := errors.New("persistent")
	policy := Policy{MaxAttempts: 2, Backoff: func(int) time.Duration { return time.Millisecond }}

	err := policy.Do(context.Background(), func(context.Context) error {
		attempts++
		return wantErr
	})

	assert.Equal(t, wantErr, err)
	assert.Equal(t, 2, attempts)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	attempts := 0
	fatal := errors.New("fatal")
	policy := Policy{
		MaxAttempts: 5,
		Backoff:     func(int) time.Duration { return time.Millisecond },
		Retryable:   func(err error) bool { return !errors.Is(err, fatal) },
	}

	err := policy.Do(context.Background(), func(context.Context) error {
		attempts++
		return fatal
	})

	assert.Equal(t, fatal, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{MaxAttempts: 10, Backoff: func(int) time.Duration { return time.Hour }}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := policy.Do(ctx, func(context.Context) error {
		return errors.New("transient")
	})

	assert.Equal(t, context.Canceled, err)
}

func TestExponentialBackoff(t *testing.T) {
	backoff := ExponentialBackoff(time.Second)

	assert.Equal(t, time.Second, backoff(0))
	assert.Equal(t, 2*time.Second, backoff(1))
	assert.Equal(t, 4*time.Second, backoff(2))
}
