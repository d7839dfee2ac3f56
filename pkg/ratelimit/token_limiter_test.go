package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWait_DeductsFromBudget(t *testing.T) {
	limiter := NewTokenLimiter(1000)

	require.NoError(t, limiter.Wait(context.Background(), 300))
	assert.Equal(t, 700, limiter.GetRemaining())

	require.NoError(t, limiter.Wait(context.Background(), 700))
	assert.Equal(t, 0, limiter.GetRemaining())
}

func TestWait_OversizedRequestChargesFullWindow(t *testing.T) {
	limiter := NewTokenLimiter(100)

	require.NoError(t, limiter.Wait(context.Background(), 5000))
	assert.Equal(t, 0, limiter.GetRemaining())
}

func TestWait_BlockedCallHonorsContext(t *testing.T) {
	limiter := NewTokenLimiter(10)
	require.NoError(t, limiter.Wait(context.Background(), 10))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx, 5)
	assert.Equal(t, context.DeadlineExceeded, err)
}
