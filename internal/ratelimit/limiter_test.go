package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestAcquire_ConsumesBurstImmediately(t *testing.T) {
	l := NewLimiter(Config{Rate: 1, Burst: 2})
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Acquire(ctx, "cam-1"))
	require.NoError(t, l.Acquire(ctx, "cam-1"))
	require.Less(t, time.Since(start), 50*time.Millisecond, "burst capacity should not block")
}

func TestAcquire_BlocksWhenBucketExhausted(t *testing.T) {
	l := NewLimiter(Config{Rate: rate.Limit(10), Burst: 1})
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, "cam-2"))

	start := time.Now()
	require.NoError(t, l.Acquire(ctx, "cam-2"))
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond, "should wait for refill at 10/s")
}

func TestAcquire_SeparateResourcesHaveIndependentBuckets(t *testing.T) {
	l := NewLimiter(Config{Rate: 1, Burst: 1})
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, "cam-a"))
	start := time.Now()
	require.NoError(t, l.Acquire(ctx, "cam-b"))
	require.Less(t, time.Since(start), 50*time.Millisecond, "a different resource should have its own full bucket")
}

func TestAcquire_ReturnsOnContextCancellation(t *testing.T) {
	l := NewLimiter(Config{Rate: rate.Limit(0.1), Burst: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, l.Acquire(context.Background(), "cam-c"))
	err := l.Acquire(ctx, "cam-c")
	require.Error(t, err)
}
