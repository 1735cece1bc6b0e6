package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFirstCallDoesNotWait(t *testing.T) {
	l := New(time.Hour, nil)
	start := time.Now()
	require.NoError(t, l.WaitIfNeeded(context.Background()))
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestConsecutiveCallsAreSpaced(t *testing.T) {
	interval := 150 * time.Millisecond
	l := New(interval, nil)
	ctx := context.Background()

	require.NoError(t, l.WaitIfNeeded(ctx))
	first := time.Now()
	require.NoError(t, l.WaitIfNeeded(ctx))
	second := time.Now()
	require.NoError(t, l.WaitIfNeeded(ctx))
	third := time.Now()

	// allow a little scheduler slack around the reservation time
	slack := 10 * time.Millisecond
	require.GreaterOrEqual(t, second.Sub(first), interval-slack)
	require.GreaterOrEqual(t, third.Sub(second), interval-slack)
}

func TestCallAfterIdleIntervalDoesNotWait(t *testing.T) {
	interval := 50 * time.Millisecond
	l := New(interval, nil)
	ctx := context.Background()

	require.NoError(t, l.WaitIfNeeded(ctx))
	time.Sleep(2 * interval)

	start := time.Now()
	require.NoError(t, l.WaitIfNeeded(ctx))
	require.Less(t, time.Since(start), interval/2)
}

func TestZeroIntervalNeverWaits(t *testing.T) {
	l := New(0, nil)
	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, l.WaitIfNeeded(context.Background()))
	}
	require.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitHonorsContext(t *testing.T) {
	l := New(time.Hour, nil)
	require.NoError(t, l.WaitIfNeeded(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.WaitIfNeeded(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
