package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunOnce(t *testing.T) {
	calls := 0
	wantErr := errors.New("listing unavailable")
	s := NewScheduler(func(context.Context) error {
		calls++
		return wantErr
	}, 0, "", nil)

	err := s.Run(context.Background())
	require.ErrorIs(t, err, wantErr)
	require.Equal(t, 1, calls)
}

func TestRunRepeatsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	s := NewScheduler(func(context.Context) error {
		calls++
		if calls == 3 {
			cancel()
		}
		// errors never stop a periodic scheduler
		return errors.New("boom")
	}, 10*time.Millisecond, "", nil)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	require.Equal(t, 3, calls)
}

func TestRunCronStartsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	s := NewScheduler(func(context.Context) error {
		calls.Add(1)
		cancel()
		return nil
	}, 0, "@every 1h", nil)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	require.Equal(t, int32(1), calls.Load())
}

func TestRunCronInvalidSpec(t *testing.T) {
	s := NewScheduler(func(context.Context) error { return nil }, 0, "not a schedule", nil)
	require.Error(t, s.Run(context.Background()))
}
