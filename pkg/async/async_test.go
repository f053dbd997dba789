package async_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/coverkit/pkg/async"
)

func TestAsync(t *testing.T) {
	t.Parallel()

	t.Run("returns result", func(t *testing.T) {
		t.Parallel()
		future := async.Async(context.Background(), 42, func(_ context.Context, n int) (string, error) {
			time.Sleep(20 * time.Millisecond)
			return fmt.Sprintf("Number: %d", n), nil
		})

		result, err := future.Await()
		require.NoError(t, err)
		assert.Equal(t, "Number: 42", result)
		assert.True(t, future.IsComplete())
	})

	t.Run("propagates error", func(t *testing.T) {
		t.Parallel()
		expected := errors.New("boom")
		future := async.Async(context.Background(), 1, func(_ context.Context, _ int) (int, error) {
			return 0, expected
		})

		result, err := future.Await()
		require.ErrorIs(t, err, expected)
		assert.Zero(t, result)
	})

	t.Run("pre-canceled context still runs function", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		future := async.Async(ctx, 1, func(ctx context.Context, n int) (int, error) {
			if err := ctx.Err(); err != nil {
				return -n, err
			}
			return n, nil
		})

		result, err := future.Await()
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, -1, result)
	})

	t.Run("function observes cancellation", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		future := async.Async(ctx, 0, func(ctx context.Context, _ int) (string, error) {
			select {
			case <-time.After(time.Second):
				return "late", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		})

		result, err := future.Await()
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Empty(t, result)
	})

	t.Run("concurrent futures", func(t *testing.T) {
		t.Parallel()
		var mu sync.Mutex
		counter := 0

		futures := make([]*async.Future[int], 0, 100)
		for range 100 {
			futures = append(futures, async.Async(context.Background(), 1, func(_ context.Context, d int) (int, error) {
				mu.Lock()
				defer mu.Unlock()
				counter += d
				return counter, nil
			}))
		}

		results, err := async.WaitAll(futures...)
		require.NoError(t, err)
		assert.Len(t, results, 100)
		assert.Equal(t, 100, counter)
	})
}

func TestResolved(t *testing.T) {
	t.Parallel()
	future := async.Resolved("ready")

	assert.True(t, future.IsComplete())
	select {
	case <-future.Done():
	default:
		t.Fatal("resolved future must be done")
	}

	result, err := future.Await()
	require.NoError(t, err)
	assert.Equal(t, "ready", result)
}

func TestAwaitContext(t *testing.T) {
	t.Parallel()

	t.Run("completes before context", func(t *testing.T) {
		t.Parallel()
		future := async.Async(context.Background(), 10, func(_ context.Context, ms int) (string, error) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
			return "success", nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		result, err := future.AwaitContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, "success", result)
	})

	t.Run("context wins", func(t *testing.T) {
		t.Parallel()
		release := make(chan struct{})
		future := async.Async(context.Background(), 0, func(_ context.Context, _ int) (string, error) {
			<-release
			return "too late", nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		result, err := future.AwaitContext(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Empty(t, result)

		// The computation still finishes for other waiters.
		close(release)
		result, err = future.Await()
		require.NoError(t, err)
		assert.Equal(t, "too late", result)
	})
}

func TestWaitAll(t *testing.T) {
	t.Parallel()

	t.Run("keeps order", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		sleep := func(_ context.Context, ms int) (int, error) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
			return ms, nil
		}

		results, err := async.WaitAll(
			async.Async(ctx, 30, sleep),
			async.Async(ctx, 10, sleep),
			async.Resolved(5),
		)
		require.NoError(t, err)
		assert.Equal(t, []int{30, 10, 5}, results)
	})

	t.Run("stops at first error", func(t *testing.T) {
		t.Parallel()
		expected := errors.New("failed")
		ctx := context.Background()

		results, err := async.WaitAll(
			async.Resolved(1),
			async.Async(ctx, 0, func(_ context.Context, _ int) (int, error) { return 0, expected }),
			async.Resolved(3),
		)
		require.ErrorIs(t, err, expected)
		assert.Equal(t, []int{1, 0, 0}, results)
	})
}
