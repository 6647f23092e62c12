package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Static test errors for err113 linter compliance
var (
	ErrTestError = errors.New("test error")
)

// mockTask implements the Task interface for testing
type mockTask struct {
	name        string
	executeFunc func(ctx context.Context) error
	sleepTime   time.Duration
}

func (m *mockTask) Execute(ctx context.Context) error {
	if m.sleepTime > 0 {
		select {
		case <-time.After(m.sleepTime):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.executeFunc != nil {
		return m.executeFunc(ctx)
	}
	return nil
}

func (m *mockTask) Name() string {
	return m.name
}

func collect(p *Pool) map[string]Result {
	out := make(map[string]Result)
	for r := range p.Results() {
		out[r.TaskName] = r
	}
	return out
}

// TestNewPool tests pool creation
func TestNewPool(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		pool, err := NewPool(4, 10)
		require.NoError(t, err)
		require.NotNil(t, pool)
		assert.Equal(t, 4, pool.workers)
	})

	t.Run("invalid workers", func(t *testing.T) {
		pool, err := NewPool(0, 10)
		require.ErrorIs(t, err, ErrInvalidWorkers)
		require.Nil(t, pool)
	})

	t.Run("invalid queue size", func(t *testing.T) {
		pool, err := NewPool(4, -1)
		require.ErrorIs(t, err, ErrInvalidQueueSize)
		require.Nil(t, pool)
	})
}

// TestMustNewPool tests the panicking constructor
func TestMustNewPool(t *testing.T) {
	assert.NotPanics(t, func() { MustNewPool(1, 1) })
	assert.Panics(t, func() { MustNewPool(0, 1) })
}

// TestPoolRunsEveryTask verifies each submitted task yields one result
func TestPoolRunsEveryTask(t *testing.T) {
	pool := MustNewPool(3, 10)
	pool.Start(context.Background())

	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(&mockTask{name: fmt.Sprintf("rule-%d", i)}))
	}
	pool.Shutdown()

	results := collect(pool)
	assert.Len(t, results, 10)
	processed, active, queued := pool.Stats()
	assert.Equal(t, int64(10), processed)
	assert.Zero(t, active)
	assert.Zero(t, queued)
}

// TestPoolTaskErrorAndPanic verifies errors and panics are reported per task
func TestPoolTaskErrorAndPanic(t *testing.T) {
	pool := MustNewPool(2, 4)
	pool.Start(context.Background())

	for _, task := range []Task{
		&mockTask{name: "ok"},
		&mockTask{name: "err", executeFunc: func(context.Context) error { return ErrTestError }},
		&mockTask{name: "panic", executeFunc: func(context.Context) error { panic("boom") }},
	} {
		require.NoError(t, pool.Submit(task))
	}
	pool.Shutdown()

	results := collect(pool)
	require.Len(t, results, 3)
	require.NoError(t, results["ok"].Error)
	require.ErrorIs(t, results["err"].Error, ErrTestError)
	require.ErrorIs(t, results["panic"].Error, ErrTaskPanicked)
	assert.Contains(t, results["panic"].Error.Error(), "boom")
}

// TestPoolSubmitStates verifies submit guards
func TestPoolSubmitStates(t *testing.T) {
	pool := MustNewPool(1, 1)
	require.ErrorIs(t, pool.Submit(&mockTask{name: "early"}), ErrPoolNotStarted)
	require.ErrorIs(t, pool.Submit(nil), ErrNilTask)

	pool.Start(context.Background())
	pool.Start(context.Background())

	pool.Shutdown()
	pool.Shutdown()
	require.ErrorIs(t, pool.Submit(&mockTask{name: "late"}), ErrPoolShuttingDown)
}

// TestPoolQueueFull verifies non-blocking submit
func TestPoolQueueFull(t *testing.T) {
	release := make(chan struct{})
	pool := MustNewPool(1, 1)
	pool.Start(context.Background())

	started := make(chan struct{})
	require.NoError(t, pool.Submit(&mockTask{name: "blocker", executeFunc: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}))
	<-started
	require.NoError(t, pool.Submit(&mockTask{name: "queued"}))
	require.ErrorIs(t, pool.Submit(&mockTask{name: "overflow"}), ErrTaskQueueFull)

	close(release)
	pool.Shutdown()
	assert.Len(t, collect(pool), 2)
}

// TestPoolContextCancellation verifies queued tasks report the context error
func TestPoolContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := MustNewPool(1, 5)
	pool.Start(ctx)

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		require.NoError(t, pool.Submit(&mockTask{name: fmt.Sprintf("t%d", i), sleepTime: 20 * time.Millisecond, executeFunc: func(context.Context) error {
			ran.Add(1)
			return nil
		}}))
	}
	cancel()
	pool.Shutdown()

	results := collect(pool)
	assert.Len(t, results, 5)
	for _, r := range results {
		require.ErrorIs(t, r.Error, context.Canceled)
	}
	assert.Zero(t, ran.Load())
}

// TestPoolConcurrentSubmit verifies submit is safe from many goroutines
func TestPoolConcurrentSubmit(t *testing.T) {
	const tasks = 100
	pool := MustNewPool(4, tasks)
	pool.Start(context.Background())

	var wg sync.WaitGroup
	wg.Add(tasks)
	for i := 0; i < tasks; i++ {
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, pool.Submit(&mockTask{name: fmt.Sprintf("t%d", n)}))
		}(i)
	}
	wg.Wait()
	pool.Shutdown()

	assert.Len(t, collect(pool), tasks)
}
