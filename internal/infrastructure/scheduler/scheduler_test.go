package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/farmmarket/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingExecutor struct {
	mu       sync.Mutex
	attempts []Task
	failN    int
	done     chan Task
	block    chan struct{}
}

func (e *recordingExecutor) Execute(ctx context.Context, task Task) error {
	e.mu.Lock()
	e.attempts = append(e.attempts, task)
	n := len(e.attempts)
	e.mu.Unlock()

	if e.done != nil {
		defer func() { e.done <- task }()
	}
	if e.block != nil {
		select {
		case <-e.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if n <= e.failN {
		return errors.New("boom")
	}
	return nil
}

func (e *recordingExecutor) Attempts() []Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Task(nil), e.attempts...)
}

func testPoolConfig() PoolConfig {
	return PoolConfig{
		Workers:       2,
		QueueSize:     4,
		JobTimeout:    time.Second,
		RetryAttempts: 3,
		RetryDelay:    10 * time.Millisecond,
	}
}

func waitTask(t *testing.T, ch <-chan Task) Task {
	t.Helper()
	select {
	case task := <-ch:
		return task
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for job")
		return Task{}
	}
}

func TestPoolConfigFrom(t *testing.T) {
	pc := PoolConfigFrom(config.JobsConfig{Workers: 7, RetryDelay: time.Minute})
	assert.Equal(t, 7, pc.Workers)
	assert.Equal(t, time.Minute, pc.RetryDelay)
	assert.Equal(t, DefaultPoolConfig().QueueSize, pc.QueueSize)
	assert.Equal(t, DefaultPoolConfig().RetryAttempts, pc.RetryAttempts)
}

func TestTask_IsLastAttempt(t *testing.T) {
	assert.False(t, Task{Attempt: 1, MaxAttempts: 3}.IsLastAttempt())
	assert.True(t, Task{Attempt: 3, MaxAttempts: 3}.IsLastAttempt())
}

func TestWorkerPool_SubmitBeforeStart(t *testing.T) {
	pool := NewWorkerPool(testPoolConfig(), &recordingExecutor{}, zap.NewNop())
	err := pool.Submit(uuid.New())
	assert.ErrorIs(t, err, ErrPoolStopped)
}

func TestWorkerPool_RunsJob(t *testing.T) {
	exec := &recordingExecutor{done: make(chan Task, 1)}
	pool := NewWorkerPool(testPoolConfig(), exec, zap.NewNop())
	require.NoError(t, pool.Start(context.Background()))
	defer pool.Stop(context.Background())

	id := uuid.New()
	require.NoError(t, pool.Submit(id))

	task := waitTask(t, exec.done)
	assert.Equal(t, id, task.JobID)
	assert.Equal(t, 1, task.Attempt)
	assert.Equal(t, 3, task.MaxAttempts)
}

func TestWorkerPool_RetriesUntilSuccess(t *testing.T) {
	exec := &recordingExecutor{failN: 2, done: make(chan Task, 3)}
	pool := NewWorkerPool(testPoolConfig(), exec, zap.NewNop())
	require.NoError(t, pool.Start(context.Background()))
	defer pool.Stop(context.Background())

	require.NoError(t, pool.Submit(uuid.New()))
	for i := 1; i <= 3; i++ {
		task := waitTask(t, exec.done)
		assert.Equal(t, i, task.Attempt)
	}
	assert.Len(t, exec.Attempts(), 3)
}

func TestWorkerPool_StopsRetryingAfterLastAttempt(t *testing.T) {
	exec := &recordingExecutor{failN: 100, done: make(chan Task, 10)}
	pool := NewWorkerPool(testPoolConfig(), exec, zap.NewNop())
	require.NoError(t, pool.Start(context.Background()))
	defer pool.Stop(context.Background())

	require.NoError(t, pool.Submit(uuid.New()))
	for i := 0; i < 3; i++ {
		waitTask(t, exec.done)
	}
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, exec.Attempts(), 3)
}

func TestWorkerPool_ResumeCountsUsedAttempts(t *testing.T) {
	exec := &recordingExecutor{done: make(chan Task, 1)}
	pool := NewWorkerPool(testPoolConfig(), exec, zap.NewNop())
	require.NoError(t, pool.Start(context.Background()))
	defer pool.Stop(context.Background())

	require.NoError(t, pool.Resume(uuid.New(), 5))
	task := waitTask(t, exec.done)
	assert.Equal(t, 3, task.Attempt)
	assert.True(t, task.IsLastAttempt())
}

func TestWorkerPool_QueueFull(t *testing.T) {
	exec := &recordingExecutor{block: make(chan struct{})}
	cfg := testPoolConfig()
	cfg.Workers = 1
	cfg.QueueSize = 1
	pool := NewWorkerPool(cfg, exec, zap.NewNop())
	require.NoError(t, pool.Start(context.Background()))
	defer func() {
		close(exec.block)
		pool.Stop(context.Background())
	}()

	require.NoError(t, pool.Submit(uuid.New()))
	require.Eventually(t, func() bool { return len(exec.Attempts()) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, pool.Submit(uuid.New()))
	assert.ErrorIs(t, pool.Submit(uuid.New()), ErrQueueFull)
}

func TestWorkerPool_JobTimeoutCancelsContext(t *testing.T) {
	exec := &recordingExecutor{block: make(chan struct{}), done: make(chan Task, 1)}
	cfg := testPoolConfig()
	cfg.JobTimeout = 20 * time.Millisecond
	cfg.RetryAttempts = 1
	pool := NewWorkerPool(cfg, exec, zap.NewNop())
	require.NoError(t, pool.Start(context.Background()))
	defer pool.Stop(context.Background())

	require.NoError(t, pool.Submit(uuid.New()))
	waitTask(t, exec.done)
	assert.Len(t, exec.Attempts(), 1)
}

type panickingExecutor struct{ calls atomic.Int32 }

func (e *panickingExecutor) Execute(context.Context, Task) error {
	e.calls.Add(1)
	panic("executor exploded")
}

func TestWorkerPool_RecoversFromPanic(t *testing.T) {
	exec := &panickingExecutor{}
	cfg := testPoolConfig()
	cfg.RetryAttempts = 2
	pool := NewWorkerPool(cfg, exec, zap.NewNop())
	require.NoError(t, pool.Start(context.Background()))
	defer pool.Stop(context.Background())

	require.NoError(t, pool.Submit(uuid.New()))
	assert.Eventually(t, func() bool { return exec.calls.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestWorkerPool_StopIsIdempotent(t *testing.T) {
	pool := NewWorkerPool(testPoolConfig(), &recordingExecutor{}, zap.NewNop())
	require.NoError(t, pool.Start(context.Background()))
	require.NoError(t, pool.Stop(context.Background()))
	require.NoError(t, pool.Stop(context.Background()))
	assert.ErrorIs(t, pool.Submit(uuid.New()), ErrPoolStopped)
}

func TestWorkerPool_IgnoresJobItAlreadyHolds(t *testing.T) {
	exec := &recordingExecutor{block: make(chan struct{}), done: make(chan Task, 2)}
	cfg := testPoolConfig()
	cfg.Workers = 1
	pool := NewWorkerPool(cfg, exec, zap.NewNop())
	require.NoError(t, pool.Start(context.Background()))
	defer pool.Stop(context.Background())

	id := uuid.New()
	require.NoError(t, pool.Submit(id))
	require.Eventually(t, func() bool { return len(exec.Attempts()) == 1 }, time.Second, 5*time.Millisecond)

	// running: a resume from the recovery sweep is a no-op
	require.NoError(t, pool.Resume(id, 1))
	assert.True(t, pool.Tracks(id))

	close(exec.block)
	waitTask(t, exec.done)
	require.Eventually(t, func() bool { return !pool.Tracks(id) }, time.Second, 5*time.Millisecond)
	assert.Len(t, exec.Attempts(), 1)

	// released: the job can be queued again
	require.NoError(t, pool.Resume(id, 1))
	task := waitTask(t, exec.done)
	assert.Equal(t, 2, task.Attempt)
}

func TestWorkerPool_QueueFullDoesNotHoldJob(t *testing.T) {
	exec := &recordingExecutor{block: make(chan struct{})}
	cfg := testPoolConfig()
	cfg.Workers = 1
	cfg.QueueSize = 1
	pool := NewWorkerPool(cfg, exec, zap.NewNop())
	require.NoError(t, pool.Start(context.Background()))
	defer func() {
		close(exec.block)
		pool.Stop(context.Background())
	}()

	require.NoError(t, pool.Submit(uuid.New()))
	require.Eventually(t, func() bool { return len(exec.Attempts()) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, pool.Submit(uuid.New()))

	rejected := uuid.New()
	assert.ErrorIs(t, pool.Submit(rejected), ErrQueueFull)
	assert.False(t, pool.Tracks(rejected))
}
