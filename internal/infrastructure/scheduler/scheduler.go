package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/farmmarket/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Task is one execution attempt of a persisted job
type Task struct {
	JobID       uuid.UUID
	Attempt     int
	MaxAttempts int
}

// IsLastAttempt reports whether a failure of this attempt is final
func (t Task) IsLastAttempt() bool {
	return t.Attempt >= t.MaxAttempts
}

// JobExecutor runs a task. A returned error schedules another attempt
// unless the task was on its last attempt.
type JobExecutor interface {
	Execute(ctx context.Context, task Task) error
}

// PoolConfig holds worker pool configuration
type PoolConfig struct {
	Workers       int
	QueueSize     int
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultPoolConfig returns default worker pool configuration
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Workers:       3,
		QueueSize:     100,
		JobTimeout:    5 * time.Minute,
		RetryAttempts: 3,
		RetryDelay:    10 * time.Second,
	}
}

// PoolConfigFrom maps the jobs config section onto a PoolConfig
func PoolConfigFrom(cfg config.JobsConfig) PoolConfig {
	pc := DefaultPoolConfig()
	if cfg.Workers > 0 {
		pc.Workers = cfg.Workers
	}
	if cfg.QueueSize > 0 {
		pc.QueueSize = cfg.QueueSize
	}
	if cfg.JobTimeout > 0 {
		pc.JobTimeout = cfg.JobTimeout
	}
	if cfg.RetryAttempts > 0 {
		pc.RetryAttempts = cfg.RetryAttempts
	}
	if cfg.RetryDelay > 0 {
		pc.RetryDelay = cfg.RetryDelay
	}
	return pc
}

// WorkerPool executes backend function jobs on a bounded set of workers
type WorkerPool struct {
	config   PoolConfig
	executor JobExecutor
	logger   *zap.Logger

	tasks     chan Task
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	retries   map[uuid.UUID]*time.Timer
	// tracked holds jobs queued, running or waiting for a retry
	tracked map[uuid.UUID]struct{}
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(config PoolConfig, executor JobExecutor, logger *zap.Logger) *WorkerPool {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.QueueSize < 1 {
		config.QueueSize = 1
	}
	if config.RetryAttempts < 1 {
		config.RetryAttempts = 1
	}
	return &WorkerPool{
		config:   config,
		executor: executor,
		logger:   logger,
		retries:  make(map[uuid.UUID]*time.Timer),
		tracked:  make(map[uuid.UUID]struct{}),
	}
}

// Start starts the workers
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isRunning {
		return nil
	}
	p.isRunning = true
	p.tasks = make(chan Task, p.config.QueueSize)

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	p.logger.Info("Job worker pool started",
		zap.Int("workers", p.config.Workers),
		zap.Duration("job_timeout", p.config.JobTimeout),
		zap.Int("retry_attempts", p.config.RetryAttempts),
	)
	return nil
}

// Stop cancels pending retries and waits for running jobs to return
func (p *WorkerPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	for id, t := range p.retries {
		t.Stop()
		delete(p.retries, id)
	}
	clear(p.tracked)
	close(p.tasks)
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Job worker pool stopped gracefully")
		return nil
	case <-ctx.Done():
		p.logger.Warn("Job worker pool stop timed out")
		return ctx.Err()
	}
}

// Submit queues the first attempt of a job
func (p *WorkerPool) Submit(jobID uuid.UUID) error {
	return p.track(Task{JobID: jobID, Attempt: 1, MaxAttempts: p.config.RetryAttempts})
}

// Resume queues a job that already used some attempts, e.g. after a restart.
// A job the pool already holds is left where it is.
func (p *WorkerPool) Resume(jobID uuid.UUID, attemptsUsed int) error {
	attempt := attemptsUsed + 1
	if attempt > p.config.RetryAttempts {
		attempt = p.config.RetryAttempts
	}
	return p.track(Task{JobID: jobID, Attempt: attempt, MaxAttempts: p.config.RetryAttempts})
}

// Tracks reports whether the job is queued, running or waiting for a retry
func (p *WorkerPool) Tracks(jobID uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.tracked[jobID]
	return ok
}

func (p *WorkerPool) track(task Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.tracked[task.JobID]; ok {
		return nil
	}
	if err := p.enqueueLocked(task); err != nil {
		return err
	}
	p.tracked[task.JobID] = struct{}{}
	return nil
}

func (p *WorkerPool) enqueueLocked(task Task) error {
	if !p.isRunning {
		return ErrPoolStopped
	}
	select {
	case p.tasks <- task:
		p.logger.Debug("Job submitted",
			zap.String("job_id", task.JobID.String()),
			zap.Int("attempt", task.Attempt),
		)
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *WorkerPool) release(jobID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.tracked, jobID)
}

func (p *WorkerPool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.process(ctx, task, workerID)
		}
	}
}

func (p *WorkerPool) process(ctx context.Context, task Task, workerID int) {
	log := p.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("job_id", task.JobID.String()),
		zap.Int("attempt", task.Attempt),
	)
	log.Info("Processing job")

	jobCtx, cancel := context.WithTimeout(ctx, p.config.JobTimeout)
	defer cancel()

	err := p.run(jobCtx, task)
	if err == nil {
		p.release(task.JobID)
		log.Info("Job completed successfully")
		return
	}
	if task.IsLastAttempt() {
		p.release(task.JobID)
		log.Error("Job failed", zap.Error(err))
		return
	}

	log.Warn("Job attempt failed, scheduling retry", zap.Error(err), zap.Duration("delay", p.config.RetryDelay))
	next := task
	next.Attempt++
	p.scheduleRetry(next)
}

// run shields the worker from executor panics
func (p *WorkerPool) run(ctx context.Context, task Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job panicked: %v", rec)
		}
	}()
	return p.executor.Execute(ctx, task)
}

func (p *WorkerPool) scheduleRetry(task Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.isRunning {
		return
	}
	p.retries[task.JobID] = time.AfterFunc(p.config.RetryDelay, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.retries, task.JobID)
		if err := p.enqueueLocked(task); err != nil {
			// left for the recovery sweep
			delete(p.tracked, task.JobID)
			p.logger.Warn("Failed to re-queue job for retry",
				zap.String("job_id", task.JobID.String()),
				zap.Error(err),
			)
		}
	})
}
