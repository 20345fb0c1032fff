package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweep performs one periodic maintenance pass and reports how many
// records it touched
type Sweep interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// SweeperConfig holds configuration for a periodic sweeper
type SweeperConfig struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	// RunOnStart also runs one pass immediately after Start
	RunOnStart bool
}

// Sweeper runs a Sweep on a fixed interval until stopped
type Sweeper struct {
	sweep     Sweep
	logger    *zap.Logger
	config    SweeperConfig
	now       func() time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSweeper creates a new periodic sweeper
func NewSweeper(sweep Sweep, logger *zap.Logger, config SweeperConfig) *Sweeper {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	if config.Timeout <= 0 {
		config.Timeout = config.Interval
	}
	if config.Name == "" {
		config.Name = "sweeper"
	}
	return &Sweeper{
		sweep:  sweep,
		logger: logger.With(zap.String("sweeper", config.Name)),
		config: config,
		now:    time.Now,
	}
}

// Start starts the sweep loop
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Sweeper started", zap.Duration("interval", s.config.Interval))
	return nil
}

// Stop gracefully stops the sweeper
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sweeper stop timed out")
		return ctx.Err()
	}
}

func (s *Sweeper) loop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	n, err := s.sweep.Sweep(runCtx, s.now())
	if err != nil {
		s.logger.Error("Sweep failed", zap.Error(err), zap.Int("processed", n))
		return
	}
	s.logger.Info("Sweep completed",
		zap.Int("processed", n),
		zap.Duration("duration", time.Since(start)),
	)
}
