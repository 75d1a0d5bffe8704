package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Poller drives a callback immediately and then on a fixed interval. Runs
// are not serialized: a slow callback may overlap the next one.
type Poller struct {
	logger *zap.Logger

	mu       sync.Mutex
	sched    gocron.Scheduler
	ctx      context.Context
	fn       func(context.Context)
	interval time.Duration
	stopped  bool
}

func NewPoller(logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{logger: logger}
}

// Start replaces any running schedule.
func (p *Poller) Start(ctx context.Context, fn func(context.Context), interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", interval)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.startLocked(ctx, fn, interval)
}

func (p *Poller) startLocked(ctx context.Context, fn func(context.Context), interval time.Duration) error {
	p.stopLocked()

	s, err := gocron.NewScheduler(gocron.WithStopTimeout(time.Second))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { fn(ctx) }),
		gocron.WithName("refresh"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("schedule refresh: %w", err)
	}
	s.Start()

	p.sched = s
	p.stopped = false
	p.ctx = ctx
	p.fn = fn
	p.interval = interval
	p.logger.Info("poller started", zap.Duration("interval", interval))
	return nil
}

// Restart stops and starts again with the last callback and interval. A
// poller halted by Stop stays halted; only Start revives it.
func (p *Poller) Restart() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fn == nil {
		return errors.New("poller was never started")
	}
	if p.stopped {
		p.logger.Debug("restart ignored, poller stopped")
		return nil
	}
	return p.startLocked(p.ctx, p.fn, p.interval)
}

func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	p.stopLocked()
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sched != nil
}

func (p *Poller) stopLocked() {
	if p.sched == nil {
		return
	}
	if err := p.sched.Shutdown(); err != nil {
		p.logger.Debug("poller stopped with callbacks still running", zap.Error(err))
	}
	p.sched = nil
	p.logger.Info("poller stopped")
}
