// Package worker holds the small timing primitives the client screens rely
// on: a start/stop poller, a per-field debouncer and an in-flight guard.
package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/harisonns09/ecclesia-manager-sub000/pkg/logger"
)

var ErrAlreadyRunning = errors.New("poller already running")

// PollerConfig holds configuration for a Poller
type PollerConfig struct {
	Name     string
	Interval time.Duration
}

// DefaultPollerConfig returns the kids roster refresh settings
func DefaultPollerConfig() *PollerConfig {
	return &PollerConfig{
		Name:     "poller",
		Interval: 30 * time.Second,
	}
}

// PollerStats holds poller statistics
type PollerStats struct {
	IsRunning     bool
	TotalRuns     uint64
	TotalFailures uint64
	LastRunTime   time.Time
	LastError     error
}

// Poller calls fn once on Start and then every Interval until Stop. It
// never runs on its own: a screen starts it when shown and stops it when
// left.
type Poller struct {
	config *PollerConfig
	fn     func(ctx context.Context) error
	log    *logger.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{} // closed when the latest loop has returned
	lastRun time.Time
	lastErr error

	totalRuns     uint64
	totalFailures uint64
}

// NewPoller creates a stopped Poller. A nil config uses DefaultPollerConfig.
func NewPoller(fn func(ctx context.Context) error, log *logger.Logger, config *PollerConfig) *Poller {
	if config == nil {
		config = DefaultPollerConfig()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultPollerConfig().Interval
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Poller{config: config, fn: fn, log: log.Named(config.Name)}
}

// Start begins polling. The first call happens right away in the
// background, once a loop stopped just before has returned. Cancelling ctx
// has the same effect as Stop.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	prev, done := p.done, make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.running = true

	go p.loop(ctx, prev, done)

	p.log.Debug("poller started", zap.Duration("interval", p.config.Interval))
	return nil
}

// Stop cancels polling and waits for an in-progress call to return
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	wasRunning := p.running
	p.running = false
	done := p.done
	p.mu.Unlock()

	if done != nil {
		<-done
	}
	if wasRunning {
		p.log.Debug("poller stopped")
	}
}

// Running reports whether the poller is between Start and Stop
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// GetStats returns poller statistics
func (p *Poller) GetStats() PollerStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PollerStats{
		IsRunning:     p.running,
		TotalRuns:     atomic.LoadUint64(&p.totalRuns),
		TotalFailures: atomic.LoadUint64(&p.totalFailures),
		LastRunTime:   p.lastRun,
		LastError:     p.lastErr,
	}
}

func (p *Poller) loop(ctx context.Context, prev <-chan struct{}, done chan struct{}) {
	defer close(done)
	defer p.finish(done)

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			return
		}
	}

	p.run(ctx)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.run(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// finish marks the poller stopped unless a later Start owns it now
func (p *Poller) finish(done chan struct{}) {
	p.mu.Lock()
	if p.done == done {
		p.running = false
	}
	p.mu.Unlock()
}

func (p *Poller) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	err := p.fn(ctx)
	atomic.AddUint64(&p.totalRuns, 1)
	if err != nil && ctx.Err() == nil {
		atomic.AddUint64(&p.totalFailures, 1)
		p.log.Warn("poll failed", zap.Error(err))
	}

	p.mu.Lock()
	p.lastRun = time.Now()
	p.lastErr = err
	p.mu.Unlock()
}
