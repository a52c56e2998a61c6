package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/statuswatch/internal/domain"
	"github.com/hamed0406/statuswatch/internal/probe"
)

// DefaultStagger spaces out keep-alive probes that share infrastructure.
const DefaultStagger = 200 * time.Millisecond

// KeepAlive is a best-effort background caller of RunCycle using short
// probes and a staggered fan-out.
type KeepAlive struct {
	Logger   *zap.Logger
	Cycles   CycleRunner
	Interval time.Duration
	Timeout  time.Duration
	Stagger  time.Duration
}

// CycleRunner is the entry point every trigger calls.
type CycleRunner interface {
	RunCycle(ctx context.Context, mode domain.TriggerMode, opts ...CycleOption) (CycleReport, error)
}

func NewKeepAlive(logger *zap.Logger, cycles CycleRunner, interval, timeout, stagger time.Duration) *KeepAlive {
	if interval < 0 {
		interval = 0
	}
	if timeout <= 0 {
		timeout = probe.BackgroundTimeout
	}
	if stagger < 0 {
		stagger = 0
	}
	return &KeepAlive{
		Logger:   logger,
		Cycles:   cycles,
		Interval: interval,
		Timeout:  timeout,
		Stagger:  stagger,
	}
}

// Run does an immediate pass, then runs each tick. Stops when ctx is cancelled.
func (k *KeepAlive) Run(ctx context.Context) {
	if k.Interval == 0 {
		// disabled
		k.Logger.Info("keepalive_disabled")
		return
	}
	t := time.NewTicker(k.Interval)
	defer t.Stop()

	// immediate pass
	k.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			k.Logger.Info("keepalive_stopped")
			return
		case <-t.C:
			k.runOnce(ctx)
		}
	}
}

func (k *KeepAlive) runOnce(ctx context.Context) {
	report, err := k.Cycles.RunCycle(ctx, domain.Scheduled{},
		WithProbeTimeout(k.Timeout),
		WithStagger(k.Stagger),
	)
	if err != nil {
		k.Logger.Warn("keepalive_cycle_error", zap.Error(err))
		return
	}
	k.Logger.Debug("keepalive_checked",
		zap.Int("total", report.Total),
		zap.Duration("elapsed", report.Elapsed),
	)
}
