package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hamed0406/statuswatch/internal/domain"
)

// CronTrigger runs scheduled cycles on a cron expression. Accepts five or
// six fields and descriptors such as "@every 1m".
type CronTrigger struct {
	cron   *cron.Cron
	cycles CycleRunner
	logger *zap.Logger
	opts   []CycleOption
}

func NewCronTrigger(spec string, cycles CycleRunner, logger *zap.Logger, opts ...CycleOption) (*CronTrigger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	ct := &CronTrigger{cron: c, cycles: cycles, logger: logger, opts: opts}
	if _, err := c.AddFunc(spec, ct.fire); err != nil {
		return nil, fmt.Errorf("parse cron spec %q: %w", spec, err)
	}
	return ct, nil
}

func (ct *CronTrigger) Start() {
	ct.cron.Start()
	ct.logger.Info("cron_started", zap.Int("entries", len(ct.cron.Entries())))
}

// Stop halts the schedule and returns a context done once running jobs finish.
func (ct *CronTrigger) Stop() context.Context {
	return ct.cron.Stop()
}

func (ct *CronTrigger) fire() {
	report, err := ct.cycles.RunCycle(context.Background(), domain.Scheduled{}, ct.opts...)
	if err != nil {
		ct.logger.Warn("cron_cycle_error", zap.Error(err))
		return
	}
	ct.logger.Debug("cron_cycle_done", zap.Int("total", report.Total))
}
