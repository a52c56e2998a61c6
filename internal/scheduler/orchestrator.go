package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/statuswatch/internal/bus"
	"github.com/hamed0406/statuswatch/internal/domain"
	"github.com/hamed0406/statuswatch/internal/notify"
	"github.com/hamed0406/statuswatch/internal/probe"
	"github.com/hamed0406/statuswatch/internal/repo"
	"github.com/hamed0406/statuswatch/internal/status"
)

// Outcome reasons.
const (
	ReasonInvalidURL  = "invalid_url"
	ReasonProbeFailed = "probe_failed"
	ReasonInternal    = "internal_error"
	ReasonPersistence = "persistence_error"
)

const DefaultUptimeWindow = 24 * time.Hour

var ErrTargetDisabled = errors.New("target is paused")

type Notifier interface {
	Notify(ctx context.Context, rs *domain.NotificationRuleSet, t domain.Target, ec notify.EventContext) bool
}

type TransitionPublisher interface {
	PublishTransition(t bus.Transition) error
}

// Outcome is the per-target result of a cycle or ping.
type Outcome struct {
	TargetID     domain.TargetID     `json:"target_id"`
	Name         string              `json:"name"`
	URL          string              `json:"url"`
	OK           bool                `json:"ok"`
	Reason       string              `json:"reason,omitempty"`
	Error        string              `json:"error,omitempty"`
	Status       domain.Status       `json:"status"`
	Transitioned bool                `json:"transitioned"`
	Notified     bool                `json:"notified"`
	Result       *domain.ProbeResult `json:"result,omitempty"`
}

type CycleReport struct {
	Mode      string        `json:"mode"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	Total     int           `json:"total"`
	Outcomes  []Outcome     `json:"outcomes"`
}

type cycleConfig struct {
	stagger time.Duration
	timeout time.Duration
}

type CycleOption func(*cycleConfig)

// WithStagger delays the i-th probe by i*d.
func WithStagger(d time.Duration) CycleOption {
	return func(c *cycleConfig) { c.stagger = d }
}

func WithProbeTimeout(d time.Duration) CycleOption {
	return func(c *cycleConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// ManualPingRequest is a single-target probe request.
type ManualPingRequest struct {
	TargetID domain.TargetID `json:"targetId"`
	IsManual bool            `json:"isManual"`
	Silent   bool            `json:"silent"`
}

// Orchestrator runs probe cycles. Every trigger (cron, keep-alive, the
// external endpoint, manual pings) goes through RunCycle or Ping.
type Orchestrator struct {
	Store     repo.Store
	Prober    probe.Prober
	Engine    *status.Engine
	Notifier  Notifier
	Publisher TransitionPublisher
	Logger    *zap.Logger

	DashboardBaseURL string
	ProbeTimeout     time.Duration
	UptimeWindow     time.Duration
	Now              func() time.Time
}

func NewOrchestrator(store repo.Store, prober probe.Prober, notifier Notifier, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		Store:        store,
		Prober:       prober,
		Engine:       status.NewEngine(store, logger),
		Notifier:     notifier,
		Logger:       logger,
		ProbeTimeout: probe.DefaultTimeout,
		UptimeWindow: DefaultUptimeWindow,
		Now:          func() time.Time { return time.Now().UTC() },
	}
}

// RunCycle probes every enabled target concurrently. It fails only when the
// target list cannot be loaded; per-target failures land in the outcomes.
func (o *Orchestrator) RunCycle(ctx context.Context, mode domain.TriggerMode, opts ...CycleOption) (CycleReport, error) {
	cfg := cycleConfig{timeout: o.ProbeTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	began := time.Now()
	report := CycleReport{Mode: mode.ModeName(), StartedAt: o.Now(), Outcomes: []Outcome{}}

	all, err := o.Store.ListTargets(ctx)
	if err != nil {
		o.Logger.Error("cycle_list_error", zap.String("mode", mode.ModeName()), zap.Error(err))
		return report, fmt.Errorf("list targets: %w", err)
	}
	enabled := make([]domain.Target, 0, len(all))
	for _, t := range all {
		if t.Enabled {
			enabled = append(enabled, t)
		}
	}
	report.Total = len(enabled)
	if len(enabled) == 0 {
		report.Elapsed = time.Since(began)
		return report, nil
	}

	effects := domain.EffectsOf(mode)
	rs := o.ruleSet(ctx, effects)

	outcomes := make([]Outcome, len(enabled))
	var wg sync.WaitGroup
	for i, t := range enabled {
		wg.Add(1)
		go func(i int, t domain.Target) {
			defer wg.Done()
			if cfg.stagger > 0 && i > 0 {
				timer := time.NewTimer(time.Duration(i) * cfg.stagger)
				defer timer.Stop()
				select {
				case <-ctx.Done():
					outcomes[i] = failed(t, ReasonInternal, ctx.Err().Error())
					return
				case <-timer.C:
				}
			}
			outcomes[i] = o.runTarget(ctx, t, mode, effects, rs, cfg.timeout)
		}(i, t)
	}
	wg.Wait()

	report.Outcomes = outcomes
	report.Elapsed = time.Since(began)

	up := 0
	for _, out := range outcomes {
		if out.OK {
			up++
		}
	}
	o.Logger.Info("cycle_finished",
		zap.String("mode", mode.ModeName()),
		zap.Int("total", report.Total),
		zap.Int("ok", up),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

// Ping probes one target. Manual pings may additionally emit a manualPing
// notification; Silent suppresses every notification.
func (o *Orchestrator) Ping(ctx context.Context, req ManualPingRequest) (Outcome, error) {
	t, err := o.Store.GetTarget(ctx, req.TargetID)
	if err != nil {
		return Outcome{}, fmt.Errorf("get target: %w", err)
	}
	if t == nil {
		return Outcome{}, repo.ErrNotFound
	}
	if !t.Enabled {
		return Outcome{}, ErrTargetDisabled
	}

	var mode domain.TriggerMode = domain.External{}
	if req.IsManual {
		mode = domain.Manual{Silent: req.Silent}
	}
	effects := domain.EffectsOf(mode)
	rs := o.ruleSet(ctx, effects)

	out := o.runTarget(ctx, *t, mode, effects, rs, o.ProbeTimeout)

	if effects.NotifyManualPing && out.Reason != ReasonInvalidURL && o.Notifier != nil {
		pinged := *t
		pinged.Status = out.Status
		ec := notify.EventContext{
			Event:            domain.LifecycleEvent{TargetID: t.ID, Action: domain.ActionManualPing},
			LatencyMS:        latencyOf(out.Result),
			History:          o.history(ctx, rs, t.ID),
			DashboardBaseURL: o.DashboardBaseURL,
			At:               o.Now(),
		}
		if o.Notifier.Notify(ctx, rs, pinged, ec) {
			out.Notified = true
		}
	}

	o.Logger.Info("ping_finished",
		zap.String("target_id", string(t.ID)),
		zap.String("mode", mode.ModeName()),
		zap.Bool("ok", out.OK),
		zap.String("status", string(out.Status)),
	)
	return out, nil
}

func (o *Orchestrator) ruleSet(ctx context.Context, effects domain.ModeEffects) *domain.NotificationRuleSet {
	if !effects.NotifyTransitions && !effects.NotifyManualPing {
		return nil
	}
	rs, err := o.Store.GetNotificationRuleSet(ctx)
	if err != nil {
		o.Logger.Warn("ruleset_load_error", zap.Error(err))
		return nil
	}
	return rs
}

func (o *Orchestrator) runTarget(
	ctx context.Context,
	t domain.Target,
	mode domain.TriggerMode,
	effects domain.ModeEffects,
	rs *domain.NotificationRuleSet,
	timeout time.Duration,
) (out Outcome) {
	out = Outcome{TargetID: t.ID, Name: t.Name, URL: t.URL, Status: t.Status}
	defer func() {
		if r := recover(); r != nil {
			o.Logger.Error("target_panic",
				zap.String("target_id", string(t.ID)),
				zap.Any("panic", r),
			)
			out.OK = false
			out.Reason = ReasonInternal
			out.Error = fmt.Sprint(r)
		}
	}()

	res := o.Prober.Probe(ctx, t.URL, timeout)
	out.Result = &res

	switch {
	case res.ErrorMessage == probe.ErrInvalidURL:
		out.Reason = ReasonInvalidURL
		out.Error = res.ErrorMessage
		return out
	case !res.Reachable:
		out.Reason = ReasonProbeFailed
		out.Error = res.ErrorMessage
	default:
		out.OK = true
	}

	if !effects.Persist {
		out.Status = domain.StatusFor(res.Reachable)
		return out
	}

	tr, err := o.Engine.ApplyResult(ctx, t, res)
	out.Status = tr.New
	out.Transitioned = tr.Transitioned
	if err != nil {
		out.OK = false
		out.Reason = ReasonPersistence
		out.Error = err.Error()
	}
	if !tr.Transitioned {
		return out
	}

	o.publish(tr, mode)

	// A first observation is recorded but never announced.
	if effects.NotifyTransitions && tr.Previous != domain.StatusUnknown && o.Notifier != nil {
		ec := notify.EventContext{
			Event:            domain.StatusEvent{TargetID: t.ID, Previous: tr.Previous, New: tr.New},
			LatencyMS:        res.LatencyMS,
			History:          o.history(ctx, rs, t.ID),
			DashboardBaseURL: o.DashboardBaseURL,
			At:               o.Now(),
		}
		out.Notified = o.Notifier.Notify(ctx, rs, tr.Target, ec)
	}
	return out
}

// history loads the uptime window only when the template renders from it.
func (o *Orchestrator) history(ctx context.Context, rs *domain.NotificationRuleSet, id domain.TargetID) []domain.HistoryRecord {
	if rs == nil || !rs.Enabled || (!rs.Template.IncludeUptime && !rs.Template.IncludeLastFailure) {
		return nil
	}
	recs, err := o.Store.ListHistory(ctx, id, o.Now().Add(-o.UptimeWindow))
	if err != nil {
		o.Logger.Warn("history_load_error", zap.String("target_id", string(id)), zap.Error(err))
		return nil
	}
	return recs
}

func (o *Orchestrator) publish(tr status.Transition, mode domain.TriggerMode) {
	if o.Publisher == nil {
		return
	}
	msg := bus.Transition{
		TargetID: string(tr.Target.ID),
		Name:     tr.Target.Name,
		URL:      tr.Target.URL,
		Previous: string(tr.Previous),
		New:      string(tr.New),
		Mode:     mode.ModeName(),
		At:       o.Now(),
	}
	if err := o.Publisher.PublishTransition(msg); err != nil {
		o.Logger.Warn("transition_publish_error", zap.String("target_id", msg.TargetID), zap.Error(err))
	}
}

func failed(t domain.Target, reason, msg string) Outcome {
	return Outcome{TargetID: t.ID, Name: t.Name, URL: t.URL, Status: t.Status, Reason: reason, Error: msg}
}

func latencyOf(r *domain.ProbeResult) *int {
	if r == nil {
		return nil
	}
	return r.LatencyMS
}
