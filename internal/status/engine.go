// Package status turns probe results into persisted history and target status.
package status

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/statuswatch/internal/domain"
	"github.com/hamed0406/statuswatch/internal/repo"
)

const (
	StageHistoryAppend = "history_append"
	StageStatusUpdate  = "status_update"
)

// StageError records which persistence step failed.
type StageError struct {
	Stage    string
	TargetID domain.TargetID
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.TargetID, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Transition is the outcome of ApplyResult. Target is the stored row after
// the update, or the input target with the new status applied when the
// update failed.
type Transition struct {
	Target       domain.Target
	Transitioned bool
	Previous     domain.Status
	New          domain.Status
}

// Persistence is the subset of repo.Store the engine writes through.
type Persistence interface {
	repo.HistoryStore
	UpdateTargetStatus(ctx context.Context, id domain.TargetID, status domain.Status, at time.Time) (*domain.Target, error)
}

type Engine struct {
	Store  Persistence
	Logger *zap.Logger
	Now    func() time.Time
}

func NewEngine(store Persistence, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{Store: store, Logger: logger, Now: func() time.Time { return time.Now().UTC() }}
}

// ApplyResult appends a history record and then stores the derived status.
// Both stages always run; their failures are combined into the returned
// error as *StageError values and the transition is reported regardless.
func (e *Engine) ApplyResult(ctx context.Context, t domain.Target, r domain.ProbeResult) (Transition, error) {
	at := e.Now()
	prev := t.Status
	if prev == "" {
		prev = domain.StatusUnknown
	}
	next := domain.StatusFor(r.Reachable)

	tr := Transition{
		Target:       t,
		Transitioned: prev != next,
		Previous:     prev,
		New:          next,
	}

	var errs error
	if err := e.Store.AppendHistory(ctx, t.ID, r, at); err != nil {
		e.Logger.Warn("history_append_error",
			zap.String("target_id", string(t.ID)),
			zap.String("url", t.URL),
			zap.Error(err),
		)
		errs = multierr.Append(errs, &StageError{Stage: StageHistoryAppend, TargetID: t.ID, Err: err})
	}

	updated, err := e.Store.UpdateTargetStatus(ctx, t.ID, next, at)
	if err != nil {
		e.Logger.Warn("status_update_error",
			zap.String("target_id", string(t.ID)),
			zap.String("status", string(next)),
			zap.Error(err),
		)
		errs = multierr.Append(errs, &StageError{Stage: StageStatusUpdate, TargetID: t.ID, Err: err})
		tr.Target.Status = next
		tr.Target.LastCheckedAt = &at
	} else if updated != nil {
		tr.Target = *updated
	}

	if tr.Transitioned {
		e.Logger.Info("status_transition",
			zap.String("target_id", string(t.ID)),
			zap.String("previous", string(prev)),
			zap.String("new", string(next)),
		)
	}
	return tr, errs
}

// FailedStages lists the stages named by err, in the order they failed.
func FailedStages(err error) []string {
	var out []string
	for _, e := range multierr.Errors(err) {
		if se, ok := e.(*StageError); ok {
			out = append(out, se.Stage)
		}
	}
	return out
}
