package repo

import (
	"context"
	"errors"
	"time"

	"github.com/hamed0406/statuswatch/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrProtected    = errors.New("target is protected")
	ErrDuplicateURL = errors.New("target url already registered")
)

// Ports (interfaces). The memory, postgres and sqlite adapters implement all of them.
type TargetStore interface {
	ListTargets(ctx context.Context) ([]domain.Target, error)
	// GetTarget returns nil, nil when the target does not exist.
	GetTarget(ctx context.Context, id domain.TargetID) (*domain.Target, error)
	CreateTarget(ctx context.Context, t *domain.Target) error
	// UpdateTarget changes name and url only.
	UpdateTarget(ctx context.Context, id domain.TargetID, name, url string) (*domain.Target, error)
	SetEnabled(ctx context.Context, id domain.TargetID, enabled bool) (*domain.Target, error)
	// DeleteTarget removes the target and its history. Protected targets
	// yield ErrProtected.
	DeleteTarget(ctx context.Context, id domain.TargetID) error
	UpdateTargetStatus(ctx context.Context, id domain.TargetID, status domain.Status, at time.Time) (*domain.Target, error)
}

type HistoryStore interface {
	AppendHistory(ctx context.Context, id domain.TargetID, r domain.ProbeResult, at time.Time) error
	// ListHistory returns records oldest first. A zero since returns all.
	ListHistory(ctx context.Context, id domain.TargetID, since time.Time) ([]domain.HistoryRecord, error)
}

type RuleSetStore interface {
	// GetNotificationRuleSet returns nil, nil until one has been saved.
	GetNotificationRuleSet(ctx context.Context) (*domain.NotificationRuleSet, error)
	SaveNotificationRuleSet(ctx context.Context, rs domain.NotificationRuleSet) error
}

// Store is the full persistence collaborator.
type Store interface {
	TargetStore
	HistoryStore
	RuleSetStore
	Close() error
}
