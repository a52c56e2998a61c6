// Package projects implements the user-driven target lifecycle: register,
// edit, pause/resume and delete. Each change may emit a notification.
package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/statuswatch/internal/domain"
	"github.com/hamed0406/statuswatch/internal/notify"
	"github.com/hamed0406/statuswatch/internal/repo"
	"github.com/hamed0406/statuswatch/internal/urlutil"
)

const maxNameLen = 120

var ErrValidation = errors.New("validation failed")

type Store interface {
	repo.TargetStore
	repo.RuleSetStore
}

type Notifier interface {
	Notify(ctx context.Context, rs *domain.NotificationRuleSet, t domain.Target, ec notify.EventContext) bool
}

type Service struct {
	Store            Store
	Notifier         Notifier
	Logger           *zap.Logger
	DashboardBaseURL string
	Now              func() time.Time
}

func NewService(store Store, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Store:    store,
		Notifier: notifier,
		Logger:   logger,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Protected bool   `json:"protected,omitempty"`
}

// Register validates and stores a new enabled target with unknown status.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.Target, error) {
	name, url, err := validate(in.Name, in.URL)
	if err != nil {
		return nil, err
	}
	t := &domain.Target{
		Name:      name,
		URL:       url,
		Enabled:   true,
		Protected: in.Protected,
		Status:    domain.StatusUnknown,
		CreatedAt: s.Now(),
	}
	if err := s.Store.CreateTarget(ctx, t); err != nil {
		return nil, err
	}
	s.Logger.Info("target_registered", zap.String("target_id", string(t.ID)), zap.String("url", t.URL))
	return t, nil
}

func (s *Service) Edit(ctx context.Context, id domain.TargetID, name, rawURL string) (*domain.Target, error) {
	name, url, err := validate(name, rawURL)
	if err != nil {
		return nil, err
	}
	t, err := s.Store.UpdateTarget(ctx, id, name, url)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, *t, domain.ActionEdit)
	return t, nil
}

// SetEnabled pauses or resumes a target. A no-op change emits nothing.
func (s *Service) SetEnabled(ctx context.Context, id domain.TargetID, enabled bool) (*domain.Target, error) {
	cur, err := s.Store.GetTarget(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, repo.ErrNotFound
	}
	if cur.Enabled == enabled {
		return cur, nil
	}
	t, err := s.Store.SetEnabled(ctx, id, enabled)
	if err != nil {
		return nil, err
	}
	action := domain.ActionPause
	if enabled {
		action = domain.ActionResume
	}
	s.emit(ctx, *t, action)
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id domain.TargetID) error {
	cur, err := s.Store.GetTarget(ctx, id)
	if err != nil {
		return err
	}
	if cur == nil {
		return repo.ErrNotFound
	}
	if err := s.Store.DeleteTarget(ctx, id); err != nil {
		return err
	}
	s.emit(ctx, *cur, domain.ActionDelete)
	return nil
}

func (s *Service) emit(ctx context.Context, t domain.Target, action domain.Action) {
	s.Logger.Info("target_lifecycle",
		zap.String("target_id", string(t.ID)),
		zap.String("action", string(action)),
	)
	if s.Notifier == nil {
		return
	}
	rs, err := s.Store.GetNotificationRuleSet(ctx)
	if err != nil {
		s.Logger.Warn("ruleset_load_error", zap.Error(err))
		return
	}
	s.Notifier.Notify(ctx, rs, t, notify.EventContext{
		Event:            domain.LifecycleEvent{TargetID: t.ID, Action: action},
		DashboardBaseURL: s.DashboardBaseURL,
		At:               s.Now(),
	})
}

func validate(name, rawURL string) (string, string, error) {
	name = strings.TrimSpace(name)
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", "", fmt.Errorf("%w: url is required", ErrValidation)
	}
	if !urlutil.IsHTTPURL(rawURL) {
		return "", "", fmt.Errorf("%w: url must be an absolute http(s) URL", ErrValidation)
	}
	if len(name) > maxNameLen {
		return "", "", fmt.Errorf("%w: name longer than %d characters", ErrValidation, maxNameLen)
	}
	url, err := urlutil.Normalize(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return name, url, nil
}
