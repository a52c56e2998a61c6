package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/hamed0406/statuswatch/internal/domain"
	"github.com/hamed0406/statuswatch/internal/rules"
	"github.com/hamed0406/statuswatch/internal/urlutil"
)

type Sender interface {
	Send(ctx context.Context, sinkURL string, p Payload) error
}

// Service gates events through the rule engine, composes and sends them.
type Service struct {
	Composer Composer
	Sender   Sender
	Logger   *zap.Logger
}

func NewService(sender Sender, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Sender: sender, Logger: logger}
}

// Notify reports whether a notification was delivered. It never panics and
// never returns an error; every failure is logged and reported as false.
func (s *Service) Notify(ctx context.Context, rs *domain.NotificationRuleSet, t domain.Target, ec EventContext) (sent bool) {
	if s == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("notify_panic", zap.String("target_id", string(t.ID)), zap.Any("panic", r))
			sent = false
		}
	}()

	if !rules.ShouldNotify(ec.Event, rs) {
		return false
	}
	if !urlutil.IsHTTPURL(rs.SinkURL) {
		s.Logger.Warn("notify_invalid_sink", zap.String("target_id", string(t.ID)))
		return false
	}

	p := s.Composer.Compose(*rs, t, ec)
	if err := s.Sender.Send(ctx, rs.SinkURL, p); err != nil {
		s.Logger.Warn("notify_send_error",
			zap.String("target_id", string(t.ID)),
			zap.Error(err),
		)
		return false
	}
	s.Logger.Info("notify_sent",
		zap.String("target_id", string(t.ID)),
		zap.String("event", eventName(ec.Event)),
	)
	return true
}

func eventName(ev domain.Event) string {
	switch e := ev.(type) {
	case domain.StatusEvent:
		return string(e.New)
	case domain.LifecycleEvent:
		return string(e.Action)
	}
	return "unknown"
}
