// Package rules decides whether an event is worth a notification.
package rules

import "github.com/hamed0406/statuswatch/internal/domain"

// ShouldNotify is pure: it reads only its arguments. A nil rule set never
// notifies.
func ShouldNotify(ev domain.Event, rs *domain.NotificationRuleSet) bool {
	if rs == nil || !rs.Enabled {
		return false
	}
	if ev == nil || !rs.Selects(ev.Target()) {
		return false
	}

	switch e := ev.(type) {
	case domain.StatusEvent:
		return statusChange(e, rs)
	case domain.LifecycleEvent:
		return lifecycle(e.Action, rs)
	}
	return false
}

func statusChange(e domain.StatusEvent, rs *domain.NotificationRuleSet) bool {
	// First observation of a target is not a change worth reporting.
	if e.Previous == domain.StatusUnknown || e.Previous == "" {
		return false
	}
	if e.New == e.Previous || e.New == domain.StatusUnknown {
		return false
	}

	switch e.New {
	case domain.StatusOffline:
		return rs.NotifyOnOffline
	case domain.StatusOnline:
		if rs.Frequency == domain.FrequencyDowntimeOnly {
			return false
		}
		return rs.NotifyOnOnline
	}
	return false
}

func lifecycle(a domain.Action, rs *domain.NotificationRuleSet) bool {
	switch a {
	case domain.ActionEdit:
		return rs.NotifyOnEdit
	case domain.ActionDelete:
		return rs.NotifyOnDelete
	case domain.ActionPause, domain.ActionResume:
		return rs.NotifyOnPauseResume
	case domain.ActionManualPing:
		return rs.NotifyOnManualPing
	}
	return false
}
