package rules

import (
	"testing"

	"github.com/hamed0406/statuswatch/internal/domain"
)

func allOn() *domain.NotificationRuleSet {
	return &domain.NotificationRuleSet{
		Enabled:             true,
		NotifyOnOnline:      true,
		NotifyOnOffline:     true,
		NotifyOnEdit:        true,
		NotifyOnDelete:      true,
		NotifyOnPauseResume: true,
		NotifyOnManualPing:  true,
		Frequency:           domain.FrequencyAll,
	}
}

func status(prev, next domain.Status) domain.Event {
	return domain.StatusEvent{TargetID: "A", Previous: prev, New: next}
}

func action(a domain.Action) domain.Event {
	return domain.LifecycleEvent{TargetID: "A", Action: a}
}

func TestShouldNotify_StatusTransitions(t *testing.T) {
	const (
		on  = domain.StatusOnline
		off = domain.StatusOffline
		unk = domain.StatusUnknown
	)
	cases := []struct {
		name   string
		ev     domain.Event
		mutate func(*domain.NotificationRuleSet)
		want   bool
	}{
		{"online to offline", status(on, off), nil, true},
		{"offline to online", status(off, on), nil, true},
		{"unknown to online suppressed", status(unk, on), nil, false},
		{"unknown to offline suppressed", status(unk, off), nil, false},
		{"no-op online", status(on, on), nil, false},
		{"no-op offline", status(off, off), nil, false},
		{"to unknown is degenerate", status(on, unk), nil, false},
		{"offline toggle off", status(on, off), func(r *domain.NotificationRuleSet) { r.NotifyOnOffline = false }, false},
		{"online toggle off", status(off, on), func(r *domain.NotificationRuleSet) { r.NotifyOnOnline = false }, false},
		{"downtime only suppresses recovery", status(off, on), func(r *domain.NotificationRuleSet) { r.Frequency = domain.FrequencyDowntimeOnly }, false},
		{"downtime only keeps outage", status(on, off), func(r *domain.NotificationRuleSet) { r.Frequency = domain.FrequencyDowntimeOnly }, true},
		{"status change only allows recovery", status(off, on), func(r *domain.NotificationRuleSet) { r.Frequency = domain.FrequencyStatusChangeOnly }, true},
		{"master switch off", status(on, off), func(r *domain.NotificationRuleSet) { r.Enabled = false }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rs := allOn()
			if tc.mutate != nil {
				tc.mutate(rs)
			}
			if got := ShouldNotify(tc.ev, rs); got != tc.want {
				t.Fatalf("want %v got %v", tc.want, got)
			}
		})
	}
}

func TestShouldNotify_LifecycleToggles(t *testing.T) {
	cases := []struct {
		action domain.Action
		off    func(*domain.NotificationRuleSet)
	}{
		{domain.ActionEdit, func(r *domain.NotificationRuleSet) { r.NotifyOnEdit = false }},
		{domain.ActionDelete, func(r *domain.NotificationRuleSet) { r.NotifyOnDelete = false }},
		{domain.ActionPause, func(r *domain.NotificationRuleSet) { r.NotifyOnPauseResume = false }},
		{domain.ActionResume, func(r *domain.NotificationRuleSet) { r.NotifyOnPauseResume = false }},
		{domain.ActionManualPing, func(r *domain.NotificationRuleSet) { r.NotifyOnManualPing = false }},
	}
	for _, tc := range cases {
		if !ShouldNotify(action(tc.action), allOn()) {
			t.Fatalf("%s: want true with toggle on", tc.action)
		}
		rs := allOn()
		tc.off(rs)
		if ShouldNotify(action(tc.action), rs) {
			t.Fatalf("%s: want false with toggle off", tc.action)
		}
	}
	if ShouldNotify(action("rename"), allOn()) {
		t.Fatalf("unknown action must not notify")
	}
}

func TestShouldNotify_SelectionSet(t *testing.T) {
	rs := allOn()
	rs.SelectedTargetIDs = []domain.TargetID{"A"}

	events := []domain.Event{
		domain.StatusEvent{TargetID: "B", Previous: domain.StatusOnline, New: domain.StatusOffline},
		domain.LifecycleEvent{TargetID: "B", Action: domain.ActionDelete},
	}
	for _, ev := range events {
		if ShouldNotify(ev, rs) {
			t.Fatalf("event for unselected target notified: %+v", ev)
		}
	}
	if !ShouldNotify(status(domain.StatusOnline, domain.StatusOffline), rs) {
		t.Fatalf("selected target should notify")
	}
}

func TestShouldNotify_NilRuleSet(t *testing.T) {
	if ShouldNotify(status(domain.StatusOnline, domain.StatusOffline), nil) {
		t.Fatalf("nil rule set must not notify")
	}
}

func TestShouldNotify_IsPure(t *testing.T) {
	rs := allOn()
	before := *rs
	ev := status(domain.StatusOnline, domain.StatusOffline)
	first := ShouldNotify(ev, rs)
	for i := 0; i < 10; i++ {
		if ShouldNotify(ev, rs) != first {
			t.Fatalf("result changed between identical calls")
		}
	}
	if rs.Enabled != before.Enabled || rs.Frequency != before.Frequency || rs.NotifyOnOffline != before.NotifyOnOffline {
		t.Fatalf("rule set mutated")
	}
}
