package domain

import (
	"testing"
	"time"
)

func TestStatusFor_NeverUnknown(t *testing.T) {
	if got := StatusFor(true); got != StatusOnline {
		t.Fatalf("StatusFor(true)=%q want online", got)
	}
	if got := StatusFor(false); got != StatusOffline {
		t.Fatalf("StatusFor(false)=%q want offline", got)
	}
}

func TestEffectsOf_AllModes(t *testing.T) {
	cases := []struct {
		mode TriggerMode
		want ModeEffects
	}{
		{Scheduled{}, ModeEffects{Persist: true, NotifyTransitions: true}},
		{External{}, ModeEffects{Persist: true, NotifyTransitions: true}},
		{Direct{}, ModeEffects{}},
		{Manual{}, ModeEffects{Persist: true, NotifyTransitions: true, NotifyManualPing: true}},
		{Manual{Silent: true}, ModeEffects{Persist: true}},
	}
	for _, c := range cases {
		if got := EffectsOf(c.mode); got != c.want {
			t.Fatalf("EffectsOf(%s)=%+v want %+v", c.mode.ModeName(), got, c.want)
		}
	}
}

func TestUptime(t *testing.T) {
	if _, ok := Uptime(nil); ok {
		t.Fatalf("expected ok=false for empty history")
	}
	recs := []HistoryRecord{{Reachable: true}, {Reachable: false}, {Reachable: true}, {Reachable: true}}
	p, ok := Uptime(recs)
	if !ok || p != 75 {
		t.Fatalf("want 75%%, got %v ok=%v", p, ok)
	}
}

func TestLastFailure_PicksMostRecent(t *testing.T) {
	base := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	recs := []HistoryRecord{
		{ID: 1, Reachable: false, RecordedAt: base},
		{ID: 2, Reachable: false, RecordedAt: base.Add(2 * time.Minute)},
		{ID: 3, Reachable: true, RecordedAt: base.Add(3 * time.Minute)},
		{ID: 4, Reachable: false, RecordedAt: base.Add(time.Minute)},
	}
	got, ok := LastFailure(recs)
	if !ok || got.ID != 2 {
		t.Fatalf("want record 2, got %+v ok=%v", got, ok)
	}
	if _, ok := LastFailure([]HistoryRecord{{Reachable: true}}); ok {
		t.Fatalf("expected no failure")
	}
}

func TestRuleSet_Selects(t *testing.T) {
	all := NotificationRuleSet{}
	if !all.Selects("anything") {
		t.Fatalf("empty selection must match every target")
	}
	only := NotificationRuleSet{SelectedTargetIDs: []TargetID{"A"}}
	if !only.Selects("A") || only.Selects("B") {
		t.Fatalf("selection {A} should match A only")
	}
}

func TestTarget_DisplayName(t *testing.T) {
	if got := (Target{URL: "https://x.example"}).DisplayName(); got != "https://x.example" {
		t.Fatalf("fallback name wrong: %q", got)
	}
	if got := (Target{Name: "Site", URL: "https://x.example"}).DisplayName(); got != "Site" {
		t.Fatalf("name wrong: %q", got)
	}
}
