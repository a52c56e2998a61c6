package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hamed0406/statuswatch/internal/domain"
	"github.com/hamed0406/statuswatch/internal/repo"
)

func TestMemoryStore_CreateAndListTargets(t *testing.T) {
	ctx := context.Background()
	s := New()

	tgt := &domain.Target{Name: "Example", URL: "https://example.com", Enabled: true}
	if err := s.CreateTarget(ctx, tgt); err != nil {
		t.Fatalf("CreateTarget: %v", err)
	}
	if tgt.ID == "" {
		t.Fatalf("expected target ID to be set")
	}
	if tgt.Status != domain.StatusUnknown {
		t.Fatalf("new targets start unknown, got %q", tgt.Status)
	}

	all, err := s.ListTargets(ctx)
	if err != nil {
		t.Fatalf("ListTargets: %v", err)
	}
	if len(all) != 1 || all[0].URL != "https://example.com" {
		t.Fatalf("unexpected list: %+v", all)
	}

	if err := s.CreateTarget(ctx, &domain.Target{URL: "https://example.com"}); !errors.Is(err, repo.ErrDuplicateURL) {
		t.Fatalf("want ErrDuplicateURL, got %v", err)
	}
}

func TestMemoryStore_GetMissingIsNil(t *testing.T) {
	got, err := New().GetTarget(context.Background(), "nope")
	if err != nil || got != nil {
		t.Fatalf("want nil,nil got %+v,%v", got, err)
	}
}

func TestMemoryStore_StatusAndHistory(t *testing.T) {
	ctx := context.Background()
	s := New()
	tgt := &domain.Target{URL: "https://example.com", Enabled: true}
	_ = s.CreateTarget(ctx, tgt)

	base := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	if err := s.AppendHistory(ctx, tgt.ID, domain.ProbeResult{Reachable: true, LatencyMS: domain.IntPtr(12)}, base); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}
	if err := s.AppendHistory(ctx, tgt.ID, domain.ProbeResult{Reachable: false}, base.Add(time.Minute)); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}

	updated, err := s.UpdateTargetStatus(ctx, tgt.ID, domain.StatusOffline, base.Add(time.Minute))
	if err != nil {
		t.Fatalf("UpdateTargetStatus: %v", err)
	}
	if updated.Status != domain.StatusOffline || updated.LastCheckedAt == nil {
		t.Fatalf("status not persisted: %+v", updated)
	}

	all, _ := s.ListHistory(ctx, tgt.ID, time.Time{})
	if len(all) != 2 || all[0].LatencyMS == nil || *all[0].LatencyMS != 12 || all[1].LatencyMS != nil {
		t.Fatalf("unexpected history: %+v", all)
	}
	recent, _ := s.ListHistory(ctx, tgt.ID, base.Add(30*time.Second))
	if len(recent) != 1 || recent[0].Reachable {
		t.Fatalf("since filter wrong: %+v", recent)
	}
}

func TestMemoryStore_DeleteCascadesAndHonorsProtected(t *testing.T) {
	ctx := context.Background()
	s := New()
	keep := &domain.Target{URL: "https://default.example", Protected: true}
	drop := &domain.Target{URL: "https://drop.example"}
	_ = s.CreateTarget(ctx, keep)
	_ = s.CreateTarget(ctx, drop)
	_ = s.AppendHistory(ctx, drop.ID, domain.ProbeResult{Reachable: true}, time.Now())

	if err := s.DeleteTarget(ctx, keep.ID); !errors.Is(err, repo.ErrProtected) {
		t.Fatalf("want ErrProtected, got %v", err)
	}
	if err := s.DeleteTarget(ctx, drop.ID); err != nil {
		t.Fatalf("DeleteTarget: %v", err)
	}
	if h, _ := s.ListHistory(ctx, drop.ID, time.Time{}); len(h) != 0 {
		t.Fatalf("history should be cascade-deleted, got %d rows", len(h))
	}
	if err := s.DeleteTarget(ctx, drop.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("want ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryStore_RuleSetCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	if rs, err := s.GetNotificationRuleSet(ctx); rs != nil || err != nil {
		t.Fatalf("want nil rule set initially, got %+v %v", rs, err)
	}
	in := domain.NotificationRuleSet{Enabled: true, SelectedTargetIDs: []domain.TargetID{"A"}}
	if err := s.SaveNotificationRuleSet(ctx, in); err != nil {
		t.Fatalf("SaveNotificationRuleSet: %v", err)
	}
	in.SelectedTargetIDs[0] = "B"

	got, _ := s.GetNotificationRuleSet(ctx)
	if got == nil || !got.Enabled || got.SelectedTargetIDs[0] != "A" {
		t.Fatalf("stored rule set should be isolated from caller: %+v", got)
	}
}
