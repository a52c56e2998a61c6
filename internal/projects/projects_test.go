package projects

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/hamed0406/statuswatch/internal/domain"
	"github.com/hamed0406/statuswatch/internal/notify"
	"github.com/hamed0406/statuswatch/internal/repo"
	"github.com/hamed0406/statuswatch/internal/repo/memory"
)

type recordingNotifier struct {
	actions []domain.Action
	targets []domain.Target
}

func (r *recordingNotifier) Notify(ctx context.Context, rs *domain.NotificationRuleSet, t domain.Target, ec notify.EventContext) bool {
	if le, ok := ec.Event.(domain.LifecycleEvent); ok {
		r.actions = append(r.actions, le.Action)
		r.targets = append(r.targets, t)
	}
	return true
}

func newService() (*Service, *memory.Store, *recordingNotifier) {
	store := memory.New()
	rec := &recordingNotifier{}
	return NewService(store, rec, zap.NewNop()), store, rec
}

func TestRegister_ValidatesBeforeSideEffects(t *testing.T) {
	svc, store, rec := newService()
	ctx := context.Background()

	for _, raw := range []string{"", "ftp://example.com", "example.com", "http://"} {
		if _, err := svc.Register(ctx, RegisterInput{URL: raw}); !errors.Is(err, ErrValidation) {
			t.Fatalf("url %q: want ErrValidation, got %v", raw, err)
		}
	}
	if all, _ := store.ListTargets(ctx); len(all) != 0 {
		t.Fatalf("invalid input must not persist, got %d targets", len(all))
	}
	if len(rec.actions) != 0 {
		t.Fatalf("invalid input must not notify")
	}
}

func TestRegister_NormalizesAndRejectsDuplicates(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	tgt, err := svc.Register(ctx, RegisterInput{Name: "  Site ", URL: "HTTPS://Example.com:443/"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if tgt.URL != "https://example.com" || tgt.Name != "Site" || !tgt.Enabled || tgt.Status != domain.StatusUnknown {
		t.Fatalf("unexpected target: %+v", tgt)
	}
	if _, err := svc.Register(ctx, RegisterInput{URL: "https://example.com/"}); !errors.Is(err, repo.ErrDuplicateURL) {
		t.Fatalf("want ErrDuplicateURL, got %v", err)
	}
}

func TestLifecycle_EmitsActions(t *testing.T) {
	svc, store, rec := newService()
	ctx := context.Background()
	tgt, _ := svc.Register(ctx, RegisterInput{Name: "Site", URL: "https://example.com"})

	if _, err := svc.Edit(ctx, tgt.ID, "Renamed", "https://example.org"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if _, err := svc.SetEnabled(ctx, tgt.ID, false); err != nil {
		t.Fatalf("pause: %v", err)
	}
	// Pausing twice is a no-op.
	if _, err := svc.SetEnabled(ctx, tgt.ID, false); err != nil {
		t.Fatalf("pause again: %v", err)
	}
	if _, err := svc.SetEnabled(ctx, tgt.ID, true); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if err := svc.Delete(ctx, tgt.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	want := []domain.Action{domain.ActionEdit, domain.ActionPause, domain.ActionResume, domain.ActionDelete}
	if len(rec.actions) != len(want) {
		t.Fatalf("want actions %v, got %v", want, rec.actions)
	}
	for i := range want {
		if rec.actions[i] != want[i] {
			t.Fatalf("want actions %v, got %v", want, rec.actions)
		}
	}
	if last := rec.targets[len(rec.targets)-1]; last.Name != "Renamed" {
		t.Fatalf("delete notification should carry the removed target, got %+v", last)
	}
	if got, _ := store.GetTarget(ctx, tgt.ID); got != nil {
		t.Fatalf("target should be gone")
	}
}

func TestLifecycle_Errors(t *testing.T) {
	svc, store, rec := newService()
	ctx := context.Background()

	if _, err := svc.Edit(ctx, "missing", "x", "https://x.example"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := svc.Edit(ctx, "missing", "x", "nope"); !errors.Is(err, ErrValidation) {
		t.Fatalf("validation should win over lookup, got %v", err)
	}
	if _, err := svc.SetEnabled(ctx, "missing", true); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, "missing"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	protected := &domain.Target{URL: "https://default.example", Enabled: true, Protected: true}
	_ = store.CreateTarget(ctx, protected)
	if err := svc.Delete(ctx, protected.ID); !errors.Is(err, repo.ErrProtected) {
		t.Fatalf("want ErrProtected, got %v", err)
	}
	if len(rec.actions) != 0 {
		t.Fatalf("failed operations must not notify, got %v", rec.actions)
	}
}
