package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/statuswatch/internal/domain"
	"github.com/hamed0406/statuswatch/internal/repo"
)

var _ repo.Store = (*Store)(nil)

type Store struct {
	mu      sync.RWMutex
	targets map[domain.TargetID]*domain.Target
	history map[domain.TargetID][]domain.HistoryRecord
	rules   *domain.NotificationRuleSet
	nextID  int64
}

func New() *Store {
	return &Store{
		targets: make(map[domain.TargetID]*domain.Target),
		history: make(map[domain.TargetID][]domain.HistoryRecord),
	}
}

func (m *Store) Close() error { return nil }

// ---- TargetStore ----

func (m *Store) CreateTarget(ctx context.Context, t *domain.Target) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.targets {
		if cur.URL == t.URL {
			return repo.ErrDuplicateURL
		}
	}
	if t.ID == "" {
		t.ID = domain.TargetID(uuid.NewString())
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Status == "" {
		t.Status = domain.StatusUnknown
	}
	cp := *t
	m.targets[t.ID] = &cp
	return nil
}

func (m *Store) ListTargets(ctx context.Context) ([]domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Target, 0, len(m.targets))
	for _, t := range m.targets {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Store) GetTarget(ctx context.Context, id domain.TargetID) (*domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.targets[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *Store) UpdateTarget(ctx context.Context, id domain.TargetID, name, url string) (*domain.Target, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.targets[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	for oid, cur := range m.targets {
		if oid != id && cur.URL == url {
			return nil, repo.ErrDuplicateURL
		}
	}
	t.Name = name
	t.URL = url
	cp := *t
	return &cp, nil
}

func (m *Store) SetEnabled(ctx context.Context, id domain.TargetID, enabled bool) (*domain.Target, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.targets[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	t.Enabled = enabled
	cp := *t
	return &cp, nil
}

func (m *Store) DeleteTarget(ctx context.Context, id domain.TargetID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.targets[id]
	if !ok {
		return repo.ErrNotFound
	}
	if t.Protected {
		return repo.ErrProtected
	}
	delete(m.targets, id)
	delete(m.history, id)
	return nil
}

func (m *Store) UpdateTargetStatus(ctx context.Context, id domain.TargetID, status domain.Status, at time.Time) (*domain.Target, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.targets[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	ts := at.UTC()
	t.Status = status
	t.LastCheckedAt = &ts
	cp := *t
	return &cp, nil
}

// ---- HistoryStore ----

func (m *Store) AppendHistory(ctx context.Context, id domain.TargetID, r domain.ProbeResult, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.targets[id]; !ok {
		return repo.ErrNotFound
	}
	m.nextID++
	rec := domain.HistoryRecord{
		ID:         m.nextID,
		TargetID:   id,
		Reachable:  r.Reachable,
		RecordedAt: at.UTC(),
	}
	if r.LatencyMS != nil {
		rec.LatencyMS = domain.IntPtr(*r.LatencyMS)
	}
	m.history[id] = append(m.history[id], rec)
	return nil
}

func (m *Store) ListHistory(ctx context.Context, id domain.TargetID, since time.Time) ([]domain.HistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.history[id]
	out := make([]domain.HistoryRecord, 0, len(src))
	for _, r := range src {
		if !since.IsZero() && r.RecordedAt.Before(since) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}

// ---- RuleSetStore ----

func (m *Store) GetNotificationRuleSet(ctx context.Context) (*domain.NotificationRuleSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.rules == nil {
		return nil, nil
	}
	cp := cloneRuleSet(*m.rules)
	return &cp, nil
}

func (m *Store) SaveNotificationRuleSet(ctx context.Context, rs domain.NotificationRuleSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := cloneRuleSet(rs)
	m.rules = &cp
	return nil
}

func cloneRuleSet(rs domain.NotificationRuleSet) domain.NotificationRuleSet {
	rs.SelectedTargetIDs = append([]domain.TargetID(nil), rs.SelectedTargetIDs...)
	rs.Template.MentionRoles = append([]string(nil), rs.Template.MentionRoles...)
	rs.Template.MentionUsers = append([]string(nil), rs.Template.MentionUsers...)
	return rs
}
