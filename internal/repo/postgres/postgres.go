package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/statuswatch/internal/domain"
	"github.com/hamed0406/statuswatch/internal/repo"
)

var _ repo.Store = (*Store)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS targets (
  id              TEXT PRIMARY KEY,
  name            TEXT NOT NULL DEFAULT '',
  url             TEXT NOT NULL UNIQUE,
  enabled         BOOLEAN NOT NULL DEFAULT TRUE,
  protected       BOOLEAN NOT NULL DEFAULT FALSE,
  status          TEXT NOT NULL DEFAULT 'unknown',
  last_checked_at TIMESTAMPTZ NULL,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS history (
  id          BIGSERIAL PRIMARY KEY,
  target_id   TEXT NOT NULL REFERENCES targets(id) ON DELETE CASCADE,
  reachable   BOOLEAN NOT NULL,
  latency_ms  INTEGER NULL,
  recorded_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_target_time ON history (target_id, recorded_at);

CREATE TABLE IF NOT EXISTS notification_settings (
  id         SMALLINT PRIMARY KEY CHECK (id = 1),
  settings   JSONB NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

const uniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// ---- TargetStore ----

const targetCols = `id, name, url, enabled, protected, status, last_checked_at, created_at`

func scanTarget(row pgx.Row) (domain.Target, error) {
	var (
		t      domain.Target
		id     string
		status string
	)
	if err := row.Scan(&id, &t.Name, &t.URL, &t.Enabled, &t.Protected, &status, &t.LastCheckedAt, &t.CreatedAt); err != nil {
		return domain.Target{}, err
	}
	t.ID = domain.TargetID(id)
	t.Status = domain.Status(status)
	return t, nil
}

func (s *Store) CreateTarget(ctx context.Context, t *domain.Target) error {
	if t.ID == "" {
		t.ID = domain.TargetID(uuid.NewString())
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Status == "" {
		t.Status = domain.StatusUnknown
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO targets (id, name, url, enabled, protected, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(t.ID), t.Name, t.URL, t.Enabled, t.Protected, string(t.Status), t.CreatedAt,
	)
	if err != nil {
		if isUnique(err) {
			return repo.ErrDuplicateURL
		}
		return fmt.Errorf("insert target: %w", err)
	}
	return nil
}

func (s *Store) ListTargets(ctx context.Context) ([]domain.Target, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+targetCols+` FROM targets ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	var out []domain.Target
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetTarget(ctx context.Context, id domain.TargetID) (*domain.Target, error) {
	t, err := scanTarget(s.pool.QueryRow(ctx, `SELECT `+targetCols+` FROM targets WHERE id = $1`, string(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get target: %w", err)
	}
	return &t, nil
}

func (s *Store) UpdateTarget(ctx context.Context, id domain.TargetID, name, url string) (*domain.Target, error) {
	t, err := scanTarget(s.pool.QueryRow(ctx,
		`UPDATE targets SET name = $2, url = $3 WHERE id = $1 RETURNING `+targetCols,
		string(id), name, url))
	return s.returning(t, err, "update target")
}

func (s *Store) SetEnabled(ctx context.Context, id domain.TargetID, enabled bool) (*domain.Target, error) {
	t, err := scanTarget(s.pool.QueryRow(ctx,
		`UPDATE targets SET enabled = $2 WHERE id = $1 RETURNING `+targetCols,
		string(id), enabled))
	return s.returning(t, err, "set enabled")
}

func (s *Store) UpdateTargetStatus(ctx context.Context, id domain.TargetID, status domain.Status, at time.Time) (*domain.Target, error) {
	t, err := scanTarget(s.pool.QueryRow(ctx,
		`UPDATE targets SET status = $2, last_checked_at = $3 WHERE id = $1 RETURNING `+targetCols,
		string(id), string(status), at.UTC()))
	return s.returning(t, err, "update status")
}

func (s *Store) returning(t domain.Target, err error, op string) (*domain.Target, error) {
	switch {
	case err == nil:
		return &t, nil
	case errors.Is(err, pgx.ErrNoRows):
		return nil, repo.ErrNotFound
	case isUnique(err):
		return nil, repo.ErrDuplicateURL
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
}

func (s *Store) DeleteTarget(ctx context.Context, id domain.TargetID) error {
	var protected bool
	err := s.pool.QueryRow(ctx, `SELECT protected FROM targets WHERE id = $1`, string(id)).Scan(&protected)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		return fmt.Errorf("delete target: %w", err)
	}
	if protected {
		return repo.ErrProtected
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM targets WHERE id = $1 AND NOT protected`, string(id)); err != nil {
		return fmt.Errorf("delete target: %w", err)
	}
	return nil
}

// ---- HistoryStore ----

func (s *Store) AppendHistory(ctx context.Context, id domain.TargetID, r domain.ProbeResult, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO history (target_id, reachable, latency_ms, recorded_at)
		 VALUES ($1, $2, $3, $4)`,
		string(id), r.Reachable, r.LatencyMS, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (s *Store) ListHistory(ctx context.Context, id domain.TargetID, since time.Time) ([]domain.HistoryRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, reachable, latency_ms, recorded_at
		   FROM history
		  WHERE target_id = $1 AND recorded_at >= $2
		  ORDER BY recorded_at, id`,
		string(id), since.UTC())
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []domain.HistoryRecord
	for rows.Next() {
		rec := domain.HistoryRecord{TargetID: id}
		if err := rows.Scan(&rec.ID, &rec.Reachable, &rec.LatencyMS, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ---- RuleSetStore ----

func (s *Store) GetNotificationRuleSet(ctx context.Context) (*domain.NotificationRuleSet, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT settings FROM notification_settings WHERE id = 1`).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get notification settings: %w", err)
	}
	var rs domain.NotificationRuleSet
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("decode notification settings: %w", err)
	}
	return &rs, nil
}

func (s *Store) SaveNotificationRuleSet(ctx context.Context, rs domain.NotificationRuleSet) error {
	raw, err := json.Marshal(rs)
	if err != nil {
		return fmt.Errorf("encode notification settings: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO notification_settings (id, settings, updated_at)
		 VALUES (1, $1, now())
		 ON CONFLICT (id) DO UPDATE SET settings = EXCLUDED.settings, updated_at = EXCLUDED.updated_at`,
		raw)
	if err != nil {
		return fmt.Errorf("save notification settings: %w", err)
	}
	return nil
}

func isUnique(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
