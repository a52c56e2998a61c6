package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hamed0406/statuswatch/internal/domain"
	"github.com/hamed0406/statuswatch/internal/repo"
)

var _ repo.Store = (*Store)(nil)

// Fixed width so TEXT timestamps sort chronologically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS targets (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL DEFAULT '',
	url             TEXT NOT NULL UNIQUE,
	enabled         INTEGER NOT NULL DEFAULT 1,
	protected       INTEGER NOT NULL DEFAULT 0,
	status          TEXT NOT NULL DEFAULT 'unknown',
	last_checked_at TEXT,
	created_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	target_id   TEXT NOT NULL,
	reachable   INTEGER NOT NULL,
	latency_ms  INTEGER,
	recorded_at TEXT NOT NULL,
	FOREIGN KEY(target_id) REFERENCES targets(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_history_target_time ON history (target_id, recorded_at);

CREATE TABLE IF NOT EXISTS notification_settings (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	settings   TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Store implements repo.Store on a local SQLite file.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and applies the schema.
func New(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; concurrent target updates queue on the pool.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// ---- TargetStore ----

const targetCols = `id, name, url, enabled, protected, status, last_checked_at, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTarget(row scanner) (domain.Target, error) {
	var (
		t           domain.Target
		id, status  string
		lastChecked sql.NullString
		createdAt   string
	)
	if err := row.Scan(&id, &t.Name, &t.URL, &t.Enabled, &t.Protected, &status, &lastChecked, &createdAt); err != nil {
		return domain.Target{}, err
	}
	t.ID = domain.TargetID(id)
	t.Status = domain.Status(status)
	ts, err := time.Parse(tsLayout, createdAt)
	if err != nil {
		return domain.Target{}, fmt.Errorf("parse created_at: %w", err)
	}
	t.CreatedAt = ts
	if lastChecked.Valid {
		lc, err := time.Parse(tsLayout, lastChecked.String)
		if err != nil {
			return domain.Target{}, fmt.Errorf("parse last_checked_at: %w", err)
		}
		t.LastCheckedAt = &lc
	}
	return t, nil
}

func (s *Store) CreateTarget(ctx context.Context, t *domain.Target) error {
	if t.ID == "" {
		t.ID = domain.TargetID(uuid.NewString())
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	t.CreatedAt = t.CreatedAt.UTC()
	if t.Status == "" {
		t.Status = domain.StatusUnknown
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO targets (id, name, url, enabled, protected, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(t.ID), t.Name, t.URL, t.Enabled, t.Protected, string(t.Status), t.CreatedAt.Format(tsLayout))
	if err != nil {
		if isUnique(err) {
			return repo.ErrDuplicateURL
		}
		return fmt.Errorf("insert target: %w", err)
	}
	return nil
}

func (s *Store) ListTargets(ctx context.Context) ([]domain.Target, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+targetCols+` FROM targets ORDER BY created_at, id`)
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
	t, err := scanTarget(s.db.QueryRowContext(ctx, `SELECT `+targetCols+` FROM targets WHERE id = ?`, string(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get target: %w", err)
	}
	return &t, nil
}

func (s *Store) UpdateTarget(ctx context.Context, id domain.TargetID, name, url string) (*domain.Target, error) {
	return s.updateOne(ctx, "update target", `UPDATE targets SET name = ?, url = ? WHERE id = ?`, name, url, string(id))
}

func (s *Store) SetEnabled(ctx context.Context, id domain.TargetID, enabled bool) (*domain.Target, error) {
	return s.updateOne(ctx, "set enabled", `UPDATE targets SET enabled = ? WHERE id = ?`, enabled, string(id))
}

func (s *Store) UpdateTargetStatus(ctx context.Context, id domain.TargetID, status domain.Status, at time.Time) (*domain.Target, error) {
	return s.updateOne(ctx, "update status", `UPDATE targets SET status = ?, last_checked_at = ? WHERE id = ?`,
		string(status), at.UTC().Format(tsLayout), string(id))
}

// updateOne runs a single-row update whose last argument is the target id
// and returns the row as stored afterwards.
func (s *Store) updateOne(ctx context.Context, op, query string, args ...any) (*domain.Target, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUnique(err) {
			return nil, repo.ErrDuplicateURL
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, repo.ErrNotFound
	}
	id := domain.TargetID(args[len(args)-1].(string))
	t, err := s.GetTarget(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, repo.ErrNotFound
	}
	return t, nil
}

func (s *Store) DeleteTarget(ctx context.Context, id domain.TargetID) error {
	var protected bool
	err := s.db.QueryRowContext(ctx, `SELECT protected FROM targets WHERE id = ?`, string(id)).Scan(&protected)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repo.ErrNotFound
		}
		return fmt.Errorf("delete target: %w", err)
	}
	if protected {
		return repo.ErrProtected
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM targets WHERE id = ? AND protected = 0`, string(id)); err != nil {
		return fmt.Errorf("delete target: %w", err)
	}
	return nil
}

// ---- HistoryStore ----

func (s *Store) AppendHistory(ctx context.Context, id domain.TargetID, r domain.ProbeResult, at time.Time) error {
	var latency sql.NullInt64
	if r.LatencyMS != nil {
		latency = sql.NullInt64{Int64: int64(*r.LatencyMS), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history (target_id, reachable, latency_ms, recorded_at) VALUES (?, ?, ?, ?)`,
		string(id), r.Reachable, latency, at.UTC().Format(tsLayout))
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (s *Store) ListHistory(ctx context.Context, id domain.TargetID, since time.Time) ([]domain.HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, reachable, latency_ms, recorded_at
		   FROM history
		  WHERE target_id = ? AND recorded_at >= ?
		  ORDER BY recorded_at, id`,
		string(id), since.UTC().Format(tsLayout))
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []domain.HistoryRecord
	for rows.Next() {
		var (
			rec      = domain.HistoryRecord{TargetID: id}
			latency  sql.NullInt64
			recorded string
		)
		if err := rows.Scan(&rec.ID, &rec.Reachable, &latency, &recorded); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if latency.Valid {
			rec.LatencyMS = domain.IntPtr(int(latency.Int64))
		}
		if rec.RecordedAt, err = time.Parse(tsLayout, recorded); err != nil {
			return nil, fmt.Errorf("parse recorded_at: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ---- RuleSetStore ----

func (s *Store) GetNotificationRuleSet(ctx context.Context) (*domain.NotificationRuleSet, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT settings FROM notification_settings WHERE id = 1`).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get notification settings: %w", err)
	}
	var rs domain.NotificationRuleSet
	if err := json.Unmarshal([]byte(raw), &rs); err != nil {
		return nil, fmt.Errorf("decode notification settings: %w", err)
	}
	return &rs, nil
}

func (s *Store) SaveNotificationRuleSet(ctx context.Context, rs domain.NotificationRuleSet) error {
	raw, err := json.Marshal(rs)
	if err != nil {
		return fmt.Errorf("encode notification settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO notification_settings (id, settings, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET settings = excluded.settings, updated_at = excluded.updated_at`,
		string(raw), time.Now().UTC().Format(tsLayout))
	if err != nil {
		return fmt.Errorf("save notification settings: %w", err)
	}
	return nil
}

func isUnique(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
