package domain

import "time"

type TargetID string

// Status is derived from probe results; only the status engine mutates it.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
	StatusUnknown Status = "unknown"
)

// StatusFor maps a completed probe to a concrete status. It never yields unknown.
func StatusFor(reachable bool) Status {
	if reachable {
		return StatusOnline
	}
	return StatusOffline
}

func (s Status) Valid() bool {
	switch s {
	case StatusOnline, StatusOffline, StatusUnknown:
		return true
	}
	return false
}

type Target struct {
	ID            TargetID   `json:"id"`
	Name          string     `json:"name"`
	URL           string     `json:"url"`
	Enabled       bool       `json:"enabled"`
	Protected     bool       `json:"protected"`
	Status        Status     `json:"status"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// DisplayName falls back to the URL for unnamed targets.
func (t Target) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.URL
}

// ProbeResult is the ephemeral outcome of one probe. LatencyMS is nil when
// the probe failed before a response arrived.
type ProbeResult struct {
	Reachable    bool   `json:"reachable"`
	LatencyMS    *int   `json:"latency_ms,omitempty"`
	StatusCode   int    `json:"status_code,omitempty"`
	ErrorMessage string `json:"error,omitempty"`
}

// HistoryRecord is append-only; it is removed only with its target.
type HistoryRecord struct {
	ID         int64     `json:"id"`
	TargetID   TargetID  `json:"target_id"`
	Reachable  bool      `json:"reachable"`
	LatencyMS  *int      `json:"latency_ms,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// IntPtr is a small helper for optional latency values.
func IntPtr(v int) *int { return &v }
