package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hamed0406/statuswatch/internal/domain"
	apimw "github.com/hamed0406/statuswatch/internal/httpapi/middleware"
	"github.com/hamed0406/statuswatch/internal/projects"
	"github.com/hamed0406/statuswatch/internal/repo"
	"github.com/hamed0406/statuswatch/internal/scheduler"
	"github.com/hamed0406/statuswatch/internal/urlutil"
)

const (
	defaultWindowHours = 24
	maxWindowHours     = 24 * 90
	maxBodyBytes       = 1 << 20
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps domain errors onto HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, projects.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repo.ErrNotFound):
		writeError(w, http.StatusNotFound, "target not found")
	case errors.Is(err, repo.ErrProtected):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, repo.ErrDuplicateURL):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, scheduler.ErrTargetDisabled):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.Logger.Error("http_internal_error",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return false
	}
	return true
}

func targetID(r *http.Request) domain.TargetID {
	return domain.TargetID(chi.URLParam(r, "id"))
}

// ---- targets ----

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	ts, err := s.Store.ListTargets(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ts == nil {
		ts = []domain.Target{}
	}
	writeJSON(w, http.StatusOK, ts)
}

// handleAddTarget registers the target and runs one silent ping so the
// caller gets an immediate status.
func (s *Server) handleAddTarget(w http.ResponseWriter, r *http.Request) {
	var in projects.RegisterInput
	if !decode(w, r, &in) {
		return
	}
	t, err := s.Projects.Register(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out, err := s.Cycles.Ping(r.Context(), scheduler.ManualPingRequest{TargetID: t.ID, IsManual: true, Silent: true})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if fresh, err := s.Store.GetTarget(r.Context(), t.ID); err == nil && fresh != nil {
		t = fresh
	}

	s.Logger.Info("added_target",
		zap.String("url", t.URL),
		zap.String("role", string(apimw.RoleFrom(r.Context()))),
		zap.Bool("ok", out.OK),
		zap.String("status", string(out.Status)),
	)
	writeJSON(w, http.StatusCreated, map[string]any{"target": t, "summary": out})
}

type editPayload struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (s *Server) handleEditTarget(w http.ResponseWriter, r *http.Request) {
	var p editPayload
	if !decode(w, r, &p) {
		return
	}
	t, err := s.Projects.Edit(r.Context(), targetID(r), p.Name, p.URL)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTarget(w http.ResponseWriter, r *http.Request) {
	if err := s.Projects.Delete(r.Context(), targetID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetEnabled(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := s.Projects.SetEnabled(r.Context(), targetID(r), enabled)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// ---- history & uptime ----

// window reads ?since=RFC3339 or ?hours=N; hours wins over the default.
func (s *Server) window(r *http.Request) (time.Time, int, bool) {
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("since")); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, 0, false
		}
		return since, 0, true
	}
	hours := defaultWindowHours
	if raw := strings.TrimSpace(q.Get("hours")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxWindowHours {
			return time.Time{}, 0, false
		}
		hours = n
	}
	return s.Now().Add(-time.Duration(hours) * time.Hour), hours, true
}

func (s *Server) loadHistory(w http.ResponseWriter, r *http.Request) ([]domain.HistoryRecord, int, bool) {
	id := targetID(r)
	t, err := s.Store.GetTarget(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return nil, 0, false
	}
	if t == nil {
		s.fail(w, r, repo.ErrNotFound)
		return nil, 0, false
	}
	since, hours, ok := s.window(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid window: use since=RFC3339 or hours=1..2160")
		return nil, 0, false
	}
	recs, err := s.Store.ListHistory(r.Context(), id, since)
	if err != nil {
		s.fail(w, r, err)
		return nil, 0, false
	}
	if recs == nil {
		recs = []domain.HistoryRecord{}
	}
	return recs, hours, true
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	recs, _, ok := s.loadHistory(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

type uptimeResponse struct {
	TargetID      domain.TargetID `json:"target_id"`
	WindowHours   int             `json:"window_hours,omitempty"`
	Samples       int             `json:"samples"`
	UptimePercent *float64        `json:"uptime_percent"`
	LastFailureAt *time.Time      `json:"last_failure_at,omitempty"`
}

func (s *Server) handleUptime(w http.ResponseWriter, r *http.Request) {
	recs, hours, ok := s.loadHistory(w, r)
	if !ok {
		return
	}
	resp := uptimeResponse{TargetID: targetID(r), WindowHours: hours, Samples: len(recs)}
	if pct, ok := domain.Uptime(recs); ok {
		resp.UptimePercent = &pct
	}
	if last, ok := domain.LastFailure(recs); ok {
		at := last.RecordedAt
		resp.LastFailureAt = &at
	}
	writeJSON(w, http.StatusOK, resp)
}

// ---- triggers ----

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	var req scheduler.ManualPingRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(string(req.TargetID)) == "" {
		writeError(w, http.StatusBadRequest, "targetId is required")
		return
	}
	out, err := s.Cycles.Ping(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCheck runs a diagnostic cycle that neither persists nor notifies.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	s.runCycle(w, r, domain.Direct{})
}

func (s *Server) handleCron(w http.ResponseWriter, r *http.Request) {
	s.runCycle(w, r, domain.External{})
}

func (s *Server) runCycle(w http.ResponseWriter, r *http.Request, mode domain.TriggerMode) {
	report, err := s.Cycles.RunCycle(r.Context(), mode)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ---- notification settings ----

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	rs, err := s.Store.GetNotificationRuleSet(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if rs == nil {
		rs = &domain.NotificationRuleSet{Frequency: domain.FrequencyAll, SelectedTargetIDs: []domain.TargetID{}}
	}
	writeJSON(w, http.StatusOK, rs)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var rs domain.NotificationRuleSet
	if !decode(w, r, &rs) {
		return
	}
	if rs.Frequency == "" {
		rs.Frequency = domain.FrequencyAll
	}
	if !rs.Frequency.Valid() {
		writeError(w, http.StatusBadRequest, "frequency must be all, statusChangeOnly or downtimeOnly")
		return
	}
	rs.SinkURL = strings.TrimSpace(rs.SinkURL)
	if rs.Enabled && !urlutil.IsHTTPURL(rs.SinkURL) {
		writeError(w, http.StatusBadRequest, "sink_url must be an absolute http(s) URL when notifications are enabled")
		return
	}
	if rs.SelectedTargetIDs == nil {
		rs.SelectedTargetIDs = []domain.TargetID{}
	}
	if err := s.Store.SaveNotificationRuleSet(r.Context(), rs); err != nil {
		s.fail(w, r, err)
		return
	}
	s.Logger.Info("notification_settings_saved",
		zap.Bool("enabled", rs.Enabled),
		zap.String("frequency", string(rs.Frequency)),
		zap.Int("selected", len(rs.SelectedTargetIDs)),
	)
	writeJSON(w, http.StatusOK, rs)
}
