package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/statuswatch/internal/httpapi/middleware"
	"github.com/hamed0406/statuswatch/internal/notify"
	"github.com/hamed0406/statuswatch/internal/probe"
	"github.com/hamed0406/statuswatch/internal/projects"
	"github.com/hamed0406/statuswatch/internal/repo"
	"github.com/hamed0406/statuswatch/internal/scheduler"
)

type Server struct {
	Logger     *zap.Logger
	Store      repo.Store
	Projects   *projects.Service
	Cycles     *scheduler.Orchestrator
	CronSecret string
	Now        func() time.Time
}

// WriteTimeout is the slowest synchronous trigger: a HEAD and a GET that both
// time out, one DNS diagnostic, then up to two webhook sends (a manual ping
// may report a transition and the ping itself).
func WriteTimeout(probeTimeout, webhookTimeout time.Duration) time.Duration {
	if probeTimeout <= 0 {
		probeTimeout = probe.DefaultTimeout
	}
	if webhookTimeout <= 0 {
		webhookTimeout = notify.DefaultWebhookTimeout
	}
	return 2*probeTimeout + probe.DNSTimeout + 2*webhookTimeout + 5*time.Second
}

func NewServer(l *zap.Logger, store repo.Store, p *projects.Service, o *scheduler.Orchestrator) *Server {
	return &Server{
		Logger:   l,
		Store:    store,
		Projects: p,
		Cycles:   o,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// Router mounts every route. Reads need a public or admin key, mutations
// and probes an admin key, and the cron endpoint its shared secret.
func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, publicRPM, publicBurst, adminRPM, adminBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(corsHandler(allowedOrigins))
	r.Use(s.accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(apimw.RateLimit(publicRPM, publicBurst))
			r.Use(apimw.RequireAny(keys))
			r.Get("/targets", s.handleListTargets)
			r.Get("/targets/{id}/history", s.handleHistory)
			r.Get("/targets/{id}/uptime", s.handleUptime)
		})

		r.Group(func(r chi.Router) {
			r.Use(apimw.RateLimit(adminRPM, adminBurst))
			r.Use(apimw.RequireAdmin(keys))
			r.Post("/targets", s.handleAddTarget)
			r.Put("/targets/{id}", s.handleEditTarget)
			r.Delete("/targets/{id}", s.handleDeleteTarget)
			r.Post("/targets/{id}/pause", s.handleSetEnabled(false))
			r.Post("/targets/{id}/resume", s.handleSetEnabled(true))
			r.Post("/ping", s.handlePing)
			r.Post("/check", s.handleCheck)
			r.Get("/notifications/settings", s.handleGetSettings)
			r.Put("/notifications/settings", s.handlePutSettings)
		})

		r.Group(func(r chi.Router) {
			r.Use(apimw.RateLimit(adminRPM, adminBurst))
			r.Use(apimw.RequireCronSecret(s.CronSecret))
			r.Get("/cron", s.handleCron)
			r.Post("/cron", s.handleCron)
		})
	})

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Cron-Secret"},
		MaxAge:         300,
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.Debug("http_request",
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
