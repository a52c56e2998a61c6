package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hamed0406/statuswatch/internal/bus"
	"github.com/hamed0406/statuswatch/internal/config"
	"github.com/hamed0406/statuswatch/internal/httpapi"
	apimw "github.com/hamed0406/statuswatch/internal/httpapi/middleware"
	"github.com/hamed0406/statuswatch/internal/logging"
	"github.com/hamed0406/statuswatch/internal/notify"
	"github.com/hamed0406/statuswatch/internal/probe"
	"github.com/hamed0406/statuswatch/internal/projects"
	"github.com/hamed0406/statuswatch/internal/repo"
	"github.com/hamed0406/statuswatch/internal/repo/memory"
	"github.com/hamed0406/statuswatch/internal/repo/postgres"
	"github.com/hamed0406/statuswatch/internal/repo/sqlite"
	"github.com/hamed0406/statuswatch/internal/scheduler"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel, cfg.LogStdout)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store_open_error", zap.Error(err))
	}
	defer store.Close()

	executor := probe.NewExecutor()
	if cfg.DNSDiagnostics {
		executor.WithDNSDiagnostics()
	}
	notifier := notify.NewService(notify.NewWebhook(cfg.WebhookTimeout, logger), logger)

	orch := scheduler.NewOrchestrator(store, executor, notifier, logger)
	orch.ProbeTimeout = cfg.ProbeTimeout
	orch.DashboardBaseURL = cfg.DashboardBaseURL

	if cfg.NATSURL != "" {
		pub, err := bus.NewPublisher(cfg.NATSURL)
		if err != nil {
			logger.Warn("nats_connect_error", zap.String("url", cfg.NATSURL), zap.Error(err))
		} else {
			defer pub.Close()
			orch.Publisher = pub
			logger.Info("nats_connected", zap.String("subject", pub.Subject))
		}
	}

	svc := projects.NewService(store, notifier, logger)
	svc.DashboardBaseURL = cfg.DashboardBaseURL
	seed(ctx, svc, cfg.SeedTargetURL, logger)

	if cfg.CronSpec != "" {
		ct, err := scheduler.NewCronTrigger(cfg.CronSpec, orch, logger, scheduler.WithProbeTimeout(cfg.ProbeTimeout))
		if err != nil {
			logger.Fatal("cron_spec_error", zap.Error(err))
		}
		ct.Start()
		defer func() { <-ct.Stop().Done() }()
	}

	ka := scheduler.NewKeepAlive(logger, orch, cfg.KeepAliveInterval, cfg.BackgroundTimeout, cfg.Stagger)
	go ka.Run(ctx)

	api := httpapi.NewServer(logger, store, svc, orch)
	api.CronSecret = cfg.CronSecret
	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(keys, cfg.AllowedOrigins, cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      httpapi.WriteTimeout(cfg.ProbeTimeout, cfg.WebhookTimeout),
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("api_listen_error", zap.Error(err))
	}
	logger.Info("api_stopped")
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.Store, error) {
	switch {
	case cfg.DatabaseURL != "":
		logger.Info("store_selected", zap.String("kind", "postgres"))
		s, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case cfg.SQLitePath != "":
		logger.Info("store_selected", zap.String("kind", "sqlite"), zap.String("path", cfg.SQLitePath))
		s, err := sqlite.New(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		logger.Warn("store_selected", zap.String("kind", "memory"))
		return memory.New(), nil
	}
}

func seed(ctx context.Context, svc *projects.Service, url string, logger *zap.Logger) {
	if url == "" {
		return
	}
	t, err := svc.Register(ctx, projects.RegisterInput{Name: "default", URL: url, Protected: true})
	switch {
	case errors.Is(err, repo.ErrDuplicateURL):
		return
	case err != nil:
		logger.Warn("seed_target_error", zap.String("url", url), zap.Error(err))
	default:
		logger.Info("seed_target_registered", zap.String("target_id", string(t.ID)))
	}
}
