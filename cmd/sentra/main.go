package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/sentra-vms/sentra/internal/alerts"
	"github.com/sentra-vms/sentra/internal/app"
	"github.com/sentra-vms/sentra/internal/audit"
	"github.com/sentra-vms/sentra/internal/auth"
	"github.com/sentra-vms/sentra/internal/cameras"
	"github.com/sentra-vms/sentra/internal/observability"
	"github.com/sentra-vms/sentra/internal/platform/cache"
	"github.com/sentra-vms/sentra/internal/platform/db"
	"github.com/sentra-vms/sentra/internal/rbac"
	"github.com/sentra-vms/sentra/internal/recordings"
	"github.com/sentra-vms/sentra/internal/shared"
	"github.com/sentra-vms/sentra/internal/stream"
	"github.com/sentra-vms/sentra/internal/users"
	"github.com/sentra-vms/sentra/jobs"
	"github.com/sentra-vms/sentra/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionSecret, cfg.SessionTTL)
	auditLogger := shared.NewAuditLogger(dbpool)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	metrics := observability.NewMetrics()
	hub := stream.NewHub(logger)
	metrics.ObserveStream(hub)

	cameraRepo := cameras.NewRepository(dbpool)
	cameraService := cameras.NewService(cameraRepo, hub, auditLogger, logger)
	cameraHandler := cameras.NewHandler(logger, cameraService)

	streamHandler := stream.NewHandler(logger, hub, cameraService, cfg.IngestMaxFrameSize)
	monitor := stream.NewMonitor(logger, hub, cameraService, cfg.StreamStaleAfter)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, auditLogger, logger)
	usersHandler := users.NewHandler(logger, usersService)

	auditRepo := audit.NewRepository(dbpool)
	auditService := audit.NewService(auditRepo)
	auditHandler := audit.NewHandler(logger, auditService)

	reportClient := report.NewClient(cfg.GotenbergURL)
	reportHandler := report.NewHandler(reportClient, auditService, logger)

	recordingsRepo := recordings.NewRepository(dbpool)
	recordingsService := recordings.NewService(recordingsRepo, auditService, logger)
	recordingsHandler := recordings.NewHandler(logger, recordingsService)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	alertsHandler := alerts.NewHandler(logger, jobClient)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		AuthHandler:       authHandler,
		UsersHandler:      usersHandler,
		CamerasHandler:    cameraHandler,
		StreamHandler:     streamHandler,
		RecordingsHandler: recordingsHandler,
		AuditHandler:      auditHandler,
		AlertsHandler:     alertsHandler,
		ReportHandler:     reportHandler,
		JobHandler:        jobHandler,
		RBACMiddleware:    rbac.Middleware{Logger: logger},
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:        cfg.AppAddr,
		Handler:     router,
		ReadTimeout: cfg.AppReadTimeout,
		// WriteTimeout stays zero: the MJPEG feed holds one response open
		// for as long as the viewer watches. Request timeouts are applied
		// per route in the middleware stack instead.
		WriteTimeout: 0,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		err := monitor.Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("shutdown", slog.Any("error", err))
		os.Exit(1)
	}
}
