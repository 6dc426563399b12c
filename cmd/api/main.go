package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/realtime"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/repository/memstore"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/storage"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	deps := map[string]handlers.Pinger{}
	var repos *repository.Repositories
	if cfg.Postgres.DSN != "" {
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		repos = repository.NewPostgresRepositories(pg.PoolHandle())
		deps["postgres"] = pg
		metrics.ObservePool(pg.PoolStats)
	} else {
		logger.Warn("POSTGRES_DSN not set; using the in-memory store, data is lost on restart")
		repos = memstore.New().Repositories()
	}

	var publisher realtime.Publisher = realtime.NopPublisher{}
	if cfg.Redis.Addr != "" {
		rdb := persistence.NewRedis(ctx, cfg.Redis, cfg.App.Name, logger)
		defer rdb.Close()
		publisher = realtime.NewRedisPublisher(rdb.Client, cfg.Redis.ChannelPrefix)
	}

	outbox := events.NewOutbox(events.Options{
		Workers:        cfg.Outbox.Workers,
		QueueSize:      cfg.Outbox.QueueSize,
		HandlerTimeout: cfg.Outbox.HandlerTimeout(),
	}, logger, metrics)
	sideEffects := worker.StartSideEffectWorker(outbox, service.NewSideEffects(repos, publisher, logger), logger)

	files, err := storage.NewFileStore(cfg.Storage.Dir, cfg.Storage.MaxUploadBytes)
	if err != nil {
		logger.Fatal("failed to open attachment store", zap.Error(err))
	}

	tokens, err := auth.NewTokenManager(cfg.Auth, logger)
	if err != nil {
		logger.Fatal("failed to init token manager", zap.Error(err))
	}

	itemDeps := service.ItemDependencies{Repos: repos, Dispatcher: outbox}
	incidentService := service.NewIncidentService(itemDeps)
	requirementService := service.NewRequirementService(itemDeps)
	attachmentService := service.NewAttachmentService(repos, files, outbox, logger)
	activityService := service.NewActivityService(repos.Activity)
	authService := service.NewAuthService(cfg.Auth, repos, tokens, logger)

	if err := authService.EnsureBootstrapAdmin(ctx, cfg.Auth.BootstrapAdminEmail, cfg.Auth.BootstrapAdminPassword); err != nil {
		logger.Fatal("failed to create bootstrap admin", zap.Error(err))
	}

	app := httptransport.NewServer(httptransport.ServerConfig{
		AppName:        cfg.App.Name,
		RequestTimeout: cfg.App.RequestTimeout(),
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		CORSOrigins:    cfg.App.CORSOrigins,
	}, httptransport.RouteConfig{
		Health:        handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Incidents:     handlers.NewIncidentsHandler(incidentService, attachmentService, activityService),
		Requirements:  handlers.NewRequirementsHandler(requirementService, attachmentService, activityService),
		Users:         handlers.NewUsersHandler(service.NewUserService(repos)),
		Catalog:       handlers.NewCatalogHandler(service.NewCatalogService(repos)),
		Notifications: handlers.NewNotificationsHandler(service.NewNotificationService(repos.Notifications)),
		Auth:          handlers.NewAuthHandler(authService),
		Files:         handlers.NewFilesHandler(attachmentService, activityService),
		Resolver:      auth.NewResolver(tokens, repos.Users),
		RateLimit:     cfg.RateLimit,
	}, logger, metrics)

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	sideEffects.Stop(cfg.Outbox.HandlerTimeout() + 5*time.Second)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
