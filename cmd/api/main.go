package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"

	"aegis-secure/internal/api"
	"aegis-secure/internal/api/handlers"
	apimiddleware "aegis-secure/internal/api/middleware"
	"aegis-secure/internal/auth"
	"aegis-secure/internal/config"
	"aegis-secure/internal/domain/services"
	"aegis-secure/internal/grpc/health"
	"aegis-secure/internal/infrastructure/cache"
	"aegis-secure/internal/infrastructure/database"
	"aegis-secure/internal/infrastructure/database/repository"
	"aegis-secure/internal/infrastructure/mailbox"
	"aegis-secure/internal/infrastructure/push"
	"aegis-secure/internal/streaming"
	"aegis-secure/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		TimeFormat: cfg.Logger.TimeFormat,
	})

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting Aegis Secure backend")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize infrastructure
	db, redisCache, err := initInfrastructure(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize infrastructure")
	}
	defer func() {
		db.Close()
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	repos := repository.NewRepositories(db.Pool())

	// Optional dependencies stay untyped nil when absent
	var (
		seenCache   services.SeenCache
		syncLocker  services.SyncLocker
		rateLimiter apimiddleware.RateLimitChecker
	)
	checks := map[string]handlers.Pinger{"postgres": db}
	grpcChecks := map[string]health.Pinger{"postgres": db}
	if redisCache != nil {
		seenCache = redisCache
		syncLocker = redisCache
		rateLimiter = redisCache
		checks["redis"] = redisCache
		grpcChecks["redis"] = redisCache
	}

	// Streaming: local bus, optionally fanned out over NATS JetStream
	var natsPublisher *streaming.NATSPublisher
	if cfg.NATS.Enabled {
		origin := uuid.New().String()
		if host, err := os.Hostname(); err == nil {
			origin = host + "-" + origin[:8]
		}
		natsPublisher, err = streaming.NewNATSPublisher(ctx, cfg.NATS, origin, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing with local events only")
			natsPublisher = nil
		} else {
			defer natsPublisher.Close()
		}
	}
	eventBus := streaming.NewEventBus(natsPublisher, log)
	defer eventBus.Close()
	go eventBus.Run(ctx)
	wsHub := streaming.NewWebSocketHub(eventBus, log)
	log.Info().Bool("nats_enabled", natsPublisher != nil).Msg("event bus initialized")

	// Push transport
	transport, err := push.NewTransport(ctx, cfg.Push, log)
	if err != nil {
		log.Warn().Err(err).Str("provider", cfg.Push.Provider).Msg("push transport unavailable, alerts will be recorded as failed")
	}

	tokens, err := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token service")
	}

	// Initialize services
	classifier := services.NewRiskClassifierClient(cfg.Classifier.URL, cfg.Classifier.Timeout, log)
	dedup := services.NewDeduplicator(seenCache, cfg.Dedup.CacheTTL, log)
	policy := services.NewNotificationPolicy(repos.Profiles, log)
	dispatcher := services.NewPushDispatcher(transport, log)
	notifier := services.NewRiskNotificationService(policy, dispatcher, eventBus, log)
	colors := services.NewSenderColorResolver(repos.SenderColors, log)
	ingestion := services.NewIngestionService(repos.Emails, repos.SMS, dedup, classifier, notifier, colors, log)

	connector := mailbox.NewGmailConnector(cfg.Gmail, log)
	mailboxService := services.NewMailboxService(repos.Accounts, connector, ingestion, cfg.Gmail.FetchMaxResults, cfg.Gmail.LinkMaxResults, log)

	var scheduler *services.MailboxSyncScheduler
	if cfg.Gmail.SyncEnabled {
		scheduler = services.NewMailboxSyncScheduler(mailboxService, syncLocker, cfg.Gmail.SyncSchedule, log)
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.Gmail.SyncSchedule).Msg("failed to start mailbox sync")
		}
	}

	// Initialize handlers
	h := handlers.NewHandlers(handlers.Dependencies{
		Version:    cfg.App.Version,
		Checks:     checks,
		Ingestion:  ingestion,
		Mailbox:    mailboxService,
		History:    services.NewHistoryService(repos.History, dedup, log),
		Aggregator: services.NewRiskBucketAggregator(repos.SMS, repos.Emails),
		Profiles:   services.NewProfileService(repos.Profiles),
		Classifier: classifier,
		Emails:     repos.Emails,
		SMS:        repos.SMS,
		States:     tokens,
		Hub:        wsHub,
		Logger:     log,
	})

	// Create router
	router := api.NewRouter(*cfg, h, tokens, rateLimiter, log)

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Start gRPC health server
	grpcListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gRPC listener")
	}

	grpcServer := grpc.NewServer()
	reporter := health.NewReporter(grpcChecks, 15*time.Second, log)
	reporter.Register(grpcServer)
	go reporter.Run(ctx)

	go func() {
		log.Info().Str("addr", grpcListener.Addr().String()).Msg("starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Fatal().Err(err).Msg("gRPC server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	// Cancel context to stop background services
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	grpcServer.GracefulStop()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
			log.Warn().Msg("mailbox sync still running at shutdown")
		}
	}

	log.Info().Msg("shutdown complete")
}

// initInfrastructure connects to PostgreSQL, applies migrations and, when
// enabled, connects to Redis. Redis is optional; PostgreSQL is not.
func initInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.PostgresDB, *cache.RedisCache, error) {
	if err := database.MigrateUp(cfg.Database.MigrateURL(), log); err != nil {
		return nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if !cfg.Redis.Enabled {
		log.Info().Msg("redis disabled, dedup cache and rate limiting off")
		return db, nil, nil
	}

	redisCache, err := cache.NewRedis(ctx, cfg.Redis, log)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache")
		return db, nil, nil
	}

	return db, redisCache, nil
}
