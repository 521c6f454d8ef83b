package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/forceweaver/orghealth/internal/api"
	"github.com/forceweaver/orghealth/internal/api/handlers"
	"github.com/forceweaver/orghealth/internal/auth"
	"github.com/forceweaver/orghealth/internal/checks"
	"github.com/forceweaver/orghealth/internal/config"
	"github.com/forceweaver/orghealth/internal/connection"
	"github.com/forceweaver/orghealth/internal/db"
	"github.com/forceweaver/orghealth/internal/health"
	"github.com/forceweaver/orghealth/internal/metrics"
	"github.com/forceweaver/orghealth/internal/secrets"
	"github.com/forceweaver/orghealth/internal/storage/redis"
	"github.com/forceweaver/orghealth/internal/usage"
	"github.com/forceweaver/orghealth/internal/version"
	"github.com/forceweaver/orghealth/pkg/salesforce"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	var logger *zap.Logger
	if cfg.Server.Mode == "release" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatal("Failed to init logger:", err)
	}
	defer logger.Sync()

	// Database
	database, err := db.NewConnection(cfg.Database.URL, cfg.Database.MaxConnections, cfg.Database.MaxIdleConns)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	repo := db.NewRepository(database)

	// Redis (optional: progress tracking degrades gracefully without it)
	var cache *redis.Client
	if cfg.Redis.URL != "" {
		cache, err = redis.NewClient(cfg.Redis.URL)
		if err != nil {
			logger.Warn("Redis unavailable, progress tracking disabled", zap.Error(err))
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	// Secret codec for refresh tokens at rest
	codec, err := secrets.NewCodec(cfg.Auth.EncryptionKey)
	if err != nil {
		logger.Fatal("Failed to init secret codec", zap.Error(err))
	}

	// Salesforce client
	sfClient := salesforce.NewClient(salesforce.Config{
		ClientID:        cfg.Salesforce.ClientID,
		ClientSecret:    cfg.Salesforce.ClientSecret,
		TokenURL:        cfg.Salesforce.TokenURL,
		SandboxTokenURL: cfg.Salesforce.SandboxTokenURL,
		Timeout:         cfg.Salesforce.RequestTimeout,
	})

	collector := metrics.NewCollector()

	manager := connection.NewManager(codec, sfClient, repo, logger, cfg.Checks.MaxRetries)
	negotiator := version.NewNegotiator(sfClient, repo, logger)

	var progress health.ProgressSink
	if cache != nil {
		progress = health.NewCacheProgress(cache)
	}

	registry := checks.DefaultRegistry(sfClient)
	orchestrator := health.NewOrchestrator(registry, logger, collector, progress, cfg.Checks.Concurrency)

	usageSvc := usage.NewService(repo, logger)
	authenticator := auth.NewAuthenticator(repo, logger, collector)

	handler := handlers.NewHandler(
		repo, cfg, codec, manager, negotiator, orchestrator,
		usageSvc, cache, collector, logger,
	)
	server := api.NewServer(cfg, handler, authenticator, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server.Router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("API server started", zap.String("port", cfg.Server.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
