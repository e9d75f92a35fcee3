package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/health-analytics-server/internal/api"
	"github.com/health-analytics-server/internal/config"
	"github.com/health-analytics-server/internal/database"
	"github.com/health-analytics-server/internal/domain"
	"github.com/health-analytics-server/internal/explain"
	"github.com/health-analytics-server/internal/history"
	"github.com/health-analytics-server/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation failed: %v\n", err)
		os.Exit(1)
	}

	cfg := configManager.GetConfig()
	logger := config.NewLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, configManager, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
	logger.Info("Server stopped")
}

func run(ctx context.Context, configManager domain.ConfigManager, logger *logrus.Logger) error {
	cfg := configManager.GetConfig()
	checks := map[string]api.HealthChecker{}

	store, closeStore, err := openHistory(ctx, configManager, logger, checks)
	if err != nil {
		return err
	}
	defer closeStore()

	explainer, closeCache, err := newExplainer(cfg, logger, checks)
	if err != nil {
		return err
	}
	defer closeCache()

	guard := explain.NewGuard(explainer, cfg.AI.Timeout, logger)
	svc := service.NewAnalyticsService(logger, guard, store)

	server := api.NewServer(cfg, svc, logger)
	for name, check := range checks {
		server.AddHealthCheck(name, check)
	}

	logger.WithFields(logrus.Fields{
		"host":            cfg.Server.Host,
		"port":            cfg.Server.Port,
		"history_backend": cfg.History.Backend,
		"production":      configManager.IsProduction(),
		"ai_enabled":      explainer != nil,
	}).Info("Starting health analytics server")

	return server.Start(ctx)
}

// openHistory builds the configured history backend. Postgres schemas are
// migrated before the store is opened.
func openHistory(ctx context.Context, configManager domain.ConfigManager, logger *logrus.Logger, checks map[string]api.HealthChecker) (history.Store, func(), error) {
	cfg := configManager.GetConfig()

	switch strings.ToLower(cfg.History.Backend) {
	case "memory":
		store := history.NewMemoryStore(cfg.History.MaxRecords)
		return store, func() { store.Close() }, nil

	case "postgres":
		migrations, err := database.NewMigrationRunner(configManager.GetDatabaseURL(), logger)
		if err != nil {
			return nil, nil, err
		}
		err = migrations.Up()
		migrations.Close()
		if err != nil {
			return nil, nil, err
		}

		db, err := database.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		store, err := history.NewPostgresStore(ctx, db.SQL())
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		checks["database"] = db.Health
		return store, func() {
			store.Close()
			db.Close()
		}, nil

	default:
		path := cfg.History.SQLitePath
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create history directory: %w", err)
		}
		store, err := history.NewSQLiteStore(path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
}

// newExplainer returns nil when AI explanations are disabled, in which case
// every explanation is the deterministic fallback.
func newExplainer(cfg *domain.Config, logger *logrus.Logger, checks map[string]api.HealthChecker) (explain.Explainer, func(), error) {
	noop := func() {}
	if !cfg.AI.Enabled || cfg.AI.APIKey == "" {
		return nil, noop, nil
	}

	anthropic, err := explain.NewAnthropicExplainer(cfg.AI, logger)
	if err != nil {
		return nil, noop, err
	}

	if cfg.Cache.RedisURL != "" {
		cache, err := explain.NewRedisCache(cfg.Cache)
		if err != nil {
			return nil, noop, err
		}
		checks["cache"] = cache.Ping
		return explain.NewCachedExplainer(anthropic, cache, logger), func() { cache.Close() }, nil
	}

	cache, err := explain.NewMemoryCache(cfg.Cache.MaxEntries, cfg.Cache.DefaultTTL)
	if err != nil {
		return nil, noop, err
	}
	return explain.NewCachedExplainer(anthropic, cache, logger), noop, nil
}
