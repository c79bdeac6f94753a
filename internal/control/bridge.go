// Package control wires the bridge's components together and owns their
// lifecycle.
package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/vietddude/crmbridge/internal/bridge/health"
	"github.com/vietddude/crmbridge/internal/bridge/metrics"
	"github.com/vietddude/crmbridge/internal/bridge/tools"
	"github.com/vietddude/crmbridge/internal/core/config"
	"github.com/vietddude/crmbridge/internal/core/worker"
	"github.com/vietddude/crmbridge/internal/crm/attio"
	redisclient "github.com/vietddude/crmbridge/internal/infra/redis"
	"github.com/vietddude/crmbridge/internal/infra/remote/batch"
	"github.com/vietddude/crmbridge/internal/infra/remote/budget"
	"github.com/vietddude/crmbridge/internal/infra/remote/provider"
	"github.com/vietddude/crmbridge/internal/infra/remote/resilience"
	"github.com/vietddude/crmbridge/internal/infra/storage"
	"github.com/vietddude/crmbridge/internal/infra/storage/memory"
	"github.com/vietddude/crmbridge/internal/infra/storage/postgres"
)

// Bridge is the main application struct that manages component lifecycle.
type Bridge struct {
	cfg          *config.AppConfig
	client       *attio.Client
	toolsServer  *tools.Server
	healthServer *health.Server
	healthMon    *health.Monitor
	audit        storage.AuditRepository
	pruner       *worker.Pruner
	db           *postgres.DB
	redisClient  *redisclient.Client
	log          *slog.Logger
}

// NewBridge creates a Bridge with all dependencies initialized.
func NewBridge(cfg *config.AppConfig, log *slog.Logger) (*Bridge, error) {
	// 1. Initialize Storage
	var audit storage.AuditRepository
	var db *postgres.DB

	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}

		// Run migrations
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}

		audit = postgres.NewAuditRepo(db)
		log.Info("Using PostgreSQL audit store")
	} else {
		audit = memory.NewAuditStore()
		log.Info("Using in-memory audit store")
	}

	// 2. Initialize the resilient remote stack
	p := provider.NewHTTPProvider("attio", cfg.Attio.BaseURL, cfg.Attio.APIKey, cfg.Attio.Timeout)

	breaker := resilience.NewBreaker("attio", resilience.BreakerConfig{
		FailureThreshold: cfg.Attio.Breaker.FailureThreshold,
		ResetTimeout:     cfg.Attio.Breaker.ResetTimeout,
	})
	breaker.OnTransition(func(name string, state resilience.BreakerState) {
		metrics.BreakerTransitionsTotal.WithLabelValues(name, state.String()).Inc()
		log.Warn("breaker transition", "name", name, "state", state.String())
	})

	tracker := budget.NewTracker(cfg.Attio.DailyQuota)

	policy := resilience.RetryPolicy{
		MaxRetries: cfg.Attio.Retry.MaxRetries,
		BaseDelay:  cfg.Attio.Retry.BaseDelay,
		MaxDelay:   cfg.Attio.Retry.MaxDelay,
	}

	client := attio.NewClient(p, breaker, tracker, policy, log)

	// 3. Schema source: live client, optionally fronted by Redis
	var schemas attio.SchemaSource = client
	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			log.Warn("Failed to connect to Redis, schema cache disabled", "error", err)
		} else {
			schemas = redisclient.NewSchemaCache(redisClient, client, cfg.Redis.SchemaTTL, log)
			log.Info("Schema cache enabled", "ttl", cfg.Redis.SchemaTTL)
		}
	}

	// 4. Tool surface
	registry := tools.NewRegistry()
	handlers := tools.NewHandlers(client, schemas, audit, batch.Options{
		MaxConcurrent: cfg.Attio.BatchMaxConcurrent,
	}, log)
	handlers.RegisterAll(registry)
	toolsServer := tools.NewServer(registry, cfg.Server.Port, log)

	// 5. Health and metrics
	var cachePinger health.Pinger
	if redisClient != nil {
		cachePinger = redisClient
	}
	healthMon := health.NewMonitor(breaker, tracker, p, audit, cachePinger)
	healthServer := health.NewServer(healthMon, cfg.Server.HealthPort)

	// 6. Audit retention
	pruner := worker.NewPruner(cfg.Audit.RetentionPeriod, audit, log)

	return &Bridge{
		cfg:          cfg,
		client:       client,
		toolsServer:  toolsServer,
		healthServer: healthServer,
		healthMon:    healthMon,
		audit:        audit,
		pruner:       pruner,
		db:           db,
		redisClient:  redisClient,
		log:          log,
	}, nil
}

// Start starts the bridge and all its components.
func (b *Bridge) Start(ctx context.Context) error {
	go func() {
		b.log.Info("Tool server listening", "port", b.cfg.Server.Port)
		if err := b.toolsServer.Start(); err != nil {
			b.log.Error("Tool server failed", "error", err)
		}
	}()

	go func() {
		b.log.Info("Health server listening", "port", b.cfg.Server.HealthPort)
		if err := b.healthServer.Start(); err != nil {
			b.log.Error("Health server failed", "error", err)
		}
	}()

	go b.pruner.Start(ctx)

	return nil
}

// Stop stops the bridge gracefully.
func (b *Bridge) Stop(ctx context.Context) error {
	b.log.Info("Stopping bridge...")

	if err := b.toolsServer.Stop(ctx); err != nil {
		b.log.Warn("Failed to stop tool server", "error", err)
	}

	if b.redisClient != nil {
		if err := b.redisClient.Close(); err != nil {
			b.log.Warn("Failed to close Redis", "error", err)
		}
	}

	if err := b.client.Provider().Close(); err != nil {
		b.log.Warn("Failed to close provider", "error", err)
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			b.log.Warn("Failed to close database", "error", err)
		}
	}

	return b.healthServer.Stop(ctx)
}
