package app

import (
	"context"
	"fmt"
	"time"

	"github.com/leozw/vitals-guardian/internal/alerts"
	"github.com/leozw/vitals-guardian/internal/batch"
	"github.com/leozw/vitals-guardian/internal/config"
	"github.com/leozw/vitals-guardian/internal/core"
	"github.com/leozw/vitals-guardian/internal/groups"
	"github.com/leozw/vitals-guardian/internal/metrics"
	"github.com/leozw/vitals-guardian/internal/pagespeed"
	"github.com/leozw/vitals-guardian/internal/scheduler"
	"github.com/leozw/vitals-guardian/internal/storage"
	"github.com/leozw/vitals-guardian/internal/storage/redis"
	"github.com/leozw/vitals-guardian/internal/storage/sqlstore"
	"github.com/leozw/vitals-guardian/internal/targets"
	"go.uber.org/zap"
)

// App holds the components shared by every binary.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Store      *storage.Store
	Metrics    *metrics.Collector
	PageSpeed  *pagespeed.Client
	Dispatcher *alerts.Dispatcher
	Batch      *batch.Orchestrator
	Refresher  *scheduler.Refresher
	Groups     *groups.Service
}

// New opens the configured backend and wires the pipeline on top of it.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	backend, err := OpenBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	var validator *targets.Validator
	if cfg.Targets.ResolveHosts {
		validator = targets.NewValidator(targets.NewResolver(cfg.Targets.Resolver, 5*time.Second))
	}

	store := storage.NewStore(backend, validator, logger, cfg.Storage.MaxHistory)
	collector := metrics.NewCollector(cfg.Mimir, logger)
	psi := pagespeed.NewClient(pagespeed.Options{
		BaseURL:           cfg.PageSpeed.BaseURL,
		APIKey:            cfg.PageSpeed.APIKey,
		Strategy:          core.Strategy(cfg.PageSpeed.Strategy),
		Timeout:           cfg.PageSpeed.Timeout,
		RequestsPerMinute: cfg.PageSpeed.RequestsPerMinute,
	}, logger)
	dispatcher := alerts.NewDispatcher(cfg.Alerts.WebhookURL, cfg.Alerts.Timeout, logger, collector)
	orchestrator := batch.NewOrchestrator(cfg.Batch.Delay, logger)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Store:      store,
		Metrics:    collector,
		PageSpeed:  psi,
		Dispatcher: dispatcher,
		Batch:      orchestrator,
		Refresher:  scheduler.NewRefresher(store, psi, dispatcher, orchestrator, collector, logger),
		Groups:     groups.NewService(store, logger, collector),
	}, nil
}

// Scheduler builds the auto-refresh loop.
func (a *App) Scheduler() *scheduler.Scheduler {
	return scheduler.NewScheduler(a.Refresher, a.Store, a.Config.Scheduler.Interval, a.Logger)
}

func (a *App) Close() error {
	return a.Store.Close()
}

// OpenBackend selects the blob backend named by cfg.Driver.
func OpenBackend(ctx context.Context, cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Driver {
	case "memory":
		return storage.NewMemoryBackend(), nil
	case "sqlite", sqlstore.DriverSQLite:
		return openSQL(ctx, sqlstore.DriverSQLite, cfg.DSN)
	case "postgres":
		return openSQL(ctx, sqlstore.DriverPostgres, cfg.DSN)
	case "redis":
		b := redis.NewBackend(cfg.RedisURL)
		if err := b.Ping(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func openSQL(ctx context.Context, driver, dsn string) (storage.Backend, error) {
	b, err := sqlstore.Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// NewLogger builds the process logger from config.
func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}
