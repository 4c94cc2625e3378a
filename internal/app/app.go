// Package app assembles the restock service from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/cache"
	"github.com/kenttraders/aimarketops/backend-go/internal/config"
	"github.com/kenttraders/aimarketops/backend-go/internal/datasource"
	"github.com/kenttraders/aimarketops/backend-go/internal/metrics"
	"github.com/kenttraders/aimarketops/backend-go/internal/notify"
	"github.com/kenttraders/aimarketops/backend-go/internal/pipeline"
	"github.com/kenttraders/aimarketops/backend-go/internal/pipeline/restock"
	"github.com/kenttraders/aimarketops/backend-go/internal/ratelimit"
	"github.com/kenttraders/aimarketops/backend-go/internal/repository"
	"github.com/kenttraders/aimarketops/backend-go/internal/repository/postgres"
	"github.com/kenttraders/aimarketops/backend-go/internal/service"
	"github.com/kenttraders/aimarketops/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
)

// Options carry collaborators opened by the caller.
type Options struct {
	// DB enables persistence and database history. Nil runs without Postgres.
	DB *postgres.DB
	// Storage overrides the configured object storage.
	Storage storage.ObjectStorage
	Metrics *metrics.Registry
}

// App is the wired restock service and the resources it holds.
type App struct {
	Config    *config.Config
	Service   *service.RestockService
	Metrics   *metrics.Registry
	Sources   datasource.Set
	publisher notify.Publisher
}

// Build wires the data sources, engine and side channels described by cfg. Optional
// collaborators that fail to start are logged and left out.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	registry := opts.Metrics
	if registry == nil {
		registry = metrics.NewRegistry()
	}

	var (
		runs      repository.RestockRepository
		inventory repository.InventoryRepository
		history   datasource.HistorySource
		products  datasource.ProductReader
	)
	if opts.DB != nil {
		if err := opts.DB.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		repo := postgres.NewRestockRepository(opts.DB)
		inventory = repo
		products = repo
		if cfg.Restock.PersistRuns {
			runs = repo
		}
		if cfg.DataSource.HistoryFromDB || cfg.DataSource.Mode == datasource.ModeStored {
			history = repo
		}
	}

	gate := ratelimit.NewGate(cfg.SellerDynamics.MinInterval())
	set, err := datasource.FromConfig(cfg, datasource.Deps{Gate: gate, History: history, Products: products})
	if err != nil {
		return nil, fmt.Errorf("data sources: %w", err)
	}

	restockCache, err := cache.NewRestockCache(ctx, cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("app: redis unavailable, caching disabled")
		restockCache = cache.NewNoopRestockCache()
	}

	objects := opts.Storage
	if objects == nil && cfg.Storage.Enabled {
		client, err := storage.NewMinioClient(ctx, cfg.Storage)
		if err != nil {
			log.Warn().Err(err).Msg("app: object storage unavailable, export disabled")
		} else {
			objects = client
		}
	}

	publisher := notify.NewPublisher(cfg.Messaging)

	names := make([]string, 0, len(set.Sources))
	for _, src := range set.Sources {
		names = append(names, string(src.Name()))
	}

	orchestrator := pipeline.NewOrchestrator(set, CollectConfig(cfg), registry)
	svc := service.NewRestockService(service.RestockDeps{
		Collector:      orchestrator,
		Engine:         restock.NewEngine(CalculatorConfig(cfg)),
		Cache:          restockCache,
		Runs:           runs,
		Inventory:      inventory,
		Publisher:      publisher,
		Storage:        objects,
		Recorder:       registry,
		Mode:           set.Mode,
		SourceNames:    names,
		AlertThreshold: cfg.Restock.AlertThreshold,
	})

	log.Info().
		Str("mode", set.Mode).
		Strs("sources", names).
		Bool("persist_runs", runs != nil).
		Bool("export", objects != nil).
		Msg("app: restock service ready")

	return &App{
		Config:    cfg,
		Service:   svc,
		Metrics:   registry,
		Sources:   set,
		publisher: publisher,
	}, nil
}

// Close releases the messaging connection.
func (a *App) Close() error {
	return a.publisher.Close()
}

// CalculatorConfig maps the restock settings onto the engine's model constants.
func CalculatorConfig(cfg *config.Config) restock.CalculatorConfig {
	calc := restock.DefaultCalculatorConfig()
	calc.SafetyStockMultiplier = cfg.Restock.SafetyStockMultiplier
	calc.OrderingCost = cfg.Restock.OrderingCost
	calc.HoldingCostRate = cfg.Restock.HoldingCostRate
	calc.DefaultReorderQuantity = cfg.Restock.DefaultReorderQuantity
	return calc
}

// CollectConfig maps the data source settings onto the orchestrator.
func CollectConfig(cfg *config.Config) pipeline.CollectConfig {
	collect := pipeline.DefaultCollectConfig()
	if cfg.DataSource.FetchTimeoutSec > 0 {
		collect.FetchTimeout = time.Duration(cfg.DataSource.FetchTimeoutSec) * time.Second
	}
	if cfg.Restock.HistoryDays > 0 {
		collect.HistoryWindow = time.Duration(cfg.Restock.HistoryDays) * 24 * time.Hour
	}
	return collect
}
