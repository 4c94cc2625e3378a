package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/cache"
	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/kenttraders/aimarketops/backend-go/internal/notify"
	"github.com/kenttraders/aimarketops/backend-go/internal/pipeline"
	"github.com/kenttraders/aimarketops/backend-go/internal/pipeline/restock"
	"github.com/kenttraders/aimarketops/backend-go/internal/repository"
	"github.com/kenttraders/aimarketops/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
)

// Automation actions accepted by the inventory automation endpoint.
const (
	ActionAutoRestock    = "auto-restock"
	ActionGenerateAlerts = "generate-alerts"
	ActionOptimize       = "optimize-inventory"
)

const degradedNote = "partial data: some inventory sources were unavailable"

// Collector gathers one inventory snapshot.
type Collector interface {
	Collect(ctx context.Context) (pipeline.Snapshot, error)
}

// RunRecorder receives computation outcomes for monitoring.
type RunRecorder interface {
	IngestSkip(source string, n int)
	RecordRun(action string, byPriority map[string]int, estimatedCost float64)
	CountRun(action string)
}

type nopRunRecorder struct{}

func (nopRunRecorder) IngestSkip(string, int)                    {}
func (nopRunRecorder) RecordRun(string, map[string]int, float64) {}
func (nopRunRecorder) CountRun(string)                           {}

// RestockDeps wires the restock service. Only Collector and Engine are required.
type RestockDeps struct {
	Collector      Collector
	Engine         *restock.Engine
	Cache          cache.RestockCache
	Runs           repository.RestockRepository
	Inventory      repository.InventoryRepository
	Publisher      notify.Publisher
	Storage        storage.ObjectStorage
	Recorder       RunRecorder
	Mode           string
	SourceNames    []string
	AlertThreshold int
}

type RestockService struct {
	collector      Collector
	engine         *restock.Engine
	cache          cache.RestockCache
	runs           repository.RestockRepository
	inventory      repository.InventoryRepository
	publisher      notify.Publisher
	storage        storage.ObjectStorage
	recorder       RunRecorder
	mode           string
	sourceNames    []string
	alertThreshold int
}

func NewRestockService(deps RestockDeps) *RestockService {
	if deps.Engine == nil {
		deps.Engine = restock.NewEngine(restock.DefaultCalculatorConfig())
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewNoopRestockCache()
	}
	if deps.Publisher == nil {
		deps.Publisher = notify.NewNoopPublisher()
	}
	if deps.Recorder == nil {
		deps.Recorder = nopRunRecorder{}
	}
	if deps.AlertThreshold <= 0 {
		deps.AlertThreshold = restock.DefaultAlertThreshold
	}
	return &RestockService{
		collector:      deps.Collector,
		engine:         deps.Engine,
		cache:          deps.Cache,
		runs:           deps.Runs,
		inventory:      deps.Inventory,
		publisher:      deps.Publisher,
		storage:        deps.Storage,
		recorder:       deps.Recorder,
		mode:           deps.Mode,
		sourceNames:    deps.SourceNames,
		alertThreshold: deps.AlertThreshold,
	}
}

// DefaultAlertThreshold is the low-stock threshold used when a request names none.
func (s *RestockService) DefaultAlertThreshold() int {
	return s.alertThreshold
}

// collected is one normalized snapshot ready for the engine.
type collected struct {
	products    []domain.ProductSnapshot
	history     []domain.OrderLine
	skipped     int
	unavailable []string
	at          time.Time
}

func (c collected) degraded() bool {
	return len(c.unavailable) > 0
}

func (s *RestockService) collect(ctx context.Context) (collected, error) {
	snap, err := s.collector.Collect(ctx)
	if err != nil {
		return collected{}, err
	}

	products, report := restock.Normalize(snap.Payloads...)
	for src, n := range report.Skipped {
		s.recorder.IngestSkip(string(src), n)
	}

	return collected{
		products:    products,
		history:     snap.History,
		skipped:     report.SkippedTotal(),
		unavailable: snap.Unavailable,
		at:          snap.CollectedAt,
	}, nil
}

func (s *RestockService) query(action string) cache.RestockQuery {
	return cache.RestockQuery{Action: action, Mode: s.mode, Sources: s.sourceNames}
}

func (s *RestockService) cached(ctx context.Context, q cache.RestockQuery, into any) bool {
	ok, err := s.cache.Get(ctx, q, into)
	if err != nil {
		log.Warn().Err(err).Str("action", q.Action).Msg("restock: cache get failed")
		return false
	}
	return ok
}

// store caches results computed from every source. Degraded results are never cached.
func (s *RestockService) store(ctx context.Context, q cache.RestockQuery, degraded bool, value any) {
	if degraded {
		return
	}
	if err := s.cache.Set(ctx, q, value); err != nil {
		log.Warn().Err(err).Str("action", q.Action).Msg("restock: cache set failed")
	}
}

// AutoRestock computes restock recommendations and purchase order batches. Upstream
// failures degrade the result and are listed in Summary.UnavailableSources.
func (s *RestockService) AutoRestock(ctx context.Context) (domain.RestockResult, error) {
	q := s.query(ActionAutoRestock)
	var result domain.RestockResult
	if s.cached(ctx, q, &result) {
		return result, nil
	}

	result, at, err := s.computeRestock(ctx)
	if err != nil {
		return domain.RestockResult{}, err
	}

	degraded := len(result.Summary.UnavailableSources) > 0
	s.store(ctx, q, degraded, result)
	s.persist(ctx, result, at)
	s.notify(ctx, result, at)

	return result, nil
}

func (s *RestockService) computeRestock(ctx context.Context) (domain.RestockResult, time.Time, error) {
	c, err := s.collect(ctx)
	if err != nil {
		return domain.RestockResult{}, time.Time{}, err
	}

	result := s.engine.GenerateRestockRecommendations(c.products, c.history, c.at)
	result.Summary.SkippedItems = c.skipped
	if c.degraded() {
		result.Summary.UnavailableSources = c.unavailable
		if result.Summary.Note == "" {
			result.Summary.Note = degradedNote
		}
	}

	byPriority := make(map[string]int, len(result.Summary.ByPriority))
	for p, n := range result.Summary.ByPriority {
		byPriority[string(p)] = n
	}
	s.recorder.RecordRun(ActionAutoRestock, byPriority, result.Summary.EstimatedCost)

	log.Info().
		Int("recommendations", result.Summary.TotalItemsToRestock).
		Int("batches", len(result.Batches)).
		Float64("estimated_cost", result.Summary.EstimatedCost).
		Int("skipped", c.skipped).
		Strs("unavailable", c.unavailable).
		Msg("restock: recommendations computed")

	return result, c.at, nil
}

func (s *RestockService) persist(ctx context.Context, result domain.RestockResult, at time.Time) {
	if s.runs == nil || len(result.Batches) == 0 {
		return
	}
	run := &domain.RestockRun{
		ComputedAt:    at,
		TotalItems:    result.Summary.TotalItemsToRestock,
		EstimatedCost: result.Summary.EstimatedCost,
		SkippedItems:  result.Summary.SkippedItems,
	}
	if err := s.runs.SaveRun(ctx, run, result.Batches); err != nil {
		log.Warn().Err(err).Msg("restock: failed to persist run")
		return
	}
	log.Debug().Int64("run_id", run.ID).Msg("restock: run persisted")
}

func (s *RestockService) notify(ctx context.Context, result domain.RestockResult, at time.Time) {
	if len(result.Notifications) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, notify.NewMessage(result, at)); err != nil {
		log.Warn().Err(err).Msg("restock: failed to publish notifications")
	}
}

// Optimize runs the optimization checks selected by mode.
func (s *RestockService) Optimize(ctx context.Context, mode domain.OptimizationMode) (domain.OptimizationReport, error) {
	q := s.query(ActionOptimize)
	q.Mode = s.mode + "/" + string(mode)
	var report domain.OptimizationReport
	if s.cached(ctx, q, &report) {
		return report, nil
	}

	c, err := s.collect(ctx)
	if err != nil {
		return domain.OptimizationReport{}, err
	}

	opts, err := s.engine.Optimize(c.products, c.history, mode, c.at)
	if err != nil {
		return domain.OptimizationReport{}, err
	}
	s.recorder.CountRun(ActionOptimize)

	report = domain.OptimizationReport{
		Optimizations: opts,
		Summary:       restock.SummarizeOptimizations(opts),
	}
	if c.degraded() {
		report.UnavailableSources = c.unavailable
	}
	s.store(ctx, q, c.degraded(), report)

	return report, nil
}

// Alerts generates stock alerts. A threshold of zero or less uses the configured default.
func (s *RestockService) Alerts(ctx context.Context, threshold int, includePredictions bool) (domain.AlertReport, error) {
	if threshold <= 0 {
		threshold = s.alertThreshold
	}

	q := s.query(ActionGenerateAlerts)
	q.Threshold = threshold
	q.IncludePredictions = includePredictions
	var report domain.AlertReport
	if s.cached(ctx, q, &report) {
		return report, nil
	}

	c, err := s.collect(ctx)
	if err != nil {
		return domain.AlertReport{}, err
	}

	alerts := s.engine.Alerts(c.products, c.history, threshold, includePredictions, c.at)
	s.recorder.CountRun(ActionGenerateAlerts)

	report = domain.AlertReport{
		Alerts:  alerts,
		Summary: restock.SummarizeAlerts(alerts),
	}
	if c.degraded() {
		report.UnavailableSources = c.unavailable
	}
	s.store(ctx, q, c.degraded(), report)

	return report, nil
}

// ExportReport computes fresh recommendations and uploads them as CSV and JSON.
func (s *RestockService) ExportReport(ctx context.Context) (storage.ReportKeys, error) {
	if s.storage == nil {
		return storage.ReportKeys{}, storage.ErrNotConfigured
	}
	result, at, err := s.computeRestock(ctx)
	if err != nil {
		return storage.ReportKeys{}, err
	}
	keys, err := storage.ExportRestockReport(ctx, s.storage, result, at)
	if err != nil {
		return storage.ReportKeys{}, fmt.Errorf("export restock report: %w", err)
	}
	log.Info().Str("csv", keys.CSV).Str("json", keys.JSON).Msg("restock: report exported")
	return keys, nil
}

// ListRuns returns persisted runs, newest first.
func (s *RestockService) ListRuns(ctx context.Context, filter *repository.RunFilter) ([]domain.RestockRun, error) {
	if s.runs == nil {
		return []domain.RestockRun{}, nil
	}
	return s.runs.ListRuns(ctx, filter)
}

// RunPurchaseOrders returns the purchase order batches stored for a run.
func (s *RestockService) RunPurchaseOrders(ctx context.Context, runID int64) ([]domain.PurchaseOrderBatch, error) {
	if s.runs == nil {
		return []domain.PurchaseOrderBatch{}, nil
	}
	return s.runs.GetRunBatches(ctx, runID)
}

// ErrNoInventoryStore is returned by SyncProducts when no product store is wired.
var ErrNoInventoryStore = errors.New("no inventory store configured")

// SyncProducts normalizes the current upstream payloads and saves them to the product store.
// Cached computations are dropped afterwards.
func (s *RestockService) SyncProducts(ctx context.Context) (domain.InventorySync, error) {
	if s.inventory == nil {
		return domain.InventorySync{}, ErrNoInventoryStore
	}
	c, err := s.collect(ctx)
	if err != nil {
		return domain.InventorySync{}, err
	}
	if err := s.inventory.SaveProducts(ctx, c.products); err != nil {
		return domain.InventorySync{}, fmt.Errorf("save products: %w", err)
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("restock: cache invalidation failed")
	}

	sync := domain.InventorySync{
		SyncedAt: c.at,
		Saved:    len(c.products),
		Skipped:  c.skipped,
	}
	if c.degraded() {
		sync.UnavailableSources = c.unavailable
	}
	log.Info().Int("saved", sync.Saved).Int("skipped", sync.Skipped).Msg("restock: inventory synced")
	return sync, nil
}

// Invalidate drops every cached computation.
func (s *RestockService) Invalidate(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}
