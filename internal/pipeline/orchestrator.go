package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/datasource"
	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/kenttraders/aimarketops/backend-go/internal/pipeline/restock"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Orchestrator fetches every configured source and the order history concurrently.
type Orchestrator struct {
	sources []datasource.Source
	history datasource.HistorySource
	cfg     CollectConfig
	rec     Recorder
	now     func() time.Time
}

// NewOrchestrator creates a new Orchestrator. A nil recorder disables fetch metrics.
func NewOrchestrator(set datasource.Set, cfg CollectConfig, rec Recorder) *Orchestrator {
	if rec == nil {
		rec = nopRecorder{}
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultCollectConfig().HistoryWindow
	}
	history := set.History
	if history == nil {
		history = datasource.NoHistory{}
	}
	return &Orchestrator{
		sources: set.Sources,
		history: history,
		cfg:     cfg,
		rec:     rec,
		now:     time.Now,
	}
}

// WithClock replaces the clock that anchors the history window and CollectedAt.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Collect runs one fetch per source plus the history read. A failing source is logged,
// recorded and left out; only cancellation of ctx fails the whole collection.
func (o *Orchestrator) Collect(ctx context.Context) (Snapshot, error) {
	now := o.now()
	payloads := make([]restock.RawPayload, len(o.sources))
	results := make([]FetchResult, len(o.sources)+1)
	var history []domain.OrderLine

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.WorkerCount)

	for i, src := range o.sources {
		g.Go(func() error {
			payload, res := o.fetchSource(gctx, src)
			payloads[i] = payload
			results[i] = res
			return nil
		})
	}

	g.Go(func() error {
		since := now.Add(-o.cfg.HistoryWindow)
		lines, res := o.fetchHistory(gctx, since)
		history = lines
		results[len(o.sources)] = res
		return nil
	})

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("collect inventory: %w", err)
	}

	snap := Snapshot{
		Payloads:    make([]restock.RawPayload, 0, len(payloads)),
		History:     history,
		Unavailable: make([]string, 0),
		Results:     results,
		CollectedAt: now,
	}
	for i, p := range payloads {
		if results[i].Status == StatusCompleted && p != nil {
			snap.Payloads = append(snap.Payloads, p)
		}
	}
	for _, res := range results {
		if res.Status == StatusFailed {
			snap.Unavailable = append(snap.Unavailable, res.Source)
		}
	}
	if snap.History == nil {
		snap.History = []domain.OrderLine{}
	}

	log.Info().
		Int("payloads", len(snap.Payloads)).
		Int("order_lines", len(snap.History)).
		Strs("unavailable", snap.Unavailable).
		Msg("pipeline: inventory collected")

	return snap, nil
}
