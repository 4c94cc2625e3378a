package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/datasource"
	"github.com/kenttraders/aimarketops/backend-go/internal/datasource/sellerdynamics"
	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/kenttraders/aimarketops/backend-go/internal/pipeline/restock"
	"github.com/rs/zerolog/log"
)

// fetchSource fetches one source with retries and records the outcome.
func (o *Orchestrator) fetchSource(ctx context.Context, src datasource.Source) (restock.RawPayload, FetchResult) {
	name := string(src.Name())
	var payload restock.RawPayload

	res := o.withRetry(ctx, name, func(ctx context.Context) error {
		p, err := src.FetchPayload(ctx)
		if err != nil {
			return err
		}
		payload = p
		return nil
	})
	if res.Status != StatusCompleted {
		return nil, res
	}
	return payload, res
}

// fetchHistory reads order lines; a failure degrades to no history.
func (o *Orchestrator) fetchHistory(ctx context.Context, since time.Time) ([]domain.OrderLine, FetchResult) {
	var lines []domain.OrderLine

	res := o.withRetry(ctx, HistorySourceName, func(ctx context.Context) error {
		l, err := o.history.OrderHistory(ctx, since)
		if err != nil {
			return err
		}
		lines = l
		return nil
	})
	if res.Status != StatusCompleted {
		return []domain.OrderLine{}, res
	}
	return lines, res
}

// withRetry runs fn until it succeeds, the attempts run out or the error is not retryable.
func (o *Orchestrator) withRetry(ctx context.Context, name string, fn func(ctx context.Context) error) FetchResult {
	start := time.Now()
	res := FetchResult{Source: name, Status: StatusFailed}

	for attempt := 1; attempt <= o.cfg.RetryAttempts; attempt++ {
		res.Attempts = attempt

		actx, cancel := o.attemptContext(ctx)
		err := fn(actx)
		cancel()

		if err == nil {
			res.Status = StatusCompleted
			res.Err = nil
			break
		}
		res.Err = fmt.Errorf("%s: %w: %w", name, datasource.ErrUpstreamUnavailable, err)

		if !retryable(ctx, err) || attempt == o.cfg.RetryAttempts {
			break
		}
		log.Warn().Err(err).Str("source", name).Int("attempt", attempt).Msg("pipeline: fetch failed, retrying")
		if !sleep(ctx, o.cfg.RetryBackoff*time.Duration(attempt)) {
			break
		}
	}

	res.Duration = time.Since(start)
	o.rec.ObserveFetch(name, res.Duration)
	if res.Status == StatusFailed {
		o.rec.UpstreamFailure(name)
		log.Error().Err(res.Err).Str("source", name).Int("attempts", res.Attempts).Msg("pipeline: source unavailable")
	}
	return res
}

func (o *Orchestrator) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.cfg.FetchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.cfg.FetchTimeout)
}

// retryable rejects cancellation and rate limiting, which another attempt cannot fix.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, sellerdynamics.ErrRateLimited) {
		return false
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
