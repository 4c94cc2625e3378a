// Package datasource supplies raw inventory payloads and order history to the restock engine.
package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/kenttraders/aimarketops/backend-go/internal/pipeline/restock"
)

// ErrUpstreamUnavailable marks a source that could not be reached or answered with an error.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Source fetches one upstream's current stock payload.
type Source interface {
	Name() domain.Source
	FetchPayload(ctx context.Context) (restock.RawPayload, error)
}

// HistorySource yields order lines created at or after since.
type HistorySource interface {
	OrderHistory(ctx context.Context, since time.Time) ([]domain.OrderLine, error)
}

// Set is the collection of sources the service reads from.
type Set struct {
	Sources []Source
	History HistorySource
	Mode    string
}

// NoHistory is a HistorySource with no sales.
type NoHistory struct{}

func (NoHistory) OrderHistory(context.Context, time.Time) ([]domain.OrderLine, error) {
	return []domain.OrderLine{}, nil
}
