package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/datasource"
	"github.com/kenttraders/aimarketops/backend-go/internal/datasource/mock"
	"github.com/kenttraders/aimarketops/backend-go/internal/datasource/sellerdynamics"
	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/kenttraders/aimarketops/backend-go/internal/pipeline/restock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	mu       sync.Mutex
	failures map[string]int
	fetches  map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{failures: map[string]int{}, fetches: map[string]int{}}
}

func (r *fakeRecorder) UpstreamFailure(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[source]++
}

func (r *fakeRecorder) ObserveFetch(source string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches[source]++
}

type historyFunc func(ctx context.Context, since time.Time) ([]domain.OrderLine, error)

func (f historyFunc) OrderHistory(ctx context.Context, since time.Time) ([]domain.OrderLine, error) {
	return f(ctx, since)
}

type flakySource struct {
	calls   int32
	failFor int32
	err     error
}

func (f *flakySource) Name() domain.Source { return domain.SourceShopify }

func (f *flakySource) FetchPayload(context.Context) (restock.RawPayload, error) {
	if atomic.AddInt32(&f.calls, 1) <= f.failFor {
		return nil, f.err
	}
	return restock.ShopifyPayload{}, nil
}

func testConfig() CollectConfig {
	cfg := DefaultCollectConfig()
	cfg.RetryBackoff = 0
	return cfg
}

func sdPayload() *restock.SellerDynamicsPayload {
	return &restock.SellerDynamicsPayload{StockLevels: []restock.SellerDynamicsItem{{SKU: "A", CurrentStock: restock.Ptr(1)}}}
}

func TestCollect_AllSourcesSucceed(t *testing.T) {
	var gotSince time.Time
	history := historyFunc(func(_ context.Context, since time.Time) ([]domain.OrderLine, error) {
		gotSince = since
		return []domain.OrderLine{{ProductID: "sd-A", Quantity: 2}}, nil
	})
	set := datasource.Set{
		Sources: []datasource.Source{mock.NewPayloadSource(sdPayload()), mock.NewPayloadSource(restock.ShopifyPayload{})},
		History: history,
	}
	now := time.Date(2025, 8, 4, 12, 0, 0, 0, time.UTC)
	o := NewOrchestrator(set, testConfig(), nil)
	o.now = func() time.Time { return now }

	snap, err := o.Collect(context.Background())

	require.NoError(t, err)
	assert.Len(t, snap.Payloads, 2)
	assert.Equal(t, domain.SourceSellerDynamics, snap.Payloads[0].Kind())
	assert.Len(t, snap.History, 1)
	assert.False(t, snap.Degraded())
	assert.Equal(t, now.AddDate(0, 0, -30), gotSince)
	assert.Equal(t, now, snap.CollectedAt)
}

func TestCollect_DegradesFailedSources(t *testing.T) {
	boom := errors.New("connection refused")
	rec := newFakeRecorder()
	set := datasource.Set{
		Sources: []datasource.Source{
			mock.NewPayloadSource(sdPayload()),
			mock.Failing(domain.SourceShopify, boom),
		},
		History: historyFunc(func(context.Context, time.Time) ([]domain.OrderLine, error) {
			return nil, errors.New("db down")
		}),
	}

	snap, err := NewOrchestrator(set, testConfig(), rec).Collect(context.Background())

	require.NoError(t, err)
	require.Len(t, snap.Payloads, 1)
	assert.NotNil(t, snap.History)
	assert.Empty(t, snap.History)
	assert.Equal(t, []string{"shopify", HistorySourceName}, snap.Unavailable)
	assert.Equal(t, 1, rec.failures["shopify"])
	assert.Equal(t, 1, rec.failures[HistorySourceName])
	assert.Equal(t, 1, rec.fetches["sellerdynamics"])

	failed := snap.Results[1]
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, 2, failed.Attempts)
	assert.ErrorIs(t, failed.Err, datasource.ErrUpstreamUnavailable)
	assert.ErrorIs(t, failed.Err, boom)
}

func TestCollect_RetriesTransientFailure(t *testing.T) {
	flaky := &flakySource{failFor: 1, err: errors.New("timeout")}
	set := datasource.Set{Sources: []datasource.Source{flaky}}

	snap, err := NewOrchestrator(set, testConfig(), nil).Collect(context.Background())

	require.NoError(t, err)
	assert.Len(t, snap.Payloads, 1)
	assert.Equal(t, 2, snap.Results[0].Attempts)
	assert.Equal(t, int32(2), atomic.LoadInt32(&flaky.calls))
}

func TestCollect_DoesNotRetryRateLimit(t *testing.T) {
	flaky := &flakySource{failFor: 5, err: sellerdynamics.ErrRateLimited}
	set := datasource.Set{Sources: []datasource.Source{flaky}}

	snap, err := NewOrchestrator(set, testConfig(), nil).Collect(context.Background())

	require.NoError(t, err)
	assert.Empty(t, snap.Payloads)
	assert.Equal(t, int32(1), atomic.LoadInt32(&flaky.calls))
}

func TestCollect_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	set := datasource.Set{Sources: []datasource.Source{mock.NewPayloadSource(sdPayload())}}

	_, err := NewOrchestrator(set, testConfig(), nil).Collect(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
