package postgres

import (
	"testing"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/kenttraders/aimarketops/backend-go/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRunFilterClause(t *testing.T) {
	since := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	minCost := 100.0

	clause, args := buildRunFilterClause(&repository.RunFilter{Since: &since, MinCost: &minCost}, "r.", 1)

	assert.Equal(t, " AND r.computed_at >= $1 AND r.estimated_cost >= $2", clause)
	assert.Equal(t, []interface{}{since, minCost}, args)

	clause, args = buildRunFilterClause(&repository.RunFilter{}, "r.", 1)
	assert.Empty(t, clause)
	assert.Nil(t, args)

	clause, _ = buildRunFilterClause(nil, "", 3)
	assert.Empty(t, clause)
}

func TestPageBounds(t *testing.T) {
	limit, offset := pageBounds(nil)
	assert.Equal(t, defaultRunsLimit, limit)
	assert.Equal(t, 0, offset)

	limit, offset = pageBounds(&repository.RunFilter{Limit: 5000, Offset: -4})
	assert.Equal(t, maxRunsLimit, limit)
	assert.Equal(t, 0, offset)
}

func TestAssembleBatches(t *testing.T) {
	days := 2.5
	batches := []batchRow{
		{ID: 7, PONumber: "PO-1", Supplier: "Acme", TotalItems: 2, TotalCost: 30, Priority: "urgent", Status: "pending"},
		{ID: 9, PONumber: "PO-2", Supplier: "Globex", Priority: "normal", Status: "pending"},
	}
	items := []itemRow{
		{BatchID: 7, ProductID: "sd-1", Priority: "critical", DaysUntilStockout: &days},
		{BatchID: 7, ProductID: "sd-2", Priority: "high"},
	}

	out := assembleBatches(batches, items)

	require.Len(t, out, 2)
	require.Len(t, out[0].Items, 2)
	assert.Equal(t, "sd-1", out[0].Items[0].ProductID)
	assert.Equal(t, "Acme", out[0].Items[1].Supplier)
	assert.Equal(t, domain.PriorityCritical, out[0].Items[0].Priority)
	assert.Equal(t, domain.BatchUrgent, out[0].Priority)
	assert.NotNil(t, out[1].Items)
	assert.Empty(t, out[1].Items)
}
