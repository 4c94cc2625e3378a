package restock

import (
	"encoding/json"
	"testing"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rankWithHistory(products []domain.ProductSnapshot, history []domain.OrderLine) RankResult {
	calc := NewCalculator(DefaultCalculatorConfig())
	return Rank(products, calc.ComputeAll(products, history, testNow), testNow)
}

func TestRank_ScenarioHighPriority(t *testing.T) {
	p := sdProduct("sd-A", 5)

	res := rankWithHistory([]domain.ProductSnapshot{p}, twoPerDay(p.ID))

	require.Len(t, res.Recommendations, 1)
	rec := res.Recommendations[0]
	assert.Equal(t, domain.PriorityHigh, rec.Priority)
	assert.Equal(t, 80, rec.Urgency)
	assert.Equal(t, 35, rec.ReorderPoint)
	// max(maxStock-currentStock, eoq) = max(95, 55)
	assert.Equal(t, 95, rec.RecommendedOrderQuantity)
	assert.Equal(t, 950.0, rec.EstimatedCost)
	require.NotNil(t, rec.DaysUntilStockout)
	assert.Equal(t, 2.5, *rec.DaysUntilStockout)
	assert.Len(t, rec.Reasoning, 4)
}

func TestRank_ZeroStockIsCriticalAndMaxUrgency(t *testing.T) {
	withSales := sdProduct("sd-A", 0)
	withoutSales := sdProduct("sd-B", 0)
	withoutSales.ReorderPoint = 1

	res := rankWithHistory([]domain.ProductSnapshot{withSales, withoutSales}, twoPerDay(withSales.ID))

	require.Len(t, res.Recommendations, 2)
	for _, rec := range res.Recommendations {
		assert.Equal(t, domain.PriorityCritical, rec.Priority, rec.ProductID)
		assert.Equal(t, 100, rec.Urgency, rec.ProductID)
	}
}

func TestRank_ExcludesProductsAboveReorderPoint(t *testing.T) {
	above := sdProduct("sd-above", 11)
	at := sdProduct("sd-at", 10)

	res := rankWithHistory([]domain.ProductSnapshot{above, at}, nil)

	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, "sd-at", res.Recommendations[0].ProductID)
	assert.Equal(t, domain.PriorityMedium, res.Recommendations[0].Priority)
	assert.Equal(t, 0, res.Recommendations[0].Urgency)
	assert.Nil(t, res.Recommendations[0].DaysUntilStockout)
}

func TestRank_OrderQuantityNeverBelowEOQ(t *testing.T) {
	p := sdProduct("shop-1", 8)
	p.Cost = 0
	p.MaxStock = 10

	res := rankWithHistory([]domain.ProductSnapshot{p}, nil)

	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, DefaultReorderQuantity, res.Recommendations[0].RecommendedOrderQuantity)
	assert.Equal(t, 0.0, res.Recommendations[0].EstimatedCost)
}

func TestRank_SortsByUrgencyThenPriority(t *testing.T) {
	critical := sdProduct("sd-z", 0)
	soon := sdProduct("sd-y", 2)    // 2/2 = 1 day -> 95
	later := sdProduct("sd-x", 10)  // 10/2 = 5 days -> 60
	noSales := sdProduct("sd-w", 4) // urgency 0, high
	history := append(twoPerDay("sd-y"), twoPerDay("sd-x")...)

	res := rankWithHistory([]domain.ProductSnapshot{noSales, later, soon, critical}, history)

	ids := make([]string, 0, len(res.Recommendations))
	for _, r := range res.Recommendations {
		ids = append(ids, r.ProductID)
	}
	assert.Equal(t, []string{"sd-z", "sd-y", "sd-x", "sd-w"}, ids)
}

func TestRank_TiesBrokenByPriority(t *testing.T) {
	high := sdProduct("sd-high", 4)
	medium := sdProduct("sd-medium", 8)

	res := rankWithHistory([]domain.ProductSnapshot{medium, high}, nil)

	require.Len(t, res.Recommendations, 2)
	assert.Equal(t, "sd-high", res.Recommendations[0].ProductID)
	assert.Equal(t, "sd-medium", res.Recommendations[1].ProductID)
}

func TestRank_CriticalProductsFromDifferentSuppliers(t *testing.T) {
	a := sdProduct("sd-a", 0)
	a.Supplier = "Acme"
	b := sdProduct("sd-b", 0)
	b.Supplier = "Globex"
	b.LeadTimeDays = 14

	res := rankWithHistory([]domain.ProductSnapshot{a, b}, nil)

	require.Len(t, res.Batches, 2)
	bySupplier := map[string]domain.PurchaseOrderBatch{}
	for _, batch := range res.Batches {
		bySupplier[batch.Supplier] = batch
		assert.Equal(t, domain.BatchUrgent, batch.Priority)
		assert.Equal(t, 1, batch.TotalItems)
		assert.Equal(t, "pending", batch.Status)
	}
	assert.Equal(t, testNow.AddDate(0, 0, 7), bySupplier["Acme"].EstimatedDeliveryDate)
	assert.Equal(t, testNow.AddDate(0, 0, 14), bySupplier["Globex"].EstimatedDeliveryDate)
	assert.NotEqual(t, bySupplier["Acme"].PONumber, bySupplier["Globex"].PONumber)
}

func TestBatchBySupplier_GroupsAndTotals(t *testing.T) {
	recs := []domain.Recommendation{
		{ProductID: "1", Supplier: "Acme", Priority: domain.PriorityHigh, EstimatedCost: 10.10, LeadTimeDays: 3},
		{ProductID: "2", Supplier: "Unknown", Priority: domain.PriorityMedium, EstimatedCost: 0, LeadTimeDays: 7},
		{ProductID: "3", Supplier: "Acme", Priority: domain.PriorityMedium, EstimatedCost: 20.20, LeadTimeDays: 9},
		{ProductID: "4", Supplier: "acme", Priority: domain.PriorityMedium, EstimatedCost: 1, LeadTimeDays: 1},
	}

	batches := BatchBySupplier(recs, testNow)

	require.Len(t, batches, 3)
	assert.Equal(t, "Acme", batches[0].Supplier)
	assert.Equal(t, 30.30, batches[0].TotalCost)
	assert.Equal(t, 2, batches[0].TotalItems)
	assert.Equal(t, domain.BatchNormal, batches[0].Priority)
	assert.Equal(t, testNow.AddDate(0, 0, 9), batches[0].EstimatedDeliveryDate)
	assert.Equal(t, "Unknown", batches[1].Supplier)
	assert.Equal(t, "acme", batches[2].Supplier)
}

func TestRank_IsDeterministic(t *testing.T) {
	products := []domain.ProductSnapshot{sdProduct("sd-1", 0), sdProduct("sd-2", 3), sdProduct("sd-3", 9)}
	products[1].Supplier = "Globex"
	calc := NewCalculator(DefaultCalculatorConfig())
	metrics := calc.ComputeAll(products, twoPerDay("sd-3"), testNow)

	first, err := json.Marshal(Rank(products, metrics, testNow))
	require.NoError(t, err)
	second, err := json.Marshal(Rank(products, metrics, testNow))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestRank_MissingMetricsFallsBackToSnapshot(t *testing.T) {
	p := sdProduct("sd-1", 6)

	res := Rank([]domain.ProductSnapshot{p}, map[string]domain.ProductMetrics{}, testNow)

	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, DefaultReorderPoint, res.Recommendations[0].ReorderPoint)
	assert.Equal(t, 94, res.Recommendations[0].RecommendedOrderQuantity)
}

func TestUrgencyBreakpoints(t *testing.T) {
	cases := []struct {
		stock int
		daily float64
		want  int
	}{
		{0, 0, 100},
		{0, 3, 100},
		{5, 0, 0},
		{1, 1, 95},
		{3, 1, 80},
		{7, 1, 60},
		{14, 1, 40},
		{15, 1, 20},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Urgency(tc.stock, tc.daily), "stock=%d daily=%v", tc.stock, tc.daily)
	}
}
