package restock

import (
	"testing"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 8, 4, 12, 0, 0, 0, time.UTC)

func daysAgo(d int) time.Time {
	return testNow.AddDate(0, 0, -d)
}

func sdProduct(id string, stock int) domain.ProductSnapshot {
	return domain.ProductSnapshot{
		ID:             id,
		SKU:            id,
		Name:           "Product " + id,
		CurrentStock:   stock,
		AvailableStock: stock,
		Cost:           10,
		Price:          20,
		ReorderPoint:   DefaultReorderPoint,
		MaxStock:       DefaultMaxStock,
		Supplier:       "Acme",
		LeadTimeDays:   7,
		Source:         domain.SourceSellerDynamics,
	}
}

// twoPerDay gives 60 units in the trailing 30 days, 30 of them in the last week.
func twoPerDay(productID string) []domain.OrderLine {
	return []domain.OrderLine{
		{ProductID: productID, Quantity: 30, Timestamp: daysAgo(10)},
		{ProductID: productID, Quantity: 30, Timestamp: daysAgo(2)},
	}
}

func TestCalculator_ScenarioTwoUnitsPerDay(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig())
	p := sdProduct("sd-A", 5)

	m := calc.Compute(p, twoPerDay(p.ID), testNow)

	assert.InDelta(t, 2.0, m.Velocity.Daily, 1e-9)
	assert.Equal(t, 30.0, m.Velocity.Weekly)
	assert.Equal(t, 60.0, m.Velocity.Monthly)
	assert.Equal(t, 21, m.SafetyStock)
	assert.Equal(t, 35, m.ReorderPoint)
	// sqrt(2*60*50/(10*0.2)) = 54.77
	assert.Equal(t, 55, m.EOQ)
	require.NotNil(t, m.Margin)
	assert.InDelta(t, 0.5, *m.Margin, 1e-9)
}

func TestCalculator_VelocityWindows(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig())
	history := []domain.OrderLine{
		{ProductID: "p1", Quantity: 9, Timestamp: daysAgo(30)},
		{ProductID: "p1", Quantity: 100, Timestamp: daysAgo(31)},
		{ProductID: "p1", Quantity: 6, Timestamp: daysAgo(7)},
		{ProductID: "p1", Quantity: 15, Timestamp: daysAgo(1)},
		{ProductID: "p2", Quantity: 50, Timestamp: daysAgo(1)},
		{ProductID: "p1", Quantity: -4, Timestamp: daysAgo(1)},
	}

	v := calc.Velocity("p1", history, testNow)

	assert.Equal(t, 30.0, v.Monthly)
	assert.InDelta(t, 1.0, v.Daily, 1e-9)
	assert.Equal(t, 21.0, v.Weekly)
}

func TestCalculator_IgnoresFutureOrders(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig())
	history := []domain.OrderLine{
		{ProductID: "p1", Quantity: 30, Timestamp: testNow.AddDate(0, 0, 10)},
		{ProductID: "p1", Quantity: 3, Timestamp: testNow},
	}

	v := calc.Velocity("p1", history, testNow)

	assert.Equal(t, 3.0, v.Monthly)
	assert.Equal(t, 3.0, v.Weekly)
	assert.InDelta(t, 0.1, v.Daily, 1e-9)
}

func TestCalculator_EOQStaysPositiveForTinyCost(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig())
	p := sdProduct("sd-T", 2)
	p.Cost = 1e-300
	p.Price = 1

	m := calc.Compute(p, []domain.OrderLine{{ProductID: p.ID, Quantity: 30, Timestamp: testNow}}, testNow)

	assert.Equal(t, maxOrderQuantity, m.EOQ)
	assert.Equal(t, maxOrderQuantity, calc.EOQ(1e12, 1e-12))
}

func TestCalculator_NoHistoryKeepsStaticReorderPoint(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig())
	p := sdProduct("sd-B", 3)
	p.ReorderPoint = 12

	m := calc.Compute(p, nil, testNow)

	assert.Zero(t, m.Velocity.Daily)
	assert.Equal(t, 12, m.ReorderPoint)
	assert.Equal(t, 0, m.SafetyStock)
	// monthly demand of zero still yields the one-unit floor
	assert.Equal(t, 1, m.EOQ)
}

func TestCalculator_UnknownCost(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig())
	p := sdProduct("shop-1", 4)
	p.Cost = 0

	m := calc.Compute(p, twoPerDay(p.ID), testNow)

	assert.Equal(t, DefaultReorderQuantity, m.EOQ)
	assert.Nil(t, m.Margin)
}

func TestCalculator_ZeroPriceHasNoMargin(t *testing.T) {
	p := sdProduct("sd-C", 4)
	p.Price = 0

	assert.Nil(t, marginOf(p))
}

func TestNewCalculator_FillsDefaults(t *testing.T) {
	calc := NewCalculator(CalculatorConfig{OrderingCost: 80})

	cfg := calc.Config()
	assert.Equal(t, 80.0, cfg.OrderingCost)
	assert.Equal(t, DefaultSafetyStockMultiplier, cfg.SafetyStockMultiplier)
	assert.Equal(t, DefaultHoldingCostRate, cfg.HoldingCostRate)
	assert.Equal(t, DefaultReorderQuantity, cfg.DefaultReorderQuantity)
	assert.Equal(t, DefaultMonthlyWindowDays, cfg.MonthlyWindowDays)
	assert.Equal(t, DefaultWeeklyWindowDays, cfg.WeeklyWindowDays)
}

func TestCalculator_ComputeAllIndexesHistory(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig())
	products := []domain.ProductSnapshot{sdProduct("a", 1), sdProduct("b", 1)}
	history := append(twoPerDay("a"), domain.OrderLine{ProductID: "b", Quantity: 3, Timestamp: daysAgo(1)})

	all := calc.ComputeAll(products, history, testNow)

	require.Len(t, all, 2)
	assert.Equal(t, 60.0, all["a"].Velocity.Monthly)
	assert.Equal(t, 3.0, all["b"].Velocity.Monthly)
}
