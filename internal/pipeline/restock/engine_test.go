package restock

import (
	"testing"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_GenerateRestockRecommendations(t *testing.T) {
	engine := NewEngine(CalculatorConfig{})
	out := sdProduct("sd-out", 0)
	low := sdProduct("sd-low", 5)
	low.Supplier = "Globex"
	fine := sdProduct("sd-fine", 80)

	res := engine.GenerateRestockRecommendations([]domain.ProductSnapshot{fine, low, out}, twoPerDay(low.ID), testNow)

	require.Len(t, res.Recommendations, 2)
	assert.Equal(t, "sd-out", res.Recommendations[0].ProductID)
	assert.Equal(t, "sd-low", res.Recommendations[1].ProductID)
	require.Len(t, res.Batches, 2)
	assert.Equal(t, "Acme", res.Batches[0].Supplier)
	assert.Len(t, res.Notifications, 2)

	s := res.Summary
	assert.Equal(t, 2, s.TotalItemsToRestock)
	assert.Equal(t, 1, s.PriorityItems)
	assert.Equal(t, map[domain.Priority]int{
		domain.PriorityCritical: 1,
		domain.PriorityHigh:     1,
		domain.PriorityMedium:   0,
	}, s.ByPriority)
	// out orders 100 units and low orders 95, both at a unit cost of 10
	assert.Equal(t, 1950.0, s.EstimatedCost)
	assert.Empty(t, s.Note)
}

func TestEngine_EmptyInventory(t *testing.T) {
	res := NewEngine(DefaultCalculatorConfig()).GenerateRestockRecommendations(nil, nil, testNow)

	assert.NotNil(t, res.Recommendations)
	assert.Empty(t, res.Recommendations)
	assert.Empty(t, res.Batches)
	assert.Equal(t, 0, res.Summary.TotalItemsToRestock)
	assert.Equal(t, "no inventory data available", res.Summary.Note)
}

func TestEngine_OptimizeAndAlerts(t *testing.T) {
	engine := NewEngine(DefaultCalculatorConfig())
	products := []domain.ProductSnapshot{sdProduct("sd-1", 60), sdProduct("sd-2", 0)}

	opts, err := engine.Optimize(products, nil, domain.ModeOverstock, testNow)
	require.NoError(t, err)
	assert.Len(t, opts, 1)

	alerts := engine.Alerts(products, nil, 10, true, testNow)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertStockout, alerts[0].Type)
}
