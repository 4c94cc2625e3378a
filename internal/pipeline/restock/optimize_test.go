package restock

import (
	"errors"
	"testing"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func optimize(t *testing.T, products []domain.ProductSnapshot, mode domain.OptimizationMode) []domain.Optimization {
	t.Helper()
	calc := NewCalculator(DefaultCalculatorConfig())
	opts, err := GenerateOptimizations(products, calc.ComputeAll(products, nil, testNow), mode)
	require.NoError(t, err)
	return opts
}

func byType(opts []domain.Optimization, typ domain.OptimizationType) []domain.Optimization {
	out := make([]domain.Optimization, 0)
	for _, o := range opts {
		if o.Type == typ {
			out = append(out, o)
		}
	}
	return out
}

func TestGenerateOptimizations_OverstockAndPricing(t *testing.T) {
	p := sdProduct("sd-1", 60)
	p.Price = 11

	opts := optimize(t, []domain.ProductSnapshot{p}, domain.ModeAll)

	require.Len(t, opts, 2)
	overstock := byType(opts, domain.OptimizationOverstock)
	require.Len(t, overstock, 1)
	assert.Equal(t, 18, overstock[0].RecommendedReduction)
	assert.Equal(t, 180.0, overstock[0].PotentialSavings)
	assert.Equal(t, domain.PriorityMedium, overstock[0].Priority)

	pricing := byType(opts, domain.OptimizationPricing)
	require.Len(t, pricing, 1)
	assert.Equal(t, 13.0, pricing[0].RecommendedPrice)
	assert.Equal(t, 9.09, pricing[0].CurrentMargin)
	assert.Equal(t, 23.08, pricing[0].PotentialMargin)
	assert.Equal(t, 120.0, pricing[0].PotentialSavings)
}

func TestGenerateOptimizations_UnknownCostNeverPriced(t *testing.T) {
	p := sdProduct("shop-1", 10)
	p.Cost = 0
	p.Price = 12.5

	opts := optimize(t, []domain.ProductSnapshot{p}, domain.ModePricing)

	assert.Empty(t, opts)
}

func TestGenerateOptimizations_Efficiency(t *testing.T) {
	slow := sdProduct("sd-slow", 30)
	edge := sdProduct("sd-edge", 50)

	opts := optimize(t, []domain.ProductSnapshot{slow, edge}, domain.ModeEfficiency)

	require.Len(t, opts, 1)
	assert.Equal(t, "sd-slow", opts[0].ProductID)
	assert.Equal(t, 21, opts[0].RecommendedStock)
	assert.Equal(t, 90.0, opts[0].PotentialSavings)
	assert.Equal(t, domain.PriorityLow, opts[0].Priority)
}

func TestGenerateOptimizations_ModeFilters(t *testing.T) {
	p := sdProduct("sd-1", 60)
	p.Price = 11

	assert.Len(t, optimize(t, []domain.ProductSnapshot{p}, domain.ModeOverstock), 1)
	assert.Len(t, optimize(t, []domain.ProductSnapshot{p}, domain.ModePricing), 1)
	assert.Empty(t, optimize(t, []domain.ProductSnapshot{p}, domain.ModeEfficiency))
	assert.Len(t, optimize(t, []domain.ProductSnapshot{p}, ""), 2)
}

func TestGenerateOptimizations_UnknownMode(t *testing.T) {
	_, err := GenerateOptimizations(nil, nil, domain.OptimizationMode("turbo"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMode))
}

func TestSummarizeOptimizations(t *testing.T) {
	s := SummarizeOptimizations([]domain.Optimization{
		{Priority: domain.PriorityMedium},
		{Priority: domain.PriorityMedium},
		{Priority: domain.PriorityLow},
	})

	assert.Equal(t, domain.OptimizationSummary{TotalOptimizations: 3, Medium: 2, Low: 1}, s)
}
