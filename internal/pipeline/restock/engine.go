package restock

import (
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// Engine runs the restock computations with one configured Calculator.
// It holds no state between calls.
type Engine struct {
	calculator *Calculator
}

// NewEngine creates an engine with the given model constants.
func NewEngine(cfg CalculatorConfig) *Engine {
	return &Engine{calculator: NewCalculator(cfg)}
}

// Calculator exposes the engine's calculator.
func (e *Engine) Calculator() *Calculator {
	return e.calculator
}

// GenerateRestockRecommendations computes metrics, ranks products and builds the summary.
func (e *Engine) GenerateRestockRecommendations(products []domain.ProductSnapshot, history []domain.OrderLine, now time.Time) domain.RestockResult {
	metrics := e.calculator.ComputeAll(products, history, now)
	ranked := Rank(products, metrics, now)

	return domain.RestockResult{
		Recommendations: ranked.Recommendations,
		Batches:         ranked.Batches,
		Notifications:   GenerateNotifications(ranked.Recommendations),
		Summary:         summarize(ranked, len(products)),
	}
}

// Optimize computes metrics and runs the optimization checks for mode.
func (e *Engine) Optimize(products []domain.ProductSnapshot, history []domain.OrderLine, mode domain.OptimizationMode, now time.Time) ([]domain.Optimization, error) {
	metrics := e.calculator.ComputeAll(products, history, now)
	return GenerateOptimizations(products, metrics, mode)
}

// Alerts computes metrics and generates stock alerts.
func (e *Engine) Alerts(products []domain.ProductSnapshot, history []domain.OrderLine, threshold int, includePredictions bool, now time.Time) []domain.Alert {
	metrics := e.calculator.ComputeAll(products, history, now)
	return GenerateAlerts(products, metrics, threshold, includePredictions, now)
}

func summarize(ranked RankResult, productCount int) domain.RestockSummary {
	byPriority := map[domain.Priority]int{
		domain.PriorityCritical: 0,
		domain.PriorityHigh:     0,
		domain.PriorityMedium:   0,
	}
	for _, r := range ranked.Recommendations {
		byPriority[r.Priority]++
	}

	total := decimal.Zero
	for _, b := range ranked.Batches {
		total = total.Add(decimal.NewFromFloat(b.TotalCost))
	}

	summary := domain.RestockSummary{
		TotalItemsToRestock: len(ranked.Recommendations),
		EstimatedCost:       total.Round(2).InexactFloat64(),
		PriorityItems:       byPriority[domain.PriorityCritical],
		ByPriority:          byPriority,
	}
	if productCount == 0 {
		summary.Note = "no inventory data available"
	}
	return summary
}
