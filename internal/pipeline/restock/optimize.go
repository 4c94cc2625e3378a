package restock

import (
	"errors"
	"fmt"
	"math"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
)

// ErrUnknownMode is returned for an optimization mode outside all|overstock|pricing|efficiency.
var ErrUnknownMode = errors.New("unknown optimization mode")

// Optimization thresholds.
const (
	overstockMinStock      = 50
	overstockReductionRate = 0.3
	lowMarginThreshold     = 0.2
	targetMarkup           = 1.3
	slowMovingMinStock     = 20
	slowMovingMaxStock     = 50
	slowMovingKeepRate     = 0.7
)

// GenerateOptimizations runs the checks selected by mode. The checks are independent and a
// product can appear once per check.
func GenerateOptimizations(products []domain.ProductSnapshot, metrics map[string]domain.ProductMetrics, mode domain.OptimizationMode) ([]domain.Optimization, error) {
	var runOverstock, runPricing, runEfficiency bool
	switch mode {
	case domain.ModeAll, "":
		runOverstock, runPricing, runEfficiency = true, true, true
	case domain.ModeOverstock:
		runOverstock = true
	case domain.ModePricing:
		runPricing = true
	case domain.ModeEfficiency:
		runEfficiency = true
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	out := make([]domain.Optimization, 0)
	if runOverstock {
		for _, p := range products {
			if o, ok := overstockCheck(p); ok {
				out = append(out, o)
			}
		}
	}
	if runPricing {
		for _, p := range products {
			if o, ok := pricingCheck(p, metricsFor(p, metrics).Margin); ok {
				out = append(out, o)
			}
		}
	}
	if runEfficiency {
		for _, p := range products {
			if o, ok := efficiencyCheck(p); ok {
				out = append(out, o)
			}
		}
	}

	return out, nil
}

func overstockCheck(p domain.ProductSnapshot) (domain.Optimization, bool) {
	if p.CurrentStock <= overstockMinStock {
		return domain.Optimization{}, false
	}
	reduction := int(math.Floor(float64(p.CurrentStock) * overstockReductionRate))
	return domain.Optimization{
		Type:                 domain.OptimizationOverstock,
		ProductID:            p.ID,
		Product:              p.Name,
		SKU:                  p.SKU,
		CurrentStock:         p.CurrentStock,
		RecommendedReduction: reduction,
		PotentialSavings:     roundFloat(p.Cost*float64(reduction), 2),
		Action:               "Consider promotions or discounts",
		Priority:             domain.PriorityMedium,
	}, true
}

// pricingCheck only fires on a known margin; an unknown cost must never look like a loss.
func pricingCheck(p domain.ProductSnapshot, margin *float64) (domain.Optimization, bool) {
	if margin == nil || *margin >= lowMarginThreshold {
		return domain.Optimization{}, false
	}
	recommended := p.Cost * targetMarkup
	return domain.Optimization{
		Type:             domain.OptimizationPricing,
		ProductID:        p.ID,
		Product:          p.Name,
		SKU:              p.SKU,
		CurrentStock:     p.CurrentStock,
		CurrentPrice:     p.Price,
		RecommendedPrice: roundFloat(recommended, 2),
		CurrentMargin:    roundFloat(*margin*100, 2),
		PotentialMargin:  roundFloat((recommended-p.Cost)/recommended*100, 2),
		PotentialSavings: roundFloat((recommended-p.Price)*float64(p.CurrentStock), 2),
		Action:           "Consider price increase",
		Priority:         domain.PriorityMedium,
	}, true
}

func efficiencyCheck(p domain.ProductSnapshot) (domain.Optimization, bool) {
	if p.CurrentStock <= slowMovingMinStock || p.CurrentStock >= slowMovingMaxStock {
		return domain.Optimization{}, false
	}
	reduction := int(math.Floor(float64(p.CurrentStock) * overstockReductionRate))
	return domain.Optimization{
		Type:             domain.OptimizationEfficiency,
		ProductID:        p.ID,
		Product:          p.Name,
		SKU:              p.SKU,
		CurrentStock:     p.CurrentStock,
		RecommendedStock: int(math.Floor(float64(p.CurrentStock) * slowMovingKeepRate)),
		PotentialSavings: roundFloat(p.Cost*float64(reduction), 2),
		Action:           "Reduce reorder quantities",
		Priority:         domain.PriorityLow,
	}, true
}

// SummarizeOptimizations counts optimizations by priority.
func SummarizeOptimizations(opts []domain.Optimization) domain.OptimizationSummary {
	s := domain.OptimizationSummary{TotalOptimizations: len(opts)}
	for _, o := range opts {
		switch o.Priority {
		case domain.PriorityCritical:
			s.Critical++
		case domain.PriorityHigh:
			s.High++
		case domain.PriorityMedium:
			s.Medium++
		case domain.PriorityLow:
			s.Low++
		}
	}
	return s
}
