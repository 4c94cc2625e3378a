package restock

import (
	"math"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
)

// Calculator constants. They are fixed in the current model but live on CalculatorConfig
// so they can be tuned without touching the formulas.
const (
	DefaultSafetyStockMultiplier = 1.5
	DefaultOrderingCost          = 50.0
	DefaultHoldingCostRate       = 0.2
	DefaultReorderQuantity       = 20
	DefaultMonthlyWindowDays     = 30
	DefaultWeeklyWindowDays      = 7
	hoursPerDay                  = 24

	// maxOrderQuantity caps EOQ so extreme cost or demand inputs still fit an int.
	maxOrderQuantity = math.MaxInt32
)

// CalculatorConfig holds the inventory model constants.
type CalculatorConfig struct {
	SafetyStockMultiplier  float64
	OrderingCost           float64
	HoldingCostRate        float64
	DefaultReorderQuantity int
	MonthlyWindowDays      int
	WeeklyWindowDays       int
}

// DefaultCalculatorConfig returns the standard model constants.
func DefaultCalculatorConfig() CalculatorConfig {
	return CalculatorConfig{
		SafetyStockMultiplier:  DefaultSafetyStockMultiplier,
		OrderingCost:           DefaultOrderingCost,
		HoldingCostRate:        DefaultHoldingCostRate,
		DefaultReorderQuantity: DefaultReorderQuantity,
		MonthlyWindowDays:      DefaultMonthlyWindowDays,
		WeeklyWindowDays:       DefaultWeeklyWindowDays,
	}
}

// Calculator derives velocity, reorder point, safety stock, EOQ and margin per product.
type Calculator struct {
	cfg CalculatorConfig
}

// NewCalculator creates a calculator; zero fields in cfg fall back to the defaults.
func NewCalculator(cfg CalculatorConfig) *Calculator {
	def := DefaultCalculatorConfig()
	if cfg.SafetyStockMultiplier <= 0 {
		cfg.SafetyStockMultiplier = def.SafetyStockMultiplier
	}
	if cfg.OrderingCost <= 0 {
		cfg.OrderingCost = def.OrderingCost
	}
	if cfg.HoldingCostRate <= 0 {
		cfg.HoldingCostRate = def.HoldingCostRate
	}
	if cfg.DefaultReorderQuantity <= 0 {
		cfg.DefaultReorderQuantity = def.DefaultReorderQuantity
	}
	if cfg.MonthlyWindowDays <= 0 {
		cfg.MonthlyWindowDays = def.MonthlyWindowDays
	}
	if cfg.WeeklyWindowDays <= 0 {
		cfg.WeeklyWindowDays = def.WeeklyWindowDays
	}
	return &Calculator{cfg: cfg}
}

// Config returns the effective configuration.
func (c *Calculator) Config() CalculatorConfig {
	return c.cfg
}

// Compute returns the metrics for one product. Lines for other products in history are ignored.
func (c *Calculator) Compute(p domain.ProductSnapshot, history []domain.OrderLine, now time.Time) domain.ProductMetrics {
	velocity := c.Velocity(p.ID, history, now)
	metrics := domain.ProductMetrics{Velocity: velocity}

	leadTime := float64(p.LeadTimeDays)
	if leadTime <= 0 {
		leadTime = DefaultLeadTimeDays
	}

	// 1. Safety stock and reorder point. Without sales history the configured
	// static reorder point stays in force.
	if velocity.Daily > 0 {
		safety := math.Ceil(velocity.Daily * leadTime * c.cfg.SafetyStockMultiplier)
		metrics.SafetyStock = int(safety)
		metrics.ReorderPoint = int(math.Ceil(velocity.Daily*leadTime + safety))
	} else {
		metrics.SafetyStock = 0
		metrics.ReorderPoint = p.ReorderPoint
	}

	// 2. Economic order quantity
	metrics.EOQ = c.EOQ(velocity.Monthly, p.Cost)

	// 3. Margin, unknown without a cost
	metrics.Margin = marginOf(p)

	return metrics
}

// ComputeAll computes metrics for every product, indexing history once.
func (c *Calculator) ComputeAll(products []domain.ProductSnapshot, history []domain.OrderLine, now time.Time) map[string]domain.ProductMetrics {
	byProduct := make(map[string][]domain.OrderLine)
	for _, line := range history {
		byProduct[line.ProductID] = append(byProduct[line.ProductID], line)
	}

	out := make(map[string]domain.ProductMetrics, len(products))
	for _, p := range products {
		out[p.ID] = c.Compute(p, byProduct[p.ID], now)
	}
	return out
}

// Velocity sums quantities over the trailing monthly and weekly windows.
// Weekly is the recent week total, not an average.
func (c *Calculator) Velocity(productID string, history []domain.OrderLine, now time.Time) domain.VelocityMetrics {
	monthlyCutoff := now.Add(-time.Duration(c.cfg.MonthlyWindowDays) * hoursPerDay * time.Hour)
	weeklyCutoff := now.Add(-time.Duration(c.cfg.WeeklyWindowDays) * hoursPerDay * time.Hour)

	var monthlyQty, weeklyQty int
	for _, line := range history {
		if line.ProductID != productID || line.Quantity <= 0 {
			continue
		}
		if line.Timestamp.Before(monthlyCutoff) || line.Timestamp.After(now) {
			continue
		}
		monthlyQty += line.Quantity
		if !line.Timestamp.Before(weeklyCutoff) {
			weeklyQty += line.Quantity
		}
	}

	return domain.VelocityMetrics{
		Daily:   float64(monthlyQty) / float64(c.cfg.MonthlyWindowDays),
		Weekly:  float64(weeklyQty),
		Monthly: float64(monthlyQty),
	}
}

// EOQ returns max(1, ceil(sqrt(2*demand*orderingCost/holdingCost))). Without a unit cost the
// holding cost is zero and the default reorder quantity is used instead.
func (c *Calculator) EOQ(monthlyDemand, unitCost float64) int {
	holdingCost := unitCost * c.cfg.HoldingCostRate
	if holdingCost <= 0 {
		return c.cfg.DefaultReorderQuantity
	}

	eoq := math.Sqrt(2 * monthlyDemand * c.cfg.OrderingCost / holdingCost)
	eoq = math.Min(finite(eoq), maxOrderQuantity)

	return int(math.Max(1, math.Ceil(eoq)))
}

// marginOf returns (price-cost)/price, or nil when cost or price is unknown.
func marginOf(p domain.ProductSnapshot) *float64 {
	if p.Cost <= 0 || p.Price <= 0 {
		return nil
	}
	m := (p.Price - p.Cost) / p.Price
	return &m
}
