package domain

import "strings"

// Priority classifies how soon a product needs action.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

var priorityRanks = map[Priority]int{
	PriorityCritical: 3,
	PriorityHigh:     2,
	PriorityMedium:   1,
	PriorityLow:      0,
}

// Rank returns the ordering weight of a priority, higher is more pressing.
func (p Priority) Rank() int {
	return priorityRanks[p]
}

// BatchPriority is the priority of a purchase order batch.
type BatchPriority string

const (
	BatchUrgent BatchPriority = "urgent"
	BatchNormal BatchPriority = "normal"
)

// OptimizationType names the optimization check that fired.
type OptimizationType string

const (
	OptimizationOverstock  OptimizationType = "overstock_reduction"
	OptimizationPricing    OptimizationType = "pricing_optimization"
	OptimizationEfficiency OptimizationType = "efficiency_improvement"
)

// OptimizationMode selects which optimization checks run.
type OptimizationMode string

const (
	ModeAll        OptimizationMode = "all"
	ModeOverstock  OptimizationMode = "overstock"
	ModePricing    OptimizationMode = "pricing"
	ModeEfficiency OptimizationMode = "efficiency"
)

var optimizationModes = map[string]OptimizationMode{
	"all":        ModeAll,
	"overstock":  ModeOverstock,
	"pricing":    ModePricing,
	"efficiency": ModeEfficiency,
}

// ParseOptimizationMode returns the mode for a label (case-insensitive). An empty label is "all".
func ParseOptimizationMode(label string) (OptimizationMode, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return ModeAll, true
	}
	mode, ok := optimizationModes[label]

	return mode, ok
}

// AlertType names the condition an alert reports.
type AlertType string

const (
	AlertStockout          AlertType = "stockout"
	AlertLowStock          AlertType = "low_stock"
	AlertPredictedStockout AlertType = "predicted_stockout"
)

// AlertSeverity ranks alerts for display.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityWarning  AlertSeverity = "warning"
	SeverityInfo     AlertSeverity = "info"
)
