// internal/domain/models.go
package domain

import "time"

// Source identifies the upstream system a product snapshot was normalized from.
type Source string

const (
	SourceSellerDynamics Source = "sellerdynamics"
	SourceShopify        Source = "shopify"
)

// ProductSnapshot is the canonical per-product record produced by ingestion.
type ProductSnapshot struct {
	ID             string  `json:"id" db:"id"`
	SKU            string  `json:"sku" db:"sku"`
	Name           string  `json:"name" db:"name"`
	CurrentStock   int     `json:"currentStock" db:"current_stock"`
	AllocatedStock int     `json:"allocatedStock" db:"allocated_stock"`
	AvailableStock int     `json:"availableStock" db:"available_stock"`
	Cost           float64 `json:"cost" db:"cost"`
	Price          float64 `json:"price" db:"price"`
	ReorderPoint   int     `json:"reorderPoint" db:"reorder_point"`
	MaxStock       int     `json:"maxStock" db:"max_stock"`
	Supplier       string  `json:"supplier" db:"supplier"`
	LeadTimeDays   int     `json:"leadTimeDays" db:"lead_time_days"`
	Source         Source  `json:"source" db:"source"`
}

// OrderLine is a single sold quantity used for velocity calculation.
type OrderLine struct {
	ProductID string    `json:"productId" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Timestamp time.Time `json:"timestamp" db:"created_at"`
}

// VelocityMetrics holds trailing sales rates. Monthly is the 30 day quantity sum.
type VelocityMetrics struct {
	Daily   float64 `json:"daily"`
	Weekly  float64 `json:"weekly"`
	Monthly float64 `json:"monthly"`
}

// ProductMetrics are the derived figures for one product. Margin is nil when unknown.
type ProductMetrics struct {
	Velocity     VelocityMetrics `json:"velocity"`
	ReorderPoint int             `json:"reorderPoint"`
	SafetyStock  int             `json:"safetyStock"`
	EOQ          int             `json:"eoq"`
	Margin       *float64        `json:"margin"`
}

// Recommendation is a single restock suggestion.
type Recommendation struct {
	ProductID                string   `json:"productId"`
	SKU                      string   `json:"sku"`
	Name                     string   `json:"productName"`
	CurrentStock             int      `json:"currentStock"`
	ReorderPoint             int      `json:"reorderPoint"`
	MaxStock                 int      `json:"maxStock"`
	RecommendedOrderQuantity int      `json:"recommendedOrder"`
	Priority                 Priority `json:"priority"`
	Urgency                  int      `json:"urgency"`
	DaysUntilStockout        *float64 `json:"daysUntilStockout"`
	EstimatedCost            float64  `json:"estimatedCost"`
	Supplier                 string   `json:"supplier"`
	LeadTimeDays             int      `json:"leadTime"`
	Reasoning                []string `json:"reasoning"`
}

// PurchaseOrderBatch groups recommendations for one supplier.
type PurchaseOrderBatch struct {
	PONumber              string           `json:"poNumber"`
	Supplier              string           `json:"supplier"`
	Items                 []Recommendation `json:"items"`
	TotalItems            int              `json:"totalItems"`
	TotalCost             float64          `json:"totalCost"`
	EstimatedDeliveryDate time.Time        `json:"estimatedDelivery"`
	Priority              BatchPriority    `json:"priority"`
	Status                string           `json:"status"`
}

// Optimization is a single overstock, pricing or efficiency suggestion.
type Optimization struct {
	Type                 OptimizationType `json:"type"`
	ProductID            string           `json:"productId"`
	Product              string           `json:"product"`
	SKU                  string           `json:"sku"`
	CurrentStock         int              `json:"currentStock"`
	RecommendedReduction int              `json:"recommendedReduction,omitempty"`
	RecommendedStock     int              `json:"recommendedStock,omitempty"`
	CurrentPrice         float64          `json:"currentPrice,omitempty"`
	RecommendedPrice     float64          `json:"recommendedPrice,omitempty"`
	CurrentMargin        float64          `json:"currentMargin,omitempty"`
	PotentialMargin      float64          `json:"potentialMargin,omitempty"`
	PotentialSavings     float64          `json:"potentialSavings"`
	Action               string           `json:"action"`
	Priority             Priority         `json:"priority"`
}

// Alert is a stock-level warning surfaced to the dashboard.
type Alert struct {
	ID                    string        `json:"id"`
	Type                  AlertType     `json:"type"`
	Severity              AlertSeverity `json:"severity"`
	Title                 string        `json:"title"`
	Message               string        `json:"message"`
	ProductID             string        `json:"productId"`
	Product               string        `json:"product"`
	SKU                   string        `json:"sku"`
	CurrentStock          int           `json:"currentStock"`
	Threshold             int           `json:"threshold,omitempty"`
	PredictedStockoutDate *time.Time    `json:"predictedStockoutDate,omitempty"`
	RecommendedAction     string        `json:"recommendedAction"`
	Timestamp             time.Time     `json:"timestamp"`
}

// Notification summarises a group of recommendations for operators.
type Notification struct {
	Type     string   `json:"type"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Products []string `json:"products"`
	Action   string   `json:"action"`
}

// RestockSummary is the aggregate block of the auto-restock response.
type RestockSummary struct {
	TotalItemsToRestock int              `json:"totalItemsToRestock"`
	EstimatedCost       float64          `json:"estimatedCost"`
	PriorityItems       int              `json:"priorityItems"`
	ByPriority          map[Priority]int `json:"byPriority"`
	SkippedItems        int              `json:"skippedItems"`
	UnavailableSources  []string         `json:"unavailableSources,omitempty"`
	Note                string           `json:"note,omitempty"`
}

// RestockResult is the JSON contract of the auto-restock action.
type RestockResult struct {
	Recommendations []Recommendation     `json:"restockRecommendations"`
	Batches         []PurchaseOrderBatch `json:"purchaseOrders"`
	Notifications   []Notification       `json:"notifications"`
	Summary         RestockSummary       `json:"summary"`
}

// OptimizationSummary counts optimizations by priority.
type OptimizationSummary struct {
	TotalOptimizations int `json:"totalOptimizations"`
	Critical           int `json:"critical"`
	High               int `json:"high"`
	Medium             int `json:"medium"`
	Low                int `json:"low"`
}

// AlertSummary counts alerts by severity.
type AlertSummary struct {
	CriticalAlerts int `json:"criticalAlerts"`
	WarningAlerts  int `json:"warningAlerts"`
	InfoAlerts     int `json:"infoAlerts"`
}

// RestockRun records one persisted computation.
type RestockRun struct {
	ID            int64     `json:"id" db:"id"`
	ComputedAt    time.Time `json:"computed_at" db:"computed_at"`
	TotalItems    int       `json:"total_items" db:"total_items"`
	EstimatedCost float64   `json:"estimated_cost" db:"estimated_cost"`
	SkippedItems  int       `json:"skipped_items" db:"skipped_items"`
}

// OptimizationReport is the JSON contract of the optimize-inventory action.
type OptimizationReport struct {
	Optimizations      []Optimization      `json:"optimizations"`
	Summary            OptimizationSummary `json:"summary"`
	UnavailableSources []string            `json:"unavailableSources,omitempty"`
}

// AlertReport is the JSON contract of the generate-alerts action.
type AlertReport struct {
	Alerts             []Alert      `json:"alerts"`
	Summary            AlertSummary `json:"summary"`
	UnavailableSources []string     `json:"unavailableSources,omitempty"`
}

// InventorySync reports one copy of upstream products into the local store.
type InventorySync struct {
	SyncedAt           time.Time `json:"syncedAt"`
	Saved              int       `json:"saved"`
	Skipped            int       `json:"skipped"`
	UnavailableSources []string  `json:"unavailableSources,omitempty"`
}
