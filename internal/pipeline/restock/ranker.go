package restock

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// Stock thresholds used by the priority rules.
const (
	highPriorityMaxStock = 5
	poStatusPending      = "pending"
)

// poNamespace seeds deterministic purchase order numbers.
var poNamespace = uuid.MustParse("6f1d3c52-8f4e-4a8e-9a62-3c0f2b7d9e11")

// RankResult holds the restock list and its supplier batches.
type RankResult struct {
	Recommendations []domain.Recommendation
	Batches         []domain.PurchaseOrderBatch
}

// Rank selects products at or below their recomputed reorder point, classifies them and
// groups them into supplier batches. The output depends only on its arguments.
func Rank(products []domain.ProductSnapshot, metrics map[string]domain.ProductMetrics, now time.Time) RankResult {
	recs := make([]domain.Recommendation, 0)
	for _, p := range products {
		m := metricsFor(p, metrics)
		if p.CurrentStock > m.ReorderPoint {
			continue
		}
		recs = append(recs, recommend(p, m))
	}

	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Urgency != b.Urgency {
			return a.Urgency > b.Urgency
		}
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		return a.ProductID < b.ProductID
	})

	return RankResult{
		Recommendations: recs,
		Batches:         BatchBySupplier(recs, now),
	}
}

// metricsFor falls back to the snapshot's static thresholds when no metrics were computed.
func metricsFor(p domain.ProductSnapshot, metrics map[string]domain.ProductMetrics) domain.ProductMetrics {
	if m, ok := metrics[p.ID]; ok {
		return m
	}
	return domain.ProductMetrics{
		ReorderPoint: p.ReorderPoint,
		EOQ:          1,
		Margin:       marginOf(p),
	}
}

func recommend(p domain.ProductSnapshot, m domain.ProductMetrics) domain.Recommendation {
	qty := m.EOQ
	if p.MaxStock > 0 && p.MaxStock-p.CurrentStock > qty {
		qty = p.MaxStock - p.CurrentStock
	}

	var daysUntilStockout *float64
	if m.Velocity.Daily > 0 {
		days := roundFloat(float64(p.CurrentStock)/m.Velocity.Daily, 2)
		daysUntilStockout = &days
	}

	cost := decimal.NewFromFloat(p.Cost).Mul(decimal.NewFromInt(int64(qty)))

	return domain.Recommendation{
		ProductID:                p.ID,
		SKU:                      p.SKU,
		Name:                     p.Name,
		CurrentStock:             p.CurrentStock,
		ReorderPoint:             m.ReorderPoint,
		MaxStock:                 p.MaxStock,
		RecommendedOrderQuantity: qty,
		Priority:                 ClassifyPriority(p.CurrentStock),
		Urgency:                  Urgency(p.CurrentStock, m.Velocity.Daily),
		DaysUntilStockout:        daysUntilStockout,
		EstimatedCost:            cost.Round(2).InexactFloat64(),
		Supplier:                 p.Supplier,
		LeadTimeDays:             p.LeadTimeDays,
		Reasoning: []string{
			fmt.Sprintf("Current stock (%d) at or below reorder point (%d)", p.CurrentStock, m.ReorderPoint),
			fmt.Sprintf("Daily sales velocity: %.2f units", m.Velocity.Daily),
			fmt.Sprintf("Supplier lead time: %d days", p.LeadTimeDays),
			fmt.Sprintf("Economic order quantity: %d units", m.EOQ),
		},
	}
}

// ClassifyPriority maps an under-stocked level to a priority. Callers have already
// excluded products above their reorder point.
func ClassifyPriority(currentStock int) domain.Priority {
	switch {
	case currentStock <= 0:
		return domain.PriorityCritical
	case currentStock <= highPriorityMaxStock:
		return domain.PriorityHigh
	default:
		return domain.PriorityMedium
	}
}

// Urgency scores 0-100 how soon a stockout is expected. Zero velocity cannot be
// projected and scores 0.
func Urgency(currentStock int, daily float64) int {
	if currentStock <= 0 {
		return 100
	}
	if daily <= 0 {
		return 0
	}

	daysRemaining := float64(currentStock) / daily
	switch {
	case daysRemaining <= 1:
		return 95
	case daysRemaining <= 3:
		return 80
	case daysRemaining <= 7:
		return 60
	case daysRemaining <= 14:
		return 40
	default:
		return 20
	}
}

// BatchBySupplier groups recommendations by exact supplier name, preserving the order in
// which suppliers first appear.
func BatchBySupplier(recs []domain.Recommendation, now time.Time) []domain.PurchaseOrderBatch {
	order := make([]string, 0)
	groups := make(map[string][]domain.Recommendation)
	for _, rec := range recs {
		if _, ok := groups[rec.Supplier]; !ok {
			order = append(order, rec.Supplier)
		}
		groups[rec.Supplier] = append(groups[rec.Supplier], rec)
	}

	batches := make([]domain.PurchaseOrderBatch, 0, len(order))
	for _, supplier := range order {
		items := groups[supplier]

		total := decimal.Zero
		maxLead := 0
		priority := domain.BatchNormal
		for _, item := range items {
			total = total.Add(decimal.NewFromFloat(item.EstimatedCost))
			if item.LeadTimeDays > maxLead {
				maxLead = item.LeadTimeDays
			}
			if item.Priority == domain.PriorityCritical {
				priority = domain.BatchUrgent
			}
		}

		batches = append(batches, domain.PurchaseOrderBatch{
			PONumber:              purchaseOrderNumber(supplier, now),
			Supplier:              supplier,
			Items:                 items,
			TotalItems:            len(items),
			TotalCost:             total.Round(2).InexactFloat64(),
			EstimatedDeliveryDate: now.AddDate(0, 0, maxLead),
			Priority:              priority,
			Status:                poStatusPending,
		})
	}

	return batches
}

// purchaseOrderNumber derives a stable PO number from the supplier and run time.
func purchaseOrderNumber(supplier string, now time.Time) string {
	id := uuid.NewSHA1(poNamespace, []byte(supplier+"|"+now.UTC().Format(time.RFC3339Nano)))
	return fmt.Sprintf("PO-%s-%s", now.UTC().Format("20060102"), strings.ToUpper(id.String()[:8]))
}
