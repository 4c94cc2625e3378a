package restock

import (
	"fmt"
	"math"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
)

const (
	// DefaultAlertThreshold is the low-stock level used when the caller gives none.
	DefaultAlertThreshold   = 10
	predictionMaxStock      = 5
	predictionHorizonDays   = 7
	notificationProductsCap = 5
)

// GenerateAlerts flags stockouts and low stock, and optionally projects stockouts for
// nearly empty products that have sales velocity.
func GenerateAlerts(products []domain.ProductSnapshot, metrics map[string]domain.ProductMetrics, threshold int, includePredictions bool, now time.Time) []domain.Alert {
	if threshold <= 0 {
		threshold = DefaultAlertThreshold
	}

	alerts := make([]domain.Alert, 0)
	for _, p := range products {
		switch {
		case p.CurrentStock == 0:
			alerts = append(alerts, domain.Alert{
				ID:                "alert-" + p.ID,
				Type:              domain.AlertStockout,
				Severity:          domain.SeverityCritical,
				Title:             "Out of Stock",
				Message:           fmt.Sprintf("%s (%s) is out of stock", p.Name, p.SKU),
				ProductID:         p.ID,
				Product:           p.Name,
				SKU:               p.SKU,
				CurrentStock:      p.CurrentStock,
				RecommendedAction: "Restock immediately",
				Timestamp:         now,
			})
		case p.CurrentStock <= threshold:
			alerts = append(alerts, domain.Alert{
				ID:                "alert-" + p.ID,
				Type:              domain.AlertLowStock,
				Severity:          domain.SeverityWarning,
				Title:             "Low Stock",
				Message:           fmt.Sprintf("%s (%s) is running low on stock", p.Name, p.SKU),
				ProductID:         p.ID,
				Product:           p.Name,
				SKU:               p.SKU,
				CurrentStock:      p.CurrentStock,
				Threshold:         threshold,
				RecommendedAction: "Consider restocking",
				Timestamp:         now,
			})
		}
	}

	if includePredictions {
		alerts = append(alerts, predictStockouts(products, metrics, now)...)
	}

	return alerts
}

func predictStockouts(products []domain.ProductSnapshot, metrics map[string]domain.ProductMetrics, now time.Time) []domain.Alert {
	alerts := make([]domain.Alert, 0)
	for _, p := range products {
		if p.CurrentStock <= 0 || p.CurrentStock > predictionMaxStock {
			continue
		}
		daily := metricsFor(p, metrics).Velocity.Daily
		if daily <= 0 {
			continue
		}
		days := int(math.Floor(float64(p.CurrentStock) / daily))
		if days > predictionHorizonDays {
			continue
		}
		date := now.AddDate(0, 0, days)
		alerts = append(alerts, domain.Alert{
			ID:                    "prediction-" + p.ID,
			Type:                  domain.AlertPredictedStockout,
			Severity:              domain.SeverityWarning,
			Title:                 "Predicted Stockout",
			Message:               fmt.Sprintf("%s (%s) may run out of stock in %d days", p.Name, p.SKU, days),
			ProductID:             p.ID,
			Product:               p.Name,
			SKU:                   p.SKU,
			CurrentStock:          p.CurrentStock,
			PredictedStockoutDate: &date,
			RecommendedAction:     "Plan restocking",
			Timestamp:             now,
		})
	}
	return alerts
}

// SummarizeAlerts counts alerts by severity.
func SummarizeAlerts(alerts []domain.Alert) domain.AlertSummary {
	var s domain.AlertSummary
	for _, a := range alerts {
		switch a.Severity {
		case domain.SeverityCritical:
			s.CriticalAlerts++
		case domain.SeverityWarning:
			s.WarningAlerts++
		case domain.SeverityInfo:
			s.InfoAlerts++
		}
	}
	return s
}

// GenerateNotifications builds the critical and low-stock operator notifications.
func GenerateNotifications(recs []domain.Recommendation) []domain.Notification {
	var critical, high []string
	for _, r := range recs {
		switch r.Priority {
		case domain.PriorityCritical:
			critical = append(critical, r.Name)
		case domain.PriorityHigh:
			high = append(high, r.Name)
		}
	}

	notifications := make([]domain.Notification, 0, 2)
	if len(critical) > 0 {
		notifications = append(notifications, domain.Notification{
			Type:     "critical",
			Title:    "Critical Stock Alert",
			Message:  fmt.Sprintf("%d products are out of stock and need immediate attention", len(critical)),
			Products: capNames(critical),
			Action:   "restock",
		})
	}
	if len(high) > 0 {
		notifications = append(notifications, domain.Notification{
			Type:     "warning",
			Title:    "Low Stock Alert",
			Message:  fmt.Sprintf("%d products are running low on stock", len(high)),
			Products: capNames(high),
			Action:   "restock",
		})
	}
	return notifications
}

func capNames(names []string) []string {
	if len(names) > notificationProductsCap {
		return names[:notificationProductsCap]
	}
	return names
}
