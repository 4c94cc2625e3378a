package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
)

const (
	contentTypeCSV  = "text/csv"
	contentTypeJSON = "application/json"
)

var recommendationHeader = []string{
	"po_number", "supplier", "product_id", "sku", "product_name", "current_stock",
	"reorder_point", "recommended_order", "priority", "urgency", "days_until_stockout",
	"estimated_cost", "lead_time_days",
}

// ReportKeys are the object keys written for one export.
type ReportKeys struct {
	CSV  string
	JSON string
}

// ReportKeysFor derives the object keys of a run computed at ts.
func ReportKeysFor(ts time.Time) ReportKeys {
	base := fmt.Sprintf("restock/%s/restock-%s", ts.UTC().Format("2006/01/02"), ts.UTC().Format("20060102T150405Z"))
	return ReportKeys{CSV: base + ".csv", JSON: base + ".json"}
}

// RecommendationsCSV renders one row per purchase order line.
func RecommendationsCSV(result domain.RestockResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(recommendationHeader); err != nil {
		return nil, err
	}

	for _, batch := range result.Batches {
		for _, item := range batch.Items {
			days := ""
			if item.DaysUntilStockout != nil {
				days = strconv.FormatFloat(*item.DaysUntilStockout, 'f', 2, 64)
			}
			row := []string{
				batch.PONumber,
				batch.Supplier,
				item.ProductID,
				item.SKU,
				item.Name,
				strconv.Itoa(item.CurrentStock),
				strconv.Itoa(item.ReorderPoint),
				strconv.Itoa(item.RecommendedOrderQuantity),
				string(item.Priority),
				strconv.Itoa(item.Urgency),
				days,
				strconv.FormatFloat(item.EstimatedCost, 'f', 2, 64),
				strconv.Itoa(item.LeadTimeDays),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportRestockReport writes the CSV and JSON renderings of result.
func ExportRestockReport(ctx context.Context, store ObjectStorage, result domain.RestockResult, computedAt time.Time) (ReportKeys, error) {
	if store == nil {
		return ReportKeys{}, ErrNotConfigured
	}
	keys := ReportKeysFor(computedAt)

	csvData, err := RecommendationsCSV(result)
	if err != nil {
		return ReportKeys{}, fmt.Errorf("render csv: %w", err)
	}
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return ReportKeys{}, fmt.Errorf("render json: %w", err)
	}

	if err := store.UploadObject(ctx, keys.CSV, csvData, contentTypeCSV); err != nil {
		return ReportKeys{}, err
	}
	if err := store.UploadObject(ctx, keys.JSON, jsonData, contentTypeJSON); err != nil {
		return ReportKeys{}, err
	}
	return keys, nil
}
