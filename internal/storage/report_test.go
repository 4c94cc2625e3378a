package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() domain.RestockResult {
	days := 2.5
	item := domain.Recommendation{
		ProductID: "sd-A", SKU: "A", Name: "Anvil, large", CurrentStock: 5, ReorderPoint: 35,
		RecommendedOrderQuantity: 95, Priority: domain.PriorityHigh, Urgency: 80,
		DaysUntilStockout: &days, EstimatedCost: 950, Supplier: "Acme", LeadTimeDays: 7,
	}
	return domain.RestockResult{
		Recommendations: []domain.Recommendation{item},
		Batches: []domain.PurchaseOrderBatch{{
			PONumber: "PO-20250804-ABCDEF12", Supplier: "Acme", Items: []domain.Recommendation{item},
			TotalItems: 1, TotalCost: 950, Priority: domain.BatchNormal, Status: "pending",
		}},
	}
}

func TestRecommendationsCSV(t *testing.T) {
	data, err := RecommendationsCSV(sampleResult())
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, recommendationHeader, rows[0])
	assert.Equal(t, "Anvil, large", rows[1][4])
	assert.Equal(t, "2.50", rows[1][10])
	assert.Equal(t, "950.00", rows[1][11])
}

func TestExportRestockReport_Local(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStorage(dir)
	ts := time.Date(2025, 8, 4, 12, 30, 0, 0, time.UTC)

	keys, err := ExportRestockReport(context.Background(), store, sampleResult(), ts)
	require.NoError(t, err)
	assert.Equal(t, "restock/2025/08/04/restock-20250804T123000Z.csv", keys.CSV)

	raw, err := os.ReadFile(filepath.Join(dir, "restock", "2025", "08", "04", "restock-20250804T123000Z.json"))
	require.NoError(t, err)
	var decoded domain.RestockResult
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "PO-20250804-ABCDEF12", decoded.Batches[0].PONumber)

	objects, err := store.ListObjects(context.Background(), "restock/2025/")
	require.NoError(t, err)
	assert.Len(t, objects, 2)

	dest := filepath.Join(t.TempDir(), "copy.csv")
	require.NoError(t, store.DownloadObject(context.Background(), keys.CSV, dest))
	assert.FileExists(t, dest)
}

func TestExportRestockReport_NoStore(t *testing.T) {
	_, err := ExportRestockReport(context.Background(), nil, sampleResult(), time.Now())

	assert.ErrorIs(t, err, ErrNotConfigured)
}
