package analytics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryOrders struct {
	batches [][]domain.OrderLine
	err     error
}

func (m *memoryOrders) SaveOrderLines(_ context.Context, lines []domain.OrderLine) error {
	if m.err != nil {
		return m.err
	}
	m.batches = append(m.batches, append([]domain.OrderLine(nil), lines...))
	return nil
}

func (m *memoryOrders) all() []domain.OrderLine {
	var out []domain.OrderLine
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

func TestImportCSV_ProductIDs(t *testing.T) {
	repo := &memoryOrders{}
	im := NewOrderImporter(repo)

	input := "product_id,quantity,created_at\n" +
		"sd-KT-KETTLE-01,3,2025-08-01T10:00:00Z\n" +
		"shop-1001,1,2025-08-02\n"

	report, err := im.ImportCSV(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, ImportReport{Imported: 2, Skipped: 0}, report)

	lines := repo.all()
	require.Len(t, lines, 2)
	assert.Equal(t, "sd-KT-KETTLE-01", lines[0].ProductID)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC), lines[0].Timestamp)
	assert.Equal(t, time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC), lines[1].Timestamp)
}

func TestImportCSV_SKUColumnGetsPrefix(t *testing.T) {
	repo := &memoryOrders{}
	im := NewOrderImporter(repo)

	input := "SKU,Qty,Date\nKT-MUG-04,2,2025-07-30\n"
	report, err := im.ImportCSV(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, "sd-KT-MUG-04", repo.all()[0].ProductID)
}

func TestImportCSV_SkipsMalformedRows(t *testing.T) {
	repo := &memoryOrders{}
	im := NewOrderImporter(repo)

	input := "product_id,quantity,created_at\n" +
		",2,2025-08-01\n" +
		"sd-A,zero,2025-08-01\n" +
		"sd-A,-1,2025-08-01\n" +
		"sd-A,2,yesterday\n" +
		"sd-A,2\n" +
		"sd-A,4,2025-08-01\n"

	report, err := im.ImportCSV(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, ImportReport{Imported: 1, Skipped: 5}, report)
}

func TestImportCSV_Batches(t *testing.T) {
	repo := &memoryOrders{}
	im := NewOrderImporter(repo)
	im.BatchSize = 2

	var b strings.Builder
	b.WriteString("product_id,quantity,created_at\n")
	for i := 0; i < 5; i++ {
		b.WriteString("sd-A,1,2025-08-01\n")
	}

	report, err := im.ImportCSV(context.Background(), strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Equal(t, 5, report.Imported)
	require.Len(t, repo.batches, 3)
	assert.Len(t, repo.batches[2], 1)
}

func TestImportCSV_HeaderErrors(t *testing.T) {
	im := NewOrderImporter(&memoryOrders{})

	_, err := im.ImportCSV(context.Background(), strings.NewReader("quantity,created_at\n1,2025-08-01\n"))
	assert.ErrorContains(t, err, "product_id or sku")

	_, err = im.ImportCSV(context.Background(), strings.NewReader("sku,created_at\n"))
	assert.ErrorContains(t, err, "quantity")

	_, err = im.ImportCSV(context.Background(), strings.NewReader(""))
	assert.Error(t, err)
}

func TestImportCSV_WriteFailure(t *testing.T) {
	boom := errors.New("db down")
	im := NewOrderImporter(&memoryOrders{err: boom})

	report, err := im.ImportCSV(context.Background(), strings.NewReader("sku,quantity,date\nA,1,2025-08-01\n"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, report.Imported)
}

func TestImportCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOrderImporter(&memoryOrders{}).ImportCSV(ctx, strings.NewReader("sku,quantity,date\nA,1,2025-08-01\n"))
	assert.ErrorIs(t, err, context.Canceled)
}
