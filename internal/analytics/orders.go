// Package analytics loads historical sales into the order history used for velocity.
package analytics

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/kenttraders/aimarketops/backend-go/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBatchSize is the number of rows written per transaction.
	DefaultBatchSize = 500
	// DefaultSKUPrefix matches the IDs given to SellerDynamics products.
	DefaultSKUPrefix = "sd-"
)

// ImportReport counts rows written and rows rejected by an import.
type ImportReport struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// OrderImporter reads order CSV exports and appends them to the order history.
//
// The header must name a quantity column, a date column (created_at, date or
// timestamp) and either product_id or sku. Bare SKUs are prefixed with
// SKUPrefix so they match ingested product IDs.
type OrderImporter struct {
	repo      repository.OrderRepository
	BatchSize int
	SKUPrefix string
}

func NewOrderImporter(repo repository.OrderRepository) *OrderImporter {
	return &OrderImporter{
		repo:      repo,
		BatchSize: DefaultBatchSize,
		SKUPrefix: DefaultSKUPrefix,
	}
}

type columns struct {
	productID int
	sku       int
	quantity  int
	createdAt int
}

func resolveColumns(header []string) (columns, error) {
	cols := columns{productID: -1, sku: -1, quantity: -1, createdAt: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "product_id", "productid":
			cols.productID = i
		case "sku":
			cols.sku = i
		case "quantity", "qty":
			cols.quantity = i
		case "created_at", "date", "timestamp":
			cols.createdAt = i
		}
	}
	if cols.productID < 0 && cols.sku < 0 {
		return cols, errors.New("missing product_id or sku column")
	}
	if cols.quantity < 0 {
		return cols, errors.New("missing quantity column")
	}
	if cols.createdAt < 0 {
		return cols, errors.New("missing created_at column")
	}
	return cols, nil
}

// ImportCSV writes every valid row of r. Rows with a missing product, a
// non-positive quantity or an unparseable date are skipped and counted.
func (im *OrderImporter) ImportCSV(ctx context.Context, r io.Reader) (ImportReport, error) {
	var report ImportReport

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return report, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return report, err
	}

	size := im.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	batch := make([]domain.OrderLine, 0, size)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := im.repo.SaveOrderLines(ctx, batch); err != nil {
			return err
		}
		report.Imported += len(batch)
		batch = batch[:0]
		return nil
	}

	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return report, fmt.Errorf("error reading record %d: %w", row, err)
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		line, ok := im.parseRow(record, cols)
		if !ok {
			log.Warn().Int("row", row).Strs("record", record).Msg("analytics: skipping malformed order row")
			report.Skipped++
			continue
		}
		batch = append(batch, line)
		if len(batch) >= size {
			if err := flush(); err != nil {
				return report, err
			}
		}
	}
	if err := flush(); err != nil {
		return report, err
	}

	log.Info().Int("imported", report.Imported).Int("skipped", report.Skipped).Msg("analytics: order history imported")
	return report, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (im *OrderImporter) parseRow(record []string, cols columns) (domain.OrderLine, bool) {
	id := field(record, cols.productID)
	if id == "" {
		if sku := field(record, cols.sku); sku != "" {
			id = im.SKUPrefix + sku
		}
	}
	if id == "" {
		return domain.OrderLine{}, false
	}

	qty, err := strconv.Atoi(field(record, cols.quantity))
	if err != nil || qty <= 0 {
		return domain.OrderLine{}, false
	}

	at, ok := parseTime(field(record, cols.createdAt))
	if !ok {
		return domain.OrderLine{}, false
	}
	return domain.OrderLine{ProductID: id, Quantity: qty, Timestamp: at}, true
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
