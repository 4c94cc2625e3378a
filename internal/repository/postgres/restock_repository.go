// backend-go/internal/repository/postgres/restock_repository.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/kenttraders/aimarketops/backend-go/internal/repository"
	"github.com/rs/zerolog/log"
)

type restockRepository struct {
	db *DB
}

// NewRestockRepository returns a repository for inventory reads and restock run writes.
func NewRestockRepository(db *DB) *restockRepository {
	return &restockRepository{db: db}
}

var (
	_ repository.InventoryRepository = (*restockRepository)(nil)
	_ repository.OrderRepository     = (*restockRepository)(nil)
	_ repository.RestockRepository   = (*restockRepository)(nil)
)

func (r *restockRepository) GetProducts(ctx context.Context) ([]domain.ProductSnapshot, error) {
	query := `
		SELECT id, sku, name, current_stock, allocated_stock, available_stock,
		       cost, price, reorder_point, max_stock, supplier, lead_time_days, source
		FROM inventory_products
		ORDER BY id
	`

	products := make([]domain.ProductSnapshot, 0)
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return products, nil
}

// SaveProducts upserts snapshots by id in one transaction.
func (r *restockRepository) SaveProducts(ctx context.Context, products []domain.ProductSnapshot) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO inventory_products (
				id, sku, name, current_stock, allocated_stock, available_stock,
				cost, price, reorder_point, max_stock, supplier, lead_time_days, source, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
			ON CONFLICT (id) DO UPDATE SET
				sku = EXCLUDED.sku,
				name = EXCLUDED.name,
				current_stock = EXCLUDED.current_stock,
				allocated_stock = EXCLUDED.allocated_stock,
				available_stock = EXCLUDED.available_stock,
				cost = EXCLUDED.cost,
				price = EXCLUDED.price,
				reorder_point = EXCLUDED.reorder_point,
				max_stock = EXCLUDED.max_stock,
				supplier = EXCLUDED.supplier,
				lead_time_days = EXCLUDED.lead_time_days,
				source = EXCLUDED.source,
				updated_at = NOW()
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, p := range products {
			_, err := stmt.ExecContext(ctx,
				p.ID,
				p.SKU,
				p.Name,
				p.CurrentStock,
				p.AllocatedStock,
				p.AvailableStock,
				p.Cost,
				p.Price,
				p.ReorderPoint,
				p.MaxStock,
				p.Supplier,
				p.LeadTimeDays,
				p.Source,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert product %s: %w", p.ID, err)
			}
		}

		log.Debug().Int("products", len(products)).Msg("inventory products saved")
		return nil
	})
}

func (r *restockRepository) OrderHistory(ctx context.Context, since time.Time) ([]domain.OrderLine, error) {
	query := `
		SELECT product_id, quantity, created_at
		FROM order_lines
		WHERE created_at >= $1
		ORDER BY created_at
	`

	lines := make([]domain.OrderLine, 0)
	if err := r.db.SelectContext(ctx, &lines, query, since); err != nil {
		return nil, fmt.Errorf("failed to get order history: %w", err)
	}
	return lines, nil
}

// SaveOrderLines inserts order lines in one transaction.
func (r *restockRepository) SaveOrderLines(ctx context.Context, lines []domain.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO order_lines (product_id, quantity, created_at)
			VALUES ($1, $2, $3)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, l := range lines {
			if _, err := stmt.ExecContext(ctx, l.ProductID, l.Quantity, l.Timestamp); err != nil {
				return fmt.Errorf("failed to insert order line for %s: %w", l.ProductID, err)
			}
		}
		return nil
	})
}

// SaveRun stores the run, its batches and their items in one transaction and sets run.ID.
func (r *restockRepository) SaveRun(ctx context.Context, run *domain.RestockRun, batches []domain.PurchaseOrderBatch) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		// 1. Run header
		err := tx.QueryRowContext(ctx, `
			INSERT INTO restock_runs (computed_at, total_items, estimated_cost, skipped_items)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, run.ComputedAt, run.TotalItems, run.EstimatedCost, run.SkippedItems).Scan(&run.ID)
		if err != nil {
			return fmt.Errorf("failed to insert restock run: %w", err)
		}

		// 2. Batches and items
		itemStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO purchase_order_items (
				batch_id, product_id, sku, product_name, current_stock, reorder_point,
				max_stock, recommended_order, priority, urgency, days_until_stockout,
				estimated_cost, lead_time_days
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer itemStmt.Close()

		for _, b := range batches {
			batchID, err := r.insertBatch(ctx, tx, run.ID, b)
			if err != nil {
				return err
			}
			for _, item := range b.Items {
				_, err := itemStmt.ExecContext(ctx,
					batchID,
					item.ProductID,
					item.SKU,
					item.Name,
					item.CurrentStock,
					item.ReorderPoint,
					item.MaxStock,
					item.RecommendedOrderQuantity,
					item.Priority,
					item.Urgency,
					item.DaysUntilStockout,
					item.EstimatedCost,
					item.LeadTimeDays,
				)
				if err != nil {
					return fmt.Errorf("failed to insert purchase order item: %w", err)
				}
			}
		}

		log.Debug().Int64("run_id", run.ID).Int("batches", len(batches)).Msg("restock run saved")
		return nil
	})
}

func (r *restockRepository) insertBatch(ctx context.Context, tx *sql.Tx, runID int64, b domain.PurchaseOrderBatch) (int64, error) {
	var id int64
	query := `
		INSERT INTO purchase_order_batches (
			run_id, po_number, supplier, total_items, total_cost,
			estimated_delivery, priority, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := tx.QueryRowContext(ctx, query,
		runID, b.PONumber, b.Supplier, b.TotalItems, b.TotalCost,
		b.EstimatedDeliveryDate, b.Priority, b.Status,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert purchase order batch: %w", err)
	}
	return id, nil
}

func (r *restockRepository) ListRuns(ctx context.Context, filter *repository.RunFilter) ([]domain.RestockRun, error) {
	filterClause, args := buildRunFilterClause(filter, "r.", 1)
	limit, offset := pageBounds(filter)

	query := fmt.Sprintf(`
		SELECT r.id, r.computed_at, r.total_items, r.estimated_cost, r.skipped_items
		FROM restock_runs r
		WHERE 1 = 1 %s
		ORDER BY r.computed_at DESC, r.id DESC
		LIMIT $%d OFFSET $%d
	`, filterClause, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	runs := make([]domain.RestockRun, 0)
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list restock runs: %w", err)
	}
	return runs, nil
}

type batchRow struct {
	ID                int64     `db:"id"`
	PONumber          string    `db:"po_number"`
	Supplier          string    `db:"supplier"`
	TotalItems        int       `db:"total_items"`
	TotalCost         float64   `db:"total_cost"`
	EstimatedDelivery time.Time `db:"estimated_delivery"`
	Priority          string    `db:"priority"`
	Status            string    `db:"status"`
}

type itemRow struct {
	BatchID           int64    `db:"batch_id"`
	ProductID         string   `db:"product_id"`
	SKU               string   `db:"sku"`
	ProductName       string   `db:"product_name"`
	CurrentStock      int      `db:"current_stock"`
	ReorderPoint      int      `db:"reorder_point"`
	MaxStock          int      `db:"max_stock"`
	RecommendedOrder  int      `db:"recommended_order"`
	Priority          string   `db:"priority"`
	Urgency           int      `db:"urgency"`
	DaysUntilStockout *float64 `db:"days_until_stockout"`
	EstimatedCost     float64  `db:"estimated_cost"`
	LeadTimeDays      int      `db:"lead_time_days"`
}

func (r *restockRepository) GetRunBatches(ctx context.Context, runID int64) ([]domain.PurchaseOrderBatch, error) {
	var batches []batchRow
	err := r.db.SelectContext(ctx, &batches, `
		SELECT id, po_number, supplier, total_items, total_cost, estimated_delivery, priority, status
		FROM purchase_order_batches
		WHERE run_id = $1
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase order batches: %w", err)
	}

	var items []itemRow
	err = r.db.SelectContext(ctx, &items, `
		SELECT i.batch_id, i.product_id, i.sku, i.product_name, i.current_stock, i.reorder_point,
		       i.max_stock, i.recommended_order, i.priority, i.urgency, i.days_until_stockout,
		       i.estimated_cost, i.lead_time_days
		FROM purchase_order_items i
		JOIN purchase_order_batches b ON b.id = i.batch_id
		WHERE b.run_id = $1
		ORDER BY i.id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase order items: %w", err)
	}

	return assembleBatches(batches, items), nil
}

// assembleBatches attaches item rows to their batch, keeping both orders.
func assembleBatches(batches []batchRow, items []itemRow) []domain.PurchaseOrderBatch {
	byBatch := make(map[int64][]domain.Recommendation, len(batches))
	for _, it := range items {
		byBatch[it.BatchID] = append(byBatch[it.BatchID], domain.Recommendation{
			ProductID:                it.ProductID,
			SKU:                      it.SKU,
			Name:                     it.ProductName,
			CurrentStock:             it.CurrentStock,
			ReorderPoint:             it.ReorderPoint,
			MaxStock:                 it.MaxStock,
			RecommendedOrderQuantity: it.RecommendedOrder,
			Priority:                 domain.Priority(it.Priority),
			Urgency:                  it.Urgency,
			DaysUntilStockout:        it.DaysUntilStockout,
			EstimatedCost:            it.EstimatedCost,
			LeadTimeDays:             it.LeadTimeDays,
		})
	}

	out := make([]domain.PurchaseOrderBatch, 0, len(batches))
	for _, b := range batches {
		recs := byBatch[b.ID]
		if recs == nil {
			recs = []domain.Recommendation{}
		}
		for i := range recs {
			recs[i].Supplier = b.Supplier
		}
		out = append(out, domain.PurchaseOrderBatch{
			PONumber:              b.PONumber,
			Supplier:              b.Supplier,
			Items:                 recs,
			TotalItems:            b.TotalItems,
			TotalCost:             b.TotalCost,
			EstimatedDeliveryDate: b.EstimatedDelivery,
			Priority:              domain.BatchPriority(b.Priority),
			Status:                b.Status,
		})
	}
	return out
}
