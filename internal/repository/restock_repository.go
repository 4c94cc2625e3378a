// backend-go/internal/repository/restock_repository.go
package repository

import (
	"context"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
)

// InventoryRepository stores product snapshots and reads them back with sales.
type InventoryRepository interface {
	SaveProducts(ctx context.Context, products []domain.ProductSnapshot) error
	GetProducts(ctx context.Context) ([]domain.ProductSnapshot, error)
	OrderHistory(ctx context.Context, since time.Time) ([]domain.OrderLine, error)
}

// OrderRepository appends sold quantities to the order history.
type OrderRepository interface {
	SaveOrderLines(ctx context.Context, lines []domain.OrderLine) error
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	Since   *time.Time
	MinCost *float64
	Limit   int
	Offset  int
}

// RestockRepository persists computed restock runs and their purchase orders.
type RestockRepository interface {
	SaveRun(ctx context.Context, run *domain.RestockRun, batches []domain.PurchaseOrderBatch) error
	ListRuns(ctx context.Context, filter *RunFilter) ([]domain.RestockRun, error)
	GetRunBatches(ctx context.Context, runID int64) ([]domain.PurchaseOrderBatch, error)
}
