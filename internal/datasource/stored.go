package datasource

import (
	"context"
	"fmt"
	"strings"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/kenttraders/aimarketops/backend-go/internal/pipeline/restock"
)

// ProductReader reads product snapshots saved by an earlier sync.
type ProductReader interface {
	GetProducts(ctx context.Context) ([]domain.ProductSnapshot, error)
}

// StoredSource replays saved snapshots of one upstream as that upstream's payload, so they
// pass through the same normalization as live data.
type StoredSource struct {
	reader ProductReader
	kind   domain.Source
}

func NewStoredSource(reader ProductReader, kind domain.Source) *StoredSource {
	return &StoredSource{reader: reader, kind: kind}
}

func (s *StoredSource) Name() domain.Source { return s.kind }

func (s *StoredSource) FetchPayload(ctx context.Context) (restock.RawPayload, error) {
	products, err := s.reader.GetProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("read stored %s products: %w", s.kind, err)
	}

	switch s.kind {
	case domain.SourceSellerDynamics:
		payload := &restock.SellerDynamicsPayload{StockLevels: make([]restock.SellerDynamicsItem, 0)}
		for _, p := range products {
			if p.Source == s.kind {
				payload.StockLevels = append(payload.StockLevels, sellerDynamicsItem(p))
			}
		}
		return payload, nil
	case domain.SourceShopify:
		payload := &restock.ShopifyPayload{Products: make([]restock.ShopifyProduct, 0)}
		for _, p := range products {
			if p.Source == s.kind {
				payload.Products = append(payload.Products, shopifyProduct(p))
			}
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("stored source: unsupported kind %q", s.kind)
	}
}

func sellerDynamicsItem(p domain.ProductSnapshot) restock.SellerDynamicsItem {
	return restock.SellerDynamicsItem{
		SKU:            p.SKU,
		ProductName:    p.Name,
		CurrentStock:   restock.Ptr(float64(p.CurrentStock)),
		AllocatedStock: restock.Ptr(float64(p.AllocatedStock)),
		AvailableStock: restock.Ptr(float64(p.AvailableStock)),
		ReorderPoint:   restock.Ptr(float64(p.ReorderPoint)),
		MaxStock:       restock.Ptr(float64(p.MaxStock)),
		Cost:           restock.Ptr(p.Cost),
		Price:          restock.Ptr(p.Price),
		Supplier:       p.Supplier,
		LeadTime:       restock.Ptr(float64(p.LeadTimeDays)),
	}
}

func shopifyProduct(p domain.ProductSnapshot) restock.ShopifyProduct {
	return restock.ShopifyProduct{
		ID:     restock.FlexString(strings.TrimPrefix(p.ID, "shop-")),
		Title:  p.Name,
		Status: "active",
		Variants: []restock.ShopifyVariant{{
			SKU:               p.SKU,
			Price:             restock.Ptr(p.Price),
			InventoryQuantity: restock.Ptr(float64(p.CurrentStock)),
		}},
	}
}
