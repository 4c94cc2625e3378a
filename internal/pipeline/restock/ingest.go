package restock

import (
	"fmt"
	"math"
	"strings"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
)

// Snapshot defaults applied when a source omits a field.
const (
	DefaultReorderPoint        = 10
	DefaultMaxStock            = 100
	DefaultShopifyMaxStock     = 50
	DefaultLeadTimeDays        = 7
	UnknownSupplier            = "Unknown"
	unknownProductName         = "Unknown Product"
	sellerDynamicsIDPrefix     = "sd-"
	shopifyIDPrefix            = "shop-"
	shopifySKUFallbackTemplate = "SHOP-%s"
)

// Normalize converts upstream payloads into canonical product snapshots.
// Malformed items and duplicate IDs are skipped and counted, never fatal.
func Normalize(payloads ...RawPayload) ([]domain.ProductSnapshot, IngestReport) {
	report := newIngestReport()
	products := make([]domain.ProductSnapshot, 0)
	seen := make(map[string]struct{})

	add := func(src domain.Source, p domain.ProductSnapshot, ok bool) {
		if !ok {
			report.Skipped[src]++
			return
		}
		if _, dup := seen[p.ID]; dup {
			report.Skipped[src]++
			return
		}
		seen[p.ID] = struct{}{}
		report.Accepted[src]++
		products = append(products, p)
	}

	for _, payload := range payloads {
		switch pl := payload.(type) {
		case nil:
			continue
		case SellerDynamicsPayload:
			normalizeSellerDynamics(&pl, add, &report)
		case *SellerDynamicsPayload:
			if pl != nil {
				normalizeSellerDynamics(pl, add, &report)
			}
		case ShopifyPayload:
			normalizeShopify(&pl, add, &report)
		case *ShopifyPayload:
			if pl != nil {
				normalizeShopify(pl, add, &report)
			}
		default:
			log.Error().Str("type", fmt.Sprintf("%T", payload)).Msg("restock: unhandled payload type")
		}
	}

	if skipped := report.SkippedTotal(); skipped > 0 {
		log.Warn().Int("skipped", skipped).Int("accepted", len(products)).Msg("restock: skipped malformed stock items")
	}

	return products, report
}

type addFunc func(src domain.Source, p domain.ProductSnapshot, ok bool)

func normalizeSellerDynamics(pl *SellerDynamicsPayload, add addFunc, report *IngestReport) {
	report.Skipped[domain.SourceSellerDynamics] += pl.Malformed
	for _, item := range pl.StockLevels {
		p, ok := sellerDynamicsSnapshot(item)
		add(domain.SourceSellerDynamics, p, ok)
	}
}

func normalizeShopify(pl *ShopifyPayload, add addFunc, report *IngestReport) {
	report.Skipped[domain.SourceShopify] += pl.Malformed
	for _, product := range pl.Products {
		p, ok := shopifySnapshot(product)
		add(domain.SourceShopify, p, ok)
	}
}

func sellerDynamicsSnapshot(item SellerDynamicsItem) (domain.ProductSnapshot, bool) {
	sku := strings.TrimSpace(item.SKU)
	if sku == "" {
		return domain.ProductSnapshot{}, false
	}

	current, ok := wholeUnits(item.CurrentStock.Float(0))
	if !ok {
		return domain.ProductSnapshot{}, false
	}
	allocated, ok := wholeUnits(item.AllocatedStock.Float(0))
	if !ok {
		return domain.ProductSnapshot{}, false
	}
	available := current - allocated
	if item.AvailableStock != nil {
		// Upstream may disagree with current-allocated; keep what it reported.
		if v, ok := wholeUnits(item.AvailableStock.Float(0)); ok {
			available = v
		}
	}
	if available < 0 {
		available = 0
	}

	cost := item.Cost.Float(0)
	price := item.Price.Float(0)
	if cost < 0 || price < 0 {
		return domain.ProductSnapshot{}, false
	}

	name := strings.TrimSpace(item.ProductName)
	if name == "" {
		name = unknownProductName
	}
	supplier := strings.TrimSpace(item.Supplier)
	if supplier == "" {
		supplier = UnknownSupplier
	}

	return domain.ProductSnapshot{
		ID:             sellerDynamicsIDPrefix + sku,
		SKU:            sku,
		Name:           name,
		CurrentStock:   current,
		AllocatedStock: allocated,
		AvailableStock: available,
		Cost:           cost,
		Price:          price,
		ReorderPoint:   positiveOr(item.ReorderPoint, DefaultReorderPoint),
		MaxStock:       positiveOr(item.MaxStock, DefaultMaxStock),
		Supplier:       supplier,
		LeadTimeDays:   positiveOr(item.LeadTime, DefaultLeadTimeDays),
		Source:         domain.SourceSellerDynamics,
	}, true
}

// shopifySnapshot keeps only the first variant's stock. Multi-variant products lose the
// remaining variants' stock.
func shopifySnapshot(product ShopifyProduct) (domain.ProductSnapshot, bool) {
	id := strings.TrimSpace(string(product.ID))
	if id == "" || len(product.Variants) == 0 {
		return domain.ProductSnapshot{}, false
	}
	variant := product.Variants[0]

	current, ok := wholeUnits(variant.InventoryQuantity.Float(0))
	if !ok {
		return domain.ProductSnapshot{}, false
	}
	price := variant.Price.Float(0)
	if price < 0 {
		return domain.ProductSnapshot{}, false
	}

	sku := strings.TrimSpace(variant.SKU)
	if sku == "" {
		sku = fmt.Sprintf(shopifySKUFallbackTemplate, id)
	}
	name := strings.TrimSpace(product.Title)
	if name == "" {
		name = unknownProductName
	}

	return domain.ProductSnapshot{
		ID:             shopifyIDPrefix + id,
		SKU:            sku,
		Name:           name,
		CurrentStock:   current,
		AllocatedStock: 0,
		AvailableStock: current,
		Cost:           0,
		Price:          price,
		ReorderPoint:   DefaultReorderPoint,
		MaxStock:       DefaultShopifyMaxStock,
		Supplier:       UnknownSupplier,
		LeadTimeDays:   DefaultLeadTimeDays,
		Source:         domain.SourceShopify,
	}, true
}

// wholeUnits rejects negative or non-finite quantities and truncates fractional units.
func wholeUnits(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return int(math.Floor(v)), true
}

func positiveOr(f *FlexFloat, def int) int {
	v := f.Float(0)
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return int(math.Ceil(v))
}
