package restock

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
)

// RawPayload is one upstream stock payload. The set of implementations is closed:
// SellerDynamicsPayload and ShopifyPayload.
type RawPayload interface {
	Kind() domain.Source
	isRawPayload()
}

// SellerDynamicsPayload is the stock report shape served by the SellerDynamics collaborator.
type SellerDynamicsPayload struct {
	StockLevels []SellerDynamicsItem `json:"stockLevels"`

	// Malformed counts rows that could not be decoded at all.
	Malformed int `json:"-"`
}

// SellerDynamicsItem is one stock level row. Numeric fields are pointers so absent values
// can be told apart from zero.
type SellerDynamicsItem struct {
	SKU            string     `json:"sku"`
	ProductName    string     `json:"productName"`
	CurrentStock   *FlexFloat `json:"currentStock"`
	AllocatedStock *FlexFloat `json:"allocatedStock"`
	AvailableStock *FlexFloat `json:"availableStock"`
	ReorderPoint   *FlexFloat `json:"reorderPoint"`
	MaxStock       *FlexFloat `json:"maxStock"`
	Cost           *FlexFloat `json:"cost"`
	Price          *FlexFloat `json:"price"`
	Supplier       string     `json:"supplier"`
	LeadTime       *FlexFloat `json:"leadTime"`
}

// ShopifyPayload is the products listing served by the Shopify collaborator.
type ShopifyPayload struct {
	Products []ShopifyProduct `json:"products"`

	Malformed int `json:"-"`
}

// ShopifyProduct is a catalog product with its variants.
type ShopifyProduct struct {
	ID       FlexString       `json:"id"`
	Title    string           `json:"title"`
	Status   string           `json:"status"`
	Variants []ShopifyVariant `json:"variants"`
}

// ShopifyVariant carries the per-variant stock record.
type ShopifyVariant struct {
	ID                FlexString `json:"id"`
	Title             string     `json:"title"`
	SKU               string     `json:"sku"`
	Price             *FlexFloat `json:"price"`
	InventoryQuantity *FlexFloat `json:"inventory_quantity"`
}

func (SellerDynamicsPayload) Kind() domain.Source { return domain.SourceSellerDynamics }
func (SellerDynamicsPayload) isRawPayload()       {}

func (ShopifyPayload) Kind() domain.Source { return domain.SourceShopify }
func (ShopifyPayload) isRawPayload()       {}

// UnmarshalJSON decodes rows one by one so a single bad row does not drop the payload.
func (p *SellerDynamicsPayload) UnmarshalJSON(data []byte) error {
	var envelope struct {
		StockLevels []json.RawMessage `json:"stockLevels"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	p.StockLevels = make([]SellerDynamicsItem, 0, len(envelope.StockLevels))
	for _, raw := range envelope.StockLevels {
		var item SellerDynamicsItem
		if err := json.Unmarshal(raw, &item); err != nil {
			p.Malformed++
			continue
		}
		p.StockLevels = append(p.StockLevels, item)
	}
	return nil
}

// UnmarshalJSON accepts both the bare {"products": [...]} listing and the dashboard's
// {"data": {"products": [...]}} wrapper.
func (p *ShopifyPayload) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Products []json.RawMessage `json:"products"`
		Data     *struct {
			Products []json.RawMessage `json:"products"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	rows := envelope.Products
	if len(rows) == 0 && envelope.Data != nil {
		rows = envelope.Data.Products
	}
	p.Products = make([]ShopifyProduct, 0, len(rows))
	for _, raw := range rows {
		var product ShopifyProduct
		if err := json.Unmarshal(raw, &product); err != nil {
			p.Malformed++
			continue
		}
		p.Products = append(p.Products, product)
	}
	return nil
}

// IngestReport counts what normalization kept and dropped.
type IngestReport struct {
	Accepted map[domain.Source]int `json:"accepted"`
	Skipped  map[domain.Source]int `json:"skipped"`
}

func newIngestReport() IngestReport {
	return IngestReport{
		Accepted: make(map[domain.Source]int),
		Skipped:  make(map[domain.Source]int),
	}
}

// SkippedTotal returns the number of items dropped across all sources.
func (r IngestReport) SkippedTotal() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

// FlexFloat decodes a JSON number, a numeric string, or null.
// Upstream APIs are inconsistent: Shopify sends prices as strings, SellerDynamics as numbers.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("flex float: %w", err)
		}
		raw = strings.TrimSpace(strings.ReplaceAll(unquoted, ",", ""))
		if raw == "" {
			return nil
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("flex float %q: %w", raw, err)
	}
	*f = FlexFloat(v)
	return nil
}

// Float returns the value or def when f is nil.
func (f *FlexFloat) Float(def float64) float64 {
	if f == nil {
		return def
	}
	return float64(*f)
}

// Ptr is a helper for building payloads in code.
func Ptr(v float64) *FlexFloat {
	f := FlexFloat(v)
	return &f
}

// FlexString decodes a JSON string or number into a string.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	*s = FlexString(string(data))
	return nil
}
