// Package mock serves fixture inventory so the service runs without upstream credentials.
package mock

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/kenttraders/aimarketops/backend-go/internal/pipeline/restock"
	"github.com/rs/zerolog/log"
)

//go:embed fixtures/*.json
var embedded embed.FS

const (
	sellerDynamicsFile = "sellerdynamics.json"
	shopifyFile        = "shopify.json"
	ordersFile         = "orders.json"
)

// orderFixture positions a sale relative to the time history is requested.
type orderFixture struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	DaysAgo   int    `json:"daysAgo"`
}

// Source holds decoded fixtures.
type Source struct {
	sellerDynamics *restock.SellerDynamicsPayload
	shopify        *restock.ShopifyPayload
	orders         []orderFixture
	unreadable     []string
	now            func() time.Time
}

// Load reads fixtures from dir, or the built-in set when dir is empty. Missing files in dir
// yield empty payloads.
func Load(dir string) (*Source, error) {
	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(embedded, "fixtures")
		if err != nil {
			return nil, err
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dir)
	}
	return LoadFS(fsys)
}

// LoadFS reads fixtures from fsys. A file that cannot be decoded is logged and served as
// an empty payload; for the inventory files it counts as one malformed item.
func LoadFS(fsys fs.FS) (*Source, error) {
	s := &Source{
		sellerDynamics: &restock.SellerDynamicsPayload{},
		shopify:        &restock.ShopifyPayload{},
		orders:         make([]orderFixture, 0),
		now:            time.Now,
	}

	if err := s.readJSON(fsys, sellerDynamicsFile, s.sellerDynamics); err != nil {
		return nil, err
	} else if s.isUnreadable(sellerDynamicsFile) {
		s.sellerDynamics = &restock.SellerDynamicsPayload{Malformed: 1}
	}
	if err := s.readJSON(fsys, shopifyFile, s.shopify); err != nil {
		return nil, err
	} else if s.isUnreadable(shopifyFile) {
		s.shopify = &restock.ShopifyPayload{Malformed: 1}
	}
	if err := s.readJSON(fsys, ordersFile, &s.orders); err != nil {
		return nil, err
	} else if s.isUnreadable(ordersFile) {
		s.orders = make([]orderFixture, 0)
	}
	return s, nil
}

// readJSON fails only when the file exists but cannot be read.
func (s *Source) readJSON(fsys fs.FS, name string, into any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, into); err != nil {
		log.Warn().Err(err).Str("file", name).Msg("mock: fixture could not be decoded, serving it empty")
		s.unreadable = append(s.unreadable, name)
	}
	return nil
}

func (s *Source) isUnreadable(name string) bool {
	for _, n := range s.unreadable {
		if n == name {
			return true
		}
	}
	return false
}

// Unreadable lists the fixture files that failed to decode.
func (s *Source) Unreadable() []string {
	return s.unreadable
}

// WithClock fixes the reference time for order history.
func (s *Source) WithClock(now func() time.Time) *Source {
	s.now = now
	return s
}

// SellerDynamics returns the SellerDynamics fixture as a source.
func (s *Source) SellerDynamics() *PayloadSource {
	return &PayloadSource{name: domain.SourceSellerDynamics, payload: s.sellerDynamics}
}

// Shopify returns the Shopify fixture as a source.
func (s *Source) Shopify() *PayloadSource {
	return &PayloadSource{name: domain.SourceShopify, payload: s.shopify}
}

// OrderHistory returns fixture sales at or after since.
func (s *Source) OrderHistory(ctx context.Context, since time.Time) ([]domain.OrderLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.now()
	lines := make([]domain.OrderLine, 0, len(s.orders))
	for _, o := range s.orders {
		ts := now.AddDate(0, 0, -o.DaysAgo)
		if ts.Before(since) {
			continue
		}
		lines = append(lines, domain.OrderLine{ProductID: o.ProductID, Quantity: o.Quantity, Timestamp: ts})
	}
	return lines, nil
}

// PayloadSource serves a fixed payload, optionally failing to simulate an outage.
type PayloadSource struct {
	name    domain.Source
	payload restock.RawPayload
	err     error
}

// NewPayloadSource wraps an in-memory payload.
func NewPayloadSource(payload restock.RawPayload) *PayloadSource {
	return &PayloadSource{name: payload.Kind(), payload: payload}
}

// Failing returns a source of the given kind that always fails with err.
func Failing(name domain.Source, err error) *PayloadSource {
	return &PayloadSource{name: name, err: err}
}

func (p *PayloadSource) Name() domain.Source { return p.name }

func (p *PayloadSource) FetchPayload(ctx context.Context) (restock.RawPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.payload, nil
}
