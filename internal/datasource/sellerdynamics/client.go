// Package sellerdynamics reads stock levels from the SellerDynamics SOAP API.
package sellerdynamics

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/kenttraders/aimarketops/backend-go/internal/pipeline/restock"
	"github.com/rs/zerolog/log"
)

const (
	DefaultEndpoint = "https://my.sellerdynamics.com/api/SellerDynamicsApi.asmx"
	DefaultPageSize = 5000
	// maxPages bounds a runaway More flag.
	maxPages = 1000
)

var (
	// ErrAPI is returned when the API answers with IsError or a SOAP fault.
	ErrAPI = errors.New("sellerdynamics api error")
	// ErrRateLimited is returned when the gate refuses a call and no earlier payload is cached.
	ErrRateLimited = errors.New("sellerdynamics rate limited")
)

// Gate spaces out calls to the API.
type Gate interface {
	TryAcquire() (time.Duration, bool)
	Wait(ctx context.Context) error
	Release()
}

// Options configures a Client.
type Options struct {
	Endpoint       string
	EncryptedLogin string
	RetailerID     string
	PageSize       int
	HTTPClient     *http.Client
	// Blocking makes FetchPayload wait for the gate instead of serving the last payload.
	Blocking bool
}

// Client fetches every page of GetStockLevels for one retailer.
type Client struct {
	opts Options
	http *http.Client
	gate Gate

	mu   sync.Mutex
	last *restock.SellerDynamicsPayload
}

// New creates a client. A nil gate disables rate limiting.
func New(opts Options, gate Gate) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{opts: opts, http: httpClient, gate: gate}
}

func (c *Client) Name() domain.Source { return domain.SourceSellerDynamics }

// FetchPayload returns the retailer's stock levels. Inside the gate's interval the previous
// payload is served again; without one the call fails with ErrRateLimited.
func (c *Client) FetchPayload(ctx context.Context) (restock.RawPayload, error) {
	if c.gate != nil {
		if c.opts.Blocking {
			if err := c.gate.Wait(ctx); err != nil {
				return nil, err
			}
		} else if wait, ok := c.gate.TryAcquire(); !ok {
			if last := c.lastPayload(); last != nil {
				log.Debug().Dur("retry_in", wait).Msg("sellerdynamics: serving previous stock levels")
				return last, nil
			}
			return nil, fmt.Errorf("%w: retry in %s", ErrRateLimited, wait.Round(time.Second))
		}
	}

	payload, err := c.StockLevels(ctx)
	if err != nil {
		// The slot bought nothing; give it back so a retry can go straight out.
		if c.gate != nil {
			c.gate.Release()
		}
		return nil, err
	}

	c.mu.Lock()
	c.last = payload
	c.mu.Unlock()
	return payload, nil
}

func (c *Client) lastPayload() *restock.SellerDynamicsPayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// StockLevels walks the pages until More is false. An error on any page fails the fetch.
func (c *Client) StockLevels(ctx context.Context) (*restock.SellerDynamicsPayload, error) {
	payload := &restock.SellerDynamicsPayload{StockLevels: make([]restock.SellerDynamicsItem, 0)}

	for page := 1; page <= maxPages; page++ {
		log.Debug().Int("page", page).Msg("sellerdynamics: fetching stock levels")

		result, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		if isTrue(result.IsError) {
			msg := strings.TrimSpace(result.ErrorMessage)
			if msg == "" {
				msg = "unspecified error"
			}
			return nil, fmt.Errorf("page %d: %w: %s", page, ErrAPI, msg)
		}

		for _, level := range result.StockLevels {
			item, ok := toItem(level)
			if !ok {
				payload.Malformed++
				continue
			}
			payload.StockLevels = append(payload.StockLevels, item)
		}

		if !isTrue(result.More) {
			return payload, nil
		}
	}

	log.Warn().Int("pages", maxPages).Msg("sellerdynamics: page limit reached")
	return payload, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) (stockLevelsResult, error) {
	body, err := xml.Marshal(newStockLevelsRequest(c.opts.EncryptedLogin, c.opts.RetailerID, page, c.opts.PageSize))
	if err != nil {
		return stockLevelsResult{}, fmt.Errorf("encode request: %w", err)
	}
	body = append([]byte(xml.Header), body...)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return stockLevelsResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", stockAction)

	resp, err := c.http.Do(req)
	if err != nil {
		return stockLevelsResult{}, fmt.Errorf("call api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return stockLevelsResult{}, fmt.Errorf("read response: %w", err)
	}

	var env responseEnvelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return stockLevelsResult{}, fmt.Errorf("%w: http status %d", ErrAPI, resp.StatusCode)
		}
		return stockLevelsResult{}, fmt.Errorf("decode response: %w", err)
	}
	if f := env.Body.Fault; f != nil {
		return stockLevelsResult{}, fmt.Errorf("%w: %s: %s", ErrAPI, f.Code, f.String)
	}
	if resp.StatusCode != http.StatusOK {
		return stockLevelsResult{}, fmt.Errorf("%w: http status %d", ErrAPI, resp.StatusCode)
	}

	return env.Body.Response.Result, nil
}

// toItem maps a stock level row. Rows with an unparseable quantity are rejected so they are
// not mistaken for zero stock.
func toItem(level stockLevel) (restock.SellerDynamicsItem, bool) {
	item := restock.SellerDynamicsItem{
		SKU:         strings.TrimSpace(level.SKU),
		ProductName: strings.TrimSpace(level.ProductName),
	}
	if q := strings.TrimSpace(level.Quantity); q != "" {
		v, err := strconv.ParseFloat(q, 64)
		if err != nil {
			return restock.SellerDynamicsItem{}, false
		}
		item.CurrentStock = restock.Ptr(v)
	}
	return item, true
}

func isTrue(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}
