// Package shopify reads the product catalog and variant stock from the Shopify Admin REST API.
package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/kenttraders/aimarketops/backend-go/internal/pipeline/restock"
	"github.com/rs/zerolog/log"
)

const (
	DefaultAPIVersion = "2024-01"
	pageLimit         = 250
	maxPages          = 400
	tokenHeader       = "X-Shopify-Access-Token"
)

// ErrAPI is returned for non-2xx responses.
var ErrAPI = errors.New("shopify api error")

var nextLinkRe = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// Options configures a Client.
type Options struct {
	ShopDomain  string
	AccessToken string
	APIVersion  string
	HTTPClient  *http.Client
	// BaseURL overrides https://<ShopDomain>.
	BaseURL string
}

// Client lists products page by page using Link header cursors.
type Client struct {
	opts Options
	http *http.Client
}

func New(opts Options) *Client {
	if opts.APIVersion == "" {
		opts.APIVersion = DefaultAPIVersion
	}
	if opts.BaseURL == "" {
		host := strings.TrimSuffix(strings.TrimPrefix(opts.ShopDomain, "https://"), "/")
		opts.BaseURL = "https://" + host
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{opts: opts, http: httpClient}
}

func (c *Client) Name() domain.Source { return domain.SourceShopify }

func (c *Client) FetchPayload(ctx context.Context) (restock.RawPayload, error) {
	return c.Products(ctx)
}

// Products fetches the whole catalogue; no status filter is sent, so active, draft and
// archived products all come back. Rows that fail to decode are counted in Malformed and
// do not fail the listing.
func (c *Client) Products(ctx context.Context) (*restock.ShopifyPayload, error) {
	out := &restock.ShopifyPayload{Products: make([]restock.ShopifyProduct, 0)}

	next := fmt.Sprintf("%s/admin/api/%s/products.json?limit=%d", c.opts.BaseURL, c.opts.APIVersion, pageLimit)
	for page := 1; next != "" && page <= maxPages; page++ {
		var (
			pl  restock.ShopifyPayload
			err error
		)
		next, err = c.fetchPage(ctx, next, &pl)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		out.Products = append(out.Products, pl.Products...)
		out.Malformed += pl.Malformed
	}
	if next != "" {
		log.Warn().Int("pages", maxPages).Msg("shopify: page limit reached")
	}

	return out, nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string, into *restock.ShopifyPayload) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(tokenHeader, c.opts.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: http status %d: %s", ErrAPI, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return "", fmt.Errorf("decode products: %w", err)
	}

	return nextPage(resp.Header.Get("Link"), pageURL), nil
}

// nextPage extracts the rel="next" URL, resolved against the current page.
func nextPage(link, current string) string {
	m := nextLinkRe.FindStringSubmatch(link)
	if len(m) != 2 {
		return ""
	}
	base, err := url.Parse(current)
	if err != nil {
		return m[1]
	}
	ref, err := url.Parse(m[1])
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
