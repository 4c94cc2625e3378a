package shopify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kenttraders/aimarketops/backend-go/internal/pipeline/restock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducts_FollowsLinkHeader(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/api/2024-01/products.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.Header.Get("X-Shopify-Access-Token"))
		assert.Equal(t, "250", r.URL.Query().Get("limit"))

		if r.URL.Query().Get("page_info") == "" {
			w.Header().Set("Link", fmt.Sprintf(`<%s?limit=250&page_info=abc>; rel="next"`, "/admin/api/2024-01/products.json"))
			_, _ = io.WriteString(w, `{"products":[{"id":1,"title":"One","variants":[{"sku":"S1","price":"9.99","inventory_quantity":4}]},{"id":"x","variants":"bad"}]}`)
			return
		}
		w.Header().Set("Link", `<https://example.test/prev>; rel="previous"`)
		_, _ = io.WriteString(w, `{"products":[{"id":2,"title":"Two","variants":[{"sku":"S2","price":1,"inventory_quantity":0}]}]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := New(Options{AccessToken: "tok", BaseURL: srv.URL})
	payload, err := client.Products(context.Background())

	require.NoError(t, err)
	require.Len(t, payload.Products, 2)
	assert.Equal(t, 1, payload.Malformed)

	products, _ := restock.Normalize(payload)
	require.Len(t, products, 2)
	assert.Equal(t, "shop-1", products[0].ID)
	assert.Equal(t, 4, products[0].CurrentStock)
	assert.Equal(t, 9.99, products[0].Price)
	assert.Equal(t, "shop-2", products[1].ID)
}

func TestProducts_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":"[API] Invalid API key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(Options{AccessToken: "bad", BaseURL: srv.URL}).Products(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAPI))
	assert.Contains(t, err.Error(), "401")
}

func TestNextPage(t *testing.T) {
	current := "https://shop.example/admin/api/2024-01/products.json?limit=250"

	assert.Equal(t,
		"https://shop.example/admin/api/2024-01/products.json?limit=250&page_info=n1",
		nextPage(`<https://shop.example/admin/api/2024-01/products.json?limit=250&page_info=p0>; rel="previous", <https://shop.example/admin/api/2024-01/products.json?limit=250&page_info=n1>; rel="next"`, current))
	assert.Empty(t, nextPage("", current))
	assert.Empty(t, nextPage(`<https://shop.example/x>; rel="previous"`, current))
}

func TestNew_BaseURLFromDomain(t *testing.T) {
	c := New(Options{ShopDomain: "acme.myshopify.com/"})

	assert.Equal(t, "https://acme.myshopify.com", c.opts.BaseURL)
	assert.Equal(t, DefaultAPIVersion, c.opts.APIVersion)
}
