package datasource

import (
	"context"
	"errors"
	"testing"

	"github.com/kenttraders/aimarketops/backend-go/internal/datasource/mock"
	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/kenttraders/aimarketops/backend-go/internal/pipeline/restock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryProducts struct {
	products []domain.ProductSnapshot
	err      error
}

func (m memoryProducts) GetProducts(context.Context) ([]domain.ProductSnapshot, error) {
	return m.products, m.err
}

func TestStoredSource_RoundTrip(t *testing.T) {
	src, err := mock.Load("")
	require.NoError(t, err)
	sd, err := src.SellerDynamics().FetchPayload(context.Background())
	require.NoError(t, err)
	shop, err := src.Shopify().FetchPayload(context.Background())
	require.NoError(t, err)
	original, _ := restock.Normalize(sd, shop)

	reader := memoryProducts{products: original}
	storedSD, err := NewStoredSource(reader, domain.SourceSellerDynamics).FetchPayload(context.Background())
	require.NoError(t, err)
	storedShop, err := NewStoredSource(reader, domain.SourceShopify).FetchPayload(context.Background())
	require.NoError(t, err)

	replayed, report := restock.Normalize(storedSD, storedShop)

	assert.Equal(t, 0, report.SkippedTotal())
	assert.Equal(t, original, replayed)
}

func TestStoredSource_ReadError(t *testing.T) {
	boom := errors.New("relation does not exist")
	_, err := NewStoredSource(memoryProducts{err: boom}, domain.SourceShopify).FetchPayload(context.Background())

	assert.ErrorIs(t, err, boom)
}
