package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"demand-service/internal/models"
	"demand-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	products map[string]models.Product
	counts   map[string]int
	total    int
	countErr error
}

func (f *fakeCatalog) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, errors.New("product not found: " + id)
	}
	return &p, nil
}

func (f *fakeCatalog) GetVoteCount(ctx context.Context, productID string) (int, error) {
	return f.counts[productID], nil
}

func (f *fakeCatalog) CountProducts(ctx context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.total, nil
}

type fakeVoteCache struct {
	counts map[string]int
	voted  map[string]bool
}

func (f *fakeVoteCache) GetVoteCount(ctx context.Context, productID string) (int, error) {
	count, ok := f.counts[productID]
	if !ok {
		return 0, errors.New("cache miss")
	}
	return count, nil
}

func (f *fakeVoteCache) HasVoted(ctx context.Context, productID, voterID string) (bool, error) {
	return f.voted[productID+":"+voterID], nil
}

func newTestRouter(catalog CatalogReader, votes VoteCountReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	registry := service.NewSessionRegistry(nil)
	NewHandler(registry, catalog, votes).SetupRoutes(router)
	return router
}

func TestGetProductPrefersCachedCount(t *testing.T) {
	catalog := &fakeCatalog{
		products: map[string]models.Product{"p1": {ID: "p1", Name: "Bananas"}},
		counts:   map[string]int{"p1": 4},
	}
	votes := &fakeVoteCache{
		counts: map[string]int{"p1": 7},
		voted:  map[string]bool{"p1:voter-1": true},
	}
	router := newTestRouter(catalog, votes)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/p1", nil)
	req.Header.Set(voterIDHeader, "voter-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var view models.ProductView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "Bananas", view.Name)
	assert.Equal(t, 7, view.VoteCount, "cache hit must win over the ledger count")
	assert.True(t, view.UserHasVoted)
}

func TestGetProductFallsBackToLedgerCount(t *testing.T) {
	catalog := &fakeCatalog{
		products: map[string]models.Product{"p1": {ID: "p1", Name: "Bananas"}},
		counts:   map[string]int{"p1": 4},
	}
	router := newTestRouter(catalog, &fakeVoteCache{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/p1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var view models.ProductView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 4, view.VoteCount, "cache miss must fall back to the ledger")
	assert.False(t, view.UserHasVoted)
}

func TestGetProductNotFound(t *testing.T) {
	router := newTestRouter(&fakeCatalog{}, &fakeVoteCache{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReadinessReportsCatalogSize(t *testing.T) {
	router := newTestRouter(&fakeCatalog{total: 120}, &fakeVoteCache{})

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, float64(120), body["products"])
}

func TestReadinessFailsWhenStoreUnavailable(t *testing.T) {
	router := newTestRouter(&fakeCatalog{countErr: errors.New("store down")}, &fakeVoteCache{})

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
