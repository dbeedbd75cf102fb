package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/database"
	"storefront/model"
	"storefront/render"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seededCatalog(t *testing.T) (*Catalog, *sqlx.DB) {
	t.Helper()
	db, err := database.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.ApplySchema(db))

	tx, err := db.Beginx()
	require.NoError(t, err)
	for _, p := range []model.Product{
		{ID: "E2", Name: "Headphones", Price: decimal.NewFromInt(80), Stock: 2,
			Details: model.ElectronicsDetails{Brand: "Sono", WarrantyWeeks: 52}},
		{ID: "C1", Name: "T-Shirt", Price: decimal.NewFromInt(15), Stock: 10,
			Details: model.ClothingDetails{Size: "M", Color: "Red"}},
		{ID: "G1", Name: "Notebook", Price: decimal.RequireFromString("3.5"), Stock: 30},
	} {
		_, err := database.InsertProductIfAbsentInTx(tx, p)
		require.NoError(t, err)
	}
	require.NoError(t, tx.Commit())

	c, err := Load(context.Background(), db, zap.NewNop())
	require.NoError(t, err)
	return c, db
}

func ids(products []*model.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestListProducts_SortedByID(t *testing.T) {
	c, _ := seededCatalog(t)
	assert.Equal(t, []string{"C1", "E2", "G1"}, ids(c.ListProducts()))
}

func TestFilter(t *testing.T) {
	c, _ := seededCatalog(t)
	assert.Equal(t, []string{"E2"}, ids(c.Filter("Electronics")))
	assert.Equal(t, []string{"C1"}, ids(c.Filter("Clothing")))
	assert.Equal(t, []string{"G1"}, ids(c.Filter("General")))
	assert.Len(t, c.Filter("All"), 3)
	assert.Len(t, c.Filter(""), 3)
	assert.Len(t, c.Filter("all"), 3)
}

func TestFilter_CaseInsensitiveAndUnknown(t *testing.T) {
	c, _ := seededCatalog(t)
	assert.Equal(t, []string{"E2"}, ids(c.Filter("electronics")))
	assert.Equal(t, []string{"C1"}, ids(c.Filter("CLOTHING")))

	unknown := c.Filter("Furniture")
	assert.NotNil(t, unknown)
	assert.Empty(t, unknown)
}

func TestDecrementStock_FloorsAtZero(t *testing.T) {
	c, _ := seededCatalog(t)

	require.NoError(t, c.DecrementStock("E2", 5))
	stock, ok := c.AvailableStock("E2")
	require.True(t, ok)
	assert.Equal(t, 0, stock)

	err := c.DecrementStock("missing", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
	_, ok = c.AvailableStock("missing")
	assert.False(t, ok)
}

func TestPersistAndReload_KeepsPointers(t *testing.T) {
	c, db := seededCatalog(t)
	p, ok := c.FindByID("C1")
	require.True(t, ok)

	require.NoError(t, c.DecrementStock("C1", 4))
	require.NoError(t, c.PersistCatalog(context.Background()))

	stored, err := database.GetProductByID(db, "C1")
	require.NoError(t, err)
	assert.Equal(t, 6, stored.Stock)

	p.Stock = 99
	require.NoError(t, c.Reload(context.Background()))
	again, _ := c.FindByID("C1")
	assert.Same(t, p, again)
	assert.Equal(t, 6, again.Stock)
	assert.Len(t, c.ListProducts(), 3)
}

func TestReload_KeepsUnsavedStock(t *testing.T) {
	c, db := seededCatalog(t)

	require.NoError(t, c.DecrementStock("C1", 4))
	require.NoError(t, c.Reload(context.Background()))

	stock, ok := c.AvailableStock("C1")
	require.True(t, ok)
	assert.Equal(t, 6, stock)

	stored, err := database.GetProductByID(db, "C1")
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Stock, "reload must not write")

	require.NoError(t, c.PersistCatalog(context.Background()))
	tx := db.MustBegin()
	require.NoError(t, database.UpdateStockInTx(tx, "C1", 8))
	require.NoError(t, tx.Commit())
	require.NoError(t, c.Reload(context.Background()))
	stock, _ = c.AvailableStock("C1")
	assert.Equal(t, 8, stock, "persisted products follow the database again")
}

func TestListProductsHandler(t *testing.T) {
	c, _ := seededCatalog(t)
	f := render.NewFormatter("en", "€")

	rec := httptest.NewRecorder()
	ListProductsHandler(c, f)(rec, httptest.NewRequest(http.MethodGet, "/api/products?category=Electronics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var views []ProductView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "E2", views[0].ProductID)
	assert.Equal(t, "Brand: Sono, Warranty: 52 weeks", views[0].Info)
	assert.True(t, views[0].LowStock)
	assert.Equal(t, "80.00 €", views[0].PriceText)
}

func TestProductDetailsHandler(t *testing.T) {
	c, _ := seededCatalog(t)
	f := render.NewFormatter("en", "€")
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products/{id}", ProductDetailsHandler(c, f))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/C1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Size: M")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
