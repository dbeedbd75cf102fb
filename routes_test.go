package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"storefront/account"
	"storefront/cart"
	"storefront/catalog"
	"storefront/config"
	"storefront/database"
	"storefront/events"
	"storefront/model"
	"storefront/purchase"
	"storefront/render"
	"storefront/session"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestServer(t *testing.T) (*httptest.Server, *App) {
	t.Helper()
	log := zap.NewNop()
	db, err := database.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.ApplySchema(db))

	tx, err := db.Beginx()
	require.NoError(t, err)
	_, err = database.InsertProductIfAbsentInTx(tx, model.Product{
		ID: "P1", Name: "Radio", Price: decimal.NewFromInt(10), Stock: 5,
		Details: model.ElectronicsDetails{Brand: "Tono", WarrantyWeeks: 52},
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	cat, err := catalog.Load(context.Background(), db, log)
	require.NoError(t, err)
	users, err := account.Load(db, log, bcrypt.MinCost)
	require.NoError(t, err)

	app := &App{
		DB:        db,
		Catalog:   cat,
		Users:     users,
		Carts:     cart.NewRegistry(),
		Workflow:  purchase.NewWorkflow(cat, users, events.Nop{}, log),
		Issuer:    session.NewIssuer("test-secret", time.Hour),
		Formatter: render.NewFormatter("en", "€"),
		Log:       log,
	}
	static := fstest.MapFS{"index.html": &fstest.MapFile{Data: []byte("<h1>Storefront</h1>")}}
	srv := httptest.NewServer(NewHandler(app, static))
	t.Cleanup(srv.Close)
	return srv, app
}

func newClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func doJSON(t *testing.T, c *http.Client, method, url, body string, out interface{}) int {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	res, err := c.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func TestPurchaseFlowOverHTTP(t *testing.T) {
	srv, app := newTestServer(t)
	c := newClient(t)

	res, err := c.Get(srv.URL + "/")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	// Guest cart survives the login.
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, doJSON(t, c, http.MethodPost, srv.URL+"/api/cart/add", `{"productId":"P1"}`, nil))
	}
	var errBody map[string]string
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, c, http.MethodPost, srv.URL+"/api/purchase", "", &errBody))
	assert.Equal(t, "NO_USER", errBody["code"])

	require.Equal(t, http.StatusCreated, doJSON(t, c, http.MethodPost, srv.URL+"/api/register", `{"username":"alice","password":"pw"}`, nil))
	require.Equal(t, http.StatusOK, doJSON(t, c, http.MethodPost, srv.URL+"/api/login", `{"username":"alice","password":"pw"}`, nil))

	var view cart.View
	require.Equal(t, http.StatusOK, doJSON(t, c, http.MethodGet, srv.URL+"/api/cart", "", &view))
	require.Len(t, view.Lines, 1)
	assert.True(t, view.Summary.FinalTotal.Equal(decimal.NewFromInt(21)))

	var result struct {
		Record purchase.RecordView `json:"record"`
		State  string              `json:"state"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, c, http.MethodPost, srv.URL+"/api/purchase", "", &result))
	assert.True(t, result.Record.Total.Equal(decimal.NewFromInt(21)))
	assert.Equal(t, "Done", result.State)

	stock, _ := app.Catalog.AvailableStock("P1")
	assert.Equal(t, 2, stock)
	stored, err := database.GetProductByID(app.DB, "P1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Stock)

	var history []purchase.RecordView
	require.Equal(t, http.StatusOK, doJSON(t, c, http.MethodGet, srv.URL+"/api/purchases", "", &history))
	require.Len(t, history, 1)
	assert.Equal(t, "21.00 €", history[0].TotalText)

	require.Equal(t, http.StatusOK, doJSON(t, c, http.MethodGet, srv.URL+"/api/cart", "", &view))
	assert.Empty(t, view.Lines)
}

func TestSessionsHaveSeparateCarts(t *testing.T) {
	srv, _ := newTestServer(t)
	a, b := newClient(t), newClient(t)

	require.Equal(t, http.StatusOK, doJSON(t, a, http.MethodPost, srv.URL+"/api/cart/add", `{"productId":"P1"}`, nil))

	var view cart.View
	require.Equal(t, http.StatusOK, doJSON(t, b, http.MethodGet, srv.URL+"/api/cart", "", &view))
	assert.Empty(t, view.Lines)
	require.Equal(t, http.StatusOK, doJSON(t, a, http.MethodGet, srv.URL+"/api/cart", "", &view))
	assert.Len(t, view.Lines, 1)
}

func TestGetConfigHidesSecret(t *testing.T) {
	srv, _ := newTestServer(t)
	var cfg map[string]interface{}
	require.Equal(t, http.StatusOK, doJSON(t, newClient(t), http.MethodGet, srv.URL+"/api/config", "", &cfg))
	assert.Equal(t, "", cfg["sessionSecret"])
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, validateConfig(config.Config{DatabaseDriver: "postgres", Locale: "de", CatalogEncoding: "shift_jis"}))
	assert.Error(t, validateConfig(config.Config{DatabaseDriver: "mysql"}))
	assert.Error(t, validateConfig(config.Config{CatalogEncoding: "latin1"}))
	for _, enc := range []string{"Shift-JIS", "SJIS", "UTF-8"} {
		assert.NoError(t, validateConfig(config.Config{CatalogEncoding: enc}), enc)
	}
	assert.Error(t, validateConfig(config.Config{Locale: "not a tag!"}))
	assert.Error(t, validateConfig(config.Config{SeedPath: t.TempDir()}))
}

func TestLocalURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080", localURL(":8080"))
	assert.Equal(t, "http://127.0.0.1:9000", localURL("127.0.0.1:9000"))
}
