package main

import (
	"io/fs"
	"net/http"
	"sync"

	"storefront/account"
	"storefront/cart"
	"storefront/catalog"
	"storefront/loader"
	"storefront/purchase"
	"storefront/render"
	"storefront/session"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// App bundles the long-lived storefront components.
type App struct {
	DB        *sqlx.DB
	Catalog   *catalog.Catalog
	Users     *account.Store
	Carts     *cart.Registry
	Workflow  *purchase.Workflow
	Issuer    *session.Issuer
	Formatter *render.Formatter
	Log       *zap.Logger
}

// serialize lets exactly one request touch storefront state at a time.
func serialize(next http.Handler) http.Handler {
	var mu sync.Mutex
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// NewHandler returns the full HTTP handler: static front end plus JSON API,
// with sessions attached and requests serialized.
func NewHandler(app *App, staticFS fs.FS) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /", http.FileServer(http.FS(staticFS)))
	SetupRoutes(mux, app)
	return serialize(session.Attach(app.Issuer, app.Users, app.Log)(mux))
}

func SetupRoutes(mux *http.ServeMux, app *App) {
	f, log := app.Formatter, app.Log

	mux.HandleFunc("POST /api/register", account.RegisterHandler(app.Users, log))
	mux.HandleFunc("POST /api/login", account.LoginHandler(app.Users, app.Issuer, log))
	mux.HandleFunc("POST /api/logout", account.LogoutHandler(app.Issuer, log))
	mux.HandleFunc("GET /api/me", account.MeHandler())

	mux.HandleFunc("GET /api/products", catalog.ListProductsHandler(app.Catalog, f))
	mux.HandleFunc("GET /api/products/{id}", catalog.ProductDetailsHandler(app.Catalog, f))
	mux.HandleFunc("POST /api/catalog/reload", catalog.ReloadHandler(app.Catalog, log))
	mux.HandleFunc("POST /api/catalog/seed", loader.ReloadSeedHandler(app.DB, app.Catalog, log))

	mux.HandleFunc("GET /api/cart", cart.GetCartHandler(app.Carts, f))
	mux.HandleFunc("POST /api/cart/add", cart.AddProductHandler(app.Carts, app.Catalog, f, log))
	mux.HandleFunc("POST /api/cart/quantity", cart.UpdateQuantityHandler(app.Carts, f, log))
	mux.HandleFunc("POST /api/cart/remove", cart.RemoveProductHandler(app.Carts, f))
	mux.HandleFunc("POST /api/cart/clear", cart.ClearCartHandler(app.Carts, f))

	mux.HandleFunc("POST /api/purchase", purchase.CommitHandler(app.Carts, app.Workflow, f, log))
	mux.HandleFunc("GET /api/purchases", purchase.HistoryHandler(f))
	mux.HandleFunc("GET /api/purchases/export", purchase.ExportHistoryHandler(log))

	mux.HandleFunc("GET /api/config", GetConfigHandler())
	mux.HandleFunc("POST /api/config", SaveConfigHandler(log))
}
