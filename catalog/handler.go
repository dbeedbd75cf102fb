package catalog

import (
	"encoding/json"
	"net/http"

	"storefront/model"
	"storefront/render"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductView is one row of the product table.
type ProductView struct {
	ProductID      string          `json:"productId"`
	Name           string          `json:"productName"`
	Category       model.Category  `json:"category"`
	Price          decimal.Decimal `json:"price"`
	PriceText      string          `json:"priceText"`
	AvailableItems int             `json:"availableItems"`
	Info           string          `json:"info"`
	LowStock       bool            `json:"lowStock"`
}

func toView(p *model.Product, f *render.Formatter) ProductView {
	return ProductView{
		ProductID:      p.ID,
		Name:           p.Name,
		Category:       p.Category(),
		Price:          p.Price,
		PriceText:      f.Money(p.Price),
		AvailableItems: p.Stock,
		Info:           render.ProductInfo(p),
		LowStock:       p.Stock < LowStockThreshold,
	}
}

// ListProductsHandler returns the product table, optionally filtered with ?category=.
func ListProductsHandler(c *Catalog, f *render.Formatter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products := c.Filter(r.URL.Query().Get("category"))
		views := make([]ProductView, 0, len(products))
		for _, p := range products {
			views = append(views, toView(p, f))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(views)
	}
}

// ProductDetailsHandler returns the detail text of one product.
func ProductDetailsHandler(c *Catalog, f *render.Formatter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		p, ok := c.FindByID(id)
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(struct {
			ProductView
			Details string `json:"details"`
		}{toView(p, f), render.ProductDetails(p)})
	}
}

// ReloadHandler rereads the catalog from the database.
func ReloadHandler(c *Catalog, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := c.Reload(r.Context()); err != nil {
			log.Error("catalog reload failed", zap.Error(err))
			http.Error(w, "Failed to reload catalog", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message":  "Catalog reloaded",
			"products": len(c.products),
		})
	}
}
