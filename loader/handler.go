package loader

import (
	"encoding/json"
	"net/http"
	"os"

	"storefront/catalog"
	"storefront/config"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ReloadSeedHandler imports new products from the seed file and refreshes the catalog.
func ReloadSeedHandler(db *sqlx.DB, c *catalog.Catalog, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := config.GetConfig()
		log.Info("reloading catalog seed", zap.String("path", cfg.SeedPath))

		inserted := 0
		if _, err := os.Stat(cfg.SeedPath); os.IsNotExist(err) {
			log.Warn("catalog seed not found, skipping", zap.String("path", cfg.SeedPath))
		} else {
			n, err := LoadProductsCSV(db, cfg.SeedPath, cfg.CatalogEncoding, log)
			if err != nil {
				log.Error("catalog seed reload failed", zap.Error(err))
				http.Error(w, "Failed to reload catalog seed", http.StatusInternalServerError)
				return
			}
			inserted = n
		}

		if err := c.Reload(r.Context()); err != nil {
			log.Error("catalog reload failed", zap.Error(err))
			http.Error(w, "Failed to reload catalog", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message":  "Catalog seed reloaded",
			"inserted": inserted,
			"products": len(c.ListProducts()),
		})
	}
}
