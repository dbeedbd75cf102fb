package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"storefront/database"
	"storefront/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var ErrProductNotFound = errors.New("product not found")

// Stock below this is flagged in listings.
const LowStockThreshold = 3

// Catalog is the in-memory product set. Carts keep pointers into it, so
// products are updated in place and never replaced while the process runs.
type Catalog struct {
	db       *sqlx.DB
	log      *zap.Logger
	products []*model.Product
	byID     map[string]*model.Product
	// Products whose stock changed since the last successful persist.
	dirty map[string]bool
}

// Load reads all products from db.
func Load(ctx context.Context, db *sqlx.DB, log *zap.Logger) (*Catalog, error) {
	c := &Catalog{db: db, log: log, byID: make(map[string]*model.Product), dirty: make(map[string]bool)}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload refreshes products from the database. Known products keep their pointer,
// and products with unsaved stock changes keep their in-memory stock.
func (c *Catalog) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored, err := database.GetAllProducts(c.db)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	for _, p := range stored {
		if existing, ok := c.byID[p.ID]; ok {
			if c.dirty[p.ID] {
				p.Stock = existing.Stock
				c.log.Warn("keeping unsaved stock on reload", zap.String("productId", p.ID), zap.Int("stock", p.Stock))
			}
			*existing = p
			continue
		}
		np := p
		c.byID[p.ID] = &np
		c.products = append(c.products, &np)
	}
	sort.Slice(c.products, func(i, j int) bool { return c.products[i].ID < c.products[j].ID })
	c.log.Info("catalog loaded", zap.Int("products", len(c.products)))
	return nil
}

// ListProducts returns all products ordered by ID.
func (c *Catalog) ListProducts() []*model.Product {
	out := make([]*model.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Filter returns the products of one category, matched case-insensitively.
// An empty category or "All" returns everything, an unknown one nothing.
func (c *Catalog) Filter(category string) []*model.Product {
	if category == "" || strings.EqualFold(category, "All") {
		return c.ListProducts()
	}
	want, ok := model.LookupCategory(category)
	out := []*model.Product{}
	if !ok {
		return out
	}
	for _, p := range c.products {
		if p.Category() == want {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) FindByID(productID string) (*model.Product, bool) {
	p, ok := c.byID[productID]
	return p, ok
}

// AvailableStock reports live stock for productID.
func (c *Catalog) AvailableStock(productID string) (int, bool) {
	p, ok := c.byID[productID]
	if !ok {
		return 0, false
	}
	return p.Stock, true
}

// DecrementStock lowers stock by amount, flooring at zero.
func (c *Catalog) DecrementStock(productID string, amount int) error {
	p, ok := c.byID[productID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	p.Stock -= amount
	if p.Stock < 0 {
		p.Stock = 0
	}
	c.dirty[productID] = true
	return nil
}

// PersistCatalog writes the stock of every product in one transaction.
func (c *Catalog) PersistCatalog(ctx context.Context) (err error) {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin catalog transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, p := range c.products {
		if err = database.UpdateStockInTx(tx, p.ID, p.Stock); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	clear(c.dirty)
	c.log.Debug("catalog persisted", zap.Int("products", len(c.products)))
	return nil
}
