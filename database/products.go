package database

import (
	"database/sql"
	"fmt"

	"storefront/model"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// ProductRow is the flat storage form of model.Product.
type ProductRow struct {
	ProductID     string          `db:"product_id"`
	Name          string          `db:"name"`
	Category      string          `db:"category"`
	Price         decimal.Decimal `db:"price"`
	Stock         int             `db:"stock"`
	Brand         string          `db:"brand"`
	WarrantyWeeks int             `db:"warranty_weeks"`
	Size          string          `db:"size"`
	Color         string          `db:"color"`
}

const selectProductColumns = `product_id, name, category, price, stock, brand, warranty_weeks, size, color`

// ToProduct rebuilds the category details from the flat columns.
func (r ProductRow) ToProduct() model.Product {
	p := model.Product{
		ID:    r.ProductID,
		Name:  r.Name,
		Price: r.Price,
		Stock: r.Stock,
	}
	switch model.ParseCategory(r.Category) {
	case model.CategoryElectronics:
		p.Details = model.ElectronicsDetails{Brand: r.Brand, WarrantyWeeks: r.WarrantyWeeks}
	case model.CategoryClothing:
		p.Details = model.ClothingDetails{Size: r.Size, Color: r.Color}
	}
	return p
}

// RowFromProduct flattens p for storage.
func RowFromProduct(p model.Product) ProductRow {
	r := ProductRow{
		ProductID: p.ID,
		Name:      p.Name,
		Category:  string(p.Category()),
		Price:     p.Price,
		Stock:     p.Stock,
	}
	switch d := p.Details.(type) {
	case model.ElectronicsDetails:
		r.Brand = d.Brand
		r.WarrantyWeeks = d.WarrantyWeeks
	case model.ClothingDetails:
		r.Size = d.Size
		r.Color = d.Color
	}
	return r
}

// GetAllProducts returns every stored product ordered by product ID.
func GetAllProducts(dbtx DBTX) ([]model.Product, error) {
	var rows []ProductRow
	q := `SELECT ` + selectProductColumns + ` FROM products ORDER BY product_id`
	if err := dbtx.Select(&rows, q); err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	products := make([]model.Product, 0, len(rows))
	for _, r := range rows {
		products = append(products, r.ToProduct())
	}
	return products, nil
}

// GetProductByID returns nil when productID is not stored.
func GetProductByID(dbtx DBTX, productID string) (*model.Product, error) {
	var r ProductRow
	q := dbtx.Rebind(`SELECT ` + selectProductColumns + ` FROM products WHERE product_id = ?`)
	if err := dbtx.Get(&r, q, productID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("GetProductByID (ID: %s) failed: %w", productID, err)
	}
	p := r.ToProduct()
	return &p, nil
}

// InsertProductIfAbsentInTx stores p unless its ID already exists, so a
// reseed never resets stock that purchases have consumed.
func InsertProductIfAbsentInTx(tx *sqlx.Tx, p model.Product) (bool, error) {
	r := RowFromProduct(p)
	q := tx.Rebind(`
		INSERT INTO products (product_id, name, category, price, stock, brand, warranty_weeks, size, color)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(product_id) DO NOTHING
	`)
	res, err := tx.Exec(q, r.ProductID, r.Name, r.Category, r.Price, r.Stock, r.Brand, r.WarrantyWeeks, r.Size, r.Color)
	if err != nil {
		return false, fmt.Errorf("InsertProductIfAbsentInTx (ID: %s) failed: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("InsertProductIfAbsentInTx (ID: %s) rows affected: %w", p.ID, err)
	}
	return n > 0, nil
}

// UpdateStockInTx writes the current stock of one product.
func UpdateStockInTx(tx *sqlx.Tx, productID string, stock int) error {
	q := tx.Rebind(`UPDATE products SET stock = ? WHERE product_id = ?`)
	if _, err := tx.Exec(q, stock, productID); err != nil {
		return fmt.Errorf("UpdateStockInTx (ID: %s) failed: %w", productID, err)
	}
	return nil
}
