package database

import (
	"fmt"
	"time"

	"storefront/model"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type purchaseRow struct {
	ID          string          `db:"id"`
	Username    string          `db:"username"`
	Total       decimal.Decimal `db:"total"`
	PurchasedAt time.Time       `db:"purchased_at"`
}

type purchaseItemRow struct {
	PurchaseID string `db:"purchase_id"`
	model.PurchasedItem
}

// InsertPurchaseInTx stores rec and its items. Re-inserting the same record is a no-op.
func InsertPurchaseInTx(tx *sqlx.Tx, rec model.PurchaseRecord) error {
	q := tx.Rebind(`
		INSERT INTO purchases (id, username, total, purchased_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`)
	res, err := tx.Exec(q, rec.ID, rec.Username, rec.Total, rec.Date.UTC())
	if err != nil {
		return fmt.Errorf("InsertPurchaseInTx (ID: %s) failed: %w", rec.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil
	}

	itemQ := tx.Rebind(`
		INSERT INTO purchase_items (purchase_id, line_no, product_id, name, category, unit_price, quantity)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	for i, it := range rec.Items {
		if _, err := tx.Exec(itemQ, rec.ID, i, it.ProductID, it.Name, string(it.Category), it.UnitPrice, it.Quantity); err != nil {
			return fmt.Errorf("InsertPurchaseInTx item %d of %s failed: %w", i, rec.ID, err)
		}
	}
	return nil
}

// GetPurchasesByUsername returns the history of one user, oldest first.
func GetPurchasesByUsername(dbtx DBTX, username string) ([]model.PurchaseRecord, error) {
	var rows []purchaseRow
	q := dbtx.Rebind(`SELECT id, username, total, purchased_at FROM purchases WHERE username = ? ORDER BY purchased_at, id`)
	if err := dbtx.Select(&rows, q, username); err != nil {
		return nil, fmt.Errorf("GetPurchasesByUsername (%s) failed: %w", username, err)
	}
	return attachItems(dbtx, rows)
}

// GetAllPurchases returns every stored purchase, oldest first.
func GetAllPurchases(dbtx DBTX) ([]model.PurchaseRecord, error) {
	var rows []purchaseRow
	if err := dbtx.Select(&rows, `SELECT id, username, total, purchased_at FROM purchases ORDER BY purchased_at, id`); err != nil {
		return nil, fmt.Errorf("failed to get all purchases: %w", err)
	}
	return attachItems(dbtx, rows)
}

func attachItems(dbtx DBTX, rows []purchaseRow) ([]model.PurchaseRecord, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}

	q, args, err := sqlx.In(`
		SELECT purchase_id, product_id, name AS product_name, category, unit_price, quantity
		FROM purchase_items WHERE purchase_id IN (?) ORDER BY purchase_id, line_no
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build purchase item query: %w", err)
	}
	var items []purchaseItemRow
	if err := dbtx.Select(&items, dbtx.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("failed to get purchase items: %w", err)
	}
	byPurchase := make(map[string][]model.PurchasedItem)
	for _, it := range items {
		byPurchase[it.PurchaseID] = append(byPurchase[it.PurchaseID], it.PurchasedItem)
	}

	records := make([]model.PurchaseRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, model.PurchaseRecord{
			ID:       r.ID,
			Username: r.Username,
			Items:    byPurchase[r.ID],
			Total:    r.Total,
			Date:     r.PurchasedAt,
		})
	}
	return records, nil
}
