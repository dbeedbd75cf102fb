package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchasedItem is a cart line frozen at commit time.
type PurchasedItem struct {
	ProductID string          `db:"product_id" json:"productId"`
	Name      string          `db:"product_name" json:"productName"`
	Category  Category        `db:"category" json:"category"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unitPrice"`
	Quantity  int             `db:"quantity" json:"quantity"`
}

// PurchaseRecord is one completed purchase. It is never modified after creation.
type PurchaseRecord struct {
	ID       string          `json:"purchaseId"`
	Username string          `json:"username"`
	Items    []PurchasedItem `json:"items"`
	Total    decimal.Decimal `json:"total"`
	Date     time.Time       `json:"date"`
}

type User struct {
	ID           string           `json:"id"`
	Username     string           `json:"username"`
	PasswordHash string           `json:"-"`
	Purchases    []PurchaseRecord `json:"purchases"`
}

// IsFirstPurchase reports whether the user has never completed a purchase.
func (u *User) IsFirstPurchase() bool {
	return len(u.Purchases) == 0
}
