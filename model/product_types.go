package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Category is the product classification used for filtering and discounts.
type Category string

const (
	CategoryGeneral     Category = "General"
	CategoryElectronics Category = "Electronics"
	CategoryClothing    Category = "Clothing"
)

// ParseCategory maps a stored or seeded category name to a Category.
// Unknown names fall back to CategoryGeneral.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryElectronics:
		return CategoryElectronics
	case CategoryClothing:
		return CategoryClothing
	default:
		return CategoryGeneral
	}
}

// LookupCategory matches a category name case-insensitively.
func LookupCategory(s string) (Category, bool) {
	for _, c := range []Category{CategoryElectronics, CategoryClothing, CategoryGeneral} {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

// Details is the category specific part of a product.
// Only the types in this package implement it.
type Details interface {
	category() Category
}

type ElectronicsDetails struct {
	Brand         string `json:"brand"`
	WarrantyWeeks int    `json:"warrantyWeeks"`
}

func (ElectronicsDetails) category() Category { return CategoryElectronics }

type ClothingDetails struct {
	Size  string `json:"size"`
	Color string `json:"color"`
}

func (ClothingDetails) category() Category { return CategoryClothing }

// Product is a catalog entry. Stock is owned by the catalog; carts only hold pointers.
type Product struct {
	ID      string          `json:"productId"`
	Name    string          `json:"productName"`
	Price   decimal.Decimal `json:"price"`
	Stock   int             `json:"availableItems"`
	Details Details         `json:"details,omitempty"`
}

// Category returns the product category derived from its details.
func (p *Product) Category() Category {
	if p == nil || p.Details == nil {
		return CategoryGeneral
	}
	return p.Details.category()
}
