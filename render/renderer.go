package render

import (
	"fmt"
	"strings"

	"storefront/model"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders amounts and product text for the storefront views.
type Formatter struct {
	printer *message.Printer
	symbol  string
}

// NewFormatter builds a Formatter for a BCP 47 locale such as "en" or "de".
// An unparsable locale falls back to English.
func NewFormatter(locale, currencySymbol string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Formatter{printer: message.NewPrinter(tag), symbol: currencySymbol}
}

// Money formats d with two decimals followed by the currency symbol.
func (f *Formatter) Money(d decimal.Decimal) string {
	return f.printer.Sprintf("%.2f %s", d.Round(2).InexactFloat64(), f.symbol)
}

// Totals is the amounts block shown under the cart.
type Totals struct {
	Subtotal              decimal.Decimal
	FirstPurchaseDiscount decimal.Decimal
	CategoryDiscount      decimal.Decimal
	FinalTotal            decimal.Decimal
}

// RenderTotals produces the "Totals and Discounts" text.
func (f *Formatter) RenderTotals(t Totals) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Subtotal: %s\n", f.Money(t.Subtotal)))
	sb.WriteString(fmt.Sprintf("First Purchase Discount (10%%): -%s\n", f.Money(t.FirstPurchaseDiscount)))
	sb.WriteString(fmt.Sprintf("Three Items in the same Category Discount (20%%): -%s\n", f.Money(t.CategoryDiscount)))
	sb.WriteString(fmt.Sprintf("Final Total: %s", f.Money(t.FinalTotal)))
	return sb.String()
}

// ProductInfo is the one-line category specific summary used in product tables.
func ProductInfo(p *model.Product) string {
	switch d := p.Details.(type) {
	case model.ElectronicsDetails:
		return fmt.Sprintf("Brand: %s, Warranty: %d weeks", d.Brand, d.WarrantyWeeks)
	case model.ClothingDetails:
		return fmt.Sprintf("Size: %s, Color: %s", d.Size, d.Color)
	default:
		return ""
	}
}

// ProductDetails is the multi-line description shown for a selected product or cart line.
func ProductDetails(p *model.Product) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Product Id: %s\n", p.ID))
	sb.WriteString(fmt.Sprintf("Category: %s\n", p.Category()))
	sb.WriteString(fmt.Sprintf("Name: %s\n", p.Name))
	switch d := p.Details.(type) {
	case model.ElectronicsDetails:
		sb.WriteString(fmt.Sprintf("Brand: %s\n", d.Brand))
		sb.WriteString(fmt.Sprintf("Warranty: %d weeks\n", d.WarrantyWeeks))
	case model.ClothingDetails:
		sb.WriteString(fmt.Sprintf("Size: %s\n", d.Size))
		sb.WriteString(fmt.Sprintf("Color: %s\n", d.Color))
	}
	sb.WriteString(fmt.Sprintf("Items Available: %d", p.Stock))
	return sb.String()
}
