package cart

import (
	"storefront/model"

	"github.com/shopspring/decimal"
)

var (
	firstPurchaseRate = decimal.RequireFromString("0.10")
	categoryRate      = decimal.RequireFromString("0.20")
)

// Minimum units of one category for the category discount to apply.
const categoryThreshold = 3

// Line binds a catalog product to a requested quantity.
type Line struct {
	Product  *model.Product
	Quantity int
}

// Subtotal is unit price times quantity.
func (l *Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// StockLookup reports the live stock of a product.
type StockLookup interface {
	AvailableStock(productID string) (int, bool)
}

// Cart holds lines in insertion order. At most one line exists per product ID.
type Cart struct {
	lines []*Line
}

func New() *Cart {
	return &Cart{}
}

// Lines returns the current lines. The slice is a copy; the lines are not.
func (c *Cart) Lines() []*Line {
	out := make([]*Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Quantity returns the quantity for productID, or 0 when there is no line.
func (c *Cart) Quantity(productID string) int {
	if l := c.find(productID); l != nil {
		return l.Quantity
	}
	return 0
}

func (c *Cart) find(productID string) *Line {
	for _, l := range c.lines {
		if l.Product.ID == productID {
			return l
		}
	}
	return nil
}

// AddProduct increments the line for p or appends a new line with quantity 1.
// Stock is not checked here.
func (c *Cart) AddProduct(p *model.Product) {
	if l := c.find(p.ID); l != nil {
		l.Quantity++
		return
	}
	c.lines = append(c.lines, &Line{Product: p, Quantity: 1})
}

// UpdateQuantity overwrites the quantity of an existing line.
func (c *Cart) UpdateQuantity(productID string, newQuantity int) error {
	if newQuantity <= 0 {
		return ErrInvalidQuantity
	}
	l := c.find(productID)
	if l == nil {
		return ErrItemNotInCart
	}
	l.Quantity = newQuantity
	return nil
}

// Remove drops the line for productID.
func (c *Cart) Remove(productID string) error {
	for i, l := range c.lines {
		if l.Product.ID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
	}
	return ErrItemNotInCart
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// FirstPurchaseDiscount is 10% of the subtotal for a user without purchases.
func (c *Cart) FirstPurchaseDiscount(user *model.User) decimal.Decimal {
	if user == nil || !user.IsFirstPurchase() {
		return decimal.Zero
	}
	return c.Subtotal().Mul(firstPurchaseRate)
}

// CategoryDiscount is 20% of each category subtotal whose units add up to at least three.
func (c *Cart) CategoryDiscount() decimal.Decimal {
	units := make(map[model.Category]int)
	subtotals := make(map[model.Category]decimal.Decimal)
	for _, l := range c.lines {
		cat := l.Product.Category()
		units[cat] += l.Quantity
		subtotals[cat] = subtotals[cat].Add(l.Subtotal())
	}

	discount := decimal.Zero
	for cat, n := range units {
		if n >= categoryThreshold {
			discount = discount.Add(subtotals[cat].Mul(categoryRate))
		}
	}
	return discount
}

// FinalTotal subtracts both discounts from the same subtotal and floors the result at zero.
func (c *Cart) FinalTotal(user *model.User) decimal.Decimal {
	total := c.Subtotal().
		Sub(c.FirstPurchaseDiscount(user)).
		Sub(c.CategoryDiscount())
	return decimal.Max(total, decimal.Zero)
}

// ValidateQuantities reports whether every line fits in the live stock.
// Products unknown to lookup are checked against the line's own product.
func (c *Cart) ValidateQuantities(lookup StockLookup) bool {
	for _, l := range c.lines {
		stock, ok := lookup.AvailableStock(l.Product.ID)
		if !ok {
			stock = l.Product.Stock
		}
		if l.Quantity > stock {
			return false
		}
	}
	return true
}

// Summary is the set of amounts shown next to the cart.
type Summary struct {
	Subtotal              decimal.Decimal `json:"subtotal"`
	FirstPurchaseDiscount decimal.Decimal `json:"firstPurchaseDiscount"`
	CategoryDiscount      decimal.Decimal `json:"categoryDiscount"`
	FinalTotal            decimal.Decimal `json:"finalTotal"`
}

func (c *Cart) Summarize(user *model.User) Summary {
	return Summary{
		Subtotal:              c.Subtotal(),
		FirstPurchaseDiscount: c.FirstPurchaseDiscount(user),
		CategoryDiscount:      c.CategoryDiscount(),
		FinalTotal:            c.FinalTotal(user),
	}
}
