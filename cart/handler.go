package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"storefront/model"
	"storefront/render"
	"storefront/session"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductFinder resolves catalog products by ID.
type ProductFinder interface {
	FindByID(productID string) (*model.Product, bool)
}

// LineView is one row of the cart table.
type LineView struct {
	ProductID string          `json:"productId"`
	Details   string          `json:"details"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	PriceText string          `json:"priceText"`
}

// View is the cart as returned to the front end.
type View struct {
	Lines   []LineView `json:"lines"`
	Summary Summary    `json:"summary"`
	Totals  string     `json:"totals"`
}

func buildView(c *Cart, user *model.User, f *render.Formatter) View {
	v := View{Lines: make([]LineView, 0, len(c.lines))}
	for _, l := range c.Lines() {
		v.Lines = append(v.Lines, LineView{
			ProductID: l.Product.ID,
			Details:   render.ProductDetails(l.Product),
			Quantity:  l.Quantity,
			Price:     l.Subtotal(),
			PriceText: f.Money(l.Subtotal()),
		})
	}
	v.Summary = c.Summarize(user)
	v.Totals = f.RenderTotals(render.Totals(v.Summary))
	return v
}

type lineInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// GetCartHandler returns the session cart with its totals.
func GetCartHandler(reg *Registry, f *render.Formatter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := session.FromContext(r.Context())
		writeJSON(w, http.StatusOK, buildView(reg.For(s.ID), s.CurrentUser(), f))
	}
}

// AddProductHandler adds one unit of a catalog product to the session cart.
func AddProductHandler(reg *Registry, products ProductFinder, f *render.Formatter, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in lineInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.ProductID == "" {
			writeJSONError(w, "Product ID is required", http.StatusBadRequest)
			return
		}
		p, ok := products.FindByID(in.ProductID)
		if !ok {
			writeJSONError(w, "Product not found", http.StatusNotFound)
			return
		}
		s := session.FromContext(r.Context())
		c := reg.For(s.ID)
		c.AddProduct(p)
		log.Info("product added to cart", zap.String("session", s.ID), zap.String("product_id", p.ID), zap.Int("quantity", c.Quantity(p.ID)))
		writeJSON(w, http.StatusOK, buildView(c, s.CurrentUser(), f))
	}
}

// UpdateQuantityHandler overwrites the quantity of a cart line.
func UpdateQuantityHandler(reg *Registry, f *render.Formatter, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in lineInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSONError(w, "Please enter a valid quantity.", http.StatusBadRequest)
			return
		}
		s := session.FromContext(r.Context())
		c := reg.For(s.ID)
		if err := c.UpdateQuantity(in.ProductID, in.Quantity); err != nil {
			log.Warn("quantity update rejected", zap.String("product_id", in.ProductID), zap.Int("quantity", in.Quantity), zap.Error(err))
			WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, buildView(c, s.CurrentUser(), f))
	}
}

// RemoveProductHandler drops one line from the cart.
func RemoveProductHandler(reg *Registry, f *render.Formatter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in lineInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.ProductID == "" {
			writeJSONError(w, "Product ID is required", http.StatusBadRequest)
			return
		}
		s := session.FromContext(r.Context())
		c := reg.For(s.ID)
		if err := c.Remove(in.ProductID); err != nil {
			WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, buildView(c, s.CurrentUser(), f))
	}
}

// ClearCartHandler empties the session cart.
func ClearCartHandler(reg *Registry, f *render.Formatter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := session.FromContext(r.Context())
		c := reg.For(s.ID)
		c.Clear()
		writeJSON(w, http.StatusOK, buildView(c, s.CurrentUser(), f))
	}
}

// StatusFor maps a storefront error to an HTTP status.
func StatusFor(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Code {
	case CodeInvalidQuantity, CodeEmptyCart:
		return http.StatusBadRequest
	case CodeItemNotInCart:
		return http.StatusNotFound
	case CodeNoUser:
		return http.StatusUnauthorized
	case CodeInsufficientStock:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as {"code", "message"} with the matching status.
func WriteError(w http.ResponseWriter, err error) {
	code := "INTERNAL"
	var e *Error
	if errors.As(err, &e) {
		code = e.Code.String()
	}
	writeJSON(w, StatusFor(err), map[string]string{"code": code, "message": err.Error()})
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{"message": message})
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}
