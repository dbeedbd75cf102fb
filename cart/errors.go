package cart

import "fmt"

// Code classifies storefront failures shared by cart edits and purchase commit.
type Code int

const (
	CodeInvalidQuantity Code = iota
	CodeItemNotInCart
	CodeEmptyCart
	CodeNoUser
	CodeInsufficientStock
	CodePersistenceFailure
)

const (
	ErrMsgQuantityPositive   = "Quantity must be positive"
	ErrMsgItemNotInCart      = "Item not in cart"
	ErrMsgCartEmpty          = "Your cart is empty"
	ErrMsgNoUser             = "No user is currently logged in"
	ErrMsgInsufficientStock  = "One or more items in your cart exceed the available quantity"
	ErrMsgPersistenceFailure = "Purchase completed but could not be saved"
)

func (c Code) String() string {
	switch c {
	case CodeInvalidQuantity:
		return "INVALID_QUANTITY"
	case CodeItemNotInCart:
		return "ITEM_NOT_IN_CART"
	case CodeEmptyCart:
		return "EMPTY_CART"
	case CodeNoUser:
		return "NO_USER"
	case CodeInsufficientStock:
		return "INSUFFICIENT_STOCK"
	case CodePersistenceFailure:
		return "PERSISTENCE_FAILURE"
	default:
		return "UNKNOWN"
	}
}

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so errors.Is(err, ErrEmptyCart) works
// for errors carrying a different message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrInvalidQuantity    = &Error{Code: CodeInvalidQuantity, Message: ErrMsgQuantityPositive}
	ErrItemNotInCart      = &Error{Code: CodeItemNotInCart, Message: ErrMsgItemNotInCart}
	ErrEmptyCart          = &Error{Code: CodeEmptyCart, Message: ErrMsgCartEmpty}
	ErrNoUser             = &Error{Code: CodeNoUser, Message: ErrMsgNoUser}
	ErrInsufficientStock  = &Error{Code: CodeInsufficientStock, Message: ErrMsgInsufficientStock}
	ErrPersistenceFailure = &Error{Code: CodePersistenceFailure, Message: ErrMsgPersistenceFailure}
)

// NewPersistenceFailure wraps a collaborator save error.
func NewPersistenceFailure(err error) *Error {
	return &Error{Code: CodePersistenceFailure, Message: ErrMsgPersistenceFailure, Err: err}
}
