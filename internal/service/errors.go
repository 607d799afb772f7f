package service

import (
	"errors"
	"fmt"
)

// Expected failures. Handlers translate these into {error} responses;
// anything else is an infrastructure failure and stays generic for the user.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrEmailTaken         = errors.New("email already in use")
	ErrCodeInvalid        = errors.New("invalid code")
	ErrCodeExpired        = errors.New("expired code")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrInvalidTransition  = errors.New("invalid order status transition")
)

// InsufficientStockError names the product that cannot cover the requested
// quantity.
type InsufficientStockError struct {
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock available for %s", e.ProductName)
}

// IsExpected reports whether err belongs to the business/validation error
// taxonomy rather than an infrastructure failure.
func IsExpected(err error) bool {
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		return true
	}
	for _, e := range []error{
		ErrInvalidCredentials, ErrEmailNotVerified, ErrEmailTaken,
		ErrCodeInvalid, ErrCodeExpired, ErrEmptyCart,
		ErrNotFound, ErrForbidden, ErrInvalidQuantity,
		ErrInvalidRating, ErrInvalidTransition,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
