package app

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrOutOfStock      = errors.New("out of stock")

	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	ErrCartNotFound    = fmt.Errorf("cart %w", ErrNotFound)
	ErrItemNotFound    = fmt.Errorf("cart item %w", ErrNotFound)
)

const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidQuantity = "INVALID_QUANTITY"
	CodeOutOfStock      = "OUT_OF_STOCK"
	CodeServerError     = "SERVER_ERROR"
)

// ErrorCode classifies err into the wire error codes. Anything unrecognised is
// a server error.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return CodeUnauthenticated
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidQuantity):
		return CodeInvalidQuantity
	case errors.Is(err, ErrOutOfStock):
		return CodeOutOfStock
	default:
		return CodeServerError
	}
}

// PublicMessage hides storage details of server errors from clients.
func PublicMessage(err error) string {
	if ErrorCode(err) == CodeServerError {
		return "internal error"
	}
	return err.Error()
}
