package errors

import (
	"errors"
)

var (
	ErrEmptyAuth              = errors.New("no authorization token provided")
	ErrTokenInvalid           = errors.New("invalid or expired token")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrEmailAlreadyRegistered = errors.New("user with this email already exists")
	ErrProductNotFound        = errors.New("product not found")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrStockRestoreFailed     = errors.New("failed restoring stock, stock counts may be inconsistent")
	ErrEmptyCart              = errors.New("cart is empty")
	ErrCartNotFound           = errors.New("cart not found")
	ErrCartConflict           = errors.New("cart was modified concurrently")
	ErrOrderNotFound          = errors.New("order not found")
	ErrIdempotencyKeyConflict = errors.New("idempotency key already used")
)
