package http

import (
	"errors"
	"net/http"

	inErrors "github.com/sportshop/ecommerce/internal/errors"
)

// StatusCodeFromError maps domain errors to the http status code the API
// reports for them. Unknown errors are treated as internal failures.
func StatusCodeFromError(err error) int {
	switch {
	case errors.Is(err, inErrors.ErrEmptyAuth),
		errors.Is(err, inErrors.ErrTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, inErrors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, inErrors.ErrEmailAlreadyRegistered):
		return http.StatusBadRequest
	case errors.Is(err, inErrors.ErrProductNotFound),
		errors.Is(err, inErrors.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, inErrors.ErrInsufficientStock),
		errors.Is(err, inErrors.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, inErrors.ErrCartConflict),
		errors.Is(err, inErrors.ErrIdempotencyKeyConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
