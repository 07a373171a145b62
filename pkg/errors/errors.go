package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrConflict      = errors.New("conflict")
	ErrInternal      = errors.New("internal error")

	// Registry checkout sentinels. Validation errors are caller-fixable and
	// never retried; conflict errors are retryable, possibly with a changed
	// cart.
	ErrEmptyCart              = errors.New("cart is empty")
	ErrInvalidGift            = errors.New("unknown gift")
	ErrInvalidQuantity        = errors.New("quantity out of range")
	ErrStockExhausted         = errors.New("gift stock exhausted")
	ErrReferenceCodeExhausted = errors.New("reference code space exhausted")
	ErrInvalidStatus          = errors.New("invalid order status")
)

// AppError is a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Conflict creates a 409 error for retryable concurrent-modification failures.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// Internal creates a 500 error. The wrapped cause is logged, never surfaced.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// EmptyCart creates a 400 error for a checkout with no items.
func EmptyCart() *AppError {
	return &AppError{
		Code:    "EMPTY_CART",
		Message: "cart must contain at least one gift",
		Status:  http.StatusBadRequest,
		Err:     ErrEmptyCart,
	}
}

// InvalidGift creates a 400 error for a gift unknown to the event's catalog.
func InvalidGift(giftID string) *AppError {
	return &AppError{
		Code:    "INVALID_GIFT",
		Message: fmt.Sprintf("gift %s is not available for this event", giftID),
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidGift,
	}
}

// InvalidQuantity creates a 400 error for an out-of-range quantity.
func InvalidQuantity(giftID string, qty, max int) *AppError {
	return &AppError{
		Code:    "INVALID_QUANTITY",
		Message: fmt.Sprintf("quantity %d for gift %s must be between 1 and %d", qty, giftID, max),
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidQuantity,
	}
}

// StockExhausted creates a 409 error: the cart raced another guest for the
// last units of a capped gift. Retryable with a different cart, not an input
// problem.
func StockExhausted(giftID string) *AppError {
	return &AppError{
		Code:    "STOCK_EXHAUSTED",
		Message: fmt.Sprintf("gift %s is no longer available in the requested quantity", giftID),
		Status:  http.StatusConflict,
		Err:     ErrStockExhausted,
	}
}

// ReferenceCodeExhausted creates a 409 error after repeated reference-code
// collisions. Collision probability is astronomically low, so hitting this
// is an alerting condition.
func ReferenceCodeExhausted() *AppError {
	return &AppError{
		Code:    "REFERENCE_CODE_EXHAUSTED",
		Message: "could not allocate a unique reference code, please retry",
		Status:  http.StatusConflict,
		Err:     ErrReferenceCodeExhausted,
	}
}

// InvalidStatus creates a 400 error for a status outside the known set.
func InvalidStatus(status string) *AppError {
	return &AppError{
		Code:    "INVALID_STATUS",
		Message: fmt.Sprintf("unknown order status %q", status),
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidStatus,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
