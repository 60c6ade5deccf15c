// Package apperror provides structured error handling for the stock core.
// All business errors must use AppError so callers can react on codes,
// not on message strings.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced by the stock core
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeStorage  = "STORAGE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations (422)
	CodeInactiveProduct = "INACTIVE_PRODUCT"
	CodeInvalidState    = "INVALID_STATE"
	CodeIncompleteCount = "INCOMPLETE_COUNT"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict = "CONFLICT"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInactiveProduct creates an error for operations against a disabled product
func NewInactiveProduct(productID string) *AppError {
	return &AppError{
		Code:       CodeInactiveProduct,
		Message:    "Product is inactive",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"product_id": productID},
	}
}

// NewInvalidState creates an error for operations illegal in the entity's
// current lifecycle state (422)
func NewInvalidState(entity, current, operation string) *AppError {
	return &AppError{
		Code:       CodeInvalidState,
		Message:    fmt.Sprintf("%s cannot %s in status %q", entity, operation, current),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"entity": entity, "status": current, "operation": operation},
	}
}

// NewIncompleteCount creates an error for finalize attempts with uncounted items
func NewIncompleteCount(sessionID string, uncounted int) *AppError {
	return &AppError{
		Code:       CodeIncompleteCount,
		Message:    "All items must be counted before finalize",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"session_id": sessionID, "uncounted": uncounted},
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewStorage creates a transient persistence error (503).
// The caller owns retry policy; the core never retries internally.
func NewStorage(err error) *AppError {
	return &AppError{
		Code:       CodeStorage,
		Message:    "Storage operation failed",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// isCode reports whether err carries the given code.
func isCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool { return isCode(err, CodeNotFound) }

// IsConflict checks if error is CodeConflict
func IsConflict(err error) bool { return isCode(err, CodeConflict) }

// IsValidation checks if error is CodeValidation
func IsValidation(err error) bool { return isCode(err, CodeValidation) }

// IsInvalidState checks if error is CodeInvalidState
func IsInvalidState(err error) bool { return isCode(err, CodeInvalidState) }

// IsIncompleteCount checks if error is CodeIncompleteCount
func IsIncompleteCount(err error) bool { return isCode(err, CodeIncompleteCount) }

// IsInactiveProduct checks if error is CodeInactiveProduct
func IsInactiveProduct(err error) bool { return isCode(err, CodeInactiveProduct) }

// IsStorage checks if error is CodeStorage
func IsStorage(err error) bool { return isCode(err, CodeStorage) }
