// Package errors provides categorized errors for the tipping system.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/walt-tipbot/internal/types"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategoryValidation represents malformed input errors (4xx)
	CategoryValidation ErrorCategory = "validation"
	// CategoryNotFound represents not found errors
	CategoryNotFound ErrorCategory = "not_found"
	// CategoryConflict represents duplicate-claim conflicts
	CategoryConflict ErrorCategory = "conflict"
	// CategoryUnavailable represents unconfigured or disabled subsystems
	CategoryUnavailable ErrorCategory = "unavailable"
	// CategoryExternal represents blockchain or messaging call failures
	CategoryExternal ErrorCategory = "external"
	// CategorySystem represents internal errors (5xx)
	CategorySystem ErrorCategory = "system"
)

// CategorizedError represents an error with category and HTTP status code
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// ToServiceError converts to a ServiceError for API payloads
func (e *CategorizedError) ToServiceError() *types.ServiceError {
	return &types.ServiceError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// NewValidationError creates a malformed-input error
func NewValidationError(message string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       "VALIDATION_ERROR",
		Message:    message,
	}
}

// NewInvalidAddressError creates an invalid address error
func NewInvalidAddressError(address string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_ADDRESS",
		Message:    "invalid address",
		Details: map[string]interface{}{
			"address": address,
		},
	}
}

// NewInvalidAmountError creates an error for a non-positive or non-numeric amount
func NewInvalidAmountError(amount string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_AMOUNT",
		Message:    fmt.Sprintf("invalid amount: %s", amount),
		Details: map[string]interface{}{
			"amount": amount,
		},
	}
}

// NewUnlinkedWalletError creates an error for a user without a linked wallet
func NewUnlinkedWalletError(telegramID string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       "UNLINKED_WALLET",
		Message:    "user has no linked wallet",
		Details: map[string]interface{}{
			"telegramId": telegramID,
		},
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string, id string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryNotFound,
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found: %s", resource, id),
		Details: map[string]interface{}{
			"resource": resource,
			"id":       id,
		},
	}
}

// NewAlreadyClaimedError creates an error for a repeated faucet claim
func NewAlreadyClaimedError(address string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryConflict,
		StatusCode: http.StatusBadRequest,
		Code:       "ALREADY_CLAIMED",
		Message:    "address already claimed",
		Details: map[string]interface{}{
			"address": address,
		},
	}
}

// NewFaucetDisabledError creates an error for an unconfigured faucet
func NewFaucetDisabledError() *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUnavailable,
		StatusCode: http.StatusServiceUnavailable,
		Code:       "FAUCET_DISABLED",
		Message:    "faucet not configured",
	}
}

// NewExternalCallError creates an error for a failed blockchain or messaging call
func NewExternalCallError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryExternal,
		StatusCode: http.StatusInternalServerError,
		Code:       "EXTERNAL_CALL_FAILED",
		Message:    fmt.Sprintf("external call failed during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Cause:      cause,
	}
}

// Categorize wraps an arbitrary error as a CategorizedError
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr
	}

	return NewInternalError("unexpected error", err)
}

// GetHTTPStatusCode returns the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool {
	return hasCategory(err, CategoryNotFound)
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	return hasCategory(err, CategoryValidation)
}

// IsAlreadyClaimed reports whether err is a duplicate faucet claim
func IsAlreadyClaimed(err error) bool {
	var catErr *CategorizedError
	return errors.As(err, &catErr) && catErr.Code == "ALREADY_CLAIMED"
}

// IsUnlinkedWallet reports whether err is an unlinked wallet error
func IsUnlinkedWallet(err error) bool {
	var catErr *CategorizedError
	return errors.As(err, &catErr) && catErr.Code == "UNLINKED_WALLET"
}

// IsFaucetDisabled reports whether err indicates an unconfigured faucet
func IsFaucetDisabled(err error) bool {
	return hasCategory(err, CategoryUnavailable)
}

func hasCategory(err error, category ErrorCategory) bool {
	var catErr *CategorizedError
	return errors.As(err, &catErr) && catErr.Category == category
}
