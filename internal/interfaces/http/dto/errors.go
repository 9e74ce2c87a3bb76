package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Settlement error codes
const (
	// ErrCodeAlreadySettled is used when an expense is already closed
	ErrCodeAlreadySettled = "ERR_ALREADY_SETTLED"
	// ErrCodeBalanceMismatch is used when a reconciliation sum disagrees
	// with the invoice's remaining balance beyond tolerance
	ErrCodeBalanceMismatch = "ERR_BALANCE_MISMATCH"
	// ErrCodeInvoiceLocked is used when mutating a fully paid invoice
	ErrCodeInvoiceLocked = "ERR_INVOICE_LOCKED"
	// ErrCodeInvalidStrategy is used when a settlement request does not
	// carry exactly one recognized strategy
	ErrCodeInvalidStrategy = "ERR_INVALID_STRATEGY"
	// ErrCodeInsufficientFunds is used when a withdrawal would overdraw
	// a funding account that does not allow negative balances
	ErrCodeInsufficientFunds = "ERR_INSUFFICIENT_FUNDS"
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Persistence error codes
const (
	// ErrCodePersistence is used when a storage operation fails
	ErrCodePersistence = "ERR_PERSISTENCE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Settlement errors
	ErrCodeAlreadySettled:    http.StatusConflict,
	ErrCodeInvoiceLocked:     http.StatusConflict,
	ErrCodeBalanceMismatch:   http.StatusUnprocessableEntity,
	ErrCodeInvalidStrategy:   http.StatusBadRequest,
	ErrCodeInsufficientFunds: http.StatusUnprocessableEntity,
	ErrCodeInvalidState:      http.StatusUnprocessableEntity,

	// Persistence errors
	ErrCodePersistence: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the wire format
var DomainErrorCodeMapping = map[string]string{
	"VALIDATION":           ErrCodeValidation,
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"ALREADY_SETTLED":      ErrCodeAlreadySettled,
	"BALANCE_MISMATCH":     ErrCodeBalanceMismatch,
	"INVOICE_LOCKED":       ErrCodeInvoiceLocked,
	"INVALID_STRATEGY":     ErrCodeInvalidStrategy,
	"INSUFFICIENT_FUNDS":   ErrCodeInsufficientFunds,
	"INVALID_STATE":        ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"PERSISTENCE":          ErrCodePersistence,
	"DB_ERROR":             ErrCodePersistence,
}

// NormalizeErrorCode converts a domain error code to the wire format.
// Codes already in the wire format or unknown are returned as-is.
func NormalizeErrorCode(code string) string {
	if wireCode, ok := DomainErrorCodeMapping[code]; ok {
		return wireCode
	}
	return code
}
