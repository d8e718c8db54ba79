package errors

import (
	"net/http"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Validation errors (400xx)
	ErrInvalidRequest    ErrorCode = "40001"
	ErrValidationFailed  ErrorCode = "40002"
	ErrInvalidIdentifier ErrorCode = "40003"
	ErrInvalidWindow     ErrorCode = "40004"
	ErrInvalidBudget     ErrorCode = "40005"
	ErrInvalidAmount     ErrorCode = "40006"

	// Authentication errors (401xx)
	ErrInvalidCredentials ErrorCode = "40101"
	ErrTokenExpired       ErrorCode = "40102"

	// Authorization errors (403xx)
	ErrForbidden           ErrorCode = "40301"
	ErrNotOwner            ErrorCode = "40302"
	ErrNotAssignedResolver ErrorCode = "40303"
	ErrNotAParty           ErrorCode = "40304"

	// Resource errors (404xx)
	ErrNotFound ErrorCode = "40401"

	// Duplicate errors (409xx)
	ErrDuplicateIdentifier  ErrorCode = "40901"
	ErrDuplicateApplication ErrorCode = "40902"
	ErrAlreadyPaid          ErrorCode = "40903"

	// State errors (422xx)
	ErrWindowClosed    ErrorCode = "42201"
	ErrCampaignFull    ErrorCode = "42202"
	ErrAlreadyReviewed ErrorCode = "42203"
	ErrNotAccepted     ErrorCode = "42204"
	ErrNotAWinner      ErrorCode = "42205"
	ErrNoApplication   ErrorCode = "42206"
	ErrInvalidState    ErrorCode = "42207"
	ErrDisputeClosed   ErrorCode = "42208"

	// Financial errors (402xx)
	ErrInsufficientFunds   ErrorCode = "40201"
	ErrInsufficientReserve ErrorCode = "40202"

	// Rate limit errors (429xx)
	ErrRateLimited ErrorCode = "42901"

	// Server errors (500xx)
	ErrInternalServer ErrorCode = "50001"
)

// APIError represents a standardized API error
type APIError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    any       `json:"details,omitempty"`
	HTTPStatus int       `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// ErrorResponse represents the error response format
type ErrorResponse struct {
	Error     APIError `json:"error"`
	RequestID string   `json:"request_id"`
}

// Common errors
var (
	ErrInvalidCredentialsError = &APIError{
		Code:       ErrInvalidCredentials,
		Message:    "Invalid or missing credentials",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenExpiredError = &APIError{
		Code:       ErrTokenExpired,
		Message:    "Token has expired",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrForbiddenError = &APIError{
		Code:       ErrForbidden,
		Message:    "Access denied",
		HTTPStatus: http.StatusForbidden,
	}

	ErrNotFoundError = &APIError{
		Code:       ErrNotFound,
		Message:    "Resource not found",
		HTTPStatus: http.StatusNotFound,
	}

	ErrRateLimitedError = &APIError{
		Code:       ErrRateLimited,
		Message:    "Rate limit exceeded",
		HTTPStatus: http.StatusTooManyRequests,
	}

	ErrInternalServerError = &APIError{
		Code:       ErrInternalServer,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
	}
)

// New creates an APIError with the given code, message and HTTP status
func New(code ErrorCode, message string, status int) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

// NewValidationError creates a validation error with details
func NewValidationError(details any) *APIError {
	return &APIError{
		Code:       ErrValidationFailed,
		Message:    "Validation failed",
		Details:    details,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) *APIError {
	return &APIError{
		Code:       ErrInvalidRequest,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}
