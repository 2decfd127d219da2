package errors

import (
	"net/http"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Authentication errors (401xx)
	ErrInvalidCredentials ErrorCode = "40101"
	ErrTokenExpired       ErrorCode = "40102"

	// Authorization errors (403xx)
	ErrForbidden       ErrorCode = "40301"
	ErrNotReviewAuthor ErrorCode = "40302"

	// Resource errors (404xx)
	ErrCompanyNotFound ErrorCode = "40401"
	ErrReviewNotFound  ErrorCode = "40402"
	ErrPostNotFound    ErrorCode = "40403"
	ErrUserNotFound    ErrorCode = "40404"

	// Request errors (400xx)
	ErrInvalidRequest   ErrorCode = "40001"
	ErrValidationFailed ErrorCode = "40002"

	// Conflict errors (409xx)
	ErrDuplicateReview ErrorCode = "40901"
	ErrDuplicateSlug   ErrorCode = "40902"

	// Server errors (500xx)
	ErrInternalServer    ErrorCode = "50001"
	ErrAggregationFailed ErrorCode = "50002"
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
		Message:    "Invalid email or password",
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

	ErrNotReviewAuthorError = &APIError{
		Code:       ErrNotReviewAuthor,
		Message:    "Only the review author may modify this review",
		HTTPStatus: http.StatusForbidden,
	}

	ErrCompanyNotFoundError = &APIError{
		Code:       ErrCompanyNotFound,
		Message:    "Company not found",
		HTTPStatus: http.StatusNotFound,
	}

	ErrReviewNotFoundError = &APIError{
		Code:       ErrReviewNotFound,
		Message:    "Review not found",
		HTTPStatus: http.StatusNotFound,
	}

	ErrPostNotFoundError = &APIError{
		Code:       ErrPostNotFound,
		Message:    "Blog post not found",
		HTTPStatus: http.StatusNotFound,
	}

	ErrUserNotFoundError = &APIError{
		Code:       ErrUserNotFound,
		Message:    "User not found",
		HTTPStatus: http.StatusNotFound,
	}

	ErrDuplicateReviewError = &APIError{
		Code:       ErrDuplicateReview,
		Message:    "You have already reviewed this company",
		HTTPStatus: http.StatusConflict,
	}

	ErrDuplicateSlugError = &APIError{
		Code:       ErrDuplicateSlug,
		Message:    "A record with this name already exists",
		HTTPStatus: http.StatusConflict,
	}

	ErrInternalServerError = &APIError{
		Code:       ErrInternalServer,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrAggregationFailedError = &APIError{
		Code:       ErrAggregationFailed,
		Message:    "Failed to update company rating, the review change was rolled back",
		HTTPStatus: http.StatusInternalServerError,
	}
)

// NewValidationError creates a validation error with field-level details
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

// NewErrorResponse builds the response envelope for an API error
func NewErrorResponse(err *APIError, requestID string) *ErrorResponse {
	return &ErrorResponse{
		Error:     *err,
		RequestID: requestID,
	}
}
