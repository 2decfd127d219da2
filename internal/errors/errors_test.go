package errors

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
)

func TestAPIError_StatusMapping(t *testing.T) {
	tests := []struct {
		err  *APIError
		want int
	}{
		{ErrInvalidCredentialsError, http.StatusUnauthorized},
		{ErrTokenExpiredError, http.StatusUnauthorized},
		{ErrForbiddenError, http.StatusForbidden},
		{ErrNotReviewAuthorError, http.StatusForbidden},
		{ErrCompanyNotFoundError, http.StatusNotFound},
		{ErrReviewNotFoundError, http.StatusNotFound},
		{ErrPostNotFoundError, http.StatusNotFound},
		{ErrUserNotFoundError, http.StatusNotFound},
		{ErrDuplicateReviewError, http.StatusConflict},
		{ErrDuplicateSlugError, http.StatusConflict},
		{ErrInternalServerError, http.StatusInternalServerError},
		{ErrAggregationFailedError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if tt.err.HTTPStatus != tt.want {
			t.Errorf("%s: HTTPStatus = %d, want %d", tt.err.Code, tt.err.HTTPStatus, tt.want)
		}
	}
}

func TestAPIError_CodePrefixMatchesStatus(t *testing.T) {
	// The first three digits of every error code encode its HTTP status
	errs := []*APIError{
		ErrInvalidCredentialsError, ErrTokenExpiredError, ErrForbiddenError,
		ErrNotReviewAuthorError, ErrCompanyNotFoundError, ErrReviewNotFoundError,
		ErrPostNotFoundError, ErrUserNotFoundError, ErrDuplicateReviewError,
		ErrDuplicateSlugError, ErrInternalServerError, ErrAggregationFailedError,
	}

	for _, e := range errs {
		prefix := string(e.Code)[:3]
		if prefix != strconv.Itoa(e.HTTPStatus) {
			t.Errorf("%s: code prefix %s does not match status %d", e.Code, prefix, e.HTTPStatus)
		}
	}
}

func TestNewValidationError_CarriesDetails(t *testing.T) {
	err := NewValidationError(map[string]string{"rating": "must be between 1 and 5"})

	if err.HTTPStatus != http.StatusBadRequest {
		t.Errorf("Validation error status = %d, want 400", err.HTTPStatus)
	}
	if err.Details == nil {
		t.Error("Expected details to be carried through")
	}
}

func TestErrorResponse_Serialization(t *testing.T) {
	resp := NewErrorResponse(ErrDuplicateReviewError, "req-123")

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal error response: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal error response: %v", err)
	}

	if decoded["request_id"] != "req-123" {
		t.Errorf("request_id = %v, want req-123", decoded["request_id"])
	}
	inner, ok := decoded["error"].(map[string]any)
	if !ok {
		t.Fatal("Expected nested error object")
	}
	if inner["code"] != "40901" {
		t.Errorf("code = %v, want 40901", inner["code"])
	}
	if _, present := inner["details"]; present {
		t.Error("Empty details should be omitted from JSON")
	}
}

func TestAPIError_ImplementsError(t *testing.T) {
	var err error = ErrCompanyNotFoundError
	if err.Error() != "Company not found" {
		t.Errorf("Error() = %q", err.Error())
	}
}
