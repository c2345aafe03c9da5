package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrDuplicateUsername is returned when a username is already taken.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrInvalidRole is returned when a role is outside the fixed set.
	ErrInvalidRole = errors.New("invalid role")
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when the actor's role does not permit the action.
	ErrUnauthorized = errors.New("action not allowed for role")
	// ErrInvalidAmount is returned when a cash amount is zero or negative.
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	// ErrSelfActionForbidden is returned when an actor targets its own account.
	ErrSelfActionForbidden = errors.New("cannot delete or deactivate own account")
	// ErrLastAdminProtected is returned when a mutation would leave zero active admins.
	ErrLastAdminProtected = errors.New("at least one active admin must remain")
	// ErrInvalidStatus is returned when an order status is outside the workflow set.
	ErrInvalidStatus = errors.New("invalid order status")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrDuplicateUsername):
		return NewHTTPError(http.StatusConflict, err.Error(), "DUPLICATE_USERNAME")
	case errors.Is(err, ErrInvalidRole):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_ROLE")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusForbidden, err.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrInvalidAmount):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_AMOUNT")
	case errors.Is(err, ErrSelfActionForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "SELF_ACTION_FORBIDDEN")
	case errors.Is(err, ErrLastAdminProtected):
		return NewHTTPError(http.StatusConflict, err.Error(), "LAST_ADMIN_PROTECTED")
	case errors.Is(err, ErrInvalidStatus):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_STATUS")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
