package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an application error within the payment workflow.
type Kind int

const (
	KindInternal         Kind = 0
	KindConfiguration    Kind = 1 // precondition not met, fail fast before any network call
	KindValidation       Kind = 2 // caller-input defect, correct and rebuild
	KindBusy             Kind = 3 // another transaction is already in flight
	KindNotStoppable     Kind = 4 // card data captured, transaction can no longer be stopped
	KindAmbiguousService Kind = 5 // multiple services configured and none selected
	KindNotFound         Kind = 6
)

// AppError represents an application error with a workflow kind and
// the HTTP status code used when it crosses the API boundary.
type AppError struct {
	Kind    Kind         `json:"-"`
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Common errors
var (
	ErrBusy           = &AppError{Kind: KindBusy, Code: http.StatusConflict, Message: "A transaction is already in progress"}
	ErrNotStoppable   = &AppError{Kind: KindNotStoppable, Code: http.StatusConflict, Message: "Card data already captured, transaction cannot be stopped"}
	ErrNoTransaction  = &AppError{Kind: KindNotFound, Code: http.StatusNotFound, Message: "No active transaction"}
	ErrUnauthorized   = &AppError{Code: http.StatusUnauthorized, Message: "Unauthorized"}
	ErrForbidden      = &AppError{Code: http.StatusForbidden, Message: "Forbidden"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Message: "Internal server error"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewConfigurationError creates an engine configuration error
func NewConfigurationError(message string) *AppError {
	return &AppError{
		Kind:    KindConfiguration,
		Code:    http.StatusPreconditionFailed,
		Message: message,
	}
}

// NewValidationError creates a builder validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Code:    http.StatusUnprocessableEntity,
		Message: message,
	}
}

// NewFieldValidationError creates a validation error carrying per-field details
func NewFieldValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Code:    http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewAmbiguousServiceError is returned when the tenant has several services
// configured and the transaction did not select one.
func NewAmbiguousServiceError() *AppError {
	return &AppError{
		Kind:    KindAmbiguousService,
		Code:    http.StatusUnprocessableEntity,
		Message: "Multiple services configured, transaction must specify one",
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Code:    http.StatusNotFound,
		Message: resource + " not found",
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: err.Error(),
	}
}
