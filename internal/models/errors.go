package models

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/internal/crud"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/logger"
	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/sanitizer"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Authentication errors
	ErrorCodeMissingAPIKey  ErrorCode = "MISSING_API_KEY"
	ErrorCodeInvalidAPIKey  ErrorCode = "INVALID_API_KEY"
	ErrorCodeInactiveAPIKey ErrorCode = "INACTIVE_API_KEY"

	// Admin errors
	ErrorCodeMissingAdminKey ErrorCode = "MISSING_ADMIN_KEY"
	ErrorCodeInvalidAdminKey ErrorCode = "INVALID_ADMIN_KEY"

	// Security pipeline errors
	ErrorCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrorCodeCORSRejected      ErrorCode = "CORS_REJECTED"
	ErrorCodeSecurityViolation ErrorCode = "SECURITY_VIOLATION"
	ErrorCodeCSRFInvalid       ErrorCode = "CSRF_TOKEN_INVALID"

	// Request errors
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrorCodeInvalidID        ErrorCode = "INVALID_ID"
	ErrorCodeMalformedJSON    ErrorCode = "MALFORMED_JSON"
	ErrorCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrorCodeConflict         ErrorCode = "CONFLICT"

	// Internal errors
	ErrorCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// ErrorResponse represents the standardized error response format
type ErrorResponse struct {
	Error         ErrorDetail `json:"error"`
	Timestamp     time.Time   `json:"timestamp"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

// HTTPStatusCode returns the appropriate HTTP status code for each error type
func (e ErrorCode) HTTPStatusCode() int {
	switch e {
	case ErrorCodeMissingAPIKey, ErrorCodeInvalidAPIKey, ErrorCodeInactiveAPIKey, ErrorCodeMissingAdminKey:
		return http.StatusUnauthorized
	case ErrorCodeInvalidAdminKey:
		return http.StatusForbidden
	case ErrorCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case ErrorCodeCORSRejected, ErrorCodeCSRFInvalid:
		return http.StatusForbidden
	case ErrorCodeValidationFailed, ErrorCodeInvalidID, ErrorCodeMalformedJSON, ErrorCodeSecurityViolation:
		return http.StatusBadRequest
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorResponse creates a new error response with timestamp
func NewErrorResponse(code ErrorCode, message, details, correlationID string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
	}
}

// AppError represents an application error with context
type AppError struct {
	Code       ErrorCode
	Message    string
	Details    string
	Cause      error
	Context    map[string]interface{}
	StatusCode int
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: code.HTTPStatusCode(),
		Context:    make(map[string]interface{}),
	}
}

// NewAppErrorWithCause creates a new application error with underlying cause
func NewAppErrorWithCause(code ErrorCode, message string, cause error) *AppError {
	appErr := NewAppError(code, message)
	appErr.Cause = cause
	return appErr
}

// NewAppErrorWithDetails creates a new application error with details
func NewAppErrorWithDetails(code ErrorCode, message, details string) *AppError {
	appErr := NewAppError(code, message)
	appErr.Details = details
	return appErr
}

// FromError classifies err into an AppError. Sanitizer validation failures,
// invalid ids, missing records and natural-key conflicts keep their message;
// anything else becomes an opaque internal error.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var validationErr *sanitizer.ValidationError
	switch {
	case errors.Is(err, crud.ErrInvalidID):
		return NewAppErrorWithCause(ErrorCodeInvalidID, "Invalid ID provided", err)
	case errors.Is(err, crud.ErrConflict):
		return NewAppErrorWithDetails(ErrorCodeConflict, "Resource already exists", err.Error())
	case errors.Is(err, crud.ErrNotFound):
		return NewAppErrorWithDetails(ErrorCodeNotFound, "Resource not found", err.Error())
	case errors.As(err, &validationErr), errors.Is(err, sanitizer.ErrNotString):
		return NewAppErrorWithDetails(ErrorCodeValidationFailed, "Validation failed", err.Error())
	default:
		return NewAppErrorWithCause(ErrorCodeInternalError, "Internal server error", err)
	}
}

// HandleError logs err and writes the matching JSON error response
func HandleError(c *gin.Context, err error, log *logger.Logger) {
	appErr := FromError(err)
	ctx := c.Request.Context()

	appErr.WithContext("method", c.Request.Method).
		WithContext("path", c.Request.URL.Path).
		WithContext("client_ip", c.ClientIP())

	if log != nil {
		logFields := []zap.Field{
			zap.String("error_code", string(appErr.Code)),
			zap.String("error_message", appErr.Message),
			zap.Any("error_context", appErr.Context),
		}
		if appErr.Cause != nil {
			logFields = append(logFields, zap.Error(appErr.Cause))
		}

		contextLogger := log.WithContext(ctx)
		if appErr.StatusCode >= 500 {
			contextLogger.Error("Application error", logFields...)
		} else {
			contextLogger.Warn("Client error", logFields...)
		}
	}

	c.AbortWithStatusJSON(appErr.StatusCode, NewErrorResponse(
		appErr.Code,
		appErr.Message,
		appErr.Details,
		logger.GetCorrelationIDFromContext(ctx),
	))
}

// NewValidationError creates a validation error
func NewValidationError(message, details string) *AppError {
	return NewAppErrorWithDetails(ErrorCodeValidationFailed, message, details)
}

// NewAuthenticationError creates an authentication error
func NewAuthenticationError(message string) *AppError {
	return NewAppError(ErrorCodeInvalidAPIKey, message)
}

// NewNotFoundError creates a not found error for the named resource
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrorCodeNotFound, resource+" not found")
}

// NewDatabaseError creates a database error
func NewDatabaseError(message string, cause error) *AppError {
	return NewAppErrorWithCause(ErrorCodeDatabaseError, message, cause)
}
