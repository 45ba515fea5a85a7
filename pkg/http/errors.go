package http

import (
	"fmt"
	"net/http"
	"time"
)

// Error codes for the serving taxonomy.
const (
	CodeMissingField     = "ERR_MISSING_FIELD"
	CodeShape            = "ERR_SHAPE"
	CodeFeatureCount     = "ERR_FEATURE_COUNT"
	CodeBatchSize        = "ERR_BATCH_SIZE"
	CodeInvalidValue     = "ERR_INVALID_VALUE"
	CodeRateLimit        = "ERR_RATE_LIMIT"
	CodeModelUnavailable = "ERR_MODEL_UNAVAILABLE"
	CodeInference        = "ERR_INFERENCE"
	CodeNotFound         = "ERR_NOT_FOUND"
	CodeInternal         = "ERR_INTERNAL"
)

// AppError represents an application-level error with an HTTP status.
// Message is client-safe; the wrapped cause stays server-side.
type AppError struct {
	Code       string        `json:"code"`
	Message    string        `json:"message"`
	Status     int           `json:"-"`
	RetryAfter time.Duration `json:"-"`
	Err        error         `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithError wraps an underlying cause.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// NewAppError creates a new application error.
func NewAppError(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

// MissingFieldError reports an absent required field (400).
func MissingFieldError(field string) *AppError {
	return NewAppError(CodeMissingField, fmt.Sprintf("Missing %s in request", field), http.StatusBadRequest)
}

// ShapeError reports a payload that does not decode as a 2D numeric array (400).
func ShapeError(message string) *AppError {
	return NewAppError(CodeShape, message, http.StatusBadRequest)
}

// FeatureCountError reports a row with the wrong number of columns (400).
func FeatureCountError(expected, got int) *AppError {
	return NewAppError(CodeFeatureCount,
		fmt.Sprintf("Expected %d features, got %d", expected, got), http.StatusBadRequest)
}

// BatchSizeError reports a batch above the configured limit (400).
func BatchSizeError(limit int) *AppError {
	return NewAppError(CodeBatchSize,
		fmt.Sprintf("Batch size exceeds maximum of %d", limit), http.StatusBadRequest)
}

// EmptyBatchError reports a batch with no rows (400).
func EmptyBatchError() *AppError {
	return NewAppError(CodeBatchSize, "Batch must contain at least one row", http.StatusBadRequest)
}

// InvalidValueError reports a non-finite element at row/column (400).
func InvalidValueError(row, col int) *AppError {
	return NewAppError(CodeInvalidValue,
		fmt.Sprintf("Features contain NaN or infinite values at row %d, column %d", row, col),
		http.StatusBadRequest)
}

// RateLimitError reports an exhausted budget with a retry hint (429).
func RateLimitError(retryAfter time.Duration) *AppError {
	e := NewAppError(CodeRateLimit,
		fmt.Sprintf("Rate limit exceeded, retry after %s", retryAfter.Round(time.Second)),
		http.StatusTooManyRequests)
	e.RetryAfter = retryAfter
	return e
}

// ModelUnavailableError reports a model that never loaded (500 mid-request).
func ModelUnavailableError() *AppError {
	return NewAppError(CodeModelUnavailable, "Model is not available", http.StatusInternalServerError)
}

// InferenceError wraps a failure inside the opaque model call (500).
// The client message stays generic; the cause is preserved for logs.
func InferenceError(op string, err error) *AppError {
	return NewAppError(CodeInference,
		fmt.Sprintf("Internal server error during %s", op), http.StatusInternalServerError).
		WithError(err)
}

// NotFoundError creates a 404 error.
func NotFoundError(message string) *AppError {
	return NewAppError(CodeNotFound, message, http.StatusNotFound)
}

// InternalError creates a 500 error.
func InternalError(message string) *AppError {
	return NewAppError(CodeInternal, message, http.StatusInternalServerError)
}
