// Package errors provides standardized error handling for the advisory functions.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeMissingAPIKey     ErrorCode = "MISSING_API_KEY"
	ErrCodeInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrCodeUpstreamFailed    ErrorCode = "UPSTREAM_FAILED"
	ErrCodeUpstreamTimeout   ErrorCode = "UPSTREAM_TIMEOUT"
	ErrCodeWeatherAPIFailed  ErrorCode = "WEATHER_API_FAILED"
	ErrCodeCacheReadFailed   ErrorCode = "CACHE_READ_FAILED"
	ErrCodeCacheWriteFailed  ErrorCode = "CACHE_WRITE_FAILED"
	ErrCodeAlertSendFailed   ErrorCode = "ALERT_SEND_FAILED"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewMissingAPIKeyError marks a configuration failure; no upstream call was made.
func NewMissingAPIKeyError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingAPIKey,
		Message:   fmt.Sprintf("Missing %s secret", name),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError marks a caller input failure.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamError wraps a non-success response from the model endpoint.
func NewUpstreamError(status int, body string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamFailed,
		Message:   fmt.Sprintf("Gemini API error %d", status),
		Details:   body,
		Retryable: status >= 500,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamTimeoutError marks an exhausted or cancelled upstream call.
func NewUpstreamTimeoutError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamTimeout,
		Message:   "Upstream request timed out",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWeatherAPIError wraps a failure from the weather provider.
func NewWeatherAPIError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWeatherAPIFailed,
		Message:   "Weather API request failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. HTTP Mapping
// ==========================

// HTTPStatus maps an error code to the status the uniform envelope carries.
// Config and upstream failures are 500; caller input failures are 400.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Normalize ensures we always have a StandardError to envelope.
func Normalize(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return NewInternalError(err)
}

// GetErrorCategory groups codes for logging and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeMissingAPIKey:
		return "configuration"
	case ErrCodeInvalidInput:
		return "caller_input"
	case ErrCodeUpstreamFailed, ErrCodeUpstreamTimeout, ErrCodeWeatherAPIFailed:
		return "upstream"
	case ErrCodeCacheReadFailed, ErrCodeCacheWriteFailed:
		return "persistence"
	case ErrCodeAlertSendFailed:
		return "notification"
	default:
		return "internal"
	}
}
