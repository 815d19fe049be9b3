package client

import (
	"context"
	"errors"
	"strings"

	"github.com/kjstillabower/forecast-gateway/internal/forecast"
	"github.com/kjstillabower/forecast-gateway/internal/validation"
)

// ErrorCategory is a stable label for error classification in metrics.
type ErrorCategory string

// Error category constants used as metric labels (gatewayErrorsTotal).
const (
	ErrorCategoryTimeout      ErrorCategory = "timeout"
	ErrorCategoryNetwork      ErrorCategory = "network"
	ErrorCategoryBodyTooLarge ErrorCategory = "body_too_large"
	ErrorCategoryParsing      ErrorCategory = "parsing"
	ErrorCategorySchema       ErrorCategory = "schema"
	ErrorCategoryBadRequest   ErrorCategory = "bad_request"
	ErrorCategoryUnknown      ErrorCategory = "unknown"
)

// CategorizeError maps an error to a stable ErrorCategory for metrics.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorCategoryTimeout
	}
	if errors.Is(err, ErrBodyTooLarge) {
		return ErrorCategoryBodyTooLarge
	}
	if errors.Is(err, ErrTransport) || errors.Is(err, context.Canceled) {
		return ErrorCategoryNetwork
	}
	if errors.Is(err, forecast.ErrDecode) {
		return ErrorCategoryParsing
	}
	if errors.Is(err, forecast.ErrMissingHourly) {
		return ErrorCategorySchema
	}
	if errors.Is(err, validation.ErrUnsupportedRoute) {
		return ErrorCategoryBadRequest
	}

	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return ErrorCategoryNetwork
	}
	return ErrorCategoryUnknown
}
