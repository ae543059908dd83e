// internal/common/errors/handler.go
package errors

import (
	"time"
)

// ErrorHandler normalizes failures into StandardErrors and logs them uniformly.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err under op and returns its normalized form. Per-event stream
// decode failures are logged as warnings; everything else as errors.
func (h *ErrorHandler) Handle(op string, err error) *StandardError {
	if err == nil {
		return nil
	}
	stdErr := h.normalizeError(err)

	fields := map[string]interface{}{
		"op":            op,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	for k, v := range stdErr.Metadata {
		fields[k] = v
	}

	if stdErr.Code == ErrCodeStreamDecodeFailed {
		h.logger.Warn("dropped malformed event", fields)
	} else {
		h.logger.Error("operation failed", fields)
	}
	return stdErr
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}
