// Package errors provides standardized error handling for the customer portal coordinator.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Auth absence: terminal for the page activation, resolved by redirect.
	ErrCodeAuthSessionMissing  ErrorCode = "AUTH_SESSION_MISSING"
	ErrCodeSessionDecodeFailed ErrorCode = "SESSION_DECODE_FAILED"
	ErrCodeSessionStoreFailed  ErrorCode = "SESSION_STORE_FAILED"

	// Fetch failures: logged, surfaced as empty/loading state, safe to retry.
	ErrCodeApplicationFetchFailed  ErrorCode = "APPLICATION_FETCH_FAILED"
	ErrCodeApplicationNotFound     ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeApplicationDecodeFailed ErrorCode = "APPLICATION_DECODE_FAILED"
	ErrCodeBankDetailsFailed       ErrorCode = "BANK_DETAILS_FAILED"

	// Stream failures: logged and dropped per event.
	ErrCodeStreamTransportFailed ErrorCode = "STREAM_TRANSPORT_FAILED"
	ErrCodeStreamDecodeFailed    ErrorCode = "STREAM_DECODE_FAILED"

	// Payment.
	ErrCodePaymentNotificationFailed ErrorCode = "PAYMENT_NOTIFICATION_FAILED"
	ErrCodePaymentSessionExpired     ErrorCode = "PAYMENT_SESSION_EXPIRED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a metadata key and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func detailsOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 2. Error Constructors
// ==========================

// NewAuthSessionMissingError reports that no customer session is persisted.
func NewAuthSessionMissingError(key string) *StandardError {
	return newError(ErrCodeAuthSessionMissing, "Customer session not found",
		fmt.Sprintf("sessionKey: %s", key), false, nil)
}

// NewSessionDecodeFailedError reports a persisted session blob that cannot be used.
func NewSessionDecodeFailedError(err error) *StandardError {
	return newError(ErrCodeSessionDecodeFailed, "Customer session is unreadable", detailsOf(err), false, err)
}

// NewSessionStoreFailedError reports a session store that could not be read or written.
func NewSessionStoreFailedError(op string, err error) *StandardError {
	return newError(ErrCodeSessionStoreFailed, "Session store operation failed",
		fmt.Sprintf("op: %s, error: %s", op, detailsOf(err)), false, err)
}

// NewApplicationFetchFailedError creates a retryable fetch error.
func NewApplicationFetchFailedError(customerID string, err error) *StandardError {
	return newError(ErrCodeApplicationFetchFailed, "Failed to load application",
		fmt.Sprintf("customerId: %s, error: %s", customerID, detailsOf(err)), true, err)
}

// NewApplicationNotFoundError carries the backend's message when it has one.
func NewApplicationNotFoundError(customerID, backendMessage string) *StandardError {
	msg := backendMessage
	if msg == "" {
		msg = "Application not found"
	}
	return newError(ErrCodeApplicationNotFound, msg, fmt.Sprintf("customerId: %s", customerID), true, nil)
}

// NewApplicationDecodeFailedError creates a retryable decode error.
func NewApplicationDecodeFailedError(err error) *StandardError {
	return newError(ErrCodeApplicationDecodeFailed, "Application response could not be decoded", detailsOf(err), true, err)
}

// NewBankDetailsFailedError is non-fatal: the payment window opens with a placeholder.
func NewBankDetailsFailedError(err error) *StandardError {
	return newError(ErrCodeBankDetailsFailed, "Failed to load bank details", detailsOf(err), true, err)
}

// NewStreamTransportFailedError reports a broken or refused push channel.
func NewStreamTransportFailedError(customerID string, err error) *StandardError {
	return newError(ErrCodeStreamTransportFailed, "Event stream transport error",
		fmt.Sprintf("customerId: %s, error: %s", customerID, detailsOf(err)), true, err)
}

// NewStreamDecodeFailedError reports a malformed pushed payload.
func NewStreamDecodeFailedError(payload string, err error) *StandardError {
	return newError(ErrCodeStreamDecodeFailed, "Event payload could not be decoded",
		fmt.Sprintf("payload: %q, error: %s", truncate(payload, 256), detailsOf(err)), false, err)
}

// NewPaymentNotificationFailedError carries the message the user should see.
func NewPaymentNotificationFailedError(userMessage string, err error) *StandardError {
	return newError(ErrCodePaymentNotificationFailed, userMessage, detailsOf(err), true, err)
}

// NewPaymentSessionExpiredError marks the designed expiry transition.
func NewPaymentSessionExpiredError(sessionID string) *StandardError {
	return newError(ErrCodePaymentSessionExpired, "Payment session expired. Please try again.",
		fmt.Sprintf("paymentSessionId: %s", sessionID), false, nil)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandard extracts a StandardError from an error chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Code == code
}

// IsUnauthenticated reports the auth-absence category: redirect, never retry.
func IsUnauthenticated(err error) bool {
	return IsCode(err, ErrCodeAuthSessionMissing) || IsCode(err, ErrCodeSessionDecodeFailed)
}

// GetRetryCount returns how many automatic retries a failure may get.
// Only the push channel reconnects on its own; fetches retry on explicit refresh.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStreamTransportFailed:
		return 5
	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable by the user or the system.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeApplicationFetchFailed,
		ErrCodeApplicationNotFound,
		ErrCodeApplicationDecodeFailed,
		ErrCodeBankDetailsFailed,
		ErrCodeStreamTransportFailed,
		ErrCodePaymentNotificationFailed:
		return true
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "AUTH") || strings.HasPrefix(codeStr, "SESSION"):
		return "AUTH"
	case strings.HasPrefix(codeStr, "APPLICATION") || strings.HasPrefix(codeStr, "BANK"):
		return "FETCH"
	case strings.HasPrefix(codeStr, "STREAM"):
		return "STREAM"
	case code == ErrCodePaymentSessionExpired:
		return "EXPIRY"
	case strings.HasPrefix(codeStr, "PAYMENT"):
		return "PAYMENT"
	default:
		return "OTHER"
	}
}
