// Package errors provides standardized error handling for the reminder
// scan and dashboard paths.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeOwnerNotFound     ErrorCode = "OWNER_NOT_FOUND"
	ErrCodeOwnerLookupFailed ErrorCode = "OWNER_LOOKUP_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeTemplateNotFound       ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeTemplateInvalid        ErrorCode = "TEMPLATE_INVALID"

	ErrCodeScanOverlap    ErrorCode = "SCAN_OVERLAP"
	ErrCodeScanLockFailed ErrorCode = "SCAN_LOCK_FAILED"

	ErrCodeInvalidStatus ErrorCode = "INVALID_STATUS"
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

// WithMetadata attaches contextual key/value pairs for logging.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

// NewQueryExecutionFailedError creates a retryable database error.
func NewQueryExecutionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewOwnerNotFoundError creates a non-retryable lookup error. The scan logs
// and skips the record; the run itself continues.
func NewOwnerNotFoundError(ownerID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeOwnerNotFound,
		Message:   "Owner not found for application record",
		Details:   fmt.Sprintf("owner id %s", ownerID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOwnerLookupFailedError creates a retryable lookup error.
func NewOwnerLookupFailedError(ownerID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOwnerLookupFailed,
		Message:   "Owner lookup failed",
		Details:   fmt.Sprintf("owner id %s: %v", ownerID, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a send error. Delivery is
// best-effort and not retried within the same run.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification dispatch failed",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"channel": channel},
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateNotFoundError creates a non-retryable template error.
func NewTemplateNotFoundError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "Reminder template not found",
		Details:   name,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateInvalidError creates a non-retryable template validation error.
func NewTemplateInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateInvalid,
		Message:   "Reminder template registry failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewScanOverlapError signals a run was skipped because the previous scan
// is still in flight. This is an operational signal, not a failure.
func NewScanOverlapError() *StandardError {
	return &StandardError{
		Code:      ErrCodeScanOverlap,
		Message:   "Scan skipped: previous run still in progress",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewScanLockFailedError creates a retryable distributed-lock error.
func NewScanLockFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeScanLockFailed,
		Message:   "Failed to acquire scan lock",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification Helpers
// ==========================

// IsRetryable reports whether the error is marked retryable.
func IsRetryable(err error) bool {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Retryable
	}
	return false
}

// GetErrorCategory groups codes for metrics labels.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeDatabaseConnectionFailed, ErrCodeQueryExecutionFailed, ErrCodeQueryTimeout:
		return "database"
	case ErrCodeOwnerNotFound, ErrCodeOwnerLookupFailed:
		return "lookup"
	case ErrCodeNotificationSendFailed, ErrCodeTemplateNotFound, ErrCodeTemplateInvalid:
		return "notification"
	case ErrCodeScanOverlap, ErrCodeScanLockFailed:
		return "scheduling"
	default:
		return "internal"
	}
}

// Normalize ensures we always have a StandardError to log.
func Normalize(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
