// Package domain defines the core domain models for mdkeep.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
//
// Codes have the form MK-<AREA>-<NNNN>; the last four digits follow the
// HTTP status the error maps to.
type DomainError struct {
	Code    string // Error code (e.g., "MK-BAK-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Backup Errors (BAK)
// ============================================================================

var (
	// ErrValidation indicates a snapshot is missing one of its sections.
	ErrValidation = NewDomainError("MK-BAK-4000", "malformed backup")

	// ErrVersionMismatch indicates a snapshot carries an unsupported backupVersion.
	ErrVersionMismatch = NewDomainError("MK-BAK-4001", "unsupported backup version")

	// ErrNotFound indicates no backup exists with the requested id.
	ErrNotFound = NewDomainError("MK-BAK-4040", "backup not found")

	// ErrConflict indicates a backup id already exists in one of the stores.
	ErrConflict = NewDomainError("MK-BAK-4090", "backup id conflict")

	// ErrExportExists indicates an export file with the same name is already
	// in the export directory.
	ErrExportExists = NewDomainError("MK-BAK-4091", "export file already exists")

	// ErrStorage indicates the backup database or state store failed.
	ErrStorage = NewDomainError("MK-BAK-5000", "storage error")
)

// ============================================================================
// State Errors (STATE)
// ============================================================================

var (
	// ErrStateKeyNotFound indicates the state store holds no such key.
	ErrStateKeyNotFound = NewDomainError("MK-STATE-4040", "state key not found")

	// ErrStateKeyInvalid indicates an empty or oversized state key.
	ErrStateKeyInvalid = NewDomainError("MK-STATE-4000", "invalid state key")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("MK-SYS-5000", "internal server error")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("MK-SYS-4000", "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("MK-SYS-4290", "too many requests")
)

// IsValidation reports whether err is a snapshot validation failure
// (missing section or unsupported version).
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrVersionMismatch)
}

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStorage reports whether err is a storage failure (including id conflicts).
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage) || errors.Is(err, ErrConflict)
}
