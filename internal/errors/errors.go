// internal/errors/errors.go
package errors

import (
	"errors"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeConflict   ErrorType = "CONFLICT"
	ErrorTypeInternal   ErrorType = "INTERNAL"
)

// Business codes surfaced verbatim to callers. Validation and conflict
// codes are terminal and never retried.
const (
	CodeInvalidParam          = "INVALID_PARAM"
	CodeSnapshotNotFound      = "SNAPSHOT_NOT_FOUND"
	CodeSnapshotAlreadyActive = "SNAPSHOT_ALREADY_ACTIVE"
	CodeInvalidSnapshotStatus = "INVALID_SNAPSHOT_STATUS"
	CodeIntentNotFound        = "INTENT_NOT_FOUND"
	CodeVersionNotFound       = "VERSION_NOT_FOUND"
	CodeVersionAlreadyActive  = "VERSION_ALREADY_ACTIVE"
	CodeInvalidVersionStatus  = "INVALID_VERSION_STATUS"
	CodeVersionNotActive      = "VERSION_NOT_ACTIVE"
	CodeVersionAlreadyExists  = "VERSION_ALREADY_EXISTS"
	CodeCannotDeleteActive    = "CANNOT_DELETE_ACTIVE"
	CodeConfigError           = "CONFIG_ERROR"
	CodePublishError          = "PUBLISH_ERROR"
	CodeRollbackError         = "ROLLBACK_ERROR"
	CodeSyncError             = "SYNC_ERROR"
)

type Error struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Status  int       `json:"-"`
	Details any       `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

func NotFound(code, message string) *Error {
	return &Error{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
		Status:  http.StatusNotFound,
	}
}

func Validation(message string) *Error {
	return &Error{
		Type:    ErrorTypeValidation,
		Code:    CodeInvalidParam,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

func Conflict(code, message string) *Error {
	return &Error{
		Type:    ErrorTypeConflict,
		Code:    code,
		Message: message,
		Status:  http.StatusConflict,
	}
}

func Internal(code, message string) *Error {
	return &Error{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}

// HasCode reports whether err carries the given business code.
func HasCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// StatusOf maps an error to an HTTP status, defaulting to 500 for plain
// errors.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}
