package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// Submission pipeline taxonomy. Each stage fails with its own kind so
	// callers can tell where the chain stopped.
	ErrAcquisition       = New("ACQUISITION_FAILED", http.StatusBadRequest, "no source document was provided")
	ErrProcessing        = New("PROCESSING_FAILED", http.StatusBadGateway, "document processing failed")
	ErrProcessingTimeout = New("PROCESSING_TIMEOUT", http.StatusGatewayTimeout, "document processing timed out")
	ErrStorageUpload     = New("STORAGE_UPLOAD_FAILED", http.StatusInternalServerError, "failed to store submission artifact")
	ErrRecordWrite       = New("RECORD_WRITE_FAILED", http.StatusInternalServerError, "failed to record submission")

	// Gate violations: the submission window is closed or the caller already
	// has a submission on file.
	ErrGateClosed       = New("GATE_CLOSED", http.StatusConflict, "submission window is closed")
	ErrAlreadySubmitted = New("ALREADY_SUBMITTED", http.StatusConflict, "assignment already submitted")
)

// ErrCacheMiss signals an absent cache entry. A plain sentinel so the cache
// layer can branch on it without HTTP semantics.
var ErrCacheMiss = errors.New("cache miss")

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
