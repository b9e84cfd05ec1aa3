package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified error type of the auth core.
type AppError struct {
	// Code is the machine-readable error kind.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error. Never secrets.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Text returns the message followed by the cause, if any. This is the text
// placed into result envelopes.
func (e *AppError) Text() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

// UndefinedKey creates a ConfigurationError for a key name missing from the registry.
func UndefinedKey(keyName string) *AppError {
	return &AppError{
		Code: ErrCodeConfiguration, Message: "Key undefined",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"key_name": keyName},
	}
}

// MissingCredential creates a CredentialMissing error. what names the absent
// artifact, e.g. "Token missing" or "Missing header".
func MissingCredential(what string) *AppError {
	return &AppError{
		Code: ErrCodeCredentialMissing, Message: what,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// MalformedCredential creates a CredentialMalformed error.
func MalformedCredential(reason string) *AppError {
	return &AppError{
		Code: ErrCodeCredentialMalformed, Message: reason,
		HTTPStatus: http.StatusBadRequest,
	}
}

// VerificationFailed creates a VerificationFailed error wrapping the verifier's cause.
func VerificationFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeVerificationFailed, Message: "token verification failed",
		HTTPStatus: http.StatusUnauthorized, Cause: cause,
	}
}

// Validation creates a 400 error for invalid input outside the credential path.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeValidation, Message: message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Internal creates an InternalFailure error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "internal failure",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Wrap returns err as an AppError, wrapping plain errors as Internal.
// A nil error returns nil.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}

// Is and As re-export the standard library helpers so callers importing this
// package under the name errors keep access to them.
var (
	Is = stderrors.Is
	As = stderrors.As
)
