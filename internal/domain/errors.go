package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so transports can map them to status codes.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindRateLimited
	KindDependency
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindRateLimited:
		return "rate_limited"
	case KindDependency:
		return "dependency"
	default:
		return "internal"
	}
}

// Error is a failure with a client-safe message.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error

	base *Error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.base != nil && t == e.base
}

// Wrap returns a copy of e carrying cause. errors.Is(copy, e) still holds.
func (e *Error) Wrap(cause error) error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: cause, base: e}
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Validation(format string, args ...any) error {
	return newError(KindValidation, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) error {
	return newError(KindNotFound, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) error {
	return newError(KindConflict, fmt.Sprintf(format, args...))
}

func Forbidden(format string, args ...any) error {
	return newError(KindForbidden, fmt.Sprintf(format, args...))
}

// Dependency marks a failure of an external collaborator (database, mail, storage).
func Dependency(msg string, cause error) error {
	return &Error{Kind: KindDependency, Message: msg, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message, or "" for unclassified errors.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

var (
	ErrOTPNotFound       = newError(KindNotFound, "No OTP found, please request a new one")
	ErrAlreadyVerified   = newError(KindValidation, "Account is already verified")
	ErrTooManyAttempts   = newError(KindRateLimited, "Too many failed attempts, please request a new OTP")
	ErrOTPExpired        = newError(KindValidation, "OTP has expired, please request a new one")
	ErrInvalidOTP        = newError(KindValidation, "Invalid OTP")
	ErrResendCooldown    = newError(KindRateLimited, "Please wait before requesting another OTP")
	ErrNotVerified       = newError(KindForbidden, "Please verify your email before continuing")
	ErrIncorrectPassword = newError(KindValidation, "Incorrect password")
	ErrPasswordMismatch  = newError(KindValidation, "Passwords do not match")
	ErrMissingToken      = newError(KindUnauthorized, "Authorization token is required")
	ErrInvalidToken      = newError(KindUnauthorized, "Invalid or expired token")
	ErrRevokedToken      = newError(KindUnauthorized, "Token has been revoked")
	ErrAccessDenied      = newError(KindForbidden, "Access denied")
	ErrTooManyRequests   = newError(KindRateLimited, "Too many requests, please try again later")
	ErrStaleWrite        = newError(KindConflict, "The record was modified by another request, please retry")
)
