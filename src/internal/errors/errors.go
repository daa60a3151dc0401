// Package errors provides the error kinds reported by nmstate.
//
// Every error that crosses a public boundary (C ABI, HTTP API, CLI exit) is an
// *Error carrying one of the ErrorKind values below. The kind string is what C
// callers receive through the err_kind out parameter, so the values are part of
// the ABI and must not change.
package errors

import (
	"errors"
	"fmt"
)

// ErrorKind represents a category of error that can occur in nmstate.
type ErrorKind string

const (
	// KindInvalidArgument indicates the desired state or a call argument is malformed.
	KindInvalidArgument ErrorKind = "InvalidArgument"

	// KindPluginFailure indicates a backend (netlink, checkpoint store) failed.
	KindPluginFailure ErrorKind = "PluginFailure"

	// KindBug indicates an unexpected internal error.
	KindBug ErrorKind = "Bug"

	// KindVerificationError indicates the applied state does not match the desired one.
	KindVerificationError ErrorKind = "VerificationError"

	// KindNotImplemented indicates a property or interface type nmstate does not handle yet.
	KindNotImplemented ErrorKind = "NotImplementedError"

	// KindNotSupported indicates the operation was compiled out or is unavailable on this host.
	KindNotSupported ErrorKind = "NotSupportedError"

	// KindKernelIntegerRounded indicates the kernel rounded an integer property.
	KindKernelIntegerRounded ErrorKind = "KernelIntegerRoundedError"

	// KindDependencyError indicates a missing runtime dependency.
	KindDependencyError ErrorKind = "DependencyError"

	// KindPolicyError indicates a policy could not be resolved.
	KindPolicyError ErrorKind = "PolicyError"

	// KindPermissionError indicates insufficient privileges.
	KindPermissionError ErrorKind = "PermissionError"

	// KindSrIovVfNotFound indicates an SR-IOV VF interface did not show up.
	KindSrIovVfNotFound ErrorKind = "SrIovVfNotFound"

	// KindTimeout indicates an operation or checkpoint expired.
	KindTimeout ErrorKind = "Timeout"
)

// Error represents an nmstate error with a kind and optional cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Msg())
}

// Msg returns the message without the kind prefix.
func (e *Error) Msg() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error for errors.Is and errors.As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates a new error with the specified kind and message.
func New(kind ErrorKind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new error with a formatted message.
func Newf(kind ErrorKind, format string, args ...interface{}) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap creates a new error wrapping an existing error.
func Wrap(kind ErrorKind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// KindOf returns the kind of the first *Error in the chain, or KindBug.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindBug
}

// As finds the first *Error in the chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether any *Error in the chain has the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return errors.Is(err, &Error{Kind: kind})
}

// NewInvalidArgument creates a new invalid argument error.
func NewInvalidArgument(message string, cause error) *Error {
	return Wrap(KindInvalidArgument, message, cause)
}

// NewPluginFailure creates a new backend failure error.
func NewPluginFailure(message string, cause error) *Error {
	return Wrap(KindPluginFailure, message, cause)
}

// NewVerificationError creates a new verification error.
func NewVerificationError(message string) *Error {
	return New(KindVerificationError, message)
}

// NewNotSupported creates a new not-supported error.
func NewNotSupported(message string) *Error {
	return New(KindNotSupported, message)
}

// NewNotImplemented creates a new not-implemented error.
func NewNotImplemented(message string) *Error {
	return New(KindNotImplemented, message)
}

// NewBug creates a new internal error.
func NewBug(message string, cause error) *Error {
	return Wrap(KindBug, message, cause)
}
