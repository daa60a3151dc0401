package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "error without cause",
			err:      &Error{Kind: KindInvalidArgument, Message: "invalid interface name"},
			expected: "[InvalidArgument] invalid interface name",
		},
		{
			name:     "error with cause",
			err:      Wrap(KindPluginFailure, "failed to add route", errors.New("permission denied")),
			expected: "[PluginFailure] failed to add route: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestError_Msg(t *testing.T) {
	err := Wrap(KindBug, "wrapper", errors.New("boom"))
	if got := err.Msg(); got != "wrapper: boom" {
		t.Errorf("Msg() = %q, want %q", got, "wrapper: boom")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(KindBug, "wrapper", cause)

	if unwrapped := err.Unwrap(); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}
}

func TestError_Is(t *testing.T) {
	err1 := &Error{Kind: KindVerificationError, Message: "test error"}
	err2 := &Error{Kind: KindVerificationError, Message: "another error"}
	err3 := &Error{Kind: KindPluginFailure, Message: "netlink error"}

	if !err1.Is(err2) {
		t.Errorf("Expected errors with same kind to match")
	}

	if err1.Is(err3) {
		t.Errorf("Expected errors with different kinds to not match")
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewNotSupported("gen_conf disabled"))
	if got := KindOf(wrapped); got != KindNotSupported {
		t.Errorf("KindOf() = %v, want %v", got, KindNotSupported)
	}

	if got := KindOf(errors.New("plain")); got != KindBug {
		t.Errorf("KindOf(plain) = %v, want %v", got, KindBug)
	}
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewBug("broken", nil))
	e, ok := As(wrapped)
	if !ok || e.Kind != KindBug {
		t.Errorf("Expected to find the Bug error, got %v", e)
	}
	if _, ok := As(errors.New("plain")); ok {
		t.Error("Expected no *Error in a plain error")
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("apply: %w", NewVerificationError("mtu mismatch"))
	if !IsKind(err, KindVerificationError) {
		t.Error("Expected IsKind to find VerificationError in chain")
	}
	if IsKind(err, KindInvalidArgument) {
		t.Error("Expected IsKind to not match InvalidArgument")
	}
}

func TestNewInvalidArgument(t *testing.T) {
	cause := errors.New("yaml: line 3")
	err := NewInvalidArgument("failed to parse state", cause)

	if err.Kind != KindInvalidArgument {
		t.Errorf("Expected kind %v, got %v", KindInvalidArgument, err.Kind)
	}

	if err.Message != "failed to parse state" {
		t.Errorf("Expected message 'failed to parse state', got %v", err.Message)
	}

	if err.Cause != cause {
		t.Errorf("Expected cause to be preserved")
	}
}

func TestNewf(t *testing.T) {
	err := Newf(KindNotImplemented, "Does not support iface type: %s yet", "team")
	if err.Message != "Does not support iface type: team yet" {
		t.Errorf("Unexpected message: %s", err.Message)
	}
}
