package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewFormatsMessage(t *testing.T) {
	err := New(ErrCodeInvalidSlot, "unknown slot %q (want a or b)", "c")

	if err.Code != ErrCodeInvalidSlot {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidSlot)
	}
	if want := `INVALID_SLOT: unknown slot "c" (want a or b)`; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if err.Cause != nil {
		t.Errorf("Cause = %v, want nil", err.Cause)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:6379: connection refused")
	err := Wrap(ErrCodeStore, cause, "read %s", "love-contract")

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if want := "STORE_ERROR: read love-contract: " + cause.Error(); err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIsThroughFmtWrap(t *testing.T) {
	inner := New(ErrCodeAlreadySigned, "Vik has already signed")
	err := fmt.Errorf("sign: %w", inner)

	if !Is(err, ErrCodeAlreadySigned) {
		t.Error("Is should see codes behind %w")
	}
	if GetCode(err) != ErrCodeAlreadySigned {
		t.Errorf("GetCode() = %v", GetCode(err))
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeInvalidInput,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeStore,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeStore, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeStore,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidSlot, "test"),
			expected: ErrCodeInvalidSlot,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStore(t *testing.T) {
	if err := Store(nil, "upsert"); err != nil {
		t.Errorf("Store(nil) = %v, want nil", err)
	}

	cause := errors.New("connection refused")
	err := Store(cause, "upsert signature %s", "a")
	if !Is(err, ErrCodeStore) {
		t.Errorf("Store() code = %v, want %v", GetCode(err), ErrCodeStore)
	}
	if !errors.Is(err, cause) {
		t.Error("Store() should wrap the cause")
	}
	if UserMessage(err) != "upsert signature a" {
		t.Errorf("UserMessage() = %q", UserMessage(err))
	}
}

func TestDecode(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := Decode(cause, "decode png")
	if err.Code != ErrCodeDecode {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeDecode)
	}
	expected := "DECODE_ERROR: decode png: unexpected EOF"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}
