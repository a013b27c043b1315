package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorNilReceiver(t *testing.T) {
	var e *Error
	if got := e.Error(); got != "" {
		t.Fatalf("expected empty string for nil receiver, got %q", got)
	}
	if e.Unwrap() != nil {
		t.Fatalf("expected nil unwrap for nil receiver")
	}
}

func TestErrorWrapsKindAndCause(t *testing.T) {
	root := errors.New("connection reset")
	err := Upload("upload chunk 3", root)

	if got := err.Error(); got != "upload chunk 3: connection reset" {
		t.Fatalf("unexpected error text: %q", got)
	}
	if !errors.Is(err, ErrUpload) {
		t.Fatalf("expected kind to match via errors.Is")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected cause to match via errors.Is")
	}
	if errors.Is(err, ErrNetwork) {
		t.Fatalf("unexpected match for a different kind")
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"auth", Auth("no session", nil), ErrAuth},
		{"wrapped not found", fmt.Errorf("get meeting: %w", NotFound("meeting not found", nil)), ErrNotFound},
		{"storage", Storage("sign", errors.New("boom")), ErrStorage},
		{"plain", errors.New("plain"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}
