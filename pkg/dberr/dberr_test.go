package dberr

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCategoryUser, CodeOutOfRange, "tried to read distant page")

	if err.Code != CodeOutOfRange {
		t.Errorf("Expected code %s, got %s", CodeOutOfRange, err.Code)
	}
	if err.Category != ErrCategoryUser {
		t.Errorf("Expected category %d, got %d", ErrCategoryUser, err.Category)
	}
	if len(err.Stack) == 0 {
		t.Error("Expected a captured stack")
	}
}

func TestError_Format(t *testing.T) {
	tests := []struct {
		name     string
		err      *DBError
		expected string
	}{
		{
			name:     "Code and message only",
			err:      New(ErrCategoryData, CodeBadChecksum, "checksum mismatch"),
			expected: "[BAD_CHECKSUM] checksum mismatch",
		},
		{
			name: "With detail",
			err: New(ErrCategoryUser, CodeOutOfRange, "tried to read distant page").
				WithDetail("page %d, page count %d", 4, 1),
			expected: "[PAGE_OUT_OF_RANGE] tried to read distant page: page 4, page count 1",
		},
		{
			name: "With origin",
			err: New(ErrCategoryUser, CodeSelfCopy, "tried to copy page to itself").
				WithOrigin("Copy", "PageStore"),
			expected: "[PAGE_SELF_COPY] tried to copy page to itself (operation: Copy, component: PageStore)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestWrap_PreservesUnderlyingError(t *testing.T) {
	underlying := fmt.Errorf("short write: %w", os.ErrClosed)
	err := Wrap(underlying, "Write", "PageStore")

	if err.Code != CodeIOFailure {
		t.Errorf("Expected code %s, got %s", CodeIOFailure, err.Code)
	}
	if err.Category != ErrCategorySystem {
		t.Errorf("Expected system category, got %d", err.Category)
	}
	if !errors.Is(err, os.ErrClosed) {
		t.Error("Expected the underlying error to remain reachable via errors.Is")
	}
	if !strings.Contains(err.Error(), "caused by") {
		t.Errorf("Expected formatted cause, got %q", err.Error())
	}
}

func TestWrap_Nil(t *testing.T) {
	if err := Wrap(nil, "Read", "PageStore"); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
}

func TestWrap_EnrichesExistingDBError(t *testing.T) {
	inner := New(ErrCategoryUser, CodeOutOfRange, "tried to read distant page").
		WithOrigin("Read", "PageStore")

	wrapped := Wrap(inner, "Write", "MetaPage")

	if wrapped != inner {
		t.Error("Expected the existing DBError to be enriched, not re-wrapped")
	}
	if wrapped.Code != CodeOutOfRange {
		t.Errorf("Expected code to survive wrapping, got %s", wrapped.Code)
	}
	if wrapped.Operation != "Read" {
		t.Errorf("Expected innermost origin to win, got %s", wrapped.Operation)
	}
}

func TestHasCode(t *testing.T) {
	err := New(ErrCategoryUser, CodeOutOfRange, "tried to read distant page")

	if !HasCode(err, CodeOutOfRange) {
		t.Error("Expected HasCode to match the error's own code")
	}
	if HasCode(err, CodeSelfCopy) {
		t.Error("Expected HasCode to reject a different code")
	}
	if HasCode(nil, CodeOutOfRange) {
		t.Error("Expected HasCode to reject nil")
	}

	wrapped := fmt.Errorf("outer context: %w", err)
	if !HasCode(wrapped, CodeOutOfRange) {
		t.Error("Expected HasCode to traverse wrapped errors")
	}
}

func TestFormatStack(t *testing.T) {
	err := New(ErrCategorySystem, CodeIOFailure, "sync failed")
	stack := err.FormatStack()

	if !strings.HasPrefix(stack, "Stack trace:") {
		t.Errorf("Expected stack trace header, got %q", stack)
	}
	if !strings.Contains(stack, "dberr_test.go") {
		t.Errorf("Expected the creation site in the stack, got %q", stack)
	}
}
