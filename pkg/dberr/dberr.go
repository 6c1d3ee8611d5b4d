package dberr

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorCategory classifies errors by their nature and appropriate handling
// strategy.
type ErrorCategory int

const (
	// ErrCategoryUser represents contract violations by the caller.
	// Examples: addressing a page beyond the permitted bound, copying a
	// page onto itself, passing a wrongly sized buffer.
	// These errors are fixable by correcting the call, never by retrying.
	ErrCategoryUser ErrorCategory = iota

	// ErrCategorySystem represents failures of the underlying system.
	// Examples: seek, read, write, or sync failures on the backing file.
	// The original error is preserved as the cause.
	ErrCategorySystem

	// ErrCategoryData represents data corruption detected on disk.
	// Examples: a page whose stored checksum does not match its content.
	ErrCategoryData
)

// Error codes produced by the storage layer. Callers dispatch on these
// through HasCode rather than matching message strings.
const (
	// CodeOutOfRange is returned when a read or write addresses a page
	// beyond the permitted bound of the backing file.
	CodeOutOfRange = "PAGE_OUT_OF_RANGE"

	// CodeSelfCopy is returned when a page copy names the same source
	// and destination.
	CodeSelfCopy = "PAGE_SELF_COPY"

	// CodeBadChecksum is returned when a stored checksum does not match
	// the checksum recomputed from page content.
	CodeBadChecksum = "BAD_CHECKSUM"

	// CodeInvalidBufferSize is returned when a caller-supplied buffer or
	// payload has the wrong length for the operation.
	CodeInvalidBufferSize = "INVALID_BUFFER_SIZE"

	// CodeIOFailure wraps an underlying file I/O failure.
	CodeIOFailure = "IO_FAILURE"
)

// DBError is a structured storage error carrying a machine-readable code,
// a category, and the operation and component it originated from.
type DBError struct {
	// Code is a unique identifier for this error type (e.g. CodeOutOfRange).
	Code string

	// Category classifies the error for appropriate handling strategy.
	Category ErrorCategory

	// Message is a human-readable description of what went wrong.
	Message string

	// Detail provides additional context about the specific error instance,
	// e.g. "page 4 of 1".
	Detail string

	// Operation identifies the operation being performed when the error
	// occurred, e.g. "Read", "Copy".
	Operation string

	// Component identifies the component where the error originated,
	// e.g. "PageStore", "MetaPage".
	Component string

	// Cause is the underlying error, if any. It remains reachable through
	// errors.Unwrap, so underlying I/O failures propagate verbatim.
	Cause error

	// Stack contains the call stack captured where the error was created.
	Stack []uintptr
}

// New creates a DBError with the given code, category, and message.
func New(category ErrorCategory, code, message string) *DBError {
	return &DBError{
		Code:     code,
		Category: category,
		Message:  message,
		Stack:    captureStack(),
	}
}

// WithDetail attaches instance-specific context and returns the error.
func (e *DBError) WithDetail(format string, args ...any) *DBError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithOrigin records the operation and component the error came from and
// returns the error. Existing values are kept, so the innermost origin wins.
func (e *DBError) WithOrigin(operation, component string) *DBError {
	if e.Operation == "" {
		e.Operation = operation
	}
	if e.Component == "" {
		e.Component = component
	}
	return e
}

// Wrap wraps an underlying error with storage context. A nil err yields nil.
// If err is already a DBError it is enriched in place rather than re-wrapped,
// keeping the original code and category visible to HasCode.
func Wrap(err error, operation, component string) *DBError {
	if err == nil {
		return nil
	}

	var dbErr *DBError
	if errors.As(err, &dbErr) {
		return dbErr.WithOrigin(operation, component)
	}

	return &DBError{
		Code:      CodeIOFailure,
		Category:  ErrCategorySystem,
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     err,
		Stack:     captureStack(),
	}
}

// HasCode reports whether any error in err's chain is a DBError with the
// given code.
func HasCode(err error, code string) bool {
	var dbErr *DBError
	return errors.As(err, &dbErr) && dbErr.Code == code
}

// captureStack captures the current call stack, skipping the frames of this
// package so the stack starts at the error's origin.
func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[0:n]
}

// Error implements the standard error interface.
//
// The format follows the pattern:
// [CODE] Message: Detail (operation: Operation, component: Component) caused by: underlying error
func (e *DBError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Detail != "" {
		b.WriteString(fmt.Sprintf(": %s", e.Detail))
	}

	if e.Operation != "" {
		b.WriteString(fmt.Sprintf(" (operation: %s", e.Operation))
		if e.Component != "" {
			b.WriteString(fmt.Sprintf(", component: %s", e.Component))
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(" caused by: %v", e.Cause))
	}

	return b.String()
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As to
// traverse into wrapped I/O errors.
func (e *DBError) Unwrap() error {
	return e.Cause
}

// FormatStack returns a human-readable stack trace for debugging.
func (e *DBError) FormatStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(e.Stack)

	b.WriteString("Stack trace:\n")
	for {
		f, more := frames.Next()
		b.WriteString(fmt.Sprintf("  %s\n    %s:%d\n",
			f.Function, f.File, f.Line))
		if !more {
			break
		}
	}

	return b.String()
}
