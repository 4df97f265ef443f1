// Package errors provides standardized error types for table operations.
// This package defines Error for consistent error handling across the public
// API, with operation context, an error kind usable with errors.Is, and
// error wrapping support.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind classifies an Error so callers can react without parsing messages.
type Kind int

const (
	// KindUnknown is the zero kind; it matches no sentinel.
	KindUnknown Kind = iota
	// KindParam marks a configuration error in the call itself (bad column
	// name, bad keep policy, bad bandwidth selector). Retrying will not help.
	KindParam
	// KindInvalidInput marks data that the operation cannot work on
	// (empty sample, non-positive bandwidth, inverted range).
	KindInvalidInput
	// KindUnsupported marks unsupported formats or column types.
	KindUnsupported
	// KindInternal marks unexpected failures.
	KindInternal
)

// Sentinels for errors.Is checks against an Error's Kind.
var (
	ErrParam        = stderrors.New("param error")
	ErrInvalidInput = stderrors.New("invalid input")
	ErrUnsupported  = stderrors.New("unsupported")
	ErrInternal     = stderrors.New("internal error")
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindParam:
		return "ParamError"
	case KindInvalidInput:
		return "InvalidInputError"
	case KindUnsupported:
		return "UnsupportedError"
	case KindInternal:
		return "InternalError"
	default:
		return "Error"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindParam:
		return ErrParam
	case KindInvalidInput:
		return ErrInvalidInput
	case KindUnsupported:
		return ErrUnsupported
	case KindInternal:
		return ErrInternal
	default:
		return nil
	}
}

// Error represents standardized errors across all table operations
type Error struct {
	Op      string // Operation name (e.g., "Duplicated", "KDE", "Load")
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Kind    Kind   // Error classification
	Hint    string // Optional remediation hint
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *Error) Error() string {
	var msg string
	if e.Column != "" {
		msg = fmt.Sprintf("%s operation failed on column '%s': %s", e.Op, e.Column, e.Message)
	} else {
		msg = fmt.Sprintf("%s operation failed: %s", e.Op, e.Message)
	}
	if e.Hint != "" {
		msg += ". Hint: " + e.Hint
	}
	return msg
}

// Unwrap returns the underlying cause for error wrapping support
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches either the kind sentinel or an Error with the same Op, Column
// and Message.
func (e *Error) Is(target error) bool {
	if s := e.Kind.sentinel(); s != nil && target == s {
		return true
	}
	if other, ok := target.(*Error); ok {
		return e.Op == other.Op && e.Column == other.Column && e.Message == other.Message
	}
	return false
}

// WithHint returns a copy of the error carrying a remediation hint.
func (e *Error) WithHint(hint string) *Error {
	cp := *e
	cp.Hint = hint
	return &cp
}

// WithCause returns a copy of the error wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.Cause = cause
	return &cp
}

// NewColumnNotFoundError creates an error for operations on non-existent columns.
// Referencing a missing column is a caller configuration error.
func NewColumnNotFoundError(op, column string) *Error {
	return &Error{
		Op:      op,
		Column:  column,
		Message: "column does not exist",
		Kind:    KindParam,
	}
}

// NewColumnNotFoundErrorWithSuggestions is NewColumnNotFoundError plus a
// "did you mean" hint computed from the available columns.
func NewColumnNotFoundErrorWithSuggestions(op, column string, available []string) *Error {
	err := NewColumnNotFoundError(op, column)
	hint := fmt.Sprintf("Available columns: [%s]", strings.Join(available, ", "))
	if s := closestColumn(column, available); s != "" {
		hint = fmt.Sprintf("Did you mean '%s'? %s", s, hint)
	}
	return err.WithHint(hint)
}

// NewParamError creates an error for invalid call parameters
func NewParamError(op, message string) *Error {
	return &Error{
		Op:      op,
		Message: message,
		Kind:    KindParam,
	}
}

// NewInvalidInputError creates an error for inputs the operation cannot process
func NewInvalidInputError(op, message string) *Error {
	return &Error{
		Op:      op,
		Message: message,
		Kind:    KindInvalidInput,
	}
}

// NewUnsupportedTypeError creates an error for unsupported data types or formats
func NewUnsupportedTypeError(op, typeName string) *Error {
	return &Error{
		Op:      op,
		Message: fmt.Sprintf("unsupported type: %s", typeName),
		Kind:    KindUnsupported,
	}
}

// NewValidationError creates an error for input validation failures
func NewValidationError(op, column, message string) *Error {
	return &Error{
		Op:      op,
		Column:  column,
		Message: message,
		Kind:    KindParam,
	}
}

// NewInternalError creates an error for internal operation failures
func NewInternalError(op string, cause error) *Error {
	return &Error{
		Op:      op,
		Message: "internal error occurred",
		Kind:    KindInternal,
		Cause:   cause,
	}
}

// closestColumn returns the candidate within edit distance 2 of name, or "".
func closestColumn(name string, candidates []string) string {
	const maxDistance = 2

	best := ""
	bestDist := maxDistance + 1
	for _, c := range candidates {
		d := levenshtein(strings.ToLower(name), strings.ToLower(c))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
