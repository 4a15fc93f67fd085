// Package cerrors defines the typed error taxonomy used across
// cindex: every user-visible failure carries a code, a human message,
// and a suggestion.
package cerrors

import "fmt"

// Category is the top-level error taxonomy.
type Category string

const (
	CategoryConfiguration Category = "configuration"
	CategoryFilesystem    Category = "filesystem"
	CategoryStore         Category = "store"
	CategoryBackend       Category = "backend"
	CategoryValidation    Category = "validation"
)

// Error is the typed error every tool-facing failure path returns.
type Error struct {
	Category   Category
	Code       string
	Message    string
	Suggestion string
	Cause      error
	temporary  bool
}

func (e *Error) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s: %s (suggestion: %s)", e.Code, e.Message, e.Suggestion)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Temporary reports whether the condition is expected to clear on retry.
func (e *Error) Temporary() bool { return e.temporary }

func new_(cat Category, code, msg, suggestion string, cause error, temporary bool) *Error {
	return &Error{Category: cat, Code: code, Message: msg, Suggestion: suggestion, Cause: cause, temporary: temporary}
}

// Configuration builds a fatal-at-startup configuration error.
func Configuration(code, msg, suggestion string) *Error {
	return new_(CategoryConfiguration, code, msg, suggestion, nil, false)
}

// Filesystem builds a recoverable filesystem error (skip file, record failure).
func Filesystem(code, msg string, cause error) *Error {
	return new_(CategoryFilesystem, code, msg, "", cause, false)
}

// Store builds a data-store error. Connection-class errors should set temporary=true
// so callers know to retry with backoff before surfacing.
func Store(code, msg string, cause error, temporary bool) *Error {
	return new_(CategoryStore, code, msg, "", cause, temporary)
}

// Backend builds an embedding/summary backend error.
func Backend(code, msg string, cause error, temporary bool) *Error {
	return new_(CategoryBackend, code, msg, "", cause, temporary)
}

// Validation builds a tool-input validation error. These must be
// returned before any side effects occur.
func Validation(code, msg, suggestion string) *Error {
	return new_(CategoryValidation, code, msg, suggestion, nil, false)
}

// Well-known codes referenced by multiple packages.
const (
	CodeNotConnected      = "store.not_connected"
	CodeNotFound          = "store.not_found"
	CodeSchema            = "store.schema"
	CodeDimensionMismatch = "store.dimension_mismatch"
	CodeQuery             = "store.query"

	CodeModelNotFound   = "backend.model_not_found"
	CodeEmbeddingFailed = "backend.embedding"
	CodeSummaryFailed   = "backend.summary"
	CodeTimeout         = "backend.timeout"

	CodeMissingField  = "validation.missing_field"
	CodeOutOfRange    = "validation.out_of_range"
	CodeUnknownEnum   = "validation.unknown_enum"
	CodeNeedsConfirm  = "validation.needs_confirmation"
)
