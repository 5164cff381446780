// Package errors defines the error taxonomy shared by the loader, the query
// engine and the CLI.
//
// Two kinds matter to callers: InvalidSelection errors abort a single query
// and are safe to show to the user verbatim, while Load errors are fatal to
// the session until the ledger is reloaded successfully. Neither is retried:
// both are deterministic for a given input.
package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory groups errors by the layer that raised them
type ErrorCategory string

const (
	CategorySelection     ErrorCategory = "selection"
	CategoryLoad          ErrorCategory = "load"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryExport        ErrorCategory = "export"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode identifies a specific failure within a category
type ErrorCode string

const (
	// Selection errors
	CodeEmptyBranchSelection ErrorCode = "empty_branch_selection"

	// Load errors
	CodeSourceUnreadable ErrorCode = "source_unreadable"
	CodeMissingColumn    ErrorCode = "missing_column"
	CodeInvalidDate      ErrorCode = "invalid_date"
	CodeInvalidAmount    ErrorCode = "invalid_amount"
	CodeInvalidQuantity  ErrorCode = "invalid_quantity"
	CodeMalformedRow     ErrorCode = "malformed_row"
	CodeEncodingError    ErrorCode = "encoding_error"
	CodeEmptySource      ErrorCode = "empty_source"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Export errors
	CodeWriteFailed ErrorCode = "write_failed"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
	CodeCancelled       ErrorCode = "cancelled"
)

// SalesError is the base error type for all application errors
type SalesError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

func (e *SalesError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *SalesError) Unwrap() error {
	return e.Cause
}

// GetExitCode maps the error category to a process exit code
func (e *SalesError) GetExitCode() int {
	switch e.Category {
	case CategoryLoad:
		return 2
	case CategorySelection:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryExport:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *SalesError) WithContext(key string, value interface{}) *SalesError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *SalesError) WithSuggestion(suggestion string) *SalesError {
	e.Suggestion = suggestion
	return e
}

// New creates a new SalesError
func New(category ErrorCategory, code ErrorCode, message string) *SalesError {
	return &SalesError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with SalesError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *SalesError {
	if err == nil {
		return nil
	}

	return &SalesError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// InvalidSelection reports a query whose required branch selection is empty.
// The message is meant to be shown to the user as-is.
func InvalidSelection(products, customers []string) *SalesError {
	return New(CategorySelection, CodeEmptyBranchSelection, "please select at least one branch").
		WithSuggestion("pass one or more branches with --branches").
		WithContext("products", len(products)).
		WithContext("customers", len(customers))
}

// LoadFailure creates a ledger load error. line is the 1-based line of the
// source that failed, or 0 when the failure is not tied to a row.
func LoadFailure(code ErrorCode, source string, line int, column, value string, err error) *SalesError {
	var message string
	var suggestion string

	switch code {
	case CodeSourceUnreadable:
		message = fmt.Sprintf("cannot read ledger source %s", source)
		suggestion = "check that the file exists and is readable"
	case CodeMissingColumn:
		message = fmt.Sprintf("missing required column '%s' in %s", column, source)
		suggestion = "verify the header row or configure the column name under columns.*"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in %s at line %d, column '%s': '%s'", source, line, column, value)
		suggestion = "dates must be day/month/year, e.g. 15/01/2023"
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in %s at line %d, column '%s': '%s'", source, line, column, value)
		suggestion = "amounts must be decimal numbers, e.g. 1234.50"
	case CodeInvalidQuantity:
		message = fmt.Sprintf("invalid quantity in %s at line %d, column '%s': '%s'", source, line, column, value)
		suggestion = "quantities must be whole numbers greater than or equal to zero"
	case CodeEncodingError:
		message = fmt.Sprintf("encoding error in %s at line %d", source, line)
		suggestion = "save the file in UTF-8 encoding"
	case CodeEmptySource:
		message = fmt.Sprintf("ledger source %s is empty", source)
		suggestion = "the file must contain a header row"
	default:
		message = fmt.Sprintf("malformed row in %s at line %d", source, line)
		suggestion = "check the row has the same number of fields as the header"
	}

	var result *SalesError
	if err != nil {
		result = Wrap(err, CategoryLoad, code, message)
	} else {
		result = New(CategoryLoad, code, message)
	}

	result.WithSuggestion(suggestion).WithContext("source", source)
	if line > 0 {
		result.WithContext("line", line)
	}
	if column != "" {
		result.WithContext("column", column)
	}
	return result
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *SalesError {
	var message string
	switch code {
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
	default:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
	}

	var result *SalesError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}
	return result.
		WithContext("setting", setting).
		WithContext("value", value)
}

// ExportError wraps a failure writing a report or export
func ExportError(target string, err error) *SalesError {
	return Wrap(err, CategoryExport, CodeWriteFailed, fmt.Sprintf("failed to write %s", target)).
		WithSuggestion("check the output path and available disk space").
		WithContext("target", target)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *SalesError {
	message := fmt.Sprintf("unexpected error during %s", operation)
	if code == CodeCancelled {
		message = fmt.Sprintf("%s was cancelled", operation)
	}

	var result *SalesError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}
	return result.WithContext("operation", operation)
}

// AsSalesError extracts a SalesError from an error chain
func AsSalesError(err error) (*SalesError, bool) {
	var salesErr *SalesError
	if errors.As(err, &salesErr) {
		return salesErr, true
	}
	return nil, false
}

// IsInvalidSelection reports whether err is an empty-selection error
func IsInvalidSelection(err error) bool {
	e, ok := AsSalesError(err)
	return ok && e.Category == CategorySelection
}

// IsLoadError reports whether err is a ledger load error
func IsLoadError(err error) bool {
	e, ok := AsSalesError(err)
	return ok && e.Category == CategoryLoad
}

// Describe renders the error with its context keys sorted, for CLI output
func Describe(e *SalesError) string {
	var b strings.Builder
	b.WriteString(e.Message)
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %v", k, e.Context[k])
	}
	return b.String()
}
