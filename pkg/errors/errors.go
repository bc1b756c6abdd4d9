package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	// CategoryData covers malformed invoice or purchase order input,
	// rejected before matching runs (e.g. negative quantity).
	CategoryData ErrorCategory = "data"

	// CategoryPrecondition covers operations attempted against an entity
	// in the wrong state (approve while needs_review, out-of-order
	// transitions). The entity is left unchanged.
	CategoryPrecondition ErrorCategory = "precondition"

	// CategoryNotFound covers references to absent matching results,
	// issues, pairs or queue items.
	CategoryNotFound ErrorCategory = "not_found"

	CategoryParse         ErrorCategory = "parse"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Data errors
	CodeInvalidAmount   ErrorCode = "invalid_amount"
	CodeInvalidQuantity ErrorCode = "invalid_quantity"
	CodeInvalidDate     ErrorCode = "invalid_date"
	CodeMissingField    ErrorCode = "missing_field"
	CodeMissingPORef    ErrorCode = "missing_po_reference"

	CodeInvalidResolution ErrorCode = "invalid_resolution"

	// Precondition errors
	CodeInvalidTransition ErrorCode = "invalid_transition"
	CodeUnresolvedIssues  ErrorCode = "unresolved_issues"
	CodeTerminalState     ErrorCode = "terminal_state"
	CodeMissingReason     ErrorCode = "missing_reason"
	CodeAlreadyResolved   ErrorCode = "already_resolved"

	// Not-found errors
	CodePairNotFound      ErrorCode = "pair_not_found"
	CodeResultNotFound    ErrorCode = "result_not_found"
	CodeIssueNotFound     ErrorCode = "issue_not_found"
	CodeQueueItemNotFound ErrorCode = "queue_item_not_found"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeFileNotFound  ErrorCode = "file_not_found"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// MatchingError is the base error type for all application errors
type MatchingError struct {
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

// Error implements the error interface
func (e *MatchingError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *MatchingError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *MatchingError) GetExitCode() int {
	switch e.Category {
	case CategoryParse:
		return 2
	case CategoryData:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryPrecondition, CategoryNotFound:
		return 5
	case CategoryInternal:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *MatchingError) WithContext(key string, value interface{}) *MatchingError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *MatchingError) WithSuggestion(suggestion string) *MatchingError {
	e.Suggestion = suggestion
	return e
}

// New creates a new MatchingError
func New(category ErrorCategory, code ErrorCode, message string) *MatchingError {
	return &MatchingError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with MatchingError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *MatchingError {
	if err == nil {
		return nil
	}

	return &MatchingError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// DataError creates an error for malformed invoice/PO input
func DataError(code ErrorCode, field string, value interface{}) *MatchingError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
		suggestion = "amounts must be non-negative decimal numbers"
	case CodeInvalidQuantity:
		message = fmt.Sprintf("invalid quantity in field '%s': %v", field, value)
		suggestion = "quantities must be non-negative"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use date format YYYY-MM-DD"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeMissingPORef:
		message = "invoice has no purchase order reference"
		suggestion = "a PO reference must be present on the invoice before matching"
	case CodeInvalidResolution:
		message = fmt.Sprintf("invalid resolution action: %v", value)
		suggestion = "use one of: accepted, overridden, corrected"
	default:
		message = fmt.Sprintf("invalid data in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	return New(CategoryData, code, message).
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// PreconditionError creates an error for an operation attempted in the wrong state
func PreconditionError(code ErrorCode, operation string, detail string) *MatchingError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidTransition:
		message = fmt.Sprintf("invalid stage transition during %s: %s", operation, detail)
		suggestion = "stages only move forward; check the pair's current stage"
	case CodeUnresolvedIssues:
		message = fmt.Sprintf("cannot %s: %s", operation, detail)
		suggestion = "resolve all medium-or-higher issues before this action"
	case CodeTerminalState:
		message = fmt.Sprintf("cannot %s: %s", operation, detail)
		suggestion = "approved and rejected pairs cannot be modified"
	case CodeMissingReason:
		message = fmt.Sprintf("cannot %s: a non-empty reason is required", operation)
		suggestion = "provide a reason for the rejection"
	case CodeAlreadyResolved:
		message = fmt.Sprintf("cannot %s: %s", operation, detail)
		suggestion = "the issue has already been resolved"
	default:
		message = fmt.Sprintf("precondition failed during %s: %s", operation, detail)
		suggestion = "check the entity state and try again"
	}

	return New(CategoryPrecondition, code, message).
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// NotFoundError creates an error for a missing entity reference
func NotFoundError(code ErrorCode, id string) *MatchingError {
	var message string

	switch code {
	case CodePairNotFound:
		message = fmt.Sprintf("document pair %s not found", id)
	case CodeResultNotFound:
		message = fmt.Sprintf("matching result %s not found", id)
	case CodeIssueNotFound:
		message = fmt.Sprintf("validation issue %s not found", id)
	case CodeQueueItemNotFound:
		message = fmt.Sprintf("review queue item %s not found", id)
	default:
		message = fmt.Sprintf("entity %s not found", id)
	}

	return New(CategoryNotFound, code, message).
		WithContext("id", id)
}

// ParseError creates a parsing-related error
func ParseError(code ErrorCode, file string, err error) *MatchingError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid document format in %s", file)
		suggestion = "check that the file is a normalized invoice/PO JSON document"
	case CodeFileNotFound:
		message = fmt.Sprintf("document file not found: %s", file)
		suggestion = "check if the file path is correct and the file exists"
	default:
		message = fmt.Sprintf("parse error in %s", file)
		suggestion = "check the file format and data integrity"
	}

	var result *MatchingError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", file)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}) *MatchingError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	return New(CategoryConfiguration, code, message).
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(operation string, err error) *MatchingError {
	message := fmt.Sprintf("unexpected error during %s", operation)

	var result *MatchingError
	if err != nil {
		result = Wrap(err, CategoryInternal, CodeUnexpectedError, message)
	} else {
		result = New(CategoryInternal, CodeUnexpectedError, message)
	}

	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total      int                   `json:"total"`
	ByCategory map[ErrorCategory]int `json:"by_category"`
	ByCode     map[ErrorCode]int     `json:"by_code"`
	Errors     []*MatchingError      `json:"errors"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*MatchingError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}
	if errs == nil {
		summary.Errors = []*MatchingError{}
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	count, exists := es.ByCategory[category]
	return exists && count > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// Utility functions

// IsMatchingError checks if an error is a MatchingError
func IsMatchingError(err error) bool {
	_, ok := err.(*MatchingError)
	return ok
}

// AsMatchingError extracts a MatchingError from an error chain
func AsMatchingError(err error) (*MatchingError, bool) {
	var matchingErr *MatchingError
	if errors.As(err, &matchingErr) {
		return matchingErr, true
	}
	return nil, false
}

// IsCategory reports whether err is a MatchingError of the given category
func IsCategory(err error, category ErrorCategory) bool {
	if matchingErr, ok := AsMatchingError(err); ok {
		return matchingErr.Category == category
	}
	return false
}

// WrapIfNeeded wraps an error if it's not already a MatchingError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *MatchingError {
	if err == nil {
		return nil
	}

	if matchingErr, ok := AsMatchingError(err); ok {
		return matchingErr
	}

	return Wrap(err, category, code, message)
}
