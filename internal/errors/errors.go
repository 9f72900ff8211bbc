package errors

import (
	stderrors "errors"
	"fmt"
)

// RAGError is the structured error type used across the indexing pipeline.
// It carries enough context for logging, CLI presentation and retry decisions.
type RAGError struct {
	// Code is the unique error code (e.g., "ERR_205_CORRUPT_INDEX").
	Code string

	// Message is the human-readable error message.
	Message string

	Category Category
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable hint for the operator.
	Suggestion string
}

// Error implements the error interface.
func (e *RAGError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *RAGError) Unwrap() error {
	return e.Cause
}

// Is matches by code so errors.Is works against sentinel RAGErrors.
func (e *RAGError) Is(target error) bool {
	if t, ok := target.(*RAGError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *RAGError) WithDetail(key, value string) *RAGError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *RAGError) WithSuggestion(suggestion string) *RAGError {
	e.Suggestion = suggestion
	return e
}

// New creates a RAGError. Category, severity and the retryable flag are
// derived from the code.
func New(code string, message string, cause error) *RAGError {
	return &RAGError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a RAGError from an existing error, reusing its message.
func Wrap(code string, err error) *RAGError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *RAGError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *RAGError {
	return New(ErrCodeFileNotFound, message, cause)
}

// NetworkError creates a retryable provider error.
func NetworkError(message string, cause error) *RAGError {
	return New(ErrCodeNetworkUnavailable, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *RAGError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *RAGError {
	return New(ErrCodeInternal, message, cause)
}

// as finds the first RAGError in err's chain.
func as(err error) (*RAGError, bool) {
	var re *RAGError
	if stderrors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsRetryable reports whether err (or anything it wraps) is a retryable RAGError.
func IsRetryable(err error) bool {
	if re, ok := as(err); ok {
		return re.Retryable
	}
	return false
}

// IsFatal reports whether err carries fatal severity.
func IsFatal(err error) bool {
	if re, ok := as(err); ok {
		return re.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code, or "" when err is not a RAGError.
func GetCode(err error) string {
	if re, ok := as(err); ok {
		return re.Code
	}
	return ""
}

// GetCategory extracts the category, or "" when err is not a RAGError.
func GetCategory(err error) Category {
	if re, ok := as(err); ok {
		return re.Category
	}
	return ""
}
