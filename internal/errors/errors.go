// Package errors provides a lightweight structured error type (KPFBuilderError)
// for category-based classification in the conversion pipeline and CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a kpfbuilder error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryInput      ErrorCategory = "input"

	// External program integration errors
	CategoryLocate  ErrorCategory = "locate"
	CategoryVersion ErrorCategory = "version"
	CategoryLaunch  ErrorCategory = "launch"
	CategoryTimeout ErrorCategory = "timeout"
	CategoryProcess ErrorCategory = "process"

	// Runtime and infrastructure errors
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryDaemon     ErrorCategory = "daemon"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// KPFBuilderError is a structured error with category, retryability, and context
type KPFBuilderError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for KPFBuilderError
type ContextFields map[string]any

// Error implements the error interface
func (e *KPFBuilderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *KPFBuilderError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *KPFBuilderError) WithContext(key string, value any) *KPFBuilderError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new KPFBuilderError
func New(category ErrorCategory, severity ErrorSeverity, message string) *KPFBuilderError {
	return &KPFBuilderError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new KPFBuilderError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *KPFBuilderError {
	return &KPFBuilderError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// Retryable creates a new retryable KPFBuilderError
func Retryable(category ErrorCategory, severity ErrorSeverity, message string) *KPFBuilderError {
	return &KPFBuilderError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if ke, ok := err.(*KPFBuilderError); ok {
		return ke.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if ke, ok := err.(*KPFBuilderError); ok {
		return ke.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a KPFBuilderError
func GetCategory(err error) ErrorCategory {
	if ke, ok := err.(*KPFBuilderError); ok {
		return ke.Category
	}
	return CategoryInternal
}

// ValidationError creates a new validation error
func ValidationError(message string) *KPFBuilderError {
	return &KPFBuilderError{
		Category: CategoryValidation,
		Severity: SeverityWarning,
		Message:  message,
	}
}

// WrapError wraps an existing error with a new KPFBuilderError at error severity
func WrapError(err error, category ErrorCategory, message string) *KPFBuilderError {
	return &KPFBuilderError{
		Category: category,
		Severity: SeverityError,
		Message:  message,
		Cause:    err,
	}
}
