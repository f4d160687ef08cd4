package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationCategory identifies the source of a validation error.
type ValidationCategory string

const (
	// ValidationCategoryConfig indicates a configuration file validation error.
	ValidationCategoryConfig ValidationCategory = "config"

	// ValidationCategoryPreflight indicates a preflight check failure (missing command).
	ValidationCategoryPreflight ValidationCategory = "preflight"
)

// ValidationError represents a configuration or preflight validation failure.
//
// Fields:
//   - Category: Source of validation ("config" or "preflight")
//   - Field: Name of the invalid field, e.g. "update.timeout_seconds"
//   - Message: Description of what's wrong
//   - Expected: What a valid value looks like
//   - Command: For preflight errors, the command that was not found
//   - Hint: Actionable hint for fixing the error
type ValidationError struct {
	Category ValidationCategory
	Field    string
	Message  string
	Expected string
	Command  string
	Hint     string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var sb strings.Builder

	if e.Category == ValidationCategoryPreflight && e.Command != "" {
		sb.WriteString(fmt.Sprintf("command not found: %s", e.Command))
		if e.Hint != "" {
			sb.WriteString(fmt.Sprintf("\n  Resolution: %s", e.Hint))
		} else {
			sb.WriteString(fmt.Sprintf("\n  Resolution: Ensure '%s' is installed and available in your PATH.", e.Command))
		}
		return sb.String()
	}

	if e.Field != "" {
		sb.WriteString(fmt.Sprintf("%s: %s", e.Field, e.Message))
	} else {
		sb.WriteString(e.Message)
	}
	return sb.String()
}

// VerboseError returns the message with the expected value and hint appended.
func (e *ValidationError) VerboseError() string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	if e.Expected != "" {
		sb.WriteString(fmt.Sprintf("\n    Expected: %s", e.Expected))
	}
	if e.Hint != "" && e.Category != ValidationCategoryPreflight {
		sb.WriteString(fmt.Sprintf("\n    Hint: %s", e.Hint))
	}
	return sb.String()
}

// IsValidationError checks if err is a ValidationError and returns it.
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// NewConfigValidationError creates a ValidationError for configuration issues.
//
// Example:
//
//	err := errors.NewConfigValidationError("artifact", "must not be empty")
func NewConfigValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Category: ValidationCategoryConfig,
		Field:    field,
		Message:  message,
	}
}

// NewPreflightValidationError creates a ValidationError for a command that
// could not be resolved.
func NewPreflightValidationError(command, hint string) *ValidationError {
	return &ValidationError{
		Category: ValidationCategoryPreflight,
		Command:  command,
		Hint:     hint,
	}
}
