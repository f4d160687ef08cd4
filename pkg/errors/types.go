package errors

import (
	"errors"
	"fmt"
)

// Exit codes for scripting integration.
const (
	// ExitSuccess indicates the run completed, including "no update" and
	// batches withheld for a missing artifact.
	ExitSuccess = 0

	// ExitPartialFailure indicates at least one update action completed
	// before a later one failed.
	ExitPartialFailure = 1

	// ExitFailure indicates a critical error before any update completed.
	ExitFailure = 2

	// ExitConfigError indicates a configuration or validation error.
	ExitConfigError = 3
)

// ExitError represents a command termination with a specific exit code.
//
// Fields:
//   - Code: Exit code (use ExitSuccess, ExitPartialFailure, ExitFailure, ExitConfigError)
//   - Message: Human-readable error message
//   - Err: Underlying error that caused this exit, may be nil
type ExitError struct {
	Code    int
	Message string
	Err     error
}

// Error implements the error interface.
//
// Returns the Message field if set, otherwise the underlying error's message,
// or a default message with the exit code.
func (e *ExitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError with the given code and underlying error.
//
// Example:
//
//	err := errors.NewExitError(errors.ExitConfigError, configErr)
func NewExitError(code int, err error) *ExitError {
	return &ExitError{Code: code, Err: err}
}

// NewExitErrorf creates an ExitError with the given code and formatted message.
func NewExitErrorf(code int, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsExitError checks if err is an ExitError and returns it.
func IsExitError(err error) (*ExitError, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr, true
	}
	return nil, false
}

// GetExitCode extracts the exit code from an error.
//
// It performs the following operations:
//   - Returns ExitSuccess for nil and for MissingArtifactError
//   - Returns the code of an ExitError anywhere in the chain
//   - Returns ExitPartialFailure for an ActionError after completed actions
//   - Returns ExitFailure otherwise
//
// Parameters:
//   - err: The error to extract a code from
//
// Returns:
//   - int: Exit code
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if exitErr, ok := IsExitError(err); ok {
		return exitErr.Code
	}

	if IsMissingArtifact(err) {
		return ExitSuccess
	}

	var actionErr *ActionError
	if errors.As(err, &actionErr) && len(actionErr.Completed) > 0 {
		return ExitPartialFailure
	}

	return ExitFailure
}

// MissingArtifactError reports that a candidate release has no alternate
// build yet. It blocks every line in the batch.
//
// Fields:
//   - Line: Major line whose candidate is missing the artifact, e.g. "20"
//   - Version: Candidate version string, e.g. "20.1.0"
//   - Artifact: The required artifact tag, e.g. "linux-x64-musl"
type MissingArtifactError struct {
	Line     string
	Version  string
	Artifact string
}

// Error implements the error interface.
func (e *MissingArtifactError) Error() string {
	artifact := e.Artifact
	if artifact == "" {
		artifact = "alternate"
	}
	return fmt.Sprintf("line %s: no %s build for version %s yet", e.Line, artifact, e.Version)
}

// IsMissingArtifact reports whether err is, or wraps, a MissingArtifactError.
func IsMissingArtifact(err error) bool {
	var mae *MissingArtifactError
	return errors.As(err, &mae)
}

// ActionError reports a failed update action for one line.
//
// Fields:
//   - Line: Major line whose action failed, or "post-update"
//   - Version: Version the action was updating to
//   - Completed: Versions updated successfully before the failure
//   - Err: The underlying command error
type ActionError struct {
	Line      string
	Version   string
	Completed []string
	Err       error
}

// Error implements the error interface.
func (e *ActionError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("update action for line %s (%s) failed: %v", e.Line, e.Version, e.Err)
	}
	return fmt.Sprintf("%s action failed: %v", e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e *ActionError) Unwrap() error {
	return e.Err
}
