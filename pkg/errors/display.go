package errors

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ErrorHint provides an actionable resolution for a recognizable failure.
//
// Fields:
//   - Pattern: Substring to match in the error message (case-insensitive)
//   - Hint: Brief description of the issue
//   - Resolution: Action to resolve the issue
type ErrorHint struct {
	Pattern    string
	Hint       string
	Resolution string
}

// CommonErrorHints lists hints for failures seen when fetching indexes and
// running update scripts.
var CommonErrorHints = []ErrorHint{
	{Pattern: "permission denied", Hint: "Update script is not executable", Resolution: "chmod +x the script configured in update.commands"},
	{Pattern: "no such file or directory", Hint: "Command or path not found", Resolution: "run from the repository root or set working_dir in .releasewatch.yml"},
	{Pattern: "timed out", Hint: "Command exceeded its timeout", Resolution: "raise update.timeout_seconds"},
	{Pattern: "unexpected status 403", Hint: "Index request was rejected", Resolution: "set RELEASEWATCH_GITHUB_TOKEN or GITHUB_TOKEN when using GitHub hosted indexes"},
	{Pattern: "unexpected status 429", Hint: "Rate limited by the index host", Resolution: "retry later or raise catalog.max_retries"},
	{Pattern: "invalid version", Hint: "A version string could not be parsed", Resolution: "check build_tree.version_pattern and the index URLs"},
}

// GetHint returns the first matching hint for err, or an empty string.
func GetHint(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	for _, h := range CommonErrorHints {
		if strings.Contains(msg, strings.ToLower(h.Pattern)) {
			return h.Hint + ": " + h.Resolution
		}
	}
	return ""
}

// PrintError writes err to w with a hint when one applies.
//
// Validation errors with verbose set include expected values. Multi-errors
// produced by config validation are expanded one per line.
//
// Parameters:
//   - w: Writer to output to (typically os.Stderr)
//   - err: The error to display; nil prints nothing
//   - verbose: Whether to include extra detail
func PrintError(w io.Writer, err error, verbose bool) {
	if err == nil {
		return
	}

	var merr *multierror.Error
	if errors.As(err, &merr) && len(merr.Errors) > 1 {
		_, _ = fmt.Fprintf(w, "Error: %d problems found\n", len(merr.Errors))
		for _, e := range merr.Errors {
			_, _ = fmt.Fprintf(w, "  - %s\n", e)
		}
		return
	}

	if ve, ok := IsValidationError(err); ok {
		msg := ve.Error()
		if verbose {
			msg = ve.VerboseError()
		}
		_, _ = fmt.Fprintf(w, "Validation Error: %s\n", msg)
		return
	}

	_, _ = fmt.Fprintf(w, "Error: %s\n", err)
	if hint := GetHint(err); hint != "" {
		_, _ = fmt.Fprintf(w, "  \U0001F4A1 %s\n", hint)
	}
}
