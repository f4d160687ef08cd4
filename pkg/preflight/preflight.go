// Package preflight verifies that the configured commands can be found
// before anything is fetched or run.
package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/ajxudir/releasewatch/pkg/config"
	"github.com/ajxudir/releasewatch/pkg/errors"
	"github.com/ajxudir/releasewatch/pkg/verbose"
)

// CommandResolutionHints maps command names to installation instructions.
var CommandResolutionHints = map[string]string{
	"git":         "Install Git: https://git-scm.com/downloads",
	"bash":        "Install bash or set shell: sh in .releasewatch.yml",
	"docker":      "Install Docker: https://docs.docker.com/get-docker/",
	"curl":        "Install curl: https://curl.se/download.html (often pre-installed)",
	"jq":          "Install jq: https://jqlang.github.io/jq/download/ (JSON processor)",
	"./update.sh": "Run from the repository root, set working_dir, or chmod +x update.sh",
}

// shellBuiltins are leading words that are not commands to resolve.
var shellBuiltins = map[string]bool{
	".": true, "source": true, "cd": true, "export": true, "set": true,
	"echo": true, "test": true, "[": true, "true": true, "false": true,
	"exit": true, "if": true, "for": true, "while": true,
}

// Result holds the outcome of preflight validation.
//
// Fields:
//   - Errors: One entry per command that could not be resolved
//   - Checked: Commands that were checked, in order
type Result struct {
	Errors  []*errors.ValidationError
	Checked []string
}

// HasErrors reports whether any command was not found.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Err returns the errors combined, or nil.
func (r *Result) Err() error {
	var merr *multierror.Error
	for _, e := range r.Errors {
		merr = multierror.Append(merr, e)
	}
	return merr.ErrorOrNil()
}

// ErrorMessage returns a readable summary of all errors, or an empty string.
func (r *Result) ErrorMessage() string {
	if len(r.Errors) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Pre-flight validation failed:\n")
	for _, err := range r.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks that every command referenced by cfg resolves.
//
// It performs the following operations:
//   - Collects the update, post-update and build-tree commands
//   - Extracts the leading word of each command line and pipeline segment
//   - Resolves relative paths such as ./update.sh against the working dir
//   - Looks other names up in PATH, then as shell aliases or functions
//
// Parameters:
//   - cfg: Configuration to check
//   - includeUpdate: Whether the update and post-update commands are needed
//
// Returns:
//   - *Result: Never nil
func Validate(cfg *config.Config, includeUpdate bool) *Result {
	sources := []string{cfg.BuildTree.VersionsCommand, cfg.BuildTree.VersionCommand}
	if includeUpdate {
		sources = append(sources, cfg.Update.Commands, cfg.Update.PostCommands)
	}

	result := &Result{}
	seen := make(map[string]bool)
	for _, src := range sources {
		for _, cmd := range extractCommands(src) {
			if seen[cmd] {
				continue
			}
			seen[cmd] = true
			result.Checked = append(result.Checked, cmd)
			if err := validateCommand(cmd, cfg.WorkingDir, cfg.Shell); err != nil {
				result.Errors = append(result.Errors, err)
			}
		}
	}

	verbose.Printf("Preflight: %d commands checked, %d missing", len(result.Checked), len(result.Errors))
	return result
}

// extractCommands returns the unique leading words of a multiline command
// string.
//
// Comment lines, shell builtins and words containing {{placeholders}} are
// skipped. Segments split on |, && and ; are each inspected.
func extractCommands(commands string) []string {
	var result []string
	seen := make(map[string]bool)

	normalized := strings.ReplaceAll(strings.TrimSpace(commands), "\r\n", "\n")
	for _, line := range strings.Split(normalized, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), "\\"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		for _, part := range splitSegments(line) {
			fields := strings.Fields(part)
			if len(fields) == 0 {
				continue
			}
			cmd := fields[0]
			if shellBuiltins[cmd] || strings.Contains(cmd, "{{") || strings.Contains(cmd, "=") {
				continue
			}
			if !seen[cmd] {
				seen[cmd] = true
				result = append(result, cmd)
			}
		}
	}
	return result
}

func splitSegments(line string) []string {
	line = strings.ReplaceAll(line, "&&", "\n")
	line = strings.ReplaceAll(line, "||", "\n")
	line = strings.ReplaceAll(line, "|", "\n")
	line = strings.ReplaceAll(line, ";", "\n")
	return strings.Split(line, "\n")
}

// validateCommand checks that cmd can be executed from workDir.
//
// Returns:
//   - *errors.ValidationError: When cmd cannot be found; nil otherwise
func validateCommand(cmd, workDir, shell string) *errors.ValidationError {
	if strings.ContainsRune(cmd, '/') {
		path := cmd
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, cmd)
		}
		if isExecutable(path) {
			verbose.Printf("Preflight: %s found at %s", cmd, path)
			return nil
		}
		return errors.NewPreflightValidationError(cmd, hintFor(cmd))
	}

	if _, err := exec.LookPath(cmd); err == nil {
		return nil
	}
	if commandExistsInShell(cmd, shell) {
		verbose.Printf("Preflight: %s found as shell alias or function", cmd)
		return nil
	}

	verbose.Printf("Preflight ERROR: command %q not found", cmd)
	return errors.NewPreflightValidationError(cmd, hintFor(cmd))
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

// commandExistsInShell uses "command -v" to find aliases and functions that
// exec.LookPath cannot see.
func commandExistsInShell(cmd, shell string) bool {
	if runtime.GOOS == "windows" {
		return false
	}
	if shell == "" {
		shell = "sh"
	}
	return exec.Command(shell, "-c", "command -v "+cmd).Run() == nil
}

// GetResolutionHint returns the installation hint for a command, if any.
func GetResolutionHint(cmd string) string {
	return CommandResolutionHints[cmd]
}

func hintFor(cmd string) string {
	if hint := GetResolutionHint(cmd); hint != "" {
		return hint
	}
	if strings.ContainsRune(cmd, '/') {
		return fmt.Sprintf("Ensure %s exists in the working directory and is executable", cmd)
	}
	return ""
}
