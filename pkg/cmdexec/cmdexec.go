// Package cmdexec runs the shell commands releasewatch is configured with:
// the per-line update action, the post-update commands and the optional
// build-tree queries.
//
// Commands are a multiline string. Each non-empty line runs in order; lines
// ending with | or \ continue onto the next one. {{key}} placeholders are
// replaced with shell-escaped values before anything runs.
package cmdexec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/ajxudir/releasewatch/pkg/verbose"
	"github.com/ajxudir/releasewatch/pkg/warnings"
)

// Request describes one command run.
//
// Fields:
//   - Commands: Multiline command string with optional {{key}} placeholders
//   - Env: Extra environment variables; values may reference $VARS
//   - Dir: Working directory; empty uses the current directory
//   - Timeout: Limit for each command line; zero disables the limit
//   - Replacements: Placeholder values, shell-escaped on substitution
//   - Shell: Shell invoked with -c; empty uses the platform default
type Request struct {
	Commands     string
	Env          map[string]string
	Dir          string
	Timeout      time.Duration
	Replacements map[string]string
	Shell        string
}

// waitDelay bounds how long Run waits for output pipes after the process
// group was killed.
const waitDelay = 2 * time.Second

// RunFunc is the signature of Run.
type RunFunc func(ctx context.Context, req Request) ([]byte, error)

// Run executes a Request and returns the stdout of every command line,
// concatenated in order. It can be replaced in tests.
var Run RunFunc = run

// CommandError reports a command line that exited unsuccessfully.
//
// Fields:
//   - Command: The rendered command line
//   - Stderr: Trimmed stderr, or stdout when stderr was empty
//   - Err: The underlying exec error
type CommandError struct {
	Command string
	Stderr  string
	Err     error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

// Unwrap returns the underlying exec error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// run executes each command line of req in sequence.
//
// It performs the following operations:
//   - Step 1: Renders placeholders with Render
//   - Step 2: Splits the result into lines with Lines
//   - Step 3: Runs each line through the shell, stopping at the first failure
//
// Parameters:
//   - ctx: Cancels the run; checked before each line
//   - req: The commands to run
//
// Returns:
//   - []byte: Stdout of all completed lines
//   - error: *CommandError, a timeout error, or ctx.Err()
func run(ctx context.Context, req Request) ([]byte, error) {
	if strings.TrimSpace(req.Commands) == "" {
		return nil, fmt.Errorf("no commands provided")
	}

	environ := buildEnviron(req.Env)

	var out bytes.Buffer
	for _, line := range Lines(Render(req.Commands, req.Replacements)) {
		if err := ctx.Err(); err != nil {
			return out.Bytes(), err
		}
		verbose.CommandExec(line, req.Dir)
		stdout, err := runLine(ctx, req.Shell, line, environ, req.Dir, req.Timeout)
		out.Write(stdout)
		verbose.CommandResult(line, err, string(stdout))
		if err != nil {
			return out.Bytes(), err
		}
	}
	return out.Bytes(), nil
}

// Render substitutes {{key}} placeholders in commands.
//
// Values are shell-escaped. An empty value removes its placeholder so that
// optional flags such as {{security_flag}} disappear instead of becoming ''.
// Keys are applied in sorted order so the result does not depend on map
// iteration.
//
// Parameters:
//   - commands: Command template
//   - replacements: Placeholder values keyed without braces
//
// Returns:
//   - string: The rendered commands
func Render(commands string, replacements map[string]string) string {
	keys := make([]string, 0, len(replacements))
	for k := range replacements {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := commands
	for _, key := range keys {
		value := replacements[key]
		escaped := ""
		if value != "" {
			escaped = shellEscape(value)
		}
		result = strings.ReplaceAll(result, "{{"+key+"}}", escaped)
	}
	return result
}

// Lines splits a multiline command string into executable lines.
//
// Lines ending with \ are joined with a space. Lines ending with | are joined
// into one pipeline. Blank lines and lines starting with # are dropped.
//
// Parameters:
//   - commands: Multiline command string
//
// Returns:
//   - []string: One entry per shell invocation
func Lines(commands string) []string {
	normalized := strings.ReplaceAll(commands, "\r\n", "\n")

	var result []string
	var pending strings.Builder
	for _, raw := range strings.Split(normalized, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || (pending.Len() == 0 && strings.HasPrefix(trimmed, "#")) {
			continue
		}

		if strings.HasSuffix(trimmed, "\\") {
			pending.WriteString(strings.TrimSuffix(trimmed, "\\"))
			pending.WriteString(" ")
			continue
		}
		if strings.HasSuffix(trimmed, "|") {
			pending.WriteString(trimmed)
			pending.WriteString(" ")
			continue
		}

		pending.WriteString(trimmed)
		result = append(result, strings.TrimSpace(pending.String()))
		pending.Reset()
	}

	if rest := strings.TrimSuffix(strings.TrimSpace(pending.String()), "|"); strings.TrimSpace(rest) != "" {
		result = append(result, strings.TrimSpace(rest))
	}
	return result
}

// runLine runs a single command line through the shell in its own process
// group. On timeout or cancellation the whole group is killed.
func runLine(ctx context.Context, shellOverride, line string, environ []string, dir string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shell, args := shellCommand()
	if shellOverride != "" {
		shell, args = shellOverride, []string{"-c"}
	}
	cmd := exec.CommandContext(ctx, shell, append(args, line)...)
	cmd.Env = environ
	if dir != "" {
		cmd.Dir = dir
	}
	setProcGroup(cmd)
	cmd.Cancel = func() error { return killProcGroup(cmd) }
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded && timeout > 0 {
			warnings.Warnf("Warning: %s timed out after %s\n", line, timeout)
			return stdout.Bytes(), fmt.Errorf("%s: command timed out after %s", line, timeout)
		}

		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		return stdout.Bytes(), &CommandError{Command: line, Stderr: msg, Err: err}
	}

	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		verbose.Printf("stderr from %s: %s", line, msg)
	}
	return stdout.Bytes(), nil
}

// buildEnviron appends env to the process environment, expanding $VAR
// references in values. Keys are applied in sorted order.
func buildEnviron(env map[string]string) []string {
	environ := os.Environ()
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		environ = append(environ, fmt.Sprintf("%s=%s", k, os.ExpandEnv(env[k])))
	}
	return environ
}

// shellEscape quotes s for safe use as one shell word. Strings made only of
// safe characters are returned unchanged.
func shellEscape(s string) string {
	safe := true
	for _, r := range s {
		if !isShellSafe(r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// isShellSafe reports whether r can appear unquoted in a shell word.
func isShellSafe(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		r == '-' || r == '_' || r == '.' ||
		r == '/' || r == '@' || r == ':' ||
		r == '+' || r == '='
}

// BuildReplacements creates the placeholder values for one update action.
//
// Parameters:
//   - line: Major line id, used for {{line}}
//   - version: Target version, used for {{version}}
//   - security: Sets {{security}} to "true"/"false" and {{security_flag}}
//     to "-s" or empty
//
// Returns:
//   - map[string]string: Placeholder values for Render
func BuildReplacements(line, version string, security bool) map[string]string {
	flag := ""
	if security {
		flag = "-s"
	}
	return map[string]string{
		"line":          line,
		"version":       version,
		"security":      fmt.Sprintf("%t", security),
		"security_flag": flag,
	}
}
