package preflight

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajxudir/releasewatch/pkg/config"
	"github.com/ajxudir/releasewatch/pkg/errors"
)

// TestExtractCommands tests the behavior of command extraction.
//
// It verifies:
//   - Leading words of lines and segments are returned once each
//   - Builtins, comments and placeholders are skipped
func TestExtractCommands(t *testing.T) {
	tests := []struct {
		name     string
		commands string
		want     []string
	}{
		{name: "update script", commands: "./update.sh {{security_flag}} {{line}}", want: []string{"./update.sh"}},
		{name: "sourced helper", commands: ". ./utils.sh && get_versions", want: []string{"get_versions"}},
		{name: "pipeline", commands: "git diff |\ncat", want: []string{"git", "cat"}},
		{name: "sequential duplicates", commands: "git diff\ngit status", want: []string{"git"}},
		{name: "comments", commands: "# show\ngit diff", want: []string{"git"}},
		{name: "env assignment", commands: "FOO=1 ./update.sh", want: nil},
		{name: "placeholder command", commands: "{{tool}} run", want: nil},
		{name: "empty", commands: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractCommands(tt.commands))
		})
	}
}

// TestValidateCommand tests the behavior of command validation.
func TestValidateCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	if err := validateCommand("sh", "", ""); err != nil {
		t.Errorf("validateCommand(sh) = %v, want nil", err)
	}

	err := validateCommand("this_command_definitely_does_not_exist_12345", "", "")
	if err == nil {
		t.Fatal("validateCommand() expected error for non-existent command")
	}
	if err.Command != "this_command_definitely_does_not_exist_12345" {
		t.Errorf("error command = %s", err.Command)
	}
}

// TestValidateRelativeScript tests that ./update.sh is resolved against the working dir.
//
// It verifies:
//   - A missing script is reported with a hint
//   - A non-executable script is reported
//   - An executable script passes
func TestValidateRelativeScript(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on Windows")
	}
	dir := t.TempDir()
	cfg := config.Default()
	cfg.WorkingDir = dir
	cfg.Update.PostCommands = ""

	result := Validate(cfg, true)
	require.True(t, result.HasErrors())
	assert.Equal(t, "./update.sh", result.Errors[0].Command)
	assert.Contains(t, result.Errors[0].Error(), "chmod +x")
	assert.Equal(t, errors.ValidationCategoryPreflight, result.Errors[0].Category)

	script := filepath.Join(dir, "update.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"), 0o644))
	assert.True(t, Validate(cfg, true).HasErrors())

	require.NoError(t, os.Chmod(script, 0o755))
	result = Validate(cfg, true)
	assert.False(t, result.HasErrors(), result.ErrorMessage())
	assert.Equal(t, []string{"./update.sh"}, result.Checked)
}

// TestValidateSkipsUpdateCommands tests check-only validation.
func TestValidateSkipsUpdateCommands(t *testing.T) {
	cfg := config.Default()
	cfg.WorkingDir = t.TempDir()

	result := Validate(cfg, false)
	assert.False(t, result.HasErrors())
	assert.Empty(t, result.Checked)
	assert.NoError(t, result.Err())
	assert.Empty(t, result.ErrorMessage())
}

// TestValidateDetectsMissingCommands tests that every missing command is reported.
func TestValidateDetectsMissingCommands(t *testing.T) {
	cfg := config.Default()
	cfg.WorkingDir = t.TempDir()
	cfg.Update.Commands = "nonexistent_command_xyz_12345 {{line}}"
	cfg.Update.PostCommands = "another_nonexistent_cmd_67890"

	result := Validate(cfg, true)
	if len(result.Errors) != 2 {
		t.Fatalf("Validate() should detect 2 missing commands, got %d", len(result.Errors))
	}
	if result.ErrorMessage() == "" {
		t.Error("ErrorMessage() should not be empty when there are errors")
	}
	err := result.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent_command_xyz_12345")
	assert.Contains(t, err.Error(), "another_nonexistent_cmd_67890")
}

// TestGetResolutionHint tests the behavior of resolution hint lookup.
//
// It verifies:
//   - Known commands have a hint and unknown ones do not
//   - A missing command reports its known hint
//   - Path commands without a known hint get a generic one
func TestGetResolutionHint(t *testing.T) {
	if GetResolutionHint("git") == "" {
		t.Error("GetResolutionHint(git) returned empty string")
	}
	if hint := GetResolutionHint("unknown_command"); hint != "" {
		t.Errorf("GetResolutionHint(unknown_command) = %s, want empty string", hint)
	}
	assert.Equal(t, GetResolutionHint("./update.sh"), hintFor("./update.sh"))
	assert.Contains(t, hintFor("./other.sh"), "executable")
	assert.Empty(t, hintFor("unknown_command"))
}
