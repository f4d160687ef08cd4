package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajxudir/releasewatch/pkg/catalog"
	"github.com/ajxudir/releasewatch/pkg/config"
	"github.com/ajxudir/releasewatch/pkg/errors"
	"github.com/ajxudir/releasewatch/pkg/preflight"
	"github.com/ajxudir/releasewatch/pkg/testutil"
	"github.com/ajxudir/releasewatch/pkg/update"
	"github.com/ajxudir/releasewatch/pkg/verbose"
)

const musl = "linux-x64-musl"

type cmdFixture struct {
	dir        string
	source     *testutil.FakeSource
	catalog    *testutil.FakeCatalog
	dispatcher *testutil.FakeDispatcher
	preflight  *preflight.Result
}

// setupCmd points the command factories at fakes and resets every flag.
func setupCmd(t *testing.T, supported []string, releases []string, entries ...catalog.Entry) *cmdFixture {
	t.Helper()

	for _, key := range []string{"RELEASEWATCH_ARTIFACT", "RELEASEWATCH_SKIP", "RELEASEWATCH_RELEASE_INDEX_URL", "RELEASEWATCH_ALTERNATE_INDEX_URL"} {
		t.Setenv(key, "")
	}

	f := &cmdFixture{
		dir:        t.TempDir(),
		source:     &testutil.FakeSource{Lines: testutil.Supported(supported...)},
		catalog:    &testutil.FakeCatalog{ReleaseList: testutil.Releases(releases...), EntryList: entries},
		dispatcher: &testutil.FakeDispatcher{},
		preflight:  &preflight.Result{},
	}

	oldSource, oldCatalog, oldDispatcher := newSourceFunc, newCatalogFunc, newDispatcherFunc
	oldPreflight, oldDotEnv, oldExit := preflightFunc, loadDotEnvFunc, exitFunc
	t.Cleanup(func() {
		newSourceFunc, newCatalogFunc, newDispatcherFunc = oldSource, oldCatalog, oldDispatcher
		preflightFunc, loadDotEnvFunc, exitFunc = oldPreflight, oldDotEnv, oldExit
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		verbose.Disable()
	})

	newSourceFunc = func(*config.Config) update.SupportedSource { return f.source }
	newCatalogFunc = func(*config.Config) update.CatalogSource { return f.catalog }
	newDispatcherFunc = func(*config.Config) update.Dispatcher { return f.dispatcher }
	preflightFunc = func(*config.Config, bool) *preflight.Result { return f.preflight }
	loadDotEnvFunc = func(string) error { return nil }

	verboseFlag = false
	versionFlag = false
	configFlag = ""
	dirFlag = f.dir
	artifactFlag = ""
	skipFlag = ""
	noTimeoutFlag = false
	checkFormatFlag = "table"
	updateDryRunFlag = false
	configInitForceFlag = false
	configShowDefaultFlag = false
	for _, name := range []string{"dir", "config", "artifact", "skip", "no-timeout", "verbose"} {
		rootCmd.PersistentFlags().Lookup(name).Changed = false
	}

	return f
}

// run executes the root command with args and returns stdout and stderr.
// The build tree directory comes from dirFlag as set by setupCmd.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	err := ExecuteTest(args...)
	return stdout.String(), stderr.String(), err
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	return lines[len(lines)-1]
}

// TestUpdateApprovesAllLines tests a fully qualified batch.
//
// It verifies:
//   - Every line is dispatched in line order
//   - Action and post-update output is echoed
//   - The final line is the comma-joined updated versions
func TestUpdateApprovesAllLines(t *testing.T) {
	f := setupCmd(t,
		[]string{"18", "18.0.0", "20", "20.0.0"},
		[]string{"v20.1.0", "v18.1.0", "v18.0.0"},
		testutil.Entry("v20.1.0", true, musl),
		testutil.Entry("v18.1.0", false, musl),
	)

	out, _, err := run(t, "update")
	require.NoError(t, err)
	assert.Equal(t, []string{"18.1.0", "20.1.0"}, f.dispatcher.Versions())
	assert.True(t, f.dispatcher.Dispatched[1].IsSecurity)
	assert.Contains(t, out, "updated 18 to 18.1.0")
	assert.Contains(t, out, "diff --git")
	assert.Equal(t, "18.1.0, 20.1.0", lastLine(out))
}

// TestUpdateNothingNewer tests the no-update message.
func TestUpdateNothingNewer(t *testing.T) {
	f := setupCmd(t, []string{"18", "18.1.0"}, []string{"v18.1.0", "v16.0.0"})

	out, _, err := run(t, "update")
	require.NoError(t, err)
	assert.Equal(t, "No new versions found. No update required.\n", out)
	assert.Empty(t, f.dispatcher.Dispatched)
	assert.Equal(t, 0, f.dispatcher.Finished)
	assert.Equal(t, 0, f.catalog.EntryCalls)
}

// TestUpdateBlockedBatch tests that a missing alternate build withholds every line.
//
// It verifies:
//   - Nothing is dispatched, including the ready line
//   - The diagnostic names the version and the line
//   - The command succeeds
func TestUpdateBlockedBatch(t *testing.T) {
	f := setupCmd(t,
		[]string{"18", "18.0.0", "20", "20.0.0"},
		[]string{"v18.1.0", "v20.1.0"},
		testutil.Entry("v18.1.0", false, musl),
		testutil.Entry("v20.1.0", false, "linux-x64"),
	)

	out, _, err := run(t, "update")
	require.NoError(t, err)
	assert.Empty(t, f.dispatcher.Dispatched)
	assert.Contains(t, out, "There's no musl build for version 20.1.0 yet.")
	assert.Contains(t, out, "blocked by line 20")
}

// TestUpdateActionFailure tests that a failing action aborts the batch.
//
// It verifies:
//   - Lines after the failing one are not dispatched
//   - Completed lines are reported on stderr
//   - The exit code is a partial failure
func TestUpdateActionFailure(t *testing.T) {
	f := setupCmd(t,
		[]string{"18", "18.0.0", "20", "20.0.0", "22", "22.0.0"},
		[]string{"v18.1.0", "v20.1.0", "v22.1.0"},
		testutil.Entry("v18.1.0", false, musl),
		testutil.Entry("v20.1.0", false, musl),
		testutil.Entry("v22.1.0", false, musl),
	)
	f.dispatcher.FailLine = "20"

	_, stderr, err := run(t, "update")
	require.Error(t, err)

	var actionErr *errors.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, "20", actionErr.Line)
	assert.Equal(t, []string{"18.1.0", "20.1.0"}, f.dispatcher.Versions())
	assert.Equal(t, 0, f.dispatcher.Finished)
	assert.Contains(t, stderr, "Updated before failure: 18.1.0")
	assert.Equal(t, errors.ExitPartialFailure, errors.GetExitCode(err))
}

// TestUpdateFirstActionFailure tests that failing before any update is a complete failure.
func TestUpdateFirstActionFailure(t *testing.T) {
	f := setupCmd(t, []string{"18", "18.0.0"}, []string{"v18.1.0"}, testutil.Entry("v18.1.0", false, musl))
	f.dispatcher.FailLine = "18"

	_, _, err := run(t, "update")
	require.Error(t, err)
	assert.Equal(t, errors.ExitFailure, errors.GetExitCode(err))
}

// TestUpdateDryRun tests that --dry-run dispatches nothing.
func TestUpdateDryRun(t *testing.T) {
	f := setupCmd(t, []string{"18", "18.0.0"}, []string{"v18.1.0"}, testutil.Entry("v18.1.0", false, musl))

	out, _, err := run(t, "update", "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, "Would update: 18.1.0\n", out)
	assert.Empty(t, f.dispatcher.Dispatched)
}

// TestUpdateParseErrorAborts tests that a malformed release record fails the run.
func TestUpdateParseErrorAborts(t *testing.T) {
	f := setupCmd(t, []string{"18", "18.0.0"}, []string{"v18.1.0", "not-a-version"}, testutil.Entry("v18.1.0", false, musl))

	_, _, err := run(t, "update")
	require.Error(t, err)
	assert.Equal(t, errors.ExitFailure, errors.GetExitCode(err))
	assert.Empty(t, f.dispatcher.Dispatched)
}

// TestUpdateArtifactOverrides tests the --artifact flag and environment override.
func TestUpdateArtifactOverrides(t *testing.T) {
	entries := []catalog.Entry{testutil.Entry("v18.1.0", false, "linux-arm64-musl")}

	t.Run("flag", func(t *testing.T) {
		f := setupCmd(t, []string{"18", "18.0.0"}, []string{"v18.1.0"}, entries...)
		out, _, err := run(t, "update", "--artifact", "linux-arm64-musl")
		require.NoError(t, err)
		assert.Equal(t, []string{"18.1.0"}, f.dispatcher.Versions())
		assert.Equal(t, "18.1.0", lastLine(out))
	})

	t.Run("environment", func(t *testing.T) {
		f := setupCmd(t, []string{"18", "18.0.0"}, []string{"v18.1.0"}, entries...)
		t.Setenv("RELEASEWATCH_ARTIFACT", "linux-arm64-musl")
		_, _, err := run(t, "update")
		require.NoError(t, err)
		assert.Equal(t, []string{"18.1.0"}, f.dispatcher.Versions())
	})

	t.Run("default blocks", func(t *testing.T) {
		f := setupCmd(t, []string{"18", "18.0.0"}, []string{"v18.1.0"}, entries...)
		out, _, err := run(t, "update")
		require.NoError(t, err)
		assert.Empty(t, f.dispatcher.Dispatched)
		assert.Contains(t, out, "There's no musl build")
	})
}

// TestUpdateSkipFlag tests that skipped releases are never proposed.
func TestUpdateSkipFlag(t *testing.T) {
	f := setupCmd(t, []string{"18", "18.0.0"}, []string{"v18.1.0"}, testutil.Entry("v18.1.0", false, musl))

	out, _, err := run(t, "update", "--skip", "18.1.0")
	require.NoError(t, err)
	assert.Contains(t, out, "No new versions found")
	assert.Empty(t, f.dispatcher.Dispatched)
}

// TestUpdatePreflightFailure tests that unresolved commands are a config error.
func TestUpdatePreflightFailure(t *testing.T) {
	f := setupCmd(t, []string{"18", "18.0.0"}, []string{"v18.1.0"}, testutil.Entry("v18.1.0", false, musl))
	f.preflight = &preflight.Result{
		Errors: []*errors.ValidationError{errors.NewPreflightValidationError("./update.sh", "chmod +x ./update.sh")},
	}

	_, _, err := run(t, "update")
	require.Error(t, err)
	assert.Equal(t, errors.ExitConfigError, errors.GetExitCode(err))
	assert.Empty(t, f.dispatcher.Dispatched)
	assert.Equal(t, 0, f.catalog.ReleaseCalls)
}

// TestInvalidConfigFile tests that config problems map to the config exit code.
func TestInvalidConfigFile(t *testing.T) {
	f := setupCmd(t, []string{"18", "18.0.0"}, nil)

	t.Run("unknown key", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(f.dir, config.FileName), []byte("artefact: linux-x64-musl\n"), 0o644))
		_, _, err := run(t, "check")
		require.Error(t, err)
		assert.Equal(t, errors.ExitConfigError, errors.GetExitCode(err))
	})

	t.Run("invalid values", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(f.dir, config.FileName), []byte("artifact: \"\"\ncatalog:\n  max_retries: -1\n"), 0o644))
		_, _, err := run(t, "check")
		require.Error(t, err)
		assert.Equal(t, errors.ExitConfigError, errors.GetExitCode(err))
		assert.Contains(t, err.Error(), "artifact")
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, _, err := run(t, "check", "--config", filepath.Join(f.dir, "missing.yml"))
		require.Error(t, err)
		assert.Equal(t, errors.ExitConfigError, errors.GetExitCode(err))
	})
}

// TestCheckTable tests the default table report.
func TestCheckTable(t *testing.T) {
	f := setupCmd(t,
		[]string{"18", "18.0.0", "20", "20.1.0"},
		[]string{"v18.1.0", "v20.1.0"},
		testutil.Entry("v18.1.0", true, musl),
	)

	out, _, err := run(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "LINE")
	assert.Contains(t, out, "18.1.0")
	assert.Contains(t, out, "1 line ready to update")
	assert.Empty(t, f.dispatcher.Dispatched)
}

// TestCheckJSONBlocked tests that a blocked batch is reported, not failed.
func TestCheckJSONBlocked(t *testing.T) {
	setupCmd(t,
		[]string{"18", "18.0.0", "20", "20.0.0"},
		[]string{"v18.1.0", "v20.1.0"},
		testutil.Entry("v18.1.0", false, musl),
	)

	out, _, err := run(t, "check", "--format", "json")
	require.NoError(t, err)

	var doc struct {
		Decision string `json:"decision"`
		Blocked  struct {
			Line    string `json:"line"`
			Version string `json:"version"`
		} `json:"blocked"`
		Lines []struct {
			Status string `json:"status"`
		} `json:"lines"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "no-update", doc.Decision)
	assert.Equal(t, "20", doc.Blocked.Line)
	assert.Equal(t, "20.1.0", doc.Blocked.Version)
	require.Len(t, doc.Lines, 2)
	assert.Equal(t, "Held", doc.Lines[0].Status)
	assert.Equal(t, "MissingArtifact", doc.Lines[1].Status)
}

// TestCheckInvalidFormat tests that an unknown format is rejected.
func TestCheckInvalidFormat(t *testing.T) {
	f := setupCmd(t, []string{"18", "18.0.0"}, nil)

	_, _, err := run(t, "check", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, 0, f.catalog.ReleaseCalls)
}

// TestConfigInit tests template creation and the overwrite guard.
func TestConfigInit(t *testing.T) {
	f := setupCmd(t, nil, nil)
	path := filepath.Join(f.dir, config.FileName)

	out, _, err := run(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.GetTemplateConfig(), string(data))

	_, _, err = run(t, "config", "init")
	require.Error(t, err)
	assert.Equal(t, errors.ExitConfigError, errors.GetExitCode(err))

	_, _, err = run(t, "config", "init", "--force")
	require.NoError(t, err)
}

// TestConfigShow tests the effective and default renderings.
func TestConfigShow(t *testing.T) {
	f := setupCmd(t, nil, nil)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, config.FileName), []byte("artifact: linux-arm64-musl\n"), 0o644))

	out, _, err := run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# source: ")
	assert.Contains(t, out, "artifact: linux-arm64-musl")
	assert.NotContains(t, out, "github_token")

	out, _, err = run(t, "config", "show", "--defaults")
	require.NoError(t, err)
	assert.Equal(t, config.GetDefaultConfig(), out)
}

// TestConfigValidate tests the validate subcommand.
func TestConfigValidate(t *testing.T) {
	f := setupCmd(t, nil, nil)

	out, _, err := run(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")

	f.preflight = &preflight.Result{
		Errors: []*errors.ValidationError{errors.NewPreflightValidationError("git", "install git")},
	}
	_, _, err = run(t, "config", "validate")
	require.Error(t, err)
	assert.Equal(t, errors.ExitConfigError, errors.GetExitCode(err))
}

// TestExecuteExitCodes tests that Execute maps errors to exit codes.
func TestExecuteExitCodes(t *testing.T) {
	f := setupCmd(t,
		[]string{"18", "18.0.0", "20", "20.0.0"},
		[]string{"v18.1.0", "v20.1.0"},
		testutil.Entry("v18.1.0", false, musl),
		testutil.Entry("v20.1.0", false, musl),
	)
	f.dispatcher.FailLine = "20"

	code := -1
	exitFunc = func(c int) { code = c }
	rootCmd.SetArgs([]string{"update", "--dir", f.dir})
	defer rootCmd.SetArgs(nil)

	stderr := testutil.CaptureStderr(t, func() {
		rootCmd.SetOut(&bytes.Buffer{})
		rootCmd.SetErr(&bytes.Buffer{})
		Execute()
	})
	assert.Equal(t, errors.ExitPartialFailure, code)
	assert.Contains(t, stderr, "update action for line 20")
}

// TestExecuteSuccessDoesNotExit tests that a successful run never calls exitFunc.
func TestExecuteSuccessDoesNotExit(t *testing.T) {
	f := setupCmd(t, []string{"18", "18.1.0"}, []string{"v18.1.0"})

	called := false
	exitFunc = func(int) { called = true }
	rootCmd.SetArgs([]string{"update", "--dir", f.dir})
	defer rootCmd.SetArgs(nil)

	stdout := testutil.CaptureStdout(t, func() {
		rootCmd.SetOut(nil)
		Execute()
	})
	assert.False(t, called)
	assert.Equal(t, "No new versions found. No update required.\n", stdout)
}

// TestWorkingDirPrecedence tests where the build tree directory comes from.
//
// It verifies:
//   - working_dir in the config file is kept when --dir is not given
//   - A relative working_dir resolves against the config file
//   - An explicit --dir replaces the file's working_dir
func TestWorkingDirPrecedence(t *testing.T) {
	f := setupCmd(t, []string{"18", "18.1.0"}, []string{"v18.1.0"})
	tree := t.TempDir()

	var seen string
	newSourceFunc = func(cfg *config.Config) update.SupportedSource {
		seen = cfg.WorkingDir
		return f.source
	}
	writeConfig := func(content string) {
		require.NoError(t, os.WriteFile(filepath.Join(f.dir, config.FileName), []byte(content), 0o644))
	}

	t.Run("file value without flag", func(t *testing.T) {
		writeConfig("working_dir: " + tree + "\n")
		_, _, err := run(t, "check")
		require.NoError(t, err)
		assert.Equal(t, tree, seen)
	})

	t.Run("relative file value", func(t *testing.T) {
		writeConfig("working_dir: docker-node\n")
		_, _, err := run(t, "check")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(f.dir, "docker-node"), seen)
	})

	t.Run("explicit flag wins", func(t *testing.T) {
		writeConfig("working_dir: " + tree + "\n")
		_, _, err := run(t, "check", "--dir", f.dir)
		require.NoError(t, err)
		assert.Equal(t, f.dir, seen)
		rootCmd.PersistentFlags().Lookup("dir").Changed = false
	})
}

// TestVerboseFlag tests that --verbose enables debug logging.
func TestVerboseFlag(t *testing.T) {
	setupCmd(t, []string{"18", "18.1.0"}, []string{"v18.1.0"})

	var logs bytes.Buffer
	restore := verbose.SetWriter(&logs)
	defer restore()

	_, _, err := run(t, "check", "--verbose")
	require.NoError(t, err)
	assert.True(t, verbose.IsEnabled())
	assert.Contains(t, logs.String(), "[DEBUG]")
}

// TestArtifactLabel tests the behavior of artifactLabel.
func TestArtifactLabel(t *testing.T) {
	assert.Equal(t, "musl", artifactLabel("linux-x64-musl"))
	assert.Equal(t, "armv6l", artifactLabel("linux-armv6l"))
	assert.Equal(t, "custom", artifactLabel("custom"))
	assert.Equal(t, "alternate", artifactLabel(""))
	assert.Equal(t, "trailing-", artifactLabel("trailing-"))
}
