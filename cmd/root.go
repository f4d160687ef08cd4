// Package cmd implements the command-line interface for releasewatch.
// It provides commands for checking upstream runtime releases against the
// versions a build tree currently targets and for dispatching the update
// action when every new release is ready.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajxudir/releasewatch/pkg/buildtree"
	"github.com/ajxudir/releasewatch/pkg/catalog"
	"github.com/ajxudir/releasewatch/pkg/config"
	"github.com/ajxudir/releasewatch/pkg/errors"
	"github.com/ajxudir/releasewatch/pkg/preflight"
	"github.com/ajxudir/releasewatch/pkg/update"
	"github.com/ajxudir/releasewatch/pkg/verbose"
)

var exitFunc = os.Exit

var (
	verboseFlag   bool
	versionFlag   bool
	configFlag    string
	dirFlag       string
	artifactFlag  string
	skipFlag      string
	noTimeoutFlag bool
)

// Collaborator factories. Tests replace them with fakes.
var (
	newSourceFunc = func(cfg *config.Config) update.SupportedSource {
		return buildtree.New(cfg)
	}
	newCatalogFunc = func(cfg *config.Config) update.CatalogSource {
		return catalog.NewClient(catalog.Options{
			ReleaseIndexURL:   cfg.Catalog.ReleaseIndexURL,
			AlternateIndexURL: cfg.Catalog.AlternateIndexURL,
			UserAgent:         catalog.UserAgent(Version),
			Token:             cfg.GitHubToken,
			Timeout:           cfg.CatalogTimeout(),
			MaxRetries:        cfg.Catalog.MaxRetries,
		}, nil)
	}
	newDispatcherFunc = func(cfg *config.Config) update.Dispatcher {
		return update.NewCommandDispatcher(cfg)
	}
	preflightFunc  = preflight.Validate
	loadDotEnvFunc = config.LoadDotEnv
)

var rootCmd = &cobra.Command{
	Use:   "releasewatch",
	Short: "Detect new runtime releases for a container build tree",
	Long: `Compare the runtime versions a build tree targets against the upstream
release indexes and run the update action for every major line once the
required alternate build exists for all of them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verboseFlag {
			verbose.Enable()
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if versionFlag {
			runVersion(cmd, args)
			return
		}
		_ = cmd.Help()
	},
}

// Execute runs the root command and exits with appropriate code:
//   - 0: Success, nothing to do, or the batch is waiting on an alternate build
//   - 1: Partial failure (some lines were updated before an action failed)
//   - 2: Complete failure
//   - 3: Configuration or preflight error
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		code := errors.GetExitCode(err)
		errors.PrintError(os.Stderr, err, verboseFlag)
		verbose.Infof("Exit code %d: %v", code, err)
		exitFunc(code)
	}
}

// ExecuteTest runs the root command for testing (returns error instead of exiting).
//
// Parameters:
//   - args: Command line arguments without the program name
//
// Returns:
//   - error: Command execution error, or nil on success
func ExecuteTest(args ...string) error {
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&verboseFlag, "verbose", false, "Enable verbose debug output")
	pf.StringVarP(&configFlag, "config", "c", "", "Config file path (default: <dir>/"+config.FileName+")")
	pf.StringVarP(&dirFlag, "dir", "d", ".", "Build tree repository directory")
	pf.StringVar(&artifactFlag, "artifact", "", "Required alternate build artifact (overrides config)")
	pf.StringVar(&skipFlag, "skip", "", "Semver constraint of releases to ignore (overrides config)")
	pf.BoolVar(&noTimeoutFlag, "no-timeout", false, "Disable the update command timeout")

	// Local so it only applies to the root command.
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "v", false, "Show version information")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(updateCmd)
}

// loadConfig builds the effective configuration for a command.
//
// It performs the following operations:
//   - Step 1: Loads <dir>/.env into the environment when present
//   - Step 2: Loads the config file over the embedded defaults
//   - Step 3: Applies RELEASEWATCH_* environment overrides, then flags; an
//     explicit --dir replaces the file's working_dir
//   - Step 4: Validates the result
//
// Returns:
//   - *config.Config: The effective configuration
//   - error: An ExitError with ExitConfigError on any failure
func loadConfig() (*config.Config, error) {
	workDir := dirFlag
	if workDir == "" {
		workDir = "."
	}

	if err := loadDotEnvFunc(workDir); err != nil {
		return nil, errors.NewExitError(errors.ExitConfigError, err)
	}

	cfg, err := config.Load(configFlag, workDir)
	if err != nil {
		return nil, errors.NewExitError(errors.ExitConfigError, err)
	}

	config.ApplyEnv(cfg, config.NewEnv())
	applyFlags(cfg)

	if err := config.Validate(cfg); err != nil {
		verbose.Infof("Exit code %d (config error): %v", errors.ExitConfigError, err)
		return nil, errors.NewExitError(errors.ExitConfigError, err)
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config) {
	if rootCmd.PersistentFlags().Changed("dir") && dirFlag != "" {
		cfg.WorkingDir = dirFlag
	}
	if artifactFlag != "" {
		cfg.Artifact = artifactFlag
	}
	if skipFlag != "" {
		cfg.Catalog.Skip = skipFlag
	}
	if noTimeoutFlag {
		cfg.NoTimeout = true
	}
}

// runPreflight resolves the configured commands before anything runs.
func runPreflight(cfg *config.Config, includeUpdate bool) error {
	result := preflightFunc(cfg, includeUpdate)
	if !result.HasErrors() {
		return nil
	}
	verbose.Printf("%s", result.ErrorMessage())
	return errors.NewExitError(errors.ExitConfigError, fmt.Errorf("preflight: %w", result.Err()))
}

// newOptions wires the collaborators for cfg.
func newOptions(cfg *config.Config, withDispatcher bool) update.Options {
	opts := update.Options{
		Config:  cfg,
		Source:  newSourceFunc(cfg),
		Catalog: newCatalogFunc(cfg),
	}
	if withDispatcher {
		opts.Dispatcher = newDispatcherFunc(cfg)
	}
	return opts
}
