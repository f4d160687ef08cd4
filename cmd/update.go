package cmd

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajxudir/releasewatch/pkg/decision"
	"github.com/ajxudir/releasewatch/pkg/errors"
	"github.com/ajxudir/releasewatch/pkg/update"
	"github.com/ajxudir/releasewatch/pkg/verbose"
)

var updateDryRunFlag bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Run the update action for every line with a newer release",
	Long: `Find newer releases for every supported line and, when the required
alternate build exists for all of them, run the configured update commands
once per line followed by the post-update commands. If any line is still
missing its alternate build nothing is updated and the command exits 0.`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&updateDryRunFlag, "dry-run", false, "Show the lines that would be updated without running anything")
}

// runUpdate executes the update command.
//
// It performs the following operations:
//   - Step 1: Loads configuration and resolves every configured command
//   - Step 2: Evaluates the decision and dispatches approved lines in order,
//     echoing each action's output as it completes
//   - Step 3: Prints the post-update output and the comma-joined versions
//
// A blocked batch prints a diagnostic and returns nil. An action failure
// returns an *errors.ActionError after reporting the lines already updated.
//
// Returns:
//   - error: Config, preflight, fetch, parse or action errors
func runUpdate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := runPreflight(cfg, !updateDryRunFlag); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	out := cmd.OutOrStdout()

	if updateDryRunFlag {
		report, err := update.Check(ctx, newOptions(cfg, false))
		if err != nil {
			return err
		}
		if report.Blocked != nil {
			printBlocked(out, report.Blocked)
			return nil
		}
		if !report.HasUpdates() {
			_, _ = fmt.Fprintln(out, "No new versions found. No update required.")
			return nil
		}
		_, _ = fmt.Fprintf(out, "Would update: %s\n", strings.Join(report.Decision.Versions(), ", "))
		return nil
	}

	opts := newOptions(cfg, true)
	opts.OnAction = func(a update.Action) {
		if s := strings.TrimRight(a.Output, "\n"); s != "" {
			_, _ = fmt.Fprintln(out, s)
		}
	}

	result, err := update.Run(ctx, opts)
	var mae *errors.MissingArtifactError
	if stderrors.As(err, &mae) {
		printBlocked(out, mae)
		return nil
	}
	if err != nil {
		var actionErr *errors.ActionError
		if stderrors.As(err, &actionErr) && len(actionErr.Completed) > 0 {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Updated before failure: %s\n", strings.Join(actionErr.Completed, ", "))
		}
		return err
	}

	if result.Decision.Kind == decision.NoUpdate {
		_, _ = fmt.Fprintln(out, "No new versions found. No update required.")
		return nil
	}

	if s := strings.TrimRight(result.PostOutput, "\n"); s != "" {
		_, _ = fmt.Fprintln(out, s)
	}
	verbose.Infof("Updated %d line(s)", len(result.Actions))
	_, _ = fmt.Fprintln(out, result.Summary())
	return nil
}

// printBlocked reports a batch withheld for a missing alternate build.
func printBlocked(w io.Writer, mae *errors.MissingArtifactError) {
	_, _ = fmt.Fprintf(w, "There's no %s build for version %s yet.\n", artifactLabel(mae.Artifact), mae.Version)
	_, _ = fmt.Fprintf(w, "No lines were updated (blocked by line %s).\n", mae.Line)
}

// artifactLabel shortens an artifact tag to its variant, e.g.
// "linux-x64-musl" to "musl".
func artifactLabel(artifact string) string {
	if artifact == "" {
		return "alternate"
	}
	if i := strings.LastIndex(artifact, "-"); i >= 0 && i < len(artifact)-1 {
		return artifact[i+1:]
	}
	return artifact
}
