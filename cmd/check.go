package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ajxudir/releasewatch/pkg/output"
	"github.com/ajxudir/releasewatch/pkg/update"
)

var checkFormatFlag string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report which lines have newer releases",
	Long: `Compare every supported line against the release indexes and report the
decision without running the update action. A batch waiting on an alternate
build is reported, not treated as a failure.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkFormatFlag, "format", "f", "table", "Output format: table, json or csv")
}

// runCheck executes the check command.
//
// It performs the following operations:
//   - Step 1: Parses the output format and loads configuration
//   - Step 2: Resolves the build tree commands
//   - Step 3: Evaluates the decision and renders the report
//
// Returns:
//   - error: Config, preflight, fetch or parse errors
func runCheck(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(checkFormatFlag)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := runPreflight(cfg, false); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	report, err := update.Check(ctx, newOptions(cfg, false))
	if err != nil {
		return err
	}
	return output.WriteReport(cmd.OutOrStdout(), format, report)
}
