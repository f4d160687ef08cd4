package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ajxudir/releasewatch/pkg/config"
	"github.com/ajxudir/releasewatch/pkg/errors"
)

var (
	configInitForceFlag   bool
	configShowDefaultFlag bool
)

var writeFileFunc = os.WriteFile

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create configuration",
	Long:  `Show the effective configuration or create a ` + config.FileName + ` template.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a " + config.FileName + " template in the build tree directory",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and resolve the configured commands",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForceFlag, "force", false, "Overwrite an existing file")
	configShowCmd.Flags().BoolVar(&configShowDefaultFlag, "defaults", false, "Show the built-in defaults instead")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

// runConfigInit writes the annotated template to <dir>/.releasewatch.yml.
//
// Returns:
//   - error: When the file exists and --force is not set, or the write fails
func runConfigInit(cmd *cobra.Command, args []string) error {
	path := filepath.Join(dirFlag, config.FileName)
	if _, err := os.Stat(path); err == nil && !configInitForceFlag {
		return errors.NewExitErrorf(errors.ExitConfigError, "%s already exists (use --force to overwrite)", path)
	}

	if err := writeFileFunc(path, []byte(config.GetTemplateConfig()), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}

// runConfigShow prints the effective or default configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if configShowDefaultFlag {
		_, _ = fmt.Fprint(out, config.GetDefaultConfig())
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rendered, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	if cfg.SourcePath != "" {
		_, _ = fmt.Fprintf(out, "# source: %s\n", cfg.SourcePath)
	}
	_, _ = fmt.Fprint(out, rendered)
	return nil
}

// runConfigValidate loads the configuration and runs the full preflight.
func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := runPreflight(cfg, true); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
	return nil
}
