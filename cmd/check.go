package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conneroisu/pages/internal/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report problems in the effective configuration",
	Long: `Resolve the configuration the workflows would use and report settings that
are likely mistakes. Workflows never run these checks themselves.

Examples:
  pages check
  pages check --config site.yaml`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	result := config.Validate(a.cfg, a.dir)
	if !result.HasErrors() && !result.HasWarnings() {
		color.New(color.FgGreen).Fprintln(out, "✓ configuration looks good")
		return nil
	}
	fmt.Fprint(out, result.String())
	if result.HasErrors() {
		return fmt.Errorf("configuration has %d error(s)", len(result.Errors))
	}
	return nil
}
