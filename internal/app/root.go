// Package app contains the Cobra command tree for seoscope.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "seoscope",
	Short: "On-page SEO scoring for registered pages",
	Long: `seoscope analyzes on-page SEO signals for registered pages and produces
a weighted 0-100 score plus ranked, actionable suggestions. Rules are
organized into a Context -> Factor -> Operation tree; every node is
independently weighted and can be toggled through the feature-flag table.

Run 'seoscope' with no arguments to see the command overview.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("seoscope", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  analyze   Run a full or partial analysis for one page")
		fmt.Println("  batch     Analyze all registered pages in paced chunks")
		fmt.Println("  report    Show the stored analysis for a page")
		fmt.Println("  export    Export a stored analysis as CSV")
		fmt.Println("  flags     Show effective feature-flag values")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/seoscope/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose output")
}
