package app

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/seoscope/seoscope/internal/engine"
	"github.com/seoscope/seoscope/internal/logger"
)

var reportCmd = &cobra.Command{
	Use:   "report <post-id>",
	Short: "Show the stored analysis for a page",
	Long: `Report loads the most recent stored analysis for a page and prints it
without re-fetching or re-evaluating anything. Run 'seoscope analyze'
first if the page has never been analyzed.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	postID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid post id %q", args[0])
	}

	env, closer, err := buildEnv()
	if err != nil {
		return err
	}
	defer closer()

	ctx := logger.WithContext(cmd.Context(), env.log)
	opt := env.newOptimiser(postID)

	found, err := opt.LoadPersisted(ctx)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no stored analysis for post %d; run 'seoscope analyze %d' first", postID, postID)
	}

	rep := engine.BuildReport(ctx, opt)
	if flagJSON {
		return renderJSON(rep)
	}
	renderReport(rep, false)
	return nil
}
