package app

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/seoscope/seoscope/internal/engine"
	"github.com/seoscope/seoscope/internal/logger"
	"github.com/seoscope/seoscope/internal/export"
)

var exportFlagOut string

var exportCmd = &cobra.Command{
	Use:   "export <post-id>",
	Short: "Export a stored analysis as CSV",
	Long: `Export flattens the stored analysis tree for a page into CSV rows, one
row per operation suggestion. Writes to stdout unless --out is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFlagOut, "out", "o", "", "Write CSV to a file instead of stdout")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
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

	out := os.Stdout
	if exportFlagOut != "" {
		f, err := os.Create(exportFlagOut)
		if err != nil {
			return fmt.Errorf("creating %s: %w", exportFlagOut, err)
		}
		defer f.Close()
		out = f
	}
	if err := export.WriteCSV(out, rep); err != nil {
		return err
	}
	if exportFlagOut != "" {
		fmt.Fprintf(os.Stderr, "wrote %s\n", exportFlagOut)
	}
	return nil
}
