package app

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/seoscope/seoscope/internal/batch"
	"github.com/seoscope/seoscope/internal/logger"
	"github.com/seoscope/seoscope/internal/output"
	"github.com/seoscope/seoscope/internal/store"
)

var (
	batchFlagForce bool
	batchFlagMax   int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze all registered pages in paced chunks",
	Long: `Batch walks every page registered in the config, analyzing and storing
each in turn. Work is paced in small chunks with a configurable delay so a
scheduled run stays gentle on the target site. Pages analyzed within the
skip window are left untouched unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().BoolVar(&batchFlagForce, "force", false, "Re-analyze pages even when a recent result exists")
	batchCmd.Flags().IntVar(&batchFlagMax, "max", 0, "Cap the number of pages processed (0 = config default)")

	rootCmd.AddCommand(batchCmd)
}

// storeMetaReader adapts the sqlite post-meta rows to the runner's view.
type storeMetaReader struct {
	db *store.DB
}

func (r storeMetaReader) PostMeta(ctx context.Context, postID int64) (*batch.MetaRow, error) {
	row, err := r.db.PostMeta(ctx, postID)
	if err != nil || row == nil {
		return nil, err
	}
	return &batch.MetaRow{
		PostID:     row.PostID,
		Score:      row.Score,
		AnalyzedAt: row.AnalyzedAt,
	}, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	env, closer, err := buildEnv()
	if err != nil {
		return err
	}
	defer closer()

	ids := env.pageIDs()
	if len(ids) == 0 {
		return fmt.Errorf("no pages registered; add pages to the config file")
	}

	opts := batch.Options{
		ChunkSize: env.cfg.Batch.ChunkSize,
		Delay:     env.batchDelay(),
		MaxPosts:  env.cfg.Batch.MaxPosts,
	}
	if !batchFlagForce {
		opts.SkipWithin = time.Duration(env.cfg.Batch.SkipWithinHours) * time.Hour
	}
	if batchFlagMax > 0 {
		opts.MaxPosts = batchFlagMax
	}

	runner := batch.NewRunner(opts, storeMetaReader{db: env.db}, env.newOptimiser, env.log)
	sum := runner.Run(logger.WithContext(cmd.Context(), env.log), ids)

	if flagJSON {
		return renderJSON(sum)
	}
	fmt.Println(output.Section("Batch run complete"))
	fmt.Printf(" analyzed: %s  skipped: %s  failed: %s\n",
		output.StyleSuccess.Render(fmt.Sprintf("%d", sum.Analyzed)),
		output.StyleMuted.Render(fmt.Sprintf("%d", sum.Skipped)),
		output.StyleError.Render(fmt.Sprintf("%d", sum.Failed)),
	)
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d pages failed", sum.Failed, len(ids))
	}
	return nil
}
