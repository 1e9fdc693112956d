package app

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/seoscope/seoscope/internal/engine"
	"github.com/seoscope/seoscope/internal/logger"
	"github.com/seoscope/seoscope/internal/output"
)

var (
	analyzeFlagContexts   []string
	analyzeFlagFactors    []string
	analyzeFlagOperations []string
	analyzeFlagJSON       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <post-id>",
	Short: "Run a full or partial analysis for one page",
	Long: `Analyze evaluates the full rule tree for one registered page, stores the
result tree (replacing any prior analysis for that page), and prints the
score and suggestion report.

With --context, --factor, or --operation filters only the selected subtree
is evaluated and nothing is persisted; use this for targeted re-checks.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringSliceVar(&analyzeFlagContexts, "context", nil, "Limit to named contexts (partial analysis, no save)")
	analyzeCmd.Flags().StringSliceVar(&analyzeFlagFactors, "factor", nil, "Limit to named factors (partial analysis, no save)")
	analyzeCmd.Flags().StringSliceVar(&analyzeFlagOperations, "operation", nil, "Limit to named operations (partial analysis, no save)")
	analyzeCmd.Flags().BoolVar(&analyzeFlagJSON, "json", false, "Output as JSON")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	partial := len(analyzeFlagContexts) > 0 || len(analyzeFlagFactors) > 0 || len(analyzeFlagOperations) > 0
	if partial {
		opt.AnalyzePartial(ctx, engine.Filter{
			Contexts:   analyzeFlagContexts,
			Factors:    analyzeFlagFactors,
			Operations: analyzeFlagOperations,
		})
	} else {
		if err := opt.AnalyzeAndStore(ctx); err != nil {
			return err
		}
	}

	rep := engine.BuildReport(ctx, opt)
	if analyzeFlagJSON || flagJSON {
		return renderJSON(rep)
	}
	renderReport(rep, partial)
	return nil
}

func renderJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderReport prints the human-readable score and suggestion breakdown.
func renderReport(rep *engine.Report, partial bool) {
	title := fmt.Sprintf("Post %d", rep.Post.ID)
	if rep.Post.Title != "" {
		title = rep.Post.Title
	}
	fmt.Println(output.Section(title))
	if rep.Post.URL != "" {
		fmt.Printf(" %s\n", output.StyleMuted.Render(rep.Post.URL))
	}
	if partial {
		fmt.Printf(" %s\n", output.StyleWarning.Render("partial analysis (not persisted)"))
	}
	fmt.Printf("\n %s\n\n", output.ScoreBar(rep.Score, 30))

	table := output.NewTable("CONTEXT", "FACTOR", "OPERATION", "SCORE").AlignRight(3)
	for _, c := range rep.Contexts {
		table.AddRow(c.Name, "", "", fmt.Sprintf("%.2f", c.Score))
		for _, f := range c.Factors {
			table.AddRow("", f.Name, "", fmt.Sprintf("%.2f", f.Score))
			for _, op := range f.Operations {
				table.AddRow("", "", op.Name, fmt.Sprintf("%.2f", op.Score))
			}
		}
	}
	table.Print()

	fmt.Println(output.Section(fmt.Sprintf("Suggestions (%d found, showing top %d)",
		rep.TotalSuggestionsCount, len(rep.TopSuggestions))))
	if len(rep.TopSuggestions) == 0 {
		fmt.Printf(" %s\n", output.StyleSuccess.Render("no issues found"))
		return
	}
	st := output.NewTable("PRIORITY", "CATEGORY", "SUGGESTION")
	for _, s := range rep.TopSuggestions {
		title := s.Title
		if s.Keyword != "" {
			title = fmt.Sprintf("%s (%s)", title, s.Keyword)
		}
		st.AddRow(output.PriorityLabel(s.Priority), s.Category, title)
	}
	st.Print()
}
