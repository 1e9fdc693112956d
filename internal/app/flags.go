package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seoscope/seoscope/internal/flags"
	"github.com/seoscope/seoscope/internal/output"
)

var flagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "Show effective feature-flag values for the rule tree",
	Long: `Flags prints the resolved feature-flag values for every context, factor,
and operation in the rule tree, after applying the override chain from the
flag file (operation over factor over context over global over builtin).`,
	Args: cobra.NoArgs,
	RunE: runFlags,
}

func init() {
	rootCmd.AddCommand(flagsCmd)
}

// flagRow is one resolved node in the JSON rendering.
type flagRow struct {
	Context           string `json:"context"`
	Factor            string `json:"factor,omitempty"`
	Operation         string `json:"operation,omitempty"`
	Available         bool   `json:"available"`
	EnableSuggestions bool   `json:"enable_suggestions"`
	ExternalAPICall   bool   `json:"external_api_call"`
}

func runFlags(cmd *cobra.Command, args []string) error {
	env, closer, err := buildEnv()
	if err != nil {
		return err
	}
	defer closer()

	var rows []flagRow
	for _, cs := range env.registry {
		rows = append(rows, resolveRow(env.flagTable, "", "", cs.Name))
		for _, fs := range cs.Factors {
			rows = append(rows, resolveRow(env.flagTable, "", fs.Name, cs.Name))
			for _, op := range fs.Operations {
				rows = append(rows, resolveRow(env.flagTable, op.Descriptor().Name, fs.Name, cs.Name))
			}
		}
	}

	if flagJSON {
		return renderJSON(rows)
	}

	fmt.Println(output.Section("Feature flags"))
	table := output.NewTable("CONTEXT", "FACTOR", "OPERATION", "AVAILABLE", "SUGGESTIONS", "EXTERNAL API")
	for _, r := range rows {
		ctxLabel := r.Context
		if r.Factor != "" {
			ctxLabel = ""
		}
		factorLabel := r.Factor
		if r.Operation != "" {
			factorLabel = ""
		}
		table.AddRow(ctxLabel, factorLabel, r.Operation,
			onOff(r.Available), onOff(r.EnableSuggestions), onOff(r.ExternalAPICall))
	}
	table.Print()
	return nil
}

func resolveRow(t *flags.Table, operation, factor, context string) flagRow {
	return flagRow{
		Context:           context,
		Factor:            factor,
		Operation:         operation,
		Available:         t.Resolve(flags.Available, operation, factor, context),
		EnableSuggestions: t.Resolve(flags.EnableSuggestions, operation, factor, context),
		ExternalAPICall:   t.Resolve(flags.ExternalAPICall, operation, factor, context),
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return output.StyleMuted.Render("off")
}
