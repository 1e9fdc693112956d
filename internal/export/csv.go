// Package export flattens a report's context→factor→operation→suggestion
// hierarchy into a tabular form for diagnostics and documentation.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/seoscope/seoscope/internal/engine"
)

// Header is the flattened column set.
var Header = []string{
	"context", "context_score",
	"factor", "factor_score",
	"operation", "operation_score", "operation_success",
	"suggestion_code", "priority", "category", "title",
}

// Rows flattens the report. Parent labels appear only on the first row of
// their subtree so repeated groups stay readable.
func Rows(rep *engine.Report) [][]string {
	var rows [][]string

	for _, c := range rep.Contexts {
		contextShown := false
		for _, f := range c.Factors {
			factorShown := false
			for _, op := range f.Operations {
				opRows := operationRows(op)
				for _, row := range opRows {
					full := make([]string, 0, len(Header))
					if !contextShown {
						full = append(full, c.Name, formatScore(c.Score))
						contextShown = true
					} else {
						full = append(full, "", "")
					}
					if !factorShown {
						full = append(full, f.Name, formatScore(f.Score))
						factorShown = true
					} else {
						full = append(full, "", "")
					}
					full = append(full, row...)
					rows = append(rows, full)
				}
			}
		}
	}
	return rows
}

// operationRows yields one row per suggestion, or a single row when the
// operation raised none. Operation columns repeat only on the first row.
func operationRows(op engine.OperationRecord) [][]string {
	opCols := []string{op.Name, formatScore(op.Score), fmt.Sprintf("%t", op.Success)}
	blank := []string{"", "", ""}

	if len(op.Suggestions) == 0 {
		return [][]string{append(append([]string{}, opCols...), "", "", "", "")}
	}

	var rows [][]string
	for i, code := range op.Suggestions {
		s := engine.NewSuggestion(engine.Code(code))
		lead := opCols
		if i > 0 {
			lead = blank
		}
		row := append(append([]string{}, lead...),
			string(s.Code), fmt.Sprintf("%d", s.Priority), s.Category, s.Title)
		rows = append(rows, row)
	}
	return rows
}

// WriteCSV writes the flattened report as CSV with a header row.
func WriteCSV(w io.Writer, rep *engine.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range Rows(rep) {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatScore(v float64) string {
	return fmt.Sprintf("%.3f", v)
}
