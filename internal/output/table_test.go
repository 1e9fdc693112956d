package output

import (
	"strings"
	"testing"
)

func plainTable(headers ...string) *Table {
	SetNoColor(true)
	return NewTable(headers...)
}

func TestTableRender(t *testing.T) {
	table := plainTable("NAME", "SCORE")
	table.AddRow("meta_description", "0.85")
	table.AddRow("keywords", "0.50")

	out := table.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, separator, and 2 rows, got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], "NAME") || !strings.Contains(lines[0], "SCORE") {
		t.Errorf("header missing: %q", lines[0])
	}
	if !strings.Contains(lines[2], "meta_description") {
		t.Errorf("row missing: %q", lines[2])
	}
}

func TestTableColumnWidths(t *testing.T) {
	table := plainTable("A", "B")
	table.AddRow("longer-value", "x")

	lines := strings.Split(table.Render(), "\n")
	// The header cell pads out to the widest row value, so B starts after
	// the 12-wide first column plus the 2-space gutter.
	if got := strings.Index(lines[0], "B"); got != 14 {
		t.Errorf("header not padded to column width (B at %d): %q", got, lines[0])
	}
}

func TestTableAlignRight(t *testing.T) {
	table := plainTable("NAME", "SCORE").AlignRight(1)
	table.AddRow("meta", "1")

	lines := strings.Split(table.Render(), "\n")
	row := lines[2]
	if !strings.HasSuffix(row, "    1") {
		t.Errorf("expected right-aligned numeric cell, got %q", row)
	}
}

func TestTableShortRow(t *testing.T) {
	table := plainTable("A", "B", "C")
	table.AddRow("only")

	out := table.Render()
	if !strings.Contains(out, "only") {
		t.Errorf("short row should render missing cells blank: %q", out)
	}
}

func TestScoreBar(t *testing.T) {
	SetNoColor(true)

	out := ScoreBar(80, 10)
	if !strings.Contains(out, "80/100") {
		t.Errorf("score label missing: %q", out)
	}
	if got := strings.Count(out, "█"); got != 8 {
		t.Errorf("expected 8 filled cells at 80%%, got %d", got)
	}

	out = ScoreBar(0, 10)
	if strings.Contains(out, "█") {
		t.Errorf("zero score must render an empty bar: %q", out)
	}

	out = ScoreBar(150, 10)
	if got := strings.Count(out, "█"); got != 10 {
		t.Errorf("bar must clamp at full width, got %d", got)
	}
}

func TestPriorityLabel(t *testing.T) {
	SetNoColor(true)
	tests := []struct {
		priority int
		want     string
	}{
		{1, "critical"},
		{2, "high"},
		{3, "medium"},
		{4, "low"},
		{99, "low"},
	}
	for _, tt := range tests {
		if got := PriorityLabel(tt.priority); got != tt.want {
			t.Errorf("PriorityLabel(%d) = %q, want %q", tt.priority, got, tt.want)
		}
	}
}
