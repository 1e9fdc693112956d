package rules

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/seoscope/seoscope/internal/content"
	"github.com/seoscope/seoscope/internal/engine"
)

func TestKeywordDensity_MissingPrimaryKeyword(t *testing.T) {
	p := newFakeProvider()
	o := NewKeywordDensity(p)
	r := o.Run(context.Background(), 1)

	if r.Success() {
		t.Error("missing primary keyword is not a successful run")
	}
	got := o.Suggestions(r)
	if len(got) != 1 || got[0].Code != engine.CodePrimaryKeywordMissing {
		t.Errorf("expected PRIMARY_KEYWORD_MISSING, got %v", got)
	}
}

func TestKeywordDensity_FinalScoreWeighting(t *testing.T) {
	p := newFakeProvider()
	p.primary = "espresso"
	p.body = strings.Repeat("word ", 400)
	p.analyses["espresso"] = content.KeywordAnalysis{
		Status: content.StatusOptimal, Score: 1.0, Density: 1.2, Occurrences: 5, Distribution: 1.0,
	}
	p.balance = 0.6

	o := NewKeywordDensity(p)
	r := o.Run(context.Background(), 1)

	if !r.Success() {
		t.Fatal("expected success")
	}
	// 0.5*1.0 + 0.25*0.5 (no secondaries, neutral midpoint) + 0.25*0.6
	want := 0.5 + 0.125 + 0.15
	if got := o.Score(r); math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, got)
	}
	if got := o.Suggestions(r); len(got) != 0 {
		t.Errorf("optimal usage raises nothing, got %v", got)
	}
}

func TestKeywordDensity_SecondaryScoresAveraged(t *testing.T) {
	p := newFakeProvider()
	p.primary = "espresso"
	p.secondary = []string{"grinder", "portafilter"}
	p.body = strings.Repeat("word ", 400)
	p.analyses["espresso"] = content.KeywordAnalysis{Status: content.StatusOptimal, Score: 1.0, Density: 1.0}
	p.analyses["grinder"] = content.KeywordAnalysis{Score: 0.8, Density: 0.5, InTitle: true}
	p.analyses["portafilter"] = content.KeywordAnalysis{Score: 0.4, Density: 0.3}
	p.balance = 1.0

	o := NewKeywordDensity(p)
	r := o.Run(context.Background(), 1)

	// 0.5*1.0 + 0.25*0.6 + 0.25*1.0
	want := 0.5 + 0.15 + 0.25
	if got := o.Score(r); math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, got)
	}
	if got := r.Int("effective_secondary"); got != 2 {
		t.Errorf("expected 2 effective secondaries, got %d", got)
	}
	if got := o.Suggestions(r); len(got) != 0 {
		t.Errorf("healthy keywords raise nothing, got %v", got)
	}
}

func TestKeywordDensity_FallbackContentOnFetchFailure(t *testing.T) {
	p := newFakeProvider()
	p.primary = "espresso"
	p.bodyErr = errors.New("timeout")
	p.fallback = strings.Repeat("word ", 400)
	p.analyses["espresso"] = content.KeywordAnalysis{Status: content.StatusOptimal, Score: 1.0, Density: 1.0}

	o := NewKeywordDensity(p)
	r := o.Run(context.Background(), 1)
	if !r.Success() {
		t.Error("expected fallback content to rescue the run")
	}
}

func TestKeywordDensity_BothFetchesFailing(t *testing.T) {
	p := newFakeProvider()
	p.primary = "espresso"
	p.bodyErr = errors.New("timeout")
	p.fallbackErr = errors.New("cold cache")

	o := NewKeywordDensity(p)
	r := o.Run(context.Background(), 1)
	if r.Success() {
		t.Error("expected failed run with no content available")
	}
	if got := o.Suggestions(r); len(got) != 0 {
		t.Errorf("failed run raises nothing, got %v", got)
	}
}

func TestKeywordDensity_ShortContentMarked(t *testing.T) {
	p := newFakeProvider()
	p.primary = "espresso"
	p.body = strings.Repeat("word ", 100)
	p.analyses["espresso"] = content.KeywordAnalysis{Status: content.StatusOptimal, Score: 1.0}

	o := NewKeywordDensity(p)
	r := o.Run(context.Background(), 1)
	if !r.Bool("short_content") {
		t.Error("100 words must be marked short")
	}
}

func densityResult(status string, extra map[string]any) engine.Result {
	r := engine.Result{
		"success":        true,
		"keyword":        "espresso",
		"primary_status": status,
		"final_score":    0.5,
	}
	for k, v := range extra {
		r[k] = v
	}
	return r
}

func TestKeywordDensitySuggestions_StatusCodes(t *testing.T) {
	o := NewKeywordDensity(newFakeProvider())

	tests := []struct {
		status string
		want   engine.Code
	}{
		{content.StatusStuffing, engine.CodeKeywordStuffing},
		{content.StatusUnderused, engine.CodePrimaryKeywordUnderused},
		{content.StatusOverused, engine.CodePrimaryKeywordSuboptimal},
	}
	for _, tt := range tests {
		got := o.Suggestions(densityResult(tt.status, nil))
		if len(got) != 1 || got[0].Code != tt.want {
			t.Errorf("status %s: expected %s, got %v", tt.status, tt.want, got)
		}
		if got[0].Keyword != "espresso" {
			t.Errorf("status %s: keyword payload missing", tt.status)
		}
	}

	// Stuffing and underuse can never co-occur: one status, one code.
	got := o.Suggestions(densityResult(content.StatusOptimal, nil))
	if len(got) != 0 {
		t.Errorf("optimal status raises nothing, got %v", got)
	}
}

func TestKeywordDensitySuggestions_PoorDistribution(t *testing.T) {
	o := NewKeywordDensity(newFakeProvider())

	got := o.Suggestions(densityResult(content.StatusOptimal, map[string]any{
		"primary_occurrences": 5,
		"distribution":        0.34,
	}))
	if len(got) != 1 || got[0].Code != engine.CodePoorKeywordDistribution {
		t.Errorf("expected POOR_KEYWORD_DISTRIBUTION, got %v", got)
	}

	// Two occurrences cannot be expected to spread.
	got = o.Suggestions(densityResult(content.StatusOptimal, map[string]any{
		"primary_occurrences": 2,
		"distribution":        0.34,
	}))
	if len(got) != 0 {
		t.Errorf("few occurrences must not flag distribution, got %v", got)
	}
}

func TestKeywordDensitySuggestions_SecondaryPaths(t *testing.T) {
	o := NewKeywordDensity(newFakeProvider())

	// Too few effective secondaries.
	got := o.Suggestions(densityResult(content.StatusOptimal, map[string]any{
		"secondary_count":     3,
		"effective_secondary": 1,
	}))
	if len(got) != 1 || got[0].Code != engine.CodeInsufficientSecondary {
		t.Errorf("expected INSUFFICIENT_SECONDARY_KEYWORDS, got %v", got)
	}

	// Imbalance emits both codes; the duplicate insufficiency collapses
	// downstream in the dedupe stage.
	got = o.Suggestions(densityResult(content.StatusOptimal, map[string]any{
		"secondary_count":     2,
		"effective_secondary": 2,
		"density_ratio":       6.5,
	}))
	if len(got) != 2 {
		t.Fatalf("expected imbalance plus insufficiency, got %v", got)
	}
	if got[0].Code != engine.CodeSecondaryKeywordImbalance || got[1].Code != engine.CodeInsufficientSecondary {
		t.Errorf("unexpected codes: %v", got)
	}
	deduped := engine.Deduplicate(got)
	if len(deduped) != 2 {
		t.Errorf("distinct codes survive dedupe, got %d", len(deduped))
	}

	// No secondaries configured: the secondary paths stay silent.
	got = o.Suggestions(densityResult(content.StatusOptimal, map[string]any{
		"secondary_count":     0,
		"effective_secondary": 0,
	}))
	if len(got) != 0 {
		t.Errorf("no secondaries configured raises nothing, got %v", got)
	}
}

func TestKeywordDensity_EmptyResultNeverPanics(t *testing.T) {
	o := NewKeywordDensity(newFakeProvider())
	if got := o.Score(engine.Result{}); got != 0 {
		t.Errorf("empty result scores 0, got %f", got)
	}
	if got := o.Suggestions(nil); len(got) != 0 {
		t.Errorf("nil result raises nothing, got %v", got)
	}
}
