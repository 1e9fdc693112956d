package rules

import (
	"context"

	"github.com/seoscope/seoscope/internal/content"
	"github.com/seoscope/seoscope/internal/engine"
)

// Final score weighting: half the score follows the primary keyword, a
// quarter the average secondary keyword, a quarter the overall balance
// between the two.
const (
	densityPrimaryWeight   = 0.50
	densitySecondaryWeight = 0.25
	densityBalanceWeight   = 0.25
)

// poorDistributionBelow flags keyword clustering: with three or more
// occurrences, fewer than two content thirds containing the keyword is a
// distribution problem.
const poorDistributionBelow = 0.67

// KeywordDensity analyzes primary and secondary keyword usage against the
// page content.
type KeywordDensity struct {
	provider content.Provider
}

// NewKeywordDensity builds the rule.
func NewKeywordDensity(p content.Provider) *KeywordDensity {
	return &KeywordDensity{provider: p}
}

// Descriptor returns the rule's static metadata.
func (o *KeywordDensity) Descriptor() engine.Descriptor {
	return engine.Descriptor{
		Name:        "keyword_density_validation_operation",
		DisplayName: "Keyword density",
		Description: "Checks primary and secondary keyword density, placement, and balance.",
		Weight:      1.0,
		Tier:        engine.TierFree,
	}
}

// Run analyzes all configured keywords. Content is fetched fresh, falling
// back to the cached copy when the fetch fails.
func (o *KeywordDensity) Run(ctx context.Context, postID int64) engine.Result {
	primary, err := o.provider.PrimaryKeyword(ctx, postID)
	if err != nil {
		return engine.Failure(err.Error())
	}
	if primary == "" {
		return engine.Result{
			"success":         false,
			"message":         "no primary keyword configured",
			"primary_missing": true,
		}
	}

	raw, err := o.provider.Content(ctx, postID, false)
	if err != nil {
		raw, err = o.provider.Content(ctx, postID, true)
		if err != nil {
			return engine.Failure(err.Error())
		}
	}

	clean := o.provider.CleanContent(raw)
	totalWords := o.provider.WordCount(clean)
	shortContent := totalWords < content.ShortContentThreshold

	primaryAnalysis, err := o.provider.AnalyzeKeywordDensity(ctx, postID, primary, raw, clean, totalWords, shortContent, true)
	if err != nil {
		return engine.Failure(err.Error())
	}

	secondaryKeywords, err := o.provider.SecondaryKeywords(ctx, postID)
	if err != nil {
		secondaryKeywords = nil
	}
	secondary := make([]content.KeywordAnalysis, 0, len(secondaryKeywords))
	for _, kw := range secondaryKeywords {
		a, err := o.provider.AnalyzeKeywordDensity(ctx, postID, kw, raw, clean, totalWords, shortContent, false)
		if err != nil {
			continue
		}
		secondary = append(secondary, a)
	}

	balance := o.provider.OverallBalance(primaryAnalysis, secondary)

	avgSecondaryScore := 0.5 // neutral midpoint when no secondaries are configured
	if len(secondary) > 0 {
		sum := 0.0
		for _, s := range secondary {
			sum += s.Score
		}
		avgSecondaryScore = sum / float64(len(secondary))
	}

	final := densityPrimaryWeight*primaryAnalysis.Score +
		densitySecondaryWeight*avgSecondaryScore +
		densityBalanceWeight*balance

	avgSecondaryDensity := 0.0
	for _, s := range secondary {
		avgSecondaryDensity += s.Density
	}
	if len(secondary) > 0 {
		avgSecondaryDensity /= float64(len(secondary))
	}
	ratio := 0.0
	if avgSecondaryDensity > 0 {
		ratio = primaryAnalysis.Density / avgSecondaryDensity
	}

	return engine.Result{
		"success":             true,
		"keyword":             primary,
		"primary_status":      primaryAnalysis.Status,
		"primary_density":     primaryAnalysis.Density,
		"primary_occurrences": primaryAnalysis.Occurrences,
		"distribution":        primaryAnalysis.Distribution,
		"total_words":         totalWords,
		"short_content":       shortContent,
		"secondary_count":     len(secondary),
		"effective_secondary": content.EffectiveSecondaryCount(secondary),
		"density_ratio":       ratio,
		"balance":             balance,
		"final_score":         clamp(final, 0, 1),
	}
}

// Score returns the aggregated density score from the run result.
func (o *KeywordDensity) Score(r engine.Result) float64 {
	return clamp(r.Float("final_score"), 0, 1)
}

// Suggestions maps the analysis onto issue codes. Stuffing and underuse
// are mutually exclusive by construction: both derive from the same
// density classification.
func (o *KeywordDensity) Suggestions(r engine.Result) []engine.Suggestion {
	if len(r) == 0 {
		return []engine.Suggestion{}
	}
	if r.Bool("primary_missing") {
		return []engine.Suggestion{engine.NewSuggestion(engine.CodePrimaryKeywordMissing)}
	}
	if !r.Success() {
		return []engine.Suggestion{}
	}

	var out []engine.Suggestion
	keyword := r.String("keyword")

	switch r.String("primary_status") {
	case content.StatusStuffing:
		out = append(out, engine.NewKeywordSuggestion(engine.CodeKeywordStuffing, keyword))
	case content.StatusUnderused:
		out = append(out, engine.NewKeywordSuggestion(engine.CodePrimaryKeywordUnderused, keyword))
	case content.StatusOverused:
		out = append(out, engine.NewKeywordSuggestion(engine.CodePrimaryKeywordSuboptimal, keyword))
	}

	if r.Int("primary_occurrences") >= 3 && r.Float("distribution") < poorDistributionBelow {
		out = append(out, engine.NewKeywordSuggestion(engine.CodePoorKeywordDistribution, keyword))
	}

	if r.Int("secondary_count") > 0 {
		// Two historical trigger paths for weak secondary usage are kept:
		// the effectiveness count and the density ratio both emit the
		// insufficiency code, and the dedupe stage collapses them.
		if r.Int("effective_secondary") < 2 {
			out = append(out, engine.NewSuggestion(engine.CodeInsufficientSecondary))
		}
		if r.Float("density_ratio") > 5 {
			out = append(out, engine.NewSuggestion(engine.CodeSecondaryKeywordImbalance))
			out = append(out, engine.NewSuggestion(engine.CodeInsufficientSecondary))
		}
	}

	if out == nil {
		return []engine.Suggestion{}
	}
	return out
}
