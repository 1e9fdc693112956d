package engine

import (
	"context"
	"sort"
	"time"
)

// TopSuggestionsLimit caps the flat top-suggestions list. The categorized
// breakdown and the total count are computed over the full deduplicated
// set, uncapped.
const TopSuggestionsLimit = 100

// PostInfo identifies the analyzed page in the report.
type PostInfo struct {
	ID    int64  `json:"id"`
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
}

// Report is the externally exposed result of one analysis.
type Report struct {
	Post                   PostInfo                `json:"post"`
	Score                  float64                 `json:"score"`
	AnalyzedAt             string                  `json:"analyzed_at"`
	Contexts               []ContextRecord         `json:"contexts"`
	TopSuggestions         []Suggestion            `json:"top_suggestions"`
	CategorizedSuggestions map[string][]Suggestion `json:"categorized_suggestions"`
	TotalSuggestionsCount  int                     `json:"total_suggestions_count"`
	URLsConsumed           []string                `json:"urls_consumed"`
}

// BuildReport assembles the report from an analyzed (or persisted-loaded)
// optimiser.
func BuildReport(ctx context.Context, o *Optimiser) *Report {
	r := &Report{
		Post:       PostInfo{ID: o.PostID()},
		Score:      o.Score(),
		AnalyzedAt: o.AnalyzedAt().Format(time.RFC3339),
	}

	if p := o.Provider(); p != nil {
		if url, err := p.PostURL(ctx, o.PostID()); err == nil {
			r.Post.URL = url
		}
		if title, err := p.PostTitle(ctx, o.PostID()); err == nil {
			r.Post.Title = title
		}
		r.URLsConsumed = p.ConsumedURLs()
	}
	if r.URLsConsumed == nil {
		r.URLsConsumed = []string{}
	}

	var all []Suggestion
	if contexts := o.Contexts(); len(contexts) > 0 {
		for _, c := range contexts {
			all = append(all, c.Suggestions()...)
		}
		r.Contexts = o.snapshot().Contexts
	} else if rec := o.Record(); rec != nil {
		// Fast path: rebuild suggestions from the persisted codes.
		r.Contexts = rec.Contexts
		all = suggestionsFromRecord(rec)
	}

	deduped := Deduplicate(all)
	ranked := Rank(deduped)

	r.TotalSuggestionsCount = len(ranked)
	r.TopSuggestions = Cap(ranked, TopSuggestionsLimit)
	r.CategorizedSuggestions = Categorize(ranked)
	return r
}

func suggestionsFromRecord(rec *AnalysisRecord) []Suggestion {
	var all []Suggestion
	for _, c := range rec.Contexts {
		for _, f := range c.Factors {
			for _, op := range f.Operations {
				for _, code := range op.Suggestions {
					s := NewSuggestion(Code(code))
					s.OperationName = op.Name
					s.FactorName = f.Name
					s.ContextName = c.Name
					all = append(all, s)
				}
			}
		}
	}
	return all
}

// Deduplicate keeps the first occurrence of each suggestion identity,
// preserving tree order.
func Deduplicate(suggestions []Suggestion) []Suggestion {
	seen := make(map[string]bool, len(suggestions))
	out := []Suggestion{}
	for _, s := range suggestions {
		if seen[s.Key()] {
			continue
		}
		seen[s.Key()] = true
		out = append(out, s)
	}
	return out
}

// Rank stable-sorts suggestions by priority ascending (most severe first),
// keeping tree order within a priority.
func Rank(suggestions []Suggestion) []Suggestion {
	sorted := make([]Suggestion, len(suggestions))
	copy(sorted, suggestions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return sorted
}

// Cap truncates to the top n suggestions.
func Cap(suggestions []Suggestion, n int) []Suggestion {
	if len(suggestions) <= n {
		return suggestions
	}
	return suggestions[:n]
}

// Categorize groups suggestions by category. Input order is preserved
// inside each group, so ranked input yields ranked groups.
func Categorize(suggestions []Suggestion) map[string][]Suggestion {
	out := make(map[string][]Suggestion)
	for _, s := range suggestions {
		out[s.Category] = append(out[s.Category], s)
	}
	return out
}
