package rules

import (
	"context"

	"github.com/seoscope/seoscope/internal/content"
	"github.com/seoscope/seoscope/internal/engine"
)

// ContentLengthThresholds bound the word-count bands.
type ContentLengthThresholds struct {
	MinWords  int // below this: too short
	GoodWords int // at or above this: full score
}

// DefaultContentLengthThresholds reuse the engine-wide short-content limit
// as the lower bound.
var DefaultContentLengthThresholds = ContentLengthThresholds{
	MinWords:  content.ShortContentThreshold,
	GoodWords: 900,
}

// ContentLength checks that the page carries enough body text to rank.
type ContentLength struct {
	provider   content.Provider
	thresholds ContentLengthThresholds
}

// NewContentLength builds the rule. Zero thresholds fall back to defaults.
func NewContentLength(p content.Provider, t ContentLengthThresholds) *ContentLength {
	if t == (ContentLengthThresholds{}) {
		t = DefaultContentLengthThresholds
	}
	return &ContentLength{provider: p, thresholds: t}
}

// Descriptor returns the rule's static metadata.
func (o *ContentLength) Descriptor() engine.Descriptor {
	return engine.Descriptor{
		Name:        "content_length_validation_operation",
		DisplayName: "Content length",
		Description: "Checks that the page has enough body text to compete for its queries.",
		Weight:      1.0,
		Tier:        engine.TierFree,
	}
}

// Run counts the words in the cleaned page content.
func (o *ContentLength) Run(ctx context.Context, postID int64) engine.Result {
	raw, err := o.provider.Content(ctx, postID, false)
	if err != nil {
		raw, err = o.provider.Content(ctx, postID, true)
		if err != nil {
			return engine.Failure(err.Error())
		}
	}

	words := o.provider.WordCount(o.provider.CleanContent(raw))
	return engine.Result{
		"success":    true,
		"word_count": words,
	}
}

// Score scales linearly from 0 at zero words to 1.0 at the good-words mark.
func (o *ContentLength) Score(r engine.Result) float64 {
	if o.thresholds.GoodWords <= 0 {
		return 0
	}
	return clamp(float64(r.Int("word_count"))/float64(o.thresholds.GoodWords), 0, 1)
}

// Suggestions flags thin content.
func (o *ContentLength) Suggestions(r engine.Result) []engine.Suggestion {
	if len(r) == 0 || !r.Success() {
		return []engine.Suggestion{}
	}
	words := r.Int("word_count")
	switch {
	case words < o.thresholds.MinWords:
		return []engine.Suggestion{engine.NewSuggestion(engine.CodeContentTooShort)}
	case words < o.thresholds.GoodWords:
		return []engine.Suggestion{engine.NewSuggestion(engine.CodeContentShort)}
	}
	return []engine.Suggestion{}
}
