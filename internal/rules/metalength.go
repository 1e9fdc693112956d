// Package rules contains the concrete SEO rule implementations. Each rule
// is an independent engine.Operation: Run gathers data through the content
// provider, Score and Suggestions are pure functions of the resulting map.
package rules

import (
	"context"
	"unicode/utf8"

	"github.com/seoscope/seoscope/internal/content"
	"github.com/seoscope/seoscope/internal/engine"
)

// Meta description length statuses.
const (
	LengthTooShort      = "too_short"
	LengthSlightlyShort = "slightly_short"
	LengthOptimal       = "optimal"
	LengthSlightlyLong  = "slightly_long"
	LengthTooLong       = "too_long"
)

// LengthThresholds bound the optimal and acceptable meta description
// lengths, in characters (runes, not bytes).
type LengthThresholds struct {
	OptimalMin    int
	OptimalMax    int
	AcceptableMin int
	AcceptableMax int
}

// DefaultLengthThresholds match current search-result snippet widths.
var DefaultLengthThresholds = LengthThresholds{
	OptimalMin:    150,
	OptimalMax:    160,
	AcceptableMin: 80,
	AcceptableMax: 175,
}

// MetaDescriptionLength checks the meta description length against the
// optimal and acceptable bands.
type MetaDescriptionLength struct {
	provider   content.Provider
	thresholds LengthThresholds
}

// NewMetaDescriptionLength builds the rule. Zero thresholds fall back to
// the defaults.
func NewMetaDescriptionLength(p content.Provider, t LengthThresholds) *MetaDescriptionLength {
	if t == (LengthThresholds{}) {
		t = DefaultLengthThresholds
	}
	return &MetaDescriptionLength{provider: p, thresholds: t}
}

// Descriptor returns the rule's static metadata.
func (o *MetaDescriptionLength) Descriptor() engine.Descriptor {
	return engine.Descriptor{
		Name:        "meta_description_length_validation_operation",
		DisplayName: "Meta description length",
		Description: "Checks that the meta description fits the optimal search snippet length.",
		Weight:      0.6,
		Tier:        engine.TierFree,
	}
}

// Run fetches the meta description and classifies its length.
func (o *MetaDescriptionLength) Run(ctx context.Context, postID int64) engine.Result {
	desc, err := o.provider.MetaDescription(ctx, postID)
	if err != nil {
		return engine.Failure(err.Error())
	}
	if desc == "" {
		// Expected empty-data condition: no tag on the page.
		return engine.Result{
			"success": false,
			"message": "no meta description found",
			"length":  0,
			"status":  LengthTooShort,
			"missing": true,
		}
	}

	length := utf8.RuneCountInString(desc)
	return engine.Result{
		"success": true,
		"length":  length,
		"status":  o.classify(length),
	}
}

func (o *MetaDescriptionLength) classify(length int) string {
	t := o.thresholds
	switch {
	case length < t.AcceptableMin:
		return LengthTooShort
	case length < t.OptimalMin:
		return LengthSlightlyShort
	case length <= t.OptimalMax:
		return LengthOptimal
	case length <= t.AcceptableMax:
		return LengthSlightlyLong
	default:
		return LengthTooLong
	}
}

// Score maps the classified length onto [0,1]: 1.0 when optimal, a
// proportional 0.7-1.0 inside the acceptable band, and a clamped 0-0.5
// falloff outside it.
func (o *MetaDescriptionLength) Score(r engine.Result) float64 {
	t := o.thresholds
	length := float64(r.Int("length"))

	switch r.String("status") {
	case LengthOptimal:
		return 1.0
	case LengthSlightlyShort:
		span := float64(t.OptimalMin - t.AcceptableMin)
		if span <= 0 {
			return 0.7
		}
		return 0.7 + 0.3*(length-float64(t.AcceptableMin))/span
	case LengthSlightlyLong:
		span := float64(t.AcceptableMax - t.OptimalMax)
		if span <= 0 {
			return 0.7
		}
		return 0.7 + 0.3*(float64(t.AcceptableMax)-length)/span
	case LengthTooShort:
		if t.AcceptableMin <= 0 {
			return 0
		}
		return clamp(0.5*length/float64(t.AcceptableMin), 0, 0.5)
	case LengthTooLong:
		if t.AcceptableMax <= 0 {
			return 0
		}
		return clamp(0.5*(1-(length-float64(t.AcceptableMax))/float64(t.AcceptableMax)), 0, 0.5)
	}
	return 0
}

// Suggestions emits one code matching the classified status.
func (o *MetaDescriptionLength) Suggestions(r engine.Result) []engine.Suggestion {
	if len(r) == 0 {
		return []engine.Suggestion{}
	}
	if r.Bool("missing") {
		return []engine.Suggestion{engine.NewSuggestion(engine.CodeMetaDescriptionMissing)}
	}
	switch r.String("status") {
	case LengthTooShort:
		return []engine.Suggestion{engine.NewSuggestion(engine.CodeMetaDescriptionTooShort)}
	case LengthSlightlyShort:
		return []engine.Suggestion{engine.NewSuggestion(engine.CodeMetaDescriptionSlightlyShort)}
	case LengthSlightlyLong:
		return []engine.Suggestion{engine.NewSuggestion(engine.CodeMetaDescriptionSlightlyLong)}
	case LengthTooLong:
		return []engine.Suggestion{engine.NewSuggestion(engine.CodeMetaDescriptionTooLong)}
	}
	return []engine.Suggestion{}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
