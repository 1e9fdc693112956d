package rules

import (
	"time"

	"github.com/seoscope/seoscope/internal/content"
	"github.com/seoscope/seoscope/internal/engine"
)

// TreeWeights are the context- and factor-level aggregation weights.
// Operation weights are fixed on the rule descriptors.
type TreeWeights struct {
	ContentQuality      float64
	KeywordOptimisation float64
	MetaDescription     float64
	Content             float64
	Keywords            float64
}

// DefaultTreeWeights lean the overall score toward content quality.
var DefaultTreeWeights = TreeWeights{
	ContentQuality:      0.6,
	KeywordOptimisation: 0.4,
	MetaDescription:     0.5,
	Content:             0.5,
	Keywords:            1.0,
}

// Options bundle the rule thresholds used when building the registry.
type Options struct {
	Length        LengthThresholds
	ContentLength ContentLengthThresholds
	Weights       TreeWeights
	TransientTTL  time.Duration
}

// Registry declares the built-in rule tree for a site. The Optimiser
// filters it through the feature-flag table on every pass.
func Registry(p content.Provider, opts Options) engine.Registry {
	w := opts.Weights
	if w == (TreeWeights{}) {
		w = DefaultTreeWeights
	}

	return engine.Registry{
		{
			Name:        "content_quality",
			DisplayName: "Content Quality",
			Weight:      w.ContentQuality,
			Factors: []engine.FactorSpec{
				{
					Name:        "meta_description",
					DisplayName: "Meta Description",
					Weight:      w.MetaDescription,
					Operations: []engine.Operation{
						NewMetaDescriptionLength(p, opts.Length),
						NewMetaDescriptionCTA(p, opts.TransientTTL),
					},
				},
				{
					Name:        "content",
					DisplayName: "Content",
					Weight:      w.Content,
					Operations: []engine.Operation{
						NewContentLength(p, opts.ContentLength),
					},
				},
			},
		},
		{
			Name:        "keyword_optimisation",
			DisplayName: "Keyword Optimisation",
			Weight:      w.KeywordOptimisation,
			Factors: []engine.FactorSpec{
				{
					Name:        "keywords",
					DisplayName: "Keywords",
					Weight:      w.Keywords,
					Operations: []engine.Operation{
						NewKeywordDensity(p),
					},
				},
			},
		},
	}
}
