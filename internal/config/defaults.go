// Package config provides configuration loading and defaults for seoscope.
package config

// DefaultConfigDir is the default location for seoscope configuration.
const DefaultConfigDir = "~/.config/seoscope"

// DefaultDBName is the filename for the SQLite database.
const DefaultDBName = "seoscope.db"

// DefaultFlagsFile is the filename for the feature-flag YAML table.
const DefaultFlagsFile = "flags.yaml"

// DefaultSiteLocale is assumed when no locale is configured.
const DefaultSiteLocale = "en_US"

// DefaultThresholds hold the default rule thresholds.
var DefaultThresholds = Thresholds{
	MetaOptimalMin:    150,
	MetaOptimalMax:    160,
	MetaAcceptableMin: 80,
	MetaAcceptableMax: 175,
	DensityOptimalMin: 0.5,
	DensityOptimalMax: 2.5,
	DensityStuffingAt: 4.5,
	ContentMinWords:   300,
	ContentGoodWords:  900,
}

// DefaultWeights hold the default tree weights. Operation weights live on
// the rule descriptors; these cover the context and factor levels.
var DefaultWeights = Weights{
	ContentQuality:      0.6,
	KeywordOptimisation: 0.4,
	MetaDescription:     0.5,
	Content:             0.5,
	Keywords:            1.0,
}

// DefaultBatch holds the default batch-run tuning: small chunks with a
// fixed inter-post delay, skipping posts scored within the last few hours.
var DefaultBatch = Batch{
	ChunkSize:       5,
	DelayMillis:     500,
	SkipWithinHours: 4,
	MaxPosts:        200,
}

// DefaultCache holds the default transient cache settings. Redis is off
// unless an address is configured.
var DefaultCache = Cache{
	TransientTTLMinutes: 60,
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 80,
}
