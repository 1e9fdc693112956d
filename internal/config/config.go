package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level seoscope configuration.
type Config struct {
	SiteLocale string       `mapstructure:"site_locale"`
	LogLevel   string       `mapstructure:"log_level"`
	LogFormat  string       `mapstructure:"log_format"`
	FlagsFile  string       `mapstructure:"flags_file"`
	Pages      []PageConfig `mapstructure:"pages"`
	Thresholds Thresholds   `mapstructure:"thresholds"`
	Weights    Weights      `mapstructure:"weights"`
	Batch      Batch        `mapstructure:"batch"`
	Cache      Cache        `mapstructure:"cache"`
	Output     Output       `mapstructure:"output"`
}

// PageConfig registers one analyzable page and its keywords.
type PageConfig struct {
	ID                int64    `mapstructure:"id"`
	URL               string   `mapstructure:"url"`
	PrimaryKeyword    string   `mapstructure:"primary_keyword"`
	SecondaryKeywords []string `mapstructure:"secondary_keywords"`
}

// Thresholds defines the rule thresholds.
type Thresholds struct {
	MetaOptimalMin    int     `mapstructure:"meta_optimal_min"`
	MetaOptimalMax    int     `mapstructure:"meta_optimal_max"`
	MetaAcceptableMin int     `mapstructure:"meta_acceptable_min"`
	MetaAcceptableMax int     `mapstructure:"meta_acceptable_max"`
	DensityOptimalMin float64 `mapstructure:"density_optimal_min"`
	DensityOptimalMax float64 `mapstructure:"density_optimal_max"`
	DensityStuffingAt float64 `mapstructure:"density_stuffing_at"`
	ContentMinWords   int     `mapstructure:"content_min_words"`
	ContentGoodWords  int     `mapstructure:"content_good_words"`
}

// Weights defines the context- and factor-level aggregation weights.
type Weights struct {
	ContentQuality      float64 `mapstructure:"content_quality"`
	KeywordOptimisation float64 `mapstructure:"keyword_optimisation"`
	MetaDescription     float64 `mapstructure:"meta_description"`
	Content             float64 `mapstructure:"content"`
	Keywords            float64 `mapstructure:"keywords"`
}

// Batch defines batch-run tuning.
type Batch struct {
	ChunkSize       int `mapstructure:"chunk_size"`
	DelayMillis     int `mapstructure:"delay_millis"`
	SkipWithinHours int `mapstructure:"skip_within_hours"`
	MaxPosts        int `mapstructure:"max_posts"`
}

// Cache defines the transient cache backend. An empty RedisAddr keeps the
// cache in process memory.
type Cache struct {
	RedisAddr           string `mapstructure:"redis_addr"`
	RedisPassword       string `mapstructure:"redis_password"`
	RedisDB             int    `mapstructure:"redis_db"`
	TransientTTLMinutes int    `mapstructure:"transient_ttl_minutes"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	// Set defaults.
	v.SetDefault("site_locale", DefaultSiteLocale)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("flags_file", filepath.Join(DefaultConfigDir, DefaultFlagsFile))
	v.SetDefault("thresholds.meta_optimal_min", DefaultThresholds.MetaOptimalMin)
	v.SetDefault("thresholds.meta_optimal_max", DefaultThresholds.MetaOptimalMax)
	v.SetDefault("thresholds.meta_acceptable_min", DefaultThresholds.MetaAcceptableMin)
	v.SetDefault("thresholds.meta_acceptable_max", DefaultThresholds.MetaAcceptableMax)
	v.SetDefault("thresholds.density_optimal_min", DefaultThresholds.DensityOptimalMin)
	v.SetDefault("thresholds.density_optimal_max", DefaultThresholds.DensityOptimalMax)
	v.SetDefault("thresholds.density_stuffing_at", DefaultThresholds.DensityStuffingAt)
	v.SetDefault("thresholds.content_min_words", DefaultThresholds.ContentMinWords)
	v.SetDefault("thresholds.content_good_words", DefaultThresholds.ContentGoodWords)
	v.SetDefault("weights.content_quality", DefaultWeights.ContentQuality)
	v.SetDefault("weights.keyword_optimisation", DefaultWeights.KeywordOptimisation)
	v.SetDefault("weights.meta_description", DefaultWeights.MetaDescription)
	v.SetDefault("weights.content", DefaultWeights.Content)
	v.SetDefault("weights.keywords", DefaultWeights.Keywords)
	v.SetDefault("batch.chunk_size", DefaultBatch.ChunkSize)
	v.SetDefault("batch.delay_millis", DefaultBatch.DelayMillis)
	v.SetDefault("batch.skip_within_hours", DefaultBatch.SkipWithinHours)
	v.SetDefault("batch.max_posts", DefaultBatch.MaxPosts)
	v.SetDefault("cache.transient_ttl_minutes", DefaultCache.TransientTTLMinutes)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		configDir := expandPath(DefaultConfigDir)
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.FlagsFile = expandPath(cfg.FlagsFile)
	return &cfg, nil
}

// DBPath returns the full path to the SQLite database.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
