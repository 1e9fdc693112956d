package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seoscope/seoscope/internal/config"
	"github.com/seoscope/seoscope/internal/content"
	"github.com/seoscope/seoscope/internal/engine"
	"github.com/seoscope/seoscope/internal/flags"
	"github.com/seoscope/seoscope/internal/logger"
	"github.com/seoscope/seoscope/internal/output"
	"github.com/seoscope/seoscope/internal/rules"
	"github.com/seoscope/seoscope/internal/store"
)

// environment bundles the wired collaborators every command needs.
type environment struct {
	cfg       *config.Config
	log       *slog.Logger
	db        *store.DB
	provider  *content.HTMLProvider
	registry  engine.Registry
	flagTable *flags.Table
}

// buildEnv loads config and wires the provider, store, flag table, and
// rule registry. The returned closer releases the database.
func buildEnv() (*environment, func(), error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.LogLevel
	if flagVerbose {
		level = "debug"
	}
	log := logger.New(level, cfg.LogFormat)

	if flagNoColor || !cfg.Output.Color {
		output.SetNoColor(true)
	}

	db, err := store.Open(config.DBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	var transients content.TransientStore
	if cfg.Cache.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		transients = content.NewRedisTransientStore(client)
	} else {
		transients = content.NewMemoryTransientStore()
	}

	pages := make([]content.Page, 0, len(cfg.Pages))
	for _, p := range cfg.Pages {
		pages = append(pages, content.Page{
			ID:                p.ID,
			URL:               p.URL,
			PrimaryKeyword:    p.PrimaryKeyword,
			SecondaryKeywords: p.SecondaryKeywords,
		})
	}

	provider := content.NewHTMLProvider(pages, content.NewFetchCache(nil), transients, cfg.SiteLocale, content.DensityThresholds{
		OptimalMin: cfg.Thresholds.DensityOptimalMin,
		OptimalMax: cfg.Thresholds.DensityOptimalMax,
		StuffingAt: cfg.Thresholds.DensityStuffingAt,
	})

	flagTable, err := flags.Load(cfg.FlagsFile)
	if err != nil {
		return nil, nil, err
	}

	registry := rules.Registry(provider, rules.Options{
		Length: rules.LengthThresholds{
			OptimalMin:    cfg.Thresholds.MetaOptimalMin,
			OptimalMax:    cfg.Thresholds.MetaOptimalMax,
			AcceptableMin: cfg.Thresholds.MetaAcceptableMin,
			AcceptableMax: cfg.Thresholds.MetaAcceptableMax,
		},
		ContentLength: rules.ContentLengthThresholds{
			MinWords:  cfg.Thresholds.ContentMinWords,
			GoodWords: cfg.Thresholds.ContentGoodWords,
		},
		TransientTTL: time.Duration(cfg.Cache.TransientTTLMinutes) * time.Minute,
		Weights: rules.TreeWeights{
			ContentQuality:      cfg.Weights.ContentQuality,
			KeywordOptimisation: cfg.Weights.KeywordOptimisation,
			MetaDescription:     cfg.Weights.MetaDescription,
			Content:             cfg.Weights.Content,
			Keywords:            cfg.Weights.Keywords,
		},
	})

	env := &environment{
		cfg:       cfg,
		log:       log,
		db:        db,
		provider:  provider,
		registry:  registry,
		flagTable: flagTable,
	}
	return env, func() { _ = db.Close() }, nil
}

// newOptimiser constructs a fresh optimiser for one post.
func (e *environment) newOptimiser(postID int64) *engine.Optimiser {
	return engine.NewOptimiser(postID, e.registry, e.flagTable, e.provider, e.db, e.log)
}

// pageIDs lists all registered page IDs in config order.
func (e *environment) pageIDs() []int64 {
	ids := make([]int64, 0, len(e.cfg.Pages))
	for _, p := range e.cfg.Pages {
		ids = append(ids, p.ID)
	}
	return ids
}

// batchDelay converts the configured millisecond delay.
func (e *environment) batchDelay() time.Duration {
	return time.Duration(e.cfg.Batch.DelayMillis) * time.Millisecond
}
