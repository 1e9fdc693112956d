// Package batch runs full analyses across a curated list of posts in small
// chunks, pacing the work so a background job cannot overload the site.
package batch

import (
	"context"
	"log/slog"
	"time"

	"github.com/seoscope/seoscope/internal/engine"
)

// MetaReader exposes the lightweight score mirror used to skip posts that
// were analyzed recently.
type MetaReader interface {
	PostMeta(ctx context.Context, postID int64) (*MetaRow, error)
}

// MetaRow is the subset of the post-meta mirror the runner needs.
type MetaRow struct {
	PostID     int64
	Score      float64
	AnalyzedAt time.Time
}

// Options tune the batch run.
type Options struct {
	ChunkSize  int           // posts per chunk; 5 unless overridden
	Delay      time.Duration // pause between posts
	SkipWithin time.Duration // skip posts analyzed this recently
	MaxPosts   int           // hard cap bounding the run
}

// Summary reports what a run did.
type Summary struct {
	Analyzed int `json:"analyzed"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Runner drives sequential per-post analyses. Posts are independent; the
// only state shared across them is the provider's content-fetch cache.
type Runner struct {
	opts    Options
	meta    MetaReader
	build   func(postID int64) *engine.Optimiser
	log     *slog.Logger
	sleepFn func(time.Duration)
}

// NewRunner wires a runner. build constructs a fresh Optimiser per post so
// no analysis state crosses post boundaries.
func NewRunner(opts Options, meta MetaReader, build func(postID int64) *engine.Optimiser, log *slog.Logger) *Runner {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 5
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{opts: opts, meta: meta, build: build, log: log, sleepFn: time.Sleep}
}

// Run analyzes the posts in order, chunked, honoring the recency skip and
// the hard post cap. A failing post is logged and counted; the run
// continues. Context cancellation stops between posts.
func (r *Runner) Run(ctx context.Context, postIDs []int64) Summary {
	var sum Summary

	if r.opts.MaxPosts > 0 && len(postIDs) > r.opts.MaxPosts {
		postIDs = postIDs[:r.opts.MaxPosts]
	}

	for start := 0; start < len(postIDs); start += r.opts.ChunkSize {
		end := start + r.opts.ChunkSize
		if end > len(postIDs) {
			end = len(postIDs)
		}
		chunk := postIDs[start:end]
		r.log.Info("processing chunk",
			slog.Int("from", start),
			slog.Int("size", len(chunk)),
		)

		for _, postID := range chunk {
			if err := ctx.Err(); err != nil {
				r.log.Warn("batch run cancelled", slog.Any("error", err))
				return sum
			}

			if r.shouldSkip(ctx, postID) {
				sum.Skipped++
				continue
			}

			opt := r.build(postID)
			if err := opt.AnalyzeAndStore(ctx); err != nil {
				r.log.Error("post analysis failed",
					slog.Int64("post_id", postID),
					slog.Any("error", err),
				)
				sum.Failed++
			} else {
				r.log.Info("post analyzed",
					slog.Int64("post_id", postID),
					slog.Float64("score", opt.Score()),
				)
				sum.Analyzed++
			}

			if r.opts.Delay > 0 {
				r.sleepFn(r.opts.Delay)
			}
		}
	}
	return sum
}

func (r *Runner) shouldSkip(ctx context.Context, postID int64) bool {
	if r.opts.SkipWithin <= 0 || r.meta == nil {
		return false
	}
	m, err := r.meta.PostMeta(ctx, postID)
	if err != nil || m == nil {
		return false
	}
	return time.Since(m.AnalyzedAt) < r.opts.SkipWithin
}
