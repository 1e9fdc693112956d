package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"time"

	"github.com/seoscope/seoscope/internal/content"
)

// Optimiser states, in lifecycle order.
const (
	StateUninitialized      = "uninitialized"
	StateContextsInitialized = "contexts_initialized"
	StateAnalyzed           = "analyzed"
	StatePersisted          = "persisted"
	StateMetaSynced         = "meta_synced"
)

// Optimiser orchestrates the full analysis of one post: it builds the
// flag-filtered context tree from the registry, evaluates it with per-node
// failure isolation, folds the context scores into one 0-100 score, and
// persists the result tree.
type Optimiser struct {
	postID   int64
	registry Registry
	flags    FlagResolver
	provider content.Provider
	repo     Repository
	log      *slog.Logger

	state      string
	contexts   []*Context
	score      float64
	analyzedAt time.Time
	record     *AnalysisRecord
}

// NewOptimiser wires an optimiser for one post. The repository may be nil
// for partial-analysis use where nothing is persisted.
func NewOptimiser(postID int64, reg Registry, fl FlagResolver, provider content.Provider, repo Repository, log *slog.Logger) *Optimiser {
	if log == nil {
		log = slog.Default()
	}
	return &Optimiser{
		postID:   postID,
		registry: reg,
		flags:    fl,
		provider: provider,
		repo:     repo,
		log:      log,
		state:    StateUninitialized,
	}
}

// PostID returns the target post.
func (o *Optimiser) PostID() int64 { return o.postID }

// State returns the current lifecycle state.
func (o *Optimiser) State() string { return o.state }

// Score returns the overall 0-100 score, meaningful once analyzed.
func (o *Optimiser) Score() float64 { return o.score }

// AnalyzedAt returns the analysis timestamp, meaningful once analyzed.
func (o *Optimiser) AnalyzedAt() time.Time { return o.analyzedAt }

// Contexts returns the evaluated context tree.
func (o *Optimiser) Contexts() []*Context { return o.contexts }

// Record returns the persisted record with row IDs, once saved or loaded.
func (o *Optimiser) Record() *AnalysisRecord { return o.record }

// Provider returns the content provider backing this run.
func (o *Optimiser) Provider() content.Provider { return o.provider }

// Analyze evaluates the full tree. A context whose evaluation panics is
// logged with diagnostics and skipped; the remaining contexts still
// evaluate and fold into the score, so the caller always gets a
// best-effort result.
func (o *Optimiser) Analyze(ctx context.Context) {
	o.contexts = BuildContexts(o.registry, o.flags)
	o.state = StateContextsInitialized

	for _, c := range o.contexts {
		o.evaluateContext(ctx, c)
	}

	o.score = o.computeScore()
	o.analyzedAt = time.Now().UTC()
	o.state = StateAnalyzed
}

func (o *Optimiser) evaluateContext(ctx context.Context, c *Context) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("context evaluation panicked",
				slog.String("stage", "context_evaluate"),
				slog.String("context", c.Name),
				slog.Int64("post_id", o.postID),
				slog.Duration("elapsed", time.Since(start)),
				slog.Float64("alloc_mb", allocMB()),
				slog.Any("panic", r),
			)
		}
	}()
	c.Evaluate(ctx, o.postID, o.log)
}

// computeScore folds the context scores into the 0-100 overall score,
// rounded to one decimal. Zero contexts score 0.
func (o *Optimiser) computeScore() float64 {
	num, den := 0.0, 0.0
	for _, c := range o.contexts {
		num += c.Score() * c.Weight
		den += c.Weight
	}
	if den == 0 {
		return 0
	}
	return math.Round(num/den*100*10) / 10
}

// AnalyzePartial evaluates only the subtree selected by the filter,
// bypassing persistence entirely. Used for targeted re-checks.
func (o *Optimiser) AnalyzePartial(ctx context.Context, f Filter) {
	o.contexts = BuildContexts(f.Apply(o.registry), o.flags)
	o.state = StateContextsInitialized
	for _, c := range o.contexts {
		o.evaluateContext(ctx, c)
	}
	o.score = o.computeScore()
	o.analyzedAt = time.Now().UTC()
	o.state = StateAnalyzed
}

// Save persists the evaluated tree, replacing any previous rows for this
// post. A save failure is fatal for the run: an analysis that was never
// stored is not useful, so the error propagates.
func (o *Optimiser) Save(ctx context.Context) error {
	if o.state != StateAnalyzed {
		return fmt.Errorf("cannot save in state %q", o.state)
	}
	if o.repo == nil {
		return fmt.Errorf("no repository configured")
	}

	rec, err := o.repo.ReplaceAnalysis(ctx, o.snapshot())
	if err != nil {
		return fmt.Errorf("saving analysis for post %d: %w", o.postID, err)
	}
	o.record = &rec
	o.state = StatePersisted
	return nil
}

// snapshot flattens the evaluated tree into a persistable record.
func (o *Optimiser) snapshot() AnalysisRecord {
	rec := AnalysisRecord{
		PostID:     o.postID,
		Score:      o.score,
		AnalyzedAt: o.analyzedAt,
	}
	for _, c := range o.contexts {
		cr := ContextRecord{
			Name:        c.Name,
			DisplayName: c.DisplayName,
			Weight:      c.Weight,
			Score:       c.Score(),
		}
		for _, f := range c.Factors() {
			cr.Factors = append(cr.Factors, FactorRecord{
				Name:        f.Name,
				DisplayName: f.DisplayName,
				Weight:      f.Weight,
				Score:       f.Score(),
				Operations:  f.OperationRecords(),
			})
		}
		rec.Contexts = append(rec.Contexts, cr)
	}
	return rec
}

// SyncPostMeta mirrors the score onto post metadata. Best effort: a
// failure is logged and swallowed since the meta row is a read
// optimization, not the source of truth.
func (o *Optimiser) SyncPostMeta(ctx context.Context) {
	if o.repo == nil {
		return
	}
	if err := o.repo.SavePostMeta(ctx, o.postID, o.score, o.analyzedAt); err != nil {
		o.log.Warn("post meta sync failed",
			slog.String("stage", "post_meta_sync"),
			slog.Int64("post_id", o.postID),
			slog.Any("error", err),
		)
		return
	}
	o.state = StateMetaSynced
}

// AnalyzeAndStore runs the full pipeline: evaluate, persist, mirror.
// Evaluation failures degrade to partial results; only the save step can
// fail the run.
func (o *Optimiser) AnalyzeAndStore(ctx context.Context) error {
	o.Analyze(ctx)
	if err := o.Save(ctx); err != nil {
		return err
	}
	o.SyncPostMeta(ctx)
	return nil
}

// LoadPersisted is the fast path that skips analysis and loads the stored
// tree instead. It reports whether a stored analysis existed.
func (o *Optimiser) LoadPersisted(ctx context.Context) (bool, error) {
	if o.repo == nil {
		return false, fmt.Errorf("no repository configured")
	}
	rec, err := o.repo.LatestAnalysis(ctx, o.postID)
	if err != nil {
		return false, fmt.Errorf("loading analysis for post %d: %w", o.postID, err)
	}
	if rec == nil {
		return false, nil
	}
	o.record = rec
	o.score = rec.Score
	o.analyzedAt = rec.AnalyzedAt
	o.state = StatePersisted
	return true, nil
}

func allocMB() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.Alloc) / (1 << 20)
}
