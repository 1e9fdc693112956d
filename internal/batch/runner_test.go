package batch

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/seoscope/seoscope/internal/engine"
	"github.com/seoscope/seoscope/internal/flags"
)

// memRepo is a minimal engine.Repository for runner tests.
type memRepo struct {
	saved   map[int64]engine.AnalysisRecord
	failFor map[int64]bool
}

func newMemRepo() *memRepo {
	return &memRepo{saved: make(map[int64]engine.AnalysisRecord), failFor: make(map[int64]bool)}
}

func (r *memRepo) ReplaceAnalysis(_ context.Context, rec engine.AnalysisRecord) (engine.AnalysisRecord, error) {
	if r.failFor[rec.PostID] {
		return rec, errors.New("disk full")
	}
	r.saved[rec.PostID] = rec
	return rec, nil
}

func (r *memRepo) LatestAnalysis(_ context.Context, postID int64) (*engine.AnalysisRecord, error) {
	rec, ok := r.saved[postID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *memRepo) SavePostMeta(context.Context, int64, float64, time.Time) error { return nil }

// scriptedMeta serves canned post-meta rows.
type scriptedMeta struct {
	rows map[int64]*MetaRow
	err  error
}

func (m *scriptedMeta) PostMeta(_ context.Context, postID int64) (*MetaRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows[postID], nil
}

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func testRunner(opts Options, meta MetaReader, repo *memRepo) *Runner {
	build := func(postID int64) *engine.Optimiser {
		return engine.NewOptimiser(postID, engine.Registry{}, &flags.Table{}, nil, repo, discard())
	}
	r := NewRunner(opts, meta, build, discard())
	r.sleepFn = func(time.Duration) {}
	return r
}

func TestRunner_AnalyzesAllPosts(t *testing.T) {
	repo := newMemRepo()
	r := testRunner(Options{ChunkSize: 2}, &scriptedMeta{}, repo)

	sum := r.Run(context.Background(), []int64{1, 2, 3, 4, 5})
	if sum.Analyzed != 5 || sum.Skipped != 0 || sum.Failed != 0 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if len(repo.saved) != 5 {
		t.Errorf("expected 5 stored trees, got %d", len(repo.saved))
	}
}

func TestRunner_SkipsRecentlyAnalyzed(t *testing.T) {
	repo := newMemRepo()
	meta := &scriptedMeta{rows: map[int64]*MetaRow{
		1: {PostID: 1, Score: 80, AnalyzedAt: time.Now().Add(-time.Hour)},
		2: {PostID: 2, Score: 60, AnalyzedAt: time.Now().Add(-48 * time.Hour)},
	}}
	r := testRunner(Options{ChunkSize: 5, SkipWithin: 4 * time.Hour}, meta, repo)

	sum := r.Run(context.Background(), []int64{1, 2, 3})
	if sum.Skipped != 1 {
		t.Errorf("expected post 1 skipped, got %+v", sum)
	}
	if sum.Analyzed != 2 {
		t.Errorf("expected stale and fresh posts analyzed, got %+v", sum)
	}
	if _, ok := repo.saved[1]; ok {
		t.Error("skipped post must not be re-stored")
	}
}

func TestRunner_NoSkipWindowAnalyzesEverything(t *testing.T) {
	repo := newMemRepo()
	meta := &scriptedMeta{rows: map[int64]*MetaRow{
		1: {PostID: 1, AnalyzedAt: time.Now()},
	}}
	r := testRunner(Options{ChunkSize: 5}, meta, repo)

	sum := r.Run(context.Background(), []int64{1})
	if sum.Analyzed != 1 || sum.Skipped != 0 {
		t.Errorf("zero skip window must disable skipping, got %+v", sum)
	}
}

func TestRunner_MetaErrorDoesNotSkip(t *testing.T) {
	repo := newMemRepo()
	meta := &scriptedMeta{err: errors.New("meta table gone")}
	r := testRunner(Options{ChunkSize: 5, SkipWithin: time.Hour}, meta, repo)

	sum := r.Run(context.Background(), []int64{1})
	if sum.Analyzed != 1 {
		t.Errorf("unreadable meta must fall through to analysis, got %+v", sum)
	}
}

func TestRunner_FailedPostCountedRunContinues(t *testing.T) {
	repo := newMemRepo()
	repo.failFor[2] = true
	r := testRunner(Options{ChunkSize: 2}, &scriptedMeta{}, repo)

	sum := r.Run(context.Background(), []int64{1, 2, 3})
	if sum.Failed != 1 {
		t.Errorf("expected 1 failure, got %+v", sum)
	}
	if sum.Analyzed != 2 {
		t.Errorf("siblings of a failing post must still run, got %+v", sum)
	}
}

func TestRunner_MaxPostsCapsRun(t *testing.T) {
	repo := newMemRepo()
	r := testRunner(Options{ChunkSize: 10, MaxPosts: 3}, &scriptedMeta{}, repo)

	sum := r.Run(context.Background(), []int64{1, 2, 3, 4, 5, 6})
	if sum.Analyzed != 3 {
		t.Errorf("expected hard cap at 3 posts, got %+v", sum)
	}
}

func TestRunner_CancellationStopsBetweenPosts(t *testing.T) {
	repo := newMemRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := testRunner(Options{ChunkSize: 2}, &scriptedMeta{}, repo)
	sum := r.Run(ctx, []int64{1, 2, 3})
	if sum.Analyzed != 0 {
		t.Errorf("cancelled context must stop the run, got %+v", sum)
	}
}

func TestRunner_DelayBetweenPosts(t *testing.T) {
	repo := newMemRepo()
	build := func(postID int64) *engine.Optimiser {
		return engine.NewOptimiser(postID, engine.Registry{}, &flags.Table{}, nil, repo, discard())
	}
	r := NewRunner(Options{ChunkSize: 5, Delay: 200 * time.Millisecond}, &scriptedMeta{}, build, discard())

	var sleeps int
	r.sleepFn = func(d time.Duration) {
		if d != 200*time.Millisecond {
			t.Errorf("unexpected delay %v", d)
		}
		sleeps++
	}

	r.Run(context.Background(), []int64{1, 2, 3})
	if sleeps != 3 {
		t.Errorf("expected a pause after each post, got %d", sleeps)
	}
}

func TestNewRunner_DefaultChunkSize(t *testing.T) {
	r := NewRunner(Options{}, nil, nil, nil)
	if r.opts.ChunkSize != 5 {
		t.Errorf("expected default chunk size 5, got %d", r.opts.ChunkSize)
	}
}
