package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

// memRepo is an in-memory Repository for pipeline tests.
type memRepo struct {
	byPost   map[int64]AnalysisRecord
	meta     map[int64]float64
	replaces int
	failSave bool
	failMeta bool
}

func newMemRepo() *memRepo {
	return &memRepo{byPost: make(map[int64]AnalysisRecord), meta: make(map[int64]float64)}
}

func (r *memRepo) ReplaceAnalysis(_ context.Context, rec AnalysisRecord) (AnalysisRecord, error) {
	if r.failSave {
		return AnalysisRecord{}, errors.New("disk full")
	}
	r.replaces++
	rec.ID = int64(r.replaces)
	r.byPost[rec.PostID] = rec
	return rec, nil
}

func (r *memRepo) LatestAnalysis(_ context.Context, postID int64) (*AnalysisRecord, error) {
	rec, ok := r.byPost[postID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *memRepo) SavePostMeta(_ context.Context, postID int64, score float64, _ time.Time) error {
	if r.failMeta {
		return errors.New("meta table locked")
	}
	r.meta[postID] = score
	return nil
}

func TestOptimiserAnalyze_FoldsContextScores(t *testing.T) {
	reg := Registry{
		{Name: "a", Weight: 0.6, Factors: []FactorSpec{{Name: "af", Weight: 1,
			Operations: []Operation{&fakeOp{name: "a1", weight: 1, result: okResult(), score: 1.0}}}}},
		{Name: "b", Weight: 0.4, Factors: []FactorSpec{{Name: "bf", Weight: 1,
			Operations: []Operation{&fakeOp{name: "b1", weight: 1, result: okResult(), score: 0.5}}}}},
	}
	o := NewOptimiser(1, reg, &noFlags{}, nil, nil, discard())
	o.Analyze(context.Background())

	// (1.0*0.6 + 0.5*0.4) * 100 = 80.0
	if got := o.Score(); math.Abs(got-80.0) > 1e-9 {
		t.Errorf("expected score 80.0, got %f", got)
	}
	if o.State() != StateAnalyzed {
		t.Errorf("expected state analyzed, got %s", o.State())
	}
	if o.AnalyzedAt().IsZero() {
		t.Error("analyzedAt not set")
	}
}

func TestOptimiserAnalyze_RoundsToOneDecimal(t *testing.T) {
	reg := Registry{
		{Name: "a", Weight: 1, Factors: []FactorSpec{{Name: "f", Weight: 1,
			Operations: []Operation{&fakeOp{name: "op", weight: 1, result: okResult(), score: 1.0 / 3.0}}}}},
	}
	o := NewOptimiser(1, reg, &noFlags{}, nil, nil, discard())
	o.Analyze(context.Background())
	if got := o.Score(); got != 33.3 {
		t.Errorf("expected 33.3, got %v", got)
	}
}

func TestOptimiserAnalyze_EmptyTreeScoresZero(t *testing.T) {
	o := NewOptimiser(1, Registry{}, &noFlags{}, nil, nil, discard())
	o.Analyze(context.Background())
	if got := o.Score(); got != 0 || math.IsNaN(got) {
		t.Errorf("expected 0 for empty tree, got %f", got)
	}
}

func TestOptimiserSave_RequiresAnalyzedState(t *testing.T) {
	o := NewOptimiser(1, Registry{}, &noFlags{}, nil, newMemRepo(), discard())
	if err := o.Save(context.Background()); err == nil {
		t.Fatal("expected error saving before analysis")
	}
}

func TestOptimiserAnalyzeAndStore_RerunReplacesNotDuplicates(t *testing.T) {
	reg := Registry{
		{Name: "a", Weight: 1, Factors: []FactorSpec{{Name: "f", Weight: 1,
			Operations: []Operation{&fakeOp{name: "op", weight: 1, result: okResult(), score: 0.9}}}}},
	}
	repo := newMemRepo()

	for i := 0; i < 2; i++ {
		o := NewOptimiser(42, reg, &noFlags{}, nil, repo, discard())
		if err := o.AnalyzeAndStore(context.Background()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if o.State() != StateMetaSynced {
			t.Errorf("run %d: expected meta_synced, got %s", i, o.State())
		}
	}

	if len(repo.byPost) != 1 {
		t.Errorf("expected one stored tree per post, got %d", len(repo.byPost))
	}
	if repo.meta[42] != 90.0 {
		t.Errorf("expected mirrored score 90.0, got %f", repo.meta[42])
	}
}

func TestOptimiserAnalyzeAndStore_SaveFailureIsFatal(t *testing.T) {
	repo := newMemRepo()
	repo.failSave = true
	reg := Registry{
		{Name: "a", Weight: 1, Factors: []FactorSpec{{Name: "f", Weight: 1,
			Operations: []Operation{&fakeOp{name: "op", weight: 1, result: okResult(), score: 0.9}}}}},
	}
	o := NewOptimiser(1, reg, &noFlags{}, nil, repo, discard())
	if err := o.AnalyzeAndStore(context.Background()); err == nil {
		t.Fatal("expected save failure to propagate")
	}
	if len(repo.meta) != 0 {
		t.Error("meta must not sync after a failed save")
	}
}

func TestOptimiserSyncPostMeta_FailureIsSwallowed(t *testing.T) {
	repo := newMemRepo()
	repo.failMeta = true
	reg := Registry{
		{Name: "a", Weight: 1, Factors: []FactorSpec{{Name: "f", Weight: 1,
			Operations: []Operation{&fakeOp{name: "op", weight: 1, result: okResult(), score: 0.9}}}}},
	}
	o := NewOptimiser(1, reg, &noFlags{}, nil, repo, discard())
	if err := o.AnalyzeAndStore(context.Background()); err != nil {
		t.Fatalf("meta failure must not fail the run: %v", err)
	}
	if o.State() != StatePersisted {
		t.Errorf("expected state to stay persisted, got %s", o.State())
	}
}

func TestOptimiserLoadPersisted(t *testing.T) {
	repo := newMemRepo()
	repo.byPost[9] = AnalysisRecord{PostID: 9, Score: 71.2, AnalyzedAt: time.Now().UTC()}

	o := NewOptimiser(9, nil, &noFlags{}, nil, repo, discard())
	found, err := o.LoadPersisted(context.Background())
	if err != nil || !found {
		t.Fatalf("expected stored analysis found, got found=%v err=%v", found, err)
	}
	if o.Score() != 71.2 || o.State() != StatePersisted {
		t.Errorf("loaded state wrong: score=%f state=%s", o.Score(), o.State())
	}

	o2 := NewOptimiser(10, nil, &noFlags{}, nil, repo, discard())
	found, err = o2.LoadPersisted(context.Background())
	if err != nil || found {
		t.Errorf("expected not found for unanalyzed post, got found=%v err=%v", found, err)
	}
}

func TestOptimiserAnalyzePartial_NothingPersisted(t *testing.T) {
	repo := newMemRepo()
	reg := Registry{
		{Name: "a", Weight: 1, Factors: []FactorSpec{{Name: "f", Weight: 1,
			Operations: []Operation{
				&fakeOp{name: "keep", weight: 1, result: okResult(), score: 0.5},
				&fakeOp{name: "drop", weight: 1, result: okResult(), score: 1.0},
			}}}},
	}
	o := NewOptimiser(1, reg, &noFlags{}, nil, repo, discard())
	o.AnalyzePartial(context.Background(), Filter{Operations: []string{"keep"}})

	if got := o.Score(); got != 50.0 {
		t.Errorf("expected partial score 50.0, got %f", got)
	}
	if len(repo.byPost) != 0 {
		t.Error("partial analysis must not persist anything")
	}
}

func TestOptimiserSnapshot_CarriesFullTree(t *testing.T) {
	reg := twoContextRegistry()
	o := NewOptimiser(3, reg, &noFlags{}, nil, nil, discard())
	o.Analyze(context.Background())

	rec := o.snapshot()
	if rec.PostID != 3 || len(rec.Contexts) != 2 {
		t.Fatalf("unexpected snapshot shape: %+v", rec)
	}
	if len(rec.Contexts[0].Factors) != 1 || len(rec.Contexts[0].Factors[0].Operations) != 2 {
		t.Errorf("tree not fully captured")
	}
	op := rec.Contexts[0].Factors[0].Operations[0]
	if op.Name == "" || op.Payload == nil {
		t.Errorf("operation payload missing: %+v", op)
	}
}
