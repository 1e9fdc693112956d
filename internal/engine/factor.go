package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// operationState carries one Operation through an evaluation pass: the
// memoized run result and the score and suggestions derived from it.
type operationState struct {
	op                 Operation
	suggestionsEnabled bool
	externalAPIAllowed bool

	evaluated   bool
	result      Result
	score       float64
	suggestions []Suggestion
}

// Factor owns an ordered set of Operations and aggregates their weighted
// scores. Operations disabled by feature flags never make it into a Factor;
// the registry filters them out at construction time.
type Factor struct {
	Name        string
	DisplayName string
	Weight      float64

	states []*operationState
}

// NewFactor creates an empty factor.
func NewFactor(name, displayName string, weight float64) *Factor {
	return &Factor{Name: name, DisplayName: displayName, Weight: weight}
}

// Add appends an operation. suggestionsEnabled and externalAPIAllowed are
// the flag values resolved for this operation at tree-construction time.
func (f *Factor) Add(op Operation, suggestionsEnabled, externalAPIAllowed bool) {
	f.states = append(f.states, &operationState{
		op:                 op,
		suggestionsEnabled: suggestionsEnabled,
		externalAPIAllowed: externalAPIAllowed,
	})
}

// Evaluate runs every operation in order. A panicking operation is logged
// with diagnostic context and recorded as a failed result; its siblings
// still run.
func (f *Factor) Evaluate(ctx context.Context, postID int64, log *slog.Logger) {
	for _, st := range f.states {
		f.evaluateOne(ctx, postID, st, log)
	}
}

func (f *Factor) evaluateOne(ctx context.Context, postID int64, st *operationState, log *slog.Logger) {
	name := st.op.Descriptor().Name
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("operation panicked",
				slog.String("stage", "operation_run"),
				slog.String("operation", name),
				slog.String("factor", f.Name),
				slog.Int64("post_id", postID),
				slog.Duration("elapsed", time.Since(start)),
				slog.Float64("alloc_mb", allocMB()),
				slog.Any("panic", r),
			)
			st.result = Failure(fmt.Sprintf("operation panicked: %v", r))
			st.score = sanitizeScore(st.op.Score(st.result))
			st.suggestions = []Suggestion{}
			st.evaluated = true
		}
	}()

	st.result = st.op.Run(ctx, postID)
	st.score = sanitizeScore(st.op.Score(st.result))
	if st.suggestionsEnabled {
		st.suggestions = st.op.Suggestions(st.result)
	} else {
		st.suggestions = []Suggestion{}
	}
	st.evaluated = true
}

// Score is the weighted mean of the evaluated operations' scores. Zero
// evaluated operations score 0, never NaN.
func (f *Factor) Score() float64 {
	num, den := 0.0, 0.0
	for _, st := range f.states {
		if !st.evaluated {
			continue
		}
		w := st.op.Descriptor().Weight
		num += st.score * w
		den += w
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// Suggestions merges the child operations' suggestions in evaluation order,
// deduplicated by code(+keyword), each stamped with its originating
// operation and this factor for display.
func (f *Factor) Suggestions() []Suggestion {
	seen := make(map[string]bool)
	out := []Suggestion{}
	for _, st := range f.states {
		if !st.evaluated {
			continue
		}
		opName := st.op.Descriptor().Name
		for _, s := range st.suggestions {
			if seen[s.Key()] {
				continue
			}
			seen[s.Key()] = true
			s.OperationName = opName
			s.FactorName = f.Name
			out = append(out, s)
		}
	}
	return out
}

// OperationRecords snapshots the evaluated operations for persistence and
// reporting.
func (f *Factor) OperationRecords() []OperationRecord {
	out := make([]OperationRecord, 0, len(f.states))
	for _, st := range f.states {
		if !st.evaluated {
			continue
		}
		d := st.op.Descriptor()
		codes := make([]string, 0, len(st.suggestions))
		for _, s := range st.suggestions {
			codes = append(codes, string(s.Code))
		}
		out = append(out, OperationRecord{
			Name:               d.Name,
			DisplayName:        d.DisplayName,
			Weight:             d.Weight,
			Score:              st.score,
			Success:            st.result.Success(),
			ExternalAPIAllowed: st.externalAPIAllowed,
			Payload:            st.result,
			Suggestions:        codes,
		})
	}
	return out
}

// sanitizeScore clamps an operation score into [0,1] and maps NaN to 0, so
// a misbehaving rule cannot poison the aggregation.
func sanitizeScore(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
