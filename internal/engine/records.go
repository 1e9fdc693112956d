package engine

import (
	"context"
	"time"
)

// OperationRecord is the persisted snapshot of one evaluated operation.
type OperationRecord struct {
	ID                 int64    `json:"id,omitempty"`
	Name               string   `json:"name"`
	DisplayName        string   `json:"display_name"`
	Weight             float64  `json:"weight"`
	Score              float64  `json:"score"`
	Success            bool     `json:"success"`
	ExternalAPIAllowed bool     `json:"external_api_allowed"`
	Payload            Result   `json:"payload,omitempty"`
	Suggestions        []string `json:"suggestions,omitempty"`
}

// FactorRecord is the persisted snapshot of one factor and its operations.
type FactorRecord struct {
	ID          int64             `json:"id,omitempty"`
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Weight      float64           `json:"weight"`
	Score       float64           `json:"score"`
	Operations  []OperationRecord `json:"operations"`
}

// ContextRecord is the persisted snapshot of one context and its factors.
type ContextRecord struct {
	ID          int64          `json:"id,omitempty"`
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name"`
	Weight      float64        `json:"weight"`
	Score       float64        `json:"score"`
	Factors     []FactorRecord `json:"factors"`
}

// AnalysisRecord is the persisted snapshot of one full analysis pass.
type AnalysisRecord struct {
	ID         int64           `json:"id,omitempty"`
	PostID     int64           `json:"post_id"`
	Score      float64         `json:"score"`
	AnalyzedAt time.Time       `json:"analyzed_at"`
	Contexts   []ContextRecord `json:"contexts"`
}

// Repository persists analysis trees. Implementations must make
// ReplaceAnalysis atomic per post: the previous tree for the post is
// removed and the new one inserted in a single transaction, so a re-run
// replaces rather than duplicates and a failure leaves the old tree
// intact.
type Repository interface {
	// ReplaceAnalysis swaps the stored tree for rec.PostID and returns the
	// record with all row IDs assigned.
	ReplaceAnalysis(ctx context.Context, rec AnalysisRecord) (AnalysisRecord, error)

	// LatestAnalysis returns the stored tree for the post, or nil when the
	// post has never been analyzed.
	LatestAnalysis(ctx context.Context, postID int64) (*AnalysisRecord, error)

	// SavePostMeta mirrors the final score onto lightweight post metadata
	// for fast external reads.
	SavePostMeta(ctx context.Context, postID int64, score float64, analyzedAt time.Time) error
}
