// Package engine implements the SEO scoring tree: Operations grouped into
// Factors, Factors grouped into Contexts, and the Optimiser that evaluates
// the whole tree for a single post and folds the results into one score.
package engine

import "context"

// Availability tiers gate whether a rule applies for the current install.
const (
	TierFree         = "free"
	TierPro          = "pro"
	TierNotAvailable = "not_available"
)

// Descriptor carries the static metadata declared by each Operation type.
type Descriptor struct {
	// Name is the stable snake_case identifier used for feature-flag
	// resolution and persistence (e.g. "keyword_density_validation_operation").
	Name string `json:"name"`

	// DisplayName is the human-readable rule name shown in reports.
	DisplayName string `json:"display_name"`

	// Description explains what the rule checks.
	Description string `json:"description"`

	// Weight is the rule's static contribution to its Factor's weighted mean.
	Weight float64 `json:"weight"`

	// Tier is the availability tier: free, pro, or not_available.
	Tier string `json:"tier"`
}

// Result is the structured outcome of a single Operation run. Keys vary per
// rule; every rule sets "success" and zero-values its numeric fields when no
// data is found, so score and suggestion computation never have to guard
// against missing maps.
type Result map[string]any

// Success reports whether the run produced usable data.
func (r Result) Success() bool {
	return r.Bool("success")
}

// Bool returns the named field as a bool, false when absent or mistyped.
func (r Result) Bool(key string) bool {
	if r == nil {
		return false
	}
	v, _ := r[key].(bool)
	return v
}

// Float returns the named field as a float64, 0 when absent or mistyped.
// Integer values are widened rather than dropped.
func (r Result) Float(key string) float64 {
	if r == nil {
		return 0
	}
	switch v := r[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Int returns the named field as an int, 0 when absent or mistyped.
func (r Result) Int(key string) int {
	if r == nil {
		return 0
	}
	switch v := r[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// String returns the named field as a string, "" when absent or mistyped.
func (r Result) String(key string) string {
	if r == nil {
		return ""
	}
	v, _ := r[key].(string)
	return v
}

// Failure builds the canonical failed Result for expected empty-data
// conditions and caught collaborator errors.
func Failure(message string) Result {
	return Result{"success": false, "message": message}
}

// Operation is the contract every SEO rule implements. Run fetches whatever
// the rule needs from its content provider and returns raw findings; Score
// and Suggestions are pure functions of that Result and must tolerate an
// empty or partial one (defensive defaults, never a panic).
type Operation interface {
	Descriptor() Descriptor
	Run(ctx context.Context, postID int64) Result
	Score(r Result) float64
	Suggestions(r Result) []Suggestion
}
