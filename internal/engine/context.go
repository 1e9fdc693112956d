package engine

import (
	"context"
	"log/slog"
)

// Context groups related Factors (e.g. "Content Quality") and aggregates
// their weighted scores one level below the Optimiser.
type Context struct {
	Name        string
	DisplayName string
	Weight      float64

	factors []*Factor
}

// NewContext creates an empty context.
func NewContext(name, displayName string, weight float64) *Context {
	return &Context{Name: name, DisplayName: displayName, Weight: weight}
}

// Add appends a factor.
func (c *Context) Add(f *Factor) {
	c.factors = append(c.factors, f)
}

// Factors returns the owned factors in evaluation order.
func (c *Context) Factors() []*Factor {
	return c.factors
}

// Evaluate runs every factor in order.
func (c *Context) Evaluate(ctx context.Context, postID int64, log *slog.Logger) {
	for _, f := range c.factors {
		f.Evaluate(ctx, postID, log)
	}
}

// Score is the weighted mean of the factor scores. Zero factors score 0.
func (c *Context) Score() float64 {
	num, den := 0.0, 0.0
	for _, f := range c.factors {
		num += f.Score() * f.Weight
		den += f.Weight
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// Suggestions merges the factor suggestions in order, deduplicated by
// code(+keyword), each stamped with this context for display.
func (c *Context) Suggestions() []Suggestion {
	seen := make(map[string]bool)
	out := []Suggestion{}
	for _, f := range c.factors {
		for _, s := range f.Suggestions() {
			if seen[s.Key()] {
				continue
			}
			seen[s.Key()] = true
			s.ContextName = c.Name
			out = append(out, s)
		}
	}
	return out
}
