package engine

import "github.com/seoscope/seoscope/internal/flags"

// FactorSpec declares one factor and its operations in the registry.
type FactorSpec struct {
	Name        string
	DisplayName string
	Weight      float64
	Operations  []Operation
}

// ContextSpec declares one context and its factors in the registry.
type ContextSpec struct {
	Name        string
	DisplayName string
	Weight      float64
	Factors     []FactorSpec
}

// Registry is the static declaration of the full rule tree for one site.
// The Optimiser constructs a fresh, flag-filtered tree from it on every
// analysis pass.
type Registry []ContextSpec

// FlagResolver resolves a feature flag for a node through the four-level
// override chain. *flags.Table satisfies it.
type FlagResolver interface {
	Resolve(flag, operation, factor, context string) bool
}

// BuildContexts constructs the evaluation tree from the registry, dropping
// contexts, factors, and operations whose availability resolves false and
// operations declared not_available by tier. Per-operation
// enable_suggestions and external_api_call values are resolved here and
// frozen into the tree for this pass.
func BuildContexts(reg Registry, fl FlagResolver) []*Context {
	var contexts []*Context
	for _, cs := range reg {
		if !fl.Resolve(flags.Available, "", "", cs.Name) {
			continue
		}
		c := NewContext(cs.Name, cs.DisplayName, cs.Weight)
		for _, fs := range cs.Factors {
			if !fl.Resolve(flags.Available, "", fs.Name, cs.Name) {
				continue
			}
			f := NewFactor(fs.Name, fs.DisplayName, fs.Weight)
			for _, op := range fs.Operations {
				d := op.Descriptor()
				if d.Tier == TierNotAvailable {
					continue
				}
				if !fl.Resolve(flags.Available, d.Name, fs.Name, cs.Name) {
					continue
				}
				f.Add(op,
					fl.Resolve(flags.EnableSuggestions, d.Name, fs.Name, cs.Name),
					fl.Resolve(flags.ExternalAPICall, d.Name, fs.Name, cs.Name),
				)
			}
			c.Add(f)
		}
		contexts = append(contexts, c)
	}
	return contexts
}

// Filter selects a subtree for partial analysis. Empty slices mean "no
// restriction at that level".
type Filter struct {
	Contexts   []string
	Factors    []string
	Operations []string
}

func (f Filter) allows(names []string, name string) bool {
	if len(names) == 0 {
		return true
	}
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// Apply narrows a registry to the filtered subtree.
func (f Filter) Apply(reg Registry) Registry {
	var out Registry
	for _, cs := range reg {
		if !f.allows(f.Contexts, cs.Name) {
			continue
		}
		filtered := ContextSpec{Name: cs.Name, DisplayName: cs.DisplayName, Weight: cs.Weight}
		for _, fs := range cs.Factors {
			if !f.allows(f.Factors, fs.Name) {
				continue
			}
			ffs := FactorSpec{Name: fs.Name, DisplayName: fs.DisplayName, Weight: fs.Weight}
			for _, op := range fs.Operations {
				if f.allows(f.Operations, op.Descriptor().Name) {
					ffs.Operations = append(ffs.Operations, op)
				}
			}
			if len(ffs.Operations) > 0 {
				filtered.Factors = append(filtered.Factors, ffs)
			}
		}
		if len(filtered.Factors) > 0 {
			out = append(out, filtered)
		}
	}
	return out
}
