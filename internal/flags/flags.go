// Package flags implements the feature-flag table gating the rule tree.
// Flags are resolved through a four-level override chain: an
// operation-specific value wins over its factor's, which wins over its
// context's, which wins over the global default. A level that does not
// mention a flag inherits from the level above it.
package flags

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Flag names understood by the resolver.
const (
	Available         = "available"
	ExternalAPICall   = "external_api_call"
	EnableSuggestions = "enable_suggestions"
)

// builtin defaults apply when no level of the table mentions a flag.
var builtin = map[string]bool{
	Available:         true,
	ExternalAPICall:   false,
	EnableSuggestions: true,
}

// Table is the static nested flag configuration. It is loaded once per
// analysis run and never cached across runs, since the file may change
// between invocations.
type Table struct {
	Global     map[string]bool            `yaml:"global"`
	Contexts   map[string]map[string]bool `yaml:"contexts"`
	Factors    map[string]map[string]bool `yaml:"factors"`
	Operations map[string]map[string]bool `yaml:"operations"`
}

// Load reads a flag table from a YAML file. A missing file yields an empty
// table (builtin defaults everywhere), not an error.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading flag table: %w", err)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing flag table %s: %w", path, err)
	}
	return &t, nil
}

// Resolve returns the effective value of flag for the node identified by
// the operation/factor/context name triple. Empty names skip their level,
// so factor-level resolution passes operation="".
func (t *Table) Resolve(flag, operation, factor, context string) bool {
	if t != nil {
		if v, ok := lookup(t.Operations, operation, flag); ok {
			return v
		}
		if v, ok := lookup(t.Factors, factor, flag); ok {
			return v
		}
		if v, ok := lookup(t.Contexts, context, flag); ok {
			return v
		}
		if v, ok := t.Global[flag]; ok {
			return v
		}
	}
	return builtin[flag]
}

func lookup(level map[string]map[string]bool, name, flag string) (bool, bool) {
	if name == "" {
		return false, false
	}
	overrides, ok := level[name]
	if !ok {
		return false, false
	}
	v, ok := overrides[flag]
	return v, ok
}
