package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ScopeFilters is the configurable list of case-sensitive substrings
// that mark a callee's owning module scope as out of bounds for
// patching (host engine, standard library). Kept out of the compiled
// binary since the set is host-dependent and must be configuration,
// not a baked-in constant.
type ScopeFilters struct {
	Substrings []string `yaml:"excluded_scope_substrings"`
}

// DefaultScopeFilters seeds the filter list the way the source system
// ships it, before any site-specific configuration is layered on.
func DefaultScopeFilters() ScopeFilters {
	return ScopeFilters{Substrings: []string{"System", "mscorlib", "HostEngine"}}
}

// LoadScopeFilters reads a YAML scope-filter file; an empty path
// returns DefaultScopeFilters.
func LoadScopeFilters(path string) (ScopeFilters, error) {
	if path == "" {
		return DefaultScopeFilters(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ScopeFilters{}, err
	}
	var sf ScopeFilters
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return ScopeFilters{}, err
	}
	if len(sf.Substrings) == 0 {
		return DefaultScopeFilters(), nil
	}
	return sf, nil
}

// Excluded implements callgraph.ScopeFilter: the callee scope is
// excluded if it case-sensitive-substring-matches any configured
// filter.
func (sf ScopeFilters) Excluded(scopeName string) bool {
	for _, s := range sf.Substrings {
		if strings.Contains(scopeName, s) {
			return true
		}
	}
	return false
}
