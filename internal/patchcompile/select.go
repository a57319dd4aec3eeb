package patchcompile

import "github.com/hotreloadd/compileserver/internal/sortutil"

// TypeLookup resolves the file set the patch compiler must add for
// types that previously received added members, so a partial recompile
// never loses those members.
type TypeLookup interface {
	GetFilesOf(typeName string) []string
	HasAddedMember(typeFullName, assembly string) bool
}

// Selector exposes the set of all known types for an assembly, needed
// to find which ones carry added members.
type Selector interface {
	TypeLookup
	AllTypes(assembly string) []string
}

// SelectInputFiles resolves the final compilation-input file set: the
// changed files themselves, plus every file belonging to a type that
// previously received an added method or field for this assembly.
func SelectInputFiles(sel Selector, assembly string, changedFiles []string) []string {
	set := make(map[string]bool, len(changedFiles))
	for _, f := range changedFiles {
		set[f] = true
	}
	for _, t := range sel.AllTypes(assembly) {
		if !sel.HasAddedMember(t, assembly) {
			continue
		}
		for _, f := range sel.GetFilesOf(t) {
			set[f] = true
		}
	}
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	return sortutil.StablePathSort(out)
}
