// Package diffresult is the shared per-compile-cycle diff result
// produced by the structural differ, extended by the generic-call
// closure pass, consumed by the IL rewriter, and finally merged into
// the hook cache to build the manifest response.
//
// Kept as its own package (rather than living inside the differ) so
// closure, rewriter, and hookcache can all depend on the shape without
// creating an import cycle with the differ itself.
package diffresult

import (
	"github.com/hotreloadd/compileserver/internal/hookcache"
	"github.com/hotreloadd/compileserver/internal/ilmodel"
	"github.com/hotreloadd/compileserver/internal/signature"
)

// MethodChange records one method's classification for this cycle plus
// the patched definition the rewriter must operate on.
type MethodChange struct {
	Method *ilmodel.MethodDef
	State  hookcache.MemberModifyState
}

// FieldChange records one added field for this cycle.
type FieldChange struct {
	Field *ilmodel.FieldDef
}

// TypeDiff is the per-type diff result: the patch-assembly reference
// plus the modified-methods and added-fields mappings named in the
// specification's data model.
type TypeDiff struct {
	TypeFullName string
	Assembly     string
	PatchModule  *ilmodel.Module

	Methods map[signature.Method]*MethodChange
	Fields  map[signature.Field]*FieldChange
}

// NewTypeDiff returns an empty TypeDiff for typeFullName.
func NewTypeDiff(typeFullName, assembly string, patch *ilmodel.Module) *TypeDiff {
	return &TypeDiff{
		TypeFullName: typeFullName,
		Assembly:     assembly,
		PatchModule:  patch,
		Methods:      make(map[signature.Method]*MethodChange),
		Fields:       make(map[signature.Field]*FieldChange),
	}
}

// Result is the full per-compile-cycle diff: one TypeDiff per touched
// type, keyed by fully-qualified type name.
type Result struct {
	Types map[string]*TypeDiff
}

// NewResult returns an empty Result.
func NewResult() *Result {
	return &Result{Types: make(map[string]*TypeDiff)}
}

// TypeDiffFor returns (creating if absent) the TypeDiff for
// typeFullName, attaching patch as its module reference the first time.
func (r *Result) TypeDiffFor(typeFullName, assembly string, patch *ilmodel.Module) *TypeDiff {
	td, ok := r.Types[typeFullName]
	if !ok {
		td = NewTypeDiff(typeFullName, assembly, patch)
		r.Types[typeFullName] = td
	}
	return td
}

// IsEmpty reports whether no type has any recorded change: recompiling
// an unmodified source file should produce an empty result.
func (r *Result) IsEmpty() bool {
	for _, td := range r.Types {
		if len(td.Methods) > 0 || len(td.Fields) > 0 {
			return false
		}
	}
	return true
}
