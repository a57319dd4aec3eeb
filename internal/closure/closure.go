// Package closure implements transitive invalidation of generic-method
// callers via the call graph.
package closure

import (
	"github.com/hotreloadd/compileserver/internal/callgraph"
	"github.com/hotreloadd/compileserver/internal/diffresult"
	"github.com/hotreloadd/compileserver/internal/hookcache"
	"github.com/hotreloadd/compileserver/internal/ilmodel"
	"github.com/hotreloadd/compileserver/internal/signature"
)

// Lookup is everything the closure pass needs from the baseline index.
type Lookup interface {
	GetGenericCallers(calleeSignature signature.Method) []callgraph.Caller
	AssemblyOfType(typeFullName string) (string, bool)
	BaselineType(assembly, typeFullName string) *ilmodel.TypeDef
	GetLatestMethodDefinition(typeFullName string, sig signature.Method, baselineType *ilmodel.TypeDef) *ilmodel.MethodDef
}

// Close runs the closure pass over result in place, iterating to a
// fixpoint: every pass that introduces no new CallerOnly entries ends
// the loop.
func Close(lookup Lookup, result *diffresult.Result) {
	for {
		if !onePass(lookup, result) {
			return
		}
	}
}

func onePass(lookup Lookup, result *diffresult.Result) bool {
	changed := false

	// Snapshot the current generic-method seed set (both directly
	// Modified entries and CallerOnly entries that are themselves
	// generic, so a chain of generic callers closes over more than one
	// hop) before mutating result, so newly-added CallerOnly entries in
	// this pass are picked up only on the next pass (keeps the walk
	// breadth-first and avoids reprocessing an entry added moments ago
	// in the same pass).
	type target struct {
		sig signature.Method
	}
	var targets []target
	for _, td := range result.Types {
		for sig, mc := range td.Methods {
			if mc.State != hookcache.Modified && mc.State != hookcache.CallerOnly {
				continue
			}
			if mc.Method == nil || !mc.Method.IsGeneric {
				continue
			}
			targets = append(targets, target{sig: sig})
		}
	}

	for _, t := range targets {
		for _, caller := range lookup.GetGenericCallers(t.sig) {
			if addCallerOnly(lookup, result, caller) {
				changed = true
			}
		}
	}
	return changed
}

func addCallerOnly(lookup Lookup, result *diffresult.Result, caller callgraph.Caller) bool {
	assembly, _ := lookup.AssemblyOfType(caller.DeclaringType)
	td, existed := result.Types[caller.DeclaringType]
	if !existed {
		td = result.TypeDiffFor(caller.DeclaringType, assembly, nil)
	}
	if _, already := td.Methods[caller.Signature]; already {
		return false
	}
	baselineType := lookup.BaselineType(assembly, caller.DeclaringType)
	md := lookup.GetLatestMethodDefinition(caller.DeclaringType, caller.Signature, baselineType)
	if md == nil {
		return false
	}
	td.Methods[caller.Signature] = &diffresult.MethodChange{Method: md, State: hookcache.CallerOnly}
	return true
}
