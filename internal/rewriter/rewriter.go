// Package rewriter implements field-resolver call-sequence synthesis
// for added fields, baseline identity rebinding, call-graph refresh,
// and patch persistence.
package rewriter

import (
	"fmt"

	"github.com/hotreloadd/compileserver/internal/diffresult"
	"github.com/hotreloadd/compileserver/internal/hookcache"
	"github.com/hotreloadd/compileserver/internal/ilmodel"
	"github.com/hotreloadd/compileserver/internal/store"
)

// FieldResolverNamespace is where the field resolver contract types
// live; used to build the generic MethodReference operands the
// rewrite emits.
const FieldResolverNamespace = "HotReload.FieldResolver"

// CallGraphUpdater refreshes the call graph after a method body is
// rewritten, satisfied by *baseline.Index.
type CallGraphUpdater interface {
	UpdateCallGraph(declaringType string, m *ilmodel.MethodDef)
	BaselineType(assembly, typeFullName string) *ilmodel.TypeDef
}

// Rewriter applies field-access and identity rebinding to a diff
// result, then persists the resulting patch module.
type Rewriter struct {
	Hooks   *hookcache.Cache
	Graph   CallGraphUpdater
	Root    *store.Root
	Codec   ilmodel.Codec
}

// TouchedByType is the per-type touched-member set this cycle, handed
// to hookcache.Builder to shrink the manifest response.
type TouchedByType map[string]hookcache.TouchedSet

// Run rewrites every type in result, persists patch modules, appends
// hook history, and returns the touched-member sets for the manifest
// builder.
func (rw *Rewriter) Run(result *diffresult.Result) (TouchedByType, error) {
	touched := make(TouchedByType, len(result.Types))

	// Group type diffs by assembly so each assembly's changes land in
	// one patch module file, matching the "<assembly>---<uuid>.dll"
	// per-assembly emission unit.
	byAssembly := make(map[string][]*diffresult.TypeDiff)
	for _, td := range result.Types {
		if len(td.Methods) == 0 && len(td.Fields) == 0 {
			continue
		}
		byAssembly[td.Assembly] = append(byAssembly[td.Assembly], td)
	}

	for assembly, typeDiffs := range byAssembly {
		patchPath, err := rw.rewriteAndPersist(assembly, typeDiffs)
		if err != nil {
			return nil, err
		}
		for _, td := range typeDiffs {
			ts := hookcache.TouchedSet{}
			for sig, mc := range td.Methods {
				state := mc.State
				rw.Hooks.RecordMethod(td.TypeFullName, assembly, sig, sig, mc.Method.IsGeneric, state, patchPath)
				ts.Methods = append(ts.Methods, sig)
			}
			for sig, fc := range td.Fields {
				rw.Hooks.RecordField(td.TypeFullName, assembly, sig, fc.Field.Name, hookcache.Added)
				ts.Fields = append(ts.Fields, sig)
			}
			touched[td.TypeFullName] = ts
		}
	}

	return touched, nil
}

func (rw *Rewriter) rewriteAndPersist(assembly string, typeDiffs []*diffresult.TypeDiff) (string, error) {
	mod := &ilmodel.Module{Name: assembly}
	for _, td := range typeDiffs {
		t := &ilmodel.TypeDef{FullName: td.TypeFullName}
		addedFields := make(map[string]*ilmodel.FieldDef, len(td.Fields))
		for _, fc := range td.Fields {
			addedFields[fc.Field.Name] = fc.Field
		}
		for _, mc := range td.Methods {
			RewriteMethod(mc.Method, assembly, addedFields, rw.Graph)
			t.Methods = append(t.Methods, mc.Method)
			if rw.Graph != nil {
				rw.Graph.UpdateCallGraph(td.TypeFullName, mc.Method)
			}
		}
		for _, fc := range td.Fields {
			t.Fields = append(t.Fields, fc.Field)
		}
		mod.Types = append(mod.Types, t)
	}

	if rw.Root == nil {
		return "", nil
	}
	dllName, _ := store.NewPatchFilename(assembly)
	data, err := rw.Codec.Encode(mod)
	if err != nil {
		return "", fmt.Errorf("rewriter: encode patch module: %w", err)
	}
	if _, err := rw.Root.WriteTemp(dllName, data); err != nil {
		return "", fmt.Errorf("rewriter: write temp module: %w", err)
	}
	finalPath, err := rw.Root.Promote(dllName)
	if err != nil {
		return "", fmt.Errorf("rewriter: promote module: %w", err)
	}
	return finalPath, nil
}
