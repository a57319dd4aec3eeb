// Package differ implements per-type dispatch, method body-equivalence,
// and field-added detection.
package differ

import (
	"go.uber.org/zap"

	"github.com/hotreloadd/compileserver/internal/diffresult"
	"github.com/hotreloadd/compileserver/internal/hookcache"
	"github.com/hotreloadd/compileserver/internal/ilmodel"
	"github.com/hotreloadd/compileserver/internal/signature"
)

// Lookup is everything the differ needs from the Baseline Index plus
// hook cache. Satisfied by *baseline.Index.
type Lookup interface {
	GetTypesIn(files []string) []string
	AssemblyOfType(typeFullName string) (string, bool)
	BaselineType(assembly, typeFullName string) *ilmodel.TypeDef
	TypeExistsInHookCache(typeFullName string) bool
	GetLatestMethodDefinition(typeFullName string, sig signature.Method, baselineType *ilmodel.TypeDef) *ilmodel.MethodDef
	HookFieldExists(typeFullName string, sig signature.Field) bool
}

// Diff compares every type declared by changedFiles against the latest
// known reference definitions. A nil logger is treated as a no-op
// logger; when non-nil, every method found Modified is explained at
// Debug level via Explain's unified body diff.
func Diff(lookup Lookup, patchModule *ilmodel.Module, changedFiles []string, logger *zap.Logger) *diffresult.Result {
	if logger == nil {
		logger = zap.NewNop()
	}
	result := diffresult.NewResult()
	for _, typeName := range lookup.GetTypesIn(changedFiles) {
		patchType := patchModule.FindType(typeName)
		if patchType == nil {
			continue
		}
		assembly, _ := lookup.AssemblyOfType(typeName)
		diffOneType(lookup, result, patchModule, patchType, assembly, logger)
	}
	return result
}

func diffOneType(lookup Lookup, result *diffresult.Result, patchModule *ilmodel.Module, patchType *ilmodel.TypeDef, assembly string, logger *zap.Logger) {
	baselineType := lookup.BaselineType(assembly, patchType.FullName)
	existsInHookCache := lookup.TypeExistsInHookCache(patchType.FullName)

	td := result.TypeDiffFor(patchType.FullName, assembly, patchModule)

	if baselineType == nil && !existsInHookCache {
		// New-in-this-cycle type: every non-constructor, non-accessor
		// method is Added, every field is Added, no per-member compare.
		for _, m := range patchType.Methods {
			sig := signature.Method(m.Signature)
			if sig.IsConstructor() || sig.IsAccessor() {
				continue
			}
			td.Methods[sig] = &diffresult.MethodChange{Method: m, State: hookcache.Added}
		}
		for _, f := range patchType.Fields {
			sig := signature.BuildField(f.FieldType, f.DeclaringType, f.Name)
			td.Fields[sig] = &diffresult.FieldChange{Field: f}
		}
		return
	}

	for _, m := range patchType.Methods {
		sig := signature.Method(m.Signature)
		latest := lookup.GetLatestMethodDefinition(patchType.FullName, sig, baselineType)
		if latest == nil {
			td.Methods[sig] = &diffresult.MethodChange{Method: m, State: hookcache.Added}
			continue
		}
		if !BodiesEqual(m, latest, patchModule) {
			td.Methods[sig] = &diffresult.MethodChange{Method: m, State: hookcache.Modified}
			if diffText, err := Explain(patchType.FullName+"::"+string(sig), latest, m); err == nil {
				logger.Debug("method body changed", zap.String("type", patchType.FullName), zap.String("diff", diffText))
			}
		}
	}

	for _, f := range patchType.Fields {
		sig := signature.BuildField(f.FieldType, f.DeclaringType, f.Name)
		if fieldExistsInBaseline(baselineType, f.Name) {
			continue
		}
		if lookup.HookFieldExists(patchType.FullName, sig) {
			continue
		}
		td.Fields[sig] = &diffresult.FieldChange{Field: f}
	}
}

func fieldExistsInBaseline(t *ilmodel.TypeDef, name string) bool {
	if t == nil {
		return false
	}
	for _, f := range t.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}
