package patchcompile

import "github.com/hotreloadd/compileserver/internal/ilmodel"

// ExtensionMarkerAttr is the synthetic attribute name this server uses
// to recognize an extension-method static container, mirrored onto
// ilmodel.TypeDef.Attrs by the compiler frontend for types declared
// with the host language's extension-method marker.
const ExtensionMarkerAttr = "ExtensionMarker"

// renameSuffix is the sentinel suffix applied to every method of an
// extension-method container during compilation.
const renameSuffix = "__Patch__"

// RenameLedger records, for each renamed method, its exact original
// name, keyed by declaring type and ordinal position within the type's
// method list. Restoring by ledger entry rather than by heuristically
// stripping renameSuffix means restoration does not depend on any
// extension-marker attribute surviving into the emitted module.
type RenameLedger struct {
	entries map[string][]string // declaringType -> original names, by ordinal
}

// NewRenameLedger returns an empty ledger.
func NewRenameLedger() *RenameLedger {
	return &RenameLedger{entries: make(map[string][]string)}
}

// ApplyRenames renames every method of every type carrying
// ExtensionMarkerAttr, recording original names into the ledger before
// mutating the name.
func ApplyRenames(mod *ilmodel.Module, ledger *RenameLedger) {
	for _, t := range mod.Types {
		if !t.HasAttr(ExtensionMarkerAttr) {
			continue
		}
		names := make([]string, len(t.Methods))
		for i, m := range t.Methods {
			names[i] = m.Name
			m.Name = m.Name + renameSuffix
		}
		ledger.entries[t.FullName] = names
	}
}

// RestoreNames reverses ApplyRenames using the recorded original names
// as the post-emit step.
func RestoreNames(mod *ilmodel.Module, ledger *RenameLedger) {
	for _, t := range mod.Types {
		names, ok := ledger.entries[t.FullName]
		if !ok {
			continue
		}
		for i, m := range t.Methods {
			if i < len(names) {
				m.Name = names[i]
			}
		}
	}
}
