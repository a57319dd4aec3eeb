package patchcompile

import (
	"context"
	"fmt"

	"github.com/hotreloadd/compileserver/internal/apperrors"
	"github.com/hotreloadd/compileserver/internal/ilmodel"
)

// FixtureCompiler builds an ilmodel.Module directly from a declarative
// map of file path -> module, bypassing any external toolchain. Compile
// round trips are specified at the level of method signatures and
// change records, not literal source text, so a fixture-built module is
// a faithful, deterministic stand-in for tests.
type FixtureCompiler struct {
	// Modules maps each source file path to the *TypeDef set that file
	// "compiles to" for this fixture. A real compiler would derive this
	// from parsing; tests build it directly.
	Modules map[string][]*ilmodel.TypeDef
	// FailFiles, if set, causes Compile to return a CompileError
	// diagnostic for any input file present in this set, simulating a
	// broken edit.
	FailFiles map[string]Diagnostic
}

func (f FixtureCompiler) Compile(_ context.Context, in Input) (*ilmodel.Module, Diagnostics, error) {
	var diags Diagnostics
	for _, file := range in.Files {
		if d, bad := f.FailFiles[file]; bad {
			diags = append(diags, d)
		}
	}
	if diags.HasErrors() {
		return nil, diags, apperrors.ErrCompileFailed
	}

	mod := &ilmodel.Module{Name: in.Context.Name}
	seen := make(map[string]bool)
	for _, file := range in.Files {
		types, ok := f.Modules[file]
		if !ok {
			return nil, diags, fmt.Errorf("patchcompile: fixture has no types for %s", file)
		}
		for _, t := range types {
			if seen[t.FullName] {
				continue
			}
			seen[t.FullName] = true
			mod.Types = append(mod.Types, t)
		}
	}
	if in.RenameLedger != nil {
		ApplyRenames(mod, in.RenameLedger)
	}
	return mod, diags, nil
}
