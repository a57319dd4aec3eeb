package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hotreloadd/compileserver/internal/apperrors"
	"github.com/hotreloadd/compileserver/internal/differ"
	"github.com/hotreloadd/compileserver/internal/diffresult"
	"github.com/hotreloadd/compileserver/internal/patchcompile"
	"github.com/hotreloadd/compileserver/internal/sortutil"
)

// compileRun accumulates one compile cycle's diff result across however
// many assemblies the changed file set touches.
type compileRun struct {
	p      *Project
	diff   *diffresult.Result
	logger *zap.Logger
}

func newCompileRun(p *Project, logger *zap.Logger) *compileRun {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &compileRun{p: p, diff: diffresult.NewResult(), logger: logger}
}

// compileAssembly selects and compiles, then diffs, one assembly's
// changed files, merging the result into the run's diff.
func (r *compileRun) compileAssembly(ctx context.Context, assembly string, files []string) error {
	actx, ok := r.p.Index.Context(assembly)
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrUnknownAssembly, assembly)
	}

	selected := patchcompile.SelectInputFiles(r.p.Index, assembly, files)
	baselinePath := filepath.Join(r.p.Root.BaseDLL(), filepath.Base(actx.OutputPath))

	ledger := patchcompile.NewRenameLedger()
	in := patchcompile.Input{Context: actx, Files: selected, BaselinePath: baselinePath, RenameLedger: ledger}
	mod, diags, err := r.p.Compiler.Compile(ctx, in)
	if diags.HasErrors() {
		return fmt.Errorf("%w: %s", apperrors.ErrCompileFailed, diags.Concatenated())
	}
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrCompilerExited, err)
	}
	patchcompile.RestoreNames(mod, ledger)

	d := differ.Diff(r.p.Index, mod, files, r.logger)
	r.merge(d)
	r.logger.Info("assembly compiled", zap.String("assembly", assembly), zap.Int("types", len(d.Types)))
	return nil
}

func (r *compileRun) merge(d *diffresult.Result) {
	for typeName, td := range d.Types {
		existing, ok := r.diff.Types[typeName]
		if !ok {
			r.diff.Types[typeName] = td
			continue
		}
		for sig, mc := range td.Methods {
			existing.Methods[sig] = mc
		}
		for sig, fc := range td.Fields {
			existing.Fields[sig] = fc
		}
	}
}

// groupChangedFilesByAssembly partitions changedFiles by owning
// assembly, reporting how many files mapped to no known assembly so the
// caller can distinguish a partial-skip from a total failure.
func groupChangedFilesByAssembly(logger *zap.Logger, idx interface {
	GetAssemblyOf(file string) (string, bool)
}, changedFiles map[string]string) (map[string][]string, int, error) {
	out := make(map[string][]string)
	unknown := 0
	for f := range changedFiles {
		assembly, ok := idx.GetAssemblyOf(f)
		if !ok {
			unknown++
			logger.Warn("changed file maps to no known assembly", zap.String("file", f))
			continue
		}
		out[assembly] = append(out[assembly], f)
	}
	for assembly := range out {
		out[assembly] = sortutil.StablePathSort(out[assembly])
	}
	return out, unknown, nil
}
