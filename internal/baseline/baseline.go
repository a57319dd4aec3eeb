// Package baseline parses every baseline module, indexes
// type/file/import relationships, and builds the process-wide method
// call graph.
package baseline

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hotreloadd/compileserver/internal/assemblyctx"
	"github.com/hotreloadd/compileserver/internal/callgraph"
	"github.com/hotreloadd/compileserver/internal/hookcache"
	"github.com/hotreloadd/compileserver/internal/ilmodel"
	"github.com/hotreloadd/compileserver/internal/signature"
	"github.com/hotreloadd/compileserver/internal/sortutil"
	"github.com/hotreloadd/compileserver/internal/store"
)

// ModuleLoader loads a compiled module from disk. The production
// implementation is ilmodel.Codec; tests inject one backed by in-memory
// fixtures.
type ModuleLoader interface {
	Load(path string) (*ilmodel.Module, error)
}

// Index is the process-wide Baseline Index for one project.
type Index struct {
	mu sync.RWMutex

	contexts map[string]assemblyctx.Context // by assembly name
	fileToAssembly map[string]string
	typeToFiles    map[string][]string // type full name -> owning files
	fileToTypes    map[string][]string
	typeToAssembly map[string]string
	importsByAssembly map[string][]string

	baselineModules map[string]*ilmodel.Module // by assembly name

	Graph *callgraph.Graph
	Bimap *signature.Bimap
	Hooks *hookcache.Cache

	loader ModuleLoader
	root   *store.Root
	filter callgraph.ScopeFilter
	logger *zap.Logger
}

// New constructs an empty Index. filter selects which call-graph
// callees are retained; loader reads compiled modules from disk; root
// is the per-project on-disk cache layout (BaseDLL/Output/OutputTemp).
// A nil logger is treated as a no-op logger.
func New(filter callgraph.ScopeFilter, loader ModuleLoader, root *store.Root, hooks *hookcache.Cache, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{
		contexts:          make(map[string]assemblyctx.Context),
		fileToAssembly:    make(map[string]string),
		typeToFiles:       make(map[string][]string),
		fileToTypes:       make(map[string][]string),
		typeToAssembly:    make(map[string]string),
		importsByAssembly: make(map[string][]string),
		baselineModules:   make(map[string]*ilmodel.Module),
		Graph:             callgraph.New(filter),
		Bimap:             signature.NewBimap(),
		Hooks:             hooks,
		loader:            loader,
		root:              root,
		filter:            filter,
		logger:            logger,
	}
}

// Initialize purges prior state and rebuilds the index from contexts.
func (idx *Index) Initialize(contexts map[string]assemblyctx.Context) error {
	idx.logger.Info("baseline index rebuild starting", zap.Int("assemblies", len(contexts)))

	idx.mu.Lock()
	idx.contexts = make(map[string]assemblyctx.Context, len(contexts))
	idx.fileToAssembly = make(map[string]string)
	idx.typeToFiles = make(map[string][]string)
	idx.fileToTypes = make(map[string][]string)
	idx.typeToAssembly = make(map[string]string)
	idx.importsByAssembly = make(map[string][]string)
	idx.baselineModules = make(map[string]*ilmodel.Module)
	for name, ctx := range contexts {
		idx.contexts[name] = ctx
	}
	idx.mu.Unlock()

	idx.Hooks.Reset()
	idx.Graph = callgraph.New(idx.filter)
	idx.Bimap = signature.NewBimap()

	// Partition invariant: each source file belongs to exactly one
	// assembly.
	seen := make(map[string]string)
	for name, ctx := range contexts {
		for _, f := range ctx.SourceFiles {
			if owner, ok := seen[f]; ok && owner != name {
				return fmt.Errorf("baseline: %s claimed by both %s and %s", f, owner, name)
			}
			seen[f] = name
		}
	}

	for name, ctx := range contexts {
		if err := idx.copyBaselineFiles(ctx); err != nil {
			return err
		}
		if err := idx.indexSources(name, ctx); err != nil {
			return err
		}
		mod, err := idx.loader.Load(ctx.OutputPath)
		if err != nil {
			return fmt.Errorf("baseline: load baseline module %s: %w", ctx.OutputPath, err)
		}
		idx.mu.Lock()
		idx.baselineModules[name] = mod
		idx.mu.Unlock()
	}

	if err := idx.buildCallGraph(contexts); err != nil {
		return err
	}
	idx.logger.Info("baseline index rebuild complete", zap.Int("assemblies", len(contexts)))
	return nil
}

func (idx *Index) copyBaselineFiles(ctx assemblyctx.Context) error {
	if idx.root == nil {
		return nil
	}
	if _, err := idx.root.WriteBaseDLL(ctx.OutputPath); err != nil {
		return err
	}
	for _, ref := range ctx.References {
		if _, err := idx.root.WriteBaseDLL(ref.Path); err != nil {
			return fmt.Errorf("baseline: copy reference %s: %w", ref.Name, err)
		}
	}
	return nil
}

func (idx *Index) indexSources(assembly string, ctx assemblyctx.Context) error {
	var allImports []string
	for _, f := range ctx.SourceFiles {
		data, err := readFile(f)
		if err != nil {
			idx.logger.Warn("skipping unreadable source file during indexing",
				zap.String("file", f), zap.String("assembly", assembly), zap.Error(err))
			continue
		}
		imports, types := scanSource(data)
		allImports = append(allImports, imports...)

		idx.mu.Lock()
		idx.fileToAssembly[f] = assembly
		idx.fileToTypes[f] = types
		for _, t := range types {
			idx.typeToFiles[t] = append(idx.typeToFiles[t], f)
			idx.typeToAssembly[t] = assembly
		}
		idx.mu.Unlock()
	}
	idx.mu.Lock()
	idx.importsByAssembly[assembly] = uniqueStrings(allImports)
	idx.mu.Unlock()
	return nil
}

// buildCallGraph walks every baseline module's method bodies, fanning
// out one task per top-level type under a bounded-parallelism group.
func (idx *Index) buildCallGraph(contexts map[string]assemblyctx.Context) error {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for assembly := range contexts {
		mod := idx.baselineModules[assembly]
		if mod == nil {
			continue
		}
		for _, t := range mod.Types {
			t := t
			g.Go(func() error {
				idx.walkTypeForCallGraph(t)
				return nil
			})
		}
	}
	return g.Wait()
}

func (idx *Index) walkTypeForCallGraph(t *ilmodel.TypeDef) {
	for _, m := range t.Methods {
		caller := callgraph.Caller{DeclaringType: t.FullName, Signature: signature.Method(m.Signature)}
		idx.registerMethodCalls(m, caller)
	}
}

func (idx *Index) registerMethodCalls(m *ilmodel.MethodDef, caller callgraph.Caller) {
	for _, inst := range m.Body {
		if inst.Operand.Kind != ilmodel.OperandMethodRef || inst.Operand.MethodRef == nil {
			continue
		}
		if inst.Op != ilmodel.OpCall && inst.Op != ilmodel.OpCallvirt && inst.Op != ilmodel.OpNewobj {
			continue
		}
		mr := inst.Operand.MethodRef
		idx.Graph.AddEdge(mr.Scope, signature.Method(mr.Signature), caller)
		if m.IsGeneric {
			// Nothing to bimap here: call sites only ever carry
			// reference-form signatures. Bimap entries are added only
			// through RegisterGenericDefinition, which this walk does
			// not call.
			_ = mr
		}
	}
}

// RegisterGenericDefinition records the definition-form/reference-form
// bijection for a generic method definition on a user type. Neither
// Initialize nor the rewriter calls it, so the Bimap holds only the
// pairs registered through this method by its callers.
func (idx *Index) RegisterGenericDefinition(def, ref signature.Method) {
	idx.Bimap.Register(def, ref)
}

// Context returns the assembly context passed to Initialize for
// assembly, if known.
func (idx *Index) Context(assembly string) (assemblyctx.Context, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ctx, ok := idx.contexts[assembly]
	return ctx, ok
}

// GetAssemblyOf returns the assembly owning file, if known.
func (idx *Index) GetAssemblyOf(file string) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	a, ok := idx.fileToAssembly[file]
	return a, ok
}

// GetTypesIn returns the union of types declared across files.
func (idx *Index) GetTypesIn(files []string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, f := range files {
		for _, t := range idx.fileToTypes[f] {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return sortutil.StablePathSort(out)
}

// GetFilesOf returns the files declaring typeName.
func (idx *Index) GetFilesOf(typeName string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return sortutil.StablePathSort(idx.typeToFiles[typeName])
}

// AllTypes returns every type name known to declare at least one
// source file belonging to assembly.
func (idx *Index) AllTypes(assembly string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []string
	for t, a := range idx.typeToAssembly {
		if a == assembly {
			out = append(out, t)
		}
	}
	return sortutil.StablePathSort(out)
}

// HasAddedMember delegates to the hook cache, exposed here so the
// patch compiler's Selector interface can be satisfied by the baseline
// Index directly.
func (idx *Index) HasAddedMember(typeFullName, assembly string) bool {
	return idx.Hooks.HasAddedMember(typeFullName, assembly)
}

// AssemblyOfType returns the assembly that declared typeFullName.
func (idx *Index) AssemblyOfType(typeFullName string) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	a, ok := idx.typeToAssembly[typeFullName]
	return a, ok
}

// HookFieldExists reports whether typeFullName already has a recorded
// HookFieldInfo for sig, used by the differ to avoid re-classifying an
// already-added field as Added on a later compile.
func (idx *Index) HookFieldExists(typeFullName string, sig signature.Field) bool {
	ti, ok := idx.Hooks.Lookup(typeFullName)
	if !ok {
		return false
	}
	_, ok = ti.Fields[sig]
	return ok
}

// GetGlobalImports returns the import list for assembly.
func (idx *Index) GetGlobalImports(assembly string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]string(nil), idx.importsByAssembly[assembly]...)
}

// GetGenericCallers merges caller lookups on both the definition and
// reference form of calleeSignature.
func (idx *Index) GetGenericCallers(calleeSignature signature.Method) []callgraph.Caller {
	forms := idx.Bimap.BothForms(calleeSignature)
	seen := make(map[callgraph.Caller]bool)
	var out []callgraph.Caller
	for _, f := range forms {
		for _, c := range idx.Graph.CallersOf(f) {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// UpdateCallGraph removes caller's prior edges and re-registers them
// from its current body, used after the rewriter changes a method.
func (idx *Index) UpdateCallGraph(declaringType string, m *ilmodel.MethodDef) {
	caller := callgraph.Caller{DeclaringType: declaringType, Signature: signature.Method(m.Signature)}
	idx.Graph.RemoveCallsFrom(caller)
	idx.registerMethodCalls(m, caller)
}

// BaselineModule returns the loaded baseline module for assembly.
func (idx *Index) BaselineModule(assembly string) *ilmodel.Module {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.baselineModules[assembly]
}

// BaselineType returns the baseline TypeDef for typeFullName, if the
// type exists in the baseline module of assembly.
func (idx *Index) BaselineType(assembly, typeFullName string) *ilmodel.TypeDef {
	mod := idx.BaselineModule(assembly)
	if mod == nil {
		return nil
	}
	return mod.FindType(typeFullName)
}

// GetLatestMethodDefinition returns the logically newest body for
// (typeFullName, sig): the newest historical patch wrapper if one
// exists, scanning history newest-to-oldest and skipping missing files,
// otherwise the baseline body. This is the differ's sole source of
// truth.
func (idx *Index) GetLatestMethodDefinition(typeFullName string, sig signature.Method, baselineType *ilmodel.TypeDef) *ilmodel.MethodDef {
	if ti, ok := idx.Hooks.Lookup(typeFullName); ok {
		if hm, ok := ti.Methods[sig]; ok {
			for i := len(hm.HistoricalHookedAssemblyPaths) - 1; i >= 0; i-- {
				path := hm.HistoricalHookedAssemblyPaths[i]
				mod, err := idx.loader.Load(path)
				if err != nil {
					continue // missing/unreadable historical file: skip, try older
				}
				t := mod.FindType(typeFullName)
				if t == nil {
					continue
				}
				if md := t.FindMethod(string(sig)); md != nil {
					return md
				}
			}
		}
	}
	if baselineType == nil {
		return nil
	}
	return baselineType.FindMethod(string(sig))
}

// TypeExistsInHookCache reports whether typeFullName has ever appeared
// in the hook cache, used by the differ to distinguish "new-in-this-
// cycle" types from re-edited previously-added types.
func (idx *Index) TypeExistsInHookCache(typeFullName string) bool {
	_, ok := idx.Hooks.Lookup(typeFullName)
	return ok
}

// AssemblyForFile resolves the file path to its canonical form relative
// to cwd-independent comparisons; kept as a thin wrapper so callers
// don't need to know about filepath.Clean's quirks.
func AssemblyForFile(idx *Index, file string) (string, bool) {
	return idx.GetAssemblyOf(filepath.Clean(file))
}
