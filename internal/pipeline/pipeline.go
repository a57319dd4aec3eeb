package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hotreloadd/compileserver/internal/apperrors"
	"github.com/hotreloadd/compileserver/internal/baseline"
	"github.com/hotreloadd/compileserver/internal/callgraph"
	"github.com/hotreloadd/compileserver/internal/closure"
	"github.com/hotreloadd/compileserver/internal/events"
	"github.com/hotreloadd/compileserver/internal/hookcache"
	"github.com/hotreloadd/compileserver/internal/ilmodel"
	"github.com/hotreloadd/compileserver/internal/patchcompile"
	"github.com/hotreloadd/compileserver/internal/rewriter"
	"github.com/hotreloadd/compileserver/internal/store"
)

// Project is one project's full server-side state.
type Project struct {
	Index    *baseline.Index
	Root     *store.Root
	Compiler patchcompile.Compiler
}

// Server holds per-project state across initialize/compile/clear calls.
type Server struct {
	mu       sync.Mutex
	projects map[string]*Project

	CacheRootDir string // parent directory each project's cache root nests under
	ScopeFilter  callgraph.ScopeFilter
	NewCompiler  func(projectPath string) patchcompile.Compiler
	Housekeeper  *store.Housekeeper
	Emitter      events.Emitter
	Logger       *zap.Logger
}

// NewServer builds a Server; newCompiler constructs the Compiler to use
// for a given project (so production wiring can inject ExecCompiler
// while tests inject FixtureCompiler per project).
func NewServer(cacheRootDir string, filter callgraph.ScopeFilter, newCompiler func(string) patchcompile.Compiler, logger *zap.Logger) *Server {
	return &Server{
		projects:     make(map[string]*Project),
		CacheRootDir: cacheRootDir,
		ScopeFilter:  filter,
		NewCompiler:  newCompiler,
		Logger:       logger,
	}
}

// CheckInitialized reports whether the server holds state for
// projectPath.
func (s *Server) CheckInitialized(projectPath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.projects[projectPath]
	return ok
}

// HookTypeInfos returns the entire hook cache for projectPath.
func (s *Server) HookTypeInfos(projectPath string) (map[string]*hookcache.HookTypeInfo, bool) {
	s.mu.Lock()
	p, ok := s.projects[projectPath]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	return p.Index.Hooks.Snapshot(), true
}

// Initialize rebuilds the baseline index for projectPath.
func (s *Server) Initialize(ctx context.Context, req InitializeRequest) error {
	start := time.Now()
	root, err := store.Open(filepath.Join(s.CacheRootDir, sanitizeProjectPath(req.ProjectPath)))
	if err != nil {
		return fmt.Errorf("pipeline: open cache root: %w", err)
	}

	hooks := hookcache.New(nil)
	idx := baseline.New(s.ScopeFilter, ilmodel.Codec{}, root, hooks, s.Logger)
	if err := idx.Initialize(req.AssemblyContexts); err != nil {
		return fmt.Errorf("pipeline: initialize baseline index: %w", err)
	}

	compiler := patchcompile.Compiler(patchcompile.FixtureCompiler{})
	if s.NewCompiler != nil {
		compiler = s.NewCompiler(req.ProjectPath)
	}

	s.mu.Lock()
	s.projects[req.ProjectPath] = &Project{Index: idx, Root: root, Compiler: compiler}
	s.mu.Unlock()

	if s.Housekeeper != nil {
		s.Housekeeper.Watch(req.ProjectPath, root)
	}
	s.Emitter.Emit(ctx, events.PhaseInitialize, req.ProjectPath, true, time.Since(start))
	return nil
}

// Clear purges temp+output+hook cache for projectPath but keeps the
// baseline index intact.
func (s *Server) Clear(ctx context.Context, projectPath string) error {
	start := time.Now()
	s.mu.Lock()
	p, ok := s.projects[projectPath]
	s.mu.Unlock()
	if !ok {
		return apperrors.ErrNotInitialized
	}
	if err := p.Root.ClearTemp(); err != nil {
		return fmt.Errorf("pipeline: clear temp: %w", err)
	}
	if err := p.Root.ClearOutput(); err != nil {
		return fmt.Errorf("pipeline: clear output: %w", err)
	}
	p.Index.Hooks.Reset()
	s.Emitter.Emit(ctx, events.PhaseClear, projectPath, true, time.Since(start))
	return nil
}

// Compile runs patch compilation, structural diffing, generic-call
// closure, IL rewriting, and hook manifest assembly for projectPath.
func (s *Server) Compile(ctx context.Context, projectPath string, req CompileRequest) CompileResponse {
	start := time.Now()
	resp := s.compile(ctx, projectPath, req)
	resp.ElapsedMilliseconds = time.Since(start).Milliseconds()
	s.Emitter.Emit(ctx, events.PhaseCompile, projectPath, resp.Success, time.Since(start))
	return resp
}

func (s *Server) compile(ctx context.Context, projectPath string, req CompileRequest) CompileResponse {
	s.mu.Lock()
	p, ok := s.projects[projectPath]
	s.mu.Unlock()
	if !ok {
		return errorResponse(apperrors.ErrNotInitialized)
	}

	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	byAssembly, unknownCount, err := groupChangedFilesByAssembly(logger, p.Index, req.ChangedFiles)
	if err != nil {
		return errorResponse(err)
	}
	if len(req.ChangedFiles) > 0 && unknownCount == len(req.ChangedFiles) {
		return errorResponse(apperrors.ErrAllFilesUnknown)
	}

	result := newCompileRun(p, logger)
	for assembly, files := range byAssembly {
		logger.Info("compiling assembly", zap.String("assembly", assembly), zap.Int("files", len(files)))
		if err := result.compileAssembly(ctx, assembly, files); err != nil {
			return errorResponse(err)
		}
	}

	closure.Close(p.Index, result.diff)

	rw := &rewriter.Rewriter{Hooks: p.Index.Hooks, Graph: p.Index, Root: p.Root, Codec: ilmodel.Codec{}}
	touched, err := rw.Run(result.diff)
	if err != nil {
		return errorResponse(fmt.Errorf("%w: %v", apperrors.ErrInvalidRewrittenIL, err))
	}

	builder := hookcache.NewBuilder(p.Index.Hooks)
	touchedCache := make(map[string]hookcache.TouchedSet, len(touched))
	for k, v := range touched {
		touchedCache[k] = v
	}
	manifest := builder.Build(touchedCache)

	return CompileResponse{Success: true, HookTypeInfos: manifest.Types}
}

func errorResponse(err error) CompileResponse {
	return CompileResponse{Success: false, ErrorMessage: err.Error()}
}

func sanitizeProjectPath(p string) string {
	h := filepath.Clean(p)
	out := make([]byte, 0, len(h))
	for i := 0; i < len(h); i++ {
		c := h[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
