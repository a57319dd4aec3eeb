package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hotreloadd/compileserver/internal/assemblyctx"
	"github.com/hotreloadd/compileserver/internal/hookcache"
	"github.com/hotreloadd/compileserver/internal/ilmodel"
	"github.com/hotreloadd/compileserver/internal/patchcompile"
)

func writeBaselineModule(t *testing.T, path string, mod *ilmodel.Module) {
	t.Helper()
	require.NoError(t, (ilmodel.Codec{}).Save(path, mod))
}

func newTestServer(t *testing.T, compiler patchcompile.Compiler) *Server {
	t.Helper()
	return NewServer(t.TempDir(), nil, func(string) patchcompile.Compiler { return compiler }, zap.NewNop())
}

func setupProject(t *testing.T, s *Server, fooPath, baselinePath string) {
	t.Helper()
	ctx := context.Background()
	err := s.Initialize(ctx, InitializeRequest{
		ProjectPath: "proj1",
		AssemblyContexts: map[string]assemblyctx.Context{
			"MyAssembly": {Name: "MyAssembly", OutputPath: baselinePath, SourceFiles: []string{fooPath}},
		},
	})
	require.NoError(t, err)
}

func TestInitializeThenCheckInitialized(t *testing.T) {
	dir := t.TempDir()
	fooPath := filepath.Join(dir, "Foo.cs")
	require.NoError(t, os.WriteFile(fooPath, []byte("public class Foo {}\n"), 0o644))
	baselinePath := filepath.Join(dir, "MyAssembly.dll")
	writeBaselineModule(t, baselinePath, &ilmodel.Module{Name: "MyAssembly", Types: []*ilmodel.TypeDef{{FullName: "Foo"}}})

	s := newTestServer(t, patchcompile.FixtureCompiler{})
	require.False(t, s.CheckInitialized("proj1"))
	setupProject(t, s, fooPath, baselinePath)
	require.True(t, s.CheckInitialized("proj1"))
}

func TestCompileAddsNewMethod(t *testing.T) {
	dir := t.TempDir()
	fooPath := filepath.Join(dir, "Foo.cs")
	require.NoError(t, os.WriteFile(fooPath, []byte("public class Foo {}\n"), 0o644))
	baselinePath := filepath.Join(dir, "MyAssembly.dll")
	writeBaselineModule(t, baselinePath, &ilmodel.Module{Name: "MyAssembly", Types: []*ilmodel.TypeDef{{FullName: "Foo"}}})

	compiler := patchcompile.FixtureCompiler{
		Modules: map[string][]*ilmodel.TypeDef{
			fooPath: {{
				FullName: "Foo",
				Methods: []*ilmodel.MethodDef{
					{Signature: "Void Foo::Baz()", Name: "Baz", DeclaringType: "Foo", HasBody: true},
				},
			}},
		},
	}
	s := newTestServer(t, compiler)
	setupProject(t, s, fooPath, baselinePath)

	resp := s.Compile(context.Background(), "proj1", CompileRequest{
		ChangedFiles: map[string]string{fooPath: "2026-01-01T00:00:00Z"},
	})

	require.True(t, resp.Success)
	fooInfo, ok := resp.HookTypeInfos["Foo"]
	require.True(t, ok)
	require.Equal(t, hookcache.Added, fooInfo.Methods["Void Foo::Baz()"].MemberModifyState)
}

func TestCompileUnknownProjectReturnsErrorResponse(t *testing.T) {
	s := newTestServer(t, patchcompile.FixtureCompiler{})
	resp := s.Compile(context.Background(), "missing", CompileRequest{ChangedFiles: map[string]string{"x.cs": "t"}})
	require.False(t, resp.Success)
	require.NotEmpty(t, resp.ErrorMessage)
}

func TestCompileAllFilesUnknownReturnsErrorResponse(t *testing.T) {
	dir := t.TempDir()
	fooPath := filepath.Join(dir, "Foo.cs")
	require.NoError(t, os.WriteFile(fooPath, []byte("public class Foo {}\n"), 0o644))
	baselinePath := filepath.Join(dir, "MyAssembly.dll")
	writeBaselineModule(t, baselinePath, &ilmodel.Module{Name: "MyAssembly", Types: []*ilmodel.TypeDef{{FullName: "Foo"}}})

	s := newTestServer(t, patchcompile.FixtureCompiler{})
	setupProject(t, s, fooPath, baselinePath)

	resp := s.Compile(context.Background(), "proj1", CompileRequest{
		ChangedFiles: map[string]string{"/nowhere/Unknown.cs": "t"},
	})
	require.False(t, resp.Success)
}

func TestClearResetsHookCacheButKeepsProject(t *testing.T) {
	dir := t.TempDir()
	fooPath := filepath.Join(dir, "Foo.cs")
	require.NoError(t, os.WriteFile(fooPath, []byte("public class Foo {}\n"), 0o644))
	baselinePath := filepath.Join(dir, "MyAssembly.dll")
	writeBaselineModule(t, baselinePath, &ilmodel.Module{Name: "MyAssembly", Types: []*ilmodel.TypeDef{{FullName: "Foo"}}})

	compiler := patchcompile.FixtureCompiler{
		Modules: map[string][]*ilmodel.TypeDef{
			fooPath: {{
				FullName: "Foo",
				Methods:  []*ilmodel.MethodDef{{Signature: "Void Foo::Baz()", Name: "Baz", DeclaringType: "Foo", HasBody: true}},
			}},
		},
	}
	s := newTestServer(t, compiler)
	setupProject(t, s, fooPath, baselinePath)

	resp := s.Compile(context.Background(), "proj1", CompileRequest{
		ChangedFiles: map[string]string{fooPath: "2026-01-01T00:00:00Z"},
	})
	require.True(t, resp.Success)

	snap, ok := s.HookTypeInfos("proj1")
	require.True(t, ok)
	require.NotEmpty(t, snap)

	require.NoError(t, s.Clear(context.Background(), "proj1"))

	snap, ok = s.HookTypeInfos("proj1")
	require.True(t, ok)
	require.Empty(t, snap)
	require.True(t, s.CheckInitialized("proj1"))
}

func TestClearUnknownProjectReturnsError(t *testing.T) {
	s := newTestServer(t, patchcompile.FixtureCompiler{})
	err := s.Clear(context.Background(), "missing")
	require.Error(t, err)
}
