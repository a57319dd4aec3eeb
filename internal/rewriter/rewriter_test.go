package rewriter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hotreloadd/compileserver/internal/diffresult"
	"github.com/hotreloadd/compileserver/internal/hookcache"
	"github.com/hotreloadd/compileserver/internal/ilmodel"
	"github.com/hotreloadd/compileserver/internal/signature"
	"github.com/hotreloadd/compileserver/internal/store"
)

type fakeGraphUpdater struct {
	updated        []string
	baselineTypes  map[string]*ilmodel.TypeDef
}

func (f *fakeGraphUpdater) UpdateCallGraph(declaringType string, m *ilmodel.MethodDef) {
	f.updated = append(f.updated, declaringType)
}

func (f *fakeGraphUpdater) BaselineType(assembly, typeFullName string) *ilmodel.TypeDef {
	return f.baselineTypes[typeFullName]
}

func TestRunPersistsPatchAndRecordsHookHistory(t *testing.T) {
	root, err := store.Open(t.TempDir())
	require.NoError(t, err)

	sig := signature.Method("Void Foo::Bar()")
	fsig := signature.BuildField("Int32", "Foo", "count")

	result := diffresult.NewResult()
	td := result.TypeDiffFor("Foo", "MyAssembly", nil)
	td.Methods[sig] = &diffresult.MethodChange{
		Method: &ilmodel.MethodDef{Signature: string(sig), Name: "Bar", DeclaringType: "Foo", HasBody: true},
		State:  hookcache.Modified,
	}
	td.Fields[fsig] = &diffresult.FieldChange{
		Field: &ilmodel.FieldDef{Name: "count", DeclaringType: "Foo", FieldType: "Int32"},
	}

	hooks := hookcache.New(nil)
	graph := &fakeGraphUpdater{baselineTypes: map[string]*ilmodel.TypeDef{}}
	rw := &Rewriter{Hooks: hooks, Graph: graph, Root: root, Codec: ilmodel.Codec{}}

	touched, err := rw.Run(result)
	require.NoError(t, err)

	ts, ok := touched["Foo"]
	require.True(t, ok)
	require.Equal(t, []signature.Method{sig}, ts.Methods)
	require.Equal(t, []signature.Field{fsig}, ts.Fields)

	ti, ok := hooks.Lookup("Foo")
	require.True(t, ok)
	require.Equal(t, hookcache.Modified, ti.Methods[sig].MemberModifyState)
	require.Len(t, ti.Methods[sig].HistoricalHookedAssemblyPaths, 1)
	require.Equal(t, hookcache.Added, ti.Fields[fsig].State)

	require.Equal(t, []string{"Foo"}, graph.updated)
}

func TestRunSkipsTypesWithNoChanges(t *testing.T) {
	root, err := store.Open(t.TempDir())
	require.NoError(t, err)

	result := diffresult.NewResult()
	result.TypeDiffFor("Foo", "MyAssembly", nil) // empty diff

	hooks := hookcache.New(nil)
	rw := &Rewriter{Hooks: hooks, Root: root, Codec: ilmodel.Codec{}}

	touched, err := rw.Run(result)
	require.NoError(t, err)
	require.Empty(t, touched)
}

func TestRunWithoutRootSkipsPersistence(t *testing.T) {
	sig := signature.Method("Void Foo::Bar()")
	result := diffresult.NewResult()
	td := result.TypeDiffFor("Foo", "MyAssembly", nil)
	td.Methods[sig] = &diffresult.MethodChange{
		Method: &ilmodel.MethodDef{Signature: string(sig), DeclaringType: "Foo"},
		State:  hookcache.Added,
	}

	hooks := hookcache.New(nil)
	rw := &Rewriter{Hooks: hooks, Root: nil, Codec: ilmodel.Codec{}}

	touched, err := rw.Run(result)
	require.NoError(t, err)
	require.Contains(t, touched, "Foo")

	ti, ok := hooks.Lookup("Foo")
	require.True(t, ok)
	require.Empty(t, ti.Methods[sig].HistoricalHookedAssemblyPaths)
}
