package closure

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hotreloadd/compileserver/internal/callgraph"
	"github.com/hotreloadd/compileserver/internal/diffresult"
	"github.com/hotreloadd/compileserver/internal/hookcache"
	"github.com/hotreloadd/compileserver/internal/ilmodel"
	"github.com/hotreloadd/compileserver/internal/signature"
)

type fakeLookup struct {
	genericCallers map[signature.Method][]callgraph.Caller
	assemblyOfType map[string]string
	baselineTypes  map[string]*ilmodel.TypeDef
	latestMethod   map[signature.Method]*ilmodel.MethodDef
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		genericCallers: make(map[signature.Method][]callgraph.Caller),
		assemblyOfType: make(map[string]string),
		baselineTypes:  make(map[string]*ilmodel.TypeDef),
		latestMethod:   make(map[signature.Method]*ilmodel.MethodDef),
	}
}

func (f *fakeLookup) GetGenericCallers(callee signature.Method) []callgraph.Caller {
	return f.genericCallers[callee]
}

func (f *fakeLookup) AssemblyOfType(typeFullName string) (string, bool) {
	a, ok := f.assemblyOfType[typeFullName]
	return a, ok
}

func (f *fakeLookup) BaselineType(assembly, typeFullName string) *ilmodel.TypeDef {
	return f.baselineTypes[typeFullName]
}

func (f *fakeLookup) GetLatestMethodDefinition(typeFullName string, sig signature.Method, baselineType *ilmodel.TypeDef) *ilmodel.MethodDef {
	return f.latestMethod[sig]
}

func TestCloseMarksDirectCallerOnly(t *testing.T) {
	genericSig := signature.Method("T G::Id(T)")
	callerSig := signature.Method("Void Foo::Bar()")

	lookup := newFakeLookup()
	lookup.genericCallers[genericSig] = []callgraph.Caller{{DeclaringType: "Foo", Signature: callerSig}}
	lookup.assemblyOfType["Foo"] = "MyAssembly"
	lookup.latestMethod[callerSig] = &ilmodel.MethodDef{Name: "Bar"}

	result := diffresult.NewResult()
	td := result.TypeDiffFor("G", "MyAssembly", nil)
	td.Methods[genericSig] = &diffresult.MethodChange{
		Method: &ilmodel.MethodDef{IsGeneric: true},
		State:  hookcache.Modified,
	}

	Close(lookup, result)

	callerTD, ok := result.Types["Foo"]
	require.True(t, ok)
	require.Equal(t, hookcache.CallerOnly, callerTD.Methods[callerSig].State)
}

func TestCloseSkipsNonGenericModifiedMethod(t *testing.T) {
	sig := signature.Method("Void Foo::Bar()")
	lookup := newFakeLookup()

	result := diffresult.NewResult()
	td := result.TypeDiffFor("Foo", "MyAssembly", nil)
	td.Methods[sig] = &diffresult.MethodChange{
		Method: &ilmodel.MethodDef{IsGeneric: false},
		State:  hookcache.Modified,
	}

	Close(lookup, result)

	require.Len(t, result.Types, 1)
	require.Len(t, result.Types["Foo"].Methods, 1)
}

func TestCloseDoesNotOverwriteExistingEntry(t *testing.T) {
	genericSig := signature.Method("T G::Id(T)")
	callerSig := signature.Method("Void Foo::Bar()")

	lookup := newFakeLookup()
	lookup.genericCallers[genericSig] = []callgraph.Caller{{DeclaringType: "Foo", Signature: callerSig}}
	lookup.assemblyOfType["Foo"] = "MyAssembly"

	result := diffresult.NewResult()
	td := result.TypeDiffFor("G", "MyAssembly", nil)
	td.Methods[genericSig] = &diffresult.MethodChange{
		Method: &ilmodel.MethodDef{IsGeneric: true},
		State:  hookcache.Modified,
	}
	callerTD := result.TypeDiffFor("Foo", "MyAssembly", nil)
	callerTD.Methods[callerSig] = &diffresult.MethodChange{
		Method: &ilmodel.MethodDef{Name: "Bar"},
		State:  hookcache.Modified,
	}

	Close(lookup, result)

	require.Equal(t, hookcache.Modified, callerTD.Methods[callerSig].State)
}

func TestCloseSkipsCallerWithNoLatestDefinition(t *testing.T) {
	genericSig := signature.Method("T G::Id(T)")
	callerSig := signature.Method("Void Foo::Bar()")

	lookup := newFakeLookup()
	lookup.genericCallers[genericSig] = []callgraph.Caller{{DeclaringType: "Foo", Signature: callerSig}}
	lookup.assemblyOfType["Foo"] = "MyAssembly"

	result := diffresult.NewResult()
	td := result.TypeDiffFor("G", "MyAssembly", nil)
	td.Methods[genericSig] = &diffresult.MethodChange{
		Method: &ilmodel.MethodDef{IsGeneric: true},
		State:  hookcache.Modified,
	}

	Close(lookup, result)

	_, ok := result.Types["Foo"]
	require.False(t, ok)
}

func TestCloseClosesOverChainOfGenericCallers(t *testing.T) {
	genericSig := signature.Method("T G::Id(T)")
	cSig := signature.Method("T C::Wrap(T)")
	dSig := signature.Method("Void D::Run()")

	lookup := newFakeLookup()
	lookup.genericCallers[genericSig] = []callgraph.Caller{{DeclaringType: "C", Signature: cSig}}
	lookup.genericCallers[cSig] = []callgraph.Caller{{DeclaringType: "D", Signature: dSig}}
	lookup.assemblyOfType["C"] = "MyAssembly"
	lookup.assemblyOfType["D"] = "MyAssembly"
	lookup.latestMethod[cSig] = &ilmodel.MethodDef{Name: "Wrap", IsGeneric: true}
	lookup.latestMethod[dSig] = &ilmodel.MethodDef{Name: "Run"}

	result := diffresult.NewResult()
	td := result.TypeDiffFor("G", "MyAssembly", nil)
	td.Methods[genericSig] = &diffresult.MethodChange{
		Method: &ilmodel.MethodDef{IsGeneric: true},
		State:  hookcache.Modified,
	}

	Close(lookup, result)

	require.Equal(t, hookcache.CallerOnly, result.Types["C"].Methods[cSig].State)
	require.Equal(t, hookcache.CallerOnly, result.Types["D"].Methods[dSig].State)
}

func TestCloseTerminatesWhenNoNewEntries(t *testing.T) {
	lookup := newFakeLookup()
	result := diffresult.NewResult()
	Close(lookup, result)
	require.Empty(t, result.Types)
}

func TestCloseMarksMultipleCallersOfSameGenericMethod(t *testing.T) {
	genericSig := signature.Method("T G::Id(T)")
	fooSig := signature.Method("Void Foo::Bar()")
	bazSig := signature.Method("Void Baz::Qux()")

	lookup := newFakeLookup()
	lookup.genericCallers[genericSig] = []callgraph.Caller{
		{DeclaringType: "Foo", Signature: fooSig},
		{DeclaringType: "Baz", Signature: bazSig},
	}
	lookup.assemblyOfType["Foo"] = "MyAssembly"
	lookup.assemblyOfType["Baz"] = "MyAssembly"
	lookup.latestMethod[fooSig] = &ilmodel.MethodDef{Name: "Bar"}
	lookup.latestMethod[bazSig] = &ilmodel.MethodDef{Name: "Qux"}

	result := diffresult.NewResult()
	td := result.TypeDiffFor("G", "MyAssembly", nil)
	td.Methods[genericSig] = &diffresult.MethodChange{
		Method: &ilmodel.MethodDef{IsGeneric: true},
		State:  hookcache.Modified,
	}

	Close(lookup, result)

	require.Equal(t, hookcache.CallerOnly, result.Types["Foo"].Methods[fooSig].State)
	require.Equal(t, hookcache.CallerOnly, result.Types["Baz"].Methods[bazSig].State)
}
