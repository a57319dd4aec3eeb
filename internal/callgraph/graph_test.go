package callgraph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hotreloadd/compileserver/internal/signature"
)

type substringFilter []string

func (f substringFilter) Excluded(scope string) bool {
	for _, s := range f {
		if strings.Contains(scope, s) {
			return true
		}
	}
	return false
}

func TestAddEdgeAndCallersOf(t *testing.T) {
	g := New(nil)
	callee := signature.Method("Void Foo::Bar()")
	a := Caller{DeclaringType: "A", Signature: "Void A::Call()"}
	b := Caller{DeclaringType: "B", Signature: "Void B::Call()"}

	g.AddEdge("MyAssembly", callee, a)
	g.AddEdge("MyAssembly", callee, b)

	got := g.CallersOf(callee)
	require.Equal(t, []Caller{a, b}, got)
}

func TestAddEdgeIdempotent(t *testing.T) {
	g := New(nil)
	callee := signature.Method("Void Foo::Bar()")
	a := Caller{DeclaringType: "A", Signature: "Void A::Call()"}

	g.AddEdge("MyAssembly", callee, a)
	g.AddEdge("MyAssembly", callee, a)

	require.Len(t, g.CallersOf(callee), 1)
}

func TestAddEdgeFiltered(t *testing.T) {
	g := New(substringFilter{"HostEngine"})
	callee := signature.Method("Void Foo::Bar()")
	a := Caller{DeclaringType: "A", Signature: "Void A::Call()"}

	g.AddEdge("HostEngine", callee, a)

	require.Empty(t, g.CallersOf(callee))
}

func TestRemoveCallsFrom(t *testing.T) {
	g := New(nil)
	callee := signature.Method("Void Foo::Bar()")
	a := Caller{DeclaringType: "A", Signature: "Void A::Call()"}
	b := Caller{DeclaringType: "B", Signature: "Void B::Call()"}

	g.AddEdge("MyAssembly", callee, a)
	g.AddEdge("MyAssembly", callee, b)
	g.RemoveCallsFrom(a)

	require.Equal(t, []Caller{b}, g.CallersOf(callee))
}
