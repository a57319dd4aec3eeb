// Package callgraph is the process-wide, concurrency-safe mapping from
// callee method signature (reference form) to the set of callers that
// invoke it, scoped to non-system callees only.
//
// The outer map is keyed by callee signature, the inner by caller
// descriptor, mirroring the nested-concurrent-map shape the
// specification calls for; insertion is a lock-free try-add and is
// idempotent, so double-registration of an edge is a no-op.
package callgraph

import (
	"sync"

	"github.com/hotreloadd/compileserver/internal/signature"
)

// Caller identifies one call site: the declaring type and method
// signature of the calling method.
type Caller struct {
	DeclaringType string
	Signature     signature.Method
}

// ScopeFilter decides whether a callee's owning scope should be
// excluded from the graph (host engine / stdlib scopes).
type ScopeFilter interface {
	Excluded(scopeName string) bool
}

// Graph is the callee -> callers map.
type Graph struct {
	filter ScopeFilter
	edges  sync.Map // signature.Method -> *sync.Map (Caller -> struct{})
}

// New constructs an empty Graph using filter to decide which callees to
// retain.
func New(filter ScopeFilter) *Graph {
	return &Graph{filter: filter}
}

// AddEdge registers that caller calls callee, unless calleeScope is
// filtered out. Idempotent.
func (g *Graph) AddEdge(calleeScope string, callee signature.Method, caller Caller) {
	if g.filter != nil && g.filter.Excluded(calleeScope) {
		return
	}
	actual, _ := g.edges.LoadOrStore(callee, &sync.Map{})
	callers := actual.(*sync.Map)
	callers.LoadOrStore(caller, struct{}{})
}

// CallersOf returns the deterministic (sorted) set of callers of callee.
func (g *Graph) CallersOf(callee signature.Method) []Caller {
	v, ok := g.edges.Load(callee)
	if !ok {
		return nil
	}
	callers := v.(*sync.Map)
	var out []Caller
	callers.Range(func(k, _ any) bool {
		out = append(out, k.(Caller))
		return true
	})
	sortCallers(out)
	return out
}

// RemoveCallsFrom deletes every edge whose caller is the given
// descriptor, across every callee. Used by update-call-graph before a
// method's body is rewalked.
func (g *Graph) RemoveCallsFrom(caller Caller) {
	g.edges.Range(func(callee, v any) bool {
		callers := v.(*sync.Map)
		callers.Delete(caller)
		return true
	})
}

func sortCallers(cs []Caller) {
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0; j-- {
			a, b := cs[j-1], cs[j]
			if a.DeclaringType < b.DeclaringType ||
				(a.DeclaringType == b.DeclaringType && a.Signature < b.Signature) {
				break
			}
			cs[j-1], cs[j] = cs[j], cs[j-1]
		}
	}
}
