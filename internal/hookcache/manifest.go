package hookcache

import "github.com/hotreloadd/compileserver/internal/signature"

// Manifest is the shrunken response payload for one compile cycle: only
// the methods and fields touched this cycle, but each method carrying
// its complete historical path list so the client can re-hook older
// assemblies if needed. Types with no effective change this cycle are
// omitted entirely.
type Manifest struct {
	Types map[string]*HookTypeInfo
}

// Builder merges a cycle's persisted changes (already written into the
// Cache by the rewriter's hook-history-append step) into a response
// manifest containing only this cycle's touched members.
type Builder struct {
	cache *Cache
}

// NewBuilder returns a Builder over cache.
func NewBuilder(cache *Cache) *Builder {
	return &Builder{cache: cache}
}

// Build produces the manifest for the given set of (typeFullName,
// touchedMethodSigs, touchedFieldSigs) triples, one per type the
// rewriter actually touched this cycle.
func (b *Builder) Build(touched map[string]TouchedSet) Manifest {
	out := Manifest{Types: make(map[string]*HookTypeInfo)}
	for typeFullName, ts := range touched {
		full, ok := b.cache.Lookup(typeFullName)
		if !ok {
			continue
		}
		if len(ts.Methods) == 0 && len(ts.Fields) == 0 {
			continue
		}
		shrunk := newHookTypeInfo(full.TypeFullName, full.Assembly)
		for _, sig := range ts.Methods {
			if hm, ok := full.Methods[sig]; ok {
				shrunk.Methods[sig] = hm
			}
		}
		for _, sig := range ts.Fields {
			if hf, ok := full.Fields[sig]; ok {
				shrunk.Fields[sig] = hf
			}
		}
		if len(shrunk.Methods) == 0 && len(shrunk.Fields) == 0 {
			continue
		}
		out.Types[typeFullName] = shrunk
	}
	return out
}

// TouchedSet names the members of one type touched during the current
// compile cycle.
type TouchedSet struct {
	Methods []signature.Method
	Fields  []signature.Field
}
