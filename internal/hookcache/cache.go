package hookcache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hotreloadd/compileserver/internal/signature"
)

// ResolvedHandle is the lazily-resolved in-memory stand-in for a
// historical target method handle: the method definition found inside
// one historical patch-assembly path, resolved on demand rather than
// eagerly at JSON decode time.
type ResolvedHandle struct {
	AssemblyPath string
	Found        bool
}

// HandleResolver resolves a historical assembly path + signature into a
// method handle. The real implementation opens the historical module
// via ilmodel.Codec; tests can substitute a fake.
type HandleResolver interface {
	Resolve(assemblyPath string, sig signature.Method) ResolvedHandle
}

// Cache is the process-wide HookTypeInfoCache: monotonically grows
// across compile cycles, cleared only by clear() or a fresh
// initialize(). Guarded by a single mutex since writes only happen
// inside one compile cycle at a time under the server's
// request-serialization policy, so a simple mutex (not a lock-free map)
// is sufficient and keeps the read-modify-append sequences in
// RecordMethod atomic.
type Cache struct {
	mu    sync.Mutex
	types map[string]*HookTypeInfo

	resolver  HandleResolver
	resolved  *lru.Cache[string, ResolvedHandle]
}

// New builds an empty Cache. resolver may be nil until the first
// historical-handle resolution is actually needed.
func New(resolver HandleResolver) *Cache {
	resolvedLRU, _ := lru.New[string, ResolvedHandle](4096)
	return &Cache{
		types:    make(map[string]*HookTypeInfo),
		resolver: resolver,
		resolved: resolvedLRU,
	}
}

// Reset clears every type entry, used by clear() and by a fresh
// initialize().
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types = make(map[string]*HookTypeInfo)
	c.resolved.Purge()
}

// TypeInfo returns the entry for typeFullName, creating it if absent.
func (c *Cache) TypeInfo(typeFullName, assembly string) *HookTypeInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	ti, ok := c.types[typeFullName]
	if !ok {
		ti = newHookTypeInfo(typeFullName, assembly)
		c.types[typeFullName] = ti
	}
	return ti
}

// Lookup returns the entry for typeFullName without creating it.
func (c *Cache) Lookup(typeFullName string) (*HookTypeInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ti, ok := c.types[typeFullName]
	return ti, ok
}

// HasAddedMember reports whether typeFullName has at least one Added
// method or Added field recorded for the given assembly, the selection
// criterion the patch compiler uses to decide a type must be recompiled
// as a whole.
func (c *Cache) HasAddedMember(typeFullName, assembly string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ti, ok := c.types[typeFullName]
	if !ok || ti.Assembly != assembly {
		return false
	}
	for _, m := range ti.Methods {
		if m.MemberModifyState == Added {
			return true
		}
	}
	return len(ti.Fields) > 0
}

// RecordMethod upserts a HookMethodInfo for sig, appending patchPath to
// its history. A new entry takes the state passed in (Added for a new
// method, Modified or CallerOnly for one already in the baseline); on
// an existing entry state is updated to reflect this cycle's
// classification while the history keeps growing.
func (c *Cache) RecordMethod(typeFullName, assembly string, sig, wrapperSig signature.Method, hasGeneric bool, state MemberModifyState, patchPath string) *HookMethodInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	ti, ok := c.types[typeFullName]
	if !ok {
		ti = newHookTypeInfo(typeFullName, assembly)
		c.types[typeFullName] = ti
	}
	hm, ok := ti.Methods[sig]
	if !ok {
		hm = &HookMethodInfo{
			DeclaringType:    typeFullName,
			SourceSignature:  sig,
			WrapperSignature: wrapperSig,
			HasGenericParams: hasGeneric,
		}
		ti.Methods[sig] = hm
	}
	hm.MemberModifyState = state
	hm.WrapperSignature = wrapperSig
	if patchPath != "" {
		hm.AppendPath(patchPath)
	}
	return hm
}

// RecordField upserts a HookFieldInfo for an added or modified field.
func (c *Cache) RecordField(typeFullName, assembly string, sig signature.Field, fieldName string, state MemberModifyState) *HookFieldInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	ti, ok := c.types[typeFullName]
	if !ok {
		ti = newHookTypeInfo(typeFullName, assembly)
		c.types[typeFullName] = ti
	}
	hf := &HookFieldInfo{DeclaringType: typeFullName, FieldName: fieldName, State: state}
	ti.Fields[sig] = hf
	return hf
}

// Snapshot returns every known HookTypeInfo, used by /hook-type-infos
// for client-side rebuild after a restart.
func (c *Cache) Snapshot() map[string]*HookTypeInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]*HookTypeInfo, len(c.types))
	for k, v := range c.types {
		out[k] = v
	}
	return out
}

// ResolveHistorical lazily resolves a historical handle, caching the
// result so repeated manifest builds over a long session don't reopen
// the same historical module file repeatedly.
func (c *Cache) ResolveHistorical(assemblyPath string, sig signature.Method) ResolvedHandle {
	key := assemblyPath + "|" + string(sig)
	if v, ok := c.resolved.Get(key); ok {
		return v
	}
	if c.resolver == nil {
		return ResolvedHandle{AssemblyPath: assemblyPath, Found: false}
	}
	v := c.resolver.Resolve(assemblyPath, sig)
	c.resolved.Add(key, v)
	return v
}
