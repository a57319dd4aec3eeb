package signature

import "sync"

// Bimap maintains the bijection between a generic method's
// definition-form signature ("T G::Id(T)") and its reference-form
// signature ("!!0 G::Id(!!0)"). Both lookup directions must succeed
// once a pair has been registered.
//
// Kept as a dedicated type rather than inline string replacement at
// call sites since both directions need to stay consistent under
// concurrent registration.
type Bimap struct {
	mu      sync.RWMutex
	defToRef map[Method]Method
	refToDef map[Method]Method
}

// NewBimap returns an empty, ready-to-use Bimap.
func NewBimap() *Bimap {
	return &Bimap{
		defToRef: make(map[Method]Method),
		refToDef: make(map[Method]Method),
	}
}

// Register records def <-> ref. Idempotent: registering the same pair
// twice is a no-op, matching the call graph's idempotent-writer policy.
func (b *Bimap) Register(def, ref Method) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.defToRef[def] = ref
	b.refToDef[ref] = def
}

// ReferenceForm returns the reference-form signature for a definition-
// form signature, if known.
func (b *Bimap) ReferenceForm(def Method) (Method, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ref, ok := b.defToRef[def]
	return ref, ok
}

// DefinitionForm returns the definition-form signature for a
// reference-form signature, if known.
func (b *Bimap) DefinitionForm(ref Method) (Method, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	def, ok := b.refToDef[ref]
	return def, ok
}

// BothForms returns every known form (definition and reference) for a
// signature, whichever form it was given in. Lookups by either form
// must return the same logical set.
func (b *Bimap) BothForms(sig Method) []Method {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := []Method{sig}
	if ref, ok := b.defToRef[sig]; ok {
		out = append(out, ref)
	}
	if def, ok := b.refToDef[sig]; ok {
		out = append(out, def)
	}
	return out
}

// Complete reports whether every definition-form signature in defs has
// a registered reference form, used to check generic-call closure
// completeness after a successful compile.
func (b *Bimap) Complete(defs []Method) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, d := range defs {
		if _, ok := b.defToRef[d]; !ok {
			return false
		}
	}
	return true
}
