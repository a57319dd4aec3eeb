// Package hookcache holds the persistent, process-wide HookTypeInfoCache
// and builds the per-compile manifest response from it.
package hookcache

import "github.com/hotreloadd/compileserver/internal/signature"

// MemberModifyState classifies why a member appears in a hook entry.
type MemberModifyState string

const (
	Added      MemberModifyState = "Added"
	Modified   MemberModifyState = "Modified"
	CallerOnly MemberModifyState = "CallerOnly"
)

// HookMethodInfo is the persistent record of one hooked method.
type HookMethodInfo struct {
	DeclaringType     string              `json:"declaringType"`
	SourceSignature   signature.Method    `json:"sourceSignature"`
	WrapperSignature  signature.Method    `json:"wrapperSignature"`
	HasGenericParams  bool                `json:"hasGenericParameters"`
	MemberModifyState MemberModifyState   `json:"memberModifyState"`
	// HistoricalHookedAssemblyPaths is oldest-first, current-last, and
	// strictly append-only within a process session.
	HistoricalHookedAssemblyPaths []string `json:"historicalHookedAssemblyPaths"`
}

// AppendPath appends a new patch-assembly path to the history. Never
// call this with an empty path: the list must stay non-empty from the
// moment a HookMethodInfo exists.
func (h *HookMethodInfo) AppendPath(path string) {
	h.HistoricalHookedAssemblyPaths = append(h.HistoricalHookedAssemblyPaths, path)
}

// HookFieldInfo is the persistent record of one added/modified field.
type HookFieldInfo struct {
	DeclaringType string            `json:"declaringType"`
	FieldName     string            `json:"fieldName"`
	State         MemberModifyState `json:"state"`
}

// HookTypeInfo aggregates the hook state for one type.
type HookTypeInfo struct {
	TypeFullName  string                                      `json:"typeFullName"`
	Assembly      string                                      `json:"assembly"`
	Methods       map[signature.Method]*HookMethodInfo         `json:"modifiedMethods"`
	Fields        map[signature.Field]*HookFieldInfo           `json:"addedFields"`
}

func newHookTypeInfo(typeFullName, assembly string) *HookTypeInfo {
	return &HookTypeInfo{
		TypeFullName: typeFullName,
		Assembly:     assembly,
		Methods:      make(map[signature.Method]*HookMethodInfo),
		Fields:       make(map[signature.Field]*HookFieldInfo),
	}
}
