package rewriter

import "github.com/hotreloadd/compileserver/internal/ilmodel"

// rebindToBaseline rewrites every TypeReference/MethodReference/
// FieldReference operand in m whose scope is the patch module itself
// but whose fully-qualified name matches a pre-existing baseline type,
// so the detour engine redirects to one identity instead of splitting
// between patch-local and baseline copies.
func rebindToBaseline(m *ilmodel.MethodDef, assembly string, existsInBaseline func(assembly, fullName string) bool) {
	for i := range m.Body {
		op := &m.Body[i].Operand
		switch op.Kind {
		case ilmodel.OperandTypeRef:
			if op.TypeRef != nil && op.TypeRef.Scope == assembly && existsInBaseline(assembly, op.TypeRef.FullName) {
				op.TypeRef.Scope = assembly + ".baseline"
			}
		case ilmodel.OperandFieldRef:
			if op.FieldRef != nil && op.FieldRef.Scope == assembly && existsInBaseline(assembly, op.FieldRef.DeclaringType) {
				op.FieldRef.Scope = assembly + ".baseline"
			}
		case ilmodel.OperandMethodRef:
			if op.MethodRef != nil && op.MethodRef.Scope == assembly && existsInBaseline(assembly, op.MethodRef.DeclaringType) {
				op.MethodRef.Scope = assembly + ".baseline"
			}
		}
	}
}
