package rewriter

import "github.com/hotreloadd/compileserver/internal/ilmodel"

// RewriteMethod applies the field-resolver rewrite for addedFields and
// baseline rebinding to m in place.
func RewriteMethod(m *ilmodel.MethodDef, assembly string, addedFields map[string]*ilmodel.FieldDef, graph CallGraphUpdater) {
	rewriteFieldAccess(m, addedFields)
	if graph != nil {
		rebindToBaseline(m, assembly, func(asm, fullName string) bool {
			return graph.BaselineType(asm, fullName) != nil
		})
	}
}
