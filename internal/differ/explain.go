package differ

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/hotreloadd/compileserver/internal/ilmodel"
)

// Explain renders a unified, line-oriented diff of two method bodies'
// textual disassembly, purely as a diagnostic aid for the Debug-level
// log line Diff writes for each Modified method. It plays no part in the
// equality predicate itself.
func Explain(label string, a, b *ilmodel.MethodDef) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(disassemble(a)),
		B:        difflib.SplitLines(disassemble(b)),
		FromFile: label + " (reference)",
		ToFile:   label + " (patch)",
		Context:  2,
	}
	return difflib.GetUnifiedDiffString(diff)
}

func disassemble(m *ilmodel.MethodDef) string {
	if m == nil {
		return "<no body>\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "// %s\n", m.Signature)
	for i, inst := range m.Body {
		fmt.Fprintf(&b, "%04d: %s %s\n", i, inst.Mnemonic, operandText(inst.Operand))
	}
	return b.String()
}

func operandText(op ilmodel.Operand) string {
	switch op.Kind {
	case ilmodel.OperandString:
		return op.Str
	case ilmodel.OperandInt:
		return fmt.Sprintf("%d", op.Int64)
	case ilmodel.OperandTypeRef:
		if op.TypeRef != nil {
			return op.TypeRef.FullName
		}
	case ilmodel.OperandFieldRef:
		if op.FieldRef != nil {
			return op.FieldRef.DeclaringType + "::" + op.FieldRef.Name
		}
	case ilmodel.OperandMethodRef:
		if op.MethodRef != nil {
			return op.MethodRef.Signature
		}
	}
	return ""
}
