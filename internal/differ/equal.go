package differ

import (
	"math"
	"strings"

	"github.com/hotreloadd/compileserver/internal/ilmodel"
)

const float32Tolerance = 1e-4

// asyncBuilderFamilyNames are the declaring-type name fragments that
// identify an async-builder's Start<TStateMachine> entry point.
var asyncBuilderFamilyNames = []string{
	"AsyncTaskMethodBuilder",
	"AsyncVoidMethodBuilder",
	"AsyncValueTaskMethodBuilder",
	"AsyncUniTaskMethodBuilder",
	"AsyncUniTaskVoidMethodBuilder",
}

// moduleLookup finds a type by name within whichever module a
// MethodReference operand's nested state-machine type lives in. It is
// satisfied by *ilmodel.Module.
type moduleLookup interface {
	FindType(fullName string) *ilmodel.TypeDef
}

// BodiesEqual reports whether a and b are semantically identical under
// the diff's metadata-token-drift tolerance. modules resolves type
// references encountered while recursing into async state machines.
func BodiesEqual(a, b *ilmodel.MethodDef, modules moduleLookup) bool {
	if !a.HasBody && !b.HasBody {
		return true
	}
	if a.HasBody != b.HasBody {
		return false
	}
	if len(a.Locals) != len(b.Locals) {
		return false
	}
	if a.ExceptionHandlers != b.ExceptionHandlers {
		return false
	}
	if len(a.Body) != len(b.Body) {
		return false
	}
	for i := range a.Body {
		ia, ib := a.Body[i], b.Body[i]
		if ia.Op != ib.Op {
			return false
		}
		if !operandsEqual(ia.Operand, ib.Operand, modules) {
			return false
		}
	}
	return true
}

func operandsEqual(a, b ilmodel.Operand, modules moduleLookup) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ilmodel.OperandNone:
		return true
	case ilmodel.OperandInt:
		return a.Int64 == b.Int64
	case ilmodel.OperandFloat32:
		return math.Abs(float64(a.Float32-b.Float32)) <= float32Tolerance
	case ilmodel.OperandFloat64:
		return a.Float64 == b.Float64
	case ilmodel.OperandString:
		return a.Str == b.Str
	case ilmodel.OperandBytes:
		return string(a.Bytes) == string(b.Bytes)
	case ilmodel.OperandTypeRef:
		return a.TypeRef != nil && b.TypeRef != nil && a.TypeRef.FullName == b.TypeRef.FullName
	case ilmodel.OperandFieldRef:
		return a.FieldRef != nil && b.FieldRef != nil &&
			a.FieldRef.DeclaringType == b.FieldRef.DeclaringType && a.FieldRef.Name == b.FieldRef.Name
	case ilmodel.OperandVariable:
		return a.Variable != nil && b.Variable != nil && a.Variable.Type == b.Variable.Type
	case ilmodel.OperandParameter:
		return a.Parameter != nil && b.Parameter != nil && a.Parameter.Type == b.Parameter.Type
	case ilmodel.OperandMethodRef:
		return methodRefsEqual(a.MethodRef, b.MethodRef, modules)
	case ilmodel.OperandBranchTarget:
		// Branch targets may have shifted offsets while logic is
		// unchanged; surrounding opcode equality already constrains
		// control flow, so targets are always considered equal.
		return true
	case ilmodel.OperandSwitchTargets:
		return len(a.SwitchTargets) == len(b.SwitchTargets)
	case ilmodel.OperandNestedMethod:
		return a.NestedMethod != nil && b.NestedMethod != nil &&
			nestedMethodEqual(a.NestedMethod, b.NestedMethod, modules)
	default:
		return a == b
	}
}

func methodRefsEqual(a, b *ilmodel.MethodReference, modules moduleLookup) bool {
	if a == nil || b == nil {
		return a == b
	}
	if isAsyncBuilderStart(a) && isAsyncBuilderStart(b) {
		smA, smB := stateMachineMoveNext(a, modules), stateMachineMoveNext(b, modules)
		if smA == nil || smB == nil {
			return smA == smB
		}
		return BodiesEqual(smA, smB, modules)
	}
	return a.DeclaringType == b.DeclaringType && a.Signature == b.Signature
}

func isAsyncBuilderStart(mr *ilmodel.MethodReference) bool {
	if mr == nil || mr.DeclaringType == "" {
		return false
	}
	familyMatch := false
	for _, frag := range asyncBuilderFamilyNames {
		if strings.Contains(mr.DeclaringType, frag) {
			familyMatch = true
			break
		}
	}
	if !familyMatch {
		return false
	}
	// Method name is encoded in Signature ("... ::Start(...)").
	return strings.Contains(mr.Signature, "::Start(")
}

// stateMachineMoveNext resolves the generic type argument of a
// Start<TStateMachine> call to its MoveNext method.
func stateMachineMoveNext(mr *ilmodel.MethodReference, modules moduleLookup) *ilmodel.MethodDef {
	if len(mr.GenericArgs) == 0 || modules == nil {
		return nil
	}
	smType := modules.FindType(mr.GenericArgs[0])
	if smType == nil {
		return nil
	}
	for _, m := range smType.Methods {
		if m.Name == "MoveNext" {
			return m
		}
	}
	return nil
}

// nestedMethodEqual handles the "MethodDefinition inside a
// compiler-generated nested type" recursion case: lambda and
// state-machine body edits are caught by recursing into
// body-equivalence rather than comparing by identity.
func nestedMethodEqual(a, b *ilmodel.MethodDef, modules moduleLookup) bool {
	return BodiesEqual(a, b, modules)
}
