package rewriter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hotreloadd/compileserver/internal/ilmodel"
)

func fieldRefInst(op ilmodel.OpCode, fd *ilmodel.FieldDef) ilmodel.Instruction {
	return ilmodel.Instruction{
		Op: op,
		Operand: ilmodel.Operand{
			Kind:     ilmodel.OperandFieldRef,
			FieldRef: &ilmodel.FieldReference{DeclaringType: fd.DeclaringType, Name: fd.Name, FieldType: fd.FieldType},
		},
	}
}

func TestRewriteFieldAccessNoopWithoutAddedFields(t *testing.T) {
	m := &ilmodel.MethodDef{Body: []ilmodel.Instruction{{Op: ilmodel.OpLdfld}}}
	rewriteFieldAccess(m, nil)
	require.Len(t, m.Body, 1)
}

func TestRewriteFieldAccessLdfld(t *testing.T) {
	fd := &ilmodel.FieldDef{Name: "count", DeclaringType: "Foo", FieldType: "Int32"}
	m := &ilmodel.MethodDef{Body: []ilmodel.Instruction{fieldRefInst(ilmodel.OpLdfld, fd)}}

	rewriteFieldAccess(m, map[string]*ilmodel.FieldDef{"count": fd})

	require.Len(t, m.Body, 3) // ldstr, call GetHolder, ldfld F
	require.Equal(t, "ldstr", m.Body[0].Mnemonic)
	require.Equal(t, "call", m.Body[1].Mnemonic)
	require.Equal(t, ilmodel.OpLdfld, m.Body[2].Op)
	require.Equal(t, "F", m.Body[2].Operand.FieldRef.Name)
}

func TestRewriteFieldAccessLdsfld(t *testing.T) {
	fd := &ilmodel.FieldDef{Name: "count", DeclaringType: "Foo", FieldType: "Int32", IsStatic: true}
	m := &ilmodel.MethodDef{Body: []ilmodel.Instruction{fieldRefInst(ilmodel.OpLdsfld, fd)}}

	rewriteFieldAccess(m, map[string]*ilmodel.FieldDef{"count": fd})

	require.Equal(t, "ldnull", m.Body[0].Mnemonic)
	require.Equal(t, "ldstr", m.Body[1].Mnemonic)
	require.Equal(t, "call", m.Body[2].Mnemonic)
	require.Equal(t, ilmodel.OpLdfld, m.Body[3].Op)
}

func TestRewriteFieldAccessStfld(t *testing.T) {
	fd := &ilmodel.FieldDef{Name: "count", DeclaringType: "Foo", FieldType: "Int32"}
	m := &ilmodel.MethodDef{Body: []ilmodel.Instruction{fieldRefInst(ilmodel.OpStfld, fd)}}

	rewriteFieldAccess(m, map[string]*ilmodel.FieldDef{"count": fd})

	require.Len(t, m.Body, 2) // ldstr, call Store
	require.Equal(t, "ldstr", m.Body[0].Mnemonic)
	require.Equal(t, "call", m.Body[1].Mnemonic)
	require.Contains(t, m.Body[1].Operand.MethodRef.Signature, "::Store(Object,Int32,String)")
}

func TestRewriteFieldAccessStsfld(t *testing.T) {
	fd := &ilmodel.FieldDef{Name: "count", DeclaringType: "Foo", FieldType: "Int32", IsStatic: true}
	m := &ilmodel.MethodDef{Body: []ilmodel.Instruction{fieldRefInst(ilmodel.OpStsfld, fd)}}

	rewriteFieldAccess(m, map[string]*ilmodel.FieldDef{"count": fd})

	require.Contains(t, m.Body[1].Operand.MethodRef.Signature, "::Store(Int32,String)")
}

func TestRewriteFieldAccessLdflda(t *testing.T) {
	fd := &ilmodel.FieldDef{Name: "count", DeclaringType: "Foo", FieldType: "Int32"}
	m := &ilmodel.MethodDef{Body: []ilmodel.Instruction{fieldRefInst(ilmodel.OpLdflda, fd)}}

	rewriteFieldAccess(m, map[string]*ilmodel.FieldDef{"count": fd})

	require.Equal(t, ilmodel.OpCallvirt, m.Body[2].Op)
	require.Contains(t, m.Body[2].Operand.MethodRef.Signature, "::GetRef()")
}

func TestRewriteFieldAccessLdsflda(t *testing.T) {
	fd := &ilmodel.FieldDef{Name: "count", DeclaringType: "Foo", FieldType: "Int32", IsStatic: true}
	m := &ilmodel.MethodDef{Body: []ilmodel.Instruction{fieldRefInst(ilmodel.OpLdsflda, fd)}}

	rewriteFieldAccess(m, map[string]*ilmodel.FieldDef{"count": fd})

	require.Equal(t, "ldnull", m.Body[0].Mnemonic)
	require.Equal(t, ilmodel.OpCallvirt, m.Body[3].Op)
}

func TestRewriteFieldAccessLeavesUnrelatedFieldsUntouched(t *testing.T) {
	fd := &ilmodel.FieldDef{Name: "other", DeclaringType: "Foo", FieldType: "Int32"}
	inst := fieldRefInst(ilmodel.OpLdfld, fd)
	m := &ilmodel.MethodDef{Body: []ilmodel.Instruction{inst}}

	rewriteFieldAccess(m, map[string]*ilmodel.FieldDef{"count": {Name: "count", DeclaringType: "Foo", FieldType: "Int32"}})

	require.Equal(t, []ilmodel.Instruction{inst}, m.Body)
}

func TestRewriteFieldAccessLeavesNonFieldInstructionsUntouched(t *testing.T) {
	inst := ilmodel.Instruction{Op: ilmodel.OpCall}
	m := &ilmodel.MethodDef{Body: []ilmodel.Instruction{inst}}

	rewriteFieldAccess(m, map[string]*ilmodel.FieldDef{"count": {Name: "count"}})

	require.Equal(t, []ilmodel.Instruction{inst}, m.Body)
}
