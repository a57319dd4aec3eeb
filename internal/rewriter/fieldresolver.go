package rewriter

import "github.com/hotreloadd/compileserver/internal/ilmodel"

// rewriteFieldAccess replaces every ldfld/stfld/ldflda instruction in m
// that targets a field in addedFields with the corresponding
// FieldResolver<TOwner>/FieldHolder<TField> call sequence.
func rewriteFieldAccess(m *ilmodel.MethodDef, addedFields map[string]*ilmodel.FieldDef) {
	if len(addedFields) == 0 {
		return
	}
	var out []ilmodel.Instruction
	for _, inst := range m.Body {
		fr := inst.Operand.FieldRef
		if fr == nil {
			out = append(out, inst)
			continue
		}
		fd, isAdded := addedFields[fr.Name]
		if !isAdded {
			out = append(out, inst)
			continue
		}
		switch inst.Op {
		case ilmodel.OpLdfld:
			out = append(out, getHolderSequence(fd, false)...)
			out = append(out, holderFieldRead(fd))
		case ilmodel.OpLdsfld:
			out = append(out, getHolderSequence(fd, true)...)
			out = append(out, holderFieldRead(fd))
		case ilmodel.OpStfld:
			out = append(out, storeSequence(fd, false)...)
		case ilmodel.OpStsfld:
			out = append(out, storeSequence(fd, true)...)
		case ilmodel.OpLdflda:
			out = append(out, getHolderSequence(fd, false)...)
			out = append(out, holderGetRef(fd))
		case ilmodel.OpLdsflda:
			out = append(out, getHolderSequence(fd, true)...)
			out = append(out, holderGetRef(fd))
		default:
			out = append(out, inst)
		}
	}
	m.Body = out
}

func fieldHolderType(fd *ilmodel.FieldDef) string {
	return FieldResolverNamespace + ".FieldHolder<" + fd.FieldType + ">"
}

func fieldResolverType(fd *ilmodel.FieldDef) string {
	return FieldResolverNamespace + ".FieldResolver<" + fd.DeclaringType + ">"
}

// getHolderSequence pushes the field name and calls GetHolder, leaving
// a FieldHolder<TField> on the stack. A null instance is pushed first
// for static fields (the instance argument is required either way).
func getHolderSequence(fd *ilmodel.FieldDef, static bool) []ilmodel.Instruction {
	var seq []ilmodel.Instruction
	if static {
		seq = append(seq, ilmodel.Instruction{Op: ilmodel.OpOther, Mnemonic: "ldnull"})
	}
	seq = append(seq, ilmodel.Instruction{
		Op: ilmodel.OpOther, Mnemonic: "ldstr",
		Operand: ilmodel.Operand{Kind: ilmodel.OperandString, Str: fd.Name},
	})
	seq = append(seq, ilmodel.Instruction{
		Op: ilmodel.OpCall, Mnemonic: "call",
		Operand: ilmodel.Operand{
			Kind: ilmodel.OperandMethodRef,
			MethodRef: &ilmodel.MethodReference{
				DeclaringType: fieldResolverType(fd),
				Signature:     fieldResolverType(fd) + "::GetHolder(Object,String)",
				GenericArgs:   []string{fd.FieldType},
			},
		},
	})
	return seq
}

func holderFieldRead(fd *ilmodel.FieldDef) ilmodel.Instruction {
	return ilmodel.Instruction{
		Op: ilmodel.OpLdfld, Mnemonic: "ldfld",
		Operand: ilmodel.Operand{
			Kind:     ilmodel.OperandFieldRef,
			FieldRef: &ilmodel.FieldReference{DeclaringType: fieldHolderType(fd), Name: "F", FieldType: fd.FieldType},
		},
	}
}

func holderGetRef(fd *ilmodel.FieldDef) ilmodel.Instruction {
	return ilmodel.Instruction{
		Op: ilmodel.OpCallvirt, Mnemonic: "callvirt",
		Operand: ilmodel.Operand{
			Kind: ilmodel.OperandMethodRef,
			MethodRef: &ilmodel.MethodReference{
				DeclaringType: fieldHolderType(fd),
				Signature:     fieldHolderType(fd) + "::GetRef()",
			},
		},
	}
}

// storeSequence pushes the field name and calls Store, consuming the
// instance (if any) and value already on the stack from the original
// stfld/stsfld's operand-producing code.
func storeSequence(fd *ilmodel.FieldDef, static bool) []ilmodel.Instruction {
	sig := fieldResolverType(fd) + "::Store(Object," + fd.FieldType + ",String)"
	if static {
		sig = fieldResolverType(fd) + "::Store(" + fd.FieldType + ",String)"
	}
	return []ilmodel.Instruction{
		{Op: ilmodel.OpOther, Mnemonic: "ldstr", Operand: ilmodel.Operand{Kind: ilmodel.OperandString, Str: fd.Name}},
		{
			Op: ilmodel.OpCall, Mnemonic: "call",
			Operand: ilmodel.Operand{
				Kind: ilmodel.OperandMethodRef,
				MethodRef: &ilmodel.MethodReference{
					DeclaringType: fieldResolverType(fd),
					Signature:     sig,
					GenericArgs:   []string{fd.FieldType},
				},
			},
		},
	}
}
