package ilmodel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleModule() *Module {
	return &Module{
		Name: "MyAssembly",
		Path: "/out/MyAssembly.dll",
		Types: []*TypeDef{
			{
				FullName: "Foo",
				Attrs:    []string{"CompilerGenerated"},
				Fields: []*FieldDef{
					{Signature: "Int32 Foo::count", Name: "count", DeclaringType: "Foo", FieldType: "Int32"},
				},
				Methods: []*MethodDef{
					{
						Signature:     "Void Foo::Bar()",
						Name:          "Bar",
						DeclaringType: "Foo",
						HasBody:       true,
						Locals:        []*VariableDef{{Index: 0, Type: "Int32"}},
						Body: []Instruction{
							{Op: OpLdfld, Operand: Operand{
								Kind:     OperandFieldRef,
								FieldRef: &FieldReference{DeclaringType: "Foo", Name: "count", FieldType: "Int32", Scope: "MyAssembly"},
							}},
							{Op: OpBranch, Operand: Operand{Kind: OperandBranchTarget, BranchTarget: 3}},
							{Op: OpSwitch, Operand: Operand{Kind: OperandSwitchTargets, SwitchTargets: []int{1, 2, 3}}},
						},
					},
				},
			},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec := Codec{}
	mod := sampleModule()

	data, err := codec.Encode(mod)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	decoded, err := codec.Decode(data)
	require.NoError(t, err)
	require.Equal(t, mod, decoded)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	codec := Codec{}
	mod := sampleModule()
	path := filepath.Join(t.TempDir(), "MyAssembly.dll")

	require.NoError(t, codec.Save(path, mod))

	loaded, err := codec.Load(path)
	require.NoError(t, err)
	require.Equal(t, mod, loaded)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := (Codec{}).Load(filepath.Join(t.TempDir(), "missing.dll"))
	require.Error(t, err)
}

func TestDecodeGarbageErrors(t *testing.T) {
	_, err := (Codec{}).Decode([]byte("not a gob stream"))
	require.Error(t, err)
}

func TestFindTypeExactMatch(t *testing.T) {
	mod := sampleModule()
	require.NotNil(t, mod.FindType("Foo"))
	require.Nil(t, mod.FindType("Bar"))
}

func TestFindMethodExactSignatureMatch(t *testing.T) {
	mod := sampleModule()
	foo := mod.FindType("Foo")
	require.NotNil(t, foo.FindMethod("Void Foo::Bar()"))
	require.Nil(t, foo.FindMethod("Void Foo::Baz()"))
}

func TestHasAttr(t *testing.T) {
	mod := sampleModule()
	foo := mod.FindType("Foo")
	require.True(t, foo.HasAttr("CompilerGenerated"))
	require.False(t, foo.HasAttr("ExtensionMarker"))
}
