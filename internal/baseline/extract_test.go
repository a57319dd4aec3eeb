package baseline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanSourceTopLevelType(t *testing.T) {
	src := []byte("using System;\nusing System.Linq;\n\npublic class Foo\n{\n}\n")
	imports, types := scanSource(src)
	require.Equal(t, []string{"System", "System.Linq"}, imports)
	require.Equal(t, []string{"Foo"}, types)
}

func TestScanSourceNestedType(t *testing.T) {
	src := []byte("public class Outer\n{\n    public class Inner\n    {\n    }\n}\n")
	_, types := scanSource(src)
	require.Equal(t, []string{"Outer", "Outer/Inner"}, types)
}

func TestScanSourceMultipleSiblingTypesAfterNested(t *testing.T) {
	src := []byte(
		"public class Outer\n{\n" +
			"    public class Inner\n    {\n    }\n" +
			"}\n" +
			"public struct Sibling\n{\n}\n")
	_, types := scanSource(src)
	require.Equal(t, []string{"Outer", "Outer/Inner", "Sibling"}, types)
}

func TestScanSourceDedupesImports(t *testing.T) {
	src := []byte("using System;\nusing System;\npublic class Foo {}\n")
	imports, _ := scanSource(src)
	require.Equal(t, []string{"System"}, imports)
}

func TestUniqueStringsPreservesOrder(t *testing.T) {
	require.Equal(t, []string{"a", "b", "c"}, uniqueStrings([]string{"a", "b", "a", "c", "b"}))
}
