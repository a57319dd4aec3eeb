// Package signature deals with method signature strings: the canonical
// "ReturnType DeclaringType::Name(ParamType1,ParamType2,...)" form, and
// the definition/reference-form split that generic methods require.
//
// Callers should treat Method as an opaque string at storage boundaries
// (map keys, JSON payloads) and only parse when matching by name.
package signature

import (
	"regexp"
	"strings"
)

// Method is a canonical method signature string, e.g.
// "Int32 Foo::X()" or definition-form "T G::Id(T)".
type Method string

// Field is a canonical field signature string, e.g. "Int32 Foo::Z".
type Field string

var paramSplit = regexp.MustCompile(`\(([^)]*)\)$`)

// DeclaringType extracts "Foo" from "Int32 Foo::X()".
func (m Method) DeclaringType() string {
	s := string(m)
	sep := strings.Index(s, "::")
	if sep < 0 {
		return ""
	}
	head := s[:sep]
	if sp := strings.LastIndex(head, " "); sp >= 0 {
		return head[sp+1:]
	}
	return head
}

// Name extracts "X" from "Int32 Foo::X()".
func (m Method) Name() string {
	s := string(m)
	sep := strings.Index(s, "::")
	if sep < 0 {
		return s
	}
	rest := s[sep+2:]
	if p := strings.Index(rest, "("); p >= 0 {
		return rest[:p]
	}
	return rest
}

// Params returns the comma-separated parameter type list, split, with
// no entries for a zero-argument method.
func (m Method) Params() []string {
	ms := paramSplit.FindStringSubmatch(string(m))
	if ms == nil || ms[1] == "" {
		return nil
	}
	return strings.Split(ms[1], ",")
}

// IsConstructor reports whether the method name is a constructor marker
// (".ctor" or ".cctor"), the convention used by the declaring type's
// own name doubling as the constructor name in C#-class signatures is
// normalized to ".ctor" at signature-construction time.
func (m Method) IsConstructor() bool {
	n := m.Name()
	return n == ".ctor" || n == ".cctor"
}

// IsAccessor reports whether the method name matches the "Prop.get()"/
// "Prop.set()" property-accessor convention, or an event add/remove.
func (m Method) IsAccessor() bool {
	n := m.Name()
	return strings.HasSuffix(n, ".get") || strings.HasSuffix(n, ".set") ||
		strings.HasSuffix(n, ".add") || strings.HasSuffix(n, ".remove")
}

// Build assembles a canonical reference-form signature string.
func Build(returnType, declaringType, name string, params []string) Method {
	var b strings.Builder
	b.WriteString(returnType)
	b.WriteByte(' ')
	b.WriteString(declaringType)
	b.WriteString("::")
	b.WriteString(name)
	b.WriteByte('(')
	b.WriteString(strings.Join(params, ","))
	b.WriteByte(')')
	return Method(b.String())
}

// BuildField assembles a canonical field signature string.
func BuildField(fieldType, declaringType, name string) Field {
	return Field(fieldType + " " + declaringType + "::" + name)
}

// ConversionOperatorName builds the canonical name for a conversion
// operator targeting targetType, per the "operator <TargetType>"
// convention.
func ConversionOperatorName(targetType string) string {
	return "operator " + targetType
}

// PropertyAccessorName builds the canonical accessor method name for a
// property, e.g. PropertyAccessorName("Count", "get") -> "Count.get".
func PropertyAccessorName(propName, accessor string) string {
	return propName + "." + accessor
}

// IndexerAccessorName builds the canonical accessor name for a
// parameterized (indexer) property: indexers are modeled as two
// accessor signatures taking the index parameters, named the same as
// ordinary property accessors ("Item.get"/"Item.set").
func IndexerAccessorName(accessor string) string {
	return PropertyAccessorName("Item", accessor)
}
