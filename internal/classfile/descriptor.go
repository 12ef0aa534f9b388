package classfile

import (
	"fmt"
	"strings"
)

var primitives = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
	'V': "void",
}

// Type is a decoded descriptor type.
type Type struct {
	// Name is a primitive keyword or an internal class name.
	Name      string
	Primitive bool
	Dims      int
}

// String returns the dotted source form, e.g. "java.lang.String[]".
func (t Type) String() string {
	name := t.Name
	if !t.Primitive {
		name = SourceName(name)
	}
	return name + strings.Repeat("[]", t.Dims)
}

// SourceName converts an internal name to its dotted source form,
// e.g. "java/util/Map$Entry" to "java.util.Map.Entry".
func SourceName(internalName string) string {
	return strings.NewReplacer("/", ".", "$", ".").Replace(internalName)
}

// ShortName drops the package from a dotted or internal name.
func ShortName(name string) string {
	name = SourceName(name)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// ParseField decodes a single field descriptor.
func ParseField(desc string) (Type, error) {
	t, rest, err := parseType(desc)
	if err != nil {
		return Type{}, err
	}
	if rest != "" {
		return Type{}, fmt.Errorf("classfile: trailing data in descriptor %q", desc)
	}
	return t, nil
}

// ParseMethod decodes a method descriptor into parameter and return types.
func ParseMethod(desc string) (params []Type, result Type, err error) {
	if !strings.HasPrefix(desc, "(") {
		return nil, Type{}, fmt.Errorf("classfile: invalid method descriptor %q", desc)
	}
	rest := desc[1:]
	for !strings.HasPrefix(rest, ")") {
		if rest == "" {
			return nil, Type{}, fmt.Errorf("classfile: unterminated method descriptor %q", desc)
		}
		var t Type
		t, rest, err = parseType(rest)
		if err != nil {
			return nil, Type{}, err
		}
		params = append(params, t)
	}
	result, err = ParseField(rest[1:])
	if err != nil {
		return nil, Type{}, err
	}
	return params, result, nil
}

// FieldType decodes a field descriptor into a dotted source type.
func FieldType(desc string) (string, error) {
	t, err := ParseField(desc)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

// MethodType decodes a method descriptor into dotted source types.
func MethodType(desc string) (params []string, result string, err error) {
	ps, r, err := ParseMethod(desc)
	if err != nil {
		return nil, "", err
	}
	for _, p := range ps {
		params = append(params, p.String())
	}
	return params, r.String(), nil
}

func parseType(desc string) (Type, string, error) {
	dims := 0
	for strings.HasPrefix(desc, "[") {
		dims++
		desc = desc[1:]
	}
	if desc == "" {
		return Type{}, "", fmt.Errorf("classfile: empty descriptor")
	}

	if desc[0] == 'L' {
		end := strings.IndexByte(desc, ';')
		if end < 0 {
			return Type{}, "", fmt.Errorf("classfile: unterminated class descriptor %q", desc)
		}
		return Type{Name: desc[1:end], Dims: dims}, desc[end+1:], nil
	}

	p, ok := primitives[desc[0]]
	if !ok {
		return Type{}, "", fmt.Errorf("classfile: invalid descriptor character %q", desc[0])
	}
	return Type{Name: p, Primitive: true, Dims: dims}, desc[1:], nil
}
