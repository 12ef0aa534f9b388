package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/phobologic/jdsource/internal/model"
)

// Java is the name the Java language is registered under.
const Java = "java"

func init() {
	Languages[Java] = &Language{
		Name:              Java,
		Extensions:        []string{model.SourceSuffix},
		lang:              java.GetLanguage(),
		FindEnclosingType: javaFindEnclosingType,
		ExtractSignature:  javaExtractSignature,
	}
}

var javaTypeDeclarations = map[string]struct{}{
	"class_declaration":           {},
	"interface_declaration":       {},
	"enum_declaration":            {},
	"record_declaration":          {},
	"annotation_type_declaration": {},
}

// IsTypeDeclaration reports whether node declares a Java type.
func IsTypeDeclaration(node *sitter.Node) bool {
	_, ok := javaTypeDeclarations[node.Type()]
	return ok
}

// javaFindEnclosingType walks up from node collecting the names of the
// type declarations that contain it.
func javaFindEnclosingType(node *sitter.Node, source []byte) string {
	var names []string
	for current := node.Parent(); current != nil; current = current.Parent() {
		if !IsTypeDeclaration(current) {
			continue
		}
		if name := current.ChildByFieldName("name"); name != nil {
			names = append(names, NodeText(name, source))
		}
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, ".")
}

func javaExtractSignature(node *sitter.Node, kind model.SymbolKind, source []byte) string {
	switch kind {
	case model.Class, model.Interface, model.Enum:
		return javaTypeSignature(node, source)
	case model.Method, model.Constructor:
		return javaMethodSignature(node, source)
	case model.Field:
		return javaFieldSignature(node, source)
	}
	return ""
}

// javaTypeSignature renders "Name<T> extends A implements B" without
// modifiers or body.
func javaTypeSignature(node *sitter.Node, source []byte) string {
	var parts []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			parts = append(parts, NodeText(child, source))
		case "type_parameters", "formal_parameters":
			if len(parts) > 0 {
				parts[len(parts)-1] += CollapseWhitespace(NodeText(child, source))
			}
		case "superclass", "super_interfaces", "extends_interfaces":
			parts = append(parts, CollapseWhitespace(NodeText(child, source)))
		}
	}
	return strings.Join(parts, " ")
}

// javaMethodSignature renders "ReturnType name(params) throws X"; constructors
// have no return type.
func javaMethodSignature(node *sitter.Node, source []byte) string {
	var b strings.Builder
	if tp := node.ChildByFieldName("type_parameters"); tp != nil {
		b.WriteString(CollapseWhitespace(NodeText(tp, source)))
		b.WriteByte(' ')
	}
	if rt := node.ChildByFieldName("type"); rt != nil {
		b.WriteString(CollapseWhitespace(NodeText(rt, source)))
		b.WriteByte(' ')
	}
	if name := node.ChildByFieldName("name"); name != nil {
		b.WriteString(NodeText(name, source))
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		b.WriteString(CollapseWhitespace(NodeText(params, source)))
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.Type() == "throws" {
			b.WriteByte(' ')
			b.WriteString(CollapseWhitespace(NodeText(child, source)))
		}
	}
	return b.String()
}

// javaFieldSignature returns the declared type of a field. Enum constants
// have no signature.
func javaFieldSignature(node *sitter.Node, source []byte) string {
	if typ := node.ChildByFieldName("type"); typ != nil {
		return CollapseWhitespace(NodeText(typ, source))
	}
	return ""
}
