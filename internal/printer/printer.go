// Package printer defines the token stream a decompiling transform writes to,
// and the line-numbering text sink that renders it.
package printer

// UnknownLineNumber marks a line with no original source line.
const UnknownLineNumber = 0

// DeclarationKind classifies a declared or referenced name.
type DeclarationKind int

const (
	TypeKind DeclarationKind = iota + 1
	FieldKind
	MethodKind
	ConstructorKind
	PackageKind
	ModuleKind
)

// MarkerKind classifies a structural region of the output.
type MarkerKind int

const (
	CommentMarker MarkerKind = iota + 1
	JavadocMarker
	ErrorMarker
	ImportStatementsMarker
)

// Printer receives the lexical output of a decompiling transform.
//
// A transform calls Start once with the class-file version, then emits lines
// bracketed by StartLine/EndLine, then calls End. Printers are not safe for
// concurrent use and must not be shared between calls.
type Printer interface {
	Start(maxLineNumber, majorVersion, minorVersion int)
	End()

	PrintText(text string)
	PrintNumericConstant(constant string)
	PrintStringConstant(constant, ownerInternalName string)
	PrintKeyword(keyword string)
	PrintDeclaration(kind DeclarationKind, internalTypeName, name, descriptor string)
	PrintReference(kind DeclarationKind, internalTypeName, name, descriptor, ownerInternalName string)

	Indent()
	Unindent()

	StartLine(lineNumber int)
	EndLine()
	ExtraLine(count int)

	StartMarker(kind MarkerKind)
	EndMarker(kind MarkerKind)
}
