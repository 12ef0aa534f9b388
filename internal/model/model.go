// Package model defines core data structures for jdsource.
package model

import (
	"fmt"
	"path"
	"strings"
)

const (
	// SourceSuffix is the suffix a request path must carry to be synthesized.
	SourceSuffix = ".java"
	// ClassSuffix is the suffix of compiled type entries inside a container.
	ClassSuffix = ".class"
)

// TypeName is a slash-delimited internal type name such as "a/b/C".
type TypeName string

// TypeNameFromSourcePath strips the source suffix (case-insensitively) from a
// request path. ok is false when the path does not end in the suffix.
func TypeNameFromSourcePath(p string) (name TypeName, ok bool) {
	if len(p) <= len(SourceSuffix) || !strings.EqualFold(p[len(p)-len(SourceSuffix):], SourceSuffix) {
		return "", false
	}
	return TypeName(p[:len(p)-len(SourceSuffix)]), true
}

// TypeNameFromClassPath strips the class suffix from a container entry path.
func TypeNameFromClassPath(p string) (name TypeName, ok bool) {
	if len(p) <= len(ClassSuffix) || !strings.EqualFold(p[len(p)-len(ClassSuffix):], ClassSuffix) {
		return "", false
	}
	return TypeName(p[:len(p)-len(ClassSuffix)]), true
}

// Package returns the slash-delimited package part, or "" for the default package.
func (n TypeName) Package() string {
	dir := path.Dir(string(n))
	if dir == "." {
		return ""
	}
	return dir
}

// SimpleName returns the last path element.
func (n TypeName) SimpleName() string {
	return path.Base(string(n))
}

// ClassPath returns the container-relative path of the compiled type.
func (n TypeName) ClassPath() string {
	return string(n) + ClassSuffix
}

// SourcePath returns the request path that resolves to this type.
func (n TypeName) SourcePath() string {
	return string(n) + SourceSuffix
}

// Nested reports whether the name denotes a nested or anonymous class.
func (n TypeName) Nested() bool {
	return strings.Contains(n.SimpleName(), "$")
}

// RenderOptions controls how synthesized source is presented.
type RenderOptions struct {
	RealignLineNumbers bool           `yaml:"realignLineNumbers"`
	EscapeUnicode      bool           `yaml:"escapeUnicode"`
	ShowLineNumbers    bool           `yaml:"showLineNumbers"`
	ShowMetadata       bool           `yaml:"showMetadata"`
	Options            map[string]any `yaml:"options,omitempty"`
}

// Version holds the class-file format version reported while decompiling.
type Version struct {
	Major int
	Minor int
}

// MinKnownMajor is the lowest class-file major version with a language mapping.
const MinKnownMajor = 45

// Known reports whether the major version is in the meaningful range.
func (v Version) Known() bool {
	return v.Major >= MinKnownMajor
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// TagKind indicates whether a tag is a definition or a reference.
type TagKind string

const (
	Definition TagKind = "def"
	Reference  TagKind = "ref"
)

// SymbolKind indicates the syntactic kind of a symbol.
type SymbolKind string

const (
	Class       SymbolKind = "class"
	Interface   SymbolKind = "interface"
	Enum        SymbolKind = "enum"
	Method      SymbolKind = "method"
	Constructor SymbolKind = "constructor"
	Field       SymbolKind = "field"
	Module      SymbolKind = "module"
)

// Tag represents a single symbol occurrence extracted from source code.
type Tag struct {
	Name       string
	Kind       TagKind
	SymbolKind SymbolKind
	Line       int
	File       string
	Signature  string
}

// Outline is the structural summary of one resolved source text.
type Outline struct {
	Container   string
	Path        string
	Synthesized bool
	Tags        []Tag
}

// TypeEntry is one compiled type found in a container.
type TypeEntry struct {
	Name      TypeName
	ClassPath string // slash-separated, relative to the container root
	HasSource bool   // real source exists in an attachment or source root
}
