package errors

import (
	"fmt"
	"strings"
)

// Kind categorizes the error
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindDecompile     Kind = "decompile"
	KindSource        Kind = "source"
)

// Sentinels for errors.Is matching by kind.
var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrDecompile     = &Error{Kind: KindDecompile}
	ErrSource        = &Error{Kind: KindSource}
)

// Error is the structured error type used throughout the pipeline
type Error struct {
	Cause    error
	Kind     Kind
	Op       string // select, open, read, transform, probe
	Path     string // container or source path
	TypeName string
	Detail   string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Kind))
	b.WriteByte(']')

	if e.Op != "" {
		b.WriteByte(' ')
		b.WriteString(e.Op)
	}
	if e.TypeName != "" {
		b.WriteString(" of ")
		b.WriteString(e.TypeName)
	}
	if e.Path != "" {
		b.WriteString(" in ")
		b.WriteString(e.Path)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(kind Kind) *Builder {
	return &Builder{err: Error{Kind: kind}}
}

// Op sets the failing operation
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Path sets the container or source path
func (b *Builder) Path(p string) *Builder {
	b.err.Path = p
	return b
}

// TypeName sets the internal type name
func (b *Builder) TypeName(name string) *Builder {
	b.err.TypeName = name
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnsupportedContainer reports a regular file that is not an archive.
func UnsupportedContainer(path string) *Error {
	return &Error{
		Kind:   KindConfiguration,
		Op:     "select",
		Path:   path,
		Detail: "unexpected container file type, expected .jar or .zip",
	}
}

// ContainerIO reports an I/O failure while opening a container.
func ContainerIO(path string, cause error) *Error {
	return &Error{
		Kind:  KindConfiguration,
		Op:    "open",
		Path:  path,
		Cause: cause,
	}
}

// Decompile reports a transform failure for one type.
func Decompile(typeName string, cause error) *Error {
	return &Error{
		Kind:     KindDecompile,
		Op:       "transform",
		TypeName: typeName,
		Detail:   "unable to decompile",
		Cause:    cause,
	}
}

// SourceIO reports an I/O failure while probing for real source.
func SourceIO(path string, cause error) *Error {
	return &Error{
		Kind:  KindSource,
		Op:    "probe",
		Path:  path,
		Cause: cause,
	}
}
