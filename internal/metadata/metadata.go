// Package metadata appends the trailing location and version comment to
// synthesized source.
package metadata

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/phobologic/jdsource/internal/model"
)

const (
	locationLabel = "\n\n/* Location:              "
	compilerLabel = "\n * Java compiler version: "
	toolLabel     = "\n * Decompiler version:    "
	closing       = "\n */"
)

// Location identifies the container a type was read from.
type Location struct {
	Container string
	Archive   bool
}

// Path returns where the class file of name lives: "<archive>!/<name>.class"
// for archives, the joined file path for directories.
func (l Location) Path(name model.TypeName) string {
	if l.Archive {
		return l.Container + "!/" + name.ClassPath()
	}
	return filepath.Join(l.Container, filepath.FromSlash(name.ClassPath()))
}

// LanguageVersion maps a class-file major version to its language version.
// It returns 0 when the major version predates the mapping.
func LanguageVersion(major int) int {
	if !(model.Version{Major: major}).Known() {
		return 0
	}
	return major - 44
}

// Compose appends the metadata comment to text.
func Compose(text string, name model.TypeName, loc Location, v model.Version, toolVersion string) string {
	var b strings.Builder
	b.Grow(len(text) + 160)
	b.WriteString(text)

	b.WriteString(locationLabel)
	b.WriteString(EscapeLocation(loc.Path(name)))

	if v.Known() {
		b.WriteString(compilerLabel)
		b.WriteString(strconv.Itoa(LanguageVersion(v.Major)))
		b.WriteString(" (")
		b.WriteString(v.String())
		b.WriteByte(')')
	}

	b.WriteString(toolLabel)
	b.WriteString(toolVersion)
	b.WriteString(closing)
	return b.String()
}

// EscapeLocation doubles every backslash that introduces a "\u" sequence so
// that Windows paths like "C:\users" do not read as unicode escapes. A
// sequence whose backslash is itself escaped is left alone.
func EscapeLocation(s string) string {
	if !strings.Contains(s, `\u`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) && s[i+1] == 'u' && (i == 0 || s[i-1] != '\\') {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}
