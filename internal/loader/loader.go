// Package loader reads compiled type definitions out of classpath containers.
package loader

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	srcerr "github.com/phobologic/jdsource/internal/errors"
)

// Loader is the view of a container handed to the decompiling transform.
// Names are internal type names without the .class suffix.
type Loader interface {
	CanLoad(internalName string) bool
	Load(internalName string) ([]byte, error)
}

// Container is a Loader bound to one directory tree or archive file.
type Container interface {
	Loader
	io.Closer

	// Path returns the container location as given to Select.
	Path() string

	// IsArchive reports whether the container is an archive file.
	IsArchive() bool

	// Walk calls fn with the slash-separated path of every .class entry.
	Walk(fn func(classPath string) error) error
}

// IsLocalName reports whether the slash-separated name stays inside the
// directory it is joined to.
func IsLocalName(name string) bool {
	return !strings.Contains(name, `\`) && filepath.IsLocal(filepath.FromSlash(name))
}

// JoinLocal joins the slash-separated name onto root. ok is false when the
// result would leave root.
func JoinLocal(root, name string) (p string, ok bool) {
	if !IsLocalName(name) {
		return "", false
	}
	return filepath.Join(root, filepath.FromSlash(name)), true
}

var archiveExtensions = []string{".jar", ".zip"}

// IsArchivePath reports whether p carries a supported archive extension.
func IsArchivePath(p string) bool {
	lower := strings.ToLower(p)
	for _, ext := range archiveExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Select opens the container at path. Regular files must be archives;
// directories always get a directory loader. Failures are configuration
// errors since no type-specific work has started yet.
func Select(path string) (Container, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, srcerr.ContainerIO(path, err)
	}

	switch {
	case info.Mode().IsRegular():
		if !IsArchivePath(path) {
			return nil, srcerr.UnsupportedContainer(path)
		}
		return OpenArchive(path)
	case info.IsDir():
		return NewDirectory(path), nil
	default:
		return nil, srcerr.New(srcerr.KindConfiguration).
			Op("select").
			Path(path).
			Detail("unsupported container shape %s", info.Mode().Type()).
			Build()
	}
}
