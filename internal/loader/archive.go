package loader

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"

	srcerr "github.com/phobologic/jdsource/internal/errors"
	"github.com/phobologic/jdsource/internal/model"
)

// ArchiveLoader loads class files from a .jar or .zip archive.
// The archive stays open until Close.
type ArchiveLoader struct {
	path    string
	rc      *zip.ReadCloser
	entries map[string]*zip.File
}

// OpenArchive opens and indexes the archive at path.
func OpenArchive(path string) (*ArchiveLoader, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, srcerr.ContainerIO(path, err)
	}

	entries := make(map[string]*zip.File, len(rc.File))
	for _, f := range rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := strings.TrimPrefix(f.Name, "/")
		if !strings.HasSuffix(name, model.ClassSuffix) {
			continue
		}
		// entries such as "../x.class" would name types outside the package tree
		if !IsLocalName(name) {
			continue
		}
		entries[name] = f
	}

	return &ArchiveLoader{path: path, rc: rc, entries: entries}, nil
}

// CanLoad reports whether the archive holds an entry for internalName.
func (a *ArchiveLoader) CanLoad(internalName string) bool {
	_, ok := a.entries[internalName+model.ClassSuffix]
	return ok
}

// Load reads the entry for internalName.
func (a *ArchiveLoader) Load(internalName string) ([]byte, error) {
	f, ok := a.entries[internalName+model.ClassSuffix]
	if !ok {
		return nil, fmt.Errorf("%s: no entry in %s", internalName, a.path)
	}
	r, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name, err)
	}
	return data, nil
}

func (a *ArchiveLoader) Path() string   { return a.path }
func (a *ArchiveLoader) IsArchive() bool { return true }

// Close releases the archive.
func (a *ArchiveLoader) Close() error {
	return a.rc.Close()
}

// Walk visits class entries in lexical order.
func (a *ArchiveLoader) Walk(fn func(classPath string) error) error {
	names := make([]string, 0, len(a.entries))
	for name := range a.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := fn(name); err != nil {
			return err
		}
	}
	return nil
}
