package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/phobologic/jdsource/internal/model"
)

// DirectoryLoader loads class files from a directory tree.
type DirectoryLoader struct {
	base string
}

// NewDirectory returns a loader rooted at base.
func NewDirectory(base string) *DirectoryLoader {
	return &DirectoryLoader{base: base}
}

func (d *DirectoryLoader) classFile(internalName string) (string, bool) {
	return JoinLocal(d.base, internalName+model.ClassSuffix)
}

// CanLoad reports whether a regular class file exists for internalName.
func (d *DirectoryLoader) CanLoad(internalName string) bool {
	p, ok := d.classFile(internalName)
	if !ok {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Load reads the class file for internalName.
func (d *DirectoryLoader) Load(internalName string) ([]byte, error) {
	p, ok := d.classFile(internalName)
	if !ok {
		return nil, fmt.Errorf("invalid internal name %q", internalName)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", internalName, err)
	}
	return data, nil
}

func (d *DirectoryLoader) Path() string   { return d.base }
func (d *DirectoryLoader) IsArchive() bool { return false }
func (d *DirectoryLoader) Close() error    { return nil }

// Walk visits class files in lexical order. Symlinks are skipped.
func (d *DirectoryLoader) Walk(fn func(classPath string) error) error {
	return filepath.WalkDir(d.base, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if e.IsDir() || e.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !strings.HasSuffix(e.Name(), model.ClassSuffix) {
			return nil
		}
		rel, err := filepath.Rel(d.base, path)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel))
	})
}
