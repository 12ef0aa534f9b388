// Package source looks up real source text for a request path, either in a
// directory tree or inside a source archive.
package source

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	srcerr "github.com/phobologic/jdsource/internal/errors"
	"github.com/phobologic/jdsource/internal/loader"
)

// Finder returns the real source text stored at path. A missing file is
// reported as found=false with a nil error.
type Finder interface {
	FindSource(path string) (text string, found bool, err error)
}

// FinderFunc adapts a function to the Finder interface.
type FinderFunc func(path string) (string, bool, error)

func (f FinderFunc) FindSource(path string) (string, bool, error) {
	return f(path)
}

// None never finds source.
var None Finder = FinderFunc(func(string) (string, bool, error) {
	return "", false, nil
})

// Attachment is a Finder backed by an opened resource.
type Attachment interface {
	Finder
	io.Closer
}

// Open returns an attachment for a source directory or a .jar/.zip source
// archive.
func Open(p string) (Attachment, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, srcerr.SourceIO(p, err)
	}
	if info.IsDir() {
		return &Dir{Root: p}, nil
	}
	if !loader.IsArchivePath(p) {
		return nil, srcerr.New(srcerr.KindSource).
			Op("open").
			Path(p).
			Detail("unexpected source attachment type, expected a directory, .jar or .zip").
			Build()
	}
	return OpenArchive(p)
}

// Dir finds source files below Root.
type Dir struct {
	Root string
}

func (d *Dir) FindSource(p string) (string, bool, error) {
	rel := filepath.FromSlash(strings.TrimPrefix(p, "/"))
	if !filepath.IsLocal(rel) {
		return "", false, nil
	}
	full := filepath.Join(d.Root, rel)
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || isDirErr(full) {
			return "", false, nil
		}
		return "", false, srcerr.SourceIO(full, err)
	}
	return string(data), len(data) > 0, nil
}

func (d *Dir) Close() error { return nil }

func isDirErr(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// Archive finds source entries inside a zip-format archive.
type Archive struct {
	path    string
	rc      *zip.ReadCloser
	entries map[string]*zip.File
}

// OpenArchive indexes the file entries of the archive at p.
func OpenArchive(p string) (*Archive, error) {
	rc, err := zip.OpenReader(p)
	if err != nil {
		return nil, srcerr.SourceIO(p, err)
	}
	a := &Archive{path: p, rc: rc, entries: make(map[string]*zip.File, len(rc.File))}
	for _, f := range rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		a.entries[path.Clean(strings.TrimPrefix(f.Name, "/"))] = f
	}
	return a, nil
}

func (a *Archive) FindSource(p string) (string, bool, error) {
	f, ok := a.entries[path.Clean(strings.TrimPrefix(p, "/"))]
	if !ok {
		return "", false, nil
	}
	r, err := f.Open()
	if err != nil {
		return "", false, srcerr.SourceIO(a.path+"!/"+f.Name, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return "", false, srcerr.SourceIO(a.path+"!/"+f.Name, err)
	}
	return string(data), len(data) > 0, nil
}

func (a *Archive) Close() error {
	return a.rc.Close()
}
