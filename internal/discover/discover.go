// Package discover enumerates the compiled types in a container.
package discover

import (
	"path"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/jdsource/internal/loader"
	"github.com/phobologic/jdsource/internal/model"
)

// IgnoreFile is the container-local ignore file consulted before .gitignore.
const IgnoreFile = ".jdignore"

// descriptor classes that have no source of their own
var skipTypes = map[string]struct{}{
	"module-info":  {},
	"package-info": {},
}

// Options controls type enumeration.
type Options struct {
	IncludeNested bool     // list Outer$Inner types
	Ignore        []string // extra gitignore-style patterns matched against class paths
}

// Types lists the compiled types of c sorted by name. Directory containers
// honor .jdignore and .gitignore files at their root.
func Types(c loader.Container, opts Options) ([]model.TypeEntry, error) {
	matchers := compileMatchers(c, opts.Ignore)

	var results []model.TypeEntry
	err := c.Walk(func(classPath string) error {
		if strings.HasPrefix(classPath, "META-INF/") {
			return nil
		}
		for _, m := range matchers {
			if m.MatchesPath(classPath) {
				return nil
			}
		}

		name, ok := model.TypeNameFromClassPath(classPath)
		if !ok {
			return nil
		}
		if _, skip := skipTypes[path.Base(string(name))]; skip {
			return nil
		}
		if name.Nested() && !opts.IncludeNested {
			return nil
		}

		results = append(results, model.TypeEntry{Name: name, ClassPath: classPath})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Name < results[j].Name
	})
	return results, nil
}

func compileMatchers(c loader.Container, extra []string) []*ignore.GitIgnore {
	var matchers []*ignore.GitIgnore
	if len(extra) > 0 {
		matchers = append(matchers, ignore.CompileIgnoreLines(extra...))
	}
	if c.IsArchive() {
		return matchers
	}
	for _, name := range []string{IgnoreFile, ".gitignore"} {
		if gi := loadIgnoreFile(filepath.Join(c.Path(), name)); gi != nil {
			matchers = append(matchers, gi)
		}
	}
	return matchers
}

// MarkSources sets HasSource on every entry whose top-level type has real
// source according to has, which is asked with the type's request path.
func MarkSources(entries []model.TypeEntry, has func(requestPath string) bool) {
	for i := range entries {
		entries[i].HasSource = has(outer(entries[i].Name).SourcePath())
	}
}

func outer(name model.TypeName) model.TypeName {
	s := string(name)
	slash := strings.LastIndexByte(s, '/')
	if i := strings.IndexByte(s[slash+1:], '$'); i > 0 {
		return model.TypeName(s[:slash+1+i])
	}
	return name
}

func loadIgnoreFile(p string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(p)
	if err != nil {
		return nil
	}
	return gi
}
