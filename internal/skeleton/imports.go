package skeleton

import (
	"sort"

	"github.com/phobologic/jdsource/internal/classfile"
	"github.com/phobologic/jdsource/internal/model"
)

// imports decides how each referenced class is spelled and which import
// statements that requires.
type imports struct {
	pkg       string
	selfShort string
	byShort   map[string]string // short name -> internal name
}

func newImports(self string) *imports {
	return &imports{
		pkg:       model.TypeName(self).Package(),
		selfShort: classfile.ShortName(self),
		byShort:   map[string]string{},
	}
}

// use returns the spelling of internal in source, recording an import when
// the short name is free.
func (im *imports) use(internal string) string {
	pkg := model.TypeName(internal).Package()
	if pkg == im.pkg || pkg == "java/lang" {
		rel := internal
		if pkg != "" {
			rel = internal[len(pkg)+1:]
		}
		return classfile.SourceName(rel)
	}

	short := classfile.ShortName(internal)
	if short == im.selfShort {
		return classfile.SourceName(internal)
	}
	if existing, ok := im.byShort[short]; ok && existing != internal {
		return classfile.SourceName(internal)
	}
	im.byShort[short] = internal
	return short
}

// list returns the imported internal names ordered by source name.
func (im *imports) list() []string {
	names := make([]string, 0, len(im.byShort))
	for _, internal := range im.byShort {
		names = append(names, internal)
	}
	sort.Slice(names, func(i, j int) bool {
		return classfile.SourceName(names[i]) < classfile.SourceName(names[j])
	})
	return names
}
