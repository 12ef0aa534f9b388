// Package parse extracts tags from source files using tree-sitter.
package parse

import (
	"context"
	"path"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/jdsource/internal/lang"
	"github.com/phobologic/jdsource/internal/model"
)

var captureMap = map[string]struct {
	Kind       model.TagKind
	SymbolKind model.SymbolKind
}{
	"definition.class":       {model.Definition, model.Class},
	"definition.interface":   {model.Definition, model.Interface},
	"definition.enum":        {model.Definition, model.Enum},
	"definition.method":      {model.Definition, model.Method},
	"definition.constructor": {model.Definition, model.Constructor},
	"definition.field":       {model.Definition, model.Field},
	"reference.call":         {model.Reference, model.Method},
	"reference.class":        {model.Reference, model.Class},
	"reference.import":       {model.Reference, model.Module},
}

// ExtractTags parses a source file and returns definition and reference tags.
// The parser must be created for l. Definitions nested in a type are named
// "Outer.Inner.member". filePath is used only for Tag.File.
func ExtractTags(l *lang.Language, parser *sitter.Parser, query *sitter.Query, source []byte, filePath string) []model.Tag {
	if len(source) == 0 {
		return nil
	}

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	var tags []model.Tag

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		var nameNode *sitter.Node
		var captureName string
		var defNode *sitter.Node

		for _, c := range match.Captures {
			cname := query.CaptureNameForId(c.Index)
			if cname == "name" {
				nameNode = c.Node
			} else if _, ok := captureMap[cname]; ok {
				captureName = cname
				defNode = c.Node
			}
		}

		if nameNode == nil || captureName == "" || defNode == nil {
			continue
		}

		cm := captureMap[captureName]
		nameText := lang.NodeText(nameNode, source)
		effectiveName := nameText

		var signature string
		if cm.Kind == model.Definition {
			if l.FindEnclosingType != nil {
				if enclosing := l.FindEnclosingType(defNode, source); enclosing != "" {
					effectiveName = enclosing + "." + nameText
				}
			}
			if l.ExtractSignature != nil {
				signature = l.ExtractSignature(defNode, cm.SymbolKind, source)
			}
		}

		tags = append(tags, model.Tag{
			Name:       effectiveName,
			Kind:       cm.Kind,
			SymbolKind: cm.SymbolKind,
			Line:       int(nameNode.StartPoint().Row) + 1,
			File:       filePath,
			Signature:  signature,
		})
	}

	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].Line < tags[j].Line
	})
	return tags
}

// Outline parses text as the language registered for the request path's
// extension. It returns an empty outline when the extension is unsupported.
func Outline(container, requestPath, text string, synthesized bool) (model.Outline, error) {
	out := model.Outline{Container: container, Path: requestPath, Synthesized: synthesized}

	l := lang.Languages[lang.ForExtension(path.Ext(requestPath))]
	if l == nil {
		return out, nil
	}
	q, err := l.GetTagQuery()
	if err != nil {
		return out, err
	}
	out.Tags = ExtractTags(l, l.NewParser(), q, []byte(text), requestPath)
	return out, nil
}
