// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/jdsource/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts an outline into TOON format.
func Encode(o model.Outline) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("container: %s", encodeValue(o.Container)))
	parts = append(parts, fmt.Sprintf("path: %s", encodeValue(o.Path)))
	parts = append(parts, fmt.Sprintf("synthesized: %t", o.Synthesized))

	var symbolRows [][]string
	var refRows [][]string
	for i := range o.Tags {
		tag := &o.Tags[i]
		if tag.Kind == model.Definition {
			symbolRows = append(symbolRows, []string{
				tag.Name,
				string(tag.SymbolKind),
				fmt.Sprintf("%d", tag.Line),
				tag.Signature,
			})
			continue
		}
		refRows = append(refRows, []string{
			tag.Name,
			string(tag.SymbolKind),
			fmt.Sprintf("%d", tag.Line),
		})
	}
	parts = append(parts, formatTabular("symbols", []string{"name", "kind", "line", "signature"}, symbolRows))

	if len(refRows) > 0 {
		parts = append(parts, formatTabular("references", []string{"name", "kind", "line"}, refRows))
	}

	return strings.Join(parts, "\n")
}

// EncodeTypes converts a container listing into TOON format.
func EncodeTypes(container string, entries []model.TypeEntry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		origin := "class"
		if e.HasSource {
			origin = "source"
		}
		rows = append(rows, []string{string(e.Name), e.ClassPath, origin})
	}
	return fmt.Sprintf("container: %s\n", encodeValue(container)) +
		formatTabular("types", []string{"name", "class", "origin"}, rows)
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
