package toon

import (
	"strings"
	"testing"

	"github.com/phobologic/jdsource/internal/model"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"false keyword", "false", `"false"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"float", "3.14", "3.14"},
		{"zero", "0", "0"},
		{"leading zero invalid", "01", "01"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"bracket", "a[b", `"a[b"`},
		{"brace", "a{b", `"a{b"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "a/b/C.java", "a/b/C.java"},
		{"dotted name", "Outer.Inner.run", "Outer.Inner.run"},
		{"signature no special", "void run()", "void run()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := encodeValue(tt.in)
			if got != tt.want {
				t.Errorf("encodeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	o := model.Outline{
		Container:   "/libs/x.jar",
		Path:        "a/Greeter.java",
		Synthesized: true,
		Tags: []model.Tag{
			{Name: "Greeter", Kind: model.Definition, SymbolKind: model.Class, Line: 3, Signature: "Greeter implements Runnable"},
			{Name: "java.util.List", Kind: model.Reference, SymbolKind: model.Module, Line: 1},
			{Name: "Greeter.greet", Kind: model.Definition, SymbolKind: model.Method, Line: 5, Signature: "String greet(int a, int b)"},
		},
	}

	got := Encode(o)
	want := []string{
		"container: /libs/x.jar",
		"path: a/Greeter.java",
		"synthesized: true",
		"symbols[2]{name,kind,line,signature}:",
		"  Greeter,class,3,Greeter implements Runnable",
		`  Greeter.greet,method,5,"String greet(int a, int b)"`,
		"references[1]{name,kind,line}:",
		"  java.util.List,module,1",
	}
	lines := strings.Split(got, "\n")
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d:\n%s", len(want), len(lines), got)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	got := Encode(model.Outline{Container: "out", Path: "a/B.java"})
	if !strings.Contains(got, "symbols[0]{name,kind,line,signature}:") {
		t.Errorf("expected empty symbols section, got:\n%s", got)
	}
	if strings.Contains(got, "references") {
		t.Errorf("expected no references section, got:\n%s", got)
	}
	if !strings.Contains(got, "synthesized: false") {
		t.Errorf("expected synthesized flag, got:\n%s", got)
	}
}

func TestEncodeTypes(t *testing.T) {
	t.Parallel()

	got := EncodeTypes("out", []model.TypeEntry{
		{Name: "a/B", ClassPath: "a/B.class", HasSource: true},
		{Name: "a/B$C", ClassPath: "a/B$C.class"},
	})
	want := "container: out\n" +
		"types[2]{name,class,origin}:\n" +
		"  a/B,a/B.class,source\n" +
		"  a/B$C,a/B$C.class,class"
	if got != want {
		t.Errorf("EncodeTypes:\ngot  %q\nwant %q", got, want)
	}
}
