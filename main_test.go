package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/phobologic/jdsource/internal/classfile/classfiletest"
	"github.com/phobologic/jdsource/internal/config"
	"github.com/phobologic/jdsource/internal/model"
)

func writeTestFile(t *testing.T, root, rel string, content []byte) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

func greeterClass(fields ...string) []byte {
	c := classfiletest.Class{
		Major:  52,
		Access: 0x0021,
		Name:   "org/example/Greeter",
		Super:  "java/lang/Object",
	}
	for _, f := range fields {
		c.Fields = append(c.Fields, classfiletest.Field{Access: 0x0019, Name: f, Descriptor: "I", Value: int32(42)})
	}
	return c.Bytes()
}

// createSampleContainer builds a class directory with two top-level types and
// one nested type.
func createSampleContainer(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "classes")
	writeTestFile(t, dir, "org/example/Greeter.class", greeterClass("MAX"))
	writeTestFile(t, dir, "org/example/Greeter$Inner.class", classfiletest.Class{
		Major: 52, Access: 0x0020, Name: "org/example/Greeter$Inner", Super: "java/lang/Object",
	}.Bytes())
	writeTestFile(t, dir, "org/example/Util.class", classfiletest.Class{
		Major: 61, Access: 0x0031, Name: "org/example/Util", Super: "java/lang/Object",
	}.Bytes())
	return dir
}

// createSourceTree builds a source attachment holding real source for Greeter
// under the src root.
func createSourceTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "src/org/example/Greeter.java", []byte(`package org.example;

public class Greeter {
  public static final int MAX = 42;

  public String greet(String name) {
    return "hi " + name;
  }
}
`))
	return dir
}

func TestRunSynthesizes(t *testing.T) {
	t.Parallel()
	dir := createSampleContainer(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{dir, "org/example/Greeter.java"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{
		"package org.example;",
		"public class Greeter",
		"public static final int MAX = 42;",
		"/* Location:              " + filepath.Join(dir, "org/example/Greeter.class"),
		" * Java compiler version: 8 (52.0)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("output should end with a newline")
	}
}

func TestRunResolveSubcommand(t *testing.T) {
	t.Parallel()
	dir := createSampleContainer(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"resolve", "--metadata=false", dir, "org/example/Util.java"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "public final class Util") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "Location:") {
		t.Errorf("--metadata=false should drop the trailer:\n%s", out)
	}
}

func TestRunPrefersRealSource(t *testing.T) {
	t.Parallel()
	dir := createSampleContainer(t)
	src := createSourceTree(t)

	var stdout, stderr bytes.Buffer
	args := []string{"--source", src, "--source-root", "src", dir, "org/example/Greeter.java"}
	if err := run(args, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, `return "hi " + name;`) {
		t.Errorf("expected real source:\n%s", out)
	}
	if strings.Contains(out, "Location:") {
		t.Error("real source must not carry the metadata trailer")
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--version"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "jdsource ") {
		t.Errorf("version output = %q", stdout.String())
	}
}

func TestRunNotFound(t *testing.T) {
	t.Parallel()
	dir := createSampleContainer(t)

	tests := []struct {
		name string
		path string
	}{
		{"missing type", "org/example/Missing.java"},
		{"not a java path", "org/example/Greeter.kt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var stdout, stderr bytes.Buffer
			err := run([]string{dir, tt.path}, &stdout, &stderr)
			if err == nil {
				t.Fatalf("expected error, got output:\n%s", stdout.String())
			}
			if !strings.Contains(err.Error(), "no source") {
				t.Errorf("error = %v", err)
			}
		})
	}
}

func TestRunUnsupportedContainer(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "classes.txt")
	writeTestFile(t, filepath.Dir(path), "classes.txt", []byte("x"))

	var stdout, stderr bytes.Buffer
	err := run([]string{path, "a/B.java"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "[configuration]") {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestRunWrongArgs(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if err := run([]string{"a", "b", "c"}, &stdout, &stderr); err == nil {
		t.Error("expected error for three positional arguments")
	}
	if !strings.Contains(stderr.String(), "Usage: jdsource") {
		t.Errorf("usage not printed:\n%s", stderr.String())
	}
}

func TestRunConfigFile(t *testing.T) {
	t.Parallel()
	dir := createSampleContainer(t)
	cfgPath := filepath.Join(filepath.Dir(dir), "jdsource.yaml")
	writeTestFile(t, filepath.Dir(cfgPath), "jdsource.yaml", []byte("container: classes\nrender:\n  showMetadata: false\n"))

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--config", cfgPath, "org/example/Greeter.java"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "public class Greeter") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "Location:") {
		t.Errorf("config should have disabled metadata:\n%s", out)
	}

	// An explicit flag wins over the file.
	stdout.Reset()
	if err := run([]string{"--config", cfgPath, "--metadata", "org/example/Greeter.java"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "Location:") {
		t.Errorf("--metadata should override the config file:\n%s", stdout.String())
	}
}

func TestRunList(t *testing.T) {
	t.Parallel()
	dir := createSampleContainer(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"list", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("list: %v\nstderr: %s", err, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "types[2]{name,class,origin}:") {
		t.Errorf("expected two top-level types:\n%s", out)
	}
	if !strings.Contains(out, "org/example/Greeter,org/example/Greeter.class,class") {
		t.Errorf("missing Greeter row:\n%s", out)
	}

	stdout.Reset()
	if err := run([]string{"list", "--nested", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("list --nested: %v", err)
	}
	if !strings.Contains(stdout.String(), "types[3]") {
		t.Errorf("--nested should include the inner type:\n%s", stdout.String())
	}
}

func TestRunListMarksSource(t *testing.T) {
	t.Parallel()
	dir := createSampleContainer(t)
	src := createSourceTree(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"list", "--source", src, "--source-root", "src", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("list: %v\nstderr: %s", err, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "org/example/Greeter,org/example/Greeter.class,source") {
		t.Errorf("Greeter should have source:\n%s", out)
	}
	if !strings.Contains(out, "org/example/Util,org/example/Util.class,class") {
		t.Errorf("Util should not have source:\n%s", out)
	}
}

// TestRunListAgreesWithResolve verifies that list reports real source exactly
// when resolve would return it, including packages named like build output
// directories and empty source files.
func TestRunListAgreesWithResolve(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "classes")
	for _, name := range []string{"com/acme/build/Tool", "com/acme/out/Empty"} {
		writeTestFile(t, dir, name+".class", classfiletest.Class{
			Major: 52, Access: 0x0021, Name: name, Super: "java/lang/Object",
		}.Bytes())
	}
	src := t.TempDir()
	writeTestFile(t, src, "com/acme/build/Tool.java", []byte("package com.acme.build;\n\npublic class Tool { /* real */ }\n"))
	writeTestFile(t, src, "com/acme/out/Empty.java", nil)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"list", "--source", src, dir}, &stdout, &stderr); err != nil {
		t.Fatalf("list: %v\nstderr: %s", err, stderr.String())
	}
	listed := stdout.String()

	tests := []struct {
		name   string
		origin string
		real   bool
	}{
		{"com/acme/build/Tool", "source", true},
		{"com/acme/out/Empty", "class", false},
	}
	for _, tt := range tests {
		row := tt.name + "," + tt.name + ".class," + tt.origin
		if !strings.Contains(listed, row) {
			t.Errorf("list missing %q:\n%s", row, listed)
		}

		stdout.Reset()
		if err := run([]string{"--source", src, dir, tt.name + ".java"}, &stdout, &stderr); err != nil {
			t.Fatalf("resolve %s: %v", tt.name, err)
		}
		if got := strings.Contains(stdout.String(), "/* real */"); got != tt.real {
			t.Errorf("resolve %s returned real source = %v, want %v", tt.name, got, tt.real)
		}
	}
}

func TestRunOutline(t *testing.T) {
	t.Parallel()
	dir := createSampleContainer(t)
	src := createSourceTree(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"outline", dir, "org/example/Greeter.java"}, &stdout, &stderr); err != nil {
		t.Fatalf("outline: %v\nstderr: %s", err, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "synthesized: true") {
		t.Errorf("expected synthesized outline:\n%s", out)
	}
	if !strings.Contains(out, "Greeter.MAX") {
		t.Errorf("missing field symbol:\n%s", out)
	}

	stdout.Reset()
	args := []string{"outline", "--source", src, "--source-root", "src", dir, "org/example/Greeter.java"}
	if err := run(args, &stdout, &stderr); err != nil {
		t.Fatalf("outline: %v", err)
	}
	out = stdout.String()
	if !strings.Contains(out, "synthesized: false") {
		t.Errorf("expected real-source outline:\n%s", out)
	}
	if !strings.Contains(out, "Greeter.greet") {
		t.Errorf("missing method symbol:\n%s", out)
	}
}

func TestRunDump(t *testing.T) {
	t.Parallel()
	dir := createSampleContainer(t)
	outDir := filepath.Join(t.TempDir(), "out")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"dump", "--workers", "2", dir, outDir}, &stdout, &stderr); err != nil {
		t.Fatalf("dump: %v\nstderr: %s", err, stderr.String())
	}
	if !strings.Contains(stdout.String(), "wrote 2 of 2 types") {
		t.Errorf("stdout = %q", stdout.String())
	}
	for _, rel := range []string{"org/example/Greeter.java", "org/example/Util.java"} {
		data, err := os.ReadFile(filepath.Join(outDir, rel))
		if err != nil {
			t.Errorf("%s not written: %v", rel, err)
			continue
		}
		if !strings.Contains(string(data), "package org.example;") {
			t.Errorf("%s content:\n%s", rel, data)
		}
	}
}

func writeJar(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, data := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

// TestRunDumpStaysInOutputDir verifies that archive entries naming a parent
// directory are never synthesized, so nothing lands outside out-dir.
func TestRunDumpStaysInOutputDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	jar := filepath.Join(root, "evil.jar")
	writeJar(t, jar, map[string][]byte{
		"../evil.class": classfiletest.Class{Major: 52, Access: 0x0021, Name: "../evil", Super: "java/lang/Object"}.Bytes(),
		"a/Ok.class":    classfiletest.Class{Major: 52, Access: 0x0021, Name: "a/Ok", Super: "java/lang/Object"}.Bytes(),
	})
	outDir := filepath.Join(root, "sub", "out")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"dump", jar, outDir}, &stdout, &stderr); err != nil {
		t.Fatalf("dump: %v\nstderr: %s", err, stderr.String())
	}
	if !strings.Contains(stdout.String(), "wrote 1 of 1 types") {
		t.Errorf("stdout = %q", stdout.String())
	}
	if _, err := os.Stat(filepath.Join(outDir, "a", "Ok.java")); err != nil {
		t.Errorf("a/Ok.java not written: %v", err)
	}
	for _, p := range []string{filepath.Join(root, "sub", "evil.java"), filepath.Join(root, "evil.java")} {
		if _, err := os.Stat(p); err == nil {
			t.Errorf("%s written outside the output directory", p)
		}
	}
}

// escapingContainer serves one class under any name, including names that
// leave the package tree.
type escapingContainer struct {
	data []byte
}

func (c escapingContainer) CanLoad(string) bool { return true }
func (c escapingContainer) Load(string) ([]byte, error) { return c.data, nil }
func (c escapingContainer) Path() string { return "mem.jar" }
func (c escapingContainer) IsArchive() bool { return true }
func (c escapingContainer) Walk(func(string) error) error { return nil }
func (c escapingContainer) Close() error { return nil }

func TestDumpConcurrentRejectsEscapingNames(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Container = createSampleContainer(t)
	var stderr bytes.Buffer
	s, _, err := openSession(cfg, &stderr)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	root := t.TempDir()
	outDir := filepath.Join(root, "out")
	c := escapingContainer{data: classfiletest.Class{Major: 52, Access: 0x0021, Name: "a/Ok", Super: "java/lang/Object"}.Bytes()}
	entries := []model.TypeEntry{{Name: "../evil"}, {Name: "a/Ok"}}

	written := dumpConcurrent(s, c, entries, outDir, 2, &stderr)
	if written != 1 {
		t.Errorf("written = %d, want 1", written)
	}
	if _, err := os.Stat(filepath.Join(root, "evil.java")); err == nil {
		t.Error("evil.java written outside the output directory")
	}
	if !strings.Contains(stderr.String(), "Warning: ../evil") {
		t.Errorf("missing warning:\n%s", stderr.String())
	}
}

// syncBuffer is a bytes.Buffer safe for the concurrent writes of watch.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, tick func()) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		if tick != nil {
			tick()
		}
		time.Sleep(100 * time.Millisecond)
	}
	return cond()
}

func TestRunWatch(t *testing.T) {
	t.Parallel()
	dir := createSampleContainer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- runWatch(ctx, []string{"--metadata=false", dir, "org/example/Greeter.java"}, &stdout, &stderr)
	}()

	if !waitFor(t, 5*time.Second, func() bool { return strings.Contains(stdout.String(), "MAX") }, nil) {
		t.Fatalf("no initial output:\n%s\nstderr: %s", stdout.String(), stderr.String())
	}

	// The watcher starts after the first render, so rewrite about once a
	// second, well apart from the debounce window, until a change is seen.
	ticks := 0
	rewrite := func() {
		if ticks%10 == 0 {
			writeTestFile(t, dir, "org/example/Greeter.class", greeterClass("MAX", "MIN"))
		}
		ticks++
	}
	if !waitFor(t, 10*time.Second, func() bool { return strings.Contains(stdout.String(), "MIN") }, rewrite) {
		t.Fatalf("change not rendered:\n%s\nstderr: %s", stdout.String(), stderr.String())
	}
	if !strings.Contains(stdout.String(), watchSeparator) {
		t.Errorf("missing separator:\n%s", stdout.String())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runWatch: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runWatch did not stop")
	}
}

func TestReorderArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"flags first", []string{"--source-root", "src", "lib.jar", "a/B.java"}, []string{"--source-root", "src", "lib.jar", "a/B.java"}},
		{"positional first", []string{"lib.jar", "a/B.java", "--source-root", "src"}, []string{"--source-root", "src", "lib.jar", "a/B.java"}},
		{"mixed", []string{"lib.jar", "-v", "a/B.java", "--workers", "4"}, []string{"-v", "--workers", "4", "lib.jar", "a/B.java"}},
		{"bool with value", []string{"a/B.java", "--metadata=false"}, []string{"--metadata=false", "a/B.java"}},
		{"double dash", []string{"-v", "--", "-odd.java"}, []string{"-v", "-odd.java"}},
		{"no flags", []string{"a/B.java"}, []string{"a/B.java"}},
		{"no args", nil, nil},
		{"bool flag", []string{"-V"}, []string{"-V"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := reorderArgs(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("len: got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("index %d: got %q, want %q (full: %v)", i, got[i], tt.want[i], got)
					break
				}
			}
		})
	}
}
