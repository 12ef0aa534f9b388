package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	srcerr "github.com/phobologic/jdsource/internal/errors"
)

func TestDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "a", "B.java"), []byte("class B {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "a", "Empty.java"), nil, 0o644))

	d := &Dir{Root: root}

	text, found, err := d.FindSource("src/a/B.java")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "class B {}", text)

	tests := []string{"src/a/C.java", "src/a", "src/a/Empty.java", "../etc/passwd"}
	for _, p := range tests {
		_, found, err := d.FindSource(p)
		assert.NoError(t, err, p)
		assert.False(t, found, p)
	}
}

func TestArchive(t *testing.T) {
	t.Parallel()
	p := filepath.Join(t.TempDir(), "lib-sources.jar")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("a/B.java")
	require.NoError(t, err)
	_, err = w.Write([]byte("package a;"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	att, err := Open(p)
	require.NoError(t, err)
	defer att.Close()

	text, found, err := att.FindSource("a/B.java")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "package a;", text)

	text, found, err = att.FindSource("/a/B.java")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "package a;", text)

	_, found, err = att.FindSource("a/C.java")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, srcerr.ErrSource))

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))
	_, err = Open(txt)
	require.Error(t, err)
	assert.True(t, errors.Is(err, srcerr.ErrSource))

	att, err := Open(dir)
	require.NoError(t, err)
	assert.IsType(t, &Dir{}, att)
	assert.NoError(t, att.Close())
}

func TestNone(t *testing.T) {
	t.Parallel()
	text, found, err := None.FindSource("a/B.java")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, text)
}
