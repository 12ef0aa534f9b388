package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDefault(t *testing.T) {
	t.Parallel()
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Render.ShowLineNumbers)
	assert.True(t, cfg.Render.ShowMetadata)
	assert.False(t, cfg.Render.EscapeUnicode)
	assert.False(t, cfg.Render.RealignLineNumbers)
	assert.Equal(t, 128, cfg.Cache.Size)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := writeFile(t, dir, DefaultFile, `
container: out/classes
sourceRoots: [src/main/java, src/gen]
render:
  escapeUnicode: true
  showMetadata: false
  options:
    showSynthetic: true
decompiler:
  command: [java, -jar, cfr.jar]
  timeout: 5s
cache:
  size: 16
workers: 4
logLevel: debug
`)
	env := writeFile(t, dir, "empty.env", "")

	cfg, err := Load(p, env)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "out", "classes"), cfg.Container)
	assert.Equal(t, []string{"src/main/java", "src/gen"}, cfg.SourceRoots)
	assert.True(t, cfg.Render.EscapeUnicode)
	assert.False(t, cfg.Render.ShowMetadata)
	assert.True(t, cfg.Render.ShowLineNumbers, "unset keys keep defaults")
	assert.Equal(t, true, cfg.Render.Options["showSynthetic"])
	assert.Equal(t, []string{"java", "-jar", "cfr.jar"}, cfg.Decompiler.Command)
	assert.Equal(t, 5*time.Second, cfg.Decompiler.Timeout)
	assert.Equal(t, 16, cfg.Cache.Size)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMissingAndEmptyFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	env := writeFile(t, dir, "empty.env", "")

	cfg, err := Load(filepath.Join(dir, "missing.yaml"), env)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load(writeFile(t, dir, "empty.yaml", ""), env)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := writeFile(t, dir, "bad.yaml", "render:\n  showLines: true\n")

	_, err := Load(p, writeFile(t, dir, "empty.env", ""))
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	env := writeFile(t, dir, "empty.env", "")

	tests := map[string]string{
		"log level":     "logLevel: loud\n",
		"cache size":    "cache:\n  size: -1\n",
		"workers":       "workers: 1000\n",
		"empty command": "decompiler:\n  command: [\"\"]\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeFile(t, t.TempDir(), "c.yaml", body), env)
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	env := writeFile(t, dir, "test.env", "JDSOURCE_ZZ_UNUSED=1\nJDSOURCE_CACHE_SIZE=7\n")

	cfg, err := Load("", env)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Cache.Size)

	_, err = Load("", filepath.Join(dir, "missing.env"))
	assert.Error(t, err, "explicit env files must exist")
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()
	vars := map[string]string{
		"JDSOURCE_CONTAINER":            "/libs/x.jar",
		"JDSOURCE_SOURCE_ROOTS":         "src" + string(os.PathListSeparator) + "gen",
		"JDSOURCE_SOURCE":               "/libs/x-sources.jar",
		"JDSOURCE_ESCAPE_UNICODE":       "true",
		"JDSOURCE_REALIGN_LINE_NUMBERS": "1",
		"JDSOURCE_SHOW_LINE_NUMBERS":    "false",
		"JDSOURCE_SHOW_METADATA":        "   ",
		"JDSOURCE_DECOMPILER":           "java -jar cfr.jar",
		"JDSOURCE_DECOMPILER_TIMEOUT":   "1m",
		"JDSOURCE_WORKERS":              "3",
		"JDSOURCE_LOG_LEVEL":            "WARN",
	}
	lookup := func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))

	assert.Equal(t, "/libs/x.jar", cfg.Container)
	assert.Equal(t, []string{"src", "gen"}, cfg.SourceRoots)
	assert.Equal(t, "/libs/x-sources.jar", cfg.Source)
	assert.True(t, cfg.Render.EscapeUnicode)
	assert.True(t, cfg.Render.RealignLineNumbers)
	assert.False(t, cfg.Render.ShowLineNumbers)
	assert.True(t, cfg.Render.ShowMetadata, "blank values are ignored")
	assert.Equal(t, []string{"java", "-jar", "cfr.jar"}, cfg.Decompiler.Command)
	assert.Equal(t, time.Minute, cfg.Decompiler.Timeout)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestApplyEnvErrors(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"JDSOURCE_SHOW_METADATA":      "maybe",
		"JDSOURCE_CACHE_SIZE":         "big",
		"JDSOURCE_DECOMPILER_TIMEOUT": "soon",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			err := cfg.ApplyEnv(func(k string) (string, bool) {
				if k == key {
					return value, true
				}
				return "", false
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.SourceRoots = []string{"src"}
	data, err := cfg.Marshal()
	require.NoError(t, err)

	p := writeFile(t, t.TempDir(), "c.yaml", string(data))
	got, err := Load(p, writeFile(t, t.TempDir(), "e.env", ""))
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
