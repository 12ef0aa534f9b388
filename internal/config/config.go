// Package config loads jdsource settings from a YAML file, a .env file and
// JDSOURCE_* environment variables, in increasing priority.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/jdsource/internal/model"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = ".jdsource.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "JDSOURCE_"

var validate = validator.New()

// Config is the full host configuration.
type Config struct {
	Container     string              `yaml:"container"`
	SourceRoots   []string            `yaml:"sourceRoots,omitempty"`
	Source        string              `yaml:"source"`
	Render        model.RenderOptions `yaml:"render"`
	Decompiler    Decompiler          `yaml:"decompiler"`
	Cache         Cache               `yaml:"cache"`
	Workers       int                 `yaml:"workers" validate:"gte=0,lte=256"`
	IncludeNested bool                `yaml:"includeNested"`
	Ignore        []string            `yaml:"ignore,omitempty"`
	LogLevel      string              `yaml:"logLevel" validate:"oneof=debug info warn error"`
}

// Decompiler selects the transform. An empty Command uses the built-in
// skeleton generator.
type Decompiler struct {
	Command []string      `yaml:"command,omitempty" validate:"dive,required"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

// Cache sizes the host's synthesized-source cache. Size 0 disables it.
type Cache struct {
	Size int `yaml:"size" validate:"gte=0"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Render: model.RenderOptions{
			ShowLineNumbers: true,
			ShowMetadata:    true,
		},
		Decompiler: Decompiler{Timeout: 30 * time.Second},
		Cache:      Cache{Size: 128},
		LogLevel:   "info",
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty or missing), the given .env files (".env" when none) and the
// process environment. The process environment wins over .env values.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	dotenv, err := readEnvFiles(envFiles)
	if err != nil {
		return cfg, fmt.Errorf("load env file: %w", err)
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if c.Container != "" && !filepath.IsAbs(c.Container) {
		c.Container = filepath.Join(filepath.Dir(path), c.Container)
	}
	return nil
}

func readEnvFiles(files []string) (map[string]string, error) {
	explicit := len(files) > 0
	if !explicit {
		files = []string{".env"}
	}
	merged := map[string]string{}
	for _, f := range files {
		values, err := godotenv.Read(f)
		if err != nil {
			if !explicit && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		for k, v := range values {
			if _, seen := merged[k]; !seen {
				merged[k] = v
			}
		}
	}
	return merged, nil
}

// ApplyEnv overrides fields from JDSOURCE_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("CONTAINER"); ok {
		c.Container = v
	}
	if v, ok := get("SOURCE_ROOTS"); ok {
		c.SourceRoots = filepath.SplitList(v)
	}
	if v, ok := get("SOURCE"); ok {
		c.Source = v
	}
	if v, ok := get("DECOMPILER"); ok {
		c.Decompiler.Command = strings.Fields(v)
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = strings.ToLower(v)
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"ESCAPE_UNICODE", &c.Render.EscapeUnicode},
		{"REALIGN_LINE_NUMBERS", &c.Render.RealignLineNumbers},
		{"SHOW_LINE_NUMBERS", &c.Render.ShowLineNumbers},
		{"SHOW_METADATA", &c.Render.ShowMetadata},
		{"INCLUDE_NESTED", &c.IncludeNested},
	}
	for _, b := range bools {
		v, ok := get(b.name)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, b.name, err)
		}
		*b.dst = parsed
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"CACHE_SIZE", &c.Cache.Size},
		{"WORKERS", &c.Workers},
	}
	for _, n := range ints {
		v, ok := get(n.name)
		if !ok {
			continue
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, n.name, err)
		}
		*n.dst = parsed
	}

	if v, ok := get("DECOMPILER_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sDECOMPILER_TIMEOUT: %w", EnvPrefix, err)
		}
		c.Decompiler.Timeout = d
	}
	return nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
