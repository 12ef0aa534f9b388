package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/phobologic/jdsource/internal/config"
)

const (
	sentinelStart = "# jdsource:start"
	sentinelEnd   = "# jdsource:end"
)

// runInit implements the `jdsource init` subcommand, which writes (or updates)
// the generated block of a jdsource config file.
func runInit(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("jdsource init", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var dryRun bool
	var container string
	fs.BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	fs.StringVar(&container, "container", "", "container to record in the config")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: jdsource init [flags] [path]

Write the default jdsource configuration to a config file. The settings are
wrapped in sentinel comments so they can be regenerated in place without
touching comments around them. Creates the file if it does not exist.

path defaults to ./%s.

Flags:
`, config.DefaultFile)
		fs.PrintDefaults()
	}

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	section, err := generateSection(container)
	if err != nil {
		return err
	}

	// --dry-run with no path: just print the section itself.
	if dryRun && fs.NArg() == 0 {
		_, _ = fmt.Fprintln(stdout, section)
		return nil
	}

	path := config.DefaultFile
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	existing, _ := os.ReadFile(path)
	updated := applySection(string(existing), section)

	if dryRun {
		_, _ = fmt.Fprint(stdout, updated)
		return nil
	}

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote jdsource config to %s\n", path)
	return nil
}

// generateSection returns the sentinel-wrapped default configuration.
func generateSection(container string) (string, error) {
	cfg := config.Default()
	cfg.Container = container
	data, err := cfg.Marshal()
	if err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}

	header := `# Generated by jdsource init. Re-running init rewrites everything between
# the sentinels; keys outside them must not repeat keys inside.
#
# container:   directory of .class files or a .jar/.zip archive
# sourceRoots: prefixes probed for real source before synthesizing
# source:      source attachment, defaults to the container
# render:      output options, also settable with JDSOURCE_* variables
`
	return sentinelStart + "\n" + header + strings.TrimRight(string(data), "\n") + "\n" + sentinelEnd, nil
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if len(content) == 0 {
		return section + "\n"
	}
	return content + "\n" + section + "\n"
}
