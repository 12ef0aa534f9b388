package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/phobologic/jdsource/internal/discover"
	"github.com/phobologic/jdsource/internal/host"
	"github.com/phobologic/jdsource/internal/loader"
	"github.com/phobologic/jdsource/internal/model"
	"github.com/phobologic/jdsource/internal/toon"
)

// runList implements `jdsource list`, which prints the types of a container
// and whether real source exists for each.
func runList(args []string, stdout, stderr io.Writer) error {
	fs, cf := newFlagSet("jdsource list", stderr, `Usage: jdsource list [flags] [container]

List the compiled types of a container in TOON format. Directory containers
honor .jdignore and .gitignore files at their root.
`)
	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	cfg, err := cf.load(fs)
	if err != nil {
		return err
	}
	switch fs.NArg() {
	case 1:
		cfg.Container = fs.Arg(0)
	case 0:
	default:
		fs.Usage()
		return errors.New("wrong number of arguments")
	}

	s, logger, err := openSession(cfg, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	defer s.Close()

	entries, err := listTypes(s)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(stdout, toon.EncodeTypes(s.Config().Container, entries))
	return nil
}

// listTypes enumerates the session's container and marks the types whose
// real source the resolver would return.
func listTypes(s *host.Session) ([]model.TypeEntry, error) {
	cfg := s.Config()
	c, err := loader.Select(cfg.Container)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	entries, err := discover.Types(c, discover.Options{IncludeNested: cfg.IncludeNested, Ignore: cfg.Ignore})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", cfg.Container, err)
	}

	discover.MarkSources(entries, func(requestPath string) bool {
		_, found, err := s.Resolver().Probe(requestPath)
		return err == nil && found
	})
	return entries, nil
}
