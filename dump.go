package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/phobologic/jdsource/internal/discover"
	"github.com/phobologic/jdsource/internal/host"
	"github.com/phobologic/jdsource/internal/loader"
	"github.com/phobologic/jdsource/internal/model"
)

// runDump implements `jdsource dump`, which synthesizes every type of a
// container into a directory tree.
func runDump(args []string, stdout, stderr io.Writer) error {
	fs, cf := newFlagSet("jdsource dump", stderr, `Usage: jdsource dump [flags] [container] <out-dir>

Synthesize source for every type in the container and write it below out-dir
as <package>/<Type>.java. Types that fail are reported and skipped.
`)
	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	s, logger, outDir, err := cf.session(fs, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	defer s.Close()

	cfg := s.Config()
	c, err := loader.Select(cfg.Container)
	if err != nil {
		return err
	}
	defer c.Close()

	entries, err := discover.Types(c, discover.Options{IncludeNested: cfg.IncludeNested, Ignore: cfg.Ignore})
	if err != nil {
		return fmt.Errorf("listing %s: %w", cfg.Container, err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no types found in %s", cfg.Container)
	}

	written := dumpConcurrent(s, c, entries, outDir, cfg.Workers, stderr)
	if written == 0 {
		return fmt.Errorf("no types could be synthesized")
	}
	_, _ = fmt.Fprintf(stdout, "wrote %d of %d types to %s\n", written, len(entries), outDir)
	return nil
}

// dumpConcurrent synthesizes entries with a pool of workers sharing one
// open container. Each synthesis owns its printer.
func dumpConcurrent(s *host.Session, c loader.Container, entries []model.TypeEntry, outDir string, workers int, stderr io.Writer) int {
	numWorkers := workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(entries) {
		numWorkers = len(entries)
	}

	opts := s.Render()
	work := make(chan int, len(entries))
	results := make(chan bool, len(entries))

	var wg sync.WaitGroup
	var stderrMu sync.Mutex
	warn := func(format string, args ...any) {
		stderrMu.Lock()
		_, _ = fmt.Fprintf(stderr, "Warning: "+format+"\n", args...)
		stderrMu.Unlock()
	}

	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				e := entries[idx]
				dst, ok := loader.JoinLocal(outDir, e.Name.SourcePath())
				if !ok {
					warn("%s: type name leaves the output directory, skipped", e.Name)
					results <- false
					continue
				}
				text, found, err := s.Resolver().Synthesize(c, e.Name, opts)
				if err != nil {
					warn("%s: %v", e.Name, err)
					results <- false
					continue
				}
				if !found {
					results <- false
					continue
				}

				if err := writeFile(dst, text); err != nil {
					warn("%s: %v", e.Name, err)
					results <- false
					continue
				}
				results <- true
			}
		}()
	}

	for i := range entries {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	written := 0
	for ok := range results {
		if ok {
			written++
		}
	}
	return written
}

func writeFile(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}
