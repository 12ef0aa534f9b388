package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/phobologic/jdsource/internal/config"
	"github.com/phobologic/jdsource/internal/host"
)

const watchSeparator = "----"

// runWatch implements `jdsource watch`: it prints the resolved text, then
// prints it again whenever the container or the config file changes, until
// ctx is done.
func runWatch(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, cf := newFlagSet("jdsource watch", stderr, `Usage: jdsource watch [flags] [container] <request-path>

Print the source for request-path and print it again whenever the container
changes or a render option in the config file changes. Stop with Ctrl-C.
`)
	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	s, logger, arg, err := cf.session(fs, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	defer s.Close()
	requestPath := filepath.ToSlash(arg)

	var outMu sync.Mutex
	emit := func(first bool) {
		text, found, err := s.Resolve(requestPath)
		outMu.Lock()
		defer outMu.Unlock()
		if !first {
			_, _ = fmt.Fprintln(stdout, watchSeparator)
		}
		switch {
		case err != nil:
			logger.Error("resolve failed", zap.String("path", requestPath), zap.Error(err))
		case !found:
			logger.Warn("no source", zap.String("path", requestPath))
		default:
			_, _ = io.WriteString(stdout, text)
			_, _ = io.WriteString(stdout, "\n")
		}
	}
	emit(true)

	configPath := cf.configPath
	if configPath == "" {
		if _, err := os.Stat(config.DefaultFile); err == nil {
			configPath = config.DefaultFile
		}
	}
	watched := []string{s.Config().Container}
	if configPath != "" {
		if abs, err := filepath.Abs(configPath); err == nil {
			configPath = abs
			watched = append(watched, abs)
		}
	}

	w, err := host.NewWatcher(watched, 0, logger)
	if err != nil {
		return fmt.Errorf("watching: %w", err)
	}
	defer w.Close()

	events, unsubscribe := s.Events().Subscribe(16)
	defer unsubscribe()

	go func() {
		for ev := range events {
			if ev.Relevant() {
				emit(false)
			}
		}
	}()

	err = w.Run(ctx, func(paths []string) {
		containerChanged := false
		for _, p := range paths {
			if p == configPath {
				reloadRender(s, func() (config.Config, error) { return cf.load(fs) }, logger)
				continue
			}
			containerChanged = true
		}
		if containerChanged {
			n := s.Cache().InvalidateContainer(s.Config().Container)
			logger.Debug("container changed", zap.Int("evicted", n))
			emit(false)
		}
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// reloadRender applies freshly loaded render options to s. Each changed
// option is published and triggers a re-render through the event
// subscription. Flags given on the command line still win over the file.
func reloadRender(s *host.Session, load func() (config.Config, error), logger *zap.Logger) {
	cfg, err := load()
	if err != nil {
		logger.Warn("config reload failed", zap.Error(err))
		return
	}
	if err := s.ApplyRender(cfg.Render); err != nil {
		logger.Warn("applying render options", zap.Error(err))
	}
}
