// jdsource resolves source text for compiled Java types, reading real source
// when it exists and synthesizing it from class files otherwise.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/phobologic/jdsource/internal/config"
	"github.com/phobologic/jdsource/internal/host"
	"github.com/phobologic/jdsource/internal/parse"
	"github.com/phobologic/jdsource/internal/toon"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		switch args[0] {
		case "list":
			return runList(args[1:], stdout, stderr)
		case "outline":
			return runOutline(args[1:], stdout, stderr)
		case "dump":
			return runDump(args[1:], stdout, stderr)
		case "watch":
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return runWatch(ctx, args[1:], stdout, stderr)
		case "init":
			return runInit(args[1:], stdout, stderr)
		case "resolve":
			args = args[1:]
		}
	}
	return runResolve(args, stdout, stderr)
}

func runResolve(args []string, stdout, stderr io.Writer) error {
	fs, cf := newFlagSet("jdsource", stderr, `Usage: jdsource [flags] [container] <request-path>

Print the source text for request-path (for example a/b/C.java). Real source
found under a source root wins; otherwise the type is synthesized from the
container, a directory of class files or a .jar/.zip archive.

Subcommands: list, outline, dump, watch, init.
`)
	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}
	if cf.showVersion {
		_, _ = fmt.Fprintf(stdout, "jdsource %s\n", version)
		return nil
	}

	s, logger, arg, err := cf.session(fs, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	defer s.Close()
	requestPath := filepath.ToSlash(arg)

	text, found, err := s.Resolve(requestPath)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s: no source in %s", requestPath, s.Config().Container)
	}
	_, _ = io.WriteString(stdout, text)
	if !strings.HasSuffix(text, "\n") {
		_, _ = io.WriteString(stdout, "\n")
	}
	return nil
}

func runOutline(args []string, stdout, stderr io.Writer) error {
	fs, cf := newFlagSet("jdsource outline", stderr, `Usage: jdsource outline [flags] [container] <request-path>

Print a TOON outline (types, members, references) of the resolved source.
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

	text, real, err := s.Resolver().Probe(requestPath)
	if err != nil {
		return err
	}
	if !real {
		var found bool
		text, found, err = s.Resolve(requestPath)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%s: no source in %s", requestPath, s.Config().Container)
		}
	}

	outline, err := parse.Outline(s.Config().Container, requestPath, text, !real)
	if err != nil {
		return fmt.Errorf("outlining %s: %w", requestPath, err)
	}
	_, _ = fmt.Fprintln(stdout, toon.Encode(outline))
	return nil
}

// stringList is a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// cliFlags holds the flags shared by every subcommand that opens a container.
type cliFlags struct {
	configPath  string
	sourceRoots stringList
	source      string
	decompiler  string
	escape      bool
	realign     bool
	lineNumbers bool
	metadata    bool
	nested      bool
	workers     int
	verbose     bool
	showVersion bool
}

func newFlagSet(name string, stderr io.Writer, usage string) (*flag.FlagSet, *cliFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	cf := &cliFlags{}
	fs.StringVar(&cf.configPath, "config", "", "config file (default ./"+config.DefaultFile+" when present)")
	fs.Var(&cf.sourceRoots, "source-root", "source root prefix probed before synthesizing (repeatable)")
	fs.StringVar(&cf.source, "source", "", "source attachment: directory, .jar or .zip (default: the container)")
	fs.StringVar(&cf.decompiler, "decompiler", "", "external decompiler command; the class file path is appended")
	fs.BoolVar(&cf.escape, "escape-unicode", false, "escape non-ASCII characters as \\uXXXX")
	fs.BoolVar(&cf.realign, "realign", false, "realign output to the original line numbers")
	fs.BoolVar(&cf.lineNumbers, "line-numbers", false, "prefix lines with their original line numbers")
	fs.BoolVar(&cf.metadata, "metadata", false, "append the location and version comment")
	fs.BoolVar(&cf.nested, "nested", false, "include nested types (list, dump)")
	fs.IntVar(&cf.workers, "workers", 0, "number of concurrent workers (dump)")
	fs.BoolVar(&cf.verbose, "v", false, "verbose logging")
	fs.BoolVar(&cf.showVersion, "V", false, "show version and exit")
	fs.BoolVar(&cf.showVersion, "version", false, "show version and exit")

	fs.Usage = func() {
		_, _ = fmt.Fprint(stderr, usage+"\nFlags:\n")
		fs.PrintDefaults()
	}
	return fs, cf
}

// load merges defaults, the config file, the environment and the flags that
// were set explicitly.
func (cf *cliFlags) load(fs *flag.FlagSet) (config.Config, error) {
	path := cf.configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultFile); err == nil {
			path = config.DefaultFile
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["source-root"] {
		cfg.SourceRoots = append([]string(nil), cf.sourceRoots...)
	}
	if set["source"] {
		cfg.Source = cf.source
	}
	if set["decompiler"] {
		cfg.Decompiler.Command = strings.Fields(cf.decompiler)
	}
	if set["escape-unicode"] {
		cfg.Render.EscapeUnicode = cf.escape
	}
	if set["realign"] {
		cfg.Render.RealignLineNumbers = cf.realign
	}
	if set["line-numbers"] {
		cfg.Render.ShowLineNumbers = cf.lineNumbers
	}
	if set["metadata"] {
		cfg.Render.ShowMetadata = cf.metadata
	}
	if set["nested"] {
		cfg.IncludeNested = cf.nested
	}
	if set["workers"] {
		cfg.Workers = cf.workers
	}
	if cf.verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

// session loads the configuration, takes the container and one more
// argument from the positional arguments and opens a host session. With one
// positional argument the container comes from the configuration.
func (cf *cliFlags) session(fs *flag.FlagSet, stderr io.Writer) (*host.Session, *zap.Logger, string, error) {
	cfg, err := cf.load(fs)
	if err != nil {
		return nil, nil, "", err
	}

	var arg string
	switch fs.NArg() {
	case 2:
		cfg.Container = fs.Arg(0)
		arg = fs.Arg(1)
	case 1:
		arg = fs.Arg(0)
	default:
		fs.Usage()
		return nil, nil, "", errors.New("wrong number of arguments")
	}

	s, logger, err := openSession(cfg, stderr)
	if err != nil {
		return nil, nil, "", err
	}
	return s, logger, arg, nil
}

func openSession(cfg config.Config, stderr io.Writer) (*host.Session, *zap.Logger, error) {
	if cfg.Container == "" {
		return nil, nil, host.ErrNoContainer
	}
	abs, err := filepath.Abs(cfg.Container)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving container: %w", err)
	}
	cfg.Container = abs

	logger := newLogger(stderr, cfg.LogLevel)
	s, err := host.NewSession(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return s, logger, nil
}

func newLogger(w io.Writer, level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), lvl)
	return zap.New(core)
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-config": true, "--config": true,
	"-source-root": true, "--source-root": true,
	"-source": true, "--source": true,
	"-decompiler": true, "--decompiler": true,
	"-workers": true, "--workers": true,
	"-container": true, "--container": true,
}

// reorderArgs moves positional arguments after all flags so Go's flag package
// can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
