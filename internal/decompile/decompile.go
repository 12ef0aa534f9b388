// Package decompile drives a decompiling transform for one compiled type and
// converts its failures into typed errors.
package decompile

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	srcerr "github.com/phobologic/jdsource/internal/errors"
	"github.com/phobologic/jdsource/internal/loader"
	"github.com/phobologic/jdsource/internal/model"
	"github.com/phobologic/jdsource/internal/printer"
)

// RealignLineNumbersKey is the transform configuration key for realignment.
const RealignLineNumbersKey = "realignLineNumbers"

// DefaultToolVersion is reported for transforms that do not implement Versioned.
const DefaultToolVersion = "unknown"

// Decompiler is the external transform contract: load internalTypeName
// through l and write its source to p.
type Decompiler interface {
	Decompile(l loader.Loader, p printer.Printer, internalTypeName string, configuration map[string]any) error
}

// Versioned is implemented by transforms that report their version.
type Versioned interface {
	Version() string
}

// DecompilerFunc adapts a function to the Decompiler interface.
type DecompilerFunc func(l loader.Loader, p printer.Printer, internalTypeName string, configuration map[string]any) error

func (f DecompilerFunc) Decompile(l loader.Loader, p printer.Printer, internalTypeName string, configuration map[string]any) error {
	return f(l, p, internalTypeName, configuration)
}

// Result is the synthesized text and the version facts seen while producing it.
type Result struct {
	Text    string
	Version model.Version
}

// Invoker runs a Decompiler once per call with a fresh printer.
type Invoker struct {
	decompiler Decompiler
	logger     *zap.Logger
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithLogger sets the logger used for debug traces.
func WithLogger(l *zap.Logger) Option {
	return func(inv *Invoker) {
		if l != nil {
			inv.logger = l
		}
	}
}

// NewInvoker returns an Invoker around d.
func NewInvoker(d Decompiler, opts ...Option) *Invoker {
	inv := &Invoker{decompiler: d, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// ToolVersion reports the version of the wrapped transform.
func (inv *Invoker) ToolVersion() string {
	if v, ok := inv.decompiler.(Versioned); ok {
		return v.Version()
	}
	return DefaultToolVersion
}

// Decompile synthesizes source for name from l. The realignment flag is
// passed to the transform; escaping and line numbers only to the printer.
// Any transform failure, including a panic, is returned as a decompile
// error naming the type; partial output is discarded.
func (inv *Invoker) Decompile(l loader.Loader, name model.TypeName, opts model.RenderOptions) (Result, error) {
	p := printer.NewLineNumberPrinter(printer.Options{
		RealignLineNumbers: opts.RealignLineNumbers,
		EscapeUnicode:      opts.EscapeUnicode,
		ShowLineNumbers:    opts.ShowLineNumbers,
	})

	configuration := make(map[string]any, len(opts.Options)+1)
	for k, v := range opts.Options {
		configuration[k] = v
	}
	configuration[RealignLineNumbersKey] = opts.RealignLineNumbers

	start := time.Now()
	if err := inv.run(l, p, name, configuration); err != nil {
		return Result{}, srcerr.Decompile(string(name), err)
	}

	res := Result{Text: p.Text(), Version: p.Version()}
	inv.logger.Debug("decompiled",
		zap.String("type", string(name)),
		zap.Stringer("version", res.Version),
		zap.Int("bytes", len(res.Text)),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

func (inv *Invoker) run(l loader.Loader, p printer.Printer, name model.TypeName, configuration map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transform panic: %v", r)
		}
	}()
	return inv.decompiler.Decompile(l, p, string(name), configuration)
}
