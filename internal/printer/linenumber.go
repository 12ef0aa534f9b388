package printer

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/phobologic/jdsource/internal/model"
)

// ErrConfigureWhileStarted is returned when options change mid-stream.
var ErrConfigureWhileStarted = errors.New("printer: configure called between Start and End")

const (
	tab     = "  "
	newline = "\n"
	hex     = "0123456789ABCDEF"
)

// Options are the presentation choices applied by LineNumberPrinter.
type Options struct {
	RealignLineNumbers bool
	EscapeUnicode      bool
	ShowLineNumbers    bool
}

// LineNumberPrinter accumulates transform output as text, optionally
// prefixing each line with its original line number.
type LineNumberPrinter struct {
	opts    Options
	buf     strings.Builder
	started bool
	version model.Version

	indentation   int
	maxLineNumber int
	digitCount    int
}

var _ Printer = (*LineNumberPrinter)(nil)

// NewLineNumberPrinter returns a printer configured with opts.
func NewLineNumberPrinter(opts Options) *LineNumberPrinter {
	return &LineNumberPrinter{opts: opts}
}

// Configure replaces the options. It must be called before Start.
func (p *LineNumberPrinter) Configure(opts Options) error {
	if p.started {
		return ErrConfigureWhileStarted
	}
	p.opts = opts
	return nil
}

// Text returns everything emitted since the last Start.
func (p *LineNumberPrinter) Text() string {
	return p.buf.String()
}

// Version returns the class-file version recorded by Start.
func (p *LineNumberPrinter) Version() model.Version {
	return p.version
}

// Start resets the buffer and records the version facts.
func (p *LineNumberPrinter) Start(maxLineNumber, majorVersion, minorVersion int) {
	p.buf.Reset()
	p.started = true
	p.indentation = 0
	p.version = model.Version{Major: majorVersion, Minor: minorVersion}

	p.maxLineNumber = 0
	p.digitCount = 0
	if p.opts.ShowLineNumbers && maxLineNumber > 0 {
		p.maxLineNumber = maxLineNumber
		p.digitCount = len(strconv.Itoa(maxLineNumber))
	}
}

// End closes the stream; the printer may be reconfigured afterwards.
func (p *LineNumberPrinter) End() {
	p.started = false
}

func (p *LineNumberPrinter) PrintText(text string)            { p.escape(text) }
func (p *LineNumberPrinter) PrintNumericConstant(text string) { p.escape(text) }
func (p *LineNumberPrinter) PrintKeyword(keyword string)      { p.buf.WriteString(keyword) }

func (p *LineNumberPrinter) PrintStringConstant(constant, _ string) {
	p.escape(constant)
}

func (p *LineNumberPrinter) PrintDeclaration(_ DeclarationKind, _, name, _ string) {
	p.escape(name)
}

func (p *LineNumberPrinter) PrintReference(_ DeclarationKind, _, name, _, _ string) {
	p.escape(name)
}

func (p *LineNumberPrinter) Indent() { p.indentation++ }

func (p *LineNumberPrinter) Unindent() {
	if p.indentation > 0 {
		p.indentation--
	}
}

// StartLine writes the line-number prefix, if enabled, and the indentation.
func (p *LineNumberPrinter) StartLine(lineNumber int) {
	p.writePrefix(lineNumber)
	for i := 0; i < p.indentation; i++ {
		p.buf.WriteString(tab)
	}
}

func (p *LineNumberPrinter) EndLine() {
	p.buf.WriteString(newline)
}

// ExtraLine writes count blank lines, only when realigning.
func (p *LineNumberPrinter) ExtraLine(count int) {
	if !p.opts.RealignLineNumbers {
		return
	}
	for ; count > 0; count-- {
		p.writePrefix(UnknownLineNumber)
		p.buf.WriteString(newline)
	}
}

func (p *LineNumberPrinter) StartMarker(MarkerKind) {}
func (p *LineNumberPrinter) EndMarker(MarkerKind)   {}

func (p *LineNumberPrinter) writePrefix(lineNumber int) {
	if p.maxLineNumber <= 0 {
		return
	}
	p.buf.WriteString("/* ")
	if lineNumber == UnknownLineNumber {
		p.buf.WriteString(strings.Repeat(" ", p.digitCount))
	} else {
		n := strconv.Itoa(lineNumber)
		if pad := p.digitCount - len(n); pad > 0 {
			p.buf.WriteString(strings.Repeat(" ", pad))
		}
		p.buf.WriteString(n)
	}
	p.buf.WriteString(" */ ")
}

func (p *LineNumberPrinter) escape(s string) {
	if !p.opts.EscapeUnicode {
		p.buf.WriteString(s)
		return
	}
	EscapeUnicode(&p.buf, s)
}

// EscapeUnicode writes s to b, replacing every rune outside printable ASCII
// (tab excepted) with a \uXXXX escape. Supplementary runes become a
// surrogate pair of escapes.
func EscapeUnicode(b *strings.Builder, s string) {
	for _, r := range s {
		switch {
		case r == '\t' || (r >= 0x20 && r < 0x7F):
			b.WriteRune(r)
		case r > 0xFFFF:
			r1, r2 := utf16.EncodeRune(r)
			writeEscape(b, r1)
			writeEscape(b, r2)
		default:
			writeEscape(b, r)
		}
	}
}

func writeEscape(b *strings.Builder, r rune) {
	b.WriteString(`\u`)
	b.WriteByte(hex[(r>>12)&0xF])
	b.WriteByte(hex[(r>>8)&0xF])
	b.WriteByte(hex[(r>>4)&0xF])
	b.WriteByte(hex[r&0xF])
}
