package decompile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/phobologic/jdsource/internal/classfile"
	"github.com/phobologic/jdsource/internal/loader"
	"github.com/phobologic/jdsource/internal/model"
	"github.com/phobologic/jdsource/internal/printer"
)

// DefaultExecTimeout bounds one external decompiler run.
const DefaultExecTimeout = 30 * time.Second

// Exec runs an external decompiler process. The class bytes are written to
// a temporary file whose path is appended to Command; stdout becomes the
// source text. Version facts come from the class header.
type Exec struct {
	Command []string
	Timeout time.Duration
}

// Version reports the command line of the external tool.
func (e Exec) Version() string {
	return "external: " + strings.Join(e.Command, " ")
}

func (e Exec) Decompile(l loader.Loader, p printer.Printer, internalTypeName string, _ map[string]any) error {
	if len(e.Command) == 0 {
		return errors.New("no external decompiler command configured")
	}

	data, err := l.Load(internalTypeName)
	if err != nil {
		return err
	}
	version, err := classfile.ReadVersion(data)
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "jdsource-*")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	classPath, ok := loader.JoinLocal(dir, internalTypeName+model.ClassSuffix)
	if !ok {
		return fmt.Errorf("type name %q leaves the working directory", internalTypeName)
	}
	if err := os.MkdirAll(filepath.Dir(classPath), 0o755); err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	if err := os.WriteFile(classPath, data, 0o644); err != nil {
		return fmt.Errorf("writing class file: %w", err)
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultExecTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	args := append(append([]string{}, e.Command[1:]...), classPath)
	cmd := exec.CommandContext(ctx, e.Command[0], args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", e.Command[0], err, strings.TrimSpace(stderr.String()))
	}

	p.Start(0, version.Major, version.Minor)
	text := strings.TrimRight(strings.ReplaceAll(string(out), "\r\n", "\n"), "\n")
	if text != "" {
		for _, ln := range strings.Split(text, "\n") {
			p.StartLine(printer.UnknownLineNumber)
			p.PrintText(ln)
			p.EndLine()
		}
	}
	p.End()
	return nil
}
