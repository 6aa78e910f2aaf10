package aot

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("mago.aot")

// Compiler produces the artifact for one source file. The artifact lands
// next to the source; archs may be nil for the toolchain default. internal
// marks sources that belong to the runtime's own library.
type Compiler interface {
	Compile(ctx context.Context, path string, archs ArchSet, internal bool) error
}

// CompilerFunc adapts a function to the Compiler interface.
type CompilerFunc func(ctx context.Context, path string, archs ArchSet, internal bool) error

// Compile calls f.
func (f CompilerFunc) Compile(ctx context.Context, path string, archs ArchSet, internal bool) error {
	return f(ctx, path, archs, internal)
}

// ExecCompiler runs the external toolchain binary once per file.
type ExecCompiler struct {
	Binary string
}

// Args assembles the toolchain command line for one file:
//
//	-C [--internal] [--arch <a>]... <path>
func (c *ExecCompiler) Args(path string, archs ArchSet, internal bool) []string {
	args := []string{"-C"}
	if internal {
		args = append(args, "--internal")
	}
	for _, a := range archs {
		args = append(args, "--arch", a)
	}
	return append(args, path)
}

// Compile runs the toolchain and waits for it. A non-zero exit is returned
// with the toolchain's output attached; errors.As still reaches the
// *exec.ExitError.
func (c *ExecCompiler) Compile(ctx context.Context, path string, archs ArchSet, internal bool) error {
	cmd := exec.CommandContext(ctx, c.Binary, c.Args(path, archs, internal)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %s: %w", c.Binary, path, strings.TrimSpace(string(out)), err)
	}
	if len(out) > 0 {
		log.Debugf("%s: %s", path, strings.TrimSpace(string(out)))
	}
	return nil
}
