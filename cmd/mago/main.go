// mago precompiles stale runtime sources to bytecode artifacts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/mago/aot"
	"github.com/chazu/mago/ledger"
	"github.com/chazu/mago/manifest"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

var errUsage = errors.New("usage")

// run is main without the process exit, so it can be driven from tests.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("mago", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Verbose output")
	jobs := fs.Int("j", 0, "Compile up to N files at once (default from mago.toml)")
	dir := fs.String("C", ".", "Look for mago.toml starting in `dir`")
	hash := fs.Bool("hash", false, "Also compare content digests recorded in the ledger")
	toolchain := fs.String("toolchain", "", "Compiler binary (overrides mago.toml)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: mago [options] \"<arch list>\" <source>...\n\n")
		fmt.Fprintf(stderr, "Recompiles every source whose artifact is missing or older than\n")
		fmt.Fprintf(stderr, "the source or the compiler binary.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  mago \"x86_64 arm64\" lib/*.mag   # Build for two archs\n")
		fmt.Fprintf(stderr, "  mago \"\" lib/*.mag               # Use [build] archs from mago.toml\n")
		fmt.Fprintf(stderr, "  mago -j 8 -hash \"\" lib/*.mag    # Parallel, with content digests\n")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}

	if *verbose {
		commonlog.Configure(2, nil)
	} else {
		commonlog.Configure(0, nil)
	}

	opts := buildOptions{
		dir:       *dir,
		archList:  fs.Arg(0),
		paths:     fs.Args()[1:],
		jobs:      *jobs,
		hash:      *hash,
		toolchain: *toolchain,
	}
	res, err := build(ctx, opts, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if *verbose {
		fmt.Fprintf(stdout, "Compiled %d, up to date %d\n", len(res.Compiled), len(res.Skipped))
	}
	return 0
}

type buildOptions struct {
	dir       string
	archList  string
	paths     []string
	jobs      int
	hash      bool
	toolchain string
}

func build(ctx context.Context, opts buildOptions, stdout io.Writer) (*aot.Result, error) {
	m, err := manifest.FindOrDefault(opts.dir)
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}
	if opts.toolchain != "" {
		m.Toolchain.Binary = opts.toolchain
	}
	tool, err := m.ToolchainPath()
	if err != nil {
		return nil, err
	}

	archs := aot.ParseArchs(opts.archList)
	if archs == nil {
		archs = m.Archs()
	}
	jobs := opts.jobs
	if jobs <= 0 {
		jobs = m.Build.Jobs
	}

	checker := &aot.Checker{Toolchain: tool, Ext: m.Extensions()}
	if opts.hash || m.Build.ContentHash {
		l, err := ledger.Open(m.LedgerPath())
		if err != nil {
			return nil, err
		}
		defer l.Close()
		checker.Digests = l
	}

	d := &aot.Driver{
		Compiler: &aot.ExecCompiler{Binary: tool},
		Checker:  checker,
		Out:      stdout,
		Jobs:     jobs,
	}
	return d.Run(ctx, archs, opts.paths)
}
