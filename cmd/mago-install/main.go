// mago-install runs the post-install compile hook over installed packages.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/mago/aot"
	"github.com/chazu/mago/installhook"
	"github.com/chazu/mago/ledger"
	"github.com/chazu/mago/manifest"
	"github.com/chazu/mago/pkgmgr"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("mago-install", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("V", false, "Announce each package being compiled")
	reallyVerbose := fs.Bool("VV", false, "Also list every compiled file")
	noCompile := fs.Bool("no-compile", false, "Install without compiling")
	listPlatforms := fs.Bool("platforms", false, "Print the registered platforms and exit")
	dir := fs.String("C", ".", "Look for mago.toml starting in `dir`")
	noLedger := fs.Bool("no-ledger", false, "Do not record install receipts")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: mago-install [options] <package-dir>...\n\n")
		fmt.Fprintf(stderr, "Compiles the sources of each installed package. Every package\n")
		fmt.Fprintf(stderr, "directory must contain a package.yaml.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if !*listPlatforms && fs.NArg() < 1 {
		fs.Usage()
		return 2
	}

	level := 0
	if *reallyVerbose {
		level = 2
	}
	commonlog.Configure(level, nil)

	cfg := pkgmgr.Config{Verbose: *verbose || *reallyVerbose, ReallyVerbose: *reallyVerbose}
	if err := install(ctx, installOptions{
		dir:       *dir,
		pkgDirs:   fs.Args(),
		cfg:       cfg,
		noCompile: *noCompile,
		platforms: *listPlatforms,
		noLedger:  *noLedger,
	}, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

type installOptions struct {
	dir       string
	pkgDirs   []string
	cfg       pkgmgr.Config
	noCompile bool
	platforms bool
	noLedger  bool
}

func install(ctx context.Context, opts installOptions, stdout io.Writer) error {
	m, err := manifest.FindOrDefault(opts.dir)
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}

	reg := pkgmgr.NewRegistry()
	hookOpts := installhook.Options{Ext: m.Extensions(), TestDirs: m.Source.TestDirs}

	compile := !opts.noCompile && m.CompileOnInstall()

	// A disabled install never runs the toolchain, so it need not exist.
	var tool string
	if compile && !opts.platforms {
		if tool, err = m.ToolchainPath(); err != nil {
			return err
		}
		if !opts.noLedger && len(opts.pkgDirs) > 0 {
			l, err := ledger.Open(m.LedgerPath())
			if err != nil {
				return err
			}
			defer l.Close()
			hookOpts.Receipts = l
		}
	}

	h := installhook.New(&aot.ExecCompiler{Binary: tool}, hookOpts)
	rt := installhook.Runtime{
		Engine:     m.Toolchain.Engine,
		Version:    m.Toolchain.Version,
		DocOptions: m.Install.DocOptions,
	}
	if _, err := installhook.Register(reg, h, rt); err != nil {
		return err
	}
	if !compile {
		reg.SetDefault(installhook.DefaultCompile, strconv.FormatBool(false))
	}

	if opts.platforms {
		for _, p := range reg.Platforms() {
			fmt.Fprintln(stdout, p)
		}
		return nil
	}

	ui := pkgmgr.WriterUI{W: stdout}
	for _, pkgDir := range opts.pkgDirs {
		spec, err := pkgmgr.LoadSpec(pkgDir)
		if err != nil {
			return err
		}
		if err := reg.Install(ctx, spec, opts.cfg, ui); err != nil {
			return err
		}
	}
	return nil
}
