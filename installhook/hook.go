package installhook

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/mago/aot"
	"github.com/chazu/mago/pkgmgr"
)

var log = commonlog.GetLogger("mago.installhook")

// ReceiptStore records finished installs.
type ReceiptStore interface {
	RecordInstall(ctx context.Context, rec pkgmgr.InstallReceipt) error
}

// Options configure a Hook. Zero values fall back to the defaults.
type Options struct {
	Ext      aot.Extensions
	TestDirs []string
	Receipts ReceiptStore
}

// Hook is the post-install compiler.
type Hook struct {
	compiler aot.Compiler
	ext      aot.Extensions
	testDirs []string
	receipts ReceiptStore
	progress *ProgressState
}

// New returns a hook compiling through c.
func New(c aot.Compiler, opts Options) *Hook {
	h := &Hook{
		compiler: c,
		ext:      opts.Ext,
		testDirs: opts.TestDirs,
		receipts: opts.Receipts,
		progress: &ProgressState{},
	}
	if h.ext == (aot.Extensions{}) {
		h.ext = aot.DefaultExtensions()
	}
	if h.testDirs == nil {
		h.testDirs = DefaultTestDirs
	}
	return h
}

// Progress exposes the hook's directory memo.
func (h *Hook) Progress() *ProgressState {
	return h.progress
}

// Call compiles every eligible file of the installed package, in manifest
// order, with the toolchain's default architectures. The first failure
// aborts the rest of this package.
func (h *Hook) Call(ctx context.Context, inst *pkgmgr.Installation) error {
	spec := inst.Spec
	ui := inst.UI
	if ui == nil {
		ui = pkgmgr.SilentUI{}
	}
	if skippingCompilation(inst) {
		log.Debugf("compilation disabled, skipping %s", spec.FullName())
		return nil
	}
	if inst.Config.Verbose {
		ui.Say(compilationMessage(inst))
	}

	files := EligibleFiles(spec, h.ext, h.testDirs)
	for _, file := range files {
		if inst.Config.ReallyVerbose {
			line := Describe(h.progress, file, h.ext, ui.Say)
			ui.Say(line)
		}
		abs := filepath.Join(spec.FullPath, filepath.FromSlash(file))
		if err := h.compiler.Compile(ctx, abs, nil, false); err != nil {
			return fmt.Errorf("compiling %q: %w", file, err)
		}
	}

	if h.receipts == nil {
		return nil
	}
	return h.receipts.RecordInstall(ctx, pkgmgr.InstallReceipt{
		ID:          uuid.NewString(),
		Package:     spec.FullName(),
		Files:       len(files),
		InstalledAt: time.Now(),
	})
}

// skippingCompilation reports whether the "compile" platform default
// turns compilation off.
func skippingCompilation(inst *pkgmgr.Installation) bool {
	v, ok := inst.Default(DefaultCompile)
	if !ok {
		return false
	}
	on, err := strconv.ParseBool(v)
	return err == nil && !on
}

func compilationMessage(inst *pkgmgr.Installation) string {
	slash := ""
	if inst.Config.ReallyVerbose {
		slash = "/"
	}
	return "Compiling " + inst.Spec.FullName() + slash
}
