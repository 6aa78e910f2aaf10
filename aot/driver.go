package aot

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Driver recompiles the stale subset of a list of sources.
type Driver struct {
	Compiler Compiler
	Checker  *Checker

	// Out receives one "Compiling <artifact>" line per compiled file.
	// Defaults to os.Stdout.
	Out io.Writer

	// Jobs bounds concurrent compilations. Values <= 1 compile strictly
	// one file at a time. With Jobs > 1 every staleness check runs before
	// the first compile, so a check error (such as a missing source) fails
	// the run with nothing compiled. Sequentially, the files ahead of it
	// are compiled first.
	Jobs int
}

// Result lists what a Run did, in input order.
type Result struct {
	Compiled []string // artifact paths
	Skipped  []string // source paths that were already fresh
}

// Run compiles every stale source in paths. Sources are compiled as
// internal runtime sources for the given architectures. The first failure
// stops the batch; artifacts compiled before it stay on disk.
func (d *Driver) Run(ctx context.Context, archs ArchSet, paths []string) (*Result, error) {
	if d.Jobs > 1 {
		return d.runParallel(ctx, archs, paths)
	}

	res := &Result{}
	for _, path := range paths {
		stale, err := d.Checker.IsStale(ctx, path)
		if err != nil {
			return res, err
		}
		artifact := d.Checker.Ext.ArtifactPath(path)
		if !stale {
			log.Debugf("%s is up to date", artifact)
			res.Skipped = append(res.Skipped, path)
			continue
		}

		fmt.Fprintf(d.out(), "Compiling %s\n", artifact)
		if err := d.compile(ctx, path, artifact, archs); err != nil {
			return res, err
		}
		res.Compiled = append(res.Compiled, artifact)
	}
	return res, nil
}

type pendingCompile struct {
	path     string
	artifact string
	done     chan compileOutcome
}

type compileOutcome struct {
	attempted bool
	err       error
}

// runParallel checks staleness in input order, compiles up to d.Jobs files
// at once and prints progress lines in input order as results arrive. Once
// a compile fails no new compile starts, but ones already running finish.
// Every attempted file gets its line, and every file that compiled is in
// the Result, up to the first failure in input order.
func (d *Driver) runParallel(ctx context.Context, archs ArchSet, paths []string) (*Result, error) {
	res := &Result{}
	var pending []*pendingCompile
	for _, path := range paths {
		stale, err := d.Checker.IsStale(ctx, path)
		if err != nil {
			return res, err
		}
		artifact := d.Checker.Ext.ArtifactPath(path)
		if !stale {
			log.Debugf("%s is up to date", artifact)
			res.Skipped = append(res.Skipped, path)
			continue
		}
		pending = append(pending, &pendingCompile{
			path:     path,
			artifact: artifact,
			done:     make(chan compileOutcome, 1),
		})
	}

	var stop atomic.Bool
	var g errgroup.Group
	g.SetLimit(d.Jobs)
	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for _, p := range pending {
			g.Go(func() error {
				if stop.Load() || ctx.Err() != nil {
					p.done <- compileOutcome{}
					return nil
				}
				err := d.compile(ctx, p.path, p.artifact, archs)
				if err != nil {
					stop.Store(true)
				}
				p.done <- compileOutcome{attempted: true, err: err}
				return nil
			})
		}
	}()
	defer func() {
		<-launched
		_ = g.Wait()
	}()

	dropped := false
	for _, p := range pending {
		out := <-p.done
		if !out.attempted {
			// Dropped after a failure further on or a cancel.
			dropped = true
			continue
		}
		fmt.Fprintf(d.out(), "Compiling %s\n", p.artifact)
		if out.err != nil {
			return res, out.err
		}
		res.Compiled = append(res.Compiled, p.artifact)
	}
	if dropped {
		return res, ctx.Err()
	}
	return res, nil
}

func (d *Driver) compile(ctx context.Context, path, artifact string, archs ArchSet) error {
	if err := d.Compiler.Compile(ctx, path, archs, true); err != nil {
		return fmt.Errorf("compiling %q: %w", path, err)
	}
	if d.Checker.Digests == nil {
		return nil
	}
	digest, err := SourceDigest(path)
	if err != nil {
		return err
	}
	return d.Checker.Digests.RecordArtifact(ctx, ArtifactRecord{
		Artifact:   artifact,
		Source:     path,
		Digest:     digest,
		Archs:      archs,
		CompiledAt: time.Now(),
	})
}

func (d *Driver) out() io.Writer {
	if d.Out == nil {
		return os.Stdout
	}
	return d.Out
}
