package aot

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type staleFixture struct {
	src, art, tool string
	checker        *Checker
}

func newStaleFixture(t *testing.T) *staleFixture {
	t.Helper()
	dir := t.TempDir()
	f := &staleFixture{
		src:  filepath.Join(dir, "lib", "set.mag"),
		art:  filepath.Join(dir, "lib", "set.mago"),
		tool: filepath.Join(dir, "bin", "magc"),
	}
	writeAt(t, f.tool, "toolchain", base)
	writeAt(t, f.src, "Set subclass: Object", base.Add(time.Minute))
	f.checker = &Checker{Toolchain: f.tool, Ext: DefaultExtensions()}
	return f
}

func (f *staleFixture) stale(t *testing.T) bool {
	t.Helper()
	stale, err := f.checker.IsStale(context.Background(), f.src)
	if err != nil {
		t.Fatalf("IsStale: %v", err)
	}
	return stale
}

func TestIsStaleMissingArtifact(t *testing.T) {
	f := newStaleFixture(t)
	if !f.stale(t) {
		t.Error("missing artifact should be stale")
	}
}

func TestIsStaleFreshArtifact(t *testing.T) {
	f := newStaleFixture(t)
	writeAt(t, f.art, "bytecode", base.Add(2*time.Minute))
	if f.stale(t) {
		t.Error("artifact newer than source and toolchain should be fresh")
	}
}

func TestIsStaleEqualTimesIsFresh(t *testing.T) {
	f := newStaleFixture(t)
	writeAt(t, f.art, "bytecode", base.Add(time.Minute))
	if f.stale(t) {
		t.Error("artifact with the same mtime as its source should be fresh")
	}
}

func TestIsStaleSourceTouched(t *testing.T) {
	f := newStaleFixture(t)
	writeAt(t, f.art, "bytecode", base.Add(2*time.Minute))
	if f.stale(t) {
		t.Fatal("precondition: artifact should start fresh")
	}

	// Content is untouched; only the mtime moves.
	touch(t, f.src, base.Add(3*time.Minute))
	if !f.stale(t) {
		t.Error("touching the source after the artifact should make it stale")
	}
}

func TestIsStaleToolchainTouched(t *testing.T) {
	f := newStaleFixture(t)
	other := filepath.Join(filepath.Dir(f.src), "map.mag")
	writeAt(t, other, "Map subclass: Object", base)
	writeAt(t, f.art, "bytecode", base.Add(2*time.Minute))
	writeAt(t, f.checker.Ext.ArtifactPath(other), "bytecode", base.Add(2*time.Minute))

	touch(t, f.tool, base.Add(5*time.Minute))

	for _, src := range []string{f.src, other} {
		stale, err := f.checker.IsStale(context.Background(), src)
		if err != nil {
			t.Fatal(err)
		}
		if !stale {
			t.Errorf("%s: newer toolchain should invalidate every artifact", filepath.Base(src))
		}
	}
}

func TestIsStaleMissingSource(t *testing.T) {
	f := newStaleFixture(t)
	if err := os.Remove(f.src); err != nil {
		t.Fatal(err)
	}
	_, err := f.checker.IsStale(context.Background(), f.src)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist", err)
	}
}

func TestIsStaleMissingToolchain(t *testing.T) {
	f := newStaleFixture(t)
	writeAt(t, f.art, "bytecode", base.Add(2*time.Minute))
	f.checker.Toolchain = filepath.Join(t.TempDir(), "nope")
	_, err := f.checker.IsStale(context.Background(), f.src)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist", err)
	}
}

func TestIsStaleDigestFallback(t *testing.T) {
	f := newStaleFixture(t)
	digests := memDigests{}
	f.checker.Digests = digests
	writeAt(t, f.art, "bytecode", base.Add(2*time.Minute))

	// No record yet: mtime decides.
	if f.stale(t) {
		t.Fatal("unrecorded artifact should keep the mtime verdict")
	}

	d, err := SourceDigest(f.src)
	if err != nil {
		t.Fatal(err)
	}
	digests[f.art] = d
	if f.stale(t) {
		t.Fatal("matching digest should be fresh")
	}

	// Rewrite the source but restore its old mtime.
	writeAt(t, f.src, "Set subclass: Collection", base.Add(time.Minute))
	if !f.stale(t) {
		t.Error("changed content under a preserved mtime should be stale with digests on")
	}

	f.checker.Digests = nil
	if f.stale(t) {
		t.Error("timestamp-only checking should not notice the content change")
	}
}
