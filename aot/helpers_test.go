package aot

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// base is a fixed instant all fixture mtimes are derived from.
var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func writeAt(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	touch(t, path, mtime)
}

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

// fakeCompiler writes the artifact for every source it is handed and
// remembers the calls in order.
type fakeCompiler struct {
	mu    sync.Mutex
	ext   Extensions
	calls []compileCall
	fail  map[string]error
	delay map[string]time.Duration
}

type compileCall struct {
	path     string
	archs    ArchSet
	internal bool
}

func newFakeCompiler() *fakeCompiler {
	return &fakeCompiler{ext: DefaultExtensions(), fail: map[string]error{}, delay: map[string]time.Duration{}}
}

func (f *fakeCompiler) Compile(ctx context.Context, path string, archs ArchSet, internal bool) error {
	if d := f.delay[path]; d > 0 {
		time.Sleep(d)
	}
	f.mu.Lock()
	f.calls = append(f.calls, compileCall{path: path, archs: archs, internal: internal})
	f.mu.Unlock()
	if err := f.fail[path]; err != nil {
		return err
	}
	return os.WriteFile(f.ext.ArtifactPath(path), []byte("compiled"), 0644)
}

func (f *fakeCompiler) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		out = append(out, c.path)
	}
	return out
}

// memDigests is an in-memory DigestStore.
type memDigests map[string]string

func (m memDigests) LookupDigest(ctx context.Context, artifact string) (string, bool, error) {
	d, ok := m[artifact]
	return d, ok, nil
}

func (m memDigests) RecordArtifact(ctx context.Context, rec ArtifactRecord) error {
	m[rec.Artifact] = rec.Digest
	return nil
}
