package manifest

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/chazu/mago/aot"
)

func TestLoadManifest(t *testing.T) {
	// Create a temporary directory with a mago.toml
	dir := t.TempDir()
	tomlContent := `
[toolchain]
binary = "bin/magc"
engine = "maggie"
version = "0.12.3"

[source]
extension = ".mag"
artifact-extension = ".magb"
test-dirs = ["tests"]

[build]
archs = ["x86_64", "arm64"]
jobs = 4
content-hash = true
ledger = "build/ledger.db"

[install]
compile = false
doc-options = "--no-doc"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Toolchain.Version != "0.12.3" {
		t.Errorf("toolchain version = %q, want 0.12.3", m.Toolchain.Version)
	}
	if got := m.Extensions(); got != (aot.Extensions{Source: ".mag", Artifact: ".magb"}) {
		t.Errorf("extensions = %+v", got)
	}
	if !reflect.DeepEqual(m.Source.TestDirs, []string{"tests"}) {
		t.Errorf("test dirs = %v, want [tests]", m.Source.TestDirs)
	}
	if !reflect.DeepEqual(m.Archs(), aot.ArchSet{"x86_64", "arm64"}) {
		t.Errorf("archs = %v", m.Archs())
	}
	if m.Build.Jobs != 4 {
		t.Errorf("jobs = %d, want 4", m.Build.Jobs)
	}
	if !m.Build.ContentHash {
		t.Error("content-hash = false, want true")
	}
	if m.LedgerPath() != filepath.Join(m.Dir, "build", "ledger.db") {
		t.Errorf("ledger path = %q", m.LedgerPath())
	}
	if m.CompileOnInstall() {
		t.Error("compile on install = true, want false")
	}
	if m.Install.DocOptions != "--no-doc" {
		t.Errorf("doc options = %q, want --no-doc", m.Install.DocOptions)
	}

	tool, err := m.ToolchainPath()
	if err != nil {
		t.Fatal(err)
	}
	if tool != filepath.Join(m.Dir, "bin", "magc") {
		t.Errorf("toolchain path = %q, want manifest-relative", tool)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[toolchain]
binary = "/opt/maggie/bin/magc"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Extensions() != aot.DefaultExtensions() {
		t.Errorf("default extensions = %+v", m.Extensions())
	}
	if !reflect.DeepEqual(m.Source.TestDirs, []string{"test", "spec"}) {
		t.Errorf("default test dirs = %v, want [test spec]", m.Source.TestDirs)
	}
	if m.Build.Jobs != 1 {
		t.Errorf("default jobs = %d, want 1", m.Build.Jobs)
	}
	if m.Archs() != nil {
		t.Errorf("default archs = %v, want toolchain default", m.Archs())
	}
	if !m.CompileOnInstall() {
		t.Error("compile on install should default to true")
	}
	if m.Toolchain.Engine != "maggie" {
		t.Errorf("default engine = %q", m.Toolchain.Engine)
	}
	if m.Toolchain.Version != DefaultToolchainVersion {
		t.Errorf("default version = %q, want %q", m.Toolchain.Version, DefaultToolchainVersion)
	}
	if tool, _ := m.ToolchainPath(); tool != "/opt/maggie/bin/magc" {
		t.Errorf("absolute toolchain path changed to %q", tool)
	}
}

func TestLoadManifestParseError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("[build\njobs = "), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected a parse error")
	}
}

func TestFindAndLoad(t *testing.T) {
	// Create nested directory structure
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	tomlContent := `[toolchain]
version = "1.2.0"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Toolchain.Version != "1.2.0" {
		t.Errorf("toolchain version = %q, want 1.2.0", m.Toolchain.Version)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no mago.toml exists")
	}
}

func TestFindOrDefault(t *testing.T) {
	dir := t.TempDir()
	m, err := FindOrDefault(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m == nil {
		t.Fatal("FindOrDefault returned nil")
	}
	abs, _ := filepath.Abs(dir)
	if m.Dir != abs {
		t.Errorf("dir = %q, want %q", m.Dir, abs)
	}
	if m.LedgerPath() != filepath.Join(abs, ".mago", "ledger.db") {
		t.Errorf("ledger path = %q", m.LedgerPath())
	}
}
