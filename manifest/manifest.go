// Package manifest handles mago.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chazu/mago/aot"
)

// FileName is the project configuration file mago looks for.
const FileName = "mago.toml"

// DefaultToolchainVersion is assumed when [toolchain] version is unset.
const DefaultToolchainVersion = "1.0"

// Manifest represents a mago.toml project configuration.
type Manifest struct {
	Toolchain Toolchain `toml:"toolchain"`
	Source    Source    `toml:"source"`
	Build     Build     `toml:"build"`
	Install   Install   `toml:"install"`

	// Dir is the directory containing the mago.toml file (set at load time).
	Dir string `toml:"-"`
}

// Toolchain locates the bytecode compiler and names the runtime it targets.
type Toolchain struct {
	Binary  string `toml:"binary"`
	Engine  string `toml:"engine"`
	Version string `toml:"version"`
}

// Source configures which files are sources and what they compile to.
type Source struct {
	Extension         string   `toml:"extension"`
	ArtifactExtension string   `toml:"artifact-extension"`
	TestDirs          []string `toml:"test-dirs"`
}

// Build configures the incremental driver.
type Build struct {
	Archs       []string `toml:"archs"`
	Jobs        int      `toml:"jobs"`
	ContentHash bool     `toml:"content-hash"`
	Ledger      string   `toml:"ledger"`
}

// Install configures the post-install hook.
type Install struct {
	// Compile is nil when unset, which means true.
	Compile    *bool  `toml:"compile"`
	DocOptions string `toml:"doc-options"`
}

// Default returns the configuration used when dir has no mago.toml.
func Default(dir string) (*Manifest, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	m := &Manifest{Dir: abs}
	m.applyDefaults()
	return m, nil
}

// Load parses a mago.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	m.applyDefaults()
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Toolchain.Binary == "" {
		m.Toolchain.Binary = "magc"
	}
	if m.Toolchain.Engine == "" {
		m.Toolchain.Engine = "maggie"
	}
	if m.Toolchain.Version == "" {
		m.Toolchain.Version = DefaultToolchainVersion
	}
	if m.Source.Extension == "" {
		m.Source.Extension = aot.DefaultSourceExt
	}
	if m.Source.ArtifactExtension == "" {
		m.Source.ArtifactExtension = aot.DefaultArtifactExt
	}
	if m.Source.TestDirs == nil {
		m.Source.TestDirs = []string{"test", "spec"}
	}
	if m.Build.Jobs <= 0 {
		m.Build.Jobs = 1
	}
	if m.Build.Ledger == "" {
		m.Build.Ledger = filepath.Join(".mago", "ledger.db")
	}
}

// FindAndLoad walks up from startDir to find a mago.toml file, then loads
// and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// FindOrDefault is FindAndLoad falling back to Default(startDir).
func FindOrDefault(startDir string) (*Manifest, error) {
	m, err := FindAndLoad(startDir)
	if err != nil || m != nil {
		return m, err
	}
	return Default(startDir)
}

// Extensions returns the configured source/artifact extension pair.
func (m *Manifest) Extensions() aot.Extensions {
	return aot.Extensions{Source: m.Source.Extension, Artifact: m.Source.ArtifactExtension}
}

// Archs returns the configured default architectures.
func (m *Manifest) Archs() aot.ArchSet {
	return aot.ParseArchs(strings.Join(m.Build.Archs, " "))
}

// ToolchainPath resolves the compiler binary. Absolute paths are used as
// is, paths with a directory part are relative to the manifest, and bare
// names are looked up on PATH.
func (m *Manifest) ToolchainPath() (string, error) {
	bin := m.Toolchain.Binary
	switch {
	case filepath.IsAbs(bin):
		return bin, nil
	case strings.ContainsRune(bin, '/') || strings.ContainsRune(bin, filepath.Separator):
		return filepath.Join(m.Dir, bin), nil
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("toolchain %q: %w", bin, err)
	}
	return path, nil
}

// LedgerPath returns the absolute path of the digest ledger.
func (m *Manifest) LedgerPath() string {
	if filepath.IsAbs(m.Build.Ledger) {
		return m.Build.Ledger
	}
	return filepath.Join(m.Dir, m.Build.Ledger)
}

// CompileOnInstall reports whether the install hook should compile.
func (m *Manifest) CompileOnInstall() bool {
	return m.Install.Compile == nil || *m.Install.Compile
}
