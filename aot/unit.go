package aot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default extensions for Maggie sources and their compiled artifacts.
const (
	DefaultSourceExt   = ".mag"
	DefaultArtifactExt = ".mago"
)

// Extensions pairs a source extension with the artifact extension it
// compiles to.
type Extensions struct {
	Source   string
	Artifact string
}

// DefaultExtensions returns the .mag → .mago pair.
func DefaultExtensions() Extensions {
	return Extensions{Source: DefaultSourceExt, Artifact: DefaultArtifactExt}
}

// ArtifactPath returns the sibling artifact path for a source path.
// A path without the source extension gets the artifact extension appended.
func (e Extensions) ArtifactPath(path string) string {
	dir := filepath.Dir(path)
	return filepath.Join(dir, e.ArtifactName(filepath.Base(path)))
}

// ArtifactName maps a bare file name to its artifact file name.
func (e Extensions) ArtifactName(name string) string {
	return strings.TrimSuffix(name, e.Source) + e.Artifact
}

// IsSource reports whether the path carries the source extension.
func (e Extensions) IsSource(path string) bool {
	return strings.HasSuffix(path, e.Source)
}

// SourceUnit is a single file under consideration for compilation.
type SourceUnit struct {
	Path    string
	ModTime time.Time
}

// NewSourceUnit stats path and returns the unit for it.
func NewSourceUnit(path string) (SourceUnit, error) {
	info, err := os.Stat(path)
	if err != nil {
		return SourceUnit{}, fmt.Errorf("stat source %s: %w", path, err)
	}
	return SourceUnit{Path: path, ModTime: info.ModTime()}, nil
}
