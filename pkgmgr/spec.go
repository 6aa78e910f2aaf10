package pkgmgr

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SpecFile is the metadata file at the root of every installed package.
const SpecFile = "package.yaml"

// Spec is the metadata of one installed package. File lists hold paths
// relative to the package root, slash-separated.
type Spec struct {
	Name          string   `yaml:"name"`
	Version       string   `yaml:"version"`
	Platform      string   `yaml:"platform,omitempty"`
	Files         []string `yaml:"files"`
	TestFiles     []string `yaml:"test_files,omitempty"`
	ExtraDocFiles []string `yaml:"extra_doc_files,omitempty"`

	// FullPath is the absolute install directory (set at load time).
	FullPath string `yaml:"-"`
}

// FullName is name-version, with the platform appended when it is set.
func (s *Spec) FullName() string {
	name := s.Name + "-" + s.Version
	if s.Platform != "" {
		name += "-" + s.Platform
	}
	return name
}

// LoadSpec parses package.yaml in an installed package directory.
func LoadSpec(dir string) (*Spec, error) {
	path := filepath.Join(dir, SpecFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	s.FullPath, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return &s, nil
}
