package installhook

import (
	"strings"

	"github.com/chazu/mago/aot"
	"github.com/chazu/mago/pkgmgr"
)

// DefaultTestDirs are the top-level directories whose files are never
// compiled.
var DefaultTestDirs = []string{"test", "spec"}

// EligibleFiles returns the spec's files minus its test and extra doc
// files, minus anything under a top-level test directory, keeping only
// sources. Order follows spec.Files.
func EligibleFiles(spec *pkgmgr.Spec, ext aot.Extensions, testDirs []string) []string {
	excluded := make(map[string]bool, len(spec.TestFiles)+len(spec.ExtraDocFiles))
	for _, f := range spec.TestFiles {
		excluded[f] = true
	}
	for _, f := range spec.ExtraDocFiles {
		excluded[f] = true
	}

	var files []string
	for _, f := range spec.Files {
		if excluded[f] || inTestDir(f, testDirs) || !ext.IsSource(f) {
			continue
		}
		files = append(files, f)
	}
	return files
}

func inTestDir(file string, testDirs []string) bool {
	lead, _, found := strings.Cut(file, "/")
	if !found {
		return false
	}
	for _, d := range testDirs {
		if lead == d {
			return true
		}
	}
	return false
}
