package installhook

import (
	"strings"

	"github.com/chazu/mago/aot"
)

// ProgressState remembers the directory last announced at each depth.
// It is never reset, so it carries over from one file and one package to
// the next.
type ProgressState struct {
	dirs []string
}

// Dirs returns the remembered directory per depth.
func (s *ProgressState) Dirs() []string {
	return append([]string(nil), s.dirs...)
}

// Describe announces, through say, each directory of file that differs
// from the one last announced at the same depth, then returns the file's
// own progress line. Lines are indented with one tab per depth:
//
//	\tlib/
//	\t\tcore/
//	\t\tobject.mag => object.mago
//
// Only the last directory seen at each depth is remembered; a directory
// that reappears after a different one at its depth is announced again.
func Describe(state *ProgressState, file string, ext aot.Extensions, say func(string)) string {
	name := file
	var dirs []string
	if i := strings.LastIndex(file, "/"); i >= 0 {
		name = file[i+1:]
		dirs = strings.Split(file[:i], "/")
	}

	for depth, dir := range dirs {
		if depth < len(state.dirs) && state.dirs[depth] == dir {
			continue
		}
		if depth < len(state.dirs) {
			state.dirs[depth] = dir
		} else {
			state.dirs = append(state.dirs, dir)
		}
		say(strings.Repeat("\t", depth+1) + dir + "/")
	}

	return strings.Repeat("\t", len(dirs)) + name + " => " + ext.ArtifactName(name)
}
