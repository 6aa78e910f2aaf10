package aot

import "strings"

// ArchSet is an ordered set of target architecture identifiers. A nil set
// leaves the choice to the toolchain default.
type ArchSet []string

// ParseArchs splits a whitespace-delimited architecture list. Repeated
// names keep their first position.
func ParseArchs(list string) ArchSet {
	fields := strings.Fields(list)
	if len(fields) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(fields))
	archs := make(ArchSet, 0, len(fields))
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		archs = append(archs, f)
	}
	return archs
}

// String joins the set back into its space-separated form.
func (a ArchSet) String() string {
	return strings.Join(a, " ")
}
