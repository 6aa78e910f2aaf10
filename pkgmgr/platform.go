package pkgmgr

import (
	"runtime"
	"strings"
)

// Platform identifies what a package's compiled artifacts run on. Version
// is optional.
type Platform struct {
	CPU     string
	Engine  string
	Version string
}

// Generic is the platform of packages that ship only sources.
var Generic = Platform{Engine: "maggie"}

// String renders cpu-engine[-version], omitting empty parts.
func (p Platform) String() string {
	var parts []string
	for _, s := range []string{p.CPU, p.Engine, p.Version} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "-")
}

// LocalCPU names the host CPU the way platform strings spell it.
func LocalCPU() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "386":
		return "x86"
	default:
		return runtime.GOARCH
	}
}
