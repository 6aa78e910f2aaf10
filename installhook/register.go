package installhook

import (
	"errors"
	"strings"

	"github.com/chazu/mago/pkgmgr"
)

// Feature is the name Register loads under.
const Feature = "mago"

// Platform default keys.
const (
	DefaultCompile = "compile"
	DefaultInstall = "install"
	DefaultUpdate  = "update"
)

// DefaultDocOptions keeps install and update from generating docs.
const DefaultDocOptions = "--no-document"

// Runtime describes the engine the artifacts are built for.
type Runtime struct {
	Engine  string
	Version string

	// DocOptions overrides DefaultDocOptions when set.
	DocOptions string
}

// Platforms returns the engine platform and the engine-plus-version
// platform for the local CPU. The version is cut to major.minor.
func Platforms(rt Runtime) (engine, current pkgmgr.Platform) {
	cpu := pkgmgr.LocalCPU()
	engine = pkgmgr.Platform{CPU: cpu, Engine: rt.Engine}
	current = pkgmgr.Platform{CPU: cpu, Engine: rt.Engine, Version: majorMinor(rt.Version)}
	return engine, current
}

func majorMinor(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, ".")
}

// ErrNoVersion is returned by Register when the runtime has no version to
// build the versioned platform from.
var ErrNoVersion = errors.New("runtime version is required")

// Register loads the hook into reg once: it appends h to the post-install
// hooks, sets the install and update doc defaults, and registers both
// platforms. Later calls on the same registry do nothing and return false.
func Register(reg *pkgmgr.Registry, h *Hook, rt Runtime) (bool, error) {
	if rt.Version == "" {
		return false, ErrNoVersion
	}
	return reg.Require(Feature, func(r *pkgmgr.Registry) error {
		r.RegisterPostInstallHook(h)

		docOpts := rt.DocOptions
		if docOpts == "" {
			docOpts = DefaultDocOptions
		}
		r.SetDefault(DefaultInstall, docOpts)
		r.SetDefault(DefaultUpdate, docOpts)

		engine, current := Platforms(rt)
		r.RegisterPlatform(engine)
		r.RegisterPlatform(current)
		return nil
	})
}
