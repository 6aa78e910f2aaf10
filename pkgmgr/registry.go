// Package pkgmgr is the package manager side of the post-install contract:
// the registry hooks and platforms are registered into, the installed
// package's metadata, and the UI hooks report through.
package pkgmgr

import (
	"context"
	"fmt"
	"sync"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("mago.pkgmgr")

// PostInstallHook runs after a package's files are in place.
type PostInstallHook interface {
	Call(ctx context.Context, inst *Installation) error
}

// HookFunc adapts a function to PostInstallHook.
type HookFunc func(ctx context.Context, inst *Installation) error

// Call calls f.
func (f HookFunc) Call(ctx context.Context, inst *Installation) error {
	return f(ctx, inst)
}

// Registry holds the process-wide install configuration: post-install
// hooks, recognized platforms and platform defaults. Construct one per
// process, or one per test.
type Registry struct {
	mu        sync.RWMutex
	hooks     []PostInstallHook
	platforms []Platform
	defaults  map[string]string
	features  map[string]bool
}

// NewRegistry returns an empty registry that only knows the generic
// platform.
func NewRegistry() *Registry {
	return &Registry{
		platforms: []Platform{Generic},
		defaults:  map[string]string{},
		features:  map[string]bool{},
	}
}

// Require runs init the first time feature is required on this registry
// and reports whether it ran. A failed init leaves the feature unloaded.
func (r *Registry) Require(feature string, init func(*Registry) error) (bool, error) {
	r.mu.Lock()
	if r.features[feature] {
		r.mu.Unlock()
		return false, nil
	}
	r.features[feature] = true
	r.mu.Unlock()

	if err := init(r); err != nil {
		r.mu.Lock()
		delete(r.features, feature)
		r.mu.Unlock()
		return false, fmt.Errorf("pkgmgr: loading %s: %w", feature, err)
	}
	log.Debugf("loaded %s", feature)
	return true, nil
}

// RegisterPostInstallHook appends h. Hooks run in registration order.
func (r *Registry) RegisterPostInstallHook(h PostInstallHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, h)
}

// Hooks returns the registered hooks in order.
func (r *Registry) Hooks() []PostInstallHook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]PostInstallHook(nil), r.hooks...)
}

// RegisterPlatform appends p unless an equal platform is already known.
func (r *Registry) RegisterPlatform(p Platform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, known := range r.platforms {
		if known == p {
			return
		}
	}
	r.platforms = append(r.platforms, p)
}

// Platforms returns the recognized platforms in registration order.
func (r *Registry) Platforms() []Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Platform(nil), r.platforms...)
}

// SetDefault sets a platform default such as "install" or "compile".
func (r *Registry) SetDefault(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults[key] = value
}

// Default returns the platform default for key.
func (r *Registry) Default(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.defaults[key]
	return v, ok
}

func (r *Registry) snapshotDefaults() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.defaults))
	for k, v := range r.defaults {
		out[k] = v
	}
	return out
}

// Install runs every registered hook for an installed package, in
// registration order. The first hook error stops the remaining hooks.
func (r *Registry) Install(ctx context.Context, spec *Spec, cfg Config, ui UI) error {
	inst := &Installation{
		Spec:     spec,
		Config:   cfg,
		UI:       ui,
		defaults: r.snapshotDefaults(),
	}
	for _, h := range r.Hooks() {
		if err := h.Call(ctx, inst); err != nil {
			return fmt.Errorf("post-install %s: %w", spec.FullName(), err)
		}
	}
	return nil
}
