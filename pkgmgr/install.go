package pkgmgr

import (
	"fmt"
	"io"
	"time"
)

// Config is the package manager's ambient verbosity.
type Config struct {
	Verbose       bool
	ReallyVerbose bool
}

// Installation is what a post-install hook receives.
type Installation struct {
	Spec   *Spec
	Config Config
	UI     UI

	defaults map[string]string
}

// Default returns the platform default for key as it was when the install
// started.
func (i *Installation) Default(key string) (string, bool) {
	v, ok := i.defaults[key]
	return v, ok
}

// UI is where hooks report progress to the user.
type UI interface {
	Say(msg string)
}

// WriterUI says each message as one line on W.
type WriterUI struct {
	W io.Writer
}

// Say writes msg and a newline.
func (u WriterUI) Say(msg string) {
	fmt.Fprintln(u.W, msg)
}

// SilentUI drops everything.
type SilentUI struct{}

// Say does nothing.
func (SilentUI) Say(string) {}

// InstallReceipt records that a hook finished for one installed package.
type InstallReceipt struct {
	ID          string
	Package     string
	Files       int
	InstalledAt time.Time
}
