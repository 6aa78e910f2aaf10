// Package installhook precompiles a package's sources right after the
// package manager installs it.
//
// Every eligible file is compiled on every install, with no staleness
// check, so the artifacts always match the sources just installed.
// Register wires the hook, the doc-suppression install defaults and this
// runtime's two platform descriptors into a pkgmgr.Registry.
package installhook
