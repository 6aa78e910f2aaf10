// Package aot decides which Maggie sources need precompiling and drives the
// external bytecode compiler over them.
//
// A source file X.mag compiles to a sibling artifact X.mago. An artifact is
// fresh when it exists and is at least as new as both its source and the
// compiler toolchain binary; anything else is stale. Modification time is
// the only signal by default. A DigestStore can be attached to a Checker to
// additionally catch content changes that preserved timestamps.
//
// # Components
//
//   - Extensions: source/artifact extension pair and the path mapping
//     between them.
//
//   - Checker: the staleness rule.
//
//   - Compiler: boundary to the external toolchain. ExecCompiler runs the
//     toolchain binary; CompilerFunc adapts a plain function.
//
//   - Driver: the incremental build loop. Paths are processed in the order
//     given and the first failure aborts the batch. Earlier artifacts are
//     left on disk.
package aot
