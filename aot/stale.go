package aot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"
)

// ArtifactRecord is what a DigestStore remembers about one compiled
// artifact.
type ArtifactRecord struct {
	Artifact   string
	Source     string
	Digest     string
	Archs      ArchSet
	CompiledAt time.Time
}

// DigestStore remembers the source digest each artifact was built from.
type DigestStore interface {
	LookupDigest(ctx context.Context, artifact string) (digest string, ok bool, err error)
	RecordArtifact(ctx context.Context, rec ArtifactRecord) error
}

// IsStale reports whether the artifact at artifactPath needs rebuilding
// from unit. A missing artifact is stale. Otherwise it is stale when the
// source or the toolchain binary is strictly newer than it.
func IsStale(unit SourceUnit, artifactPath, toolchainPath string) (bool, error) {
	art, err := os.Stat(artifactPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf("stat artifact %s: %w", artifactPath, err)
	}
	if unit.ModTime.After(art.ModTime()) {
		return true, nil
	}
	tool, err := os.Stat(toolchainPath)
	if err != nil {
		return false, fmt.Errorf("stat toolchain %s: %w", toolchainPath, err)
	}
	return tool.ModTime().After(art.ModTime()), nil
}

// Checker applies the staleness rule for one toolchain and extension pair.
type Checker struct {
	// Toolchain is the compiler binary whose mtime invalidates every artifact.
	Toolchain string
	Ext       Extensions

	// Digests, when set, turns on the content-digest fallback: an artifact
	// that looks fresh by mtime is still stale if its recorded source
	// digest no longer matches. Artifacts without a record keep the mtime
	// verdict.
	Digests DigestStore
}

// IsStale reports whether the source at path needs recompiling.
func (c *Checker) IsStale(ctx context.Context, path string) (bool, error) {
	unit, err := NewSourceUnit(path)
	if err != nil {
		return false, err
	}
	artifact := c.Ext.ArtifactPath(path)
	stale, err := IsStale(unit, artifact, c.Toolchain)
	if err != nil || stale || c.Digests == nil {
		return stale, err
	}

	recorded, ok, err := c.Digests.LookupDigest(ctx, artifact)
	if err != nil {
		return false, fmt.Errorf("lookup digest for %s: %w", artifact, err)
	}
	if !ok {
		return false, nil
	}
	current, err := SourceDigest(path)
	if err != nil {
		return false, err
	}
	if current != recorded {
		log.Debugf("%s: content changed under a preserved mtime", path)
		return true, nil
	}
	return false, nil
}

// SourceDigest returns the hex SHA-256 of the file at path.
func SourceDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open source %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash source %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
