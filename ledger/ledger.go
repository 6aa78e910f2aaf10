// Package ledger persists what mago has built: the source digest behind
// each artifact, for the content-digest staleness fallback, and a receipt
// per finished package install.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/mago/aot"
	"github.com/chazu/mago/pkgmgr"
)

var log = commonlog.GetLogger("mago.ledger")

// cborEncMode encodes arch sets canonically so equal sets store equal blobs.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("ledger: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	artifact    TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	digest      TEXT NOT NULL,
	archs       BLOB,
	compiled_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS installs (
	id           TEXT PRIMARY KEY,
	package      TEXT NOT NULL,
	files        INTEGER NOT NULL,
	installed_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS installs_by_package ON installs (package, installed_at);
`

// Ledger is a SQLite-backed aot.DigestStore and installhook.ReceiptStore.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("ledger: creating directory for %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	// One writer at a time; parallel compiles queue here.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: init schema in %s: %w", path, err)
	}
	log.Debugf("opened %s", path)
	return &Ledger{db: db}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// LookupDigest returns the source digest recorded for artifact.
func (l *Ledger) LookupDigest(ctx context.Context, artifact string) (string, bool, error) {
	var digest string
	err := l.db.QueryRowContext(ctx,
		`SELECT digest FROM artifacts WHERE artifact = ?`, artifact).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("ledger: lookup %s: %w", artifact, err)
	}
	return digest, true, nil
}

// RecordArtifact stores rec, replacing any earlier record for the same
// artifact.
func (l *Ledger) RecordArtifact(ctx context.Context, rec aot.ArtifactRecord) error {
	archs, err := cborEncMode.Marshal(rec.Archs)
	if err != nil {
		return fmt.Errorf("ledger: encode archs: %w", err)
	}
	_, err = l.db.ExecContext(ctx, `
		INSERT INTO artifacts (artifact, source, digest, archs, compiled_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (artifact) DO UPDATE SET
			source = excluded.source,
			digest = excluded.digest,
			archs = excluded.archs,
			compiled_at = excluded.compiled_at`,
		rec.Artifact, rec.Source, rec.Digest, archs, rec.CompiledAt.UnixNano())
	if err != nil {
		return fmt.Errorf("ledger: record %s: %w", rec.Artifact, err)
	}
	return nil
}

// Artifact returns the full record for artifact, or nil if there is none.
func (l *Ledger) Artifact(ctx context.Context, artifact string) (*aot.ArtifactRecord, error) {
	var (
		rec   aot.ArtifactRecord
		archs []byte
		at    int64
	)
	err := l.db.QueryRowContext(ctx,
		`SELECT artifact, source, digest, archs, compiled_at FROM artifacts WHERE artifact = ?`,
		artifact).Scan(&rec.Artifact, &rec.Source, &rec.Digest, &archs, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: read %s: %w", artifact, err)
	}
	if len(archs) > 0 {
		if err := cbor.Unmarshal(archs, &rec.Archs); err != nil {
			return nil, fmt.Errorf("ledger: decode archs for %s: %w", artifact, err)
		}
	}
	rec.CompiledAt = time.Unix(0, at)
	return &rec, nil
}

// RecordInstall stores an install receipt.
func (l *Ledger) RecordInstall(ctx context.Context, rec pkgmgr.InstallReceipt) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO installs (id, package, files, installed_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.Package, rec.Files, rec.InstalledAt.UnixNano())
	if err != nil {
		return fmt.Errorf("ledger: record install of %s: %w", rec.Package, err)
	}
	return nil
}

// Installs returns the receipts for a package full name, oldest first.
func (l *Ledger) Installs(ctx context.Context, pkg string) ([]pkgmgr.InstallReceipt, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, package, files, installed_at FROM installs WHERE package = ? ORDER BY installed_at`, pkg)
	if err != nil {
		return nil, fmt.Errorf("ledger: list installs of %s: %w", pkg, err)
	}
	defer rows.Close()

	var out []pkgmgr.InstallReceipt
	for rows.Next() {
		var (
			rec pkgmgr.InstallReceipt
			at  int64
		)
		if err := rows.Scan(&rec.ID, &rec.Package, &rec.Files, &at); err != nil {
			return nil, fmt.Errorf("ledger: scan install: %w", err)
		}
		rec.InstalledAt = time.Unix(0, at)
		out = append(out, rec)
	}
	return out, rows.Err()
}
