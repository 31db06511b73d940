// Package bundle keeps a local cache of template packs in step with a remote
// catalog.
package bundle

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hpungsan/nesta/internal/catalog"
	"github.com/hpungsan/nesta/internal/errors"
)

// Outcome of syncing one catalog entry.
type Outcome string

const (
	OutcomeAdded   Outcome = "added"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// PackOutcome reports what happened to one entry.
type PackOutcome struct {
	ID      string  `json:"id,omitempty"`
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
}

// Result summarizes a sync.
type Result struct {
	Added   int           `json:"added"`
	Updated int           `json:"updated"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
	Packs   []PackOutcome `json:"packs"`
}

func (r *Result) record(id string, o Outcome, reason string) {
	switch o {
	case OutcomeAdded:
		r.Added++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
	r.Packs = append(r.Packs, PackOutcome{ID: id, Outcome: o, Reason: reason})
}

// LedgerStore persists the pack id → last applied checksum mapping.
type LedgerStore interface {
	LoadLedger() (map[string]string, error)
	SaveLedger(map[string]string) error
}

// Syncer downloads changed packs into CacheDir.
type Syncer struct {
	CacheDir string
	Fetcher  Fetcher
	Ledger   LedgerStore
	Log      *slog.Logger
}

func (s *Syncer) logger() *slog.Logger {
	if s.Log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Log
}

// Sync fetches the catalog at catalogURL and refreshes every pack whose local
// copy is missing, whose version changed, or whose checksum differs from the
// ledger. Entry failures are counted and do not stop the run. The ledger is
// saved once, after every entry has been processed.
func (s *Syncer) Sync(ctx context.Context, catalogURL string) (*Result, error) {
	if catalogURL == "" {
		return nil, errors.NewConfiguration("template catalog URL is not configured")
	}
	if s.CacheDir == "" {
		return nil, errors.NewConfiguration("template cache directory is not configured")
	}
	log := s.logger()

	body, err := FetchBytes(ctx, s.Fetcher, catalogURL)
	if err != nil {
		return nil, err
	}
	entries, err := ParseCatalog(body)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.CacheDir, 0755); err != nil {
		return nil, errors.NewFilesystem("mkdir", s.CacheDir, err)
	}

	ledger := map[string]string{}
	if s.Ledger != nil {
		loaded, err := s.Ledger.LoadLedger()
		if err != nil {
			return nil, err
		}
		if loaded != nil {
			ledger = loaded
		}
	}

	result := &Result{Packs: []PackOutcome{}}
	for _, raw := range entries {
		entry, err := ParseEntry(raw)
		if err != nil {
			id := ""
			if entry != nil {
				id = entry.ID
			}
			log.Warn("invalid catalog entry", "id", id, "error", err)
			result.record(id, OutcomeFailed, err.Error())
			continue
		}

		outcome, err := s.syncEntry(ctx, entry, ledger)
		if err != nil {
			log.Warn("pack sync failed", "id", entry.ID, "error", err)
			result.record(entry.ID, OutcomeFailed, describe(err))
			continue
		}
		log.Debug("pack synced", "id", entry.ID, "outcome", outcome)
		result.record(entry.ID, outcome, "")
	}

	if s.Ledger != nil {
		if err := s.Ledger.SaveLedger(ledger); err != nil {
			return result, err
		}
	}
	return result, nil
}

// NeedsUpdate reports whether a pack must be downloaded.
func NeedsUpdate(hasLocal bool, localVersion string, entry *Entry, ledgerChecksum string) bool {
	if !hasLocal {
		return true
	}
	if entry.Version != "" && localVersion != "" && entry.Version != localVersion {
		return true
	}
	return entry.Checksum != "" && entry.Checksum != ledgerChecksum
}

func (s *Syncer) syncEntry(ctx context.Context, entry *Entry, ledger map[string]string) (Outcome, error) {
	localDir := filepath.Join(s.CacheDir, entry.ID)
	manifestPath := filepath.Join(localDir, catalog.ManifestFile)

	info, err := os.Stat(localDir)
	hasLocal := err == nil && info.IsDir()

	if !NeedsUpdate(hasLocal, localVersion(manifestPath), entry, ledger[entry.ID]) {
		return OutcomeSkipped, nil
	}

	archive, err := Download(ctx, s.Fetcher, entry.DownloadURL)
	if err != nil {
		return OutcomeFailed, err
	}
	defer os.Remove(archive)

	if err := VerifyChecksum(archive, entry.Checksum); err != nil {
		return OutcomeFailed, err
	}

	if hasLocal {
		if err := os.RemoveAll(localDir); err != nil {
			return OutcomeFailed, errors.NewFilesystem("remove", localDir, err)
		}
	}
	if err := os.MkdirAll(localDir, 0755); err != nil {
		return OutcomeFailed, errors.NewFilesystem("mkdir", localDir, err)
	}
	if err := ExtractZip(archive, localDir); err != nil {
		return OutcomeFailed, err
	}
	if _, err := os.Stat(manifestPath); err != nil {
		return OutcomeFailed, errors.NewConfiguration("extracted pack has no " + catalog.ManifestFile)
	}

	if entry.Checksum != "" {
		ledger[entry.ID] = entry.Checksum
	}
	if hasLocal {
		return OutcomeUpdated, nil
	}
	return OutcomeAdded, nil
}

// localVersion reads the version of an installed manifest, "" when unknown.
func localVersion(manifestPath string) string {
	var m map[string]any
	if err := catalog.ReadJSON(manifestPath, &m); err != nil {
		return ""
	}
	return stringField(m["version"])
}
