package cacheexport

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"

	"latinize/internal/fileutil"
	"latinize/internal/keys"
	"latinize/internal/latincache"
)

// Summary reports how many entries an export or import touched.
type Summary struct {
	Tracks  int
	Albums  int
	Changed int
}

// ImportOptions controls Import.
type ImportOptions struct {
	// BackupPath receives a copy of the current cache file before any row is
	// applied. Empty disables the backup.
	BackupPath string
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragma: %w", err)
	}
	return db, nil
}

// Export writes every store entry to a new SQLite database at path, replacing
// any existing file.
func Export(ctx context.Context, store *latincache.Store, path string) (Summary, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create export directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return Summary{}, fmt.Errorf("create export file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	summary, err := writeEntries(ctx, tmpPath, store.Snapshot())
	if err != nil {
		return Summary{}, err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return Summary{}, fmt.Errorf("replace export file: %w", err)
	}
	committed = true
	return summary, nil
}

func writeEntries(ctx context.Context, path string, entries []latincache.Entry) (summary Summary, err error) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsTrack != entries[j].IsTrack {
			return entries[i].IsTrack
		}
		return entries[i].Key < entries[j].Key
	})

	db, err := openDB(path)
	if err != nil {
		return Summary{}, err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close export db: %w", closeErr)
		}
	}()

	if err := createSchema(ctx, db); err != nil {
		return Summary{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("begin export tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, entry := range entries {
		if entry.IsTrack {
			if _, err := tx.ExecContext(ctx, "INSERT INTO tracks (key, title, album) VALUES (?, ?, ?)",
				entry.Key.String(), entry.Title, entry.Album); err != nil {
				return Summary{}, fmt.Errorf("insert track %s: %w", entry.Key, err)
			}
			summary.Tracks++
			continue
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO albums (key, album) VALUES (?, ?)",
			entry.Key.String(), entry.Album); err != nil {
			return Summary{}, fmt.Errorf("insert album %s: %w", entry.Key, err)
		}
		summary.Albums++
	}
	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("commit export: %w", err)
	}
	return summary, nil
}

// Import applies every row of the SQLite database at path to store and saves
// the store when anything changed. Rows with unparseable keys fail the import
// before any entry is applied.
func Import(ctx context.Context, store *latincache.Store, path string, opts ImportOptions) (Summary, error) {
	if _, err := os.Stat(path); err != nil {
		return Summary{}, fmt.Errorf("open import file: %w", err)
	}
	entries, err := readEntries(ctx, path)
	if err != nil {
		return Summary{}, err
	}

	if opts.BackupPath != "" {
		if err := fileutil.CopyFile(store.Path(), opts.BackupPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Summary{}, fmt.Errorf("back up cache: %w", err)
		}
	}

	var summary Summary
	for _, entry := range entries {
		if entry.IsTrack {
			summary.Tracks++
		} else {
			summary.Albums++
		}
		if store.ApplyEdit(entry) {
			summary.Changed++
		}
	}
	if summary.Changed > 0 {
		if err := store.SaveIfDirty(); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func readEntries(ctx context.Context, path string) (entries []latincache.Entry, err error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close import db: %w", closeErr)
		}
	}()

	if err := checkSchema(ctx, db); err != nil {
		return nil, err
	}

	trackRows, err := db.QueryContext(ctx, "SELECT key, title, album FROM tracks ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	for trackRows.Next() {
		var rawKey, title, album string
		if err := trackRows.Scan(&rawKey, &title, &album); err != nil {
			_ = trackRows.Close()
			return nil, fmt.Errorf("scan track: %w", err)
		}
		key, err := keys.ParseKey(rawKey)
		if err != nil {
			_ = trackRows.Close()
			return nil, err
		}
		entries = append(entries, latincache.Entry{IsTrack: true, Key: key, Title: title, Album: album})
	}
	if err := trackRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracks: %w", err)
	}
	_ = trackRows.Close()

	albumRows, err := db.QueryContext(ctx, "SELECT key, album FROM albums ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("query albums: %w", err)
	}
	defer albumRows.Close()
	for albumRows.Next() {
		var rawKey, album string
		if err := albumRows.Scan(&rawKey, &album); err != nil {
			return nil, fmt.Errorf("scan album: %w", err)
		}
		key, err := keys.ParseKey(rawKey)
		if err != nil {
			return nil, err
		}
		entries = append(entries, latincache.Entry{Key: key, Album: album})
	}
	if err := albumRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate albums: %w", err)
	}
	return entries, nil
}
