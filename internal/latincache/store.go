package latincache

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"latinize/internal/fileutil"
	"latinize/internal/keys"
	"latinize/internal/logging"
	"latinize/internal/services"
	"latinize/internal/textutil"
)

const component = "latincache"

// Record is the cached latinized form of one track. Both fields are sanitized.
type Record struct {
	Title string
	Album string
}

// Entry is a flattened view of one cache entry used for listing and external
// edits. Album entries carry only Album.
type Entry struct {
	IsTrack bool
	Key     keys.Key
	Title   string
	Album   string
}

// Options configures a Store.
type Options struct {
	// Path is the cache file loaded by Open.
	Path string
	// FallbackPath receives saves when Path cannot be written. Defaults to
	// <tmp>/latinize/<base name of the requested path>.
	FallbackPath string
	Logger       *slog.Logger
}

// Store holds the track and album caches in memory and persists them to a
// single binary file. Every method takes the store lock for exactly one
// logical operation, so check-then-write decisions are atomic.
type Store struct {
	mu       sync.Mutex
	logger   *slog.Logger
	path     string
	fallback string

	loaded    bool
	requested string // path passed to EnsureLoaded
	active    string // path saves go to; differs from requested after a fallback save
	dirty     bool
	tracks    map[keys.Key]Record
	albums    map[keys.Key]string
}

// New constructs an unloaded store. Nothing is read until Open,
// EnsureLoaded, or the first accessor call.
func New(opts Options) *Store {
	return &Store{
		logger:   logging.NewComponentLogger(opts.Logger, component),
		path:     opts.Path,
		fallback: opts.FallbackPath,
		tracks:   make(map[keys.Key]Record),
		albums:   make(map[keys.Key]string),
	}
}

// Open loads the configured path.
func (s *Store) Open() {
	s.EnsureLoaded(s.path)
}

// Close flushes pending changes.
func (s *Store) Close() error {
	return s.SaveIfDirty()
}

// EnsureLoaded makes path the store's backing file. It is a no-op when path is
// already loaded. A missing file yields an empty store; an unreadable or
// corrupt file is logged and also yields an empty store.
func (s *Store) EnsureLoaded(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(path)
}

func (s *Store) ensureLoadedLocked(path string) {
	if s.loaded && path == s.requested {
		return
	}
	if s.loaded && s.dirty {
		logging.WarnWithContext(s.logger, "discarding unsaved cache changes", "cache_path_switched",
			logging.String("previous_path", s.active),
			logging.String("path", path),
			logging.String(logging.FieldImpact, "changes made since the last save are lost"),
			logging.String(logging.FieldErrorHint, "save before changing cache.path"))
	}
	s.loaded = true
	s.requested = path
	s.active = path
	s.dirty = false
	s.tracks = make(map[keys.Key]Record)
	s.albums = make(map[keys.Key]string)

	if err := s.loadLocked(); err != nil {
		logging.WarnWithContext(s.logger, "cache file unreadable; starting empty", "cache_load_failed",
			logging.Error(err),
			logging.String("path", path),
			logging.String(logging.FieldImpact, "previously cached names will be fetched again"),
			logging.String(logging.FieldErrorHint, "the file is replaced on the next save; move it aside to keep a copy"))
	}
}

func (s *Store) lazyLoadLocked() {
	if !s.loaded {
		s.ensureLoadedLocked(s.path)
	}
}

// countNonCanonical counts non-empty values that sanitizing would change.
func countNonCanonical(tracks map[keys.Key]Record, albums map[keys.Key]string) int {
	n := 0
	check := func(value string) {
		if value != "" && !textutil.IsSanitizedLatin(value) {
			n++
		}
	}
	for _, rec := range tracks {
		check(rec.Title)
		check(rec.Album)
	}
	for _, value := range albums {
		check(value)
	}
	return n
}

func (s *Store) loadLocked() error {
	if s.active == "" {
		return nil
	}
	data, err := os.ReadFile(s.active)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("cache file not found; starting empty", logging.String("path", s.active))
			return nil
		}
		return services.Wrap(services.ErrStorageLoad, component, "load", "read cache file", err)
	}
	if len(data) == 0 {
		return nil
	}
	dec, err := decode(data)
	if err != nil {
		return services.Wrap(services.ErrStorageLoad, component, "load", "decode cache file", err)
	}
	s.tracks = dec.tracks
	s.albums = dec.albums
	if dec.trailing > 0 {
		s.logger.Debug("ignoring trailing bytes in cache file", logging.Int("bytes", dec.trailing))
	}
	if n := countNonCanonical(s.tracks, s.albums); n > 0 {
		logging.WarnWithContext(s.logger, "cache file holds values outside the canonical latin form", "cache_noncanonical_values",
			logging.Alert("noncanonical_values"),
			logging.Int("values", n),
			logging.String("path", s.active),
			logging.String(logging.FieldImpact, "values are served as stored"),
			logging.String(logging.FieldErrorHint, "rewrite the entries with 'latinize cache set' or re-import them"))
	}
	s.logger.Debug("loaded latin cache",
		logging.String("path", s.active),
		logging.Int("tracks", len(s.tracks)),
		logging.Int("albums", len(s.albums)))
	return nil
}

// Track returns the cached record for a track key.
func (s *Store) Track(key keys.Key) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lazyLoadLocked()
	rec, ok := s.tracks[key]
	return rec, ok
}

// Album returns the cached album value for an album key.
func (s *Store) Album(key keys.Key) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lazyLoadLocked()
	value, ok := s.albums[key]
	return value, ok
}

// SetTrack stores rec unless an identical record is already present. It
// reports whether the store changed.
func (s *Store) SetTrack(key keys.Key, rec Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setTrackLocked(key, rec)
}

func (s *Store) setTrackLocked(key keys.Key, rec Record) bool {
	s.lazyLoadLocked()
	if existing, ok := s.tracks[key]; ok && existing == rec {
		return false
	}
	s.tracks[key] = rec
	s.dirty = true
	return true
}

// SetAlbum stores value unless it is already present. It reports whether the
// store changed.
func (s *Store) SetAlbum(key keys.Key, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setAlbumLocked(key, value)
}

func (s *Store) setAlbumLocked(key keys.Key, value string) bool {
	s.lazyLoadLocked()
	if existing, ok := s.albums[key]; ok && existing == value {
		return false
	}
	s.albums[key] = value
	s.dirty = true
	return true
}

// SeedAlbum stores value for key only when the album cache holds no
// non-empty value yet. It returns the value now cached and whether the store
// changed. An empty value never seeds.
func (s *Store) SeedAlbum(key keys.Key, value string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lazyLoadLocked()
	if existing := s.albums[key]; existing != "" || value == "" {
		return existing, false
	}
	return value, s.setAlbumLocked(key, value)
}

// DeleteTrack removes a track entry and reports whether one existed.
func (s *Store) DeleteTrack(key keys.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lazyLoadLocked()
	if _, ok := s.tracks[key]; !ok {
		return false
	}
	delete(s.tracks, key)
	s.dirty = true
	return true
}

// DeleteAlbum removes an album entry and reports whether one existed.
func (s *Store) DeleteAlbum(key keys.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lazyLoadLocked()
	if _, ok := s.albums[key]; !ok {
		return false
	}
	delete(s.albums, key)
	s.dirty = true
	return true
}

// ClearAll empties both caches and returns the number of removed entries.
func (s *Store) ClearAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lazyLoadLocked()
	removed := len(s.tracks) + len(s.albums)
	if removed == 0 {
		return 0
	}
	s.tracks = make(map[keys.Key]Record)
	s.albums = make(map[keys.Key]string)
	s.dirty = true
	return removed
}

// Snapshot copies every entry. Order is unspecified.
func (s *Store) Snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lazyLoadLocked()
	out := make([]Entry, 0, len(s.tracks)+len(s.albums))
	for key, rec := range s.tracks {
		out = append(out, Entry{IsTrack: true, Key: key, Title: rec.Title, Album: rec.Album})
	}
	for key, album := range s.albums {
		out = append(out, Entry{Key: key, Album: album})
	}
	return out
}

// ApplyEdit upserts an externally supplied entry after sanitizing its text
// fields. It reports whether the store changed.
func (s *Store) ApplyEdit(entry Entry) bool {
	title := textutil.SanitizeLatin(entry.Title)
	album := textutil.SanitizeLatin(entry.Album)
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.IsTrack {
		return s.setTrackLocked(entry.Key, Record{Title: title, Album: album})
	}
	return s.setAlbumLocked(entry.Key, album)
}

// Dirty reports whether there are changes not yet saved.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Path returns the file saves currently go to.
func (s *Store) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return s.path
	}
	return s.active
}

// Counts returns the number of track and album entries.
func (s *Store) Counts() (tracks, albums int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lazyLoadLocked()
	return len(s.tracks), len(s.albums)
}

// SaveIfDirty writes the store when it has unsaved changes. When the active
// path cannot be written the fallback path is tried once. The dirty flag is
// cleared only after a write succeeds; on failure the error is logged and
// returned, and the in-memory state is kept for a later attempt.
func (s *Store) SaveIfDirty() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded || !s.dirty {
		return nil
	}

	primaryErr := s.writeLocked(s.active)
	if primaryErr == nil {
		s.dirty = false
		s.logSaved(s.active)
		return nil
	}

	fallback := s.fallbackPath()
	if fallback == "" || fallback == s.active {
		return s.saveFailed(primaryErr)
	}
	if err := s.writeLocked(fallback); err != nil {
		return s.saveFailed(errors.Join(primaryErr, err))
	}
	logging.WarnWithContext(s.logger, "cache saved to fallback path", "cache_save_fallback",
		logging.Error(primaryErr),
		logging.String("path", s.active),
		logging.String("fallback_path", fallback),
		logging.String(logging.FieldImpact, "cache is stored outside the configured location"),
		logging.String(logging.FieldErrorHint, "check permissions on cache.path"))
	s.active = fallback
	s.dirty = false
	s.logSaved(fallback)
	return nil
}

func (s *Store) fallbackPath() string {
	if s.fallback != "" {
		return s.fallback
	}
	if s.requested == "" {
		return ""
	}
	return filepath.Join(os.TempDir(), "latinize", filepath.Base(s.requested))
}

func (s *Store) saveFailed(err error) error {
	wrapped := services.Wrap(services.ErrStorageSave, component, "save", "write cache file", err)
	logging.WarnWithContext(s.logger, "cache save failed", "cache_save_failed",
		logging.Error(err),
		logging.String("path", s.active),
		logging.String(logging.FieldImpact, "changes stay in memory and are retried on the next save"),
		logging.String(logging.FieldErrorHint, "check free space and permissions for the cache directory"))
	return wrapped
}

func (s *Store) logSaved(path string) {
	s.logger.Info("latin cache saved",
		logging.String(logging.FieldEventType, "cache_saved"),
		logging.String("path", path),
		logging.Int("tracks", len(s.tracks)),
		logging.Int("albums", len(s.albums)))
}

func (s *Store) writeLocked(path string) error {
	if path == "" {
		return errors.New("no cache path configured")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer func() { _ = lock.Unlock() }()

	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return encode(w, s.tracks, s.albums)
	})
}
