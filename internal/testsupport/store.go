package testsupport

import (
	"testing"

	"latinize/internal/config"
	"latinize/internal/keys"
	"latinize/internal/latincache"
)

// MustOpenStore opens the latin cache described by cfg and registers a
// cleanup that flushes it.
func MustOpenStore(t testing.TB, cfg *config.Config) *latincache.Store {
	t.Helper()

	store := latincache.New(latincache.Options{
		Path:         cfg.Cache.Path,
		FallbackPath: cfg.Cache.FallbackPath,
	})
	store.Open()
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

// SeedTrack stores rec for track and its album value in the shared album cache.
func SeedTrack(t testing.TB, store *latincache.Store, track keys.Track, rec latincache.Record) {
	t.Helper()

	trackKey, albumKey := keys.Pair(track)
	store.SetTrack(trackKey, rec)
	if rec.Album != "" {
		store.SetAlbum(albumKey, rec.Album)
	}
}
