// Package fields exposes cached latinized names as display fields.
package fields

import (
	"latinize/internal/keys"
	"latinize/internal/latincache"
)

// Field names exposed to display layers.
const (
	LatinTitle = "latin_title"
	LatinAlbum = "latin_album"
)

// Provider answers display-field lookups from a store. It never issues
// requests; tracks that were not latinized yet yield empty values.
type Provider struct {
	store *latincache.Store
}

// NewProvider returns a Provider backed by store.
func NewProvider(store *latincache.Store) *Provider {
	return &Provider{store: store}
}

// Title returns the cached latin title of track.
func (p *Provider) Title(track keys.Track) string {
	rec, _ := p.store.Track(keys.TrackKey(track))
	return rec.Title
}

// Album returns the shared album value, falling back to the album stored in
// the track record.
func (p *Provider) Album(track keys.Track) string {
	trackKey, albumKey := keys.Pair(track)
	if album, _ := p.store.Album(albumKey); album != "" {
		return album
	}
	rec, _ := p.store.Track(trackKey)
	return rec.Album
}

// Lookup returns the value of a named field and whether the name is known.
func (p *Provider) Lookup(track keys.Track, name string) (string, bool) {
	switch name {
	case LatinTitle:
		return p.Title(track), true
	case LatinAlbum:
		return p.Album(track), true
	default:
		return "", false
	}
}

// Names lists the supported field names.
func Names() []string {
	return []string{LatinTitle, LatinAlbum}
}
