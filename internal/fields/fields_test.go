package fields

import (
	"path/filepath"
	"testing"

	"latinize/internal/keys"
	"latinize/internal/latincache"
)

func TestProviderLookups(t *testing.T) {
	store := latincache.New(latincache.Options{Path: filepath.Join(t.TempDir(), "latin_cache.db")})
	a := keys.Track{Artist: "A", Title: "夜", Album: "東京"}
	b := keys.Track{Artist: "B", Title: "朝", Album: "大阪"}
	unknown := keys.Track{Artist: "C", Title: "昼", Album: "京都"}

	trackA, albumA := keys.Pair(a)
	store.SetTrack(trackA, latincache.Record{Title: "yoru", Album: "toukyou"})
	store.SetAlbum(albumA, "tokyo")
	store.SetTrack(keys.TrackKey(b), latincache.Record{Title: "asa", Album: "oosaka"})

	p := NewProvider(store)
	tests := []struct {
		name  string
		track keys.Track
		field string
		want  string
	}{
		{"title from record", a, LatinTitle, "yoru"},
		{"album prefers shared entry", a, LatinAlbum, "tokyo"},
		{"album falls back to record", b, LatinAlbum, "oosaka"},
		{"unknown track title", unknown, LatinTitle, ""},
		{"unknown track album", unknown, LatinAlbum, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.Lookup(tt.track, tt.field)
			if !ok {
				t.Fatalf("field %q not recognized", tt.field)
			}
			if got != tt.want {
				t.Fatalf("Lookup(%q) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}

	if _, ok := p.Lookup(a, "title"); ok {
		t.Fatal("expected unknown field name to be rejected")
	}
	if len(Names()) != 2 {
		t.Fatalf("unexpected field names %v", Names())
	}
}
