package keys

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Size is the encoded width of a Key in bytes.
const Size = 8

// Key identifies a cache entry. Track and album keys share the width but live
// in separate keyspaces and are never compared with each other.
type Key uint64

// String renders the key as 16 lowercase hex digits.
func (k Key) String() string {
	return fmt.Sprintf("%016x", uint64(k))
}

// ParseKey parses the hex rendering produced by Key.String. An optional 0x
// prefix is accepted.
func ParseKey(value string) (Key, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(strings.TrimPrefix(value, "0x"), "0X")
	if value == "" {
		return 0, fmt.Errorf("parse key: empty value")
	}
	if len(value) > 16 {
		return 0, fmt.Errorf("parse key %q: more than 16 hex digits", value)
	}
	parsed, err := strconv.ParseUint(value, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse key %q: %w", value, err)
	}
	return Key(parsed), nil
}

// Track carries the metadata fields a key is derived from. Location is the
// item's file path or URI; it identifies the item for callers but is not part
// of the hash, so moving a file keeps its cached values.
type Track struct {
	Artist   string
	Title    string
	Album    string
	Location string
}

// TrackKey hashes "<artist> - <title> - <album>". The composition is part of
// the persisted file format and must not change.
func TrackKey(t Track) Key {
	return hash(t.Artist + " - " + t.Title + " - " + t.Album)
}

// AlbumKey hashes the album field alone so every track of an album shares it.
func AlbumKey(album string) Key {
	return hash(album)
}

// Pair returns both keys for a track.
func Pair(t Track) (track Key, album Key) {
	return TrackKey(t), AlbumKey(t.Album)
}

// hash folds an MD5 digest of the NFC form of s into 64 bits by XOR-ing its
// two halves.
func hash(s string) Key {
	sum := md5.Sum([]byte(norm.NFC.String(s)))
	lo := binary.LittleEndian.Uint64(sum[:8])
	hi := binary.LittleEndian.Uint64(sum[8:])
	return Key(lo ^ hi)
}
