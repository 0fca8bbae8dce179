package latincache

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"latinize/internal/keys"
)

const (
	fileMagic   uint32 = 0x544C4246 // "FBLT"
	fileVersion uint32 = 1
	headerSize         = 16
)

var (
	errBadMagic   = errors.New("unrecognized file magic")
	errBadVersion = errors.New("unsupported file version")
	errTruncated  = errors.New("truncated record")
)

// encode writes tracks and albums in the cache file layout. Keys are written
// in ascending order so identical contents produce identical files.
func encode(w io.Writer, tracks map[keys.Key]Record, albums map[keys.Key]string) error {
	if uint64(len(tracks)) > math.MaxUint32 || uint64(len(albums)) > math.MaxUint32 {
		return fmt.Errorf("encode: too many entries")
	}
	bw := bufio.NewWriter(w)
	var header [headerSize]byte
	binary.LittleEndian.PutUint32(header[0:], fileMagic)
	binary.LittleEndian.PutUint32(header[4:], fileVersion)
	binary.LittleEndian.PutUint32(header[8:], uint32(len(tracks)))
	binary.LittleEndian.PutUint32(header[12:], uint32(len(albums)))
	if _, err := bw.Write(header[:]); err != nil {
		return err
	}
	for _, key := range sortedKeys(tracks) {
		rec := tracks[key]
		if err := writeKey(bw, key); err != nil {
			return err
		}
		if err := writeString(bw, rec.Title); err != nil {
			return err
		}
		if err := writeString(bw, rec.Album); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(albums) {
		if err := writeKey(bw, key); err != nil {
			return err
		}
		if err := writeString(bw, albums[key]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeKey(w io.Writer, key keys.Key) error {
	var buf [keys.Size]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(key))
	_, err := w.Write(buf[:])
	return err
}

func writeString(w *bufio.Writer, s string) error {
	if uint64(len(s)) > math.MaxUint32 {
		return fmt.Errorf("encode: string of %d bytes exceeds length prefix", len(s))
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(len(s)))
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	_, err := w.WriteString(s)
	return err
}

func sortedKeys[V any](m map[keys.Key]V) []keys.Key {
	out := make([]keys.Key, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// decoded is the result of a successful decode. trailing counts bytes after
// the last declared record.
type decoded struct {
	tracks   map[keys.Key]Record
	albums   map[keys.Key]string
	trailing int
}

// decode parses a complete cache file image. It either returns every
// declared record or an error; partial results are never returned.
func decode(data []byte) (decoded, error) {
	if len(data) < headerSize {
		if len(data) >= 4 && binary.LittleEndian.Uint32(data) != fileMagic {
			return decoded{}, errBadMagic
		}
		return decoded{}, fmt.Errorf("header: %w", errTruncated)
	}
	if binary.LittleEndian.Uint32(data[0:]) != fileMagic {
		return decoded{}, errBadMagic
	}
	if v := binary.LittleEndian.Uint32(data[4:]); v != fileVersion {
		return decoded{}, fmt.Errorf("%w %d", errBadVersion, v)
	}
	trackCount := binary.LittleEndian.Uint32(data[8:])
	albumCount := binary.LittleEndian.Uint32(data[12:])

	r := reader{buf: data, off: headerSize}
	// Every record needs at least a key and one length prefix; reject counts
	// the file cannot possibly hold before allocating for them.
	minRecord := uint64(keys.Size + 4)
	if (uint64(trackCount)+uint64(albumCount))*minRecord > uint64(len(data)-headerSize) {
		return decoded{}, fmt.Errorf("record counts %d/%d: %w", trackCount, albumCount, errTruncated)
	}

	tracks := make(map[keys.Key]Record, trackCount)
	for i := uint32(0); i < trackCount; i++ {
		key, err := r.key()
		if err != nil {
			return decoded{}, fmt.Errorf("track %d: %w", i, err)
		}
		title, err := r.str()
		if err != nil {
			return decoded{}, fmt.Errorf("track %d title: %w", i, err)
		}
		album, err := r.str()
		if err != nil {
			return decoded{}, fmt.Errorf("track %d album: %w", i, err)
		}
		tracks[key] = Record{Title: title, Album: album}
	}
	albums := make(map[keys.Key]string, albumCount)
	for i := uint32(0); i < albumCount; i++ {
		key, err := r.key()
		if err != nil {
			return decoded{}, fmt.Errorf("album %d: %w", i, err)
		}
		album, err := r.str()
		if err != nil {
			return decoded{}, fmt.Errorf("album %d value: %w", i, err)
		}
		albums[key] = album
	}
	return decoded{tracks: tracks, albums: albums, trailing: len(data) - r.off}, nil
}

type reader struct {
	buf []byte
	off int
}

func (r *reader) key() (keys.Key, error) {
	if len(r.buf)-r.off < keys.Size {
		return 0, errTruncated
	}
	k := keys.Key(binary.LittleEndian.Uint64(r.buf[r.off:]))
	r.off += keys.Size
	return k, nil
}

func (r *reader) str() (string, error) {
	if len(r.buf)-r.off < 4 {
		return "", errTruncated
	}
	n := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	if uint64(n) > uint64(len(r.buf)-r.off) {
		return "", errTruncated
	}
	s := string(r.buf[r.off : r.off+int(n)])
	r.off += int(n)
	return s, nil
}
