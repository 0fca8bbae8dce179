// Package tagsource collects batch items from audio files on disk.
package tagsource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhowden/tag"

	"latinize/internal/keys"
	"latinize/internal/logging"
	"latinize/internal/services"
)

// Matcher reports whether a file found while walking a directory should be read.
type Matcher func(path string) bool

// Source reads track metadata from files and directory trees.
type Source struct {
	match  Matcher
	logger *slog.Logger
}

// New returns a Source. A nil match accepts every regular file.
func New(match Matcher, logger *slog.Logger) *Source {
	if match == nil {
		match = func(string) bool { return true }
	}
	return &Source{match: match, logger: logging.NewComponentLogger(logger, "tagsource")}
}

// Collect expands paths into tracks. Directories are walked recursively and
// filtered by the matcher; files named explicitly are always read. Directory
// contents are returned in lexical order, after any earlier arguments.
func (s *Source) Collect(ctx context.Context, paths []string) ([]keys.Track, error) {
	var tracks []keys.Track
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("collect %s: %w", root, err)
		}
		if !info.IsDir() {
			track, err := s.read(ctx, root)
			if err != nil {
				return nil, err
			}
			tracks = append(tracks, track)
			continue
		}

		var files []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.Type().IsRegular() && s.match(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, services.Wrap(services.ErrCancelled, "tagsource", "collect", "", err)
			}
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
		sort.Strings(files)
		for _, path := range files {
			track, err := s.read(ctx, path)
			if err != nil {
				return nil, err
			}
			tracks = append(tracks, track)
		}
	}
	return tracks, nil
}

func (s *Source) read(ctx context.Context, path string) (keys.Track, error) {
	if err := ctx.Err(); err != nil {
		return keys.Track{}, services.Wrap(services.ErrCancelled, "tagsource", "read", "", err)
	}
	track, err := Read(path)
	if err != nil && !errors.Is(err, errUntagged) {
		return keys.Track{}, err
	}
	if err != nil {
		s.logger.Debug("no readable tags, using file name",
			logging.String("path", path),
			logging.String("title", track.Title))
	}
	return track, nil
}

var errUntagged = errors.New("no readable tags")

// Read returns the metadata of one audio file. When the file carries no
// readable tags the title falls back to the file name without its extension
// and the returned error wraps errUntagged alongside the parser error; the
// track is still usable.
func Read(path string) (keys.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return keys.Track{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	fallback := keys.Track{Title: baseTitle(path), Location: path}
	m, err := tag.ReadFrom(f)
	if err != nil {
		return fallback, fmt.Errorf("%w: %s: %w", errUntagged, path, err)
	}

	title := strings.TrimSpace(m.Title())
	if title == "" {
		title = fallback.Title
	}
	return keys.Track{
		Artist:   strings.TrimSpace(m.Artist()),
		Title:    title,
		Album:    strings.TrimSpace(m.Album()),
		Location: path,
	}, nil
}

// IsUntagged reports whether err from Read only signals missing tags.
func IsUntagged(err error) bool {
	return errors.Is(err, errUntagged)
}

func baseTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
