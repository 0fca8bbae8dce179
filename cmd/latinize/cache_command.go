package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"latinize/internal/cacheexport"
	"latinize/internal/config"
	"latinize/internal/keys"
	"latinize/internal/latincache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and edit the latin cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheSetCommand(ctx))
	cacheCmd.AddCommand(newCacheDeleteCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheExportCommand(ctx))
	cacheCmd.AddCommand(newCacheImportCommand(ctx))

	return cacheCmd
}

type cacheEntryView struct {
	Kind  string `json:"kind"`
	Key   string `json:"key"`
	Title string `json:"title,omitempty"`
	Album string `json:"album"`
}

func sortedEntries(store *latincache.Store) []latincache.Entry {
	entries := store.Snapshot()
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsTrack != entries[j].IsTrack {
			return entries[i].IsTrack
		}
		return entries[i].Key < entries[j].Key
	})
	return entries
}

func entryKind(e latincache.Entry) string {
	if e.IsTrack {
		return "track"
	}
	return "album"
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached track and album entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore(cmd)
			if err != nil {
				return err
			}
			entries := sortedEntries(store)
			views := make([]cacheEntryView, 0, len(entries))
			for _, e := range entries {
				views = append(views, cacheEntryView{Kind: entryKind(e), Key: e.Key.String(), Title: e.Title, Album: e.Album})
			}
			if jsonOutput {
				return writeJSON(cmd, views)
			}
			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(out, "Cache is empty")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{v.Kind, v.Key, v.Title, v.Album})
			}
			tracks, albums := store.Counts()
			fmt.Fprintln(out, renderTable(tableSpec{
				headers:  []string{"Kind", "Key", "Title", "Album"},
				rows:     rows,
				numbered: true,
				footer:   fmt.Sprintf("%d tracks, %d albums", tracks, albums),
			}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print entries as JSON")
	return cmd
}

func parseEntryRef(kind, rawKey string) (latincache.Entry, error) {
	key, err := keys.ParseKey(rawKey)
	if err != nil {
		return latincache.Entry{}, err
	}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "track":
		return latincache.Entry{IsTrack: true, Key: key}, nil
	case "album":
		return latincache.Entry{Key: key}, nil
	default:
		return latincache.Entry{}, fmt.Errorf("unknown entry kind %q (want track or album)", kind)
	}
}

// saveEdit persists an edit right away; edits are not batched.
func saveEdit(cmd *cobra.Command, store *latincache.Store, changed bool, message string) error {
	out := cmd.OutOrStdout()
	if !changed {
		fmt.Fprintln(out, "No changes")
		return nil
	}
	if err := store.SaveIfDirty(); err != nil {
		return err
	}
	fmt.Fprintln(out, message)
	return nil
}

func newCacheSetCommand(ctx *commandContext) *cobra.Command {
	var title, album string
	cmd := &cobra.Command{
		Use:   "set <track|album> <key>",
		Short: "Set a cache entry; values are sanitized before storing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := parseEntryRef(args[0], args[1])
			if err != nil {
				return err
			}
			setTitle, setAlbum := cmd.Flags().Changed("title"), cmd.Flags().Changed("album")
			switch {
			case !entry.IsTrack && setTitle:
				return errors.New("album entries have no title")
			case !setTitle && !setAlbum:
				return errors.New("provide --title and/or --album")
			}
			store, err := ctx.openStore(cmd)
			if err != nil {
				return err
			}
			if entry.IsTrack {
				existing, _ := store.Track(entry.Key)
				entry.Title, entry.Album = existing.Title, existing.Album
				if setTitle {
					entry.Title = title
				}
			}
			if setAlbum {
				entry.Album = album
			}
			changed := store.ApplyEdit(entry)
			return saveEdit(cmd, store, changed, fmt.Sprintf("Updated %s %s", entryKind(entry), entry.Key))
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Latin title (track entries)")
	cmd.Flags().StringVar(&album, "album", "", "Latin album")
	return cmd
}

func newCacheDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <track|album> <key>",
		Short: "Delete a cache entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := parseEntryRef(args[0], args[1])
			if err != nil {
				return err
			}
			store, err := ctx.openStore(cmd)
			if err != nil {
				return err
			}
			var changed bool
			if entry.IsTrack {
				changed = store.DeleteTrack(entry.Key)
			} else {
				changed = store.DeleteAlbum(entry.Key)
			}
			return saveEdit(cmd, store, changed, fmt.Sprintf("Deleted %s %s", entryKind(entry), entry.Key))
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cache entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to clear the cache without --yes")
			}
			store, err := ctx.openStore(cmd)
			if err != nil {
				return err
			}
			removed := store.ClearAll()
			return saveEdit(cmd, store, removed > 0, fmt.Sprintf("Removed %d entries", removed))
		},
	}
	cmd.Flags().BoolVar(&confirm, "yes", false, "Confirm removal of all entries")
	return cmd
}

type cacheStats struct {
	Path     string `json:"path"`
	Tracks   int    `json:"tracks"`
	Albums   int    `json:"albums"`
	Bytes    int64  `json:"bytes"`
	Modified string `json:"modified,omitempty"`
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache size and location",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore(cmd)
			if err != nil {
				return err
			}
			stats := cacheStats{Path: store.Path()}
			stats.Tracks, stats.Albums = store.Counts()
			info, statErr := os.Stat(stats.Path)
			switch {
			case statErr == nil:
				stats.Bytes = info.Size()
				stats.Modified = info.ModTime().UTC().Format("2006-01-02T15:04:05Z")
			case !errors.Is(statErr, fs.ErrNotExist):
				return fmt.Errorf("stat cache file: %w", statErr)
			}
			if jsonOutput {
				return writeJSON(cmd, stats)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Path:    %s\n", stats.Path)
			fmt.Fprintf(out, "Tracks:  %s\n", humanize.Comma(int64(stats.Tracks)))
			fmt.Fprintf(out, "Albums:  %s\n", humanize.Comma(int64(stats.Albums)))
			if statErr != nil {
				fmt.Fprintln(out, "Size:    (not saved yet)")
				return nil
			}
			fmt.Fprintf(out, "Size:    %s\n", humanize.IBytes(uint64(stats.Bytes)))
			fmt.Fprintf(out, "Saved:   %s\n", humanize.Time(info.ModTime()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print stats as JSON")
	return cmd
}

func newCacheExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.sqlite>",
		Short: "Write every cache entry to a SQLite database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			store, err := ctx.openStore(cmd)
			if err != nil {
				return err
			}
			summary, err := cacheexport.Export(cmd.Context(), store, target)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tracks and %d albums to %s\n", summary.Tracks, summary.Albums, target)
			return nil
		},
	}
}

func newCacheImportCommand(ctx *commandContext) *cobra.Command {
	var noBackup bool
	cmd := &cobra.Command{
		Use:   "import <file.sqlite>",
		Short: "Merge entries from a SQLite database into the cache",
		Long: "Merge entries from a database written by 'cache export'. Imported values are\n" +
			"sanitized like manual edits. The current cache file is copied to <path>.bak first.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			store, err := ctx.openStore(cmd)
			if err != nil {
				return err
			}
			opts := cacheexport.ImportOptions{}
			if !noBackup {
				opts.BackupPath = store.Path() + ".bak"
			}
			summary, err := cacheexport.Import(cmd.Context(), store, source, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tracks and %d albums (%d changed)\n", summary.Tracks, summary.Albums, summary.Changed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "Skip copying the current cache file before importing")
	return cmd
}
