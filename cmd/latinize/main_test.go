package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"latinize/internal/config"
	"latinize/internal/keys"
	"latinize/internal/latincache"
	"latinize/internal/services"
	"latinize/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	cachePath  string
	musicDir   string
	requests   *atomic.Int32
	status     *atomic.Int32
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("LATINIZE_CACHE_PATH", "")

	env := &cliTestEnv{requests: new(atomic.Int32), status: new(atomic.Int32)}
	env.status.Store(http.StatusOK)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.requests.Add(1)
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			http.Error(w, "bad key "+got, http.StatusUnauthorized)
			return
		}
		status := int(env.status.Load())
		if status != http.StatusOK {
			http.Error(w, "upstream unavailable", status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"title_latin: Kokoro no Koe\nalbum_latin: Yume"}}]}`))
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithBaseURL(server.URL), testsupport.WithAPIKey("sk-test"))
	env.cfg = cfg
	env.cachePath = cfg.Cache.Path
	env.configPath = filepath.Join(base, "config.toml")
	content := fmt.Sprintf("[llm]\nbase_url = %q\napi_key = %q\ntimeout_seconds = 5\n\n[cache]\npath = %q\nfallback_path = %q\n\n[logging]\nlevel = \"error\"\n",
		cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.Cache.Path, cfg.Cache.FallbackPath)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	env.musicDir = filepath.Join(testsupport.BaseDir(cfg), "music")
	testsupport.WriteUntaggedAudio(t, env.musicDir, "心の声.mp3", "disc2/夢.flac", "cover.jpg")
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd, cc := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := execute(context.Background(), cmd, cc)
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestCLIRunSkipsCachedTracks(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"run", env.musicDir}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Latinized 2 of 2 items")
	if got := env.requests.Load(); got != 2 {
		t.Fatalf("expected 2 requests, got %d", got)
	}
	if _, err := os.Stat(env.cachePath); err != nil {
		t.Fatalf("expected cache file after run: %v", err)
	}

	out, _, err = runCLI(t, []string{"run", env.musicDir}, env.configPath)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	requireContains(t, out, "Latinized 0 of 2 items")
	if got := env.requests.Load(); got != 2 {
		t.Fatalf("expected cached tracks to be skipped, got %d requests", got)
	}
}

func TestCLIRunCountsFailures(t *testing.T) {
	env := setupCLITestEnv(t)
	env.status.Store(http.StatusServiceUnavailable)

	out, _, err := runCLI(t, []string{"run", "--json", env.musicDir}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var summary batchSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary %q: %v", out, err)
	}
	if summary.Failed != 2 || summary.Changed != 0 || summary.Cancelled {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestCLIFieldsAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"run", env.musicDir}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}

	out, _, err := runCLI(t, []string{"fields", "--json", env.musicDir}, env.configPath)
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	var rows []fieldsRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	if len(rows) != 2 || rows[0].LatinTitle != "kokoro no koe" || rows[0].LatinAlbum != "yume" {
		t.Fatalf("unexpected fields %+v", rows)
	}

	out, _, err = runCLI(t, []string{"clear", "--title", env.musicDir}, env.configPath)
	if err != nil {
		t.Fatalf("clear --title: %v", err)
	}
	requireContains(t, out, "Cleared 2 of 2 items")

	out, _, err = runCLI(t, []string{"fields", "--json", env.musicDir}, env.configPath)
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	rows = nil
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	if rows[0].LatinTitle != "" || rows[0].LatinAlbum != "yume" {
		t.Fatalf("expected only titles cleared, got %+v", rows[0])
	}

	if _, _, err := runCLI(t, []string{"clear", "--title", "--album", env.musicDir}, env.configPath); err == nil {
		t.Fatal("expected --title and --album to be mutually exclusive")
	}

	out, _, err = runCLI(t, []string{"clear", env.musicDir}, env.configPath)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	requireContains(t, out, "Cleared 2 of 2 items")
}

func TestCLICacheEditing(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"cache", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "Cache is empty")

	out, _, err = runCLI(t, []string{"cache", "set", "album", "00000000000000ab", "--album", "Tōkyō Nights!"}, env.configPath)
	if err != nil {
		t.Fatalf("cache set: %v", err)
	}
	requireContains(t, out, "Updated album 00000000000000ab")

	out, _, err = runCLI(t, []string{"cache", "set", "track", "ff", "--title", "Yoru"}, env.configPath)
	if err != nil {
		t.Fatalf("cache set track: %v", err)
	}
	requireContains(t, out, "Updated track 00000000000000ff")

	out, _, err = runCLI(t, []string{"cache", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	var entries []cacheEntryView
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	if len(entries) != 2 || entries[0].Kind != "track" || entries[0].Title != "yoru" || entries[1].Album != "tky nights" {
		t.Fatalf("unexpected entries %+v", entries)
	}

	out, _, err = runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	requireContains(t, out, "Tracks:  1")
	requireContains(t, out, env.cachePath)

	out, _, err = runCLI(t, []string{"cache", "delete", "album", "ab"}, env.configPath)
	if err != nil {
		t.Fatalf("cache delete: %v", err)
	}
	requireContains(t, out, "Deleted album")
	out, _, err = runCLI(t, []string{"cache", "delete", "album", "ab"}, env.configPath)
	if err != nil {
		t.Fatalf("cache delete again: %v", err)
	}
	requireContains(t, out, "No changes")

	if _, _, err := runCLI(t, []string{"cache", "set", "bogus", "ab", "--album", "x"}, env.configPath); err == nil {
		t.Fatal("expected unknown kind to fail")
	}
	if _, _, err := runCLI(t, []string{"cache", "clear"}, env.configPath); err == nil {
		t.Fatal("expected clear without --yes to fail")
	}
	out, _, err = runCLI(t, []string{"cache", "clear", "--yes"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Removed 1 entries")
}

func TestCLICacheExportImport(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"run", env.musicDir}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}
	dbPath := filepath.Join(t.TempDir(), "export.sqlite")

	out, _, err := runCLI(t, []string{"cache", "export", dbPath}, env.configPath)
	if err != nil {
		t.Fatalf("cache export: %v", err)
	}
	requireContains(t, out, "Exported 2 tracks and 1 albums")

	if _, _, err := runCLI(t, []string{"cache", "clear", "--yes"}, env.configPath); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	out, _, err = runCLI(t, []string{"cache", "import", dbPath}, env.configPath)
	if err != nil {
		t.Fatalf("cache import: %v", err)
	}
	requireContains(t, out, "Imported 2 tracks and 1 albums (3 changed)")
	if _, err := os.Stat(env.cachePath + ".bak"); err != nil {
		t.Fatalf("expected backup of previous cache: %v", err)
	}
}

func TestCLITestCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test", "--title", "心の声", "--album", "夢"}, env.configPath)
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	requireContains(t, out, "title_latin: kokoro no koe")
	requireContains(t, out, "album_latin: yume")

	env.status.Store(http.StatusInternalServerError)
	out, _, err = runCLI(t, []string{"test", "--title", "心の声"}, env.configPath)
	if err == nil {
		t.Fatal("expected failing endpoint to return an error")
	}
	requireContains(t, out, "Request URL:")
	requireContains(t, out, "Resolved Prompt:")
	requireContains(t, out, "Title: 心の声")
	requireContains(t, out, "upstream unavailable")

	if _, _, err := runCLI(t, []string{"test"}, env.configPath); err == nil {
		t.Fatal("expected missing title and album to fail")
	}

	data, err := os.ReadFile(env.configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	blank := strings.Replace(string(data), fmt.Sprintf("base_url = %q", env.cfg.LLM.BaseURL), `base_url = ""`, 1)
	blankPath := filepath.Join(t.TempDir(), "blank_url.toml")
	if err := os.WriteFile(blankPath, []byte(blank), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	before := env.requests.Load()
	out, _, err = runCLI(t, []string{"test", "--title", "心の声"}, blankPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for empty base_url, got %v", err)
	}
	requireContains(t, out, "Check [llm] base_url")
	if got := env.requests.Load(); got != before {
		t.Fatalf("expected no request with empty base_url, got %d new", got-before)
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, blankPath)
	if err != nil {
		t.Fatalf("config validate with empty base_url: %v", err)
	}
	requireContains(t, out, "[WARN] empty")
}

func TestCLIFieldsFromSeededCache(t *testing.T) {
	env := setupCLITestEnv(t)
	track := keys.Track{Title: "心の声", Location: filepath.Join(env.musicDir, "心の声.mp3")}
	store := testsupport.MustOpenStore(t, env.cfg)
	testsupport.SeedTrack(t, store, track, latincache.Record{Title: "kokoro no koe", Album: "yume"})
	if err := store.SaveIfDirty(); err != nil {
		t.Fatalf("save seeded store: %v", err)
	}

	out, _, err := runCLI(t, []string{"fields", filepath.Join(env.musicDir, "心の声.mp3")}, env.configPath)
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	requireContains(t, out, "kokoro no koe")
	requireContains(t, out, "yume")
	if got := env.requests.Load(); got != 0 {
		t.Fatalf("fields must not issue requests, got %d", got)
	}
}
