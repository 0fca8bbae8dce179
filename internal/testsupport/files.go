package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteUntaggedAudio creates files under dir that carry an audio extension but
// no tags, so readers fall back to the file name. It returns the full paths.
func WriteUntaggedAudio(t testing.TB, dir string, names ...string) []string {
	t.Helper()

	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", path, err)
		}
		if err := os.WriteFile(path, []byte("untagged audio placeholder"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		paths = append(paths, path)
	}
	return paths
}
