package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	defaultBaseURL        = "https://api.deepseek.com/chat/completions"
	defaultModel          = "deepseek-chat"
	defaultSystemPrompt   = "You produce latinized ASCII-only names."
	defaultTimeoutSeconds = 60
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultLogMaxSizeMB   = 10
	defaultLogMaxBackups  = 3
	appName               = "latinize"
	cacheFileName         = "latin_cache.db"
)

// DefaultPrompt is the user prompt template sent for every track. The
// {title} and {album} tokens are replaced with the raw metadata values.
const DefaultPrompt = "Task: Convert song title and album name to Latin letters and digits (A-Z, 0-9 only).\n" +
	"Rules:\n" +
	"- Ignore all symbols and punctuation.\n" +
	"- For Chinese, output pinyin without tone marks.\n" +
	"- For Japanese, output romaji.\n" +
	"- If any Japanese characters appear (Hiragana, Katakana, or Kanji used with Japanese), treat the whole title/album as Japanese for romanization.\n" +
	"- For Chinese (Simplified/Traditional), treat the whole title/album as Chinese for pinyin.\n" +
	"- Treat each title/album as a single language by default; do not mix languages inside one title.\n" +
	"- Example: \"心の声\" should be \"kokoro no koe\" (Japanese), NOT \"xin no sheng\" (Chinese).\n" +
	"- For English/Latin script, keep the letters as-is.\n" +
	"- Output only letters A-Z and digits 0-9 (case-insensitive) and single spaces between words.\n" +
	"Output exactly two lines:\n" +
	"title_latin: <latinized title>\n" +
	"album_latin: <latinized album>\n" +
	"Title: {title}\n" +
	"Album: {album}\n"

var defaultExtensions = []string{".mp3", ".flac", ".m4a", ".mp4", ".ogg", ".oga", ".opus", ".dsf"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		LLM: LLM{
			BaseURL:        defaultBaseURL,
			Model:          defaultModel,
			SystemPrompt:   defaultSystemPrompt,
			Prompt:         DefaultPrompt,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Library: Library{
			Extensions: append([]string(nil), defaultExtensions...),
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
		},
	}
}

// DefaultCachePath returns the per-user cache file location.
func DefaultCachePath() string {
	return filepath.Join(xdg.DataHome, appName, cacheFileName)
}
