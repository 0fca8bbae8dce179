package llm

import (
	"encoding/json"
	"strings"

	"latinize/internal/services"
	"latinize/internal/textutil"
)

// Result is a parsed latinization. Both fields are sanitized; at least one is
// non-empty.
type Result struct {
	Title string
	Album string
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Parse extracts the latinized title and album from a raw response body.
//
// The answer text is located by, in order: a structured decode of a chat
// completion envelope; the first "content" string after a "role":"assistant"
// marker; any "content" string; and, when the body has no "choices" marker,
// the body itself. The answer text is then scanned for title_latin and
// album_latin lines.
func Parse(raw string) (Result, error) {
	text, ok := answerText(raw)
	if !ok {
		return Result{}, services.Wrap(services.ErrParse, component, "parse", "chat completion envelope without message content", nil)
	}
	title, album := latinLines(text)
	result := Result{
		Title: textutil.SanitizeLatin(title),
		Album: textutil.SanitizeLatin(album),
	}
	if result.Title == "" && result.Album == "" {
		return Result{}, services.Wrap(services.ErrParse, component, "parse", "no title_latin or album_latin value found", nil)
	}
	return result, nil
}

func answerText(raw string) (string, bool) {
	if text, ok := structuredContent(raw); ok {
		return text, true
	}
	if text, ok := assistantContent(raw); ok {
		return text, true
	}
	if text, ok := stringValue(raw, 0, "content"); ok {
		return text, true
	}
	if strings.Contains(raw, `"choices"`) {
		return "", false
	}
	return raw, true
}

func structuredContent(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return "", false
	}
	var resp chatResponse
	if err := json.Unmarshal([]byte(trimmed), &resp); err != nil {
		return "", false
	}
	for _, choice := range resp.Choices {
		role := strings.ToLower(strings.TrimSpace(choice.Message.Role))
		if role != "" && role != "assistant" {
			continue
		}
		var content string
		if err := json.Unmarshal(choice.Message.Content, &content); err != nil {
			continue
		}
		if strings.TrimSpace(content) != "" {
			return content, true
		}
	}
	return "", false
}

// latinLines scans text for title_latin and album_latin lines. Later lines
// replace earlier ones.
func latinLines(text string) (title, album string) {
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' }) {
		if rest, ok := matchKey(line, "titlelatin"); ok {
			title = valueAfterKey(rest)
		} else if rest, ok := matchKey(line, "albumlatin"); ok {
			album = valueAfterKey(rest)
		}
	}
	return title, album
}

// matchKey reports whether line starts with key, compared case-insensitively
// with spaces, tabs, underscores, and hyphens ignored. It returns the text
// following the key.
func matchKey(line, key string) (string, bool) {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	j := 0
	for j < len(key) && i < len(line) {
		c := line[i]
		if c == ' ' || c == '\t' || c == '_' || c == '-' {
			i++
			continue
		}
		if lowerASCII(c) != key[j] {
			return "", false
		}
		i++
		j++
	}
	if j < len(key) {
		return "", false
	}
	return line[i:], true
}

func valueAfterKey(rest string) string {
	rest = strings.TrimLeft(rest, " \t:-")
	return strings.TrimSpace(rest)
}

func lowerASCII(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
