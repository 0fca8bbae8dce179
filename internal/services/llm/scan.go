package llm

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// The functions in this file read string values out of near-JSON text without
// validating its structure. Model output is often almost but not quite JSON,
// so they only look for "key": "value" shapes.

// assistantContent finds a "role":"assistant" marker (whitespace allowed
// around the colon) and returns the nearest following "content" string.
func assistantContent(raw string) (string, bool) {
	from := 0
	for {
		idx := strings.Index(raw[from:], `"role"`)
		if idx < 0 {
			return "", false
		}
		pos := skipSpace(raw, from+idx+len(`"role"`))
		from += idx + len(`"role"`)
		if pos >= len(raw) || raw[pos] != ':' {
			continue
		}
		pos = skipSpace(raw, pos+1)
		if !strings.HasPrefix(raw[pos:], `"assistant"`) {
			continue
		}
		return stringValue(raw, pos+len(`"assistant"`), "content")
	}
}

// stringValue returns the first string value of "key" at or after offset
// from. Occurrences whose value is not a string are skipped.
func stringValue(raw string, from int, key string) (string, bool) {
	pattern := `"` + key + `"`
	for from < len(raw) {
		idx := strings.Index(raw[from:], pattern)
		if idx < 0 {
			return "", false
		}
		pos := skipSpace(raw, from+idx+len(pattern))
		from += idx + 1
		if pos >= len(raw) || raw[pos] != ':' {
			continue
		}
		pos = skipSpace(raw, pos+1)
		if value, ok := readString(raw, pos); ok {
			return value, true
		}
	}
	return "", false
}

func skipSpace(s string, pos int) int {
	for pos < len(s) {
		switch s[pos] {
		case ' ', '\t', '\r', '\n':
			pos++
		default:
			return pos
		}
	}
	return pos
}

// readString decodes the quoted string starting at s[pos]. It supports the
// escapes \" \\ \/ \b \f \n \r \t and \uXXXX, combining surrogate pairs. An
// unknown escape yields the escaped byte itself. It fails on an unterminated
// string or a malformed \u escape.
func readString(s string, pos int) (string, bool) {
	if pos >= len(s) || s[pos] != '"' {
		return "", false
	}
	var b strings.Builder
	for i := pos + 1; i < len(s); {
		c := s[i]
		switch {
		case c == '"':
			return b.String(), true
		case c != '\\':
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(s) {
			return "", false
		}
		esc := s[i+1]
		i += 2
		switch esc {
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'u':
			r, ok := hex4(s, i)
			if !ok {
				return "", false
			}
			i += 4
			if utf16.IsSurrogate(r) {
				if strings.HasPrefix(s[i:], `\u`) {
					if low, ok := hex4(s, i+2); ok {
						if pair := utf16.DecodeRune(r, low); pair != utf8.RuneError {
							r = pair
							i += 6
						}
					}
				}
				if utf16.IsSurrogate(r) {
					r = utf8.RuneError
				}
			}
			b.WriteRune(r)
		default:
			b.WriteByte(esc)
		}
	}
	return "", false
}

func hex4(s string, pos int) (rune, bool) {
	if pos+4 > len(s) {
		return 0, false
	}
	var r rune
	for _, c := range []byte(s[pos : pos+4]) {
		r <<= 4
		switch {
		case c >= '0' && c <= '9':
			r |= rune(c - '0')
		case c >= 'a' && c <= 'f':
			r |= rune(c-'a') + 10
		case c >= 'A' && c <= 'F':
			r |= rune(c-'A') + 10
		default:
			return 0, false
		}
	}
	return r, true
}
