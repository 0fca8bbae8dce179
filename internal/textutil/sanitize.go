package textutil

import "strings"

// SanitizeLatin converts text to the canonical latinized form stored in the
// cache. ASCII letters are lowercased and digits are kept; runs of spaces,
// tabs, hyphens, underscores, and periods collapse to a single space; every
// other byte is dropped. The result never has leading or trailing spaces.
func SanitizeLatin(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	pendingSpace := false
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c >= 'A' && c <= 'Z':
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteByte(c + ('a' - 'A'))
		case (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9'):
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteByte(c)
		case isLatinSeparator(c):
			if b.Len() > 0 {
				pendingSpace = true
			}
		}
	}
	return b.String()
}

// IsSanitizedLatin reports whether value is already in canonical form.
func IsSanitizedLatin(value string) bool {
	return SanitizeLatin(value) == value
}

func isLatinSeparator(c byte) bool {
	switch c {
	case ' ', '\t', '-', '_', '.':
		return true
	default:
		return false
	}
}
