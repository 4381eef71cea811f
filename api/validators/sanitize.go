package validators

import (
	"strings"
	"unicode"
)

// SanitizeText trims s, drops control characters, folds whitespace runs into one
// space, and cuts the result to maxRunes runes. maxRunes <= 0 means no cap.
func SanitizeText(s string, maxRunes int) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	n := 0
	for _, r := range strings.TrimSpace(s) {
		if maxRunes > 0 && n >= maxRunes {
			break
		}
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r):
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
			n++
			if maxRunes > 0 && n >= maxRunes {
				break
			}
		}
		space = false
		b.WriteRune(r)
		n++
	}
	return strings.TrimSpace(b.String())
}
