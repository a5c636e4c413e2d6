package util

import "strings"

// SanitizeValue strips NUL and other control characters (which Postgres text
// columns reject) from a single-line value such as a token or identifier.
func SanitizeValue(s string) string {
	if s == "" {
		return s
	}
	r := make([]rune, 0, len(s))
	for _, ch := range s {
		if ch < 0x20 || ch == 0x7f {
			continue
		}
		r = append(r, ch)
	}
	return strings.TrimSpace(string(r))
}
