package utils

import "unicode/utf8"

// Truncate is a simple string truncate. The cut never lands inside a
// multi-byte code point, so truncated previews of streamed text stay
// valid UTF-8.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 0 {
		maxLen = 0
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
