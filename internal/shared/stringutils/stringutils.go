package stringutils

import "unicode/utf8"

// Prefix returns the longest prefix of s that is at most n bytes and does
// not split a UTF-8 sequence.
func Prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Truncate shortens s to at most n bytes on a rune boundary, appending
// suffix if anything was cut.
func Truncate(s string, n int, suffix string) string {
	p := Prefix(s, n)
	if len(p) == len(s) {
		return s
	}
	return p + suffix
}
