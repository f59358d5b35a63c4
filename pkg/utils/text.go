// Package utils provides shared utilities for text, math, and logging.
package utils

import "unicode/utf8"

// Ellipsis is appended to every preview.
const Ellipsis = "..."

// Preview returns the first n characters (runes) of s followed by Ellipsis.
// The ellipsis is appended even when s is shorter than n.
func Preview(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if utf8.RuneCountInString(s) <= n {
		return s + Ellipsis
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + Ellipsis
		}
		count++
	}
	return s + Ellipsis
}

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + Ellipsis
}
