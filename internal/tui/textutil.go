package tui

import (
	"strings"
)

// truncateEnd shortens s to at most limit characters, appending an ellipsis
// if truncation occurs. Handles negative or tiny limits gracefully.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// truncateMiddle shortens s to at most limit characters by preserving the
// start and end of the string with a single ellipsis in the middle.
// Useful for errors that end in a URL or status code.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	n := len(r)
	if n <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	keep := limit - 1
	left := keep / 2
	right := keep - left
	if left <= 0 {
		return "…" + string(r[n-right:])
	}
	return string(r[:left]) + "…" + string(r[n-right:])
}

// excerpt flattens body to a single line for list descriptions.
func excerpt(body string, limit int) string {
	return truncateEnd(strings.Join(strings.Fields(body), " "), limit)
}

// readingTime estimates minutes to read text at wpm words per minute,
// rounded up. Any non-empty text takes at least a minute.
func readingTime(text string, wpm int) int {
	if wpm <= 0 {
		wpm = 200
	}
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return (words + wpm - 1) / wpm
}
