// ABOUTME: Text utilities for feed and page content
// ABOUTME: Whitespace normalization, CDATA stripping and rune-safe truncation

package html

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// StripCDATA removes a leading <![CDATA[ and trailing ]]> marker and trims the result
func StripCDATA(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "<![CDATA[")
	text = strings.TrimSuffix(text, "]]>")
	return strings.TrimSpace(text)
}

// CollapseWhitespace replaces every whitespace run with a single space and trims
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// RemoveWhitespace drops all whitespace from text
func RemoveWhitespace(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
}

// VisibleLength is the rune count of text once whitespace is removed
func VisibleLength(text string) int {
	return utf8.RuneCountInString(RemoveWhitespace(text))
}

// Truncate shortens text to at most max runes, ending with "..." when cut
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	const ellipsis = "..."
	runes := []rune(text)
	if max <= len(ellipsis) {
		return string(runes[:max])
	}
	return string(runes[:max-len(ellipsis)]) + ellipsis
}
