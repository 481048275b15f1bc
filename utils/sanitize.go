package utils

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = bluemonday.UGCPolicy()
)

// SanitizeText strips all markup from short plain-text fields such as titles
// and tags. The result is stored and served as JSON, so entities are decoded
// back to plain characters; decoding repeats until no markup resurfaces.
func SanitizeText(input string) string {
	out := input
	for i := 0; i < 4; i++ {
		next := html.UnescapeString(strictPolicy.Sanitize(out))
		if next == out {
			break
		}
		out = next
	}
	return out
}

// Sanitize cleans HTML content to prevent XSS attacks while keeping user formatting.
func Sanitize(input string) string {
	return ugcPolicy.Sanitize(input)
}
