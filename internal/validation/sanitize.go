package validation

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

const maxSanitizePasses = 4

// SanitizeText strips all markup from user-supplied text and trims it.
// Entity-encoded markup is decoded and stripped again until the text is
// stable, so the stored plain text never turns back into live HTML.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	for i := 0; i < maxSanitizePasses; i++ {
		plain := html.UnescapeString(strictPolicy.Sanitize(s))
		if plain == s {
			return strings.TrimSpace(plain)
		}
		s = plain
	}
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}
