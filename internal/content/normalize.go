package content

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	tagRegex        = regexp.MustCompile(`<[^>]*>`)
	entityRegex     = regexp.MustCompile(`&[a-zA-Z0-9#]+;`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// Slugify derives a URL slug from a title:
// 1. Strip markup and entities
// 2. Lowercase
// 3. Collapse every run of non letter/digit characters to a single hyphen
func Slugify(title string) string {
	s := tagRegex.ReplaceAllString(title, "")
	s = entityRegex.ReplaceAllString(s, "")
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	pendingHyphen := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// NormalizeTitle trims and collapses whitespace, for title lookups.
func NormalizeTitle(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}
