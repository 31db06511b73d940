package tokens

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// Class selects the sanitizer applied to a value.
type Class string

const (
	ClassText  Class = "text"
	ClassEmail Class = "email"
	ClassURL   Class = "url"
)

var (
	bracesRegex   = regexp.MustCompile(`^\{\{|\}\}$`)
	emailLocalBad = regexp.MustCompile(`[^a-zA-Z0-9!#$%&'*+/=?^_{|}~.-]`)
	domainLabel   = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)
)

// NormalizeKey trims, strips one pair of surrounding braces, lowercases and
// keeps only [a-z0-9_-].
func NormalizeKey(key string) string {
	key = strings.TrimSpace(key)
	key = bracesRegex.ReplaceAllString(key, "")
	key = strings.ToLower(key)

	var b strings.Builder
	for _, r := range key {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ClassOf returns the sanitation class implied by a key's name.
func ClassOf(key string) Class {
	switch {
	case key == "email" || (len(key) > 6 && strings.HasSuffix(key, "_email")):
		return ClassEmail
	case len(key) > 4 && strings.HasSuffix(key, "_url"):
		return ClassURL
	}
	return ClassText
}

// Sanitize cleans value according to the class of key.
func Sanitize(key, value string) string {
	switch ClassOf(key) {
	case ClassEmail:
		return SanitizeEmail(value)
	case ClassURL:
		return SanitizeURL(value)
	}
	return SanitizeText(value)
}

// SanitizeAll normalizes keys, drops empty keys and sanitizes values.
func SanitizeAll(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		key := NormalizeKey(k)
		if key == "" {
			continue
		}
		out[key] = Sanitize(key, v)
	}
	return out
}

// SanitizeText strips markup, drops control characters other than newline and
// tab, and trims every line. Line breaks are preserved.
func SanitizeText(value string) string {
	text := stripTags(value)

	var b strings.Builder
	for _, r := range text {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// stripTags returns only the text tokens of value. Script and style bodies are dropped.
func stripTags(value string) string {
	if !strings.ContainsAny(value, "<&") {
		return value
	}
	z := html.NewTokenizer(strings.NewReader(value))
	var (
		b    strings.Builder
		skip int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawTextTag(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawTextTag(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawTextTag(name []byte) bool {
	s := string(name)
	return s == "script" || s == "style"
}

// SanitizeEmail removes characters not allowed in an address and returns ""
// unless the result has the shape local@domain.tld.
func SanitizeEmail(value string) string {
	value = strings.TrimSpace(value)
	at := strings.LastIndex(value, "@")
	if at < 1 || at == len(value)-1 {
		return ""
	}
	local := emailLocalBad.ReplaceAllString(value[:at], "")
	domain := strings.ToLower(value[at+1:])
	if local == "" {
		return ""
	}

	labels := strings.Split(strings.Trim(domain, "."), ".")
	if len(labels) < 2 {
		return ""
	}
	for _, l := range labels {
		if !domainLabel.MatchString(l) {
			return ""
		}
	}

	addr := local + "@" + strings.Join(labels, ".")
	if _, err := mail.ParseAddress(addr); err != nil {
		return ""
	}
	return addr
}

var allowedSchemes = []string{"http://", "https://", "mailto:", "tel:"}

// SanitizeURL removes whitespace and control characters, and returns "" for
// schemes other than http, https, mailto and tel. Scheme-less values are
// treated as http.
func SanitizeURL(value string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(value) {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	u := b.String()
	if u == "" {
		return ""
	}

	lower := strings.ToLower(u)
	for _, scheme := range allowedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return u
		}
	}
	// Relative and fragment links pass through
	if strings.HasPrefix(u, "/") || strings.HasPrefix(u, "#") || strings.HasPrefix(u, "?") {
		return u
	}
	if i := strings.Index(u, ":"); i >= 0 && !strings.ContainsAny(u[:i], "/.?#") {
		return ""
	}
	return "http://" + u
}
