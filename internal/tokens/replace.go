package tokens

import (
	"regexp"
	"strings"
)

// placeholderRegex matches {{ key }} with optional inner whitespace.
var placeholderRegex = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_-]+)\s*\}\}`)

// Replace substitutes every {{ key }} whose normalized key is present in
// values. Matching is case-insensitive and single pass, so values that
// themselves contain placeholders are not expanded. Unknown placeholders are
// left intact.
func Replace(content string, values map[string]string) string {
	if content == "" || len(values) == 0 || !strings.Contains(content, "{{") {
		return content
	}
	normalized := normalizeValues(values)
	if len(normalized) == 0 {
		return content
	}
	return placeholderRegex.ReplaceAllStringFunc(content, func(m string) string {
		key := strings.ToLower(placeholderRegex.FindStringSubmatch(m)[1])
		if v, ok := normalized[key]; ok {
			return v
		}
		return m
	})
}

// ReplaceExact substitutes the literal "{{key}}" for each key in keys, using ""
// for keys missing from values.
func ReplaceExact(content string, keys []string, values map[string]string) string {
	if content == "" || len(keys) == 0 {
		return content
	}
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{{"+k+"}}", values[k])
	}
	return strings.NewReplacer(pairs...).Replace(content)
}

// ReplaceInValue walks strings, maps and slices, substituting tokens in every
// string. It returns the new value and whether anything changed.
func ReplaceInValue(v any, values map[string]string) (any, bool) {
	switch val := v.(type) {
	case string:
		out := Replace(val, values)
		return out, out != val
	case map[string]any:
		changed := false
		for k, inner := range val {
			if nv, ok := ReplaceInValue(inner, values); ok {
				val[k] = nv
				changed = true
			}
		}
		return val, changed
	case []any:
		changed := false
		for i, inner := range val {
			if nv, ok := ReplaceInValue(inner, values); ok {
				val[i] = nv
				changed = true
			}
		}
		return val, changed
	}
	return v, false
}

// WithIdentityDefaults fills business_name and email from the site identity
// when the caller left them empty. values is not modified.
func WithIdentityDefaults(values map[string]string, siteName, adminEmail string) map[string]string {
	out := make(map[string]string, len(values)+2)
	for k, v := range values {
		out[k] = v
	}
	if strings.TrimSpace(out["business_name"]) == "" && siteName != "" {
		out["business_name"] = SanitizeText(siteName)
	}
	if strings.TrimSpace(out["email"]) == "" && adminEmail != "" {
		out["email"] = SanitizeEmail(adminEmail)
	}
	return out
}

func normalizeValues(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if key := NormalizeKey(k); key != "" {
			out[key] = v
		}
	}
	return out
}
