package importer

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// attachmentIDRegex matches the attribute shapes that carry an attachment id
// inside serialized block markup. The number must end at a word boundary so
// 12 never matches the prefix of 123.
var attachmentIDRegex = regexp.MustCompile(
	`"(?:id|imageId|mediaId|mediaID|attachmentId|attachmentID|featuredImageId)":(\d+)\b` +
		`|data-(?:id|image-id|media-id)="(\d+)"`)

// thumbnailMetaKey holds the featured image id of a record.
const thumbnailMetaKey = "_thumbnail_id"

// RewriteAttachmentIDs replaces source attachment ids with local ids in a
// single pass, so a replaced id is never rewritten again.
func RewriteAttachmentIDs(s string, ids IdentityMap) string {
	if s == "" || len(ids) == 0 {
		return s
	}
	matches := attachmentIDRegex.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[2], m[3]
		if start < 0 {
			start, end = m[4], m[5]
		}
		src, err := strconv.ParseInt(s[start:end], 10, 64)
		if err != nil {
			continue
		}
		local, ok := ids[src]
		if !ok {
			continue
		}
		sb.WriteString(s[last:start])
		sb.WriteString(strconv.FormatInt(local, 10))
		last = end
	}
	if last == 0 {
		return s
	}
	sb.WriteString(s[last:])
	return sb.String()
}

// RewriteURLs replaces every source URL prefix with target. Both sides are
// compared with a trailing slash so "https://a.test" does not match inside
// "https://a.testing".
func RewriteURLs(s string, sources []string, target string) string {
	if s == "" || target == "" {
		return s
	}
	to := withSlash(target)
	for _, from := range sources {
		if from == "" {
			continue
		}
		s = strings.ReplaceAll(s, withSlash(from), to)
	}
	return s
}

func withSlash(u string) string {
	return strings.TrimRight(u, "/") + "/"
}

// rewriter applies the per-run URL and attachment id rewrites.
type rewriter struct {
	target      string
	sources     []string
	attachments IdentityMap
}

func newRewriter(target, baseSite, baseBlog string, attachments IdentityMap) *rewriter {
	rw := &rewriter{target: target, attachments: attachments}
	for _, u := range []string{baseSite, baseBlog} {
		u = strings.TrimSpace(u)
		if u == "" || withSlash(u) == withSlash(target) {
			continue
		}
		dup := false
		for _, seen := range rw.sources {
			dup = dup || withSlash(seen) == withSlash(u)
		}
		if !dup {
			rw.sources = append(rw.sources, u)
		}
	}
	return rw
}

func (rw *rewriter) urls(s string) string {
	return RewriteURLs(s, rw.sources, rw.target)
}

func (rw *rewriter) content(s string) string {
	return RewriteAttachmentIDs(rw.urls(s), rw.attachments)
}

// meta rewrites a decoded metadata value. The featured image key is mapped
// directly; every string nested in the value gets the content rewrites.
func (rw *rewriter) meta(key string, v any) any {
	if key == thumbnailMetaKey {
		if local, ok := rw.mapID(v); ok {
			return local
		}
	}
	return rw.walk(v)
}

func (rw *rewriter) mapID(v any) (int64, bool) {
	var src int64
	switch val := v.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, false
		}
		src = n
	case int64:
		src = val
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return 0, false
		}
		src = n
	default:
		return 0, false
	}
	local, ok := rw.attachments[src]
	return local, ok
}

func (rw *rewriter) walk(v any) any {
	switch val := v.(type) {
	case string:
		return rw.content(val)
	case map[string]any:
		for k, inner := range val {
			val[k] = rw.walk(inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = rw.walk(inner)
		}
		return val
	}
	return v
}
