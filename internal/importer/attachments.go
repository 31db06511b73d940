package importer

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hpungsan/nesta/internal/content"
	"github.com/hpungsan/nesta/internal/db"
	"github.com/hpungsan/nesta/internal/export"
)

// Metadata keys written for attachments.
const (
	AttachedFileMetaKey       = "_wp_attached_file"
	AttachmentMetadataMetaKey = "_wp_attachment_metadata"
)

var uploadsPrefixRegex = regexp.MustCompile(`^/?wp-content/uploads/`)

// LocalMedia is where an attachment lives on this site.
type LocalMedia struct {
	// Relative is the path below the uploads root, slash separated
	Relative string
	File     string
	URL      string
}

// ResolveMedia maps a source attachment URL into the local uploads tree.
// The path after the local uploads URL path is used when present, else a
// leading wp-content/uploads/ is stripped. ok is false when nothing remains.
func (im *Importer) ResolveMedia(attachmentURL string) (LocalMedia, bool) {
	if attachmentURL == "" {
		return LocalMedia{}, false
	}
	u, err := url.Parse(attachmentURL)
	if err != nil || u.Path == "" {
		return LocalMedia{}, false
	}
	p := u.Path

	var rel string
	needle := im.uploadsNeedle()
	if i := strings.Index(p, needle); needle != "" && i >= 0 {
		rel = p[i+len(needle):]
	} else {
		rel = uploadsPrefixRegex.ReplaceAllString(strings.TrimLeft(p, "/"), "")
	}
	rel = strings.TrimLeft(path.Clean("/"+rel), "/")
	if rel == "" || rel == "." {
		return LocalMedia{}, false
	}

	return LocalMedia{
		Relative: rel,
		File:     filepath.Join(im.UploadsDir, filepath.FromSlash(rel)),
		URL:      im.uploadsBaseURL() + rel,
	}, true
}

// uploadsNeedle is "/<uploads url path>/", or "" when uploads sit at the root.
func (im *Importer) uploadsNeedle() string {
	p := im.UploadsURL
	if u, err := url.Parse(im.UploadsURL); err == nil {
		p = u.Path
	}
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return "/" + p + "/"
}

// uploadsBaseURL is the absolute uploads URL with a trailing slash.
func (im *Importer) uploadsBaseURL() string {
	base := im.UploadsURL
	if u, err := url.Parse(base); err != nil || !u.IsAbs() {
		base = strings.TrimRight(im.SiteURL, "/") + "/" + strings.TrimLeft(base, "/")
	}
	return withSlash(base)
}

func (im *Importer) importAttachment(rec export.Record) (int64, bool, error) {
	status := rec.Status
	if status == "" {
		status = content.StatusInherit
	}
	local := &content.Record{
		Kind:     content.KindAttachment,
		Status:   status,
		Slug:     slugFor(rec),
		Title:    rec.Title,
		Content:  rec.Content,
		Excerpt:  rec.Excerpt,
		PostDate: rec.PostDate,
		MimeType: rec.MimeType,
		GUID:     rec.AttachmentURL,
	}

	media, resolved := im.ResolveMedia(rec.AttachmentURL)
	if resolved {
		local.GUID = media.URL
		if fileExists(media.File) {
			local.FilePath = media.Relative
			if local.MimeType == "" {
				local.MimeType = mime.TypeByExtension(strings.ToLower(path.Ext(media.Relative)))
			}
		}
	}

	created, err := upsert(im.DB, local)
	if err != nil {
		return 0, false, err
	}

	for _, e := range rec.Meta {
		if err := db.SetMeta(im.DB, local.ID, e.Key, export.DecodeMetaValue(e.Value)); err != nil {
			return 0, false, err
		}
	}

	if local.FilePath != "" {
		meta := describeMedia(media.File, media.Relative)
		if err := db.SetMeta(im.DB, local.ID, AttachedFileMetaKey, media.Relative); err != nil {
			return 0, false, err
		}
		if err := db.SetMeta(im.DB, local.ID, AttachmentMetadataMetaKey, meta); err != nil {
			return 0, false, err
		}
	}
	return local.ID, created, nil
}

// describeMedia derives file metadata; dimensions only for decodable images.
func describeMedia(file, rel string) map[string]any {
	meta := map[string]any{"file": rel}
	if info, err := os.Stat(file); err == nil {
		meta["filesize"] = info.Size()
	}
	f, err := os.Open(file)
	if err != nil {
		return meta
	}
	defer f.Close()
	if cfg, format, err := image.DecodeConfig(f); err == nil {
		meta["width"] = cfg.Width
		meta["height"] = cfg.Height
		meta["format"] = format
	}
	return meta
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
