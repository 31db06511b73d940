// Package export reads WordPress eXtended RSS (WXR) export files.
package export

import (
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hpungsan/nesta/internal/content"
	"github.com/hpungsan/nesta/internal/errors"
)

const contentNamespacePrefix = "content"
const wpNamespacePrefix = "wp"

// MetaEntry is one raw key/value pair; Value is still serialized.
type MetaEntry struct {
	Key   string
	Value string
}

// Record is one installable item of an export, in document order.
type Record struct {
	// SourceID is the id in the exporting site; 0 when absent or invalid
	SourceID int64

	Kind      content.Kind
	Status    string
	Slug      string
	Title     string
	Content   string
	Excerpt   string
	PostDate  string
	MenuOrder int
	ParentID  int64

	// Attachment-only fields
	AttachmentURL string
	MimeType      string
	GUID          string

	Meta []MetaEntry
}

// Document is a parsed export.
type Document struct {
	BaseSiteURL string
	BaseBlogURL string
	Records     []Record

	// Dropped counts items outside the allow-list or in the trash
	Dropped int
}

// Attachments returns the attachment records in document order.
func (d *Document) Attachments() []Record {
	var out []Record
	for _, r := range d.Records {
		if r.Kind == content.KindAttachment {
			out = append(out, r)
		}
	}
	return out
}

// ParseFile opens and parses an export file.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("export file", path)
		}
		return nil, errors.NewFilesystem("open", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// node is a namespace-aware generic element.
type node struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
	Nodes   []node `xml:",any"`
}

// Parse reads an export. A document missing the wp or content namespace
// declarations is rejected.
func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	var (
		doc       Document
		wpNS      string
		contentNS string
		seenRoot  bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewParse("unable to parse the export file", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if !seenRoot {
			seenRoot = true
			for _, a := range start.Attr {
				if a.Name.Space != "xmlns" {
					continue
				}
				switch a.Name.Local {
				case wpNamespacePrefix:
					wpNS = a.Value
				case contentNamespacePrefix:
					contentNS = a.Value
				}
			}
			if wpNS == "" || contentNS == "" {
				return nil, errors.NewParse("the export file is missing required namespaces", nil)
			}
			continue
		}

		switch {
		case start.Name.Space == wpNS && start.Name.Local == "base_site_url":
			if err := dec.DecodeElement(&doc.BaseSiteURL, &start); err != nil {
				return nil, errors.NewParse("invalid base_site_url", err)
			}
			doc.BaseSiteURL = strings.TrimSpace(doc.BaseSiteURL)
		case start.Name.Space == wpNS && start.Name.Local == "base_blog_url":
			if err := dec.DecodeElement(&doc.BaseBlogURL, &start); err != nil {
				return nil, errors.NewParse("invalid base_blog_url", err)
			}
			doc.BaseBlogURL = strings.TrimSpace(doc.BaseBlogURL)
		case start.Name.Space == "" && start.Name.Local == "item":
			var n node
			if err := dec.DecodeElement(&n, &start); err != nil {
				return nil, errors.NewParse("invalid item", err)
			}
			rec, ok := toRecord(n, wpNS, contentNS)
			if !ok {
				doc.Dropped++
				continue
			}
			doc.Records = append(doc.Records, rec)
		}
	}

	if !seenRoot {
		return nil, errors.NewParse("the export file is empty", nil)
	}
	return &doc, nil
}

// toRecord maps an item element; false when the item is not installable.
func toRecord(n node, wpNS, contentNS string) (Record, bool) {
	var rec Record
	var kind, postID, menuOrder, parent string

	for _, c := range n.Nodes {
		switch {
		case c.XMLName.Space == "" && c.XMLName.Local == "title":
			rec.Title = c.Text
		case c.XMLName.Space == "" && c.XMLName.Local == "guid":
			rec.GUID = strings.TrimSpace(c.Text)
		case c.XMLName.Space == contentNS && c.XMLName.Local == "encoded":
			rec.Content = c.Text
		case c.XMLName.Local == "encoded":
			rec.Excerpt = c.Text
		case c.XMLName.Space != wpNS:
		case c.XMLName.Local == "post_type":
			kind = strings.TrimSpace(c.Text)
		case c.XMLName.Local == "status":
			rec.Status = strings.TrimSpace(c.Text)
		case c.XMLName.Local == "post_name":
			rec.Slug = strings.TrimSpace(c.Text)
		case c.XMLName.Local == "post_id":
			postID = strings.TrimSpace(c.Text)
		case c.XMLName.Local == "post_date":
			rec.PostDate = strings.TrimSpace(c.Text)
		case c.XMLName.Local == "menu_order":
			menuOrder = strings.TrimSpace(c.Text)
		case c.XMLName.Local == "post_parent":
			parent = strings.TrimSpace(c.Text)
		case c.XMLName.Local == "attachment_url":
			rec.AttachmentURL = strings.TrimSpace(c.Text)
		case c.XMLName.Local == "post_mime_type":
			rec.MimeType = strings.TrimSpace(c.Text)
		case c.XMLName.Local == "postmeta":
			if entry, ok := toMeta(c, wpNS); ok {
				rec.Meta = append(rec.Meta, entry)
			}
		}
	}

	k, ok := content.ParseKind(kind)
	if !ok || rec.Status == content.StatusTrash {
		return Record{}, false
	}
	rec.Kind = k

	if id, err := strconv.ParseInt(postID, 10, 64); err == nil && id > 0 {
		rec.SourceID = id
	}
	rec.MenuOrder, _ = strconv.Atoi(menuOrder)
	if p, err := strconv.ParseInt(parent, 10, 64); err == nil && p > 0 {
		rec.ParentID = p
	}
	return rec, true
}

func toMeta(n node, wpNS string) (MetaEntry, bool) {
	var e MetaEntry
	for _, c := range n.Nodes {
		if c.XMLName.Space != wpNS {
			continue
		}
		switch c.XMLName.Local {
		case "meta_key":
			e.Key = strings.TrimSpace(c.Text)
		case "meta_value":
			e.Value = c.Text
		}
	}
	return e, e.Key != ""
}
