package catalog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"github.com/yuin/goldmark"
)

// ManifestFile is the file name that marks a pack directory.
const ManifestFile = "manifest.json"

// Page is one exported page of a pack.
type Page struct {
	File  string `json:"file"`
	Slug  string `json:"slug,omitempty"`
	Title string `json:"title,omitempty"`

	// AbsoluteFile is File resolved against the pack directory, "" when File is empty
	AbsoluteFile string `json:"absolute_file,omitempty"`
}

// Settings holds a pack's declared style defaults.
type Settings struct {
	Colors     map[string]string `json:"colors,omitempty"`
	Typography map[string]string `json:"typography,omitempty"`

	// Customizer and AdditionalCSS are paths relative to the pack directory
	Customizer    string `json:"customizer,omitempty"`
	AdditionalCSS string `json:"additional_css,omitempty"`
}

// Bundle names the installable artifacts of a pack, relative to its directory.
type Bundle struct {
	Export  string `json:"export,omitempty"`
	Uploads string `json:"uploads,omitempty"`
}

// MenuSpec names a navigation menu.
type MenuSpec struct {
	Name string `json:"name,omitempty"`
	Slug string `json:"slug,omitempty"`
}

// Navigation describes the menus a pack builds on install.
type Navigation struct {
	Primary *MenuSpec `json:"primary,omitempty"`
}

// Pack is a parsed template pack manifest decorated with its location.
type Pack struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
	Screenshot  string `json:"screenshot,omitempty"`

	// Customizer is the legacy top-level location of Settings.Customizer
	Customizer string `json:"customizer,omitempty"`

	Settings   Settings        `json:"settings"`
	Pages      map[string]Page `json:"pages"`
	PageOrder  []string        `json:"-"`
	Bundle     *Bundle         `json:"bundle,omitempty"`
	Navigation *Navigation     `json:"navigation,omitempty"`

	Dir             string `json:"dir"`
	URL             string `json:"url"`
	ScreenshotURL   string `json:"screenshot_url,omitempty"`
	DescriptionHTML string `json:"description_html,omitempty"`
}

// Path resolves rel against the pack directory. Returns "" for empty rel and
// for paths that leave the pack directory.
func (p *Pack) Path(rel string) string {
	rel = strings.TrimLeft(strings.TrimSpace(rel), "/")
	if rel == "" || p.Dir == "" {
		return ""
	}
	dir := filepath.Clean(p.Dir)
	path := filepath.Join(dir, filepath.FromSlash(rel))
	inside, err := filepath.Rel(dir, path)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return ""
	}
	return path
}

// CustomizerPath returns the customizer payload location, "" when none is declared.
func (p *Pack) CustomizerPath() string {
	if p.Settings.Customizer != "" {
		return p.Path(p.Settings.Customizer)
	}
	return p.Path(p.Customizer)
}

// OrderedPages returns the pages in manifest order.
func (p *Pack) OrderedPages() []Page {
	out := make([]Page, 0, len(p.PageOrder))
	for _, key := range p.PageOrder {
		out = append(out, p.Pages[key])
	}
	return out
}

// ReadJSON reads a JSON-with-comments file into dst.
func ReadJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonc.ToJSON(data), dst)
}

// ParseManifest reads a manifest and decorates it with the pack directory and
// URL derived from the source root.
func ParseManifest(path string, src Source) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = jsonc.ToJSON(data)

	var pack Pack
	if err := json.Unmarshal(data, &pack); err != nil {
		return nil, err
	}
	pack.PageOrder = pageOrder(data)

	dir := filepath.Dir(path)
	rel, err := filepath.Rel(src.Dir, dir)
	if err != nil {
		rel = filepath.Base(dir)
	}
	pack.Dir = dir
	pack.URL = joinURL(src.URL, filepath.ToSlash(rel)) + "/"

	if pack.Screenshot != "" {
		pack.ScreenshotURL = pack.URL + strings.TrimLeft(pack.Screenshot, "/")
	}
	if pack.Pages == nil {
		pack.Pages = map[string]Page{}
	}
	for key, page := range pack.Pages {
		page.AbsoluteFile = pack.Path(page.File)
		pack.Pages[key] = page
	}
	if pack.Description != "" {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(pack.Description), &buf); err == nil {
			pack.DescriptionHTML = buf.String()
		}
	}
	return &pack, nil
}

// pageOrder returns the keys of the "pages" object in document order.
func pageOrder(data []byte) []string {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil
	}
	raw, ok := top["pages"]
	if !ok {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return keys
		}
		key, ok := tok.(string)
		if !ok {
			return keys
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return keys
		}
		keys = append(keys, key)
	}
	return keys
}

func joinURL(base, rel string) string {
	base = strings.TrimRight(base, "/")
	rel = strings.Trim(rel, "/")
	switch {
	case rel == "" || rel == ".":
		return base
	case base == "":
		return rel
	}
	return base + "/" + rel
}
