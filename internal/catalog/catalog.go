// Package catalog discovers template packs in source directories and serves
// their page markup.
package catalog

import (
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hpungsan/nesta/internal/tokens"
)

// Source is a directory of pack directories and the public URL it is served at.
type Source struct {
	Dir string
	URL string
}

// Catalog caches the packs found across its sources. It is safe for
// concurrent use.
type Catalog struct {
	mu      sync.Mutex
	sources []Source
	packs   map[string]*Pack
	log     *slog.Logger
}

// New creates a catalog over the given sources, in registration order.
func New(log *slog.Logger, sources ...Source) *Catalog {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Catalog{log: log}
	for _, s := range sources {
		c.AddSource(s.Dir, s.URL)
	}
	return c
}

// AddSource registers another source and invalidates the cache. Empty
// directories or URLs are ignored.
func (c *Catalog) AddSource(dir, url string) {
	if dir == "" || url == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = append(c.sources, Source{Dir: filepath.Clean(dir), URL: url})
	c.packs = nil
}

// Refresh drops the cache so the next lookup rescans every source.
func (c *Catalog) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.packs = nil
}

// Packs returns every pack keyed by id. When two sources define the same id,
// the earlier registered source wins. The map is a copy; the packs are shared
// and must not be modified.
func (c *Catalog) Packs() map[string]*Pack {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.packs == nil {
		c.packs = c.scan()
	}
	return maps.Clone(c.packs)
}

func (c *Catalog) scan() map[string]*Pack {
	packs := make(map[string]*Pack)
	for _, src := range c.sources {
		info, err := os.Stat(src.Dir)
		if err != nil || !info.IsDir() {
			continue
		}
		manifests, err := filepath.Glob(filepath.Join(src.Dir, "*", ManifestFile))
		if err != nil {
			continue
		}
		sort.Strings(manifests)

		for _, path := range manifests {
			pack, err := ParseManifest(path, src)
			if err != nil {
				c.log.Warn("skipping unreadable manifest", "path", path, "error", err)
				continue
			}
			if pack.ID == "" {
				continue
			}
			if existing, ok := packs[pack.ID]; ok {
				c.log.Debug("pack id already registered", "id", pack.ID, "kept", existing.Dir, "ignored", pack.Dir)
				continue
			}
			packs[pack.ID] = pack
		}
	}
	return packs
}

// Pack looks up a pack by id.
func (c *Catalog) Pack(id string) (*Pack, bool) {
	p, ok := c.Packs()[id]
	return p, ok
}

// SortedIDs returns all pack ids in lexical order.
func (c *Catalog) SortedIDs() []string {
	packs := c.Packs()
	ids := make([]string, 0, len(packs))
	for id := range packs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PageMarkup returns the page file of a pack with tokens substituted. A
// missing pack, page or file yields "".
func (c *Catalog) PageMarkup(packID, pageKey string, values map[string]string) string {
	pack, ok := c.Pack(packID)
	if !ok {
		return ""
	}
	page, ok := pack.Pages[pageKey]
	if !ok || page.AbsoluteFile == "" {
		return ""
	}
	data, err := os.ReadFile(page.AbsoluteFile)
	if err != nil {
		return ""
	}
	return tokens.Replace(string(data), values)
}
