package catalog

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func writePack(t *testing.T, root, dir, manifest string, files map[string]string) string {
	t.Helper()
	packDir := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(packDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(packDir, ManifestFile), []byte(manifest), 0644))
	for name, body := range files {
		p := filepath.Join(packDir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	}
	return packDir
}

const plumberManifest = `{
	// comments are allowed
	"id": "plumber",
	"name": "Plumber",
	"description": "A **bold** start.",
	"version": "1.2.0",
	"screenshot": "/screenshot.png",
	"pages": {
		"home": {"file": "pages/home.html", "slug": "home"},
		"about": {"file": "pages/about.html", "slug": "about"},
		"contact": {"file": "", "slug": "contact"},
	},
	"bundle": {"export": "export.xml", "uploads": "uploads.zip"},
	"navigation": {"primary": {"name": "Main", "slug": "main"}}
}`

func TestPacks_ParseAndDecorate(t *testing.T) {
	root := t.TempDir()
	dir := writePack(t, root, "plumber", plumberManifest, map[string]string{
		"pages/home.html": "<h1>{{ business_name }}</h1>",
	})

	c := New(nil, Source{Dir: root, URL: "https://cdn.example/templates"})
	packs := c.Packs()
	require.Len(t, packs, 1)

	p := packs["plumber"]
	require.NotNil(t, p)
	require.Equal(t, "Plumber", p.Name)
	require.Equal(t, dir, p.Dir)
	require.Equal(t, "https://cdn.example/templates/plumber/", p.URL)
	require.Equal(t, "https://cdn.example/templates/plumber/screenshot.png", p.ScreenshotURL)
	require.Equal(t, filepath.Join(dir, "pages", "home.html"), p.Pages["home"].AbsoluteFile)
	require.Equal(t, "", p.Pages["contact"].AbsoluteFile)
	require.Equal(t, []string{"home", "about", "contact"}, p.PageOrder)
	require.Contains(t, p.DescriptionHTML, "<strong>bold</strong>")
	require.Equal(t, "main", p.Navigation.Primary.Slug)
	require.Equal(t, filepath.Join(dir, "export.xml"), p.Path(p.Bundle.Export))
}

func TestPacks_SkipsInvalidAndIDLess(t *testing.T) {
	root := t.TempDir()
	writePack(t, root, "broken", `{not json`, nil)
	writePack(t, root, "noid", `{"name": "No id"}`, nil)
	writePack(t, root, "ok", `{"id": "ok"}`, nil)

	c := New(nil, Source{Dir: root, URL: "/t"})
	require.Equal(t, []string{"ok"}, c.SortedIDs())
}

func TestPacks_FirstSourceWins(t *testing.T) {
	bundled := t.TempDir()
	cache := t.TempDir()
	writePack(t, bundled, "a", `{"id": "shared", "name": "Bundled"}`, nil)
	writePack(t, cache, "a", `{"id": "shared", "name": "Cached"}`, nil)
	writePack(t, cache, "b", `{"id": "extra", "name": "Extra"}`, nil)

	c := New(nil, Source{Dir: bundled, URL: "/bundled"})
	c.AddSource(cache, "/cache")

	p, ok := c.Pack("shared")
	require.True(t, ok)
	require.Equal(t, "Bundled", p.Name)
	require.Equal(t, []string{"extra", "shared"}, c.SortedIDs())
}

func TestPacks_ReturnsCopy(t *testing.T) {
	root := t.TempDir()
	writePack(t, root, "plumber", plumberManifest, nil)
	c := New(nil, Source{Dir: root})

	packs := c.Packs()
	delete(packs, "plumber")
	packs["bogus"] = &Pack{ID: "bogus"}

	_, ok := c.Pack("plumber")
	require.True(t, ok)
	_, ok = c.Pack("bogus")
	require.False(t, ok)
	require.Equal(t, []string{"plumber"}, c.SortedIDs())
}

func TestAddSource_IgnoresEmptyAndInvalidates(t *testing.T) {
	root := t.TempDir()
	c := New(nil)
	c.AddSource("", "/x")
	c.AddSource(root, "")
	require.Empty(t, c.Packs())

	writePack(t, root, "late", `{"id": "late"}`, nil)
	require.Empty(t, c.Packs(), "cache is held until invalidated")

	c.AddSource(root, "/t")
	_, ok := c.Pack("late")
	require.True(t, ok)
}

func TestRefresh_Rescans(t *testing.T) {
	root := t.TempDir()
	c := New(nil, Source{Dir: root, URL: "/t"})
	require.Empty(t, c.Packs())

	writePack(t, root, "new", `{"id": "new"}`, nil)
	c.Refresh()
	require.Len(t, c.Packs(), 1)
}

func TestPageMarkup(t *testing.T) {
	root := t.TempDir()
	writePack(t, root, "plumber", plumberManifest, map[string]string{
		"pages/home.html": "<h1>{{ business_name }}</h1><p>{{unknown}}</p>",
	})
	c := New(nil, Source{Dir: root, URL: "/t"})

	got := c.PageMarkup("plumber", "home", map[string]string{"Business_Name": "Acme"})
	require.Equal(t, "<h1>Acme</h1><p>{{unknown}}</p>", got)

	require.Equal(t, "", c.PageMarkup("missing", "home", nil))
	require.Equal(t, "", c.PageMarkup("plumber", "missing", nil))
	require.Equal(t, "", c.PageMarkup("plumber", "about", nil), "file not on disk")
	require.Equal(t, "", c.PageMarkup("plumber", "contact", nil), "no file declared")
}

func TestPageMarkup_StaysInsidePack(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.txt"), []byte("TOP-SECRET"), 0644))
	writePack(t, root, "evil", `{
		"id": "evil",
		"pages": {
			"home": {"file": "../secret.txt"},
			"deep": {"file": "pages/../../secret.txt"},
			"ok": {"file": "pages/../home.html"}
		}
	}`, map[string]string{"home.html": "<p>inside</p>"})
	c := New(nil, Source{Dir: root})

	require.Equal(t, "", c.PageMarkup("evil", "home", nil))
	require.Equal(t, "", c.PageMarkup("evil", "deep", nil))
	require.Equal(t, "<p>inside</p>", c.PageMarkup("evil", "ok", nil))

	p, ok := c.Pack("evil")
	require.True(t, ok)
	require.Equal(t, "", p.Pages["home"].AbsoluteFile)
	require.Equal(t, "", p.Path("../../etc/passwd"))
	require.Equal(t, "", p.Path(".."))
	require.Equal(t, filepath.Join(p.Dir, "a", "..b"), p.Path("a/..b"))
}

func TestPacks_ConcurrentReaders(t *testing.T) {
	root := t.TempDir()
	writePack(t, root, "ok", `{"id": "ok"}`, nil)
	c := New(nil, Source{Dir: root, URL: "/t"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				c.Refresh()
			}
			_, _ = c.Pack("ok")
		}()
	}
	wg.Wait()
	_, ok := c.Pack("ok")
	require.True(t, ok)
}
