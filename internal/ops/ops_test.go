package ops

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/nesta/internal/config"
	"github.com/hpungsan/nesta/internal/db"
)

const testManifest = `{
	"id": "plumber",
	"name": "Plumber",
	"version": "1.0.0",
	"description": "Pipes and **drains**.",
	"settings": {
		"colors": {"primary": "#112233"},
		"customizer": "customizer.json",
		"additional_css": "extra.css"
	},
	"pages": {
		"home": {"file": "pages/home.html", "slug": "home", "title": "Home"},
		"services": {"file": "pages/services.html", "slug": "services", "title": "Services"}
	},
	"bundle": {"export": "export.xml"},
	"navigation": {"primary": {"name": "Main", "slug": "main"}}
}`

const testCustomizer = `{
	"customizer-settings": {
		"astra-settings": {"body-color": "#222222"},
		"astra-color-palettes": {
			"currentPalette": "palette_1",
			"palettes": {"palette_1": ["#aaaaaa", "#bbbbbb", "#cccccc", "#dddddd", "#eeeeee"]}
		},
		"theme_mods": {"header_layout": "stacked"},
		"custom_css": ".x{color:red}"
	}
}`

const (
	homeBody     = `<!-- wp:heading --><h1>{{business_name}} in {{city}}</h1><!-- /wp:heading -->`
	servicesBody = `<p>Call {{business_name}}</p>`
	locationBody = `<!-- wp:uagb/container {"block_id":"abc12345"} --><div class="uagb-block-abc12345"><h1>{{location__hero_headline}}</h1></div><!-- /wp:uagb/container -->`
	serviceBody  = `<!-- wp:uagb/container {"block_id":"def67890"} --><div class="uagb-block-def67890"><h2>{{service__name}}</h2></div><!-- /wp:uagb/container -->`
)

func exportItem(id, kind, slug, title, body string, meta ...[2]string) string {
	var sb strings.Builder
	sb.WriteString("<item><title>" + title + "</title>")
	sb.WriteString("<content:encoded><![CDATA[" + body + "]]></content:encoded>")
	sb.WriteString("<wp:post_id>" + id + "</wp:post_id>")
	sb.WriteString("<wp:post_name>" + slug + "</wp:post_name>")
	sb.WriteString("<wp:post_type>" + kind + "</wp:post_type>")
	sb.WriteString("<wp:status>publish</wp:status>")
	for _, m := range meta {
		sb.WriteString("<wp:postmeta><wp:meta_key>" + m[0] + "</wp:meta_key><wp:meta_value><![CDATA[" + m[1] + "]]></wp:meta_value></wp:postmeta>")
	}
	sb.WriteString("</item>")
	return sb.String()
}

func testExport() string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:wp="http://wordpress.org/export/1.2/">
<channel>
<wp:base_site_url>https://demo.example</wp:base_site_url>
<wp:base_blog_url>https://demo.example</wp:base_blog_url>
` + exportItem("10", "page", "home", "Home", homeBody, [2]string{"_hero_phone", "{{phone_display}}"}) +
		exportItem("11", "page", "services", "Services", servicesBody) +
		exportItem("12", "page", "location-template", "Location Template", locationBody,
			[2]string{"_edit_lock", "1700000000:1"}, [2]string{"layout", "wide"}) +
		exportItem("20", "wp_block", "service-page", "Service Page", serviceBody) + `
</channel>
</rss>`
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
}

// newTestEnv opens a fresh database and writes the plumber pack into the
// template cache.
func newTestEnv(t *testing.T) *Env {
	t.Helper()
	baseDir := t.TempDir()
	database, err := db.Init(baseDir)
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.SiteName = "Fallback Co"
	cfg.AdminEmail = "admin@example.com"

	env, err := NewEnv(database, cfg, baseDir, nil)
	if err != nil {
		t.Fatalf("NewEnv failed: %v", err)
	}
	writeFiles(t, filepath.Join(env.CacheDir(), "plumber"), map[string]string{
		"manifest.json":       testManifest,
		"customizer.json":     testCustomizer,
		"extra.css":           ".hero{padding:0}",
		"export.xml":          testExport(),
		"pages/home.html":     homeBody,
		"pages/services.html": servicesBody,
	})
	return env
}

func installPlumber(t *testing.T, env *Env) *InstallOutput {
	t.Helper()
	out, err := Install(context.Background(), env, InstallInput{PackID: "plumber"})
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	return out
}

func getOption[T any](t *testing.T, database *sql.DB, name string) (T, bool) {
	t.Helper()
	var v T
	found, err := db.GetOption(database, name, &v)
	if err != nil {
		t.Fatalf("GetOption(%s) failed: %v", name, err)
	}
	return v, found
}

func TestNewEnv_InvalidSchemaPath(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TokenSchemaPath = "missing.yaml"

	_, err := NewEnv(nil, cfg, t.TempDir(), nil)
	if err == nil {
		t.Fatal("expected error for missing token schema, got nil")
	}
}

func TestNewEnv_ResolvesRelativeDirs(t *testing.T) {
	baseDir := t.TempDir()
	env, err := NewEnv(nil, config.DefaultConfig(), baseDir, nil)
	if err != nil {
		t.Fatalf("NewEnv failed: %v", err)
	}
	if want := filepath.Join(baseDir, "templates"); env.CacheDir() != want {
		t.Errorf("CacheDir = %q, want %q", env.CacheDir(), want)
	}
	if want := filepath.Join(baseDir, "uploads"); env.UploadsDir() != want {
		t.Errorf("UploadsDir = %q, want %q", env.UploadsDir(), want)
	}
	if env.Fetcher == nil {
		t.Error("Fetcher = nil, want HTTP fetcher")
	}
}

func TestSetThemeMod(t *testing.T) {
	env := newTestEnv(t)

	if err := setThemeMod(env.DB, "custom_logo", 7); err != nil {
		t.Fatalf("setThemeMod failed: %v", err)
	}
	if err := setThemeMod(env.DB, "header_layout", "stacked"); err != nil {
		t.Fatalf("setThemeMod failed: %v", err)
	}
	if err := setThemeMod(env.DB, "custom_logo", nil); err != nil {
		t.Fatalf("setThemeMod failed: %v", err)
	}

	mods, _ := getOption[map[string]any](t, env.DB, ThemeModsOption)
	if _, ok := mods["custom_logo"]; ok {
		t.Error("custom_logo still set after nil write")
	}
	if mods["header_layout"] != "stacked" {
		t.Errorf("header_layout = %v, want stacked", mods["header_layout"])
	}
}
