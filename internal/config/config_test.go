package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(body), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	t.Setenv("NESTA_CATALOG_URL", "")
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTPTimeoutSeconds != 15 {
		t.Errorf("HTTPTimeoutSeconds = %d, want 15", cfg.HTTPTimeoutSeconds)
	}
	if cfg.HTTPMaxRedirects != 3 {
		t.Errorf("HTTPMaxRedirects = %d, want 3", cfg.HTTPMaxRedirects)
	}
	if cfg.CacheDir != "templates" {
		t.Errorf("CacheDir = %q, want %q", cfg.CacheDir, "templates")
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	t.Setenv("NESTA_CATALOG_URL", "")
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"catalog_url": "https://example.com/catalog.json", "http_timeout_seconds": 30}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CatalogURL != "https://example.com/catalog.json" {
		t.Errorf("CatalogURL = %q", cfg.CatalogURL)
	}
	if cfg.HTTPTimeoutSeconds != 30 {
		t.Errorf("HTTPTimeoutSeconds = %d, want 30", cfg.HTTPTimeoutSeconds)
	}
	if cfg.HTTPMaxRedirects != 3 {
		t.Errorf("HTTPMaxRedirects = %d, want 3 (default)", cfg.HTTPMaxRedirects)
	}
}

func TestLoad_EnvOverridesCatalogURL(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"catalog_url": "https://file.example/catalog.json"}`)
	t.Setenv("NESTA_CATALOG_URL", "https://env.example/catalog.json")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CatalogURL != "https://env.example/catalog.json" {
		t.Errorf("CatalogURL = %q, want env value", cfg.CatalogURL)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{not json}`)

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	t.Setenv("NESTA_CATALOG_URL", "")
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	writeConfig(t, globalDir, `{"site_name": "Global", "disabled_tools": ["site_reset"], "template_sources": [{"dir": "/a"}]}`)
	writeConfig(t, filepath.Join(repoRoot, ".nesta"), `{"site_name": "Repo", "disabled_tools": ["site_undo"], "template_sources": [{"dir": "/b"}, {"dir": "/a"}]}`)

	cfg, err := LoadWithRepo(globalDir, repoRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.SiteName != "Repo" {
		t.Errorf("SiteName = %q, want Repo (repo override)", cfg.SiteName)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
	if len(cfg.TemplateSources) != 2 || cfg.TemplateSources[0].Dir != "/a" || cfg.TemplateSources[1].Dir != "/b" {
		t.Errorf("TemplateSources = %v, want [/a /b]", cfg.TemplateSources)
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	t.Setenv("NESTA_CATALOG_URL", "")
	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.UploadsDir != "uploads" {
		t.Errorf("UploadsDir = %q, want default", cfg.UploadsDir)
	}
	if len(cfg.DisabledTools) != 0 {
		t.Errorf("DisabledTools = %v, want empty", cfg.DisabledTools)
	}
}

func TestMerge_ScalarOverride(t *testing.T) {
	base := &Config{HTTPTimeoutSeconds: 15, DBMaxOpenConns: 5}
	overlay := &Config{HTTPTimeoutSeconds: 60}

	result := Merge(base, overlay)

	if result.HTTPTimeoutSeconds != 60 {
		t.Errorf("HTTPTimeoutSeconds = %d, want 60 (overlay)", result.HTTPTimeoutSeconds)
	}
	if result.DBMaxOpenConns != 5 {
		t.Errorf("DBMaxOpenConns = %d, want 5 (base, overlay is zero)", result.DBMaxOpenConns)
	}
}

func TestMerge_ArrayMergeDedup(t *testing.T) {
	base := &Config{DisabledTools: []string{"site_reset", " site_undo "}}
	overlay := &Config{DisabledTools: []string{"site_undo", "pack_sync"}}

	result := Merge(base, overlay)

	want := []string{"site_reset", "site_undo", "pack_sync"}
	if len(result.DisabledTools) != len(want) {
		t.Fatalf("DisabledTools = %v, want %v", result.DisabledTools, want)
	}
	for i := range want {
		if result.DisabledTools[i] != want[i] {
			t.Errorf("DisabledTools[%d] = %q, want %q", i, result.DisabledTools[i], want[i])
		}
	}
}

func TestMerge_AllowUnsafePathsIsSticky(t *testing.T) {
	result := Merge(&Config{AllowUnsafePaths: true}, &Config{AllowedPaths: []string{"/srv/exports"}})

	if !result.AllowUnsafePaths {
		t.Error("AllowUnsafePaths = false, want true (either side enables)")
	}
	if len(result.AllowedPaths) != 1 || result.AllowedPaths[0] != "/srv/exports" {
		t.Errorf("AllowedPaths = %v, want [/srv/exports]", result.AllowedPaths)
	}
}

func TestFindRepoConfig_InParentDir(t *testing.T) {
	tmpDir := t.TempDir()
	nestaDir := filepath.Join(tmpDir, ".nesta")
	writeConfig(t, nestaDir, `{}`)

	subdir := filepath.Join(tmpDir, "subdir", "deeper")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	found := FindRepoConfig(subdir)
	if want := filepath.Join(nestaDir, "config.json"); found != want {
		t.Errorf("FindRepoConfig() = %q, want %q", found, want)
	}
}

func TestFindRepoConfig_NotFound(t *testing.T) {
	if found := FindRepoConfig(t.TempDir()); found != "" {
		t.Errorf("FindRepoConfig() = %q, want empty string", found)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		base, p, want string
	}{
		{"/home/u/.nesta", "templates", "/home/u/.nesta/templates"},
		{"/home/u/.nesta", "/srv/templates", "/srv/templates"},
		{"/home/u/.nesta", "", ""},
	}
	for _, tt := range tests {
		if got := Resolve(tt.base, tt.p); got != tt.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tt.base, tt.p, got, tt.want)
		}
	}
}
