package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/nesta/internal/config"
	"github.com/hpungsan/nesta/internal/errors"
)

func writeExportFile(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("<rss/>"), 0600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return p
}

func TestValidateImportPath_TraversalRejected(t *testing.T) {
	cfg := config.DefaultConfig()

	tests := []struct {
		name string
		path string
	}{
		{"parent traversal", "../site.xml"},
		{"deep traversal", "../../etc/site.xml"},
		{"mid-path traversal", "/tmp/../etc/site.xml"},
		{"hidden in path", "/tmp/safe/../../../etc/shadow.xml"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateImportPath(tc.path, cfg)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidateImportPath_ExtensionRequired(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true

	for _, p := range []string{"/tmp/site", "/tmp/site.json", "/tmp/site.jsonl"} {
		t.Run(p, func(t *testing.T) {
			err := ValidateImportPath(p, cfg)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidateImportPath_DirectoryRestriction(t *testing.T) {
	dir := t.TempDir()
	p := writeExportFile(t, dir, "site.xml")

	err := ValidateImportPath(p, config.DefaultConfig())
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest for path outside allowed dirs, got: %v", err)
	}
}

func TestValidateImportPath_AllowUnsafePaths(t *testing.T) {
	dir := t.TempDir()
	p := writeExportFile(t, dir, "site.xml")

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true
	if err := ValidateImportPath(p, cfg); err != nil {
		t.Errorf("expected success with AllowUnsafePaths=true, got: %v", err)
	}
}

func TestValidateImportPath_AllowedPaths(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}

	if err := ValidateImportPath(writeExportFile(t, dir, "site.XML"), cfg); err != nil {
		t.Errorf("expected success for path in AllowedPaths, got: %v", err)
	}

	other := writeExportFile(t, t.TempDir(), "other.xml")
	if err := ValidateImportPath(other, cfg); err == nil {
		t.Error("expected error for path outside AllowedPaths, got nil")
	}
}

func TestValidateImportPath_FileNotFound(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true

	err := ValidateImportPath(filepath.Join(t.TempDir(), "missing.xml"), cfg)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestValidateImportPath_SymlinkRejected(t *testing.T) {
	dir := t.TempDir()
	target := writeExportFile(t, t.TempDir(), "secret.xml")
	link := filepath.Join(dir, "link.xml")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	for _, unsafe := range []bool{false, true} {
		cfg := config.DefaultConfig()
		cfg.AllowedPaths = []string{dir}
		cfg.AllowUnsafePaths = unsafe

		err := ValidateImportPath(link, cfg)
		if !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("unsafe=%v: expected ErrInvalidRequest, got: %v", unsafe, err)
		}
	}
}

func TestValidateImportPath_NestedPathRejected(t *testing.T) {
	allowed := t.TempDir()
	sub := filepath.Join(allowed, "subdir")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{allowed}

	err := ValidateImportPath(writeExportFile(t, sub, "site.xml"), cfg)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestContainsTraversal(t *testing.T) {
	tests := []struct {
		path     string
		contains bool
	}{
		{"/home/user/file.xml", false},
		{"../file.xml", true},
		{"/home/../etc/passwd", true},
		{"./file.xml", false},
		{"/home/user/.hidden/file.xml", false},
		{"file..name.xml", false},
		{"/tmp/a/b/../c.xml", true},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			if got := containsTraversal(tc.path); got != tc.contains {
				t.Errorf("containsTraversal(%q) = %v, want %v", tc.path, got, tc.contains)
			}
		})
	}
}
