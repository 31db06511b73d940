package ops

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hpungsan/nesta/internal/db"
	"github.com/hpungsan/nesta/internal/errors"
)

func TestImport_RawExport(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	env.Config.AllowedPaths = []string{dir}
	writeFiles(t, dir, map[string]string{"site.xml": testExport()})
	path := filepath.Join(dir, "site.xml")

	out, err := Import(context.Background(), env, ImportInput{Path: path})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Created != 4 || out.Path != path {
		t.Errorf("Import = %+v", out)
	}
	if _, err := db.GetBySlug(env.DB, "page", "home"); err != nil {
		t.Errorf("home not imported: %v", err)
	}

	// Raw imports do not create an install record.
	gen, _ := LoadGeneration(env.DB)
	if !gen.Empty() {
		t.Errorf("generation = %+v, want empty", gen)
	}
}

func TestImport_Errors(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	env.Config.AllowedPaths = []string{dir}
	writeFiles(t, dir, map[string]string{"broken.xml": "<rss><channel>"})

	tests := []struct {
		name string
		path string
		code errors.ErrorCode
	}{
		{"empty path", "", errors.ErrInvalidRequest},
		{"outside allowed dirs", "/etc/site.xml", errors.ErrInvalidRequest},
		{"missing file", filepath.Join(dir, "missing.xml"), errors.ErrNotFound},
		{"not an export", filepath.Join(dir, "broken.xml"), errors.ErrParse},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Import(context.Background(), env, ImportInput{Path: tc.path})
			if !errors.Is(err, tc.code) {
				t.Errorf("Import(%q) error = %v, want %s", tc.path, err, tc.code)
			}
		})
	}
}
