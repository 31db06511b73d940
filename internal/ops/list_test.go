package ops

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/nesta/internal/errors"
)

func TestListPacks_Pagination(t *testing.T) {
	env := newTestEnv(t)
	for i := 1; i <= 3; i++ {
		writeFiles(t, env.CacheDir(), map[string]string{
			fmt.Sprintf("extra%d/manifest.json", i): fmt.Sprintf(`{"id": "extra%d", "name": "Extra %d"}`, i, i),
		})
	}

	out, err := ListPacks(env, ListPacksInput{Limit: 2})
	if err != nil {
		t.Fatalf("ListPacks failed: %v", err)
	}
	if out.Pagination.Total != 4 || !out.Pagination.HasMore || len(out.Items) != 2 {
		t.Errorf("pagination = %+v, items = %d", out.Pagination, len(out.Items))
	}
	if out.Items[0].ID != "extra1" || out.Items[1].ID != "extra2" {
		t.Errorf("items = %s, %s, want id order", out.Items[0].ID, out.Items[1].ID)
	}
	if out.Sort != "id_asc" {
		t.Errorf("Sort = %q, want id_asc", out.Sort)
	}

	out, err = ListPacks(env, ListPacksInput{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("ListPacks failed: %v", err)
	}
	if out.Pagination.HasMore || len(out.Items) != 2 || out.Items[1].ID != "plumber" {
		t.Errorf("second page = %+v", out)
	}

	plumber := out.Items[1]
	if !plumber.Installable {
		t.Error("plumber Installable = false")
	}
	if strings.Join(plumber.Pages, ",") != "home,services" {
		t.Errorf("Pages = %v, want manifest order", plumber.Pages)
	}
	if !strings.Contains(plumber.DescriptionHTML, "<strong>drains</strong>") {
		t.Errorf("DescriptionHTML = %q", plumber.DescriptionHTML)
	}
	if !strings.HasPrefix(plumber.URL, "file://") {
		t.Errorf("URL = %q, want file URL for the cache source", plumber.URL)
	}
}

func TestListPacks_LimitClamped(t *testing.T) {
	env := newTestEnv(t)

	out, err := ListPacks(env, ListPacksInput{Limit: 1000, Offset: -5})
	if err != nil {
		t.Fatalf("ListPacks failed: %v", err)
	}
	if out.Pagination.Limit != MaxListLimit || out.Pagination.Offset != 0 {
		t.Errorf("pagination = %+v", out.Pagination)
	}
}

func TestListPacks_RefreshSeesNewPacks(t *testing.T) {
	env := newTestEnv(t)
	if out, _ := ListPacks(env, ListPacksInput{}); out.Pagination.Total != 1 {
		t.Fatalf("Total = %d, want 1", out.Pagination.Total)
	}

	writeFiles(t, env.CacheDir(), map[string]string{"late/manifest.json": `{"id": "late"}`})

	if out, _ := ListPacks(env, ListPacksInput{}); out.Pagination.Total != 1 {
		t.Errorf("Total = %d without refresh, want cached 1", out.Pagination.Total)
	}
	if out, _ := ListPacks(env, ListPacksInput{Refresh: true}); out.Pagination.Total != 2 {
		t.Errorf("Total = %d after refresh, want 2", out.Pagination.Total)
	}
}

func TestGetPack(t *testing.T) {
	env := newTestEnv(t)

	pack, err := GetPack(env, GetPackInput{ID: " plumber "})
	if err != nil {
		t.Fatalf("GetPack failed: %v", err)
	}
	if pack.Dir != filepath.Join(env.CacheDir(), "plumber") {
		t.Errorf("Dir = %q", pack.Dir)
	}

	if _, err := GetPack(env, GetPackInput{ID: "nope"}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetPack(nope) error = %v, want ErrNotFound", err)
	}
	if _, err := GetPack(env, GetPackInput{}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("GetPack('') error = %v, want ErrInvalidRequest", err)
	}
	if _, err := GetPack(&Env{}, GetPackInput{ID: "plumber"}); !errors.Is(err, errors.ErrConfiguration) {
		t.Errorf("GetPack without catalog error = %v, want ErrConfiguration", err)
	}
}

func TestPageMarkup(t *testing.T) {
	env := newTestEnv(t)

	out, err := PageMarkup(env, PageMarkupInput{
		PackID:  "plumber",
		PageKey: "home",
		Tokens:  map[string]string{"Business_Name": "Acme", "city": "Reno"},
	})
	if err != nil {
		t.Fatalf("PageMarkup failed: %v", err)
	}
	if !out.Found || !strings.Contains(out.Markup, "<h1>Acme in Reno</h1>") {
		t.Errorf("PageMarkup = %+v", out)
	}

	out, err = PageMarkup(env, PageMarkupInput{PackID: "plumber", PageKey: "missing"})
	if err != nil {
		t.Fatalf("PageMarkup failed: %v", err)
	}
	if out.Found || out.Markup != "" {
		t.Errorf("missing page = %+v, want empty", out)
	}

	if _, err := PageMarkup(env, PageMarkupInput{PackID: "plumber"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("PageMarkup without page error = %v, want ErrInvalidRequest", err)
	}
}
