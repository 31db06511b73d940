package ops

import (
	"context"
	"strings"
	"testing"

	"github.com/hpungsan/nesta/internal/db"
	"github.com/hpungsan/nesta/internal/errors"
)

func TestCreatePage_Service(t *testing.T) {
	env := newTestEnv(t)
	installPlumber(t, env)

	out, err := CreatePage(context.Background(), env, CreatePageInput{
		Blueprint: "service",
		Title:     "Drain Cleaning",
		Tokens:    map[string]string{"service__name": "Drain Experts", "business_name": "ignored"},
	})
	if err != nil {
		t.Fatalf("CreatePage failed: %v", err)
	}
	if out.Slug != "drain-cleaning" || out.Status != "draft" || out.Blueprint != "service" {
		t.Errorf("CreatePage = %+v", out)
	}

	page, err := db.GetRecord(env.DB, out.ID)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if !strings.Contains(page.Content, "<h2>Drain Experts</h2>") {
		t.Errorf("content = %q, want hydrated component", page.Content)
	}
	if strings.Contains(page.Content, "wp:block") {
		t.Errorf("content = %q, still references the component", page.Content)
	}
	if strings.Contains(page.Content, "def67890") || !strings.Contains(page.Content, "uagb-block-") {
		t.Errorf("content = %q, want fresh instance ids", page.Content)
	}

	meta, _ := db.GetMeta(env.DB, out.ID)
	if meta[PageTitleMetaKey] != "disabled" {
		t.Errorf("%s = %v, want disabled", PageTitleMetaKey, meta[PageTitleMetaKey])
	}
}

func TestCreatePage_UniqueSlug(t *testing.T) {
	env := newTestEnv(t)
	installPlumber(t, env)

	input := CreatePageInput{Blueprint: "service", Title: "Drain Cleaning", Status: "publish"}
	first, err := CreatePage(context.Background(), env, input)
	if err != nil {
		t.Fatalf("CreatePage failed: %v", err)
	}
	second, err := CreatePage(context.Background(), env, input)
	if err != nil {
		t.Fatalf("CreatePage failed: %v", err)
	}
	if first.Slug != "drain-cleaning" || second.Slug != "drain-cleaning-2" {
		t.Errorf("slugs = %q, %q", first.Slug, second.Slug)
	}
	if second.Status != "publish" {
		t.Errorf("Status = %q, want publish", second.Status)
	}
}

func TestCreatePage_ServiceComponentMissing(t *testing.T) {
	env := newTestEnv(t)

	_, err := CreatePage(context.Background(), env, CreatePageInput{Blueprint: "service", Title: "Repairs"})
	if !errors.Is(err, errors.ErrConflict) {
		t.Errorf("CreatePage error = %v, want ErrConflict", err)
	}
}

func TestCreatePage_Location(t *testing.T) {
	env := newTestEnv(t)
	installPlumber(t, env)

	out, err := CreatePage(context.Background(), env, CreatePageInput{
		Blueprint: "location",
		Title:     "Austin",
		Slug:      "Austin TX",
		TokenJSON: `{"location__hero_headline": "Plumbing in Austin"}`,
	})
	if err != nil {
		t.Fatalf("CreatePage failed: %v", err)
	}
	if out.Slug != "austin-tx" {
		t.Errorf("Slug = %q, want austin-tx", out.Slug)
	}

	page, _ := db.GetRecord(env.DB, out.ID)
	if !strings.Contains(page.Content, "<h1>Plumbing in Austin</h1>") {
		t.Errorf("content = %q", page.Content)
	}
	if strings.Contains(page.Content, "abc12345") {
		t.Errorf("content = %q, want fresh instance ids", page.Content)
	}

	meta, _ := db.GetMeta(env.DB, out.ID)
	if meta["layout"] != "wide" {
		t.Errorf("layout = %v, want copied from source", meta["layout"])
	}
	if _, ok := meta["_edit_lock"]; ok {
		t.Error("_edit_lock copied from source page")
	}

	// The source page is left untouched.
	src, _ := db.GetBySlug(env.DB, "page", "location-template")
	if !strings.Contains(src.Content, "{{location__hero_headline}}") {
		t.Errorf("source content = %q, want placeholder kept", src.Content)
	}
}

func TestCreatePage_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		input CreatePageInput
		code  errors.ErrorCode
	}{
		{"unknown blueprint", CreatePageInput{Blueprint: "landing", Title: "X"}, errors.ErrInvalidRequest},
		{"missing title", CreatePageInput{Blueprint: "service", Title: "<b></b> "}, errors.ErrInvalidRequest},
		{"bad token json", CreatePageInput{Blueprint: "service", Title: "X", TokenJSON: "[1,"}, errors.ErrInvalidRequest},
		{"location without source", CreatePageInput{Blueprint: "location", Title: "X"}, errors.ErrNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CreatePage(context.Background(), env, tc.input)
			if !errors.Is(err, tc.code) {
				t.Errorf("CreatePage error = %v, want %s", err, tc.code)
			}
		})
	}
}

func TestMergeTokenJSON(t *testing.T) {
	got, err := mergeTokenJSON(
		map[string]string{"City": "Austin", "phone_display": "1"},
		`{"token_map": {"{{phone_display}}": 5550100, "email": "Bad Email", "flag": true, "nested": {"x": 1}}}`,
	)
	if err != nil {
		t.Fatalf("mergeTokenJSON failed: %v", err)
	}
	if got["city"] != "Austin" {
		t.Errorf("city = %q, want Austin", got["city"])
	}
	if got["phone_display"] != "5550100" {
		t.Errorf("phone_display = %q", got["phone_display"])
	}
	if got["flag"] != "true" {
		t.Errorf("flag = %q, want true", got["flag"])
	}
	if _, ok := got["nested"]; ok {
		t.Error("nested object kept as token value")
	}
}
