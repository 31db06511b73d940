package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hpungsan/nesta/internal/blocks"
	"github.com/hpungsan/nesta/internal/content"
	"github.com/hpungsan/nesta/internal/db"
	"github.com/hpungsan/nesta/internal/errors"
	"github.com/hpungsan/nesta/internal/tokens"
)

// PageTitleMetaKey controls whether the theme renders the page title.
const PageTitleMetaKey = "site-post-title"

// skippedMetaKeys are editor and asset bookkeeping entries that a copied page
// must regenerate instead of inheriting.
var skippedMetaKeys = map[string]bool{
	"_edit_lock":         true,
	"_edit_last":         true,
	"_wp_old_slug":       true,
	"_uag_css_file_name": true,
	"_uag_js_file_name":  true,
}

// CreatePageInput contains parameters for the CreatePage operation.
type CreatePageInput struct {
	Blueprint string // required: "service" or "location"
	Title     string // required
	Slug      string // default: slugified title
	Status    string // draft (default) or publish

	Tokens map[string]string

	// TokenJSON is a JSON object of token values, optionally wrapped in
	// {"token_map": {...}}. Its entries override Tokens.
	TokenJSON string
}

// CreatePageOutput contains the result of the CreatePage operation.
type CreatePageOutput struct {
	ID        int64  `json:"id"`
	Blueprint string `json:"blueprint"`
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Status    string `json:"status"`
}

// CreatePage builds a new page from a blueprint and hydrates its tokens.
// Component blueprints insert a reference to the component, then replace it
// with a copy of the component's blocks carrying fresh instance ids. Source
// page blueprints copy an existing page's content and metadata.
func CreatePage(ctx context.Context, env *Env, input CreatePageInput) (*CreatePageOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bp, ok := tokens.Blueprints()[strings.TrimSpace(input.Blueprint)]
	if !ok {
		return nil, errors.NewInvalidRequest("select a blueprint before creating the page")
	}

	values, err := mergeTokenJSON(input.Tokens, input.TokenJSON)
	if err != nil {
		return nil, err
	}
	bpValues := make(map[string]string, len(bp.Slots))
	for _, key := range bp.Keys() {
		bpValues[key] = values[key]
	}

	title := tokens.SanitizeText(input.Title)
	if title == "" {
		return nil, errors.NewInvalidRequest("add a page title before creating the page")
	}
	status := input.Status
	if status != content.StatusPublish {
		status = content.StatusDraft
	}
	base := content.Slugify(input.Slug)
	if base == "" {
		base = content.Slugify(title)
	}
	slug, err := uniqueSlug(env, content.KindPage, base)
	if err != nil {
		return nil, err
	}

	page := &content.Record{Kind: content.KindPage, Status: status, Slug: slug, Title: title}
	if bp.Component != "" {
		err = createFromComponent(env, bp, page, bpValues)
	} else {
		err = createFromSource(env, bp, page, bpValues)
	}
	if err != nil {
		return nil, err
	}

	env.logger().Info("page created", "blueprint", bp.ID, "id", page.ID, "slug", page.Slug)
	return &CreatePageOutput{
		ID:        page.ID,
		Blueprint: bp.ID,
		Title:     page.Title,
		Slug:      page.Slug,
		Status:    page.Status,
	}, nil
}

func createFromComponent(env *Env, bp *tokens.Blueprint, page *content.Record, values map[string]string) error {
	component, err := db.GetByTitle(env.DB, content.KindReusable, bp.Component)
	if errors.Is(err, errors.ErrNotFound) {
		return errors.NewConflict(fmt.Sprintf("the synced %q component is missing; re-install the template before creating a %s page", bp.Component, bp.ID))
	}
	if err != nil {
		return err
	}

	page.Content = fmt.Sprintf(`<!-- wp:block {"ref":%d} /-->`, component.ID)
	if err := db.InsertRecord(env.DB, page); err != nil {
		return err
	}
	if err := db.SetMeta(env.DB, page.ID, PageTitleMetaKey, "disabled"); err != nil {
		return err
	}

	replacement := blocks.Parse(blocks.RegenerateContentIDs(component.Content, nil))
	detached := blocks.Detach(blocks.Parse(page.Content), component.ID, replacement)
	if detached == nil {
		return errors.NewConflict("the component could not be detached automatically; detach it in the editor and try again").
			WithDetail("page_id", page.ID)
	}

	page.Content = bp.Hydrate(blocks.Serialize(detached), values)
	if err := db.UpdateRecord(env.DB, page); err != nil {
		return errors.NewInternal(fmt.Errorf("finalize page %d: %w", page.ID, err))
	}
	return nil
}

func createFromSource(env *Env, bp *tokens.Blueprint, page *content.Record, values map[string]string) error {
	source, err := blueprintSource(env, bp.SourceSlug)
	if err != nil {
		return err
	}

	page.Content = blocks.RegenerateContentIDs(bp.Hydrate(source.Content, values), nil)
	if err := db.InsertRecord(env.DB, page); err != nil {
		return err
	}

	meta, err := db.GetMeta(env.DB, source.ID)
	if err != nil {
		return err
	}
	for key, value := range meta {
		if skippedMetaKeys[key] {
			continue
		}
		if err := db.SetMeta(env.DB, page.ID, key, value); err != nil {
			return err
		}
	}
	return nil
}

// blueprintSource finds the page a source blueprint copies: by slug, else
// through the install record.
func blueprintSource(env *Env, slug string) (*content.Record, error) {
	slug = content.Slugify(slug)
	if slug == "" {
		return nil, errors.NewNotFound("blueprint source page", slug)
	}
	rec, err := db.GetBySlug(env.DB, content.KindPage, slug)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	gen, err := LoadGeneration(env.DB)
	if err != nil {
		return nil, err
	}
	if id, ok := gen.PageIDs[slug]; ok {
		if rec, err := db.GetRecord(env.DB, id); err == nil && rec.Kind == content.KindPage {
			return rec, nil
		}
	}
	return nil, errors.NewNotFound("blueprint source page", slug)
}

// uniqueSlug returns base, or base-N for the first N >= 2 not taken by kind.
func uniqueSlug(env *Env, kind content.Kind, base string) (string, error) {
	candidate := base
	for n := 2; ; n++ {
		_, err := db.GetBySlug(env.DB, kind, candidate)
		if errors.Is(err, errors.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
}

// mergeTokenJSON overlays the entries of a token JSON document on values.
func mergeTokenJSON(values map[string]string, raw string) (map[string]string, error) {
	out := tokens.SanitizeAll(values)
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, errors.NewInvalidRequest("token JSON could not be parsed; verify the structure")
	}
	if inner, ok := decoded["token_map"].(map[string]any); ok {
		decoded = inner
	}
	for k, v := range decoded {
		key := tokens.NormalizeKey(k)
		if key == "" {
			continue
		}
		switch val := v.(type) {
		case string:
			out[key] = tokens.Sanitize(key, val)
		case float64:
			out[key] = tokens.Sanitize(key, strconv.FormatFloat(val, 'f', -1, 64))
		case bool:
			out[key] = strconv.FormatBool(val)
		}
	}
	return out, nil
}
