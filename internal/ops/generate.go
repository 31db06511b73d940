package ops

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/hpungsan/nesta/internal/db"
	"github.com/hpungsan/nesta/internal/errors"
	"github.com/hpungsan/nesta/internal/tokens"
)

// GeneratedAtLayout formats Generation.GeneratedAt.
const GeneratedAtLayout = "2006-01-02 15:04:05"

// GenerateInput contains parameters for the Generate operation.
type GenerateInput struct {
	// PackID defaults to the installed pack
	PackID string

	Tokens map[string]string

	// TokenJSON is a JSON token document; its entries override Tokens
	TokenJSON string

	// Brand overrides the pack's brand defaults field by field
	Brand *Brand
}

// GenerateOutput contains the result of the Generate operation.
type GenerateOutput struct {
	PackID  string           `json:"pack_id"`
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	PageIDs map[string]int64 `json:"page_ids"`
	Brand   Brand            `json:"brand"`
}

// Branding is the stored form of the last generate request.
type Branding struct {
	PackID    string            `json:"template_id"`
	Brand     Brand             `json:"brand"`
	Tokens    map[string]string `json:"tokens"`
	UpdatedAt string            `json:"updated_at"`
}

// Generate hydrates the installed pages with token values, sets the front
// page and applies the site identity and brand palette.
func Generate(ctx context.Context, env *Env, input GenerateInput) (*GenerateOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gen, err := LoadGeneration(env.DB)
	if err != nil {
		return nil, err
	}
	if gen.Empty() {
		return nil, errors.NewConflict("Install the template bundle before generating content.")
	}

	packID := strings.TrimSpace(input.PackID)
	if packID == "" {
		packID = gen.PackID
	}
	pack, err := GetPack(env, GetPackInput{ID: packID})
	if err != nil {
		return nil, err
	}

	merged, err := mergeTokenJSON(input.Tokens, input.TokenJSON)
	if err != nil {
		return nil, err
	}
	cfg := env.config()
	values := schemaValues(env.schema(), merged)
	values = tokens.WithIdentityDefaults(values, cfg.SiteName, cfg.AdminEmail)

	updated, err := hydratePages(env, gen.PageIDs, values)
	if err != nil {
		return nil, err
	}

	if home, ok := gen.PageIDs["home"]; ok {
		if err := db.SetOption(env.DB, ShowOnFrontOption, "page"); err != nil {
			return nil, err
		}
		if err := db.SetOption(env.DB, PageOnFrontOption, home); err != nil {
			return nil, err
		}
	}

	now := time.Now().Format(GeneratedAtLayout)
	gen.PackID = packID
	gen.Updated = updated
	gen.GeneratedAt = now
	gen.ContentApplied = true
	if err := saveGeneration(env.DB, gen); err != nil {
		return nil, err
	}

	brand := packBrand(DefaultBrand(), pack).overlay(input.Brand)
	if err := applySiteIdentity(env.DB, values, brand); err != nil {
		return nil, err
	}
	if err := applyBrandPalette(env.DB, brand); err != nil {
		return nil, err
	}
	if err := db.SetOption(env.DB, BrandingOption, Branding{
		PackID:    packID,
		Brand:     brand,
		Tokens:    values,
		UpdatedAt: now,
	}); err != nil {
		return nil, err
	}

	env.logger().Info("content generated", "pack", packID, "updated", updated, "palette", describeBrand(brand))
	return &GenerateOutput{
		PackID:  packID,
		Updated: updated,
		PageIDs: gen.PageIDs,
		Brand:   brand,
	}, nil
}

// schemaValues sanitizes the request tokens and keeps only schema keys.
func schemaValues(schema *tokens.Schema, in map[string]string) map[string]string {
	clean := tokens.SanitizeAll(in)
	out := make(map[string]string, len(clean))
	for _, key := range schema.Keys() {
		if v, ok := clean[key]; ok {
			out[key] = v
		}
	}
	return out
}

// hydratePages replaces tokens in the content and metadata of every
// tokenizable record in pageIDs. Returns the number of records changed.
func hydratePages(env *Env, pageIDs map[string]int64, values map[string]string) (int, error) {
	if len(values) == 0 {
		return 0, nil
	}
	ids := make([]int64, 0, len(pageIDs))
	for _, id := range pageIDs {
		if id > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	updated := 0
	for _, id := range ids {
		rec, err := db.GetRecord(env.DB, id)
		if errors.Is(err, errors.ErrNotFound) {
			continue
		}
		if err != nil {
			return updated, err
		}
		if !rec.Kind.Tokenizable() {
			continue
		}

		changed := false
		if replaced := tokens.Replace(rec.Content, values); replaced != rec.Content {
			if err := db.UpdateContent(env.DB, id, replaced); err != nil {
				return updated, err
			}
			changed = true
		}

		metaChanged, err := hydrateMeta(env, id, values)
		if err != nil {
			return updated, err
		}
		if changed || metaChanged {
			updated++
		}
	}
	return updated, nil
}

func hydrateMeta(env *Env, id int64, values map[string]string) (bool, error) {
	meta, err := db.GetMeta(env.DB, id)
	if err != nil {
		return false, err
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	changed := false
	for _, k := range keys {
		v, ok := tokens.ReplaceInValue(meta[k], values)
		if !ok {
			continue
		}
		if err := db.SetMeta(env.DB, id, k, v); err != nil {
			return changed, err
		}
		changed = true
	}
	return changed, nil
}
