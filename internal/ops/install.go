package ops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hpungsan/nesta/internal/bundle"
	"github.com/hpungsan/nesta/internal/catalog"
	"github.com/hpungsan/nesta/internal/content"
	"github.com/hpungsan/nesta/internal/db"
	"github.com/hpungsan/nesta/internal/errors"
	"github.com/hpungsan/nesta/internal/importer"
	"github.com/hpungsan/nesta/internal/tokens"
)

// Primary navigation defaults.
const (
	DefaultMenuName = "Primary Menu"
	DefaultMenuSlug = "primary-menu"
	PrimaryLocation = "primary"
)

// InstallInput contains parameters for the Install operation.
type InstallInput struct {
	PackID string // required
}

// InstallOutput contains the result of the Install operation.
type InstallOutput struct {
	GenerationID string `json:"generation_id"`
	PackID       string `json:"pack_id"`
	*importer.Result
	UploadsExtracted bool  `json:"uploads_extracted"`
	MenuID           int64 `json:"menu_id,omitempty"`
}

// Install imports a pack's export bundle, extracts its media, rebuilds the
// primary navigation, applies its style settings and records the install.
// Running it again updates the same records.
func Install(ctx context.Context, env *Env, input InstallInput) (*InstallOutput, error) {
	id := strings.TrimSpace(input.PackID)
	if id == "" {
		return nil, errors.NewInvalidRequest("pack id is required")
	}
	pack, err := GetPack(env, GetPackInput{ID: id})
	if err != nil {
		return nil, err
	}
	if pack.Bundle == nil || (pack.Bundle.Export == "" && pack.Bundle.Uploads == "") {
		return nil, errors.NewConfiguration("pack " + id + " does not define bundle files")
	}
	exportPath := pack.Path(pack.Bundle.Export)
	if exportPath == "" || !fileExists(exportPath) {
		return nil, errors.NewNotFound("template export", id)
	}
	log := env.logger().With("pack", id)

	out := &InstallOutput{PackID: id}
	if archive := resolveUploads(ctx, env, pack); archive != "" {
		if err := bundle.ExtractZip(archive, env.UploadsDir()); err != nil {
			return nil, errors.NewFilesystem("unzip uploads archive", archive, err)
		}
		out.UploadsExtracted = true
		log.Info("uploads extracted", "archive", archive)
	}

	res, err := env.importer().ImportFile(ctx, exportPath)
	if err != nil {
		return nil, err
	}
	out.Result = res

	if err := ensureServiceAlias(env); err != nil {
		return nil, err
	}
	menuID, err := ensurePrimaryNavigation(env, pack, res.PageIDs)
	if err != nil {
		return nil, err
	}
	out.MenuID = menuID

	if err := applyCustomizer(env.DB, pack); err != nil {
		return nil, err
	}

	gen := &Generation{
		ID:          newID(),
		PackID:      id,
		PageIDs:     res.PageIDs,
		Created:     res.Created,
		Updated:     res.Updated,
		InstalledAt: time.Now().Unix(),
	}
	if err := saveGeneration(env.DB, gen); err != nil {
		return nil, err
	}
	out.GenerationID = gen.ID

	log.Info("pack installed", "created", res.Created, "updated", res.Updated, "pages", len(res.PageIDs))
	return out, nil
}

// resolveUploads finds the media archive of a pack: the pack-relative file,
// else the shared archive when the pack points at it. "" means no archive.
func resolveUploads(ctx context.Context, env *Env, pack *catalog.Pack) string {
	rel := strings.TrimLeft(strings.TrimSpace(pack.Bundle.Uploads), "/")
	if rel == "" {
		return ""
	}
	if p := pack.Path(rel); p != "" && fileExists(p) {
		return p
	}
	if strings.Contains(filepath.ToSlash(rel), "shared/"+bundle.SharedUploadsFile) {
		return env.sharedAssets().Ensure(ctx)
	}
	env.logger().Warn("uploads archive missing", "pack", pack.ID, "path", rel)
	return ""
}

// ensureServiceAlias retitles the legacy service component to the title the
// page builder looks up, unless that title already exists. The slug is kept
// so a reinstall updates the same record.
func ensureServiceAlias(env *Env) error {
	bp := tokens.Blueprints()["service"]
	if _, err := db.GetByTitle(env.DB, content.KindReusable, bp.Component); err == nil {
		return nil
	} else if !errors.Is(err, errors.ErrNotFound) {
		return err
	}

	legacy, err := db.GetByTitle(env.DB, content.KindReusable, bp.LegacyComponent)
	if errors.Is(err, errors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	legacy.Title = bp.Component
	legacy.Status = content.StatusPublish
	if err := db.UpdateRecord(env.DB, legacy); err != nil {
		return err
	}
	env.logger().Info("service component renamed", "id", legacy.ID, "title", bp.Component)
	return nil
}

// ensurePrimaryNavigation rebuilds the primary menu from the manifest pages
// that were imported, in manifest order. Returns 0 when nothing was built.
func ensurePrimaryNavigation(env *Env, pack *catalog.Pack, pageIDs map[string]int64) (int64, error) {
	if len(pageIDs) == 0 {
		return 0, nil
	}
	byKey := make(map[string]int64, len(pageIDs))
	for k, v := range pageIDs {
		byKey[strings.ToLower(k)] = v
	}

	name, slug := DefaultMenuName, DefaultMenuSlug
	if pack.Navigation != nil && pack.Navigation.Primary != nil {
		if n := tokens.SanitizeText(pack.Navigation.Primary.Name); n != "" {
			name = n
		}
		if s := content.Slugify(pack.Navigation.Primary.Slug); s != "" {
			slug = s
		}
	}

	var items []db.MenuItem
	for _, page := range pack.OrderedPages() {
		if page.Slug == "" {
			continue
		}
		id, ok := byKey[strings.ToLower(page.Slug)]
		if !ok {
			continue
		}
		title := page.Title
		if rec, err := db.GetRecord(env.DB, id); err == nil && rec.Title != "" {
			title = rec.Title
		}
		items = append(items, db.MenuItem{Title: title, RecordID: id, Position: len(items) + 1})
	}
	if len(items) == 0 {
		return 0, nil
	}
	return db.ReplaceMenu(env.DB, name, slug, PrimaryLocation, items)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
