// Package importer materializes an export document as local records. It
// runs in two phases (attachments, then content in document order) and
// finishes with a pass that repairs reusable-component references.
package importer

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"strconv"

	"github.com/hpungsan/nesta/internal/blocks"
	"github.com/hpungsan/nesta/internal/content"
	"github.com/hpungsan/nesta/internal/db"
	"github.com/hpungsan/nesta/internal/errors"
	"github.com/hpungsan/nesta/internal/export"
)

// IdentityMap translates source ids of one export to local record ids. It
// lives for a single import run.
type IdentityMap map[int64]int64

// Result summarizes an import run.
type Result struct {
	Created int `json:"created"`
	Updated int `json:"updated"`

	// PageIDs maps a page key (the slug, or kind_localID) to the local id of
	// every non-attachment record
	PageIDs map[string]int64 `json:"page_ids"`

	// AttachmentIDs maps source attachment ids to local ids
	AttachmentIDs IdentityMap `json:"attachment_ids"`

	AttachmentFailures int `json:"attachment_failures"`

	// Unresolved lists referenced source ids that no imported record carried
	Unresolved []int64 `json:"unresolved,omitempty"`

	// Repaired counts records whose references were rewritten after import
	Repaired int `json:"repaired"`
}

// Importer writes export records into the local store.
type Importer struct {
	DB *sql.DB

	// SiteURL replaces the export's base site and blog URLs
	SiteURL string

	// UploadsDir and UploadsURL locate media files on disk and on the site
	UploadsDir string
	UploadsURL string

	Log *slog.Logger
}

func (im *Importer) logger() *slog.Logger {
	if im.Log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return im.Log
}

// ImportFile parses and imports the export at path.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := export.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return im.Import(ctx, doc)
}

// Import writes doc. Attachment failures are counted; a content record that
// cannot be written aborts the run without rolling back earlier writes.
func (im *Importer) Import(ctx context.Context, doc *export.Document) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := im.logger()

	res := &Result{
		PageIDs:       make(map[string]int64),
		AttachmentIDs: make(IdentityMap),
	}
	ids := make(IdentityMap)

	for _, rec := range doc.Records {
		if rec.Kind != content.KindAttachment {
			continue
		}
		localID, created, err := im.importAttachment(rec)
		if err != nil {
			log.Warn("attachment import failed", "slug", rec.Slug, "source_id", rec.SourceID, "error", err)
			res.AttachmentFailures++
			continue
		}
		res.count(created)
		if rec.SourceID > 0 {
			res.AttachmentIDs[rec.SourceID] = localID
			ids[rec.SourceID] = localID
		}
	}

	rw := newRewriter(im.SiteURL, doc.BaseSiteURL, doc.BaseBlogURL, res.AttachmentIDs)
	var imported []int64

	for _, rec := range doc.Records {
		if rec.Kind == content.KindAttachment {
			continue
		}
		local, created, err := im.importContent(rec, rw, ids)
		if err != nil {
			return nil, err
		}
		res.count(created)
		imported = append(imported, local.ID)
		if rec.SourceID > 0 {
			ids[rec.SourceID] = local.ID
		}

		// keyed by the exported slug; the upsert fallback slug is not a page key
		key := rec.Slug
		if key == "" {
			key = string(local.Kind) + "_" + strconv.FormatInt(local.ID, 10)
		}
		res.PageIDs[key] = local.ID
	}

	if err := im.repair(imported, ids, res); err != nil {
		return nil, err
	}

	log.Info("import complete",
		"created", res.Created,
		"updated", res.Updated,
		"attachments", len(res.AttachmentIDs),
		"attachment_failures", res.AttachmentFailures,
		"unresolved", len(res.Unresolved))
	return res, nil
}

func (r *Result) count(created bool) {
	if created {
		r.Created++
	} else {
		r.Updated++
	}
}

// upsert inserts rec or overwrites the existing record with the same kind and slug.
func upsert(conn *sql.DB, rec *content.Record) (bool, error) {
	existing, err := db.GetBySlug(conn, rec.Kind, rec.Slug)
	switch {
	case errors.Is(err, errors.ErrNotFound):
		return true, db.InsertRecord(conn, rec)
	case err != nil:
		return false, err
	}
	rec.ID = existing.ID
	rec.CreatedAt = existing.CreatedAt
	return false, db.UpdateRecord(conn, rec)
}

// slugFor returns the upsert key of a record: its slug, else its slugified
// title, else a name derived from its kind and source id.
func slugFor(rec export.Record) string {
	if rec.Slug != "" {
		return rec.Slug
	}
	if s := content.Slugify(rec.Title); s != "" {
		return s
	}
	if rec.SourceID > 0 {
		return string(rec.Kind) + "-" + strconv.FormatInt(rec.SourceID, 10)
	}
	return string(rec.Kind)
}

func (im *Importer) importContent(rec export.Record, rw *rewriter, ids IdentityMap) (*content.Record, bool, error) {
	status := rec.Status
	if status == "" {
		status = content.StatusPublish
	}
	local := &content.Record{
		Kind:      rec.Kind,
		Status:    status,
		Slug:      slugFor(rec),
		Title:     rec.Title,
		Content:   rw.content(rec.Content),
		Excerpt:   rw.urls(rec.Excerpt),
		MenuOrder: rec.MenuOrder,
		PostDate:  rec.PostDate,
		ParentID:  ids[rec.ParentID],
	}

	created, err := upsert(im.DB, local)
	if err != nil {
		return nil, false, err
	}
	if err := im.copyMeta(local.ID, rec.Meta, rw); err != nil {
		return nil, false, err
	}
	return local, created, nil
}

func (im *Importer) copyMeta(id int64, entries []export.MetaEntry, rw *rewriter) error {
	for _, e := range entries {
		value := rw.meta(e.Key, export.DecodeMetaValue(e.Value))
		if err := db.SetMeta(im.DB, id, e.Key, value); err != nil {
			return err
		}
	}
	return nil
}

// repair rewrites reusable-component references in every imported record
// now that all source ids are known.
func (im *Importer) repair(imported []int64, ids IdentityMap, res *Result) error {
	missing := make(map[int64]bool)

	for _, id := range imported {
		rec, err := db.GetRecord(im.DB, id)
		if err != nil {
			return err
		}
		if rec.Content == "" || !blocks.HasBlocks(rec.Content) {
			continue
		}
		tree := blocks.Parse(rec.Content)
		unresolved, changed := blocks.RepairReferences(tree, ids)
		for _, ref := range unresolved {
			missing[ref] = true
		}
		if !changed {
			continue
		}
		if err := db.UpdateContent(im.DB, id, blocks.Serialize(tree)); err != nil {
			return err
		}
		res.Repaired++
	}

	for ref := range missing {
		res.Unresolved = append(res.Unresolved, ref)
	}
	sort.Slice(res.Unresolved, func(i, j int) bool { return res.Unresolved[i] < res.Unresolved[j] })
	if len(res.Unresolved) > 0 {
		im.logger().Warn("unresolved component references", "source_ids", res.Unresolved)
	}
	return nil
}
