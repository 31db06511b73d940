package web

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hpungsan/nesta/internal/errors"
	"github.com/hpungsan/nesta/internal/ops"
)

// Handlers contains HTTP route handlers for the dashboard.
type Handlers struct {
	env      *ops.Env
	renderer *Renderer
}

// screenshotTypes are the image extensions a pack screenshot may have.
var screenshotTypes = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

// HandlePacks handles GET /packs: the pack gallery.
func (h *Handlers) HandlePacks(w http.ResponseWriter, r *http.Request) {
	result, err := ops.ListPacks(h.env, ops.ListPacksInput{
		Limit:   parseIntParam(r, "limit", 20),
		Offset:  parseIntParam(r, "offset", 0),
		Refresh: parseBoolParam(r, "refresh"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	gen, err := ops.LoadGeneration(h.env.DB)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "packs", PacksPageData{
		PageData:   h.renderer.page("Template packs", "packs"),
		Items:      result.Items,
		Pagination: result.Pagination,
		Installed:  gen.PackID,
	})
}

// HandlePack handles GET /packs/{id}: one pack's manifest and pages.
func (h *Handlers) HandlePack(w http.ResponseWriter, r *http.Request) {
	pack, err := ops.GetPack(h.env, ops.GetPackInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	gen, err := ops.LoadGeneration(h.env.DB)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	rows := make([]PageRow, 0, len(pack.PageOrder))
	for _, key := range pack.PageOrder {
		p := pack.Pages[key]
		rows = append(rows, PageRow{Key: key, Title: p.Title, Slug: p.Slug})
	}

	h.renderer.renderPage(w, r, "pack", PackPageData{
		PageData:    h.renderer.page(pack.Name, "packs"),
		Pack:        pack,
		Pages:       rows,
		Description: descriptionHTML(pack.DescriptionHTML),
		Installed:   !gen.Empty() && gen.PackID == pack.ID,
	})
}

// HandleScreenshot handles GET /packs/{id}/screenshot.
func (h *Handlers) HandleScreenshot(w http.ResponseWriter, r *http.Request) {
	pack, err := ops.GetPack(h.env, ops.GetPackInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	path, ok := insideDir(pack.Dir, pack.Path(pack.Screenshot))
	if !ok || !screenshotTypes[strings.ToLower(filepath.Ext(path))] {
		h.renderer.renderError(w, r, errors.NewNotFound("screenshot", pack.ID))
		return
	}
	http.ServeFile(w, r, path)
}

// HandlePreview handles GET /packs/{id}/pages/{page}: the page markup with
// any query parameters substituted as tokens.
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	values := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			values[k] = v[0]
		}
	}

	result, err := ops.PageMarkup(h.env, ops.PageMarkupInput{
		PackID:  r.PathValue("id"),
		PageKey: r.PathValue("page"),
		Tokens:  values,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "preview", PreviewPageData{
		PageData: h.renderer.page(result.PackID+" / "+result.PageKey, "packs"),
		PackID:   result.PackID,
		PageKey:  result.PageKey,
		Markup:   result.Markup,
		Found:    result.Found,
	})
}

// HandleInstall handles POST /packs/{id}/install.
func (h *Handlers) HandleInstall(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Install(r.Context(), h.env, ops.InstallInput{PackID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/site")
		w.WriteHeader(http.StatusOK)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/site", http.StatusFound)
}

// HandleSite handles GET /site: the install record, branding and ledger.
func (h *Handlers) HandleSite(w http.ResponseWriter, r *http.Request) {
	status, err := ops.Status(h.env)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, status)
		return
	}
	h.renderer.renderPage(w, r, "site", SitePageData{
		PageData: h.renderer.page("Site", "site"),
		Status:   status,
	})
}

// HandleUndo handles POST /site/undo: permanently delete the last install.
func (h *Handlers) HandleUndo(w http.ResponseWriter, r *http.Request) {
	if !h.confirmed(w, r) {
		return
	}
	result, err := ops.Undo(r.Context(), h.env)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.respondMessage(w, r, result.Message, map[string]any{
		"removed":         result.Removed,
		"nothing_to_undo": result.NothingToUndo,
		"message":         result.Message,
	})
}

// HandleReset handles POST /site/reset: remove installed records and branding.
func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	if !h.confirmed(w, r) {
		return
	}
	result, err := ops.Reset(r.Context(), h.env)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.respondMessage(w, r, result.Message, map[string]any{
		"removed": result.Removed,
		"message": result.Message,
	})
}

// confirmed requires confirm=true on destructive form posts.
func (h *Handlers) confirmed(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return false
	}
	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return false
	}
	return true
}

// respondMessage answers a destructive action with an HTML fragment, JSON or
// a redirect back to the site page.
func (h *Handlers) respondMessage(w http.ResponseWriter, r *http.Request, message string, payload map[string]any) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<div class="action-result">` + htmlEscape(message) + `</div>`))
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, payload)
		return
	}
	http.Redirect(w, r, "/site", http.StatusFound)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

// insideDir returns path cleaned when it lies below dir.
func insideDir(dir, path string) (string, bool) {
	if dir == "" || path == "" {
		return "", false
	}
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.Clean(path), true
}
