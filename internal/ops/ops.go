package ops

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/nesta/internal/bundle"
	"github.com/hpungsan/nesta/internal/catalog"
	"github.com/hpungsan/nesta/internal/config"
	"github.com/hpungsan/nesta/internal/db"
	"github.com/hpungsan/nesta/internal/errors"
	"github.com/hpungsan/nesta/internal/importer"
	"github.com/hpungsan/nesta/internal/tokens"
)

// Option names holding site state.
const (
	GenerationOption = "quick_start_last_generation"
	BrandingOption   = "quick_start_last_branding"

	SiteNameOption    = "blogname"
	ShowOnFrontOption = "show_on_front"
	PageOnFrontOption = "page_on_front"
	SiteIconOption    = "site_icon"
	ThemeModsOption   = "theme_mods"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// SharedDirName is the directory below the uploads root that keeps the shared
// media archive between installs.
const SharedDirName = "nesta-shared"

// Env bundles the collaborators every operation needs.
type Env struct {
	DB      *sql.DB
	Config  *config.Config
	BaseDir string

	Catalog *catalog.Catalog
	Schema  *tokens.Schema
	Fetcher bundle.Fetcher

	Log *slog.Logger
}

// NewEnv wires the catalog, token schema and HTTP fetcher from cfg.
// Relative paths in cfg resolve against baseDir.
func NewEnv(database *sql.DB, cfg *config.Config, baseDir string, log *slog.Logger) (*Env, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	env := &Env{DB: database, Config: cfg, BaseDir: baseDir, Log: log}

	schema, err := tokens.LoadSchema(config.Resolve(baseDir, cfg.TokenSchemaPath))
	if err != nil {
		return nil, errors.NewConfiguration(fmt.Sprintf("token schema: %v", err))
	}
	env.Schema = schema

	sources := []catalog.Source{{Dir: env.CacheDir(), URL: sourceURL("", env.CacheDir())}}
	for _, s := range cfg.TemplateSources {
		dir := config.Resolve(baseDir, s.Dir)
		sources = append(sources, catalog.Source{Dir: dir, URL: sourceURL(s.URL, dir)})
	}
	env.Catalog = catalog.New(env.logger(), sources...)

	env.Fetcher = bundle.NewHTTPFetcher(
		time.Duration(cfg.HTTPTimeoutSeconds)*time.Second,
		cfg.HTTPMaxRedirects,
	)
	return env, nil
}

// sourceURL falls back to a file URL for sources not served over HTTP.
func sourceURL(u, dir string) string {
	if u != "" {
		return u
	}
	return "file://" + filepath.ToSlash(dir)
}

func (e *Env) logger() *slog.Logger {
	if e.Log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e.Log
}

func (e *Env) config() *config.Config {
	if e.Config == nil {
		return config.DefaultConfig()
	}
	return e.Config
}

// CacheDir is where synced packs live.
func (e *Env) CacheDir() string {
	return config.Resolve(e.BaseDir, e.config().CacheDir)
}

// UploadsDir is the media root.
func (e *Env) UploadsDir() string {
	return config.Resolve(e.BaseDir, e.config().UploadsDir)
}

func (e *Env) schema() *tokens.Schema {
	if e.Schema == nil {
		return tokens.DefaultSchema()
	}
	return e.Schema
}

func (e *Env) importer() *importer.Importer {
	cfg := e.config()
	return &importer.Importer{
		DB:         e.DB,
		SiteURL:    cfg.SiteURL,
		UploadsDir: e.UploadsDir(),
		UploadsURL: cfg.UploadsURL,
		Log:        e.logger(),
	}
}

func (e *Env) sharedAssets() *bundle.SharedAssets {
	return &bundle.SharedAssets{
		Dir:         filepath.Join(e.UploadsDir(), SharedDirName),
		BundledPath: filepath.Join(e.CacheDir(), "shared", bundle.SharedUploadsFile),
		URL:         e.config().SharedUploadsURL,
		Fetcher:     e.Fetcher,
	}
}

// Generation is the record of the last install and content generation.
type Generation struct {
	ID             string           `json:"id,omitempty"`
	PackID         string           `json:"template_id,omitempty"`
	PageIDs        map[string]int64 `json:"page_ids,omitempty"`
	Created        int              `json:"created"`
	Updated        int              `json:"updated"`
	GeneratedAt    string           `json:"generated_at"`
	ContentApplied bool             `json:"content_applied"`
	InstalledAt    int64            `json:"installed_at,omitempty"`
}

// Empty reports whether the record tracks no pages.
func (g *Generation) Empty() bool {
	return g == nil || len(g.PageIDs) == 0
}

// LoadGeneration returns the stored record, or an empty one.
func LoadGeneration(database *sql.DB) (*Generation, error) {
	var g Generation
	if _, err := db.GetOption(database, GenerationOption, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func saveGeneration(database *sql.DB, g *Generation) error {
	return db.SetOption(database, GenerationOption, g)
}

func clearGeneration(database *sql.DB) error {
	return db.SetOption(database, GenerationOption, map[string]any{})
}

func newID() string {
	return ulid.Make().String()
}

// setThemeMod writes one entry of the theme modifications option. A nil
// value removes the entry.
func setThemeMod(database *sql.DB, key string, value any) error {
	mods := map[string]any{}
	if _, err := db.GetOption(database, ThemeModsOption, &mods); err != nil {
		return err
	}
	if mods == nil {
		mods = map[string]any{}
	}
	if value == nil {
		delete(mods, key)
	} else {
		mods[key] = value
	}
	return db.SetOption(database, ThemeModsOption, mods)
}
