package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Source is a directory of template packs, optionally served under URL.
type Source struct {
	Dir string `json:"dir"`
	URL string `json:"url,omitempty"`
}

// Config holds application configuration.
type Config struct {
	// CatalogURL is the remote catalog listing downloadable packs.
	// NESTA_CATALOG_URL overrides it.
	CatalogURL string `json:"catalog_url,omitempty"`

	// CacheDir is where synced packs are extracted, one directory per pack id.
	// Relative paths resolve against the base directory.
	CacheDir string `json:"cache_dir,omitempty"`

	// TemplateSources are extra pack directories scanned after CacheDir.
	// The first source to declare an id wins.
	TemplateSources []Source `json:"template_sources,omitempty"`

	// SiteURL is the root URL imported content is rewritten to.
	SiteURL string `json:"site_url,omitempty"`

	// SiteName and AdminEmail back the business_name and email tokens
	// when a hydration request leaves them empty.
	SiteName   string `json:"site_name,omitempty"`
	AdminEmail string `json:"admin_email,omitempty"`

	// UploadsDir receives extracted media; UploadsURL is its public prefix.
	UploadsDir string `json:"uploads_dir,omitempty"`
	UploadsURL string `json:"uploads_url,omitempty"`

	// SharedUploadsURL is fetched when a pack points at the shared media archive
	// and no local copy exists.
	SharedUploadsURL string `json:"shared_uploads_url,omitempty"`

	HTTPTimeoutSeconds int `json:"http_timeout_seconds,omitempty"`
	HTTPMaxRedirects   int `json:"http_max_redirects,omitempty"`

	// TokenSchemaPath points at an optional YAML file replacing the built-in schema.
	TokenSchemaPath string `json:"token_schema_path,omitempty"`

	// AllowedPaths is an allowlist of directories raw export files may be
	// imported from, besides ~/.nesta/exports. Relative paths are ignored.
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths lifts the directory restriction on raw imports.
	// Extension and symlink checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool groups to disable entirely.
	// Known types: "pack", "site", "page", "token".
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		CacheDir:           "templates",
		SiteURL:            "http://localhost",
		UploadsDir:         "uploads",
		UploadsURL:         "/uploads",
		HTTPTimeoutSeconds: 15,
		HTTPMaxRedirects:   3,
		LogLevel:           "info",
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

// LoadWithRepo loads configuration from both global (~/.nesta) and repo (.nesta) directories.
// Repo config is found by walking upward from startDir to find the nearest .nesta/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	cfg := Merge(Merge(DefaultConfig(), global), repo)
	applyEnv(cfg)
	return cfg, nil
}

// FindRepoConfig walks upward from startDir to find the nearest .nesta/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".nesta", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Resolve returns p unchanged when absolute, else joined onto baseDir.
func Resolve(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("NESTA_CATALOG_URL")); v != "" {
		cfg.CatalogURL = v
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	return &Config{
		CatalogURL:         pickString(base.CatalogURL, overlay.CatalogURL),
		CacheDir:           pickString(base.CacheDir, overlay.CacheDir),
		SiteURL:            pickString(base.SiteURL, overlay.SiteURL),
		SiteName:           pickString(base.SiteName, overlay.SiteName),
		AdminEmail:         pickString(base.AdminEmail, overlay.AdminEmail),
		UploadsDir:         pickString(base.UploadsDir, overlay.UploadsDir),
		UploadsURL:         pickString(base.UploadsURL, overlay.UploadsURL),
		SharedUploadsURL:   pickString(base.SharedUploadsURL, overlay.SharedUploadsURL),
		TokenSchemaPath:    pickString(base.TokenSchemaPath, overlay.TokenSchemaPath),
		LogLevel:           pickString(base.LogLevel, overlay.LogLevel),
		HTTPTimeoutSeconds: pickInt(base.HTTPTimeoutSeconds, overlay.HTTPTimeoutSeconds),
		HTTPMaxRedirects:   pickInt(base.HTTPMaxRedirects, overlay.HTTPMaxRedirects),
		DBMaxOpenConns:     pickInt(base.DBMaxOpenConns, overlay.DBMaxOpenConns),
		DBMaxIdleConns:     pickInt(base.DBMaxIdleConns, overlay.DBMaxIdleConns),
		AllowUnsafePaths:   base.AllowUnsafePaths || overlay.AllowUnsafePaths,
		AllowedPaths:       mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths),
		TemplateSources:    mergeSources(base.TemplateSources, overlay.TemplateSources),
		DisabledTools:      mergeStringSlice(base.DisabledTools, overlay.DisabledTools),
		DisabledTypes:      mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes),
	}
}

func pickString(base, overlay string) string {
	if overlay != "" {
		return overlay
	}
	return base
}

func pickInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeSources keeps base order first; a repeated dir keeps its first position.
func mergeSources(a, b []Source) []Source {
	seen := make(map[string]bool)
	var result []Source
	for _, s := range append(append([]Source{}, a...), b...) {
		s.Dir = strings.TrimSpace(s.Dir)
		if s.Dir == "" || seen[s.Dir] {
			continue
		}
		seen[s.Dir] = true
		result = append(result, s)
	}
	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
