package mcp

import "github.com/mark3labs/mcp-go/mcp"

var stringValues = map[string]any{"type": []string{"string", "number", "boolean"}}

var brandProperties = map[string]any{
	"primary_color":   map[string]any{"type": "string", "description": "Hex color, e.g. #d65a16"},
	"secondary_color": map[string]any{"type": "string"},
	"accent_color":    map[string]any{"type": "string"},
	"text_color":      map[string]any{"type": "string"},
	"heading_font":    map[string]any{"type": "string"},
	"body_font":       map[string]any{"type": "string"},
	"logo_id":         map[string]any{"type": "integer", "description": "Local attachment id; 0 removes the logo"},
}

var packListToolDef = mcp.NewTool("pack_list",
	mcp.WithDescription("List the available template packs, ordered by id."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)"), mcp.Min(1), mcp.Max(100)),
	mcp.WithNumber("offset", mcp.Description("Items to skip"), mcp.Min(0)),
	mcp.WithBoolean("refresh", mcp.Description("Rescan the pack directories first")),
)

var packGetToolDef = mcp.NewTool("pack_get",
	mcp.WithDescription("Return the full manifest of one template pack."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("id", mcp.Required(), mcp.Description("Pack id")),
)

var packMarkupToolDef = mcp.NewTool("pack_markup",
	mcp.WithDescription("Render one page of a pack with token values substituted. Returns empty markup when the page is missing."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("pack_id", mcp.Required()),
	mcp.WithString("page", mcp.Required(), mcp.Description("Page key from the manifest")),
	mcp.WithObject("tokens", mcp.Description("Token values by key"), mcp.AdditionalProperties(stringValues)),
)

var packSyncToolDef = mcp.NewTool("pack_sync",
	mcp.WithDescription("Download new or changed packs from the remote catalog."),
	mcp.WithString("catalog_url", mcp.Description("Overrides the configured catalog URL")),
)

var packInstallToolDef = mcp.NewTool("pack_install",
	mcp.WithDescription("Import a pack's export bundle and media, build the primary menu and apply its style settings. Reinstalling updates the same records."),
	mcp.WithIdempotentHintAnnotation(true),
	mcp.WithString("pack_id", mcp.Required()),
)

var siteGenerateToolDef = mcp.NewTool("site_generate",
	mcp.WithDescription("Fill the installed pages with token values, set the front page and apply the brand."),
	mcp.WithString("pack_id", mcp.Description("Defaults to the installed pack")),
	mcp.WithObject("tokens", mcp.Description("Token values by key"), mcp.AdditionalProperties(stringValues)),
	mcp.WithString("token_json", mcp.Description(`JSON token document, optionally wrapped in {"token_map": {...}}`)),
	mcp.WithObject("brand", mcp.Description("Brand overrides"), mcp.Properties(brandProperties)),
)

var siteUndoToolDef = mcp.NewTool("site_undo",
	mcp.WithDescription("Permanently delete every record of the last install."),
	mcp.WithDestructiveHintAnnotation(true),
)

var siteResetToolDef = mcp.NewTool("site_reset",
	mcp.WithDescription("Delete the installed records, the install record and the stored branding."),
	mcp.WithDestructiveHintAnnotation(true),
)

var siteStatusToolDef = mcp.NewTool("site_status",
	mcp.WithDescription("Report the install record, last branding, sync checksums and primary menu."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var siteImportToolDef = mcp.NewTool("site_import",
	mcp.WithDescription("Import a raw .xml export file from an allowed directory."),
	mcp.WithString("path", mcp.Required()),
)

var pageCreateToolDef = mcp.NewTool("page_create",
	mcp.WithDescription("Create a page from a blueprint and fill its tokens."),
	mcp.WithString("blueprint", mcp.Required(), mcp.Enum("service", "location")),
	mcp.WithString("title", mcp.Required()),
	mcp.WithString("slug", mcp.Description("Defaults to the slugified title")),
	mcp.WithString("status", mcp.Enum("draft", "publish")),
	mcp.WithObject("tokens", mcp.Description("Blueprint token values by key"), mcp.AdditionalProperties(stringValues)),
	mcp.WithString("token_json", mcp.Description("JSON token document")),
)

var tokenSchemaToolDef = mcp.NewTool("token_schema",
	mcp.WithDescription("List the fillable tokens by section and the page blueprints."),
	mcp.WithReadOnlyHintAnnotation(true),
)
