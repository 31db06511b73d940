package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/nesta/internal/ops"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"pack", "site", "page", "token"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"pack_list": {
		def:     packListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePackList },
	},
	"pack_get": {
		def:     packGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePackGet },
	},
	"pack_markup": {
		def:     packMarkupToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePackMarkup },
	},
	"pack_sync": {
		def:     packSyncToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePackSync },
	},
	"pack_install": {
		def:     packInstallToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePackInstall },
	},
	"site_generate": {
		def:     siteGenerateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSiteGenerate },
	},
	"site_undo": {
		def:     siteUndoToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSiteUndo },
	},
	"site_reset": {
		def:     siteResetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSiteReset },
	},
	"site_status": {
		def:     siteStatusToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSiteStatus },
	},
	"site_import": {
		def:     siteImportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSiteImport },
	},
	"page_create": {
		def:     pageCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePageCreate },
	},
	"token_schema": {
		def:     tokenSchemaToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTokenSchema },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "pack_sync" → "pack").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}
	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with Nesta tools registered.
// Tools listed in the config's DisabledTools or belonging to its
// DisabledTypes are excluded from registration.
func NewServer(env *ops.Env, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"nesta",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	h := NewHandlers(env)

	disabled := make(map[string]bool)
	if cfg := env.Config; cfg != nil {
		for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
			disabled[tool] = true
		}
		for _, name := range cfg.DisabledTools {
			disabled[name] = true
		}
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run starts the MCP server using stdio transport.
func Run(env *ops.Env, version string) error {
	return server.ServeStdio(NewServer(env, version))
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
