package mcp

import (
	"context"
	stderrors "errors"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/nesta/internal/errors"
	"github.com/hpungsan/nesta/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	env *ops.Env
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(env *ops.Env) *Handlers {
	return &Handlers{env: env}
}

// Request types for each tool

// PackListRequest represents the arguments for pack_list.
type PackListRequest struct {
	Limit   int  `json:"limit,omitempty"`
	Offset  int  `json:"offset,omitempty"`
	Refresh bool `json:"refresh,omitempty"`
}

// PackGetRequest represents the arguments for pack_get.
type PackGetRequest struct {
	ID string `json:"id"`
}

// PackMarkupRequest represents the arguments for pack_markup.
type PackMarkupRequest struct {
	PackID string   `json:"pack_id"`
	Page   string   `json:"page"`
	Tokens tokenMap `json:"tokens,omitempty"`
}

// PackSyncRequest represents the arguments for pack_sync.
type PackSyncRequest struct {
	CatalogURL string `json:"catalog_url,omitempty"`
}

// PackInstallRequest represents the arguments for pack_install.
type PackInstallRequest struct {
	PackID string `json:"pack_id"`
}

// SiteGenerateRequest represents the arguments for site_generate.
type SiteGenerateRequest struct {
	PackID    string     `json:"pack_id,omitempty"`
	Tokens    tokenMap   `json:"tokens,omitempty"`
	TokenJSON string     `json:"token_json,omitempty"`
	Brand     *ops.Brand `json:"brand,omitempty"`
}

// SiteImportRequest represents the arguments for site_import.
type SiteImportRequest struct {
	Path string `json:"path"`
}

// PageCreateRequest represents the arguments for page_create.
type PageCreateRequest struct {
	Blueprint string   `json:"blueprint"`
	Title     string   `json:"title"`
	Slug      string   `json:"slug,omitempty"`
	Status    string   `json:"status,omitempty"`
	Tokens    tokenMap `json:"tokens,omitempty"`
	TokenJSON string   `json:"token_json,omitempty"`
}

// Handler implementations

// HandlePackList handles the pack_list tool call.
func (h *Handlers) HandlePackList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PackListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.ListPacks(h.env, ops.ListPacksInput{
		Limit:   input.Limit,
		Offset:  input.Offset,
		Refresh: input.Refresh,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePackGet handles the pack_get tool call.
func (h *Handlers) HandlePackGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PackGetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.GetPack(h.env, ops.GetPackInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePackMarkup handles the pack_markup tool call.
func (h *Handlers) HandlePackMarkup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PackMarkupRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.PageMarkup(h.env, ops.PageMarkupInput{
		PackID:  input.PackID,
		PageKey: input.Page,
		Tokens:  input.Tokens,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePackSync handles the pack_sync tool call.
func (h *Handlers) HandlePackSync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PackSyncRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.Sync(ctx, h.env, ops.SyncInput{CatalogURL: input.CatalogURL})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePackInstall handles the pack_install tool call.
func (h *Handlers) HandlePackInstall(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PackInstallRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.Install(ctx, h.env, ops.InstallInput{PackID: input.PackID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSiteGenerate handles the site_generate tool call.
func (h *Handlers) HandleSiteGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SiteGenerateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.Generate(ctx, h.env, ops.GenerateInput{
		PackID:    input.PackID,
		Tokens:    input.Tokens,
		TokenJSON: input.TokenJSON,
		Brand:     input.Brand,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSiteUndo handles the site_undo tool call.
func (h *Handlers) HandleSiteUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Undo(ctx, h.env)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSiteReset handles the site_reset tool call.
func (h *Handlers) HandleSiteReset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Reset(ctx, h.env)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSiteStatus handles the site_status tool call.
func (h *Handlers) HandleSiteStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Status(h.env)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSiteImport handles the site_import tool call.
func (h *Handlers) HandleSiteImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SiteImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.Import(ctx, h.env, ops.ImportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePageCreate handles the page_create tool call.
func (h *Handlers) HandlePageCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PageCreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.CreatePage(ctx, h.env, ops.CreatePageInput{
		Blueprint: input.Blueprint,
		Title:     input.Title,
		Slug:      input.Slug,
		Status:    input.Status,
		Tokens:    input.Tokens,
		TokenJSON: input.TokenJSON,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleTokenSchema handles the token_schema tool call.
func (h *Handlers) HandleTokenSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.Schema(h.env))
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Internal error details are never exposed.
func errorResult(err error) *mcp.CallToolResult {
	var errorObj map[string]any

	if ne, ok := errors.As(err); ok {
		errorObj = map[string]any{
			"code":    ne.Code,
			"message": ne.Message,
			"status":  ne.Status,
		}
		if ne.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
		} else if ne.Details != nil {
			errorObj["details"] = ne.Details
		}
	} else if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		errorObj = map[string]any{
			"code":    "CANCELLED",
			"message": err.Error(),
			"status":  499,
		}
	} else {
		errorObj = map[string]any{
			"code":    errors.ErrInternal,
			"message": "an internal error occurred",
			"status":  500,
		}
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
