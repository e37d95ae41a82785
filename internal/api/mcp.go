package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/grimoire/internal/identify"
	"github.com/kalambet/grimoire/internal/numerology"
	"github.com/kalambet/grimoire/internal/storage"
)

const recentLimit = 10

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store    *storage.Store
	Identify *identify.Service
	Version  string
}

// NewMCPServer creates an MCP server with the grimoire tools and resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"grimoire",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("grimoire: a crystal collection. Look up stored crystals, normalize vision model answers and compute name numbers."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("get_crystal",
			mcp.WithDescription("Fetch one stored crystal record by id."),
			mcp.WithString("id", mcp.Description("Record id"), mcp.Required()),
		),
		mcpGetCrystal(deps),
	)

	s.AddTool(
		mcp.NewTool("list_crystals",
			mcp.WithDescription("List stored crystal records, newest first."),
			mcp.WithString("owner_id", mcp.Description("Only list records of this owner")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of records (default 20)")),
		),
		mcpListCrystals(deps),
	)

	s.AddTool(
		mcp.NewTool("normalize_response",
			mcp.WithDescription("Normalize a raw vision model answer (JSON, optionally fenced) into a canonical crystal record."),
			mcp.WithString("response", mcp.Description("Raw model answer"), mcp.Required()),
			mcp.WithString("owner_id", mcp.Description("Owner to link the record to")),
			mcp.WithBoolean("save", mcp.Description("Store the normalized record")),
		),
		mcpNormalizeResponse(deps),
	)

	s.AddTool(
		mcp.NewTool("name_number",
			mcp.WithDescription("Compute the numerology number (1-9) of a crystal name."),
			mcp.WithString("name", mcp.Description("Crystal name"), mcp.Required()),
		),
		mcpNameNumber,
	)

	s.AddResource(
		mcp.NewResource(
			"crystals://recent",
			"Recent Crystals",
			mcp.WithResourceDescription(fmt.Sprintf("Last %d stored crystals (summaries only)", recentLimit)),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	return s
}

func mcpGetCrystal(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}
		if deps.Store == nil {
			return mcpError("storage not configured"), nil
		}

		rec, err := deps.Store.GetRecord(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("crystal %s not found", id)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to get crystal: %v", err)), nil
		}
		return mcpJSON(rec)
	}
}

func mcpListCrystals(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Store == nil {
			return mcpError("storage not configured"), nil
		}

		limit := req.GetInt("limit", 20)
		if limit <= 0 {
			limit = 20
		}
		if limit > 100 {
			limit = 100
		}

		recs, err := deps.Store.ListRecords(ctx, storage.ListOptions{
			OwnerID: req.GetString("owner_id", ""),
			Limit:   limit,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list crystals: %v", err)), nil
		}
		return mcpJSON(recs)
	}
}

func mcpNormalizeResponse(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("response")
		if err != nil {
			return mcpError("response is required"), nil
		}
		if deps.Identify == nil {
			return mcpError("normalizer not configured"), nil
		}

		rec, err := deps.Identify.NormalizeText(raw, req.GetString("owner_id", ""))
		if err != nil {
			return mcpError(err.Error()), nil
		}

		if req.GetBool("save", false) {
			if deps.Store == nil {
				return mcpError("storage not configured"), nil
			}
			if err := deps.Store.PutRecord(ctx, rec); err != nil {
				return mcpError(fmt.Sprintf("failed to save crystal: %v", err)), nil
			}
		}
		return mcpJSON(rec)
	}
}

func mcpNameNumber(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcpError("name is required"), nil
	}
	return mcpText(fmt.Sprintf("%d", numerology.NameToNumber(name))), nil
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		if deps.Store == nil {
			return nil, errors.New("storage not configured")
		}
		recs, err := deps.Store.ListRecords(ctx, storage.ListOptions{Limit: recentLimit})
		if err != nil {
			return nil, fmt.Errorf("failed to list recent crystals: %w", err)
		}

		type crystalSummary struct {
			ID         string  `json:"id"`
			Name       string  `json:"name"`
			Color      string  `json:"color"`
			Confidence float64 `json:"confidence"`
			CreatedAt  string  `json:"created_at"`
		}

		summaries := make([]crystalSummary, len(recs))
		for i, rec := range recs {
			summaries[i] = crystalSummary{
				ID:         rec.Core.ID,
				Name:       rec.Core.Identity.Name,
				Color:      rec.Core.Visual.PrimaryColor,
				Confidence: rec.Core.ConfidenceScore,
				CreatedAt:  rec.Core.CreatedAt.Format(time.RFC3339),
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal crystals: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
