// ABOUTME: MCP tool definitions and registration for the tierworks server
// ABOUTME: Defines JSON schemas for the ranking session tools
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/tierworks/internal/app"
)

var tierProperty = map[string]interface{}{
	"type":        "string",
	"description": "Tier id: S, A, B, C, D or U (unranked)",
	"enum":        []string{"S", "A", "B", "C", "D", "U"},
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, a *app.App) *Handlers {
	handlers := NewHandlers(a)

	// 1. list_templates - Browse templates available for ranking
	server.AddTool(mcp.Tool{
		Name:        "list_templates",
		Description: "List templates (named sets of items) that can be ranked. Use published_only for the public catalogue.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"published_only": map[string]interface{}{
					"type":        "boolean",
					"description": "Only list published templates (default: false)",
					"default":     false,
				},
			},
		},
	}, handlers.ListTemplates)

	// 2. open_session - Start or resume ranking a template
	server.AddTool(mcp.Tool{
		Name:        "open_session",
		Description: "Open a ranking session on a template. Resumes the saved progress if there is any and starts resolving missing posters in the background.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"template_id": map[string]interface{}{
					"type":        "string",
					"description": "Template to rank",
				},
			},
			Required: []string{"template_id"},
		},
	}, handlers.OpenSession)

	// 3. show_session - Current pool, tiers and selection
	server.AddTool(mcp.Tool{
		Name:        "show_session",
		Description: "Show the open session: unranked pool, every tier in order, and the currently selected item.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ShowSession)

	// 4. move_item - Drag an item to a bucket position
	server.AddTool(mcp.Tool{
		Name:        "move_item",
		Description: "Move an item to a tier or back to the pool, optionally at a position. Unknown items are ignored.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"item_id": map[string]interface{}{
					"type":        "string",
					"description": "Item to move",
				},
				"to": map[string]interface{}{
					"type":        "string",
					"description": "Destination: pool, S, A, B, C, D or U",
				},
				"index": map[string]interface{}{
					"type":        "number",
					"description": "Position in the destination (default: append)",
					"default":     -1,
				},
			},
			Required: []string{"item_id", "to"},
		},
	}, handlers.MoveItem)

	// 5. select_item - Point the cursor at an item
	server.AddTool(mcp.Tool{
		Name:        "select_item",
		Description: "Select an item so assign_selected and skip_selected act on it.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"item_id": map[string]interface{}{
					"type":        "string",
					"description": "Item to select",
				},
			},
			Required: []string{"item_id"},
		},
	}, handlers.SelectItem)

	// 6. assign_selected - Rank the selected item
	server.AddTool(mcp.Tool{
		Name:        "assign_selected",
		Description: "Append the selected item to a tier and advance to the next queued item.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tier": tierProperty,
			},
			Required: []string{"tier"},
		},
	}, handlers.AssignSelected)

	// 7. skip_selected - Defer the selected item
	server.AddTool(mcp.Tool{
		Name:        "skip_selected",
		Description: "Send the selected item to the back of the pool and queue, then advance.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.SkipSelected)

	// 8. clear_tier - Return a tier's items to the pool
	server.AddTool(mcp.Tool{
		Name:        "clear_tier",
		Description: "Move every item in a tier back to the end of the pool, keeping their order.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tier": tierProperty,
			},
			Required: []string{"tier"},
		},
	}, handlers.ClearTier)

	// 9. save_result - Store an immutable copy of the ranking
	server.AddTool(mcp.Tool{
		Name:        "save_result",
		Description: "Save the current tiers as an immutable result.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Optional result title",
				},
			},
		},
	}, handlers.SaveResult)

	// 10. list_results - Saved results, newest first
	server.AddTool(mcp.Tool{
		Name:        "list_results",
		Description: "List saved results, newest first, optionally for one template.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"template_id": map[string]interface{}{
					"type":        "string",
					"description": "Only results ranked from this template",
				},
			},
		},
	}, handlers.ListResults)

	// 11. share_session - Shareable link
	server.AddTool(mcp.Tool{
		Name:        "share_session",
		Description: "Build a share link carrying the session's items and tier placements.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Title shown to recipients (default: template name)",
				},
			},
		},
	}, handlers.ShareSession)

	return handlers
}
