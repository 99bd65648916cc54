// ABOUTME: Tests for MCP tool handlers over a temporary SQLite store
// ABOUTME: Drives a full rank-save-share flow through the tool surface
package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/harper/tierworks/internal/app"
	"github.com/harper/tierworks/internal/config"
	"github.com/harper/tierworks/internal/models"
	"github.com/harper/tierworks/internal/share"
)

func newTestHandlers(t *testing.T) (*Handlers, *models.Template) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		DBPath:        filepath.Join(dir, "tierworks.db"),
		Timeout:       time.Second,
		MaxImageBytes: 1024,
		PosterRoot:    filepath.Join(dir, "public"),
		PosterFolders: []string{"posters"},
		ShareBaseURL:  "https://example.test/share",
		LogLevel:      "info",
	}
	a, err := app.New(cfg, nil)
	require.NoError(t, err)

	h := NewHandlers(a)
	t.Cleanup(func() {
		h.Shutdown()
		_ = a.Close()
	})

	tpl, err := models.NewTemplate("Crime", []models.Item{
		{ID: "x", Title: "X"},
		{ID: "y", Title: "Y"},
		{ID: "z", Title: "Z"},
	})
	require.NoError(t, err)
	require.NoError(t, a.Store.SaveTemplate(context.Background(), tpl))
	return h, tpl
}

func call(t *testing.T, fn func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (map[string]any, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args

	res, err := fn(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	if res.IsError {
		return map[string]any{"error": text.Text}, false
	}

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out, true
}

func tierIDs(t *testing.T, resp map[string]any, tier string) []string {
	t.Helper()
	sess := resp["session"].(map[string]any)
	tiers := sess["tiers"].(map[string]any)
	raw, _ := tiers[tier].([]any)
	ids := make([]string, 0, len(raw))
	for _, it := range raw {
		ids = append(ids, it.(map[string]any)["id"].(string))
	}
	return ids
}

func TestToolsRequireOpenSession(t *testing.T) {
	h, _ := newTestHandlers(t)

	_, ok := call(t, h.ShowSession, nil)
	require.False(t, ok)
	_, ok = call(t, h.SkipSelected, nil)
	require.False(t, ok)
}

func TestListTemplates(t *testing.T) {
	h, tpl := newTestHandlers(t)

	resp, ok := call(t, h.ListTemplates, nil)
	require.True(t, ok)
	templates := resp["templates"].([]any)
	require.Len(t, templates, 1)
	require.Equal(t, tpl.ID, templates[0].(map[string]any)["id"])

	resp, ok = call(t, h.ListTemplates, map[string]any{"published_only": true})
	require.True(t, ok)
	require.Empty(t, resp["templates"])
}

func TestOpenSessionUnknownTemplate(t *testing.T) {
	h, _ := newTestHandlers(t)

	resp, ok := call(t, h.OpenSession, map[string]any{"template_id": "nope"})
	require.False(t, ok)
	require.Contains(t, resp["error"], "template not found")
}

func TestRankingFlow(t *testing.T) {
	h, tpl := newTestHandlers(t)

	_, ok := call(t, h.OpenSession, map[string]any{"template_id": tpl.ID})
	require.True(t, ok)

	resp, ok := call(t, h.MoveItem, map[string]any{"item_id": "y", "to": "S"})
	require.True(t, ok)
	require.Equal(t, true, resp["moved"])

	resp, ok = call(t, h.MoveItem, map[string]any{"item_id": "x", "to": "s", "index": 0})
	require.True(t, ok)
	require.Equal(t, []string{"x", "y"}, tierIDs(t, resp, "S"))

	resp, ok = call(t, h.MoveItem, map[string]any{"item_id": "ghost", "to": "A"})
	require.True(t, ok)
	require.Equal(t, false, resp["moved"])

	_, ok = call(t, h.SelectItem, map[string]any{"item_id": "z"})
	require.True(t, ok)
	resp, ok = call(t, h.AssignSelected, map[string]any{"tier": "B"})
	require.True(t, ok)
	require.Equal(t, "z", resp["assigned"])
	require.Equal(t, []string{"z"}, tierIDs(t, resp, "B"))

	_, ok = call(t, h.AssignSelected, map[string]any{"tier": "pool"})
	require.False(t, ok, "pool is not a tier")

	resp, ok = call(t, h.SaveResult, map[string]any{"title": "Mine"})
	require.True(t, ok)
	require.Equal(t, "Mine", resp["title"])
	require.EqualValues(t, 3, resp["ranked"])

	resp, ok = call(t, h.ListResults, map[string]any{"template_id": tpl.ID})
	require.True(t, ok)
	require.Len(t, resp["results"], 1)

	resp, ok = call(t, h.ClearTier, map[string]any{"tier": "S"})
	require.True(t, ok)
	require.EqualValues(t, 2, resp["cleared"])
	require.Empty(t, tierIDs(t, resp, "S"))
}

func TestShareSession(t *testing.T) {
	h, tpl := newTestHandlers(t)

	_, ok := call(t, h.OpenSession, map[string]any{"template_id": tpl.ID})
	require.True(t, ok)
	_, ok = call(t, h.MoveItem, map[string]any{"item_id": "x", "to": "A"})
	require.True(t, ok)

	resp, ok := call(t, h.ShareSession, map[string]any{"title": "Look"})
	require.True(t, ok)

	payload, valid := share.FromURL(resp["url"].(string))
	require.True(t, valid)
	require.Equal(t, "Look", payload.Title)
	require.Len(t, payload.Items, 3)
	require.Equal(t, map[string]models.Bucket{"x": models.TierA}, payload.Placements)
}

func TestReopenResumesProgress(t *testing.T) {
	h, tpl := newTestHandlers(t)

	_, ok := call(t, h.OpenSession, map[string]any{"template_id": tpl.ID})
	require.True(t, ok)
	_, ok = call(t, h.MoveItem, map[string]any{"item_id": "x", "to": "D"})
	require.True(t, ok)
	require.NoError(t, h.app.Writer.Flush(context.Background()))

	resp, ok := call(t, h.OpenSession, map[string]any{"template_id": tpl.ID})
	require.True(t, ok)
	require.Equal(t, []string{"x"}, tierIDs(t, resp, "D"))
}

func TestReopenAbandonsPosterBackfill(t *testing.T) {
	h, tpl := newTestHandlers(t)
	ctx := context.Background()

	// "x" resolves at once; the rest wait until their backfill is cancelled
	started := make(chan string, 16)
	h.app.Posters = func(ctx context.Context, it models.Item) (string, error) {
		started <- it.ID
		if it.ID == "x" {
			return "poster-x.jpg", nil
		}
		<-ctx.Done()
		return "", ctx.Err()
	}

	_, ok := call(t, h.OpenSession, map[string]any{"template_id": tpl.ID})
	require.True(t, ok)
	for i := 0; i < len(tpl.Items); i++ {
		<-started
	}

	_, ok = call(t, h.OpenSession, map[string]any{"template_id": tpl.ID})
	require.True(t, ok)
	resp, ok := call(t, h.MoveItem, map[string]any{"item_id": "x", "to": "S"})
	require.True(t, ok)
	require.Equal(t, []string{"x"}, tierIDs(t, resp, "S"))

	h.Shutdown()
	require.NoError(t, h.app.Writer.Flush(ctx))

	snap, err := h.app.Store.LoadPartitionSnapshot(ctx, tpl.ID)
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Len(t, snap.Tiers[models.TierS], 1)
	require.Equal(t, "x", snap.Tiers[models.TierS][0].ID)
	require.Empty(t, snap.Tiers[models.TierS][0].ImageRef)
	require.Len(t, snap.PoolItems, 2)
}
