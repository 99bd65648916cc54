// ABOUTME: MCP tool handler implementations for the tierworks server
// ABOUTME: One open session at a time; poster backfill follows the open session
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/harper/tierworks/internal/app"
	"github.com/harper/tierworks/internal/core"
	"github.com/harper/tierworks/internal/models"
	"github.com/harper/tierworks/internal/share"
)

var errNoSession = errors.New("no session open; call open_session first")

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	app *app.App

	mu             sync.Mutex
	session        *core.Session
	cancelBackfill context.CancelFunc
	backfills      sync.WaitGroup // Track background poster lookups
}

// NewHandlers creates handlers bound to a
func NewHandlers(a *app.App) *Handlers {
	return &Handlers{app: a}
}

func (h *Handlers) current() (*core.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.session == nil {
		return nil, errNoSession
	}
	return h.session, nil
}

// jsonResult marshals response into a text tool result
func jsonResult(response interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// withNotices adds sync notices gathered since the last call
func (h *Handlers) withNotices(response map[string]interface{}) map[string]interface{} {
	if notices := h.app.Notices(); len(notices) > 0 {
		msgs := make([]string, 0, len(notices))
		for _, n := range notices {
			msgs = append(msgs, n.Error())
		}
		response["notices"] = msgs
	}
	return response
}

func (h *Handlers) sessionResponse(sess *core.Session, extra map[string]interface{}) (*mcp.CallToolResult, error) {
	response := map[string]interface{}{
		"template_id": sess.Key(),
		"session":     sess.View(),
	}
	for k, v := range extra {
		response[k] = v
	}
	return jsonResult(h.withNotices(response))
}

// ListTemplates handles the list_templates tool
func (h *Handlers) ListTemplates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		templates []models.Template
		err       error
	)
	if request.GetBool("published_only", false) {
		templates, err = h.app.Store.ListPublished(ctx)
	} else {
		templates, err = h.app.Store.ListTemplates(ctx)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list templates: %v", err)), nil
	}

	summaries := make([]map[string]interface{}, 0, len(templates))
	for _, tpl := range templates {
		summaries = append(summaries, map[string]interface{}{
			"id":          tpl.ID,
			"name":        tpl.Name,
			"description": tpl.Description,
			"items":       len(tpl.Items),
			"published":   tpl.Published,
			"created_at":  tpl.CreatedAt,
		})
	}
	return jsonResult(map[string]interface{}{"templates": summaries})
}

// OpenSession handles the open_session tool
func (h *Handlers) OpenSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, err := request.RequireString("template_id")
	if err != nil {
		return mcp.NewToolResultError("template_id argument is required and must be a string"), nil
	}

	// The previous backfill must stop before the new session loads, or its
	// updates could land on the snapshot the new session reads
	h.mu.Lock()
	if h.cancelBackfill != nil {
		h.cancelBackfill()
		h.cancelBackfill = nil
	}
	h.mu.Unlock()

	sess, err := h.app.OpenSession(ctx, templateID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	h.mu.Lock()
	bgCtx, cancel := context.WithCancel(context.Background())
	h.session = sess
	h.cancelBackfill = cancel
	h.mu.Unlock()

	// Resolve posters after responding; a later open_session cancels this
	h.backfills.Add(1)
	go func() {
		defer h.backfills.Done()
		h.backfill(bgCtx, sess)
	}()

	return h.sessionResponse(sess, nil)
}

// backfill looks up posters for sess and applies them only while sess is
// still the open session and the lookup was not cancelled
func (h *Handlers) backfill(ctx context.Context, sess *core.Session) {
	updates, err := h.app.LookupPosters(ctx, sess)
	if err != nil && !errors.Is(err, context.Canceled) {
		h.app.Logger.Warn("poster backfill failed", zap.String("template", sess.Key()), zap.Error(err))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if ctx.Err() != nil || h.session != sess {
		h.app.Logger.Debug("poster backfill abandoned", zap.String("template", sess.Key()), zap.Int("dropped", len(updates)))
		return
	}
	n := sess.ApplyPosterUpdates(updates)
	h.app.Logger.Debug("poster backfill finished", zap.String("template", sess.Key()), zap.Int("updated", n))
}

// ShowSession handles the show_session tool
func (h *Handlers) ShowSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := h.current()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return h.sessionResponse(sess, nil)
}

// MoveItem handles the move_item tool
func (h *Handlers) MoveItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := h.current()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	itemID, err := request.RequireString("item_id")
	if err != nil {
		return mcp.NewToolResultError("item_id argument is required and must be a string"), nil
	}
	toStr, err := request.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError("to argument is required and must be a string"), nil
	}
	to, err := models.ParseBucket(toStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	moved := sess.MoveTo(itemID, to, request.GetInt("index", -1))
	return h.sessionResponse(sess, map[string]interface{}{"moved": moved})
}

// SelectItem handles the select_item tool
func (h *Handlers) SelectItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := h.current()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	itemID, err := request.RequireString("item_id")
	if err != nil {
		return mcp.NewToolResultError("item_id argument is required and must be a string"), nil
	}

	selected := sess.Select(itemID)
	return h.sessionResponse(sess, map[string]interface{}{"selected": selected})
}

func requireTier(request mcp.CallToolRequest) (models.Bucket, error) {
	tierStr, err := request.RequireString("tier")
	if err != nil {
		return 0, errors.New("tier argument is required and must be a string")
	}
	return models.ParseTier(tierStr)
}

// AssignSelected handles the assign_selected tool
func (h *Handlers) AssignSelected(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := h.current()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tier, err := requireTier(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id, err := sess.Assign(tier)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return h.sessionResponse(sess, map[string]interface{}{"assigned": id, "tier": tier})
}

// SkipSelected handles the skip_selected tool
func (h *Handlers) SkipSelected(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := h.current()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id, err := sess.Skip()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return h.sessionResponse(sess, map[string]interface{}{"skipped": id})
}

// ClearTier handles the clear_tier tool
func (h *Handlers) ClearTier(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := h.current()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tier, err := requireTier(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	n, err := sess.ClearTier(tier)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return h.sessionResponse(sess, map[string]interface{}{"cleared": n})
}

// SaveResult handles the save_result tool
func (h *Handlers) SaveResult(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := h.current()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := sess.SaveResult(request.GetString("title", ""))
	if err := h.app.Store.SaveResult(ctx, result); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save result: %v", err)), nil
	}

	return jsonResult(h.withNotices(map[string]interface{}{
		"result_id": result.ID,
		"title":     result.DisplayTitle(),
		"ranked":    result.Tiers.Count(),
	}))
}

// ListResults handles the list_results tool
func (h *Handlers) ListResults(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	results, err := h.app.Store.ListResults(ctx, request.GetString("template_id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list results: %v", err)), nil
	}

	summaries := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		summaries = append(summaries, map[string]interface{}{
			"id":          r.ID,
			"title":       r.DisplayTitle(),
			"template_id": r.SourceTemplateID,
			"created_at":  r.CreatedAt,
			"ranked":      r.Tiers.Count(),
		})
	}
	return jsonResult(map[string]interface{}{"results": summaries})
}

// ShareSession handles the share_session tool
func (h *Handlers) ShareSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := h.current()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tpl := &models.Template{
		ID:    sess.Key(),
		Name:  request.GetString("title", sess.Name()),
		Items: sess.Items(),
	}
	payload := share.FromTemplate(tpl, sess.Placements())
	link, err := share.BuildURL(h.app.Config.ShareBaseURL, payload)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build share link: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"url":        link,
		"items":      len(payload.Items),
		"placements": len(payload.Placements),
	})
}

// Shutdown cancels poster lookups and waits for them to stop
func (h *Handlers) Shutdown() {
	h.mu.Lock()
	if h.cancelBackfill != nil {
		h.cancelBackfill()
	}
	h.mu.Unlock()
	h.backfills.Wait()
}
