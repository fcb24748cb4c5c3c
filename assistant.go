package siteforge

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/siteforge/assist"
	"github.com/eringen/siteforge/builder"
)

func (a *App) handleAssistModels(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"models": assist.AvailableModels()})
}

// handleAssistChat runs one drafting conversation turn. When the request
// names a page, that page's current content is shown to the model on the
// conversation's first turn.
func (a *App) handleAssistChat(c echo.Context) error {
	var req struct {
		Message string `json:"message"`
		Model   string `json:"model"`
		PageID  string `json:"page_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "no message provided")
	}
	if req.Model == "" {
		req.Model = assist.DefaultModel
	}

	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	site, err := t.config.SiteConfig(ctx)
	if err != nil {
		return err
	}
	var page *builder.PageConfig
	if req.PageID != "" {
		page, err = t.config.PageConfig(ctx, req.PageID)
		if err != nil {
			return err
		}
	}

	result, err := a.Assist.Chat(ctx, sessionID(c), req.Message, req.Model, site, page)
	if err != nil {
		c.Logger().Errorf("assist chat: %v", err)
		return echo.NewHTTPError(http.StatusBadGateway, "the assistant is unavailable right now")
	}

	resp := map[string]any{
		"success":             true,
		"message":             result.Message,
		"usage":               result.Usage,
		"model":               result.Model,
		"conversation_length": result.ConversationLength,
	}
	if result.Draft != nil {
		errs := assist.ValidateComponents(a.Catalog, result.Draft.Components)
		resp["draft"] = result.Draft
		resp["draft_errors"] = errs
		resp["draft_valid"] = len(errs) == 0
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *App) handleAssistReset(c echo.Context) error {
	a.Assist.ClearConversation(sessionID(c))
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// handleAssistApply validates a draft, materializes it as a page, saves
// it, and publishes it. An existing page id overwrites that page's main
// slot content; a new id is registered through the normal add-page path
// first so navigation stays consistent.
func (a *App) handleAssistApply(c echo.Context) error {
	var req struct {
		PageID string       `json:"page_id"`
		Draft  assist.Draft `json:"draft"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Draft.Components) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "draft has no components")
	}
	if errs := assist.ValidateComponents(a.Catalog, req.Draft.Components); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "draft is invalid", "details": errs})
	}

	pageID := PageID(req.PageID, req.Draft.PageTitle)
	if pageID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "page id cannot be empty")
	}

	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	draft := assist.PreparePageData(&req.Draft, pageID, time.Now())

	existing, err := t.config.PageConfig(ctx, pageID)
	if err != nil {
		return err
	}
	if existing == nil {
		if _, err := t.publish.AddPage(ctx, pageID, draft.Title); err != nil {
			return err
		}
		page, err := t.config.PageConfig(ctx, pageID)
		if err != nil {
			return err
		}
		existing = page
	}

	existing.Title = draft.Title
	existing.MetaDescription = draft.MetaDescription
	existing.Slots["main"] = draft.Slots["main"]

	if err := t.config.SavePageConfig(ctx, pageID, existing); err != nil {
		return err
	}
	if err := t.publish.PublishPage(ctx, pageID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "page": existing})
}
