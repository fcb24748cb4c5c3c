package siteforge

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/siteforge/builder"
)

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if wantsJSON(c) {
		a.jsonErrorHandler(err, c)
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

func (a *App) jsonErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if s, ok := he.Message.(string); ok {
			msg = s
		}
	}
	switch {
	case errors.Is(err, builder.ErrNotInitialized):
		code, msg = http.StatusConflict, "site is not initialized"
	case errors.Is(err, builder.ErrPageNotFound):
		code, msg = http.StatusNotFound, "page not found"
	case errors.Is(err, builder.ErrPageExists):
		code, msg = http.StatusConflict, "page already exists"
	case errors.Is(err, builder.ErrTemplateNotFound):
		code, msg = http.StatusBadRequest, "unknown template"
	case errors.Is(err, builder.ErrIndexImmortal):
		code, msg = http.StatusBadRequest, "the index page cannot be deleted"
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
	}
	_ = c.JSON(code, map[string]string{"error": msg})
}

// sessionTenant resolves the engine stack for the logged-in domain.
func (a *App) sessionTenant(c echo.Context) (*tenant, error) {
	domain := SessionDomain(c)
	if domain == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return a.tenant(c.Request().Context(), domain)
}

// handleBuilderDashboard serves the builder entry page: template
// selection for a fresh site, the page list otherwise.
func (a *App) handleBuilderDashboard(c echo.Context) error {
	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	domain := SessionDomain(c)

	site, err := t.config.SiteConfig(ctx)
	if err != nil {
		return err
	}
	if site == nil {
		return Render(c, a.Views.BuilderSetup(domain, a.Catalog.Templates(), a.Catalog.ColorSchemes(), CsrfToken(c)))
	}

	// Prune page ids whose config documents have gone missing, so the
	// dashboard never lists pages that cannot be edited or published.
	if pruned, err := t.publish.Reconcile(ctx); err != nil {
		return err
	} else if len(pruned) > 0 {
		c.Logger().Infof("reconciled site config for %s: pruned %v", domain, pruned)
	}

	pages, _, err := t.publish.ListPages(ctx)
	if err != nil {
		return err
	}
	return Render(c, a.Views.BuilderDashboard(domain, site, pages, a.Catalog.ColorSchemes(), CsrfToken(c)))
}

func (a *App) handleBuilderTemplates(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"templates": a.Catalog.Templates()})
}

func (a *App) handleBuilderComponents(c echo.Context) error {
	category := c.QueryParam("category")
	return c.JSON(http.StatusOK, map[string]any{"components": a.Catalog.Components(category)})
}

func (a *App) handleBuilderColorSchemes(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"color_schemes": a.Catalog.ColorSchemes()})
}

func (a *App) handleBuilderInitSite(c echo.Context) error {
	var req struct {
		TemplateID    string `json:"template_id"`
		ColorSchemeID string `json:"color_scheme_id"`
		SiteName      string `json:"site_name"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.TemplateID == "" || req.ColorSchemeID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "template_id and color_scheme_id required")
	}
	if req.SiteName == "" {
		req.SiteName = SessionDomain(c)
	}

	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	site, err := t.publish.InitSite(ctx, req.TemplateID, req.ColorSchemeID, req.SiteName)
	if err != nil {
		return err
	}
	result, err := t.publish.PublishAll(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"site":      site,
		"published": result.Published,
	})
}

func (a *App) handleBuilderSiteSettings(c echo.Context) error {
	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}
	site, err := t.config.SiteConfig(c.Request().Context())
	if err != nil {
		return err
	}
	if site == nil {
		return builder.ErrNotInitialized
	}
	return c.JSON(http.StatusOK, map[string]any{"site": site})
}

func (a *App) handleBuilderSaveSiteSettings(c echo.Context) error {
	var req struct {
		SiteName       *string                  `json:"site_name"`
		ColorSchemeID  *string                  `json:"color_scheme_id"`
		ColorOverrides map[string]string        `json:"color_overrides"`
		FooterText     *string                  `json:"footer_text"`
		Navigation     []builder.NavigationItem `json:"navigation"`
		LogoURL        *string                  `json:"logo_url"`
		FaviconURL     *string                  `json:"favicon_url"`
		SocialLinks    map[string]string        `json:"social_links"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
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
	if site == nil {
		return builder.ErrNotInitialized
	}

	if req.SiteName != nil {
		site.SiteName = *req.SiteName
	}
	if req.ColorSchemeID != nil {
		if _, ok := a.Catalog.ColorScheme(*req.ColorSchemeID); !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown color scheme")
		}
		site.ColorSchemeID = *req.ColorSchemeID
	}
	if req.ColorOverrides != nil {
		site.ColorOverrides = req.ColorOverrides
	}
	if req.FooterText != nil {
		site.FooterText = *req.FooterText
	}
	if req.Navigation != nil {
		site.Navigation = req.Navigation
	}
	if req.LogoURL != nil {
		site.LogoURL = *req.LogoURL
	}
	if req.FaviconURL != nil {
		site.FaviconURL = *req.FaviconURL
	}
	if req.SocialLinks != nil {
		site.SocialLinks = req.SocialLinks
	}

	if err := t.config.SaveSiteConfig(ctx, site); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (a *App) handleBuilderPages(c echo.Context) error {
	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}
	pages, orphans, err := t.publish.ListPages(c.Request().Context())
	if err != nil {
		if errors.Is(err, builder.ErrNotInitialized) {
			return c.JSON(http.StatusOK, map[string]any{"pages": []any{}})
		}
		return err
	}

	type pageSummary struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Slug  string `json:"slug"`
	}
	summaries := make([]pageSummary, 0, len(pages))
	for _, p := range pages {
		summaries = append(summaries, pageSummary{ID: p.ID, Title: p.Title, Slug: p.Slug})
	}
	return c.JSON(http.StatusOK, map[string]any{"pages": summaries, "orphans": orphans})
}

func (a *App) handleBuilderEditPage(c echo.Context) error {
	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	pageID := c.Param("id")

	site, err := t.config.SiteConfig(ctx)
	if err != nil {
		return err
	}
	if site == nil {
		return c.Redirect(http.StatusSeeOther, "/builder/")
	}
	page, err := t.config.PageConfig(ctx, pageID)
	if err != nil {
		return err
	}
	if page == nil {
		return builder.ErrPageNotFound
	}

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, map[string]any{"page": page})
	}
	return Render(c, a.Views.PageEditor(SessionDomain(c), site, page,
		a.Catalog.Components(""), a.Catalog.ColorSchemes(), CsrfToken(c)))
}

func (a *App) handleBuilderSavePage(c echo.Context) error {
	var req struct {
		Title           *string                            `json:"title"`
		Slots           map[string][]builder.PageComponent `json:"slots"`
		MetaDescription *string                            `json:"meta_description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	pageID := c.Param("id")

	page, err := t.config.PageConfig(ctx, pageID)
	if err != nil {
		return err
	}
	if page == nil {
		return builder.ErrPageNotFound
	}

	if req.Title != nil {
		page.Title = *req.Title
	}
	if req.Slots != nil {
		page.Slots = req.Slots
	}
	if req.MetaDescription != nil {
		page.MetaDescription = *req.MetaDescription
	}

	if err := t.config.SavePageConfig(ctx, pageID, page); err != nil {
		return err
	}
	if err := t.publish.PublishPage(ctx, pageID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (a *App) handleBuilderNewPage(c echo.Context) error {
	var req struct {
		Title  string `json:"title"`
		PageID string `json:"page_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Title == "" {
		req.Title = "New Page"
	}
	pageID := PageID(req.PageID, req.Title)
	if pageID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "page id cannot be empty")
	}

	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	page, err := t.publish.AddPage(ctx, pageID, req.Title)
	if err != nil {
		return err
	}
	if err := t.publish.PublishPage(ctx, pageID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "page": page})
}

func (a *App) handleBuilderCopyPage(c echo.Context) error {
	var req struct {
		SourceID string `json:"source_id"`
		PageID   string `json:"page_id"`
		Title    string `json:"title"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.SourceID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "source_id required")
	}
	if req.Title == "" {
		req.Title = "Copy of " + req.SourceID
	}
	pageID := PageID(req.PageID, req.Title)
	if pageID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "page id cannot be empty")
	}

	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	page, err := t.publish.CopyPage(ctx, req.SourceID, pageID, req.Title)
	if err != nil {
		return err
	}
	if err := t.publish.PublishPage(ctx, pageID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "page": page})
}

func (a *App) handleBuilderDeletePage(c echo.Context) error {
	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}

	res, err := t.publish.DeletePage(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	warnings := []string{}
	if res.ConfigDeleteErr != nil {
		warnings = append(warnings, "page config could not be removed")
	}
	if res.ArtifactDeleteErr != nil {
		warnings = append(warnings, "published file could not be removed")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "warnings": warnings})
}

func (a *App) handleBuilderPublish(c echo.Context) error {
	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}

	result, err := t.publish.PublishAll(c.Request().Context())
	if err != nil {
		return err
	}
	failed := make(map[string]string, len(result.Failed))
	for pageID, ferr := range result.Failed {
		failed[pageID] = ferr.Error()
	}
	resp := map[string]any{
		"success":   len(failed) == 0,
		"published": result.Published,
		"failed":    failed,
	}
	if result.SitemapErr != nil {
		resp["sitemap_error"] = result.SitemapErr.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *App) handleBuilderReconcile(c echo.Context) error {
	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}
	pruned, err := t.publish.Reconcile(c.Request().Context())
	if err != nil {
		return err
	}
	if pruned == nil {
		pruned = []string{}
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "pruned": pruned})
}

// handleBuilderPreview renders a page with operator-facing error detail.
// GET previews the saved version; POST previews an unsaved page config
// from the request body.
func (a *App) handleBuilderPreview(c echo.Context) error {
	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	var html string
	if c.Request().Method == http.MethodPost {
		var page builder.PageConfig
		if err := c.Bind(&page); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid page data")
		}
		if page.ID == "" {
			page.ID = c.Param("id")
		}
		html, err = t.preview.RenderPage(ctx, &page)
	} else {
		html, err = t.preview.RenderPageByID(ctx, c.Param("id"))
	}
	if err != nil {
		return err
	}
	return c.HTML(http.StatusOK, html)
}

// handleComponentPreview renders a single component in a standalone
// document for the editor's live component preview.
func (a *App) handleComponentPreview(c echo.Context) error {
	var req struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	if c.Request().Method == http.MethodPost {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	} else {
		req.Type = c.QueryParam("type")
	}
	if req.Type == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "component type required")
	}

	t, err := a.sessionTenant(c)
	if err != nil {
		return err
	}
	html, err := t.preview.RenderComponentPreview(c.Request().Context(), req.Type, req.Data)
	if err != nil {
		return err
	}
	return c.HTML(http.StatusOK, html)
}
