package builder

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/eringen/siteforge/objectstore"
)

// Lifecycle orchestrates page create/copy/delete/publish operations,
// keeping the site config's page list and navigation in sync with the
// page config documents that actually exist.
//
// There is no locking and no cross-document transaction: concurrent
// writers against the same site race (last write wins), which is accepted
// for the single-admin-per-tenant usage pattern. A crash between a page
// save and the site config update can leave an orphan page config
// (harmless, unreachable) or a dangling site.pages reference (repaired by
// Reconcile).
type Lifecycle struct {
	catalog  *Catalog
	store    *ConfigStore
	renderer *Renderer
	objects  objectstore.Store

	// SiteURL is the site's public base URL, e.g. "https://example.com".
	// When set, PublishAll also writes sitemap.xml.
	SiteURL string

	now func() time.Time
}

// NewLifecycle wires a Lifecycle over an already-constructed catalog,
// config store, and renderer sharing the same object store.
func NewLifecycle(catalog *Catalog, store *ConfigStore, renderer *Renderer, objects objectstore.Store) *Lifecycle {
	return &Lifecycle{
		catalog:  catalog,
		store:    store,
		renderer: renderer,
		objects:  objects,
		now:      time.Now,
	}
}

// InitSite creates the site config and a starter index page, and persists
// both. The template must exist in the catalog. Re-running overwrites an
// existing site; guarding against that is the caller's call.
func (l *Lifecycle) InitSite(ctx context.Context, templateID, colorSchemeID, siteName string) (*SiteConfig, error) {
	tmpl, ok := l.catalog.Template(templateID)
	if !ok {
		return nil, fmt.Errorf("builder: template %s: %w", templateID, ErrTemplateNotFound)
	}

	now := l.timestamp()
	site := &SiteConfig{
		Version:        "1.0",
		TemplateID:     templateID,
		ColorSchemeID:  colorSchemeID,
		ColorOverrides: map[string]string{},
		SiteName:       siteName,
		Pages:          []string{"index"},
		Navigation:     []NavigationItem{{Label: "Home", URL: "/", Children: []NavigationItem{}}},
		FooterText:     fmt.Sprintf("© %d %s. All rights reserved.", l.now().Year(), siteName),
		SocialLinks:    map[string]string{},
		CreatedAt:      now,
	}

	index := l.defaultPage(tmpl, "index", "Home", true)

	if err := l.store.SaveSiteConfig(ctx, site); err != nil {
		return nil, err
	}
	if err := l.store.SavePageConfig(ctx, "index", index); err != nil {
		return nil, err
	}
	return site, nil
}

// defaultPage builds a page skeleton for the given template: slots from
// the template definition, navigation and footer always populated, and a
// starter heading in main for brand-new sites.
func (l *Lifecycle) defaultPage(tmpl TemplateDef, pageID, title string, starter bool) *PageConfig {
	slots := make(map[string][]PageComponent, len(tmpl.Slots))
	for _, slot := range tmpl.Slots {
		slots[slot.ID] = []PageComponent{}
	}

	counter := 0
	place := func(slotID, compType string) {
		if _, ok := slots[slotID]; !ok {
			return
		}
		data := map[string]any{}
		if def, ok := l.catalog.Component(compType); ok {
			data = mergeDefaults(def.DefaultData, nil)
		}
		slots[slotID] = append(slots[slotID], PageComponent{
			ID:   fmt.Sprintf("comp-%d", counter),
			Type: compType,
			Data: data,
		})
		counter++
	}

	place("header", "nav-main")
	place("footer", "footer-simple")
	if starter {
		place("main", "text-heading")
	}

	slug := pageID
	if pageID == "index" {
		slug = ""
	}
	now := l.timestamp()
	return &PageConfig{
		ID:        pageID,
		Title:     title,
		Slug:      slug,
		Slots:     slots,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddPage creates a page with the default skeleton and registers it in the
// site's page list and navigation. Re-adding an existing id overwrites the
// page config but does not duplicate the list or navigation entries.
func (l *Lifecycle) AddPage(ctx context.Context, pageID, title string) (*PageConfig, error) {
	site, err := l.store.SiteConfig(ctx)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, ErrNotInitialized
	}

	tmpl, ok := l.catalog.Template(site.TemplateID)
	if !ok {
		return nil, fmt.Errorf("builder: template %s: %w", site.TemplateID, ErrTemplateNotFound)
	}

	page := l.defaultPage(tmpl, pageID, title, false)
	if err := l.store.SavePageConfig(ctx, pageID, page); err != nil {
		return nil, err
	}

	if !contains(site.Pages, pageID) {
		site.Pages = append(site.Pages, pageID)
		site.Navigation = append(site.Navigation, NavigationItem{
			Label:    title,
			URL:      "/" + pageID + ".html",
			Children: []NavigationItem{},
		})
		if err := l.store.SaveSiteConfig(ctx, site); err != nil {
			return nil, err
		}
	}
	return page, nil
}

// CopyPage deep-copies an existing page under a new id. Component
// instances get fresh page-local ids; slot layout, component counts, and
// meta description carry over.
func (l *Lifecycle) CopyPage(ctx context.Context, sourceID, newID, newTitle string) (*PageConfig, error) {
	site, err := l.store.SiteConfig(ctx)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, ErrNotInitialized
	}

	source, err := l.store.PageConfig(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("builder: source page %s: %w", sourceID, ErrPageNotFound)
	}
	if contains(site.Pages, newID) {
		return nil, fmt.Errorf("builder: page %s: %w", newID, ErrPageExists)
	}

	now := l.timestamp()
	page := &PageConfig{
		ID:              newID,
		Title:           newTitle,
		Slug:            newID,
		Slots:           make(map[string][]PageComponent, len(source.Slots)),
		MetaDescription: source.MetaDescription,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// Walk slots in sorted order so copied instance ids are stable.
	slotIDs := make([]string, 0, len(source.Slots))
	for slotID := range source.Slots {
		slotIDs = append(slotIDs, slotID)
	}
	sort.Strings(slotIDs)

	counter := 0
	for _, slotID := range slotIDs {
		comps := make([]PageComponent, 0, len(source.Slots[slotID]))
		for _, comp := range source.Slots[slotID] {
			data := make(map[string]any, len(comp.Data))
			for k, v := range comp.Data {
				data[k] = v
			}
			comps = append(comps, PageComponent{
				ID:   fmt.Sprintf("comp-%d", counter),
				Type: comp.Type,
				Data: data,
			})
			counter++
		}
		page.Slots[slotID] = comps
	}

	if err := l.store.SavePageConfig(ctx, newID, page); err != nil {
		return nil, err
	}

	site.Pages = append(site.Pages, newID)
	site.Navigation = append(site.Navigation, NavigationItem{
		Label:    newTitle,
		URL:      "/" + newID + ".html",
		Children: []NavigationItem{},
	})
	if err := l.store.SaveSiteConfig(ctx, site); err != nil {
		return nil, err
	}
	return page, nil
}

// DeleteResult reports what DeletePage managed to clean up. The page's
// removal from the site config is the operation proper; deleting the page
// config document and the published artifact are best-effort, and their
// failures are reported here instead of failing the delete.
type DeleteResult struct {
	ConfigDeleteErr   error
	ArtifactDeleteErr error
}

// DeletePage removes a page from the site. The index page cannot be
// deleted; a site always keeps its landing page.
func (l *Lifecycle) DeletePage(ctx context.Context, pageID string) (DeleteResult, error) {
	if pageID == "index" {
		return DeleteResult{}, ErrIndexImmortal
	}

	site, err := l.store.SiteConfig(ctx)
	if err != nil {
		return DeleteResult{}, err
	}
	if site == nil {
		return DeleteResult{}, ErrNotInitialized
	}

	site.Pages = remove(site.Pages, pageID)
	site.Navigation = removeNav(site.Navigation, "/"+pageID+".html")
	if err := l.store.SaveSiteConfig(ctx, site); err != nil {
		return DeleteResult{}, err
	}

	var res DeleteResult
	res.ConfigDeleteErr = l.store.DeletePageConfig(ctx, pageID)
	res.ArtifactDeleteErr = l.objects.Delete(ctx, PublishFilename(pageID))
	return res, nil
}

// PublishPage renders a page and writes the HTML artifact to its public
// location ("index.html" for the index page, "{id}.html" otherwise).
func (l *Lifecycle) PublishPage(ctx context.Context, pageID string) error {
	html, err := l.renderer.RenderPageByID(ctx, pageID)
	if err != nil {
		return err
	}
	return l.objects.Put(ctx, PublishFilename(pageID), []byte(html), "text/html")
}

// PublishResult reports the outcome of PublishAll per page.
type PublishResult struct {
	Published []string
	Failed    map[string]error
	// SitemapErr is set when the sitemap could not be written. Nil when
	// no SiteURL is configured (no sitemap is attempted).
	SitemapErr error
}

// PublishAll publishes every page in site.pages in order. It never aborts
// partway: a page that fails to publish is recorded in Failed and the
// loop continues.
func (l *Lifecycle) PublishAll(ctx context.Context) (PublishResult, error) {
	site, err := l.store.SiteConfig(ctx)
	if err != nil {
		return PublishResult{}, err
	}
	if site == nil {
		return PublishResult{}, ErrNotInitialized
	}

	res := PublishResult{Published: []string{}, Failed: map[string]error{}}
	for _, pageID := range site.Pages {
		if err := l.PublishPage(ctx, pageID); err != nil {
			res.Failed[pageID] = err
			continue
		}
		res.Published = append(res.Published, pageID)
	}

	if l.SiteURL != "" {
		res.SitemapErr = l.writeSitemap(ctx, res.Published)
	}
	return res, nil
}

// ListPages loads every page referenced by site.pages. Pure read: page
// ids with no backing config document come back in orphans, and nothing
// is mutated. Use Reconcile to repair.
func (l *Lifecycle) ListPages(ctx context.Context) (pages []*PageConfig, orphans []string, err error) {
	site, err := l.store.SiteConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	if site == nil {
		return nil, nil, ErrNotInitialized
	}

	for _, pageID := range site.Pages {
		page, err := l.store.PageConfig(ctx, pageID)
		if err != nil {
			return nil, nil, err
		}
		if page == nil {
			orphans = append(orphans, pageID)
			continue
		}
		pages = append(pages, page)
	}
	return pages, orphans, nil
}

// Reconcile prunes page ids with no backing config document from
// site.pages and navigation, persisting the corrected site config. It
// returns the pruned ids; an empty slice means nothing was wrong.
func (l *Lifecycle) Reconcile(ctx context.Context) ([]string, error) {
	site, err := l.store.SiteConfig(ctx)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, ErrNotInitialized
	}

	var pruned []string
	kept := site.Pages[:0]
	for _, pageID := range site.Pages {
		page, err := l.store.PageConfig(ctx, pageID)
		if err != nil {
			return nil, err
		}
		if page == nil {
			pruned = append(pruned, pageID)
			continue
		}
		kept = append(kept, pageID)
	}
	if len(pruned) == 0 {
		return nil, nil
	}

	site.Pages = kept
	for _, pageID := range pruned {
		site.Navigation = removeNav(site.Navigation, "/"+pageID+".html")
	}
	if err := l.store.SaveSiteConfig(ctx, site); err != nil {
		return nil, err
	}
	return pruned, nil
}

func (l *Lifecycle) timestamp() string {
	return l.now().UTC().Format(time.RFC3339Nano)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}

func removeNav(items []NavigationItem, url string) []NavigationItem {
	out := items[:0]
	for _, item := range items {
		if item.URL != url {
			out = append(out, item)
		}
	}
	return out
}
