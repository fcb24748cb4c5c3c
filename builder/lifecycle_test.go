package builder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/eringen/siteforge/objectstore"
)

func setupLifecycle(t *testing.T) (*Lifecycle, *ConfigStore, *objectstore.MemoryStore) {
	t.Helper()
	cat, err := NewCatalog()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	objects := objectstore.NewMemoryStore()
	store := NewConfigStore(objects)
	r, err := NewRenderer(cat, store, ModePublish)
	if err != nil {
		t.Fatalf("failed to build renderer: %v", err)
	}
	return NewLifecycle(cat, store, r, objects), store, objects
}

func TestInitSite(t *testing.T) {
	l, store, _ := setupLifecycle(t)
	ctx := context.Background()

	site, err := l.InitSite(ctx, "default", "ocean-blue", "Acme Co")
	if err != nil {
		t.Fatalf("InitSite failed: %v", err)
	}
	if site.TemplateID != "default" || site.ColorSchemeID != "ocean-blue" {
		t.Errorf("site = %s/%s, want default/ocean-blue", site.TemplateID, site.ColorSchemeID)
	}
	if len(site.Pages) != 1 || site.Pages[0] != "index" {
		t.Errorf("Pages = %v, want [index]", site.Pages)
	}
	if len(site.Navigation) != 1 || site.Navigation[0].URL != "/" {
		t.Errorf("Navigation = %v, want single Home entry", site.Navigation)
	}
	if !strings.Contains(site.FooterText, "Acme Co") {
		t.Errorf("FooterText = %q, should mention the site name", site.FooterText)
	}

	index, err := store.PageConfig(ctx, "index")
	if err != nil {
		t.Fatalf("PageConfig failed: %v", err)
	}
	if index == nil {
		t.Fatal("init should create the index page")
	}
	if index.Slug != "" {
		t.Errorf("index slug = %q, want empty", index.Slug)
	}
	if n := len(index.Slots["header"]); n != 1 || index.Slots["header"][0].Type != "nav-main" {
		t.Errorf("header slot = %v, want one nav-main", index.Slots["header"])
	}
	if n := len(index.Slots["footer"]); n != 1 || index.Slots["footer"][0].Type != "footer-simple" {
		t.Errorf("footer slot = %v, want one footer-simple", index.Slots["footer"])
	}
	if n := len(index.Slots["main"]); n != 1 || index.Slots["main"][0].Type != "text-heading" {
		t.Errorf("main slot = %v, want one starter text-heading", index.Slots["main"])
	}
	if index.Slots["header"][0].ID != "comp-0" || index.Slots["footer"][0].ID != "comp-1" {
		t.Errorf("component ids should be sequential, got header=%s footer=%s",
			index.Slots["header"][0].ID, index.Slots["footer"][0].ID)
	}
}

func TestInitSiteUnknownTemplate(t *testing.T) {
	l, _, _ := setupLifecycle(t)

	_, err := l.InitSite(context.Background(), "no-such-template", "ocean-blue", "Acme Co")
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("err = %v, want ErrTemplateNotFound", err)
	}
}

func TestInitSiteLandingTemplate(t *testing.T) {
	l, store, _ := setupLifecycle(t)
	ctx := context.Background()

	if _, err := l.InitSite(ctx, "landing", "modern-blue", "Launch Inc"); err != nil {
		t.Fatalf("InitSite failed: %v", err)
	}

	index, err := store.PageConfig(ctx, "index")
	if err != nil {
		t.Fatalf("PageConfig failed: %v", err)
	}
	if _, ok := index.Slots["sidebar"]; ok {
		t.Error("landing pages should not have a sidebar slot")
	}
}

func TestAddPageRequiresInit(t *testing.T) {
	l, _, _ := setupLifecycle(t)

	_, err := l.AddPage(context.Background(), "about", "About Us")
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
}

func TestAddPage(t *testing.T) {
	l, store, _ := setupLifecycle(t)
	ctx := context.Background()

	if _, err := l.InitSite(ctx, "default", "ocean-blue", "Acme Co"); err != nil {
		t.Fatalf("InitSite failed: %v", err)
	}
	page, err := l.AddPage(ctx, "about", "About Us")
	if err != nil {
		t.Fatalf("AddPage failed: %v", err)
	}
	if page.Slug != "about" {
		t.Errorf("Slug = %q, want about", page.Slug)
	}
	if len(page.Slots["main"]) != 0 {
		t.Errorf("non-starter page should have an empty main slot, got %v", page.Slots["main"])
	}

	site, err := store.SiteConfig(ctx)
	if err != nil {
		t.Fatalf("SiteConfig failed: %v", err)
	}
	if len(site.Pages) != 2 || site.Pages[1] != "about" {
		t.Errorf("Pages = %v, want [index about]", site.Pages)
	}
	if len(site.Navigation) != 2 || site.Navigation[1].URL != "/about.html" {
		t.Errorf("Navigation = %v, want About entry at /about.html", site.Navigation)
	}
}

func TestAddPageIdempotentRegistration(t *testing.T) {
	l, store, _ := setupLifecycle(t)
	ctx := context.Background()

	if _, err := l.InitSite(ctx, "default", "ocean-blue", "Acme Co"); err != nil {
		t.Fatalf("InitSite failed: %v", err)
	}
	if _, err := l.AddPage(ctx, "about", "About Us"); err != nil {
		t.Fatalf("AddPage failed: %v", err)
	}
	if _, err := l.AddPage(ctx, "about", "About Us"); err != nil {
		t.Fatalf("second AddPage failed: %v", err)
	}

	site, err := store.SiteConfig(ctx)
	if err != nil {
		t.Fatalf("SiteConfig failed: %v", err)
	}
	if len(site.Pages) != 2 {
		t.Errorf("re-adding a page should not duplicate it: Pages = %v", site.Pages)
	}
	if len(site.Navigation) != 2 {
		t.Errorf("re-adding a page should not duplicate navigation: %v", site.Navigation)
	}
}

func TestCopyPage(t *testing.T) {
	l, store, _ := setupLifecycle(t)
	ctx := context.Background()

	if _, err := l.InitSite(ctx, "default", "ocean-blue", "Acme Co"); err != nil {
		t.Fatalf("InitSite failed: %v", err)
	}
	index, err := store.PageConfig(ctx, "index")
	if err != nil {
		t.Fatalf("PageConfig failed: %v", err)
	}
	index.MetaDescription = "The Acme landing page"
	if err := store.SavePageConfig(ctx, "index", index); err != nil {
		t.Fatalf("SavePageConfig failed: %v", err)
	}

	page, err := l.CopyPage(ctx, "index", "index-v2", "Home Draft")
	if err != nil {
		t.Fatalf("CopyPage failed: %v", err)
	}
	if page.MetaDescription != "The Acme landing page" {
		t.Errorf("MetaDescription = %q, should carry over", page.MetaDescription)
	}

	// Same shape, fresh ids.
	total := 0
	seen := map[string]bool{}
	for slotID, comps := range page.Slots {
		if len(comps) != len(index.Slots[slotID]) {
			t.Errorf("slot %s: got %d components, want %d", slotID, len(comps), len(index.Slots[slotID]))
		}
		for _, comp := range comps {
			if seen[comp.ID] {
				t.Errorf("duplicate component id %s in copy", comp.ID)
			}
			seen[comp.ID] = true
			total++
		}
	}
	if total != 3 {
		t.Errorf("copy has %d components, want 3", total)
	}
	for _, want := range []string{"comp-0", "comp-1", "comp-2"} {
		if !seen[want] {
			t.Errorf("copy is missing sequential id %s (have %v)", want, seen)
		}
	}

	site, err := store.SiteConfig(ctx)
	if err != nil {
		t.Fatalf("SiteConfig failed: %v", err)
	}
	if !contains(site.Pages, "index-v2") {
		t.Errorf("Pages = %v, should include the copy", site.Pages)
	}
}

func TestCopyPageErrors(t *testing.T) {
	l, _, _ := setupLifecycle(t)
	ctx := context.Background()

	if _, err := l.InitSite(ctx, "default", "ocean-blue", "Acme Co"); err != nil {
		t.Fatalf("InitSite failed: %v", err)
	}

	if _, err := l.CopyPage(ctx, "ghost", "ghost-2", "Ghost"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("copy of missing source: err = %v, want ErrPageNotFound", err)
	}
	if _, err := l.CopyPage(ctx, "index", "index", "Home"); !errors.Is(err, ErrPageExists) {
		t.Errorf("copy onto existing id: err = %v, want ErrPageExists", err)
	}
}

func TestDeletePage(t *testing.T) {
	l, store, objects := setupLifecycle(t)
	ctx := context.Background()

	if _, err := l.InitSite(ctx, "default", "ocean-blue", "Acme Co"); err != nil {
		t.Fatalf("InitSite failed: %v", err)
	}
	if _, err := l.AddPage(ctx, "about", "About Us"); err != nil {
		t.Fatalf("AddPage failed: %v", err)
	}
	if err := l.PublishPage(ctx, "about"); err != nil {
		t.Fatalf("PublishPage failed: %v", err)
	}

	res, err := l.DeletePage(ctx, "about")
	if err != nil {
		t.Fatalf("DeletePage failed: %v", err)
	}
	if res.ConfigDeleteErr != nil || res.ArtifactDeleteErr != nil {
		t.Errorf("cleanup errors: config=%v artifact=%v", res.ConfigDeleteErr, res.ArtifactDeleteErr)
	}

	site, err := store.SiteConfig(ctx)
	if err != nil {
		t.Fatalf("SiteConfig failed: %v", err)
	}
	if contains(site.Pages, "about") {
		t.Errorf("Pages = %v, about should be gone", site.Pages)
	}
	for _, item := range site.Navigation {
		if item.URL == "/about.html" {
			t.Error("navigation entry should be removed with the page")
		}
	}

	if page, _ := store.PageConfig(ctx, "about"); page != nil {
		t.Error("page config should be deleted")
	}
	if ok, _ := objectstore.Exists(ctx, objects, "about.html"); ok {
		t.Error("published artifact should be deleted")
	}
}

func TestDeleteIndexRefused(t *testing.T) {
	l, _, _ := setupLifecycle(t)
	ctx := context.Background()

	if _, err := l.InitSite(ctx, "default", "ocean-blue", "Acme Co"); err != nil {
		t.Fatalf("InitSite failed: %v", err)
	}
	if _, err := l.DeletePage(ctx, "index"); !errors.Is(err, ErrIndexImmortal) {
		t.Errorf("err = %v, want ErrIndexImmortal", err)
	}
}

func TestPublishPage(t *testing.T) {
	l, _, objects := setupLifecycle(t)
	ctx := context.Background()

	if _, err := l.InitSite(ctx, "default", "ocean-blue", "Acme Co"); err != nil {
		t.Fatalf("InitSite failed: %v", err)
	}
	if err := l.PublishPage(ctx, "index"); err != nil {
		t.Fatalf("PublishPage failed: %v", err)
	}

	body, err := objects.Get(ctx, "index.html")
	if err != nil {
		t.Fatalf("published artifact missing: %v", err)
	}
	html := string(body)
	if !strings.Contains(html, "<!DOCTYPE html>") {
		t.Error("artifact should be a full document")
	}
	if !strings.Contains(html, "Acme Co") {
		t.Error("artifact should carry the site name")
	}
	if !strings.Contains(html, "--color-primary:") {
		t.Error("artifact should inline the resolved color variables")
	}
}

func TestPublishPageDeterministic(t *testing.T) {
	l, _, objects := setupLifecycle(t)
	ctx := context.Background()

	if _, err := l.InitSite(ctx, "default", "ocean-blue", "Acme Co"); err != nil {
		t.Fatalf("InitSite failed: %v", err)
	}

	if err := l.PublishPage(ctx, "index"); err != nil {
		t.Fatalf("PublishPage failed: %v", err)
	}
	first, err := objects.Get(ctx, "index.html")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if err := l.PublishPage(ctx, "index"); err != nil {
		t.Fatalf("second PublishPage failed: %v", err)
	}
	second, err := objects.Get(ctx, "index.html")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if string(first) != string(second) {
		t.Error("republishing an unchanged page should produce identical bytes")
	}
}

func TestPublishAll(t *testing.T) {
	l, store, objects := setupLifecycle(t)
	ctx := context.Background()

	if _, err := l.InitSite(ctx, "default", "ocean-blue", "Acme Co"); err != nil {
		t.Fatalf("InitSite failed: %v", err)
	}
	if _, err := l.AddPage(ctx, "about", "About Us"); err != nil {
		t.Fatalf("AddPage failed: %v", err)
	}
	// A dangling reference must not sink the rest of the publish.
	site, _ := store.SiteConfig(ctx)
	site.Pages = append(site.Pages, "ghost")
	if err := store.SaveSiteConfig(ctx, site); err != nil {
		t.Fatalf("SaveSiteConfig failed: %v", err)
	}

	res, err := l.PublishAll(ctx)
	if err != nil {
		t.Fatalf("PublishAll failed: %v", err)
	}
	if len(res.Published) != 2 || res.Published[0] != "index" || res.Published[1] != "about" {
		t.Errorf("Published = %v, want [index about]", res.Published)
	}
	if !errors.Is(res.Failed["ghost"], ErrPageNotFound) {
		t.Errorf("Failed[ghost] = %v, want ErrPageNotFound", res.Failed["ghost"])
	}

	for _, key := range []string{"index.html", "about.html"} {
		if ok, _ := objectstore.Exists(ctx, objects, key); !ok {
			t.Errorf("artifact %s should exist", key)
		}
	}
}

func TestPublishAllWritesSitemap(t *testing.T) {
	l, _, objects := setupLifecycle(t)
	ctx := context.Background()
	l.SiteURL = "https://acme.example.com/"

	if _, err := l.InitSite(ctx, "default", "ocean-blue", "Acme Co"); err != nil {
		t.Fatalf("InitSite failed: %v", err)
	}
	if _, err := l.AddPage(ctx, "about", "About Us"); err != nil {
		t.Fatalf("AddPage failed: %v", err)
	}

	res, err := l.PublishAll(ctx)
	if err != nil {
		t.Fatalf("PublishAll failed: %v", err)
	}
	if res.SitemapErr != nil {
		t.Fatalf("sitemap write failed: %v", res.SitemapErr)
	}

	body, err := objects.Get(ctx, "sitemap.xml")
	if err != nil {
		t.Fatalf("sitemap missing: %v", err)
	}
	xml := string(body)
	if !strings.Contains(xml, "<loc>https://acme.example.com/</loc>") {
		t.Errorf("index should map to the bare site URL:\n%s", xml)
	}
	if !strings.Contains(xml, "<loc>https://acme.example.com/about.html</loc>") {
		t.Errorf("pages should map to their artifact URLs:\n%s", xml)
	}
}

func TestListPagesReportsOrphans(t *testing.T) {
	l, store, _ := setupLifecycle(t)
	ctx := context.Background()

	if _, err := l.InitSite(ctx, "default", "ocean-blue", "Acme Co"); err != nil {
		t.Fatalf("InitSite failed: %v", err)
	}
	site, _ := store.SiteConfig(ctx)
	site.Pages = append(site.Pages, "ghost")
	if err := store.SaveSiteConfig(ctx, site); err != nil {
		t.Fatalf("SaveSiteConfig failed: %v", err)
	}

	pages, orphans, err := l.ListPages(ctx)
	if err != nil {
		t.Fatalf("ListPages failed: %v", err)
	}
	if len(pages) != 1 || pages[0].ID != "index" {
		t.Errorf("pages = %v, want just index", pages)
	}
	if len(orphans) != 1 || orphans[0] != "ghost" {
		t.Errorf("orphans = %v, want [ghost]", orphans)
	}

	// Pure read: the site config is untouched.
	site, _ = store.SiteConfig(ctx)
	if !contains(site.Pages, "ghost") {
		t.Error("ListPages must not mutate the site config")
	}
}

func TestReconcilePrunesOrphans(t *testing.T) {
	l, store, _ := setupLifecycle(t)
	ctx := context.Background()

	if _, err := l.InitSite(ctx, "default", "ocean-blue", "Acme Co"); err != nil {
		t.Fatalf("InitSite failed: %v", err)
	}
	if _, err := l.AddPage(ctx, "about", "About Us"); err != nil {
		t.Fatalf("AddPage failed: %v", err)
	}
	site, _ := store.SiteConfig(ctx)
	site.Pages = append(site.Pages, "ghost")
	site.Navigation = append(site.Navigation, NavigationItem{Label: "Ghost", URL: "/ghost.html"})
	if err := store.SaveSiteConfig(ctx, site); err != nil {
		t.Fatalf("SaveSiteConfig failed: %v", err)
	}

	pruned, err := l.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(pruned) != 1 || pruned[0] != "ghost" {
		t.Errorf("pruned = %v, want [ghost]", pruned)
	}

	site, _ = store.SiteConfig(ctx)
	if contains(site.Pages, "ghost") {
		t.Errorf("Pages = %v, ghost should be pruned", site.Pages)
	}
	for _, item := range site.Navigation {
		if item.URL == "/ghost.html" {
			t.Error("ghost navigation entry should be pruned")
		}
	}
	if !contains(site.Pages, "index") || !contains(site.Pages, "about") {
		t.Errorf("Pages = %v, healthy pages must survive", site.Pages)
	}

	// Nothing left to repair.
	pruned, err = l.Reconcile(ctx)
	if err != nil {
		t.Fatalf("second Reconcile failed: %v", err)
	}
	if len(pruned) != 0 {
		t.Errorf("second pass pruned %v, want nothing", pruned)
	}
}

func TestPublishFilename(t *testing.T) {
	if got := PublishFilename("index"); got != "index.html" {
		t.Errorf("PublishFilename(index) = %q, want index.html", got)
	}
	if got := PublishFilename("about"); got != "about.html" {
		t.Errorf("PublishFilename(about) = %q, want about.html", got)
	}
}
