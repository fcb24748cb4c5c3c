// Package siteforge is a multi-tenant admin application for static sites
// hosted on S3 behind a CDN. It wraps the builder engine with an Echo web
// app: domain-based login, a file manager for the site bucket, the page
// builder JSON API, image assets, and an AI drafting assistant.
//
// Users provide their own templ components via the ViewFuncs struct, and
// siteforge handles the handler logic, middleware, and storage plumbing.
package siteforge

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/siteforge/assist"
	"github.com/eringen/siteforge/builder"
	"github.com/eringen/siteforge/objectstore"
)

// Invoker is the model-call boundary used by the drafting assistant.
type Invoker = assist.Invoker

// StoreFactory opens the object store backing one tenant's bucket.
type StoreFactory func(ctx context.Context, domain string) (objectstore.Store, error)

// ViewFuncs holds user-provided templ components that the framework calls
// when rendering pages. This is the inversion-of-control mechanism that
// lets users own and customize all templates.
type ViewFuncs struct {
	Login            func(showError bool, csrfToken string) templ.Component
	ChangePassword   func(domain, errMsg, successMsg, csrfToken string) templ.Component
	Files            func(domain, prefix string, items []FileItem, parentPrefix *string, errMsg, csrfToken string) templ.Component
	BuilderSetup     func(domain string, templates []builder.TemplateDef, schemes []builder.ColorScheme, csrfToken string) templ.Component
	BuilderDashboard func(domain string, site *builder.SiteConfig, pages []*builder.PageConfig, schemes []builder.ColorScheme, csrfToken string) templ.Component
	PageEditor       func(domain string, site *builder.SiteConfig, page *builder.PageConfig, components []builder.ComponentDef, schemes []builder.ColorScheme, csrfToken string) templ.Component
	NotFound         func() templ.Component
	ServerError      func() templ.Component
}

// App is the central siteforge application. It wires together the
// catalog, tenant stores, handlers, middleware, and user-provided
// templates.
type App struct {
	Config      Config
	Echo        *echo.Echo
	Catalog     *builder.Catalog
	Views       ViewFuncs
	Credentials CredentialSource
	Assist      *assist.Generator

	loginLimiter *LoginLimiter
	stores       StoreFactory
	invoker      Invoker
	customRoutes []func(*App)
	staticDir    string

	mu      sync.Mutex
	tenants map[string]*tenant
}

// tenant bundles the per-domain engine stack: the bucket, the config
// store over it, and renderers for both output modes.
type tenant struct {
	objects objectstore.Store
	config  *builder.ConfigStore
	publish *builder.Lifecycle
	preview *builder.Renderer
}

// New creates a siteforge App with the given configuration, credential
// source, and view functions.
func New(cfg Config, creds CredentialSource, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:      cfg,
		Echo:        echo.New(),
		Views:       views,
		Credentials: creds,
		staticDir:   "public",
		tenants:     make(map[string]*tenant),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the catalog, assistant, middleware, and routes, and
// starts the server.
func (a *App) Start() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("siteforge: SessionSecret is required")
	}
	if a.Credentials == nil {
		return fmt.Errorf("siteforge: a CredentialSource is required")
	}

	catalog, err := builder.NewCatalog()
	if err != nil {
		return fmt.Errorf("siteforge: load catalog: %w", err)
	}
	a.Catalog = catalog

	if a.stores == nil {
		a.stores = a.defaultStoreFactory()
	}

	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	if a.invoker == nil && a.Config.AssistRegion != "" {
		inv, err := assist.NewBedrockInvoker(context.Background(), a.Config.AssistRegion)
		if err != nil {
			return fmt.Errorf("siteforge: init assistant: %w", err)
		}
		a.invoker = inv
	}
	if a.invoker != nil {
		a.Assist = assist.NewGenerator(a.invoker, a.Catalog)
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) defaultStoreFactory() StoreFactory {
	if a.Config.LocalStore {
		return func(_ context.Context, domain string) (objectstore.Store, error) {
			return objectstore.NewSQLiteStore(filepath.Join(a.Config.DataDir, domain+".db"))
		}
	}
	return func(ctx context.Context, domain string) (objectstore.Store, error) {
		return objectstore.NewS3Store(ctx, domain, a.Config.S3)
	}
}

// tenant returns the engine stack for a domain, opening the bucket on
// first use and caching it for the life of the process.
func (a *App) tenant(ctx context.Context, domain string) (*tenant, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if t, ok := a.tenants[domain]; ok {
		return t, nil
	}

	objects, err := a.stores(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("siteforge: open bucket for %s: %w", domain, err)
	}
	config := builder.NewConfigStore(objects)

	publishRenderer, err := builder.NewRenderer(a.Catalog, config, builder.ModePublish)
	if err != nil {
		return nil, err
	}
	previewRenderer, err := builder.NewRenderer(a.Catalog, config, builder.ModePreview)
	if err != nil {
		return nil, err
	}

	lifecycle := builder.NewLifecycle(a.Catalog, config, publishRenderer, objects)
	lifecycle.SiteURL = "https://" + domain

	t := &tenant{
		objects: objects,
		config:  config,
		publish: lifecycle,
		preview: previewRenderer,
	}
	a.tenants[domain] = t
	return t, nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework assets (editor JS) served from the embedded FS, falling
	// through to the user's static dir for everything else.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/builder.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.Static("/public", a.staticDir)

	e.GET("/", a.handleIndex)
	e.GET("/login", a.handleLoginForm)
	e.POST("/login", a.handleLogin)
	e.GET("/logout", a.handleLogout)
	e.GET("/change-password", a.handleChangePasswordForm, a.requireAuth)
	e.POST("/change-password", a.handleChangePassword, a.requireAuth)

	// File manager.
	files := e.Group("", a.requireAuth)
	files.GET("/files/", a.handleBrowse)
	files.GET("/files/*", a.handleBrowse)
	files.GET("/download/*", a.handleDownload)
	files.GET("/file-content/*", a.handleFileContent)
	files.GET("/editable-files", a.handleEditableFiles)
	files.POST("/upload", a.handleUpload)
	files.POST("/delete", a.handleDelete)
	files.POST("/create-folder", a.handleCreateFolder)

	// Builder.
	b := e.Group("/builder", a.requireAuth)
	b.GET("/", a.handleBuilderDashboard)
	b.GET("/templates", a.handleBuilderTemplates)
	b.GET("/components", a.handleBuilderComponents)
	b.GET("/color-schemes", a.handleBuilderColorSchemes)
	b.POST("/site/init", a.handleBuilderInitSite)
	b.GET("/site/settings", a.handleBuilderSiteSettings)
	b.POST("/site/settings", a.handleBuilderSaveSiteSettings)
	b.GET("/pages", a.handleBuilderPages)
	b.POST("/pages/new", a.handleBuilderNewPage)
	b.POST("/pages/copy", a.handleBuilderCopyPage)
	b.GET("/pages/:id", a.handleBuilderEditPage)
	b.POST("/pages/:id/save", a.handleBuilderSavePage)
	b.POST("/pages/:id/delete", a.handleBuilderDeletePage)
	b.POST("/publish", a.handleBuilderPublish)
	b.POST("/reconcile", a.handleBuilderReconcile)
	b.GET("/preview/:id", a.handleBuilderPreview)
	b.POST("/preview/:id", a.handleBuilderPreview)
	b.GET("/preview-component", a.handleComponentPreview)
	b.POST("/preview-component", a.handleComponentPreview)
	b.GET("/assets", a.handleListAssets)
	b.POST("/assets/upload", a.handleUploadAsset)

	// Drafting assistant.
	if a.Assist != nil {
		b.GET("/assist/models", a.handleAssistModels)
		b.POST("/assist/chat", a.handleAssistChat)
		b.POST("/assist/reset", a.handleAssistReset)
		b.POST("/assist/apply", a.handleAssistApply)
	}
}

func (a *App) handleIndex(c echo.Context) error {
	if IsAuthenticated(c) {
		return c.Redirect(http.StatusSeeOther, "/files/")
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, t := range a.tenants {
		if closer, ok := t.objects.(interface{ Close() error }); ok {
			closer.Close()
		}
	}
	a.tenants = make(map[string]*tenant)
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
// This is a convenience function for use in scaffolded main.go files.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("siteforge: required environment variable %s is not set", key)
	}
	return v
}
