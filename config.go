package siteforge

import (
	"github.com/eringen/siteforge/objectstore"
)

// Config holds all configuration for a siteforge admin instance.
type Config struct {
	Addr string // Listen address (default ":8000")

	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	// Each tenant domain maps to an object store bucket of the same name.
	// With LocalStore set, buckets live as SQLite files under DataDir
	// instead of S3; S3 options are ignored in that mode.
	LocalStore bool
	DataDir    string // Local bucket root (default "data")
	S3         objectstore.S3Options

	// AssistRegion enables the AI drafting endpoints against Bedrock in
	// the given region. Empty disables drafting.
	AssistRegion string
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":8000"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithStoreFactory overrides how tenant buckets are opened, replacing the
// default S3/SQLite selection. Used in tests and for custom backends.
func WithStoreFactory(fn StoreFactory) Option {
	return func(a *App) {
		a.stores = fn
	}
}

// WithInvoker overrides the model invoker used by the drafting assistant.
func WithInvoker(inv Invoker) Option {
	return func(a *App) {
		a.invoker = inv
	}
}
