// Package builder is the site generation engine: a catalog of component,
// template, and color scheme definitions, JSON site/page configuration held
// in an object store, and a renderer that turns configuration into static
// HTML pages.
package builder

// ColorScheme is a named palette of semantic color roles. Catalog entry,
// immutable at runtime. Canonical keys are primary, secondary, accent,
// background, surface, text and text-muted, but the map is open-ended.
type ColorScheme struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Colors map[string]string `json:"colors"`
}

// EditableField describes one configurable attribute of a component type.
// It drives editor UI generation and required-field validation; the
// renderer never coerces values based on Type.
type EditableField struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"` // text, textarea, image, url, email, color, select, checkbox
	Label       string   `json:"label"`
	Required    bool     `json:"required,omitempty"`
	Default     any      `json:"default,omitempty"`
	Options     []string `json:"options,omitempty"` // for select fields
	Placeholder string   `json:"placeholder,omitempty"`
	HelpText    string   `json:"help_text,omitempty"`
}

// ComponentDef is a catalog entry describing a reusable content block type.
type ComponentDef struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Category       string          `json:"category"` // hero, navigation, content, gallery, contact, footer, sidebar
	Thumbnail      string          `json:"thumbnail"`
	EditableFields []EditableField `json:"editable_fields"`
	DefaultData    map[string]any  `json:"default_data"`
}

// TemplateSlot declares which component categories may populate a named
// region of a page layout. Cardinality bounds are declarative; the editor
// enforces them, the renderer does not.
type TemplateSlot struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	AllowedCategories []string `json:"allowed_categories"`
	MaxItems          int      `json:"max_items"`
	MinItems          int      `json:"min_items"`
}

// TemplateDef declares a page layout and its named slots.
type TemplateDef struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Description        string         `json:"description"`
	Thumbnail          string         `json:"thumbnail"`
	Category           string         `json:"category"` // business, portfolio, landing, blog
	Slots              []TemplateSlot `json:"slots"`
	DefaultColorScheme string         `json:"default_color_scheme"`
	Features           []string       `json:"features"`
}

// PageComponent is one placed occurrence of a component type on a page.
// ID is assigned at creation, is unique within its page, and doubles as a
// DOM id and anchor-link target.
type PageComponent struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// PageConfig is the stored configuration for a single page. ID is the
// primary key and the publish filename stem: "index" publishes to
// index.html with an empty slug, everything else to {id}.html.
type PageConfig struct {
	ID              string                     `json:"id"`
	Title           string                     `json:"title"`
	Slug            string                     `json:"slug"`
	Slots           map[string][]PageComponent `json:"slots"`
	MetaDescription string                     `json:"meta_description"`
	CreatedAt       string                     `json:"created_at"`
	UpdatedAt       string                     `json:"updated_at"`
}

// NavigationItem is one entry in the site navigation tree.
type NavigationItem struct {
	Label    string           `json:"label"`
	URL      string           `json:"url"`
	Children []NavigationItem `json:"children"`
}

// SiteConfig is the single per-site configuration document. Pages is the
// authoritative ordered list of live page ids; every entry must have a
// corresponding PageConfig document (see Lifecycle.Reconcile).
type SiteConfig struct {
	Version        string            `json:"version"`
	TemplateID     string            `json:"template_id"`
	ColorSchemeID  string            `json:"color_scheme_id"`
	ColorOverrides map[string]string `json:"color_overrides"`
	SiteName       string            `json:"site_name"`
	LogoURL        string            `json:"logo_url"`
	FaviconURL     string            `json:"favicon_url"`
	Pages          []string          `json:"pages"`
	Navigation     []NavigationItem  `json:"navigation"`
	FooterText     string            `json:"footer_text"`
	SocialLinks    map[string]string `json:"social_links"`
	CreatedAt      string            `json:"created_at"`
	UpdatedAt      string            `json:"updated_at"`
}

// ResolveColors merges the scheme's base colors with the site's overrides,
// override winning. Shallow merge, never deep.
func ResolveColors(scheme ColorScheme, overrides map[string]string) map[string]string {
	colors := make(map[string]string, len(scheme.Colors)+len(overrides))
	for name, value := range scheme.Colors {
		colors[name] = value
	}
	for name, value := range overrides {
		colors[name] = value
	}
	return colors
}

// PublishFilename returns the public object key a page publishes to.
func PublishFilename(pageID string) string {
	if pageID == "index" {
		return "index.html"
	}
	return pageID + ".html"
}
