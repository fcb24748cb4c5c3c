package builder

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed templates
var templateData embed.FS

// RenderMode controls how much detail a failed component leaks into its
// error fragment. Published artifacts are public, so they only get a
// generic message; previews are operator-facing and embed the real error.
type RenderMode int

const (
	ModePublish RenderMode = iota
	ModePreview
)

// Renderer turns page configuration into HTML. One component failing to
// render must never take down the page: per-component errors degrade to a
// visible inline fragment and rendering continues.
type Renderer struct {
	catalog    *Catalog
	store      *ConfigStore
	mode       RenderMode
	components map[string]*template.Template // fragment per component type id
	shells     map[string]*template.Template // page shell per template id
}

// NewRenderer builds a Renderer over the bundled templates.
func NewRenderer(catalog *Catalog, store *ConfigStore, mode RenderMode) (*Renderer, error) {
	sub, err := fs.Sub(templateData, "templates")
	if err != nil {
		return nil, err
	}
	return NewRendererFromFS(catalog, store, sub, mode)
}

// NewRendererFromFS builds a Renderer from a template tree laid out as
// components/{type}.html fragments and {template_id}/page.html shells.
func NewRendererFromFS(catalog *Catalog, store *ConfigStore, fsys fs.FS, mode RenderMode) (*Renderer, error) {
	r := &Renderer{
		catalog:    catalog,
		store:      store,
		mode:       mode,
		components: make(map[string]*template.Template),
		shells:     make(map[string]*template.Template),
	}

	funcs := template.FuncMap{
		// raw marks editor-authored content as trusted HTML. Only fields
		// documented as HTML-bearing use it in the fragment templates.
		"raw": func(v any) template.HTML {
			s, _ := v.(string)
			return template.HTML(s)
		},
	}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		dir, file := path.Split(p)
		dir = strings.Trim(dir, "/")
		name := strings.TrimSuffix(file, ".html")
		switch {
		case dir == "components":
			tmpl, err := template.New(name).Funcs(funcs).Parse(string(raw))
			if err != nil {
				return fmt.Errorf("builder: parse component template %s: %w", name, err)
			}
			r.components[name] = tmpl
		case file == "page.html" && dir != "":
			tmpl, err := template.New("page").Funcs(funcs).Parse(string(raw))
			if err != nil {
				return fmt.Errorf("builder: parse page template %s: %w", dir, err)
			}
			r.shells[dir] = tmpl
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// RenderComponent renders one component instance to an HTML fragment. It
// never fails: an unknown type, a missing required field, or a template
// error all produce an inline error fragment instead.
func (r *Renderer) RenderComponent(comp PageComponent, site *SiteConfig) string {
	tmpl, ok := r.components[comp.Type]
	if !ok {
		return r.errorFragment(comp.Type, fmt.Errorf("unknown component type"))
	}

	data := comp.Data
	if def, ok := r.catalog.Component(comp.Type); ok {
		data = mergeDefaults(def.DefaultData, comp.Data)
		if err := validateRequired(def, data); err != nil {
			return r.errorFragment(comp.Type, err)
		}
	}

	// The component's data map is splatted as named template variables,
	// plus the instance id and the site context.
	vars := make(map[string]any, len(data)+2)
	for k, v := range data {
		vars[k] = v
	}
	vars["component_id"] = comp.ID
	vars["site"] = site

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return r.errorFragment(comp.Type, err)
	}
	return buf.String()
}

func (r *Renderer) errorFragment(compType string, err error) string {
	if r.mode == ModePreview {
		return fmt.Sprintf(`<div class="component-error">Component %s error: %s</div>`,
			template.HTMLEscapeString(compType), template.HTMLEscapeString(err.Error()))
	}
	return fmt.Sprintf(`<div class="component-error">Component %s could not be rendered</div>`,
		template.HTMLEscapeString(compType))
}

// mergeDefaults lays instance data over the definition's defaults.
// Shallow: nested maps are not merged.
func mergeDefaults(defaults, data map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(data))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range data {
		merged[k] = v
	}
	return merged
}

func validateRequired(def ComponentDef, data map[string]any) error {
	for _, field := range def.EditableFields {
		if !field.Required {
			continue
		}
		v, ok := data[field.Name]
		if !ok || v == nil {
			return fmt.Errorf("missing required field %q", field.Name)
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			return fmt.Errorf("missing required field %q", field.Name)
		}
	}
	return nil
}

// pageContext is the variable set handed to a page shell template.
type pageContext struct {
	Site     *SiteConfig
	Page     *PageConfig
	Slots    map[string]template.HTML
	ColorCSS template.CSS
	Colors   map[string]string
}

// RenderPage renders a full HTML document for the given page config.
// A page cannot be rendered in isolation from its site: if no site config
// exists this fails with ErrNotInitialized.
func (r *Renderer) RenderPage(ctx context.Context, page *PageConfig) (string, error) {
	site, err := r.store.SiteConfig(ctx)
	if err != nil {
		return "", err
	}
	if site == nil {
		return "", ErrNotInitialized
	}

	scheme, _ := r.catalog.ColorScheme(site.ColorSchemeID)
	colors := ResolveColors(scheme, site.ColorOverrides)

	// Fragment order within a slot is the visual order.
	slots := make(map[string]template.HTML, len(page.Slots))
	for slotID, comps := range page.Slots {
		var b strings.Builder
		for _, comp := range comps {
			b.WriteString(r.RenderComponent(comp, site))
			b.WriteByte('\n')
		}
		slots[slotID] = template.HTML(b.String())
	}

	shell, ok := r.shells[site.TemplateID]
	if !ok {
		return "", fmt.Errorf("builder: page template %s: %w", site.TemplateID, ErrTemplateNotFound)
	}

	var buf bytes.Buffer
	err = shell.Execute(&buf, pageContext{
		Site:     site,
		Page:     page,
		Slots:    slots,
		ColorCSS: template.CSS(ColorCSS(colors)),
		Colors:   colors,
	})
	if err != nil {
		return "", fmt.Errorf("builder: render page %s: %w", page.ID, err)
	}
	return buf.String(), nil
}

// RenderPageByID loads a stored page and renders it.
func (r *Renderer) RenderPageByID(ctx context.Context, pageID string) (string, error) {
	page, err := r.store.PageConfig(ctx, pageID)
	if err != nil {
		return "", err
	}
	if page == nil {
		return "", fmt.Errorf("builder: page %s: %w", pageID, ErrPageNotFound)
	}
	return r.RenderPage(ctx, page)
}

// ColorCSS generates one CSS custom property per resolved color, keys
// lower-kebab-cased with the --color- prefix and emitted in sorted order
// so identical inputs always produce identical output.
func ColorCSS(colors map[string]string) string {
	names := make([]string, 0, len(colors))
	for name := range colors {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  --color-%s: %s;\n", kebabCase(name), colors[name])
	}
	b.WriteString("}\n")
	return b.String()
}

func kebabCase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	return strings.ReplaceAll(s, "_", "-")
}

// previewPalette styles component previews when the site has no color
// scheme to borrow from yet.
var previewPalette = map[string]string{
	"primary":    "#0066cc",
	"text":       "#1a1a2e",
	"background": "#ffffff",
	"surface":    "#f8fafc",
	"border":     "#e2e8f0",
}

// RenderComponentPreview wraps a single rendered component in a minimal
// standalone document with inlined styling, for live-preview UIs. A
// missing site config is tolerated: the preview falls back to a default
// palette and an empty site context.
func (r *Renderer) RenderComponentPreview(ctx context.Context, compType string, data map[string]any) (string, error) {
	site, err := r.store.SiteConfig(ctx)
	if err != nil {
		return "", err
	}
	if site == nil {
		site = &SiteConfig{SiteName: "Preview"}
	}

	colors := previewPalette
	if scheme, ok := r.catalog.ColorScheme(site.ColorSchemeID); ok {
		colors = scheme.Colors
	}

	comp := PageComponent{ID: "preview", Type: compType, Data: data}
	componentHTML := r.RenderComponent(comp, site)

	return fmt.Sprintf(previewShell, ColorCSS(colors), componentHTML), nil
}

const previewShell = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <style>
    %s
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
      line-height: 1.6;
      color: var(--color-text);
      background: var(--color-background);
      padding: 1rem;
    }
    .btn {
      display: inline-block;
      padding: 10px 20px;
      background-color: var(--color-primary);
      color: white;
      border: none;
      border-radius: 6px;
      font-size: 0.9rem;
      text-decoration: none;
    }
    .hero-section { padding: 2rem 0; text-align: center; }
    .hero-title { font-size: 1.5rem; font-weight: 700; margin-bottom: 0.5rem; }
    .hero-subtitle { font-size: 0.9rem; color: var(--color-text-muted, #666); margin-bottom: 1rem; }
    .section-heading { margin-bottom: 1rem; }
    .section-heading h2 { font-size: 1.25rem; font-weight: 700; }
    .section-heading .subtitle { color: var(--color-text-muted, #666); font-size: 0.875rem; }
    .text-block p { margin-bottom: 0.5rem; font-size: 0.875rem; }
    .two-column { display: block; }
    .two-column h3 { font-size: 1rem; margin-bottom: 0.5rem; }
    .gallery-grid { display: grid; grid-template-columns: repeat(3, 1fr); gap: .5rem; }
    .gallery-item { aspect-ratio: 1; background: var(--color-surface); border-radius: 4px; }
    .contact-section { padding: 1rem 0; }
    .form-group { margin-bottom: 0.75rem; }
    .form-group label { display: block; font-size: 0.75rem; margin-bottom: 0.25rem; }
    .form-group input, .form-group textarea {
      width: 100%%; padding: 6px; border: 1px solid var(--color-border); border-radius: 4px;
    }
    .text-center { text-align: center; }
  </style>
</head>
<body>
  %s
</body>
</html>`
