package builder

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed data
var definitionData embed.FS

// Catalog is the read-only registry of component, color scheme, and
// template definitions. It is loaded once at startup and shared freely
// across request handlers; there is no mutation API.
type Catalog struct {
	components   map[string]ComponentDef
	colorSchemes map[string]ColorScheme
	templates    map[string]TemplateDef
}

// NewCatalog loads the bundled definition data.
func NewCatalog() (*Catalog, error) {
	return NewCatalogFromFS(definitionData, "data")
}

// NewCatalogFromFS loads definitions from dir in fsys. Each of
// components.json, color_schemes.json, and templates.json is optional; a
// missing file yields an empty collection, not an error.
func NewCatalogFromFS(fsys fs.FS, dir string) (*Catalog, error) {
	c := &Catalog{
		components:   make(map[string]ComponentDef),
		colorSchemes: make(map[string]ColorScheme),
		templates:    make(map[string]TemplateDef),
	}

	var components struct {
		Components []ComponentDef `json:"components"`
	}
	if err := loadDefinitions(fsys, dir+"/components.json", &components); err != nil {
		return nil, err
	}
	for _, comp := range components.Components {
		c.components[comp.ID] = comp
	}

	var schemes struct {
		ColorSchemes []ColorScheme `json:"color_schemes"`
	}
	if err := loadDefinitions(fsys, dir+"/color_schemes.json", &schemes); err != nil {
		return nil, err
	}
	for _, scheme := range schemes.ColorSchemes {
		c.colorSchemes[scheme.ID] = scheme
	}

	var templates struct {
		Templates []TemplateDef `json:"templates"`
	}
	if err := loadDefinitions(fsys, dir+"/templates.json", &templates); err != nil {
		return nil, err
	}
	for _, tmpl := range templates.Templates {
		c.templates[tmpl.ID] = tmpl
	}

	return c, nil
}

func loadDefinitions(fsys fs.FS, path string, dst any) error {
	raw, err := fs.ReadFile(fsys, path)
	if err != nil {
		// Absent definition source means an empty collection.
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("builder: parse %s: %w", path, err)
	}
	return nil
}

// Component looks up a component definition by id.
func (c *Catalog) Component(id string) (ComponentDef, bool) {
	def, ok := c.components[id]
	return def, ok
}

// Components returns all component definitions sorted by id, optionally
// filtered to one category. An empty category returns everything.
func (c *Catalog) Components(category string) []ComponentDef {
	defs := make([]ComponentDef, 0, len(c.components))
	for _, def := range c.components {
		if category != "" && def.Category != category {
			continue
		}
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// ColorScheme looks up a color scheme by id.
func (c *Catalog) ColorScheme(id string) (ColorScheme, bool) {
	scheme, ok := c.colorSchemes[id]
	return scheme, ok
}

// ColorSchemes returns all color schemes sorted by id.
func (c *Catalog) ColorSchemes() []ColorScheme {
	schemes := make([]ColorScheme, 0, len(c.colorSchemes))
	for _, scheme := range c.colorSchemes {
		schemes = append(schemes, scheme)
	}
	sort.Slice(schemes, func(i, j int) bool { return schemes[i].ID < schemes[j].ID })
	return schemes
}

// Template looks up a template definition by id.
func (c *Catalog) Template(id string) (TemplateDef, bool) {
	tmpl, ok := c.templates[id]
	return tmpl, ok
}

// Templates returns all template definitions sorted by id.
func (c *Catalog) Templates() []TemplateDef {
	tmpls := make([]TemplateDef, 0, len(c.templates))
	for _, tmpl := range c.templates {
		tmpls = append(tmpls, tmpl)
	}
	sort.Slice(tmpls, func(i, j int) bool { return tmpls[i].ID < tmpls[j].ID })
	return tmpls
}
