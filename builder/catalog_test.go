package builder

import "testing"

func TestCatalogComponentLookup(t *testing.T) {
	cat, err := NewCatalog()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	def, ok := cat.Component("nav-main")
	if !ok {
		t.Fatal("nav-main should exist")
	}
	if def.Category != "navigation" {
		t.Errorf("Category = %q, want %q", def.Category, "navigation")
	}

	if _, ok := cat.Component("no-such-component"); ok {
		t.Error("unknown component type should not resolve")
	}
}

func TestCatalogComponentsByCategory(t *testing.T) {
	cat, err := NewCatalog()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	heroes := cat.Components("hero")
	if len(heroes) != 2 {
		t.Fatalf("got %d hero components, want 2", len(heroes))
	}
	// Sorted by id.
	if heroes[0].ID != "hero-image" || heroes[1].ID != "hero-text" {
		t.Errorf("hero components = [%s, %s], want sorted [hero-image, hero-text]",
			heroes[0].ID, heroes[1].ID)
	}

	all := cat.Components("")
	if len(all) < len(heroes) {
		t.Errorf("empty category should return all components, got %d", len(all))
	}
}

func TestCatalogColorSchemes(t *testing.T) {
	cat, err := NewCatalog()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	scheme, ok := cat.ColorScheme("ocean-blue")
	if !ok {
		t.Fatal("ocean-blue should exist")
	}
	if scheme.Colors["primary"] == "" {
		t.Error("scheme should define a primary color")
	}

	if _, ok := cat.ColorScheme("nope"); ok {
		t.Error("unknown scheme should not resolve")
	}
}

func TestCatalogTemplates(t *testing.T) {
	cat, err := NewCatalog()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	tmpl, ok := cat.Template("default")
	if !ok {
		t.Fatal("default template should exist")
	}

	slotIDs := make(map[string]bool, len(tmpl.Slots))
	for _, s := range tmpl.Slots {
		slotIDs[s.ID] = true
	}
	for _, want := range []string{"header", "hero", "main", "sidebar", "footer"} {
		if !slotIDs[want] {
			t.Errorf("default template is missing slot %q", want)
		}
	}

	landing, ok := cat.Template("landing")
	if !ok {
		t.Fatal("landing template should exist")
	}
	for _, s := range landing.Slots {
		if s.ID == "sidebar" {
			t.Error("landing template should not have a sidebar slot")
		}
	}
}
