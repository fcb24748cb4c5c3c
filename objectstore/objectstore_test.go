package objectstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

// storeTest exercises the Store contract shared by all backends.
func storeTest(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	// Missing key.
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) err = %v, want ErrNotFound", err)
	}

	// Put then Get.
	if err := s.Put(ctx, "pages/index.html", []byte("<html>home</html>"), "text/html"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := s.Get(ctx, "pages/index.html")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "<html>home</html>" {
		t.Errorf("Get = %q, want the stored body", got)
	}

	// Overwrite.
	if err := s.Put(ctx, "pages/index.html", []byte("<html>v2</html>"), "text/html"); err != nil {
		t.Fatalf("overwrite Put failed: %v", err)
	}
	got, err = s.Get(ctx, "pages/index.html")
	if err != nil {
		t.Fatalf("Get after overwrite failed: %v", err)
	}
	if string(got) != "<html>v2</html>" {
		t.Errorf("Get = %q, want the overwritten body", got)
	}

	// Prefix listing.
	if err := s.Put(ctx, "pages/about.html", []byte("about"), "text/html"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(ctx, "assets/logo.png", []byte{0x89, 0x50}, "image/png"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	infos, err := s.List(ctx, "pages/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("List(pages/) returned %d objects, want 2", len(infos))
	}
	if infos[0].Key != "pages/about.html" || infos[1].Key != "pages/index.html" {
		t.Errorf("List order = [%s, %s], want sorted by key", infos[0].Key, infos[1].Key)
	}
	if infos[0].Size != int64(len("about")) {
		t.Errorf("Size = %d, want %d", infos[0].Size, len("about"))
	}
	if infos[0].ContentType != "text/html" {
		t.Errorf("ContentType = %q, want text/html", infos[0].ContentType)
	}

	// Delete is idempotent.
	if err := s.Delete(ctx, "pages/about.html"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(ctx, "pages/about.html"); err != nil {
		t.Errorf("second Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "pages/about.html"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore(t *testing.T) {
	storeTest(t, NewMemoryStore())
}

func TestMemoryStoreCopiesBodies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	body := []byte("original")
	if err := s.Put(ctx, "k", body, "text/plain"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	body[0] = 'X'

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "original" {
		t.Errorf("Get = %q, caller mutation should not reach the store", got)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "objects.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	storeTest(t, s)
}

func TestSQLiteStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "objects.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := s.Put(ctx, "_builder/site.json", []byte(`{"version":"1.0"}`), "application/json"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer s.Close()

	got, err := s.Get(ctx, "_builder/site.json")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(got) != `{"version":"1.0"}` {
		t.Errorf("Get = %q, data should survive reopen", got)
	}
}

func TestSQLiteStoreListEscapesWildcards(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "objects.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	// "_builder/" contains a LIKE wildcard; it must match literally.
	if err := s.Put(ctx, "_builder/site.json", []byte("a"), "application/json"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(ctx, "xbuilder/site.json", []byte("b"), "application/json"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	infos, err := s.List(ctx, "_builder/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 1 || infos[0].Key != "_builder/site.json" {
		t.Errorf("List(_builder/) = %v, underscore must not act as a wildcard", infos)
	}
}

func TestExists(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ok, err := Exists(ctx, s, "k")
	if err != nil || ok {
		t.Errorf("Exists(missing) = %v, %v; want false, nil", ok, err)
	}

	if err := s.Put(ctx, "k", []byte("v"), "text/plain"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	ok, err = Exists(ctx, s, "k")
	if err != nil || !ok {
		t.Errorf("Exists(present) = %v, %v; want true, nil", ok, err)
	}
}
