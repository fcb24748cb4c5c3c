package builder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eringen/siteforge/objectstore"
)

// Object keys used by the builder inside a site's bucket. Builder
// configuration lives under _builder/ so it never collides with published
// artifacts at the bucket root.
const (
	siteConfigKey    = "_builder/site.json"
	pageConfigPrefix = "_builder/pages/"
)

// PageConfigKey returns the object key holding a page's configuration.
func PageConfigKey(pageID string) string {
	return pageConfigPrefix + pageID + ".json"
}

// ConfigStore loads and saves the two builder document kinds. A missing
// site config means "not yet initialized", not an error, so both getters
// return nil without error when the document is absent or unreadable.
// Writes are last-writer-wins; there is no optimistic concurrency.
type ConfigStore struct {
	objects objectstore.Store
	now     func() time.Time
}

// NewConfigStore creates a ConfigStore over the given object store.
func NewConfigStore(objects objectstore.Store) *ConfigStore {
	return &ConfigStore{objects: objects, now: time.Now}
}

// SiteConfig loads the site configuration, or nil if none exists.
func (s *ConfigStore) SiteConfig(ctx context.Context) (*SiteConfig, error) {
	raw, err := s.objects.Get(ctx, siteConfigKey)
	if errors.Is(err, objectstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("builder: load site config: %w", err)
	}
	var cfg SiteConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		// An undecodable document is treated like a missing one; the
		// caller re-initializes rather than hard-failing the whole admin.
		return nil, nil
	}
	return &cfg, nil
}

// SaveSiteConfig stamps updated_at and writes the site configuration.
func (s *ConfigStore) SaveSiteConfig(ctx context.Context, cfg *SiteConfig) error {
	cfg.UpdatedAt = s.timestamp()
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("builder: encode site config: %w", err)
	}
	return s.objects.Put(ctx, siteConfigKey, raw, "application/json")
}

// PageConfig loads one page's configuration, or nil if it does not exist.
func (s *ConfigStore) PageConfig(ctx context.Context, pageID string) (*PageConfig, error) {
	raw, err := s.objects.Get(ctx, PageConfigKey(pageID))
	if errors.Is(err, objectstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("builder: load page %s: %w", pageID, err)
	}
	var cfg PageConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, nil
	}
	return &cfg, nil
}

// SavePageConfig stamps updated_at and writes one page's configuration.
func (s *ConfigStore) SavePageConfig(ctx context.Context, pageID string, cfg *PageConfig) error {
	cfg.UpdatedAt = s.timestamp()
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("builder: encode page %s: %w", pageID, err)
	}
	return s.objects.Put(ctx, PageConfigKey(pageID), raw, "application/json")
}

// DeletePageConfig removes one page's configuration document. Removing a
// page that does not exist is not an error.
func (s *ConfigStore) DeletePageConfig(ctx context.Context, pageID string) error {
	return s.objects.Delete(ctx, PageConfigKey(pageID))
}

func (s *ConfigStore) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}
