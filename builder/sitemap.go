package builder

import (
	"bytes"
	"context"
	"encoding/xml"
	"strings"
	"time"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// writeSitemap generates sitemap.xml for the given published page ids and
// stores it alongside the page artifacts. The index page maps to the bare
// site URL.
func (l *Lifecycle) writeSitemap(ctx context.Context, pageIDs []string) error {
	base := strings.TrimRight(l.SiteURL, "/")
	today := l.now().UTC().Format(time.DateOnly)

	urls := make([]sitemapURL, 0, len(pageIDs))
	for _, pageID := range pageIDs {
		loc := base + "/" + PublishFilename(pageID)
		if pageID == "index" {
			loc = base + "/"
		}
		urls = append(urls, sitemapURL{Loc: loc, LastMod: today})
	}

	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(sitemap); err != nil {
		return err
	}
	buf.WriteByte('\n')
	return l.objects.Put(ctx, "sitemap.xml", buf.Bytes(), "application/xml; charset=utf-8")
}
