package metadata

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const ogPrefix = "og:"

// Parse collects OpenGraph, standard and Twitter Card tags from an HTML
// document. OpenGraph properties are keyed without their "og:" prefix and
// lower-cased; standard tags only fill keys OpenGraph left empty.
func Parse(r io.Reader) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	fields := make(map[string]string)
	doc.Find(`meta[property^="og:"], meta[name^="og:"]`).Each(func(_ int, s *goquery.Selection) {
		property := s.AttrOr("property", "")
		if property == "" {
			property = s.AttrOr("name", "")
		}
		content, ok := s.Attr("content")
		if property == "" || !ok || content == "" {
			return
		}
		key := strings.ToLower(strings.Replace(property, ogPrefix, "", 1))
		if key != "" {
			fields[key] = content
		}
	})

	backfill := func(key, value string, found bool) {
		if !found {
			return
		}
		if _, exists := fields[key]; !exists {
			fields[key] = value
		}
	}

	if title := doc.Find("title").First(); title.Length() > 0 {
		backfill("title", strings.TrimSpace(title.Text()), true)
	}
	backfill(metaContent(doc, `meta[name="description"]`, "description"))
	backfill(metaContent(doc, `meta[name="keywords"]`, "keywords"))
	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		backfill("canonical_url", href, true)
	}

	for _, name := range []string{"card", "site", "creator"} {
		if content, ok := doc.Find(fmt.Sprintf(`meta[name="twitter:%s"]`, name)).First().Attr("content"); ok {
			fields["twitter_"+name] = content
		}
	}

	return fields, nil
}

func metaContent(doc *goquery.Document, selector, key string) (string, string, bool) {
	content, ok := doc.Find(selector).First().Attr("content")
	return key, content, ok
}
