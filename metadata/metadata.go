// Package metadata extracts OpenGraph, Twitter Card and standard meta tags
// from a rendered page, persists them as JSON and downloads the page's
// representative image.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"multishot/layout"
	"multishot/logger"
)

const (
	// DefaultImageTimeout bounds the representative image download.
	DefaultImageTimeout = 10 * time.Second

	KeyExtractedAt    = "extracted_at"
	KeySourceURL      = "source_url"
	KeyTimestamp      = "timestamp"
	KeyImage          = "image"
	KeyImageLocalPath = "image_local_path"

	summaryWidth = 80
)

// Source exposes the rendered document of a page.
type Source interface {
	HTML(ctx context.Context) (string, error)
}

// PageMetadata is the result of one extraction.
type PageMetadata struct {
	Fields         map[string]string
	ExtractedAt    time.Time
	SourceURL      string
	Timestamp      string
	LocalImagePath string
	// Path is the JSON file the fields were written to.
	Path string
}

// Get returns a field value, or "" when absent.
func (m *PageMetadata) Get(key string) string {
	if m == nil {
		return ""
	}
	return m.Fields[key]
}

// Extractor reads metadata from pages.
type Extractor struct {
	client    *http.Client
	userAgent string
	logger    logger.Logger
	now       func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithHTTPClient sets the client used for image downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Extractor) {
		e.client = c
	}
}

// WithUserAgent sets the User-Agent sent with image downloads.
func WithUserAgent(ua string) Option {
	return func(e *Extractor) {
		e.userAgent = ua
	}
}

// WithClock overrides the extraction time source.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// NewExtractor creates an Extractor. A nil log discards output.
func NewExtractor(log logger.Logger, opts ...Option) *Extractor {
	if log == nil {
		log = logger.NewNop()
	}
	e := &Extractor{
		client: &http.Client{Timeout: DefaultImageTimeout},
		logger: log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses the page's rendered DOM and writes
// {basePath}/opengraph/opengraph-{timestamp}.json. When an image is
// advertised it is downloaded next to the JSON; a failed download is logged
// and does not fail the extraction.
func (e *Extractor) Extract(ctx context.Context, page Source, pageURL, basePath, timestamp string) (*PageMetadata, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, err
	}
	fields, err := Parse(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	now := e.now()
	fields[KeyExtractedAt] = now.Format(time.RFC3339)
	fields[KeySourceURL] = pageURL
	fields[KeyTimestamp] = timestamp

	dir := layout.MetadataDir(basePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create metadata folder: %w", err)
	}

	md := &PageMetadata{
		Fields:      fields,
		ExtractedAt: now,
		SourceURL:   pageURL,
		Timestamp:   timestamp,
		Path:        filepath.Join(dir, layout.MetadataFileName(timestamp)),
	}
	if err := writeJSON(md.Path, fields); err != nil {
		return nil, err
	}
	e.logger.Info("Metadata saved", logger.String("path", md.Path), logger.Int("fields", len(fields)))

	if image := fields[KeyImage]; image != "" {
		e.fetchImage(ctx, md, image, dir)
	}
	return md, nil
}

func (e *Extractor) fetchImage(ctx context.Context, md *PageMetadata, image, dir string) {
	imageURL, err := ResolveImageURL(md.SourceURL, image)
	if err != nil {
		e.logger.Warn("Skipping metadata image", logger.String("image", image), logger.Error(err))
		return
	}

	local, err := e.downloadImage(ctx, imageURL, dir, md.Timestamp)
	if err != nil {
		e.logger.Warn("Metadata image download failed", logger.String("image_url", imageURL), logger.Error(err))
		return
	}
	e.logger.Info("Metadata image saved", logger.String("path", local))

	md.LocalImagePath = local
	md.Fields[KeyImageLocalPath] = local
	if err := writeJSON(md.Path, md.Fields); err != nil {
		e.logger.Warn("Failed to update metadata file", logger.String("path", md.Path), logger.Error(err))
	}
}

// writeJSON persists fields as indented JSON, keeping non-ASCII text and
// HTML characters as-is.
func writeJSON(path string, fields map[string]string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fields); err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write metadata file: %w", err)
	}
	return nil
}

// Summarize logs the headline fields of md.
func Summarize(log logger.Logger, md *PageMetadata) {
	if md == nil {
		return
	}
	fields := []logger.Field{logger.Int("fields", len(md.Fields))}
	for _, key := range []string{"title", "description", "type", "site_name"} {
		if v, ok := md.Fields[key]; ok {
			fields = append(fields, logger.String(key, truncate(v, summaryWidth)))
		}
	}
	_, hasImage := md.Fields[KeyImage]
	fields = append(fields, logger.Bool("image", hasImage))
	log.Info("Metadata found", fields...)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width]) + "..."
}
