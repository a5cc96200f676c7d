package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"multishot/layout"
)

const defaultImageExt = "jpg"

var imageExts = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
}

// ResolveImageURL makes a possibly relative image reference absolute against
// the page it was found on.
func ResolveImageURL(pageURL, image string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(image))
	if err != nil {
		return "", fmt.Errorf("parse image url: %w", err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// ImageExt infers a file extension from the last path segment of an image
// URL, falling back to jpg.
func ImageExt(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return defaultImageExt
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
	if imageExts[ext] {
		return ext
	}
	return defaultImageExt
}

// downloadImage fetches imageURL into dir and returns the written path.
func (e *Extractor) downloadImage(ctx context.Context, imageURL, dir, timestamp string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build image request: %w", err)
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}

	dest := filepath.Join(dir, layout.ImageFileName(timestamp, ImageExt(imageURL)))
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		_ = os.Remove(dest)
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close image file: %w", err)
	}
	return dest, nil
}
