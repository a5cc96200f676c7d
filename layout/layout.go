// Package layout derives client names, artifact file names and the on-disk
// directory tree for a capture run.
package layout

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	// PlaceholderClient is used when no host can be derived from a URL.
	PlaceholderClient = "website"
	// PlaceholderSlug names artifacts for URLs without a path.
	PlaceholderSlug = "home"
	// MetadataFolder holds the OpenGraph JSON and downloaded image.
	MetadataFolder = "opengraph"
	// TimestampLayout formats run timestamps, e.g. 20240101_000000.
	TimestampLayout = "20060102_150405"
)

var (
	clientUnsafe = regexp.MustCompile(`[^a-z0-9.]`)
	slugUnsafe   = regexp.MustCompile(`[^A-Za-z0-9-]`)
)

// DeriveClientName returns the lower-cased host of rawURL without a leading
// "www." and with every character outside [a-z0-9.] removed. It never fails:
// unparsable input yields PlaceholderClient.
func DeriveClientName(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return PlaceholderClient
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.Trim(clientUnsafe.ReplaceAllString(host, ""), ".")
	if host == "" {
		return PlaceholderClient
	}
	return host
}

// PathSlug turns the URL path (and fragment) into a file-name fragment.
func PathSlug(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return PlaceholderSlug
	}
	p := strings.Trim(u.Path, "/")
	if u.Fragment != "" {
		p += "#" + u.Fragment
	}
	p = strings.ReplaceAll(p, "/", "-")
	p = strings.ReplaceAll(p, "#", "-section-")
	p = slugUnsafe.ReplaceAllString(p, "")
	if p == "" {
		return PlaceholderSlug
	}
	return p
}

// ArtifactName builds {domain}_{pathSlug}-{deviceID}[-fullpage]-{timestamp}.png.
// The viewport and full-page names for one (url, device, timestamp) triple
// differ only by the -fullpage marker.
func ArtifactName(rawURL, deviceID, timestamp string, fullPage bool) string {
	suffix := ""
	if fullPage {
		suffix = "-fullpage"
	}
	name := fmt.Sprintf("%s_%s-%s%s-%s.png",
		DeriveClientName(rawURL), PathSlug(rawURL), sanitizeFilename(deviceID), suffix, sanitizeFilename(timestamp))
	return name
}

// sanitizeFilename drops characters that are unsafe in a file name.
func sanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ' || r == ':' || r == '/' || r == '\\':
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Timestamp formats t with TimestampLayout.
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// DefaultOutputRoot is the per-user picture directory used when no output
// directory is configured.
func DefaultOutputRoot() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", "captures")
	}
	return filepath.Join(home, "Pictures", "multishot")
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// BasePath returns {outputRoot}/{client}.
func BasePath(outputRoot, client string) string {
	if outputRoot == "" {
		outputRoot = DefaultOutputRoot()
	}
	return filepath.Join(ExpandHome(outputRoot), client)
}

// EnsureDeviceFolders creates {outputRoot}/{client}/{deviceID} for each
// requested device and returns the client base path. Existing directories are
// not an error.
func EnsureDeviceFolders(client string, deviceIDs []string, outputRoot string) (string, error) {
	base := BasePath(outputRoot, client)
	for _, id := range deviceIDs {
		dir := filepath.Join(base, id)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create device folder %s: %w", dir, err)
		}
	}
	return base, nil
}

// MetadataDir returns the metadata folder below a client base path.
func MetadataDir(base string) string {
	return filepath.Join(base, MetadataFolder)
}

// MetadataFileName names the metadata JSON for a run.
func MetadataFileName(timestamp string) string {
	return fmt.Sprintf("opengraph-%s.json", timestamp)
}

// ImageFileName names the downloaded representative image for a run.
func ImageFileName(timestamp, ext string) string {
	return fmt.Sprintf("og-image-%s.%s", timestamp, ext)
}
