// Package covers maintains a local disk cache of resized book cover
// images keyed by a stable identifier.
package covers

import (
	"context"
	"crypto/sha1"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"booktracker/internal/config"

	"github.com/disintegration/imaging"
)

const (
	defaultMaxWidth = 1000
	fetchTimeout    = 12 * time.Second
)

// Cache downloads cover images, resizes them, and stores them under the
// configured cache directory. The zero value is not usable; call New.
type Cache struct {
	dir        string
	httpClient *http.Client
	maxWidth   int
}

// Options configures a cover cache. Zero values fall back to the
// configured cache directory, a default HTTP client, and a 1000px width.
type Options struct {
	Dir        string
	HTTPClient *http.Client
	MaxWidth   int
}

// New creates a cover cache.
func New(opts Options) *Cache {
	dir := opts.Dir
	if dir == "" {
		dir = config.CoverCacheDir
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: fetchTimeout}
	}
	maxWidth := opts.MaxWidth
	if maxWidth <= 0 {
		maxWidth = defaultMaxWidth
	}
	return &Cache{dir: dir, httpClient: httpClient, maxWidth: maxWidth}
}

// Identifier derives the cache key for a cover: the ISBN when one is
// known, otherwise a short hash of the source URL with its query string
// stripped so signed or versioned URLs map to the same entry.
func Identifier(isbn, sourceURL string) string {
	if isbn != "" {
		return isbn
	}
	stripped := sourceURL
	if u, err := url.Parse(sourceURL); err == nil {
		u.RawQuery = ""
		u.Fragment = ""
		stripped = u.String()
	}
	sum := sha1.Sum([]byte(stripped))
	return fmt.Sprintf("%x", sum)[:12]
}

// Path returns the on-disk location for an identifier, whether or not a
// cached file exists there yet.
func (c *Cache) Path(identifier string) string {
	return filepath.Join(c.dir, identifier+".jpg")
}

// GetCachedOrFetch returns the local path of the cover for identifier,
// downloading and resizing it from sourceURL on a cache miss. A zero-byte
// file does not count as a hit, and the UpdateCovers setting forces a
// re-download over any hit. Failures return an empty path and leave no
// cache entry behind, so the next call retries the download.
func (c *Cache) GetCachedOrFetch(ctx context.Context, identifier, sourceURL string) string {
	if identifier == "" || sourceURL == "" {
		return ""
	}

	path := c.Path(identifier)
	if !config.UpdateCovers {
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			return path
		}
	}

	if err := c.fetch(ctx, sourceURL, path); err != nil {
		slog.Warn("Failed to cache cover image", "identifier", identifier, "url", sourceURL, "error", err)
		// A forced refresh that fails keeps the previous copy.
		if info, statErr := os.Stat(path); statErr == nil && info.Size() > 0 {
			return path
		}
		_ = os.Remove(path)
		return ""
	}
	return path
}

// fetch downloads the image, resizes it down to the cache width when
// needed, and saves it as JPEG.
func (c *Cache) fetch(ctx context.Context, sourceURL, savePath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d downloading image", resp.StatusCode)
	}

	img, err := imaging.Decode(resp.Body, imaging.AutoOrientation(true))
	if err != nil {
		return err
	}

	if img.Bounds().Dx() > c.maxWidth {
		img = imaging.Resize(img, c.maxWidth, 0, imaging.Lanczos)
	}

	if err := os.MkdirAll(filepath.Dir(savePath), 0o755); err != nil {
		return err
	}

	return imaging.Save(img, savePath, imaging.JPEGQuality(85))
}
