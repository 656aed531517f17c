// Package covers caches book cover images on local disk so the catalog
// does not hammer upstream image hosts.
package covers

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Cache handles local caching of book cover images.
type Cache struct {
	cacheDir   string
	httpClient *http.Client
}

// NewCache creates a new cover cache at the specified directory.
func NewCache(cacheDir string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &Cache{
		cacheDir: cacheDir,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// GetCover returns the cached cover for a book, fetching and caching it
// when not yet present. Returns the path of the cached file, or an empty
// string when the book has no cover URL.
func (c *Cache) GetCover(ctx context.Context, bookID uint, coverURL string) (string, error) {
	if coverURL == "" {
		return "", nil
	}

	cachePath := filepath.Join(c.cacheDir, c.coverFilename(bookID, coverURL))
	if _, err := os.Stat(cachePath); err == nil {
		return cachePath, nil
	}

	if err := c.fetchAndCache(ctx, coverURL, cachePath); err != nil {
		return "", err
	}
	return cachePath, nil
}

// Warm pre-fetches a cover into the cache. Used by the background task
// queue after a book is added to the catalog. A nil cache reports an error
// rather than panicking.
func (c *Cache) Warm(ctx context.Context, bookID uint, coverURL string) error {
	if c == nil {
		return fmt.Errorf("cover cache not configured")
	}
	_, err := c.GetCover(ctx, bookID, coverURL)
	return err
}

// InvalidateCover removes the cached cover for a book.
func (c *Cache) InvalidateCover(bookID uint) error {
	pattern := filepath.Join(c.cacheDir, fmt.Sprintf("cover_%d_*", bookID))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// coverFilename generates a unique filename based on book ID and URL hash.
func (c *Cache) coverFilename(bookID uint, coverURL string) string {
	hash := sha256.Sum256([]byte(coverURL))
	return fmt.Sprintf("cover_%d_%x.jpg", bookID, hash[:8])
}

// fetchAndCache downloads a cover image and saves it to the cache.
func (c *Cache) fetchAndCache(ctx context.Context, url, cachePath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Bibliotheca/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch cover: status %d", resp.StatusCode)
	}

	// Write to a temp file in the same directory, then rename into place.
	tmpFile, err := os.CreateTemp(c.cacheDir, "cover_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if _, err = io.Copy(tmpFile, resp.Body); err != nil {
		return err
	}
	tmpFile.Close()

	return os.Rename(tmpPath, cachePath)
}

// CacheDir returns the cache directory path.
func (c *Cache) CacheDir() string {
	return c.cacheDir
}
