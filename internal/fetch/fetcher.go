// Package fetch retrieves release artifacts over HTTPS: binaries and
// archives streamed to disk, and remote installer scripts staged for
// privileged execution.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 5 * time.Minute
	// DefaultRetries is the default number of download retries
	DefaultRetries = 3
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "rigup/1.0"
)

// Fetcher handles HTTP downloads with retry logic.
type Fetcher struct {
	client    *http.Client
	cacheDir  string
	userAgent string
	retries   int
}

// NewFetcher creates a new fetcher caching downloads under cacheDir.
func NewFetcher(cacheDir string) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Release hosts bounce through CDNs; allow up to 10 hops
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		cacheDir:  cacheDir,
		userAgent: DefaultUserAgent,
		retries:   DefaultRetries,
	}
}

// SetRetries overrides the retry count. Zero disables retrying.
func (f *Fetcher) SetRetries(n int) {
	if n < 0 {
		n = 0
	}
	f.retries = n
}

// DownloadToFile downloads a URL to a specific file path.
func (f *Fetcher) DownloadToFile(ctx context.Context, url, destPath string) error {
	var lastErr error

	for attempt := 0; attempt <= f.retries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := f.downloadOnce(ctx, url, destPath)
		if err == nil {
			return nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("download failed after %d retries: %w", f.retries, lastErr)
}

// downloadOnce performs a single download attempt.
func (f *Fetcher) downloadOnce(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	destDir := filepath.Dir(destPath)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return fmt.Errorf("copy response body: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Atomic rename so a partial download never looks complete
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}

// DownloadArtifact downloads a release artifact into the cache and returns
// its local path. Cached files are reused; the cache key is
// cache/{tool}/{url digest}/{filename}. Artifact basenames and checksum
// filenames are often version-invariant, so the key must hash the full
// rendered URL: re-running the same manifest re-uses a completed download,
// while a version or architecture change always fetches fresh.
func (f *Fetcher) DownloadArtifact(ctx context.Context, tool, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("no download URL")
	}

	digest := sha256.Sum256([]byte(url))
	cachePath := filepath.Join(f.cacheDir, tool, hex.EncodeToString(digest[:8]), filepath.Base(url))

	if fileExists(cachePath) {
		return cachePath, nil
	}

	if err := f.DownloadToFile(ctx, url, cachePath); err != nil {
		return "", fmt.Errorf("download artifact: %w", err)
	}

	return cachePath, nil
}

// DownloadScript stages a remote installer script at a temporary path and
// returns it. The script is treated as an opaque, trusted executable: it is
// not verified and its contents are not inspected. The caller removes it
// after execution.
func (f *Fetcher) DownloadScript(ctx context.Context, tool, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("no script URL")
	}

	dir, err := os.MkdirTemp("", "rigup-"+tool+"-*")
	if err != nil {
		return "", fmt.Errorf("create script dir: %w", err)
	}

	scriptPath := filepath.Join(dir, "install.sh")
	if err := f.DownloadToFile(ctx, url, scriptPath); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("download script: %w", err)
	}

	if err := os.Chmod(scriptPath, 0o755); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("chmod script: %w", err)
	}

	return scriptPath, nil
}

// fileExists checks if a file exists and is not empty.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
