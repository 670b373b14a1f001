// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch resolves conversion sources. Local paths pass through;
// http(s) URLs are downloaded into a work directory first.
package fetch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pdfraster/internal/httputil"
	"github.com/pdiddy/pdfraster/pkg/types"
)

// IsRemote reports whether src is an http or https URL.
func IsRemote(src string) bool {
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Fetcher downloads remote PDFs.
type Fetcher struct {
	client *http.Client
	cfg    types.FetchConfig
}

// New returns a Fetcher using client for requests.
func New(client *http.Client, cfg types.FetchConfig) *Fetcher {
	if cfg.WorkDir == "" {
		cfg.WorkDir = "."
	}
	return &Fetcher{client: client, cfg: cfg}
}

// Resolve returns a local path for src, downloading it when remote. A
// previously downloaded file is reused.
func (f *Fetcher) Resolve(ctx context.Context, src string, w io.Writer) (string, error) {
	if !IsRemote(src) {
		return src, nil
	}

	dest := filepath.Join(f.cfg.WorkDir, LocalName(src))
	if _, err := os.Stat(dest); err == nil {
		fmt.Fprintf(w, "skipped: %s (already downloaded)\n", filepath.Base(dest))
		return dest, nil
	}

	if err := os.MkdirAll(f.cfg.WorkDir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", f.cfg.WorkDir, err)
	}

	fmt.Fprintf(w, "downloading: %s\n", src)
	if err := f.download(ctx, src, dest); err != nil {
		return "", fmt.Errorf("downloading %s: %w", src, err)
	}
	return dest, nil
}

// LocalName derives a file name for a remote source: the last URL path
// segment when it is a .pdf, otherwise a hash of the URL.
func LocalName(src string) string {
	if u, err := url.Parse(src); err == nil {
		base := path.Base(u.Path)
		if strings.EqualFold(path.Ext(base), ".pdf") && base != ".pdf" {
			return base
		}
	}
	sum := sha256.Sum256([]byte(src))
	return fmt.Sprintf("%x.pdf", sum[:8])
}

// download fetches rawURL to destPath through a temporary file.
func (f *Fetcher) download(ctx context.Context, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, f.client, req, f.cfg.MaxRetries)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
