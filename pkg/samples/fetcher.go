package samples

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxSampleBytes caps a single download.
const maxSampleBytes = 32 << 20

// ErrSampleTooLarge is returned when a download exceeds the size cap.
var ErrSampleTooLarge = errors.New("sample exceeds size limit")

// Fetcher downloads sample files from allowlisted hosts.
type Fetcher struct {
	httpClient     *http.Client
	allowedDomains []string
	cache          *Cache
	maxBytes       int64
	logger         *slog.Logger
}

// NewFetcher creates a fetcher. An empty allowlist falls back to DefaultAllowedDomains.
func NewFetcher(allowedDomains []string, cacheTTL time.Duration, hc *http.Client) *Fetcher {
	if len(allowedDomains) == 0 {
		allowedDomains = DefaultAllowedDomains
	}
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{
		httpClient:     hc,
		allowedDomains: allowedDomains,
		cache:          NewCache(cacheTTL),
		maxBytes:       maxSampleBytes,
		logger:         slog.With("component", "samples"),
	}
}

// Fetch returns the content at rawURL, serving repeated requests from the cache.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := ValidateURL(rawURL, f.allowedDomains); err != nil {
		return nil, err
	}
	downloadURL := ConvertToRawURL(rawURL)

	if data, ok := f.cache.Get(downloadURL); ok {
		f.logger.Debug("Sample served from cache", "url", downloadURL)
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sample from %s: %w", downloadURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, downloadURL)
	}

	// One byte past the cap tells a file of exactly maxBytes from a longer one.
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrSampleTooLarge, downloadURL, f.maxBytes)
	}

	f.cache.Set(downloadURL, data)
	f.logger.Info("Sample downloaded", "url", downloadURL, "bytes", len(data))
	return data, nil
}
