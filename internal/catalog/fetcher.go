// Package catalog downloads emote catalogs published as JSON documents.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/haytac/chat-tokenizer/internal/config"
	"github.com/haytac/chat-tokenizer/internal/emote"
	"github.com/haytac/chat-tokenizer/pkg/interfaces"
)

const (
	maxFetchRetries   = 3
	initialRetryDelay = 2 * time.Second
	maxRetryDelay     = 30 * time.Second

	// maxCatalogBytes caps a single catalog document.
	maxCatalogBytes = 16 << 20
)

// Document is the wire shape of a catalog.
type Document struct {
	Emotes []*emote.Descriptor `json:"emotes"`
}

// Parse decodes a catalog document and drops entries without a name. Entries
// without a provider are attributed to provider.
func Parse(r io.Reader, provider string) ([]*emote.Descriptor, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	descs := make([]*emote.Descriptor, 0, len(doc.Emotes))
	for _, d := range doc.Emotes {
		if d == nil || d.Name == "" {
			continue
		}
		if d.Provider == "" {
			d.Provider = provider
		}
		descs = append(descs, d)
	}
	return descs, nil
}

// HTTPFetcher implements interfaces.CatalogFetcher over HTTP with retries.
type HTTPFetcher struct {
	clientFactory interfaces.HTTPClientFactory
	userAgent     string

	initialDelay time.Duration
	maxDelay     time.Duration
}

// NewHTTPFetcher creates a new HTTPFetcher.
func NewHTTPFetcher(clientFactory interfaces.HTTPClientFactory, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		clientFactory: clientFactory,
		userAgent:     userAgent,
		initialDelay:  initialRetryDelay,
		maxDelay:      maxRetryDelay,
	}
}

// Fetch retrieves the catalog at url. A 304 answer yields a result with
// NotModified set and the previous etag.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, etag *string, proxy *config.ProxyConfig) (*interfaces.CatalogResult, error) {
	var lastErr error
	currentDelay := f.initialDelay

	for attempt := 0; attempt <= maxFetchRetries; attempt++ {
		if attempt > 0 {
			log.Warn().Str("catalog_url", url).Int("attempt", attempt).Dur("delay", currentDelay).Msg("Retrying catalog fetch after error")
			select {
			case <-time.After(currentDelay):
				currentDelay *= 2
				if currentDelay > f.maxDelay {
					currentDelay = f.maxDelay
				}
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch context cancelled during retry backoff for %s: %w", url, ctx.Err())
			}
		}

		result, retry, err := f.fetchOnce(ctx, url, etag, proxy)
		if err == nil {
			return result, nil
		}
		lastErr = fmt.Errorf("attempt %d: %w", attempt, err)
		if !retry {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("all %d fetch attempts failed for %s: last error: %w", maxFetchRetries+1, url, lastErr)
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string, etag *string, proxy *config.ProxyConfig) (*interfaces.CatalogResult, bool, error) {
	httpClient, err := f.clientFactory.GetClient(proxy)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get HTTP client for %s: %w", url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	if etag != nil && *etag != "" {
		req.Header.Set("If-None-Match", *etag)
	}
	req.Header.Set("Accept", "application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		retry := !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		return nil, retry, fmt.Errorf("failed to fetch catalog %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		log.Debug().Str("catalog_url", url).Msg("Catalog not modified (304)")
		return &interfaces.CatalogResult{NotModified: true, NewEtag: etag}, false, nil
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("failed to fetch catalog %s: status %d, body: %s", url, resp.StatusCode, string(bodyBytes))
		return nil, resp.StatusCode < 400 || resp.StatusCode >= 500, err
	}

	descs, err := Parse(io.LimitReader(resp.Body, maxCatalogBytes), "")
	if err != nil {
		return nil, true, fmt.Errorf("failed to parse catalog %s: %w", url, err)
	}

	result := &interfaces.CatalogResult{Emotes: descs}
	if newEtag := resp.Header.Get("ETag"); newEtag != "" {
		result.NewEtag = &newEtag
	}
	return result, false, nil
}
