package proxy

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/haytac/chat-tokenizer/internal/config"
	"github.com/haytac/chat-tokenizer/pkg/interfaces"
)

// DefaultCheckURL is probed when no target is given.
const DefaultCheckURL = "https://www.google.com/generate_204"

// Checker probes whether a catalog host is reachable through a proxy.
type Checker struct {
	clientFactory interfaces.HTTPClientFactory
	userAgent     string
}

// NewChecker creates a Checker.
func NewChecker(factory interfaces.HTTPClientFactory, userAgent string) *Checker {
	return &Checker{clientFactory: factory, userAgent: userAgent}
}

// Check issues a GET to targetURL through p and expects a 2xx answer.
func (c *Checker) Check(ctx context.Context, p *config.ProxyConfig, targetURL string) error {
	if targetURL == "" {
		targetURL = DefaultCheckURL
	}
	label := "direct"
	if p.Enabled() {
		label = p.Address
	}

	client, err := c.clientFactory.GetClient(p)
	if err != nil {
		return fmt.Errorf("proxy %s: failed to get HTTP client: %w", label, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, targetURL, nil)
	if err != nil {
		return fmt.Errorf("proxy %s: failed to create request to %s: %w", label, targetURL, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	log.Debug().Str("proxy", label).Str("target_url", targetURL).Msg("Checking proxy reachability")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("proxy %s: connection test to %s failed: %w", label, targetURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		log.Info().Str("proxy", label).Int("status_code", resp.StatusCode).Msg("Proxy check successful")
		return nil
	}
	return fmt.Errorf("proxy %s: connection test to %s returned status %d", label, targetURL, resp.StatusCode)
}
