package proxy

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"

	"github.com/haytac/chat-tokenizer/internal/config"
)

// DefaultClientTimeout bounds a whole catalog request including the body read.
const DefaultClientTimeout = 60 * time.Second

// DefaultHTTPClientFactory builds HTTP clients, optionally routed through a proxy.
type DefaultHTTPClientFactory struct {
	Timeout time.Duration
}

// NewHTTPClientFactory creates a new DefaultHTTPClientFactory.
func NewHTTPClientFactory() *DefaultHTTPClientFactory {
	return &DefaultHTTPClientFactory{Timeout: DefaultClientTimeout}
}

// ProxyURL returns the proxy URL for p including credentials, or nil when p is
// not enabled.
func ProxyURL(p *config.ProxyConfig) (*url.URL, error) {
	if !p.Enabled() {
		return nil, nil
	}
	scheme := p.Type
	if scheme == "" {
		scheme = "http"
	}
	u, err := url.Parse(fmt.Sprintf("%s://%s", scheme, p.Address))
	if err != nil {
		return nil, fmt.Errorf("failed to parse proxy URL %s://%s: %w", scheme, p.Address, err)
	}
	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u, nil
}

// GetClient returns an HTTP client configured with p. A nil or disabled p yields a
// direct client that still honours the HTTP_PROXY environment variables.
func (f *DefaultHTTPClientFactory) GetClient(p *config.ProxyConfig) (*http.Client, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	proxyURL, err := ProxyURL(p)
	if err != nil {
		return nil, err
	}
	if proxyURL != nil {
		switch proxyURL.Scheme {
		case "http", "https":
			transport.Proxy = http.ProxyURL(proxyURL)
		case "socks5":
			dialer, err := proxy.FromURL(proxyURL, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("failed to create SOCKS5 dialer for %s: %w", p.Address, err)
			}
			contextDialer, ok := dialer.(proxy.ContextDialer)
			if !ok {
				return nil, fmt.Errorf("SOCKS5 dialer does not implement proxy.ContextDialer")
			}
			transport.DialContext = contextDialer.DialContext
			transport.Proxy = nil
		default:
			return nil, fmt.Errorf("unsupported proxy type: %s", proxyURL.Scheme)
		}
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}
	return &http.Client{Transport: transport, Timeout: timeout}, nil
}
