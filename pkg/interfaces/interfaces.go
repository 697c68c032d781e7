package interfaces

import (
	"context"
	"net/http"

	"github.com/haytac/chat-tokenizer/internal/chat"
	"github.com/haytac/chat-tokenizer/internal/config"
	"github.com/haytac/chat-tokenizer/internal/database"
	"github.com/haytac/chat-tokenizer/internal/emote"
	"github.com/haytac/chat-tokenizer/internal/tokenizer"
)

// CatalogResult holds the outcome of a catalog fetch.
type CatalogResult struct {
	// Emotes is nil when the catalog was not modified since the given ETag.
	Emotes      []*emote.Descriptor
	NotModified bool
	NewEtag     *string
}

// CatalogFetcher downloads an emote catalog.
type CatalogFetcher interface {
	Fetch(ctx context.Context, url string, etag *string, proxy *config.ProxyConfig) (*CatalogResult, error)
}

// Scheduler manages timed catalog refreshes.
type Scheduler interface {
	Add(src *database.CatalogSource, task func(src *database.CatalogSource)) error
	Start(ctx context.Context)
	Stop()
}

// ProxyChecker checks if a proxy is working.
type ProxyChecker interface {
	Check(ctx context.Context, proxy *config.ProxyConfig, targetURL string) error
}

// HTTPClientFactory creates HTTP clients.
type HTTPClientFactory interface {
	GetClient(proxy *config.ProxyConfig) (*http.Client, error)
}

// MessageTokenizer annotates a chat message with tokens.
type MessageTokenizer interface {
	Tokenize(msg *chat.Message, opts tokenizer.Options) ([]chat.Token, error)
}

// MessageNormalizer turns raw platform payloads into chat messages.
type MessageNormalizer interface {
	Normalize(p chat.Platform, raw []byte) (*chat.Message, error)
}

// EmoteRepository persists emote maps.
type EmoteRepository interface {
	ReplaceScope(ctx context.Context, scope string, descs []*emote.Descriptor) (int, error)
	ReplaceSource(ctx context.Context, sourceID int64, scope string, descs []*emote.Descriptor) (int, error)
	LoadMap(ctx context.Context, scope string) (emote.Map, error)
	ListScopes(ctx context.Context) ([]string, error)
}
