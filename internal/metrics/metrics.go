package metrics

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/haytac/chat-tokenizer/internal/chat"
)

var (
	// MessagesTokenized counts tokenization passes.
	MessagesTokenized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chattok_messages_tokenized_total",
			Help: "Total number of chat messages tokenized.",
		},
		[]string{"platform", "status"}, // status: success, error
	)

	// TokensEmitted counts emitted tokens by kind.
	TokensEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chattok_tokens_emitted_total",
			Help: "Total number of tokens emitted, by kind.",
		},
		[]string{"kind"},
	)

	// NormalizeErrors counts raw events that could not be normalized.
	NormalizeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chattok_normalize_errors_total",
			Help: "Total number of raw chat events rejected by a platform normalizer.",
		},
		[]string{"platform"},
	)

	// CatalogRefreshes counts catalog refresh attempts.
	CatalogRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chattok_catalog_refreshes_total",
			Help: "Total number of emote catalog refreshes.",
		},
		[]string{"source", "status"}, // status: success, not_modified, fetch_error, store_error
	)

	// CatalogEmotes reports the number of emotes loaded per scope.
	CatalogEmotes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chattok_catalog_emotes",
			Help: "Number of emotes currently loaded, by scope.",
		},
		[]string{"scope"},
	)

	// HTTPRequests counts API requests.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chattok_http_requests_total",
			Help: "Total number of HTTP API requests.",
		},
		[]string{"route", "code"},
	)

	// ActiveCatalogWorkers reports the number of in-flight catalog refreshes.
	ActiveCatalogWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chattok_active_catalog_workers",
			Help: "Number of currently running catalog refresh goroutines.",
		},
	)
)

// ObserveTokens records the outcome of one tokenization pass.
func ObserveTokens(platform chat.Platform, tokens []chat.Token, err error) {
	if err != nil {
		MessagesTokenized.WithLabelValues(string(platform), "error").Inc()
		return
	}
	MessagesTokenized.WithLabelValues(string(platform), "success").Inc()
	for _, tok := range tokens {
		TokensEmitted.WithLabelValues(string(tok.Kind)).Inc()
	}
}

// Router returns a router exposing /metrics.
func Router() http.Handler {
	mux := chi.NewRouter()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// StartServer starts the Prometheus metrics HTTP server.
func StartServer(addr string) {
	if addr == "" {
		log.Info().Msg("Metrics server address not configured, Prometheus endpoint will not be available.")
		return
	}

	log.Info().Str("address", addr).Msg("Starting Prometheus metrics server")
	go func() {
		if err := http.ListenAndServe(addr, Router()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Prometheus metrics server failed")
		}
	}()
}
