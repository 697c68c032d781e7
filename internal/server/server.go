// Package server exposes the tokenizer and emote catalogs over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/haytac/chat-tokenizer/internal/config"
	"github.com/haytac/chat-tokenizer/internal/emote"
	"github.com/haytac/chat-tokenizer/internal/render"
	"github.com/haytac/chat-tokenizer/internal/tokenizer"
	"github.com/haytac/chat-tokenizer/pkg/interfaces"
)

// Server serves the tokenizer API.
type Server struct {
	cfg         config.ServerConfig
	tokenizer   interfaces.MessageTokenizer
	emotes      *emote.Store
	repo        interfaces.EmoteRepository
	normalizers interfaces.MessageNormalizer
	renderer    *render.Renderer
	filtered    []string
	limiter     *clientLimiter
}

// Deps are the collaborators of a Server. Repo may be nil, in which case
// channel emote updates are kept in memory only.
type Deps struct {
	Config        config.ServerConfig
	Tokenizer     interfaces.MessageTokenizer
	Emotes        *emote.Store
	Repo          interfaces.EmoteRepository
	Normalizers   interfaces.MessageNormalizer
	Renderer      *render.Renderer
	FilteredWords []string
}

// New creates a Server.
func New(deps Deps) *Server {
	if deps.Tokenizer == nil {
		deps.Tokenizer = tokenizer.New()
	}
	if deps.Emotes == nil {
		deps.Emotes = emote.NewStore(0)
	}
	if deps.Renderer == nil {
		deps.Renderer = render.New()
	}
	return &Server{
		cfg:         deps.Config,
		tokenizer:   deps.Tokenizer,
		emotes:      deps.Emotes,
		repo:        deps.Repo,
		normalizers: deps.Normalizers,
		renderer:    deps.Renderer,
		filtered:    deps.FilteredWords,
		limiter:     newClientLimiter(deps.Config.RequestsPerSecond, deps.Config.Burst),
	}
}

// Router returns the HTTP handler of the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.limiter.middleware)
		r.Post("/tokenize", s.handleTokenize)
		r.Post("/render", s.handleRender)
		r.Get("/emotes/global", s.handleGlobalEmotes)
		r.Get("/emotes/channels/{channelID}", s.handleChannelEmotes)
		r.Put("/emotes/channels/{channelID}", s.handlePutChannelEmotes)
	})
	return r
}

// ListenAndServe serves the API on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", addr).Msg("Starting API server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("Shutting down API server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
