package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/haytac/chat-tokenizer/internal/catalog"
	"github.com/haytac/chat-tokenizer/internal/config"
	"github.com/haytac/chat-tokenizer/internal/database"
	"github.com/haytac/chat-tokenizer/internal/emote"
	"github.com/haytac/chat-tokenizer/internal/metrics"
	"github.com/haytac/chat-tokenizer/internal/platform"
	"github.com/haytac/chat-tokenizer/internal/proxy"
	"github.com/haytac/chat-tokenizer/internal/render"
	"github.com/haytac/chat-tokenizer/internal/scheduler"
	"github.com/haytac/chat-tokenizer/internal/server"
	"github.com/haytac/chat-tokenizer/internal/tokenizer"
	"github.com/haytac/chat-tokenizer/pkg/interfaces"
)

// Application holds all dependencies for the app.
type Application struct {
	Config        *config.AppConfig
	DB            *database.DB
	Emotes        *emote.Store
	Tokenizer     *tokenizer.Tokenizer
	Normalizers   *platform.Registry
	Scheduler     interfaces.Scheduler
	CatalogWorker *CatalogWorker
	Server        *server.Server

	// Stores
	EmoteStore  *database.EmoteStore
	SourceStore *database.SourceStore
}

// NewTokenizer builds the tokenizer described by cfg.
func NewTokenizer(cfg config.TokenizerConfig) (*tokenizer.Tokenizer, error) {
	link, mention, err := tokenizer.CompilePatterns(cfg.LinkPattern, cfg.MentionPattern)
	if err != nil {
		return nil, err
	}
	opts := []tokenizer.Option{
		tokenizer.WithLinkMatcher(link),
		tokenizer.WithMentionMatcher(mention),
	}
	if cfg.MentionSigil != "" {
		opts = append(opts, tokenizer.WithMentionSigil(cfg.MentionSigil))
	}
	if len(cfg.FilteredWords) > 0 {
		opts = append(opts, tokenizer.WithSuppress(tokenizer.FilteredWordsPolicy))
	}
	return tokenizer.New(opts...), nil
}

// NewApplication creates and initializes a new application instance.
func NewApplication(cfg *config.AppConfig) (*Application, error) {
	tok, err := NewTokenizer(cfg.Tokenizer)
	if err != nil {
		return nil, fmt.Errorf("failed to build tokenizer: %w", err)
	}

	db, err := database.Connect(cfg.DatabasePath, cfg.MigrationsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	emoteStore := database.NewEmoteStore(db)
	sourceStore := database.NewSourceStore(db)
	emotes := emote.NewStore(cfg.ChannelCacheTTL())
	emotes.SetLoader(emoteStore.ChannelLoader(channelLoadTimeout))
	registry := platform.DefaultRegistry()

	httpClientFactory := proxy.NewHTTPClientFactory()
	fetcher := catalog.NewHTTPFetcher(httpClientFactory, cfg.Catalog.UserAgent)
	appScheduler := scheduler.NewCatalogScheduler(secondsDuration(cfg.DefaultRefreshSeconds))

	worker := NewCatalogWorker(sourceStore, emoteStore, emotes, fetcher, cfg)

	srv := server.New(server.Deps{
		Config:        cfg.Server,
		Tokenizer:     tok,
		Emotes:        emotes,
		Repo:          emoteStore,
		Normalizers:   registry,
		Renderer:      render.New(),
		FilteredWords: cfg.Tokenizer.FilteredWords,
	})

	return &Application{
		Config:        cfg,
		DB:            db,
		Emotes:        emotes,
		Tokenizer:     tok,
		Normalizers:   registry,
		Scheduler:     appScheduler,
		CatalogWorker: worker,
		Server:        srv,
		EmoteStore:    emoteStore,
		SourceStore:   sourceStore,
	}, nil
}

// LoadEmotes copies every persisted emote scope into the in-memory store.
func (app *Application) LoadEmotes(ctx context.Context) error {
	scopes, err := app.EmoteStore.ListScopes(ctx)
	if err != nil {
		return fmt.Errorf("listing emote scopes: %w", err)
	}
	for _, scope := range scopes {
		m, err := app.EmoteStore.LoadMap(ctx, scope)
		if err != nil {
			return fmt.Errorf("loading emotes for scope %q: %w", scope, err)
		}
		install(app.Emotes, scope, m)
	}
	log.Info().Int("scopes", len(scopes)).Int("channels", len(app.Emotes.Channels())).Msg("Persisted emotes loaded")
	return nil
}

func install(store *emote.Store, scope string, m emote.Map) {
	if scope == database.GlobalScope {
		store.SetGlobal(m)
		metrics.CatalogEmotes.WithLabelValues("global").Set(float64(len(m)))
		return
	}
	if len(m) == 0 {
		store.DropChannel(scope)
		metrics.CatalogEmotes.DeleteLabelValues(scope)
		return
	}
	store.SetChannel(scope, m)
	metrics.CatalogEmotes.WithLabelValues(scope).Set(float64(len(m)))
}

// Run starts the scheduler, the metrics server and the API server and blocks
// until a shutdown signal arrives or ctx is done.
func (app *Application) Run(ctx context.Context) error {
	log.Info().Msg("Starting application...")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(app.Config.MetricsPort)

	if err := app.LoadEmotes(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to load persisted emotes")
		return err
	}

	sources, err := app.SourceStore.GetEnabledSources(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load catalog sources from database")
		return fmt.Errorf("loading catalog sources: %w", err)
	}
	if len(sources) == 0 {
		log.Info().Msg("No enabled catalog sources found in the database. Add sources via CLI.")
	}
	for _, src := range sources {
		if err := app.Scheduler.Add(src, app.CatalogWorker.Refresh); err != nil {
			log.Error().Err(err).Int64("source_id", src.ID).Msg("Failed to add catalog source to scheduler")
		}
	}
	app.Scheduler.Start(ctx)

	serveErr := app.Server.ListenAndServe(ctx, app.Config.ListenAddr)
	if serveErr != nil {
		log.Error().Err(serveErr).Msg("API server failed")
	} else {
		log.Info().Msg("Received shutdown signal")
	}

	log.Info().Msg("Shutting down scheduler...")
	app.Scheduler.Stop()

	log.Info().Msg("Closing database connection...")
	if err := app.DB.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database")
	}

	log.Info().Msg("Application shut down gracefully.")
	return serveErr
}
