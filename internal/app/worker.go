package app

import (
	"context"
	"time"

	"github.com/haytac/chat-tokenizer/internal/config"
	"github.com/haytac/chat-tokenizer/internal/database"
	"github.com/haytac/chat-tokenizer/internal/emote"
	"github.com/haytac/chat-tokenizer/internal/logging"
	"github.com/haytac/chat-tokenizer/internal/metrics"
	"github.com/haytac/chat-tokenizer/pkg/interfaces"
)

const (
	refreshTimeout     = 5 * time.Minute
	channelLoadTimeout = 5 * time.Second
)

func secondsDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}

// CatalogWorker refreshes one catalog source at a time.
type CatalogWorker struct {
	sources   *database.SourceStore
	repo      interfaces.EmoteRepository
	emotes    *emote.Store
	fetcher   interfaces.CatalogFetcher
	appConfig *config.AppConfig
}

// NewCatalogWorker creates a new CatalogWorker.
func NewCatalogWorker(
	sources *database.SourceStore,
	repo interfaces.EmoteRepository,
	emotes *emote.Store,
	fetcher interfaces.CatalogFetcher,
	appCfg *config.AppConfig,
) *CatalogWorker {
	return &CatalogWorker{
		sources:   sources,
		repo:      repo,
		emotes:    emotes,
		fetcher:   fetcher,
		appConfig: appCfg,
	}
}

// Refresh fetches the catalog of src, persists it and installs the resulting
// scope map in the emote store. It is the scheduler task for catalog sources.
func (w *CatalogWorker) Refresh(src *database.CatalogSource) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	w.RefreshContext(ctx, src)
}

// RefreshContext is Refresh bounded by ctx. It returns the final status label.
func (w *CatalogWorker) RefreshContext(ctx context.Context, scheduled *database.CatalogSource) string {
	metrics.ActiveCatalogWorkers.Inc()
	defer metrics.ActiveCatalogWorkers.Dec()

	l := logging.ContextualLogger(map[string]interface{}{"source_id": scheduled.ID, "source": scheduled.Name})
	l.Info().Msg("Refreshing emote catalog")

	status := func(s string) string {
		metrics.CatalogRefreshes.WithLabelValues(scheduled.Name, s).Inc()
		return s
	}

	// The scheduled copy may be stale if the source was changed via CLI.
	src, err := w.sources.GetSourceByID(ctx, scheduled.ID)
	if err != nil {
		l.Error().Err(err).Msg("Failed to reload catalog source from DB")
		return status("db_error")
	}
	if src == nil || !src.IsEnabled {
		l.Info().Msg("Catalog source no longer exists or is disabled, skipping.")
		return status("skipped")
	}

	result, err := w.fetcher.Fetch(ctx, src.URL, src.HTTPEtag, &w.appConfig.Catalog.Proxy)
	if err != nil {
		l.Error().Err(err).Msg("Failed to fetch emote catalog")
		return status("fetch_error")
	}

	if result.NotModified {
		l.Info().Msg("Emote catalog not modified")
		if !w.appConfig.DryRun {
			if err := w.sources.UpdateSourceFetched(ctx, src.ID, result.NewEtag, time.Now()); err != nil {
				l.Error().Err(err).Msg("Failed to update catalog source after 304")
			}
			// Reinstall so the cached scope map outlives its TTL between changes.
			if m, err := w.repo.LoadMap(ctx, src.Scope); err != nil {
				l.Error().Err(err).Msg("Failed to reload scope emotes after 304")
			} else {
				install(w.emotes, src.Scope, m)
			}
		}
		return status("not_modified")
	}

	for _, d := range result.Emotes {
		if d.Provider == "" {
			d.Provider = src.Provider
		}
	}

	if w.appConfig.DryRun {
		l.Info().Int("emotes", len(result.Emotes)).Str("scope", src.ScopeLabel()).Msg("[DRY RUN] Would replace catalog emotes")
		return status("dry_run")
	}

	n, err := w.repo.ReplaceSource(ctx, src.ID, src.Scope, result.Emotes)
	if err != nil {
		l.Error().Err(err).Msg("Failed to persist catalog emotes")
		return status("store_error")
	}
	if err := w.sources.UpdateSourceFetched(ctx, src.ID, result.NewEtag, time.Now()); err != nil {
		l.Error().Err(err).Msg("Failed to update catalog source metadata")
	}

	m, err := w.repo.LoadMap(ctx, src.Scope)
	if err != nil {
		l.Error().Err(err).Msg("Failed to reload scope emotes")
		return status("store_error")
	}
	install(w.emotes, src.Scope, m)

	l.Info().Int("emotes_written", n).Int("scope_emotes", len(m)).Str("scope", src.ScopeLabel()).Msg("Finished refreshing emote catalog")
	return status("success")
}
