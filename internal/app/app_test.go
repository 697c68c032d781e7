package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haytac/chat-tokenizer/internal/catalog"
	"github.com/haytac/chat-tokenizer/internal/chat"
	"github.com/haytac/chat-tokenizer/internal/config"
	"github.com/haytac/chat-tokenizer/internal/database"
	"github.com/haytac/chat-tokenizer/internal/emote"
	"github.com/haytac/chat-tokenizer/internal/proxy"
	"github.com/haytac/chat-tokenizer/internal/tokenizer"
)

const catalogJSON = `{"emotes":[{"id":"1","name":"catJAM"},{"id":"2","name":"RainTime","flags":256}]}`

type fixture struct {
	db      *database.DB
	sources *database.SourceStore
	repo    *database.EmoteStore
	emotes  *emote.Store
	cfg     *config.AppConfig
	worker  *CatalogWorker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Connect(filepath.Join(t.TempDir(), "app.db"), filepath.Join("..", "database", "migrations"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		db:      db,
		sources: database.NewSourceStore(db),
		repo:    database.NewEmoteStore(db),
		emotes:  emote.NewStore(0),
		cfg:     &config.AppConfig{Catalog: config.CatalogConfig{UserAgent: "test"}},
	}
	fetcher := catalog.NewHTTPFetcher(proxy.NewHTTPClientFactory(), f.cfg.Catalog.UserAgent)
	f.worker = NewCatalogWorker(f.sources, f.repo, f.emotes, fetcher, f.cfg)
	return f
}

func catalogServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(catalogJSON))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func (f *fixture) addSource(t *testing.T, url, scope string) *database.CatalogSource {
	t.Helper()
	id, err := f.sources.CreateSource(context.Background(), &database.CatalogSource{
		Name: "src-" + scope, URL: url, Scope: scope, Provider: "7tv", FrequencySeconds: 60, IsEnabled: true,
	})
	require.NoError(t, err)
	src, err := f.sources.GetSourceByID(context.Background(), id)
	require.NoError(t, err)
	return src
}

func TestCatalogWorker_RefreshChannelScope(t *testing.T) {
	f := newFixture(t)
	srv, calls := catalogServer(t)
	src := f.addSource(t, srv.URL, "chan1")
	ctx := context.Background()

	assert.Equal(t, "success", f.worker.RefreshContext(ctx, src))

	m := f.emotes.Channel("chan1")
	require.Len(t, m, 2)
	assert.Equal(t, "7tv", m["catJAM"].Provider)
	assert.True(t, m["RainTime"].ZeroWidth())

	stored, err := f.sources.GetSourceByID(ctx, src.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.HTTPEtag)
	assert.Equal(t, `"v1"`, *stored.HTTPEtag)
	require.NotNil(t, stored.LastFetchedAt)

	assert.Equal(t, "not_modified", f.worker.RefreshContext(ctx, stored))
	assert.EqualValues(t, 2, calls.Load())
}

func TestCatalogWorker_NotModifiedReinstallsScope(t *testing.T) {
	f := newFixture(t)
	srv, _ := catalogServer(t)
	src := f.addSource(t, srv.URL, "chan5")
	ctx := context.Background()

	require.Equal(t, "success", f.worker.RefreshContext(ctx, src))
	f.emotes.DropChannel("chan5")
	require.Nil(t, f.emotes.Channel("chan5"))

	assert.Equal(t, "not_modified", f.worker.RefreshContext(ctx, src))
	assert.Len(t, f.emotes.Channel("chan5"), 2)
}

func TestCatalogWorker_RefreshGlobalScope(t *testing.T) {
	f := newFixture(t)
	srv, _ := catalogServer(t)
	src := f.addSource(t, srv.URL, database.GlobalScope)

	assert.Equal(t, "success", f.worker.RefreshContext(context.Background(), src))
	assert.Len(t, f.emotes.Global(), 2)
}

func TestCatalogWorker_DryRunWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.cfg.DryRun = true
	srv, _ := catalogServer(t)
	src := f.addSource(t, srv.URL, "chan2")
	ctx := context.Background()

	assert.Equal(t, "dry_run", f.worker.RefreshContext(ctx, src))
	assert.Nil(t, f.emotes.Channel("chan2"))

	m, err := f.repo.LoadMap(ctx, "chan2")
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestCatalogWorker_SkipsDisabledSource(t *testing.T) {
	f := newFixture(t)
	srv, calls := catalogServer(t)
	src := f.addSource(t, srv.URL, "chan3")
	require.NoError(t, f.sources.SetSourceEnabled(context.Background(), src.ID, false))

	assert.Equal(t, "skipped", f.worker.RefreshContext(context.Background(), src))
	assert.Zero(t, calls.Load())
}

func TestCatalogWorker_FetchError(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	src := f.addSource(t, srv.URL, "chan4")

	assert.Equal(t, "fetch_error", f.worker.RefreshContext(context.Background(), src))
}

func TestApplication_LoadEmotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.repo.ReplaceScope(ctx, database.GlobalScope, []*emote.Descriptor{{ID: "25", Name: "Kappa"}})
	require.NoError(t, err)
	_, err = f.repo.ReplaceScope(ctx, "chan", []*emote.Descriptor{{ID: "x", Name: "catJAM"}})
	require.NoError(t, err)

	app := &Application{EmoteStore: f.repo, Emotes: f.emotes}
	require.NoError(t, app.LoadEmotes(ctx))
	assert.Contains(t, f.emotes.Global(), "Kappa")
	assert.Contains(t, f.emotes.Channel("chan"), "catJAM")
}

func TestNewTokenizer(t *testing.T) {
	tok, err := NewTokenizer(config.TokenizerConfig{
		MentionPattern: `^~\w+`,
		MentionSigil:   "~",
		FilteredWords:  []string{"darn"},
	})
	require.NoError(t, err)

	msg := chat.NewMessage("m", chat.PlatformKick, "~alice darn @bob")
	tokens, err := tok.Tokenize(msg, tokenizer.Options{FilteredWords: []string{"darn"}})
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, chat.KindMention, tokens[0].Kind)
	assert.Equal(t, "alice", tokens[0].Mention.Recipient)
	assert.Equal(t, chat.KindVoid, tokens[1].Kind)

	_, err = NewTokenizer(config.TokenizerConfig{LinkPattern: "("})
	var perr *tokenizer.PatternError
	assert.ErrorAs(t, err, &perr)
}

func TestInstall_EmptyChannelMapEvicts(t *testing.T) {
	store := emote.NewStore(0)
	install(store, "chan", emote.NewMap(&emote.Descriptor{ID: "1", Name: "catJAM"}))
	require.Contains(t, store.Channels(), "chan")

	install(store, "chan", emote.Map{})
	assert.Nil(t, store.Channel("chan"))
	assert.Empty(t, store.Channels())
}
