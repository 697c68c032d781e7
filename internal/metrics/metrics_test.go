package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haytac/chat-tokenizer/internal/chat"
)

func TestObserveTokens(t *testing.T) {
	before := testutil.ToFloat64(TokensEmitted.WithLabelValues("emote"))
	okBefore := testutil.ToFloat64(MessagesTokenized.WithLabelValues("kick", "success"))
	errBefore := testutil.ToFloat64(MessagesTokenized.WithLabelValues("kick", "error"))

	ObserveTokens(chat.PlatformKick, []chat.Token{{Kind: chat.KindEmote}, {Kind: chat.KindEmote}, {Kind: chat.KindVoid}}, nil)
	ObserveTokens(chat.PlatformKick, nil, errors.New("boom"))

	assert.Equal(t, before+2, testutil.ToFloat64(TokensEmitted.WithLabelValues("emote")))
	assert.Equal(t, okBefore+1, testutil.ToFloat64(MessagesTokenized.WithLabelValues("kick", "success")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(MessagesTokenized.WithLabelValues("kick", "error")))
}

func TestRouter_ExposesMetrics(t *testing.T) {
	MessagesTokenized.WithLabelValues("twitch", "success").Inc()

	srv := httptest.NewServer(Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "chattok_messages_tokenized_total")
}
