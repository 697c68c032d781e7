package platform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haytac/chat-tokenizer/internal/chat"
)

const twitchLine = "@badge-info=;badges=;bits=100;color=#FF0000;display-name=Ronni;emotes=25:0-4;id=b34ccfc7-4977-403a-8a94-33c6bac34fb8;mod=0;room-id=11148817;subscriber=0;tmi-sent-ts=1507246572675;turbo=0;user-id=1337;user-type= :ronni!ronni@ronni.tmi.twitch.tv PRIVMSG #pajlada :Kappa hello @bob"

func TestTwitch_Normalize(t *testing.T) {
	msg, err := NewTwitch().Normalize([]byte(twitchLine + "\r\n"))
	require.NoError(t, err)

	assert.Equal(t, "b34ccfc7-4977-403a-8a94-33c6bac34fb8", msg.ID)
	assert.Equal(t, chat.PlatformTwitch, msg.Platform)
	assert.Equal(t, "pajlada", msg.Channel)
	assert.Equal(t, "11148817", msg.ChannelID)
	assert.Equal(t, "ronni", msg.Author)
	assert.Equal(t, "Kappa hello @bob", msg.Body)
	assert.Equal(t, 100, msg.Bits)
	assert.Equal(t, int64(1507246572675), msg.SentAt.UnixMilli())

	d, ok := msg.Native.Get("Kappa")
	require.True(t, ok)
	assert.Equal(t, "25", d.ID)
	assert.Equal(t, "twitch", d.Provider)
}

func TestTwitch_BitsMessageAddsCheermotes(t *testing.T) {
	line := "@badges=;bits=1101;display-name=Ronni;emotes=;id=c-1;room-id=11148817;tmi-sent-ts=1507246572675;user-id=1337 :ronni!ronni@ronni.tmi.twitch.tv PRIVMSG #pajlada :Cheer1000 hype PogChamp100 Kappa1 nice99x"
	msg, err := NewTwitch().Normalize([]byte(line))
	require.NoError(t, err)
	require.Equal(t, 1101, msg.Bits)

	d, ok := msg.Native.Get("Cheer1000")
	require.True(t, ok)
	require.NotNil(t, d.Cheer)
	assert.Equal(t, "cheer", d.ID)
	assert.Equal(t, 1000, d.Cheer.Amount)
	assert.Equal(t, "#1db2a5", d.Cheer.Color)

	d, ok = msg.Native.Get("PogChamp100")
	require.True(t, ok)
	assert.Equal(t, 100, d.Cheer.Amount)
	assert.Equal(t, "#9c3ee8", d.Cheer.Color)

	d, ok = msg.Native.Get("Kappa1")
	require.True(t, ok)
	assert.Equal(t, "#979797", d.Cheer.Color)

	_, ok = msg.Native.Get("hype")
	assert.False(t, ok)
	_, ok = msg.Native.Get("nice99x")
	assert.False(t, ok)
}

func TestTwitch_NoCheermotesWithoutBits(t *testing.T) {
	line := "@badges=;display-name=Ronni;emotes=;id=c-2;room-id=11148817;user-id=1337 :ronni!ronni@ronni.tmi.twitch.tv PRIVMSG #pajlada :Cheer100 is a word here"
	msg, err := NewTwitch().Normalize([]byte(line))
	require.NoError(t, err)
	assert.Empty(t, msg.Native)
}

func TestTwitch_RejectsNonChatLines(t *testing.T) {
	_, err := NewTwitch().Normalize([]byte("PING :tmi.twitch.tv"))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = NewTwitch().Normalize(nil)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestKick_Normalize(t *testing.T) {
	raw := `{"id":"k-1","chatroom_id":668,"content":"[emote:37226:KEKW] [emote:37226:KEKW] hi @xqc","type":"message","created_at":"2024-03-01T12:00:00Z","sender":{"id":7,"username":"viewer","slug":"viewer"}}`

	msg, err := NewKick().Normalize([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "k-1", msg.ID)
	assert.Equal(t, "668", msg.ChannelID)
	assert.Equal(t, "viewer", msg.Author)
	assert.Equal(t, "KEKW KEKW hi @xqc", msg.Body)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), msg.SentAt.UTC())
	require.Len(t, msg.Native, 1)
	assert.Equal(t, "37226", msg.Native["KEKW"].ID)
}

func TestKick_RejectsMalformed(t *testing.T) {
	_, err := NewKick().Normalize([]byte(`{"content":`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = NewKick().Normalize([]byte(`{"id":"1","type":"pinned","content":"x"}`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestKick_GeneratesIDWhenMissing(t *testing.T) {
	msg, err := NewKick().Normalize([]byte(`{"content":"hello"}`))
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Nil(t, msg.Native)
}

func TestYouTube_Normalize(t *testing.T) {
	raw := `{
		"id": "yt-1",
		"snippet": {
			"type": "textMessageEvent",
			"liveChatId": "live-42",
			"publishedAt": "2024-03-01T12:00:00Z",
			"displayMessage": "display",
			"textMessageDetails": {"messageText": "hello example.com"}
		},
		"authorDetails": {"channelId": "UC1", "displayName": "Someone"}
	}`

	msg, err := NewYouTube().Normalize([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "yt-1", msg.ID)
	assert.Equal(t, "live-42", msg.ChannelID)
	assert.Equal(t, "Someone", msg.Author)
	assert.Equal(t, "hello example.com", msg.Body)
}

func TestYouTube_RejectsNonTextEvents(t *testing.T) {
	_, err := NewYouTube().Normalize([]byte(`{"snippet":{"type":"chatEndedEvent"}}`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()

	msg, err := r.Normalize(chat.PlatformKick, []byte(`{"id":"1","content":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, chat.PlatformKick, msg.Platform)

	_, err = r.Normalize("irc", []byte("x"))
	assert.ErrorIs(t, err, ErrUnknownPlatform)
}
