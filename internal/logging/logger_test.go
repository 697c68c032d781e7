package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"

	"github.com/haytac/chat-tokenizer/internal/chat"
)

func captureGlobal(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestMessageLogger(t *testing.T) {
	buf := captureGlobal(t)
	msg := chat.NewMessage("m-1", chat.PlatformTwitch, "hi")
	msg.ChannelID = "123"

	l := MessageLogger(msg)
	l.Info().Msg("tokenized")

	out := buf.String()
	assert.Contains(t, out, `"message_id":"m-1"`)
	assert.Contains(t, out, `"platform":"twitch"`)
	assert.Contains(t, out, `"channel_id":"123"`)
}

func TestContextualLogger(t *testing.T) {
	buf := captureGlobal(t)

	l := ContextualLogger(map[string]interface{}{"source_id": int64(7)})
	l.Info().Msg("refresh")

	assert.Contains(t, buf.String(), `"source_id":7`)
}

func TestSetup_InvalidLevelFallsBackToInfo(t *testing.T) {
	prevLevel := zerolog.GlobalLevel()
	prev := log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(prevLevel)
		log.Logger = prev
	})

	Setup(Config{Level: "loud", JSON: true})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	Setup(Config{Level: "debug", JSON: true})
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}
