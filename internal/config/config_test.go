package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "./chat_tokenizer.db", cfg.DatabasePath)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, ":9090", cfg.MetricsPort)
	assert.Equal(t, 600, cfg.DefaultRefreshSeconds)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "@", cfg.Tokenizer.MentionSigil)
	assert.Equal(t, 100, cfg.Server.Burst)
	assert.EqualValues(t, 1800, cfg.ChannelCacheTTL().Seconds())
	assert.False(t, cfg.Catalog.Proxy.Enabled())
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":7000"
log:
  level: debug
tokenizer:
  mention_pattern: "^~\\w+"
  mention_sigil: "~"
  filtered_words: ["badword"]
catalog:
  proxy:
    type: socks5
    address: 127.0.0.1:1080
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, `^~\w+`, cfg.Tokenizer.MentionPattern)
	assert.Equal(t, "~", cfg.Tokenizer.MentionSigil)
	assert.Equal(t, []string{"badword"}, cfg.Tokenizer.FilteredWords)
	assert.True(t, cfg.Catalog.Proxy.Enabled())
	assert.Equal(t, "socks5", cfg.Catalog.Proxy.Type)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "listen_addr: \":7000\"\n")
	t.Setenv("CHAT_TOKENIZER_LISTEN_ADDR", ":7100")
	t.Setenv("CHAT_TOKENIZER_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":7100", cfg.ListenAddr)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
