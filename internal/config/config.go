package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/haytac/chat-tokenizer/internal/logging"
)

// EnvPrefix prefixes every environment variable override, e.g. CHAT_TOKENIZER_LISTEN_ADDR.
const EnvPrefix = "CHAT_TOKENIZER"

// ProxyConfig describes an outbound proxy for catalog fetches.
type ProxyConfig struct {
	Type     string `mapstructure:"type"` // http, https, socks5
	Address  string `mapstructure:"address"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Enabled reports whether a proxy address is configured.
func (p *ProxyConfig) Enabled() bool {
	return p != nil && p.Address != ""
}

// TokenizerConfig holds the site-specific detector patterns.
type TokenizerConfig struct {
	LinkPattern    string   `mapstructure:"link_pattern"`
	MentionPattern string   `mapstructure:"mention_pattern"`
	MentionSigil   string   `mapstructure:"mention_sigil"`
	FilteredWords  []string `mapstructure:"filtered_words"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	MaxBodyBytes      int64   `mapstructure:"max_body_bytes"`
}

// CatalogConfig holds emote catalog fetch settings.
type CatalogConfig struct {
	Proxy     ProxyConfig `mapstructure:"proxy"`
	UserAgent string      `mapstructure:"user_agent"`
}

// AppConfig holds the application configuration.
type AppConfig struct {
	DatabasePath           string          `mapstructure:"database_path"`
	MigrationsPath         string          `mapstructure:"migrations_path"`
	Log                    logging.Config  `mapstructure:"log"`
	ListenAddr             string          `mapstructure:"listen_addr"`
	MetricsPort            string          `mapstructure:"metrics_port"`
	DefaultRefreshSeconds  int             `mapstructure:"default_refresh_seconds"`
	ChannelCacheTTLSeconds int             `mapstructure:"channel_cache_ttl_seconds"`
	Tokenizer              TokenizerConfig `mapstructure:"tokenizer"`
	Server                 ServerConfig    `mapstructure:"server"`
	Catalog                CatalogConfig   `mapstructure:"catalog"`
	DryRun                 bool            // Not from config file, set by flag
}

// ChannelCacheTTL returns the channel emote cache TTL as a duration.
func (c *AppConfig) ChannelCacheTTL() time.Duration {
	return time.Duration(c.ChannelCacheTTLSeconds) * time.Second
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database_path", "./chat_tokenizer.db")
	v.SetDefault("migrations_path", "internal/database/migrations")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("log.json", false)
	v.SetDefault("log.time_format", time.RFC3339)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("metrics_port", ":9090")
	v.SetDefault("default_refresh_seconds", 600)
	v.SetDefault("channel_cache_ttl_seconds", 1800)
	v.SetDefault("tokenizer.link_pattern", "")
	v.SetDefault("tokenizer.mention_pattern", "")
	v.SetDefault("tokenizer.mention_sigil", "@")
	v.SetDefault("tokenizer.filtered_words", []string{})
	v.SetDefault("server.requests_per_second", 50.0)
	v.SetDefault("server.burst", 100)
	v.SetDefault("server.max_body_bytes", 64*1024)
	v.SetDefault("catalog.user_agent", "chat-tokenizer/1.0")
	v.SetDefault("catalog.proxy.type", "")
	v.SetDefault("catalog.proxy.address", "")
	v.SetDefault("catalog.proxy.username", "")
	v.SetDefault("catalog.proxy.password", "")
}

// LoadConfig loads configuration from an optional .env file, a config file and
// environment variables, in increasing order of precedence.
func LoadConfig(configPath string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.chat-tokenizer")
		v.AddConfigPath("/etc/chat-tokenizer/")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
