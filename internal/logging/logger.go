package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/haytac/chat-tokenizer/internal/chat"
)

// Config holds logging configuration.
type Config struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	Console    bool   `mapstructure:"console"`
	JSON       bool   `mapstructure:"json"`
	TimeFormat string `mapstructure:"time_format"`
}

// Setup initializes the global logger.
func Setup(cfg Config) {
	var writers []io.Writer

	if cfg.Console {
		writers = append(writers, consoleWriter(cfg))
	}

	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Error().Err(err).Str("file", cfg.File).Msg("Failed to open log file")
		} else {
			writers = append(writers, file)
		}
	}

	if len(writers) == 0 {
		writers = append(writers, consoleWriter(cfg))
	}

	multi := zerolog.MultiLevelWriter(writers...)
	log.Logger = zerolog.New(multi).With().Timestamp().Logger()

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		log.Warn().Str("configured_level", cfg.Level).Msg("Invalid log level, defaulting to info")
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(level)
	}

	log.Debug().Str("level", zerolog.GlobalLevel().String()).Msg("Logger initialized")
}

// consoleWriter writes human readable lines to stderr, or raw JSON when the
// output is collected by a log shipper.
func consoleWriter(cfg Config) io.Writer {
	if cfg.JSON {
		return os.Stderr
	}
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: cfg.TimeFormat}
}

// ContextualLogger creates a logger with context fields.
func ContextualLogger(ctx map[string]interface{}) zerolog.Logger {
	return log.With().Fields(ctx).Logger()
}

// MessageLogger returns a logger tagged with the identity of a chat message.
func MessageLogger(msg *chat.Message) zerolog.Logger {
	return log.With().
		Str("message_id", msg.ID).
		Str("platform", string(msg.Platform)).
		Str("channel_id", msg.ChannelID).
		Logger()
}
