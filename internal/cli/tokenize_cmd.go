package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/haytac/chat-tokenizer/internal/app"
	"github.com/haytac/chat-tokenizer/internal/chat"
	"github.com/haytac/chat-tokenizer/internal/database"
	"github.com/haytac/chat-tokenizer/internal/emote"
	"github.com/haytac/chat-tokenizer/internal/metrics"
	"github.com/haytac/chat-tokenizer/internal/platform"
	"github.com/haytac/chat-tokenizer/internal/render"
	"github.com/haytac/chat-tokenizer/internal/tokenizer"
)

type tokenizeOutput struct {
	MessageID string       `json:"message_id"`
	Body      string       `json:"body"`
	Tokens    []chat.Token `json:"tokens"`
	Mentions  []string     `json:"mentions"`
	HTML      string       `json:"html,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// NewTokenizeCmd creates the tokenize command.
func NewTokenizeCmd() *cobra.Command {
	var (
		channel  string
		platName string
		raw      bool
		utf16    bool
		withHTML bool
	)
	cmd := &cobra.Command{
		Use:   "tokenize [message]",
		Short: "Tokenize a message, or one message per stdin line, and print JSON",
		Long: `Tokenizes the message given as arguments, or each line of stdin when no
arguments are given, against the persisted emote catalogs. With --raw every input
is a platform event (an IRC line for Twitch, a JSON object for Kick and YouTube).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			tok, err := app.NewTokenizer(AppCfg.Tokenizer)
			if err != nil {
				return err
			}
			application := &app.Application{
				EmoteStore: database.NewEmoteStore(db),
				Emotes:     emote.NewStore(AppCfg.ChannelCacheTTL()),
			}
			if err := application.LoadEmotes(cmd.Context()); err != nil {
				return err
			}

			registry := platform.DefaultRegistry()
			renderer := render.New()
			enc := json.NewEncoder(cmd.OutOrStdout())

			handle := func(input string) error {
				var msg *chat.Message
				if raw {
					msg, err = registry.Normalize(chat.Platform(platName), []byte(input))
					if err != nil {
						return err
					}
				} else {
					msg = chat.NewMessage(uuid.NewString(), chat.Platform(platName), input)
				}
				if channel != "" {
					msg.ChannelID = channel
				}

				global, local := application.Emotes.Scopes(msg.ChannelID, msg.Native)
				tokens, err := tok.Tokenize(msg, tokenizer.Options{
					EmoteMap:      global,
					LocalEmoteMap: local,
					FilteredWords: AppCfg.Tokenizer.FilteredWords,
					ActorUsername: msg.Author,
				})
				metrics.ObserveTokens(msg.Platform, tokens, err)

				out := tokenizeOutput{MessageID: msg.ID, Body: msg.Body, Tokens: tokens, Mentions: msg.MentionList()}
				if err != nil {
					out.Error = err.Error()
				} else {
					if withHTML {
						out.HTML = renderer.HTML(msg.Body, tokens)
					}
					if utf16 {
						out.Tokens = tokenizer.ToUTF16(msg.Body, tokens)
					}
				}
				return enc.Encode(out)
			}

			if len(args) > 0 {
				return handle(strings.Join(args, " "))
			}
			return eachLine(cmd.InOrStdin(), handle)
		},
	}
	cmd.Flags().StringVarP(&channel, "channel", "c", "", "channel ID whose local emotes apply")
	cmd.Flags().StringVarP(&platName, "platform", "p", string(chat.PlatformTwitch), "platform of the message (twitch, kick, youtube)")
	cmd.Flags().BoolVar(&raw, "raw", false, "treat input as raw platform events")
	cmd.Flags().BoolVar(&utf16, "utf16", false, "report ranges in UTF-16 code units")
	cmd.Flags().BoolVar(&withHTML, "html", false, "include a rendered HTML preview")
	return cmd
}

func eachLine(r io.Reader, fn func(string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := fn(line); err != nil {
			return fmt.Errorf("line %q: %w", line, err)
		}
	}
	return scanner.Err()
}
