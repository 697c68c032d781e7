// Package tokenizer turns a chat message body into an ordered stream of emote,
// mention, link and void range annotations.
package tokenizer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/haytac/chat-tokenizer/internal/chat"
	"github.com/haytac/chat-tokenizer/internal/emote"
)

var (
	defaultLink    = regexp.MustCompile(DefaultLinkPattern)
	defaultMention = regexp.MustCompile(DefaultMentionPattern)
)

// Tokenizer holds the site-specific detectors. It keeps no per-call state and may
// be shared between goroutines.
type Tokenizer struct {
	link     Matcher
	mention  Matcher
	sigil    string
	suppress SuppressFunc
}

// New creates a Tokenizer using the default link and mention patterns unless
// overridden by opts.
func New(opts ...Option) *Tokenizer {
	t := &Tokenizer{
		link:    defaultLink,
		mention: defaultMention,
		sigil:   DefaultMentionSigil,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tokenize scans msg.Body word by word and returns its tokens sorted by start
// offset. On success the tokens are stored on msg and every mentioned recipient is
// added to msg's mention set. On failure msg is left untouched.
func (t *Tokenizer) Tokenize(msg *chat.Message, opts Options) ([]chat.Token, error) {
	body := msg.Body
	lookup := emote.Lookup{Local: opts.LocalEmoteMap, Global: opts.EmoteMap}

	parts := strings.Split(body, " ")
	tokens := make([]chat.Token, 0, len(parts))
	var recipients []string

	// last is the content of the most recent emote token that zero-width emotes
	// may still stack onto. Any non-emote word resets it.
	var last *chat.EmoteContent
	cursor := -1

	for _, part := range parts {
		next := cursor + len(part) + 1
		r := chat.Range{Start: cursor + 1, End: next}
		cursor = next

		if t.suppress != nil && part != "" && t.suppress(part, opts) {
			tokens = append(tokens, chat.Token{Kind: chat.KindVoid, Range: r})
			last = nil
			continue
		}

		if d, ok := lookup.Resolve(part); ok {
			if d.ZeroWidth() && last != nil {
				name := d.Name
				if name == "" {
					name = part
				}
				last.Overlaid[name] = d
				tokens = append(tokens, chat.Token{Kind: chat.KindVoid, Range: r})
			} else {
				content := &chat.EmoteContent{
					Emote:    d,
					Overlaid: make(map[string]*emote.Descriptor),
				}
				if d.IsCheer() {
					content.CheerAmount = d.Cheer.Amount
					content.CheerColor = d.Cheer.Color
				}
				tokens = append(tokens, chat.Token{Kind: chat.KindEmote, Range: r, Emote: content})
				last = content
			}
		} else {
			last = nil
		}

		if part == "" {
			continue
		}

		if t.link.MatchString(part) {
			url := part
			if !strings.HasPrefix(url, "https://") {
				url = "https://" + url
			}
			tokens = append(tokens, chat.Token{
				Kind:  chat.KindLink,
				Range: r,
				Link:  &chat.LinkContent{DisplayText: part, URL: url},
			})
		} else if t.mention.MatchString(part) {
			recipient := strings.TrimPrefix(part, t.sigil)
			tokens = append(tokens, chat.Token{
				Kind:    chat.KindMention,
				Range:   r,
				Mention: &chat.MentionContent{DisplayText: part, Recipient: recipient},
			})
			recipients = append(recipients, recipient)
		}
	}

	if err := validate(msg.ID, len(body), tokens); err != nil {
		return nil, err
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].Range.Start < tokens[j].Range.Start
	})

	for _, name := range recipients {
		msg.AddMention(name)
	}
	msg.Tokens = tokens
	return tokens, nil
}

// validate checks every token range against the body length.
func validate(messageID string, bodyLen int, tokens []chat.Token) error {
	for _, tok := range tokens {
		if !tok.Range.Valid(bodyLen) {
			return &TokenizationError{
				MessageID: messageID,
				Kind:      tok.Kind,
				Range:     tok.Range,
				BodyLen:   bodyLen,
				Err:       ErrInvalidRange,
			}
		}
	}
	return nil
}
