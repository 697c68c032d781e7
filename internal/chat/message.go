package chat

import (
	"sort"
	"time"

	"github.com/haytac/chat-tokenizer/internal/emote"
)

// Platform identifies the chat surface a message was scraped from.
type Platform string

const (
	PlatformTwitch  Platform = "twitch"
	PlatformKick    Platform = "kick"
	PlatformYouTube Platform = "youtube"
)

// Message is the platform-independent shape every raw chat event is normalized into
// before tokenization.
type Message struct {
	ID        string    `json:"id"`
	Platform  Platform  `json:"platform"`
	Channel   string    `json:"channel"`
	ChannelID string    `json:"channel_id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	Bits      int       `json:"bits,omitempty"`
	SentAt    time.Time `json:"sent_at"`

	// Native holds emotes the platform itself resolved for this message, such as
	// Twitch emote tags or Kick inline emote markers.
	Native emote.Map `json:"native,omitempty"`

	// Tokens is the result of the last successful tokenization pass.
	Tokens []Token `json:"tokens,omitempty"`

	mentions map[string]struct{}
}

// NewMessage creates a message with an empty mention set.
func NewMessage(id string, platform Platform, body string) *Message {
	return &Message{
		ID:       id,
		Platform: platform,
		Body:     body,
		mentions: make(map[string]struct{}),
	}
}

// AddMention records a mentioned username. Adding the same name twice is a no-op.
func (m *Message) AddMention(username string) {
	if m.mentions == nil {
		m.mentions = make(map[string]struct{})
	}
	m.mentions[username] = struct{}{}
}

// HasMention reports whether username was mentioned.
func (m *Message) HasMention(username string) bool {
	_, ok := m.mentions[username]
	return ok
}

// MentionCount returns the number of distinct mentioned usernames.
func (m *Message) MentionCount() int {
	return len(m.mentions)
}

// MentionList returns the mentioned usernames in ascending order.
func (m *Message) MentionList() []string {
	out := make([]string, 0, len(m.mentions))
	for name := range m.mentions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
