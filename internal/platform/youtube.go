package platform

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/haytac/chat-tokenizer/internal/chat"
)

type youtubeSnippet struct {
	Type           string    `json:"type"`
	LiveChatID     string    `json:"liveChatId"`
	PublishedAt    time.Time `json:"publishedAt"`
	DisplayMessage string    `json:"displayMessage"`
	TextDetails    *struct {
		MessageText string `json:"messageText"`
	} `json:"textMessageDetails,omitempty"`
}

type youtubeAuthor struct {
	ChannelID   string `json:"channelId"`
	DisplayName string `json:"displayName"`
}

type youtubeMessage struct {
	ID            string         `json:"id"`
	Snippet       youtubeSnippet `json:"snippet"`
	AuthorDetails youtubeAuthor  `json:"authorDetails"`
}

// YouTube normalizes liveChatMessage resources.
type YouTube struct{}

// NewYouTube creates a YouTube normalizer.
func NewYouTube() *YouTube { return &YouTube{} }

func (*YouTube) Platform() chat.Platform { return chat.PlatformYouTube }

// Normalize decodes a liveChatMessage. Only text and super chat events carry a body.
func (y *YouTube) Normalize(raw []byte) (*chat.Message, error) {
	var ym youtubeMessage
	if err := json.Unmarshal(raw, &ym); err != nil {
		return nil, fmt.Errorf("youtube: decode: %v: %w", err, ErrMalformed)
	}
	switch ym.Snippet.Type {
	case "", "textMessageEvent", "superChatEvent":
	default:
		return nil, fmt.Errorf("youtube: event type %q is not a chat message: %w", ym.Snippet.Type, ErrMalformed)
	}

	body := ym.Snippet.DisplayMessage
	if ym.Snippet.TextDetails != nil && ym.Snippet.TextDetails.MessageText != "" {
		body = ym.Snippet.TextDetails.MessageText
	}

	msg := chat.NewMessage(newID(ym.ID), chat.PlatformYouTube, body)
	msg.ChannelID = ym.Snippet.LiveChatID
	msg.Author = ym.AuthorDetails.DisplayName
	msg.SentAt = ym.Snippet.PublishedAt
	return msg, nil
}
