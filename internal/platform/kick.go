package platform

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/haytac/chat-tokenizer/internal/chat"
	"github.com/haytac/chat-tokenizer/internal/emote"
)

// kickEmoteMarker matches Kick's inline emote syntax, e.g. [emote:37226:KEKW].
var kickEmoteMarker = regexp.MustCompile(`\[emote:(\d+):([^\]\s]+)\]`)

type kickSender struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Slug     string `json:"slug"`
}

type kickMessage struct {
	ID         string     `json:"id"`
	ChatroomID int        `json:"chatroom_id"`
	Content    string     `json:"content"`
	Type       string     `json:"type"`
	CreatedAt  time.Time  `json:"created_at"`
	Sender     kickSender `json:"sender"`
}

// Kick normalizes ChatMessageEvent payloads from Kick's websocket.
type Kick struct{}

// NewKick creates a Kick normalizer.
func NewKick() *Kick { return &Kick{} }

func (*Kick) Platform() chat.Platform { return chat.PlatformKick }

// Normalize decodes a chat event and rewrites inline emote markers into plain emote
// names, recording them as native emotes.
func (k *Kick) Normalize(raw []byte) (*chat.Message, error) {
	var km kickMessage
	if err := json.Unmarshal(raw, &km); err != nil {
		return nil, fmt.Errorf("kick: decode: %v: %w", err, ErrMalformed)
	}
	if km.Type != "" && km.Type != "message" && km.Type != "reply" {
		return nil, fmt.Errorf("kick: event type %q is not a chat message: %w", km.Type, ErrMalformed)
	}

	native := emote.Map{}
	body := kickEmoteMarker.ReplaceAllStringFunc(km.Content, func(marker string) string {
		sub := kickEmoteMarker.FindStringSubmatch(marker)
		native[sub[2]] = &emote.Descriptor{ID: sub[1], Name: sub[2], Provider: "kick"}
		return sub[2]
	})

	msg := chat.NewMessage(newID(km.ID), chat.PlatformKick, body)
	if km.ChatroomID != 0 {
		msg.ChannelID = strconv.Itoa(km.ChatroomID)
	}
	msg.Author = km.Sender.Username
	msg.SentAt = km.CreatedAt
	if len(native) > 0 {
		msg.Native = native
	}
	return msg, nil
}
