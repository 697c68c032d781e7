package platform

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/haytac/chat-tokenizer/internal/chat"
	"github.com/haytac/chat-tokenizer/internal/emote"
)

// cheerPattern matches a cheermote word such as Cheer100 or PogChamp5000.
var cheerPattern = regexp.MustCompile(`^([A-Za-z]+)(\d+)$`)

// cheerTiers maps the minimum bit amount of each cheermote tier to its color.
var cheerTiers = []struct {
	min   int
	color string
}{
	{10000, "#f43021"},
	{5000, "#0099fe"},
	{1000, "#1db2a5"},
	{100, "#9c3ee8"},
	{1, "#979797"},
}

func cheerColor(amount int) string {
	for _, tier := range cheerTiers {
		if amount >= tier.min {
			return tier.color
		}
	}
	return ""
}

// Twitch normalizes raw IRC PRIVMSG lines.
type Twitch struct{}

// NewTwitch creates a Twitch normalizer.
func NewTwitch() *Twitch { return &Twitch{} }

func (*Twitch) Platform() chat.Platform { return chat.PlatformTwitch }

// Normalize parses one IRC line. Only PRIVMSG lines are chat messages.
func (t *Twitch) Normalize(raw []byte) (*chat.Message, error) {
	line := strings.TrimRight(string(raw), "\r\n")
	if line == "" {
		return nil, fmt.Errorf("twitch: empty line: %w", ErrMalformed)
	}
	switch msg := twitch.ParseMessage(line).(type) {
	case *twitch.PrivateMessage:
		return FromPrivateMessage(*msg), nil
	default:
		return nil, fmt.Errorf("twitch: %T is not a chat message: %w", msg, ErrMalformed)
	}
}

// FromPrivateMessage converts a go-twitch-irc PRIVMSG into a chat.Message.
func FromPrivateMessage(pm twitch.PrivateMessage) *chat.Message {
	msg := chat.NewMessage(newID(pm.ID), chat.PlatformTwitch, pm.Message)
	msg.Channel = pm.Channel
	msg.ChannelID = pm.RoomID
	msg.Author = pm.User.Name
	msg.Bits = pm.Bits
	msg.SentAt = pm.Time

	if len(pm.Emotes) > 0 {
		msg.Native = make(emote.Map, len(pm.Emotes))
		for _, e := range pm.Emotes {
			if e == nil || e.Name == "" {
				continue
			}
			msg.Native[e.Name] = &emote.Descriptor{ID: e.ID, Name: e.Name, Provider: "twitch"}
		}
	}
	if pm.Bits > 0 {
		addCheermotes(msg)
	}
	return msg
}

// addCheermotes registers a native cheer descriptor for every cheermote word of
// a bits message. Emote tags take precedence over a cheermote of the same name.
func addCheermotes(msg *chat.Message) {
	for _, word := range strings.Split(msg.Body, " ") {
		match := cheerPattern.FindStringSubmatch(word)
		if match == nil {
			continue
		}
		amount, err := strconv.Atoi(match[2])
		if err != nil || amount <= 0 {
			continue
		}
		if _, ok := msg.Native[word]; ok {
			continue
		}
		if msg.Native == nil {
			msg.Native = make(emote.Map)
		}
		msg.Native[word] = &emote.Descriptor{
			ID:       strings.ToLower(match[1]),
			Name:     word,
			Provider: "twitch",
			Cheer:    &emote.Cheer{Amount: amount, Color: cheerColor(amount)},
		}
	}
}
