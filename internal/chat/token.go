package chat

import (
	"encoding/json"
	"fmt"

	"github.com/haytac/chat-tokenizer/internal/emote"
)

// Kind tags the variant carried by a Token.
type Kind string

const (
	KindEmote   Kind = "emote"
	KindMention Kind = "mention"
	KindLink    Kind = "link"
	// KindVoid marks text that must not be rendered, such as the name of a
	// zero-width emote that was overlaid onto its predecessor.
	KindVoid Kind = "void"
)

// Range is a half-open [Start, End) byte range into a message body.
type Range struct {
	Start int
	End   int
}

// Len returns End-Start.
func (r Range) Len() int { return r.End - r.Start }

// Valid reports whether r is ordered and lies within a body of bodyLen bytes.
func (r Range) Valid(bodyLen int) bool {
	return r.Start >= 0 && r.Start <= r.End && r.End <= bodyLen
}

// Overlaps reports whether r and o share at least one byte.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// MarshalJSON encodes the range as a two element array.
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{r.Start, r.End})
}

// UnmarshalJSON decodes a two element array.
func (r *Range) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("range: %w", err)
	}
	r.Start, r.End = pair[0], pair[1]
	return nil
}

// EmoteContent is the payload of an emote token. Overlaid holds zero-width emotes
// stacked on top of Emote, keyed by their names.
type EmoteContent struct {
	Emote       *emote.Descriptor            `json:"emote"`
	Overlaid    map[string]*emote.Descriptor `json:"overlaid"`
	CheerAmount int                          `json:"cheer_amount,omitempty"`
	CheerColor  string                       `json:"cheer_color,omitempty"`
}

// LinkContent is the payload of a link token.
type LinkContent struct {
	DisplayText string `json:"display_text"`
	URL         string `json:"url"`
}

// MentionContent is the payload of a mention token.
type MentionContent struct {
	DisplayText string `json:"display_text"`
	Recipient   string `json:"recipient"`
}

// Token annotates a range of a message body. Exactly one content field is set
// for emote, link and mention tokens; void tokens carry none.
type Token struct {
	Kind    Kind            `json:"kind"`
	Range   Range           `json:"range"`
	Emote   *EmoteContent   `json:"emote,omitempty"`
	Link    *LinkContent    `json:"link,omitempty"`
	Mention *MentionContent `json:"mention,omitempty"`
}
