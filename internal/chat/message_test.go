package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_MentionSetIsIdempotent(t *testing.T) {
	msg := NewMessage("1", PlatformTwitch, "@b @a @b")
	msg.AddMention("b")
	msg.AddMention("a")
	msg.AddMention("b")

	assert.Equal(t, 2, msg.MentionCount())
	assert.Equal(t, []string{"a", "b"}, msg.MentionList())
	assert.True(t, msg.HasMention("a"))
	assert.False(t, msg.HasMention("c"))
}

func TestMessage_ZeroValueAcceptsMentions(t *testing.T) {
	var msg Message
	msg.AddMention("x")
	assert.True(t, msg.HasMention("x"))
}

func TestRange(t *testing.T) {
	r := Range{Start: 2, End: 5}
	assert.Equal(t, 3, r.Len())
	assert.True(t, r.Valid(5))
	assert.False(t, r.Valid(4))
	assert.False(t, Range{Start: 3, End: 2}.Valid(10))
	assert.False(t, Range{Start: -1, End: 2}.Valid(10))

	assert.True(t, r.Overlaps(Range{Start: 4, End: 6}))
	assert.False(t, r.Overlaps(Range{Start: 5, End: 6}))
	assert.Equal(t, "[2,5)", r.String())
}

func TestToken_JSONShape(t *testing.T) {
	tok := Token{
		Kind:  KindLink,
		Range: Range{Start: 4, End: 15},
		Link:  &LinkContent{DisplayText: "example.com", URL: "https://example.com"},
	}
	data, err := json.Marshal(tok)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"link","range":[4,15],"link":{"display_text":"example.com","url":"https://example.com"}}`, string(data))

	var back Token
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, tok, back)
}
