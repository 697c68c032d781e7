package tokenizer

import (
	"unicode/utf8"

	"github.com/haytac/chat-tokenizer/internal/chat"
)

// utf16Offsets returns a table where offsets[i] is the UTF-16 code unit offset of
// byte i of text. Bytes inside a multi-byte rune share the offset of the rune start.
func utf16Offsets(text string) []int {
	offsets := make([]int, len(text)+1)
	cum := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		for j := 0; j < size; j++ {
			offsets[i+j] = cum
		}
		if r > 0xFFFF {
			cum += 2
		} else {
			cum++
		}
		i += size
	}
	offsets[len(text)] = cum
	return offsets
}

// UTF16Len returns the length of text in UTF-16 code units, the unit JavaScript
// string offsets are measured in.
func UTF16Len(text string) int {
	return utf16Offsets(text)[len(text)]
}

// ToUTF16 returns a copy of tokens with byte ranges converted into UTF-16 code unit
// ranges over body. Content payloads are shared with the input.
func ToUTF16(body string, tokens []chat.Token) []chat.Token {
	offsets := utf16Offsets(body)
	out := make([]chat.Token, len(tokens))
	for i, tok := range tokens {
		out[i] = tok
		out[i].Range = chat.Range{
			Start: offsets[clamp(tok.Range.Start, len(body))],
			End:   offsets[clamp(tok.Range.End, len(body))],
		}
	}
	return out
}

func clamp(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
