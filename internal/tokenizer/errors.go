package tokenizer

import (
	"errors"
	"fmt"

	"github.com/haytac/chat-tokenizer/internal/chat"
)

// ErrInvalidRange is wrapped by TokenizationError when a token range is out of order
// or outside the message body.
var ErrInvalidRange = errors.New("invalid token range")

// TokenizationError aborts a single tokenization pass. Callers render the raw body
// as plain text when they receive one.
type TokenizationError struct {
	MessageID string
	Kind      chat.Kind
	Range     chat.Range
	BodyLen   int
	Err       error
}

func (e *TokenizationError) Error() string {
	return fmt.Sprintf("tokenize message %q: %s token %s with body length %d: %v",
		e.MessageID, e.Kind, e.Range, e.BodyLen, e.Err)
}

func (e *TokenizationError) Unwrap() error { return e.Err }

// PatternError reports a link or mention pattern that failed to compile.
type PatternError struct {
	Name    string
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("compile %s pattern %q: %v", e.Name, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }
