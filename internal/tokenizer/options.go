package tokenizer

import (
	"regexp"

	"github.com/haytac/chat-tokenizer/internal/emote"
)

const (
	// DefaultLinkPattern matches bare domains and http(s) URLs.
	DefaultLinkPattern = `(?:https?://)?[\w/\-?=%.]+\.[\w/\-&?=%.]+`
	// DefaultMentionPattern matches an @-prefixed username at the start of a word.
	DefaultMentionPattern = `^@\w+`
	// DefaultMentionSigil is stripped from a mention to obtain the recipient.
	DefaultMentionSigil = "@"
)

// Matcher is satisfied by *regexp.Regexp and by any site-specific predicate.
type Matcher interface {
	MatchString(s string) bool
}

// MatcherFunc adapts a plain function to Matcher.
type MatcherFunc func(s string) bool

// MatchString calls f(s).
func (f MatcherFunc) MatchString(s string) bool { return f(s) }

// SuppressFunc decides whether a word must be blanked out before any matching.
type SuppressFunc func(part string, opts Options) bool

// Options are the per-call inputs of a tokenization pass.
type Options struct {
	// EmoteMap is the global scope. A nil map behaves as empty.
	EmoteMap emote.Map
	// LocalEmoteMap is the channel scope, consulted before EmoteMap.
	LocalEmoteMap emote.Map
	// FilteredWords and ActorUsername are not used by the core pass. They are
	// handed to a SuppressFunc when one is installed.
	FilteredWords []string
	ActorUsername string
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithLinkMatcher replaces the link detector.
func WithLinkMatcher(m Matcher) Option {
	return func(t *Tokenizer) {
		if m != nil {
			t.link = m
		}
	}
}

// WithMentionMatcher replaces the mention detector.
func WithMentionMatcher(m Matcher) Option {
	return func(t *Tokenizer) {
		if m != nil {
			t.mention = m
		}
	}
}

// WithMentionSigil sets the prefix stripped from mentions.
func WithMentionSigil(sigil string) Option {
	return func(t *Tokenizer) {
		t.sigil = sigil
	}
}

// WithSuppress installs a word suppression policy.
func WithSuppress(fn SuppressFunc) Option {
	return func(t *Tokenizer) {
		t.suppress = fn
	}
}

// FilteredWordsPolicy suppresses any word listed in Options.FilteredWords.
func FilteredWordsPolicy(part string, opts Options) bool {
	for _, w := range opts.FilteredWords {
		if w == part {
			return true
		}
	}
	return false
}

// CompilePatterns compiles link and mention patterns, substituting the defaults
// for empty strings.
func CompilePatterns(linkPattern, mentionPattern string) (link, mention *regexp.Regexp, err error) {
	if linkPattern == "" {
		linkPattern = DefaultLinkPattern
	}
	if mentionPattern == "" {
		mentionPattern = DefaultMentionPattern
	}
	link, err = regexp.Compile(linkPattern)
	if err != nil {
		return nil, nil, &PatternError{Name: "link", Pattern: linkPattern, Err: err}
	}
	mention, err = regexp.Compile(mentionPattern)
	if err != nil {
		return nil, nil, &PatternError{Name: "mention", Pattern: mentionPattern, Err: err}
	}
	return link, mention, nil
}
