// Package render turns a tokenized message into a sanitized HTML fragment for
// previews.
package render

import (
	"html"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kyokomi/emoji/v2"
	"github.com/microcosm-cc/bluemonday"

	"github.com/haytac/chat-tokenizer/internal/chat"
	"github.com/haytac/chat-tokenizer/internal/emote"
)

var (
	classPattern     = regexp.MustCompile(`^(emote|emote-overlay|mention|cheer)( (emote|emote-overlay|mention|cheer))*$`)
	shortcodePattern = regexp.MustCompile(`:[\w+\-]+:`)
)

// Renderer renders token streams. The zero value is not usable; call New.
type Renderer struct {
	policy *bluemonday.Policy
	// Shortcodes enables :shortcode: emoji expansion in plain text.
	Shortcodes bool
}

// New creates a Renderer with the default output policy.
func New() *Renderer {
	return &Renderer{policy: Policy(), Shortcodes: true}
}

// Policy returns the sanitizer applied to every rendered fragment.
func Policy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("span")
	p.AllowAttrs("class").Matching(classPattern).OnElements("span")
	p.AllowAttrs("title").OnElements("span")
	p.AllowDataAttributes()
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https")
	p.RequireParseableURLs(true)
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// HTML renders body annotated by tokens. Token ranges are byte offsets. Tokens
// that fall outside the body or overlap an already rendered token are skipped,
// so an emote that also looks like a link renders as the emote.
func (r *Renderer) HTML(body string, tokens []chat.Token) string {
	sorted := make([]chat.Token, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Range.Start < sorted[j].Range.Start })

	var sb strings.Builder
	cursor := 0
	for _, tok := range sorted {
		if !tok.Range.Valid(len(body)) || tok.Range.Start < cursor {
			continue
		}
		sb.WriteString(r.text(body[cursor:tok.Range.Start]))
		switch tok.Kind {
		case chat.KindEmote:
			writeEmote(&sb, tok.Emote, body[tok.Range.Start:tok.Range.End])
		case chat.KindLink:
			writeLink(&sb, tok.Link, body[tok.Range.Start:tok.Range.End])
		case chat.KindMention:
			writeMention(&sb, tok.Mention, body[tok.Range.Start:tok.Range.End])
		case chat.KindVoid:
		}
		cursor = tok.Range.End
	}
	sb.WriteString(r.text(body[cursor:]))

	return r.policy.Sanitize(sb.String())
}

func (r *Renderer) text(s string) string {
	if s == "" {
		return ""
	}
	if r.Shortcodes && strings.Contains(s, ":") {
		s = expandShortcodes(s)
	}
	return html.EscapeString(s)
}

// expandShortcodes replaces known :shortcode: sequences with their emoji. Unlike
// emoji.Sprint it adds no padding, so the text keeps the body's spacing.
func expandShortcodes(s string) string {
	codes := emoji.CodeMap()
	return shortcodePattern.ReplaceAllStringFunc(s, func(code string) string {
		if e, ok := codes[code]; ok {
			return e
		}
		return code
	})
}

func writeEmote(sb *strings.Builder, c *chat.EmoteContent, word string) {
	if c == nil || c.Emote == nil {
		sb.WriteString(html.EscapeString(word))
		return
	}
	class := "emote"
	if c.CheerAmount > 0 {
		class = "emote cheer"
	}
	sb.WriteString(`<span class="` + class + `"`)
	writeDescriptorAttrs(sb, c.Emote)
	if c.CheerAmount > 0 {
		sb.WriteString(` data-cheer-amount="` + strconv.Itoa(c.CheerAmount) + `"`)
		if c.CheerColor != "" {
			sb.WriteString(` data-cheer-color="` + html.EscapeString(c.CheerColor) + `"`)
		}
	}
	sb.WriteString(">")
	sb.WriteString(html.EscapeString(word))

	names := make([]string, 0, len(c.Overlaid))
	for name := range c.Overlaid {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sb.WriteString(`<span class="emote-overlay"`)
		writeDescriptorAttrs(sb, c.Overlaid[name])
		sb.WriteString("></span>")
	}
	sb.WriteString("</span>")
}

func writeDescriptorAttrs(sb *strings.Builder, d *emote.Descriptor) {
	if d == nil {
		return
	}
	sb.WriteString(` title="` + html.EscapeString(d.Name) + `"`)
	sb.WriteString(` data-emote-id="` + html.EscapeString(d.ID) + `"`)
	if d.Provider != "" {
		sb.WriteString(` data-provider="` + html.EscapeString(d.Provider) + `"`)
	}
}

func writeLink(sb *strings.Builder, c *chat.LinkContent, word string) {
	if c == nil {
		sb.WriteString(html.EscapeString(word))
		return
	}
	sb.WriteString(`<a href="` + html.EscapeString(c.URL) + `">`)
	sb.WriteString(html.EscapeString(c.DisplayText))
	sb.WriteString("</a>")
}

func writeMention(sb *strings.Builder, c *chat.MentionContent, word string) {
	if c == nil {
		sb.WriteString(html.EscapeString(word))
		return
	}
	sb.WriteString(`<span class="mention" data-recipient="` + html.EscapeString(c.Recipient) + `">`)
	sb.WriteString(html.EscapeString(c.DisplayText))
	sb.WriteString("</span>")
}
