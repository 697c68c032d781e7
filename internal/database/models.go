package database

import (
	"time"

	"github.com/haytac/chat-tokenizer/internal/emote"
)

// GlobalScope is the scope value of emotes that apply to every channel.
const GlobalScope = ""

// Emote is a persisted emote descriptor.
type Emote struct {
	ID          int64     `db:"id"`
	Scope       string    `db:"scope"` // "" for global, otherwise a channel ID
	Name        string    `db:"name"`
	EmoteID     string    `db:"emote_id"`
	Flags       int64     `db:"flags"`
	CheerAmount *int64    `db:"cheer_amount"`
	CheerColor  *string   `db:"cheer_color"`
	Provider    string    `db:"provider"`
	SourceID    *int64    `db:"source_id"` // nil for manually added emotes
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Descriptor converts the row into an in-memory descriptor.
func (e *Emote) Descriptor() *emote.Descriptor {
	d := &emote.Descriptor{
		ID:       e.EmoteID,
		Name:     e.Name,
		Flags:    emote.Flags(e.Flags),
		Provider: e.Provider,
	}
	if e.CheerAmount != nil {
		d.Cheer = &emote.Cheer{Amount: int(*e.CheerAmount)}
		if e.CheerColor != nil {
			d.Cheer.Color = *e.CheerColor
		}
	}
	return d
}

// EmoteFromDescriptor builds a row for d in scope.
func EmoteFromDescriptor(scope string, d *emote.Descriptor, sourceID *int64) *Emote {
	e := &Emote{
		Scope:    scope,
		Name:     d.Name,
		EmoteID:  d.ID,
		Flags:    int64(d.Flags),
		Provider: d.Provider,
		SourceID: sourceID,
	}
	if d.Cheer != nil {
		amount := int64(d.Cheer.Amount)
		e.CheerAmount = &amount
		if d.Cheer.Color != "" {
			color := d.Cheer.Color
			e.CheerColor = &color
		}
	}
	return e
}

// CatalogSource is a remote emote catalog refreshed on a schedule.
type CatalogSource struct {
	ID               int64      `db:"id"`
	Name             string     `db:"name"`
	URL              string     `db:"url"`
	Scope            string     `db:"scope"`
	Provider         string     `db:"provider"`
	FrequencySeconds int        `db:"frequency_seconds"`
	IsEnabled        bool       `db:"is_enabled"`
	HTTPEtag         *string    `db:"http_etag"`
	LastFetchedAt    *time.Time `db:"last_fetched_at"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// ScopeLabel returns a printable scope name.
func (s *CatalogSource) ScopeLabel() string {
	return ScopeLabel(s.Scope)
}

// ScopeLabel returns "global" for the global scope and the channel ID otherwise.
func ScopeLabel(scope string) string {
	if scope == GlobalScope {
		return "global"
	}
	return scope
}
