// Package platform converts raw chat events from each supported site into the
// common chat.Message shape.
package platform

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/haytac/chat-tokenizer/internal/chat"
)

var (
	// ErrUnknownPlatform is returned by Registry.Normalize for unregistered platforms.
	ErrUnknownPlatform = errors.New("unknown platform")
	// ErrMalformed is wrapped by normalizers when a raw event cannot be decoded
	// or is not a chat message.
	ErrMalformed = errors.New("malformed chat event")
)

// Normalizer converts one platform's raw chat events.
type Normalizer interface {
	Platform() chat.Platform
	Normalize(raw []byte) (*chat.Message, error)
}

// Registry dispatches raw events to the normalizer of their platform.
type Registry struct {
	normalizers map[chat.Platform]Normalizer
}

// NewRegistry creates a registry holding the given normalizers.
func NewRegistry(normalizers ...Normalizer) *Registry {
	r := &Registry{normalizers: make(map[chat.Platform]Normalizer, len(normalizers))}
	for _, n := range normalizers {
		r.Register(n)
	}
	return r
}

// DefaultRegistry returns a registry with the Twitch, Kick and YouTube normalizers.
func DefaultRegistry() *Registry {
	return NewRegistry(NewTwitch(), NewKick(), NewYouTube())
}

// Register adds or replaces the normalizer for n.Platform().
func (r *Registry) Register(n Normalizer) {
	r.normalizers[n.Platform()] = n
}

// Normalize decodes raw with the normalizer registered for p.
func (r *Registry) Normalize(p chat.Platform, raw []byte) (*chat.Message, error) {
	n, ok := r.normalizers[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, p)
	}
	return n.Normalize(raw)
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
