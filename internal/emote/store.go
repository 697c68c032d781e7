package emote

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

const (
	DefaultChannelTTL      = 30 * time.Minute
	defaultCleanupInterval = 10 * time.Minute
)

// Loader reads the persisted local map of a channel. It is consulted when a
// channel is not cached, including after its cache entry expired.
type Loader func(channelID string) (Map, error)

// Store holds the active emote catalogs: one global map and one local map per
// channel. Channel maps expire after the configured TTL and are read back
// through the Loader on the next access.
//
// Maps handed out by the store are never mutated afterwards; writers always
// install a fresh map, so readers may use a returned map without locking.
type Store struct {
	mu       sync.RWMutex
	global   Map
	channels *gocache.Cache
	loader   Loader
}

// NewStore creates an empty Store. A non-positive ttl selects DefaultChannelTTL.
func NewStore(channelTTL time.Duration) *Store {
	if channelTTL <= 0 {
		channelTTL = DefaultChannelTTL
	}
	return &Store{
		global:   Map{},
		channels: gocache.New(channelTTL, defaultCleanupInterval),
	}
}

// SetLoader installs the loader used on channel cache misses.
func (s *Store) SetLoader(l Loader) {
	s.mu.Lock()
	s.loader = l
	s.mu.Unlock()
}

// SetGlobal replaces the global map.
func (s *Store) SetGlobal(m Map) {
	s.mu.Lock()
	s.global = m.Clone()
	s.mu.Unlock()
	log.Debug().Int("emotes", len(m)).Msg("Global emote set replaced")
}

// MergeGlobal adds m on top of the current global map.
func (s *Store) MergeGlobal(m Map) {
	s.mu.Lock()
	merged := s.global.Overlay(m.Clone())
	s.global = merged
	s.mu.Unlock()
	log.Debug().Int("added", len(m)).Int("emotes", len(merged)).Msg("Global emote set merged")
}

// Global returns the current global map.
func (s *Store) Global() Map {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.global
}

// SetChannel replaces the local map of a channel and resets its expiry.
func (s *Store) SetChannel(channelID string, m Map) {
	s.channels.SetDefault(channelID, m.Clone())
	log.Debug().Str("channel_id", channelID).Int("emotes", len(m)).Msg("Channel emote set replaced")
}

// Channel returns the local map of a channel, or nil if the channel has no
// emotes. A miss is filled from the Loader; empty results are cached too so an
// unknown channel does not hit the loader on every message.
func (s *Store) Channel(channelID string) Map {
	if channelID == "" {
		return nil
	}
	v, ok := s.channels.Get(channelID)
	if !ok {
		return s.load(channelID)
	}
	m, ok := v.(Map)
	if !ok {
		log.Error().Str("channel_id", channelID).Msg("Channel emote cache holds unexpected type")
		return nil
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func (s *Store) load(channelID string) Map {
	s.mu.RLock()
	loader := s.loader
	s.mu.RUnlock()
	if loader == nil {
		return nil
	}

	m, err := loader(channelID)
	if err != nil {
		log.Error().Err(err).Str("channel_id", channelID).Msg("Failed to load channel emotes")
		return nil
	}
	if m == nil {
		m = Map{}
	}
	s.channels.SetDefault(channelID, m)
	log.Debug().Str("channel_id", channelID).Int("emotes", len(m)).Msg("Channel emote set loaded")
	if len(m) == 0 {
		return nil
	}
	return m
}

// DropChannel evicts the local map of a channel.
func (s *Store) DropChannel(channelID string) {
	s.channels.Delete(channelID)
}

// Channels returns the IDs of every cached channel that has emotes.
func (s *Store) Channels() []string {
	items := s.channels.Items()
	ids := make([]string, 0, len(items))
	for id, item := range items {
		if m, ok := item.Object.(Map); ok && len(m) > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// Lookup returns the two-scope lookup for a channel.
func (s *Store) Lookup(channelID string) Lookup {
	return Lookup{Local: s.Channel(channelID), Global: s.Global()}
}

// Scopes returns the global map and the local map of channelID with native
// emotes layered over the channel's catalog.
func (s *Store) Scopes(channelID string, native Map) (global, local Map) {
	return s.Global(), s.Channel(channelID).Overlay(native)
}
