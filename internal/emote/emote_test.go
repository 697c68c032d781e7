package emote

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlags(t *testing.T) {
	assert.True(t, Flags(256).Has(FlagZeroWidth))
	assert.True(t, Flags(256|1).Has(FlagZeroWidth))
	assert.False(t, Flags(1).Has(FlagZeroWidth))

	var d *Descriptor
	assert.False(t, d.ZeroWidth(), "nil descriptor must not panic")
	assert.False(t, d.IsCheer())
}

func TestNewMap_SkipsNilAndUnnamed(t *testing.T) {
	a := &Descriptor{ID: "1", Name: "A"}
	m := NewMap(a, nil, &Descriptor{ID: "2"})

	require.Len(t, m, 1)
	got, ok := m.Get("A")
	require.True(t, ok)
	assert.Same(t, a, got)
}

func TestLookup_Resolve(t *testing.T) {
	global := &Descriptor{ID: "g", Name: "Kappa"}
	local := &Descriptor{ID: "l", Name: "Kappa"}
	other := &Descriptor{ID: "o", Name: "Other"}

	l := Lookup{Local: NewMap(local), Global: NewMap(global, other)}

	d, ok := l.Resolve("Kappa")
	require.True(t, ok)
	assert.Same(t, local, d)

	d, ok = l.Resolve("Other")
	require.True(t, ok)
	assert.Same(t, other, d)

	_, ok = l.Resolve("")
	assert.False(t, ok)

	_, ok = Lookup{}.Resolve("Kappa")
	assert.False(t, ok, "nil maps behave as empty")
}

func TestStore_GlobalAndChannel(t *testing.T) {
	s := NewStore(time.Minute)
	pog := &Descriptor{ID: "1", Name: "Pog"}
	local := &Descriptor{ID: "2", Name: "Pog"}

	s.SetGlobal(NewMap(pog))
	s.SetChannel("123", NewMap(local))

	d, ok := s.Lookup("123").Resolve("Pog")
	require.True(t, ok)
	assert.Same(t, local, d)

	d, ok = s.Lookup("999").Resolve("Pog")
	require.True(t, ok)
	assert.Same(t, pog, d)

	assert.ElementsMatch(t, []string{"123"}, s.Channels())

	s.DropChannel("123")
	assert.Nil(t, s.Channel("123"))
}

func TestStore_ReturnedMapsAreSnapshots(t *testing.T) {
	s := NewStore(0)
	input := NewMap(&Descriptor{ID: "1", Name: "A"})
	s.SetGlobal(input)

	snapshot := s.Global()
	s.MergeGlobal(NewMap(&Descriptor{ID: "2", Name: "B"}))

	assert.Len(t, snapshot, 1)
	assert.Len(t, s.Global(), 2)

	input["C"] = &Descriptor{ID: "3", Name: "C"}
	assert.Len(t, s.Global(), 2, "caller mutation must not leak into the store")
}

func TestStore_ChannelExpires(t *testing.T) {
	s := NewStore(20 * time.Millisecond)
	s.SetChannel("1", NewMap(&Descriptor{ID: "1", Name: "A"}))
	require.NotNil(t, s.Channel("1"))

	assert.Eventually(t, func() bool { return s.Channel("1") == nil }, time.Second, 10*time.Millisecond)
}

func TestStore_ChannelReloadsAfterExpiry(t *testing.T) {
	persisted := NewMap(&Descriptor{ID: "1", Name: "A"})
	var calls int
	s := NewStore(20 * time.Millisecond)
	s.SetLoader(func(channelID string) (Map, error) {
		calls++
		if channelID != "1" {
			return Map{}, nil
		}
		return persisted, nil
	})

	s.SetChannel("1", persisted)
	time.Sleep(50 * time.Millisecond)

	m := s.Channel("1")
	require.Len(t, m, 1, "expired channel is read back through the loader")
	assert.Equal(t, 1, calls)

	s.Channel("1")
	assert.Equal(t, 1, calls, "reloaded map is cached again")
	assert.Equal(t, []string{"1"}, s.Channels())
}

func TestStore_ChannelLoaderMisses(t *testing.T) {
	var calls int
	fail := false
	s := NewStore(time.Minute)
	s.SetLoader(func(string) (Map, error) {
		calls++
		if fail {
			return nil, errors.New("db closed")
		}
		return nil, nil
	})

	assert.Nil(t, s.Channel("empty"))
	assert.Nil(t, s.Channel("empty"))
	assert.Equal(t, 1, calls, "empty channels are cached")
	assert.Empty(t, s.Channels())

	fail = true
	assert.Nil(t, s.Channel("broken"))
	assert.Nil(t, s.Channel("broken"))
	assert.Equal(t, 3, calls, "failed loads are not cached")
}

func TestMap_Overlay(t *testing.T) {
	base := NewMap(&Descriptor{ID: "1", Name: "Kappa"}, &Descriptor{ID: "2", Name: "Pog"})
	top := NewMap(&Descriptor{ID: "twitch-2", Name: "Pog"})

	merged := base.Overlay(top)
	assert.Equal(t, "1", merged["Kappa"].ID)
	assert.Equal(t, "twitch-2", merged["Pog"].ID)
	assert.Equal(t, "2", base["Pog"].ID, "receiver is not modified")

	var none Map
	assert.Len(t, none.Overlay(top), 1)
	assert.Equal(t, base, base.Overlay(nil))
}

func TestStore_ScopesLayersNative(t *testing.T) {
	s := NewStore(time.Minute)
	s.SetGlobal(NewMap(&Descriptor{ID: "g", Name: "Kappa"}))
	s.SetChannel("c", NewMap(&Descriptor{ID: "c1", Name: "Pog"}))

	global, local := s.Scopes("c", NewMap(&Descriptor{ID: "n1", Name: "Pog"}))
	assert.Equal(t, "g", global["Kappa"].ID)
	assert.Equal(t, "n1", local["Pog"].ID)
	assert.Equal(t, "c1", s.Channel("c")["Pog"].ID, "cached channel map is untouched")

	_, local = s.Scopes("unknown", nil)
	assert.Nil(t, local)
}
