package emote

// Flags is the emote flag bitfield as published by emote providers.
type Flags uint32

// FlagZeroWidth marks an emote that renders on top of the preceding emote.
const FlagZeroWidth Flags = 256

// Has reports whether every bit of f is set.
func (fl Flags) Has(f Flags) bool {
	return fl&f == f
}

// Cheer carries bits/cheer metadata for cheermote descriptors.
type Cheer struct {
	Amount int    `json:"amount"`
	Color  string `json:"color,omitempty"`
}

// Descriptor describes a single emote. Descriptors are immutable once they are
// placed into a Map.
type Descriptor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Flags    Flags  `json:"flags,omitempty"`
	Cheer    *Cheer `json:"cheer,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// ZeroWidth reports whether the descriptor overlays the preceding emote.
func (d *Descriptor) ZeroWidth() bool {
	return d != nil && d.Flags.Has(FlagZeroWidth)
}

// IsCheer reports whether the descriptor represents a cheer/bits emote.
func (d *Descriptor) IsCheer() bool {
	return d != nil && d.Cheer != nil
}

// Map maps emote names to descriptors. A nil value is treated as absent.
type Map map[string]*Descriptor

// NewMap builds a Map from descriptors. Later duplicates replace earlier ones.
func NewMap(descs ...*Descriptor) Map {
	m := make(Map, len(descs))
	for _, d := range descs {
		if d == nil || d.Name == "" {
			continue
		}
		m[d.Name] = d
	}
	return m
}

// Get returns the descriptor for name, treating nil entries as missing.
func (m Map) Get(name string) (*Descriptor, bool) {
	d, ok := m[name]
	if !ok || d == nil {
		return nil, false
	}
	return d, true
}

// Clone returns a shallow copy of m.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Descriptors returns the non-nil descriptors of m in no particular order.
func (m Map) Descriptors() []*Descriptor {
	out := make([]*Descriptor, 0, len(m))
	for _, d := range m {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}

// Overlay returns m with the entries of top added on top. m is not modified and
// is returned as is when top is empty.
func (m Map) Overlay(top Map) Map {
	if len(top) == 0 {
		return m
	}
	out := m.Clone()
	for k, v := range top {
		out[k] = v
	}
	return out
}
