package emote

// Lookup resolves emote names against two scopes: Local (channel) first, then Global.
type Lookup struct {
	Local  Map
	Global Map
}

// Resolve returns the highest-priority descriptor registered under name.
// The empty name never resolves.
func (l Lookup) Resolve(name string) (*Descriptor, bool) {
	if name == "" {
		return nil, false
	}
	if d, ok := l.Local.Get(name); ok {
		return d, true
	}
	return l.Global.Get(name)
}
