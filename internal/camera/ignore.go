package camera

// IDSource supplies a list of ignored IDs. It is consulted on every check so
// the list can change while the tracker is running.
type IDSource interface {
	IDs() []string
}

// StaticIDs is an IDSource over a fixed slice.
type StaticIDs []string

func (s StaticIDs) IDs() []string { return s }

// IgnoreFilter decides whether an admin's camera activity is exempt from
// notifications. The zero value ignores no one.
type IgnoreFilter struct {
	Enabled  bool
	EOSIDs   []IDSource
	SteamIDs []IDSource
}

// Ignored reports whether the admin's EOS ID or Steam ID appears in any of
// the configured lists. A disabled filter ignores no one.
func (f *IgnoreFilter) Ignored(admin Admin) bool {
	if f == nil || !f.Enabled {
		return false
	}
	if admin.ID != "" && containsID(f.EOSIDs, admin.ID) {
		return true
	}
	if admin.SteamID != "" && containsID(f.SteamIDs, admin.SteamID) {
		return true
	}
	return false
}

// IsNoop reports whether the filter can never match, either because it is
// disabled or because every list is empty.
func (f *IgnoreFilter) IsNoop() bool {
	if f == nil || !f.Enabled {
		return true
	}
	for _, src := range append(append([]IDSource(nil), f.EOSIDs...), f.SteamIDs...) {
		if len(src.IDs()) > 0 {
			return false
		}
	}
	return true
}

func containsID(sources []IDSource, id string) bool {
	for _, src := range sources {
		for _, v := range src.IDs() {
			if v == id {
				return true
			}
		}
	}
	return false
}
