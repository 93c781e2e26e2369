package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIgnoreFilter(t *testing.T) {
	f := &IgnoreFilter{
		Enabled:  true,
		EOSIDs:   []IDSource{StaticIDs{"eos-1"}},
		SteamIDs: []IDSource{StaticIDs{"76561198000000002"}},
	}

	tests := []struct {
		name  string
		admin Admin
		want  bool
	}{
		{"eos match", Admin{ID: "eos-1"}, true},
		{"steam match", Admin{ID: "eos-2", SteamID: "76561198000000002"}, true},
		{"no match", Admin{ID: "eos-3", SteamID: "76561198000000003"}, false},
		{"steam id in eos list does not match", Admin{ID: "76561198000000002"}, false},
		{"empty ids", Admin{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Ignored(tt.admin))
		})
	}
}

func TestIgnoreFilterDisabled(t *testing.T) {
	f := &IgnoreFilter{EOSIDs: []IDSource{StaticIDs{"eos-1"}}}
	assert.False(t, f.Ignored(Admin{ID: "eos-1"}))
	assert.True(t, f.IsNoop())

	var nilFilter *IgnoreFilter
	assert.False(t, nilFilter.Ignored(Admin{ID: "eos-1"}))
}

func TestIgnoreFilterIsNoop(t *testing.T) {
	f := &IgnoreFilter{Enabled: true, EOSIDs: []IDSource{StaticIDs{}}}
	assert.True(t, f.IsNoop())

	f.SteamIDs = []IDSource{StaticIDs{"x"}}
	assert.False(t, f.IsNoop())
}

type mutableIDs struct{ ids []string }

func (m *mutableIDs) IDs() []string { return m.ids }

func TestIgnoreFilterLiveSource(t *testing.T) {
	src := &mutableIDs{}
	f := &IgnoreFilter{Enabled: true, EOSIDs: []IDSource{src}}

	assert.False(t, f.Ignored(Admin{ID: "eos-9"}))
	src.ids = append(src.ids, "eos-9")
	assert.True(t, f.Ignored(Admin{ID: "eos-9"}))
}
