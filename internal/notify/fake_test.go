package notify

import (
	"context"
	"errors"
	"time"

	"github.com/admincam/camwatch/internal/camera"
	"github.com/admincam/camwatch/internal/config"
)

type warning struct {
	id   string
	text string
}

type fakeWarner struct {
	sent   []warning
	failOn map[string]bool
}

func (f *fakeWarner) Warn(_ context.Context, id, text string) error {
	if f.failOn[id] {
		return errors.New("rcon: connection reset")
	}
	f.sent = append(f.sent, warning{id, text})
	return nil
}

func (f *fakeWarner) textFor(id string) []string {
	var out []string
	for _, w := range f.sent {
		if w.id == id {
			out = append(out, w.text)
		}
	}
	return out
}

type fakeEmbeds struct {
	sent []Embed
	err  error
}

func (f *fakeEmbeds) SendEmbed(_ context.Context, e Embed) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, e)
	return nil
}

func (f *fakeEmbeds) titles() []string {
	out := make([]string, len(f.sent))
	for i, e := range f.sent {
		out[i] = e.Title
	}
	return out
}

type fakeLister struct {
	admins []camera.Admin
	err    error
}

func (f *fakeLister) EligibleAdmins(context.Context) ([]camera.Admin, error) {
	return f.admins, f.err
}

var fixedNow = time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)

func testSettings() Settings {
	cfg := config.Default()
	cfg.Discord.ChannelID = "123"
	cfg.Squad.ServerName = "Test Server"
	return SettingsFrom(cfg)
}

func newTestDispatcher(set Settings, admins ...camera.Admin) (*Dispatcher, *fakeWarner, *fakeEmbeds) {
	w := &fakeWarner{failOn: map[string]bool{}}
	e := &fakeEmbeds{}
	d := New(set, w, e, &fakeLister{admins: admins})
	d.now = func() time.Time { return fixedNow }
	return d, w, e
}

var (
	alice = camera.Admin{ID: "eos-alice", Name: "Alice"}
	bob   = camera.Admin{ID: "eos-bob", Name: "Bob"}
	carol = camera.Admin{ID: "eos-carol", Name: "Carol"}
)
