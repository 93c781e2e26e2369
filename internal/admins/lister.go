package admins

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/admincam/camwatch/internal/camera"
	"github.com/admincam/camwatch/internal/rcon"
)

// Roster lists the players currently connected.
type Roster interface {
	ListPlayers(ctx context.Context) ([]rcon.Player, error)
}

// Lister implements notify.AdminLister. Admins.cfg is re-read when its
// modification time changes; the roster is cached for ttl.
type Lister struct {
	path   string
	perm   string
	roster Roster
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	file    *File
	modTime time.Time
	players []rcon.Player
	fetched time.Time
}

func NewLister(path, permission string, roster Roster, ttl time.Duration) *Lister {
	return &Lister{
		path:   path,
		perm:   permission,
		roster: roster,
		ttl:    ttl,
		now:    time.Now,
	}
}

// EligibleAdmins returns the connected players holding the configured
// permission, matched by EOS ID or Steam ID.
func (l *Lister) EligibleAdmins(ctx context.Context) ([]camera.Admin, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := l.fileLocked()
	if err != nil {
		return nil, err
	}
	players, err := l.playersLocked(ctx)
	if err != nil {
		return nil, err
	}

	ids := file.WithPermission(l.perm)
	var out []camera.Admin
	for _, p := range players {
		if ids[p.EOSID] || (p.SteamID != "" && ids[p.SteamID]) {
			out = append(out, camera.Admin{ID: p.EOSID, SteamID: p.SteamID, Name: p.Name})
		}
	}
	return out, nil
}

// IsAdmin reports whether the player has any entry in Admins.cfg.
func (l *Lister) IsAdmin(a camera.Admin) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := l.fileLocked()
	if err != nil {
		return false, err
	}
	return file.IsAdmin(a.ID) || (a.SteamID != "" && file.IsAdmin(a.SteamID)), nil
}

// Counts summarizes admin coverage for diagnostics.
type Counts struct {
	WithPermission int
	OnlinePlayers  int
	OnlineAdmins   int
}

func (l *Lister) Counts(ctx context.Context) (Counts, error) {
	eligible, err := l.EligibleAdmins(ctx)
	if err != nil {
		return Counts{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return Counts{
		WithPermission: len(l.file.WithPermission(l.perm)),
		OnlinePlayers:  len(l.players),
		OnlineAdmins:   len(eligible),
	}, nil
}

// Invalidate drops the cached roster so the next call refetches it.
func (l *Lister) Invalidate() {
	l.mu.Lock()
	l.fetched = time.Time{}
	l.mu.Unlock()
}

func (l *Lister) fileLocked() (*File, error) {
	fi, err := os.Stat(l.path)
	if err != nil {
		if l.file != nil {
			return l.file, nil
		}
		return nil, fmt.Errorf("admins config: %w", err)
	}
	if l.file != nil && fi.ModTime().Equal(l.modTime) {
		return l.file, nil
	}
	f, err := Load(l.path)
	if err != nil {
		if l.file != nil {
			return l.file, nil
		}
		return nil, fmt.Errorf("admins config: %w", err)
	}
	l.file = f
	l.modTime = fi.ModTime()
	return f, nil
}

func (l *Lister) playersLocked(ctx context.Context) ([]rcon.Player, error) {
	if !l.fetched.IsZero() && l.now().Sub(l.fetched) < l.ttl {
		return l.players, nil
	}
	players, err := l.roster.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	l.players = players
	l.fetched = l.now()
	return players, nil
}
