// Package ignorelist persists the admin IDs added to the ignore list at
// runtime, so chat-command edits survive restarts.
package ignorelist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"
)

const (
	// listVersion is bumped when the schema changes.
	listVersion = 1

	listFileName = "ignore.json"
	appDirName   = "camwatch"
)

// Entry records who was ignored and by whom.
type Entry struct {
	ID      string    `json:"id"`
	AddedBy string    `json:"addedBy,omitempty"`
	AddedAt time.Time `json:"addedAt"`
}

type document struct {
	Version     int       `json:"version"`
	Entries     []Entry   `json:"entries"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// List is a persisted set of ignored IDs. It implements camera.IDSource.
type List struct {
	dir string

	mu      sync.RWMutex
	entries map[string]Entry
}

// Open loads the list from dir. The directory is created on the first save
// if it does not exist. Pass an empty string to use the default XDG state
// path.
func Open(dir string) (*List, error) {
	if dir == "" {
		dir = defaultStateDir()
	}
	l := &List{dir: dir, entries: make(map[string]Entry)}

	data, err := os.ReadFile(l.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("reading ignore list: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing ignore list: %w", err)
	}
	for _, e := range doc.Entries {
		l.entries[e.ID] = e
	}
	return l, nil
}

// Path returns the full path to the list file.
func (l *List) Path() string {
	return filepath.Join(l.dir, listFileName)
}

// IDs returns the ignored IDs in sorted order.
func (l *List) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.entries))
	for id := range l.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (l *List) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int { return a.AddedAt.Compare(b.AddedAt) })
	return out
}

func (l *List) Contains(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[id]
	return ok
}

// Add inserts id and saves. It reports false if id was already present.
func (l *List) Add(id, addedBy string, now time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[id]; ok {
		return false, nil
	}
	l.entries[id] = Entry{ID: id, AddedBy: addedBy, AddedAt: now.UTC()}
	if err := l.saveLocked(); err != nil {
		delete(l.entries, id)
		return false, err
	}
	return true, nil
}

// Remove deletes id and saves. It reports false if id was not present.
func (l *List) Remove(id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok {
		return false, nil
	}
	delete(l.entries, id)
	if err := l.saveLocked(); err != nil {
		l.entries[id] = e
		return false, err
	}
	return true, nil
}

// saveLocked writes the list using an atomic temp-file-then-rename pattern.
func (l *List) saveLocked() error {
	if err := os.MkdirAll(l.dir, 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	doc := document{Version: listVersion, LastUpdated: time.Now().UTC()}
	for _, e := range l.entries {
		doc.Entries = append(doc.Entries, e)
	}
	sort.Slice(doc.Entries, func(i, j int) bool { return doc.Entries[i].ID < doc.Entries[j].ID })

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling ignore list: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(l.dir, ".ignore-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, l.Path()); err != nil {
		return fmt.Errorf("renaming ignore list: %w", err)
	}
	committed = true
	return nil
}

// defaultStateDir returns ~/.local/state/camwatch, respecting
// XDG_STATE_HOME if set.
func defaultStateDir() string {
	if base := os.Getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "state", appDirName)
}
