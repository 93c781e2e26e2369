// Package admins resolves which connected players are server admins, using
// the server's Admins.cfg and the live player list.
package admins

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Entry is one "Admin=" line of Admins.cfg.
type Entry struct {
	ID      string
	Group   string
	Comment string
}

// File is a parsed Admins.cfg.
type File struct {
	Groups  map[string][]string
	Entries []Entry
}

// Parse reads Admins.cfg syntax:
//
//	Group=SuperAdmin:kick,ban,cameraman,canseeadminchat
//	Admin=76561198000000001:SuperAdmin // comment
//
// Group and permission names are compared case-insensitively. Unknown lines
// are skipped.
func Parse(r io.Reader) (*File, error) {
	f := &File{Groups: make(map[string][]string)}
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		comment := ""
		if i := strings.Index(line, "//"); i >= 0 {
			comment = strings.TrimSpace(line[i+2:])
			line = strings.TrimSpace(line[:i])
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		name, rest, ok := strings.Cut(strings.TrimSpace(val), ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		rest = strings.TrimSpace(rest)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "group":
			var perms []string
			for _, p := range strings.Split(rest, ",") {
				if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
					perms = append(perms, p)
				}
			}
			f.Groups[strings.ToLower(name)] = perms
		case "admin":
			if name == "" || rest == "" {
				return nil, fmt.Errorf("line %d: malformed admin entry", n)
			}
			f.Entries = append(f.Entries, Entry{ID: name, Group: strings.ToLower(rest), Comment: comment})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Parse(fh)
}

// WithPermission returns the set of IDs whose group grants perm.
func (f *File) WithPermission(perm string) map[string]bool {
	perm = strings.ToLower(perm)
	ids := make(map[string]bool)
	for _, e := range f.Entries {
		for _, p := range f.Groups[e.Group] {
			if p == perm {
				ids[e.ID] = true
				break
			}
		}
	}
	return ids
}

// IsAdmin reports whether id has any admin entry.
func (f *File) IsAdmin(id string) bool {
	for _, e := range f.Entries {
		if e.ID == id {
			return true
		}
	}
	return false
}
