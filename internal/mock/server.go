package mock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/admincam/camwatch/internal/logger"
	"github.com/admincam/camwatch/internal/rcon"
)

// Server fakes the RCON side of a game server: it reports the generator's
// admins as connected and logs warnings instead of sending them.
type Server struct {
	gen *Generator

	mu     sync.Mutex
	warned map[string][]string
}

func NewServer(gen *Generator) *Server {
	return &Server{gen: gen, warned: make(map[string][]string)}
}

func (s *Server) ListPlayers(context.Context) ([]rcon.Player, error) {
	var out []rcon.Player
	for i, p := range s.gen.Players() {
		out = append(out, rcon.Player{
			ID:      i + 1,
			EOSID:   p.EOSID,
			SteamID: p.SteamID,
			Name:    p.Name,
			TeamID:  strconv.Itoa(1 + i%2),
		})
	}
	return out, nil
}

func (s *Server) Warn(ctx context.Context, playerID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.warned[playerID] = append(s.warned[playerID], text)
	s.mu.Unlock()
	logger.Info("mock AdminWarn", "player", playerID, "text", text)
	return nil
}

// Warnings returns the messages sent to playerID so far.
func (s *Server) Warnings(playerID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.warned[playerID]...)
}

// WriteAdminsCfg writes an Admins.cfg granting every scripted admin the
// given permission and returns its path.
func WriteAdminsCfg(dir, permission string, gen *Generator) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Group=MockAdmin:%s,chat,kick\n\n", permission)
	for _, p := range gen.Players() {
		fmt.Fprintf(&b, "Admin=%s:MockAdmin // %s\n", p.SteamID, p.Name)
	}

	path := filepath.Join(dir, "Admins.cfg")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing mock admins: %w", err)
	}
	return path, nil
}
