package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/admincam/camwatch/internal/archive"
	"github.com/admincam/camwatch/internal/camera"
	"github.com/admincam/camwatch/internal/config"
	"github.com/admincam/camwatch/internal/events"
	"github.com/admincam/camwatch/internal/logger"
)

// MatchStore is the archive view served under /api/matches.
type MatchStore interface {
	ListMatches(ctx context.Context, limit int) ([]archive.Match, error)
	MatchSessions(ctx context.Context, matchID int64) ([]*camera.Session, error)
	AdminTotals(ctx context.Context, limit int) ([]archive.AdminTotal, error)
}

// ErrUnknownCommand is returned by a Commander for commands it does not
// handle.
var ErrUnknownCommand = errors.New("unknown command")

// Commander runs a chat command on behalf of player and returns the replies
// it would whisper back in game.
type Commander interface {
	RunCommand(ctx context.Context, player events.Player, chat events.Chat) ([]string, error)
}

const (
	defaultMatchLimit = 20
	maxMatchLimit     = 200
	commandTimeout    = 15 * time.Second
)

type Server struct {
	broadcaster    *Broadcaster
	matches        MatchStore
	commands       Commander
	health         func() map[string]any
	static         http.Handler
	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
	authToken      string
	operators      map[string]bool
}

func NewServer(cfg config.ServerConfig, broadcaster *Broadcaster) *Server {
	s := &Server{
		broadcaster:    broadcaster,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
		authToken:      cfg.AuthToken,
	}

	if len(cfg.CommandOperators) > 0 {
		s.operators = make(map[string]bool, len(cfg.CommandOperators))
		for _, id := range cfg.CommandOperators {
			if id = strings.TrimSpace(id); id != "" {
				s.operators[id] = true
			}
		}
	}

	for _, origin := range cfg.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

// SetArchive enables the /api/matches endpoints. Must be called before
// SetupRoutes.
func (s *Server) SetArchive(m MatchStore) {
	s.matches = m
}

// SetCommander enables POST /api/command.
func (s *Server) SetCommander(c Commander) {
	s.commands = c
}

// SetHealth sets the function reporting per-component health on /healthz.
func (s *Server) SetHealth(fn func() map[string]any) {
	s.health = fn
}

// SetStatic serves h for every path not matched by the API.
func (s *Server) SetStatic(h http.Handler) {
	s.static = h
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/matches", s.handleMatches)
	mux.HandleFunc("/api/matches/", s.handleMatchSessions)
	mux.HandleFunc("/api/command", s.handleCommand)
	mux.HandleFunc("/healthz", s.handleHealth)

	if s.static != nil {
		mux.Handle("/", s.static)
	}
}

// Handler returns the routed API wrapped in the security headers.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return securityHeaders(mux)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws upgrade error", "remote", r.RemoteAddr, "error", err)
		return
	}

	c, err := s.broadcaster.AddClient(conn)
	if err != nil {
		msg, _ := json.Marshal(WSMessage{Type: MsgError, Payload: ErrorPayload{Message: err.Error()}})
		_ = conn.WriteMessage(websocket.TextMessage, msg)
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
		conn.Close()
		logger.Warn("ws client rejected", "remote", r.RemoteAddr, "error", err)
		return
	}
	logger.Info("websocket client connected", "remote", r.RemoteAddr)

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(c)
			logger.Info("websocket client disconnected", "remote", r.RemoteAddr)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

type sessionsResponse struct {
	Active  []*camera.Session `json:"active"`
	History []*camera.Session `json:"history"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	snap := s.broadcaster.Latest()
	writeJSON(w, http.StatusOK, sessionsResponse{Active: orEmpty(snap.Active), History: orEmpty(snap.History)})
}

type statsResponse struct {
	Match          camera.Stats         `json:"match"`
	ActiveCount    int                  `json:"activeCount"`
	PendingOrphans []string             `json:"pendingOrphans,omitempty"`
	AllTime        []archive.AdminTotal `json:"allTime,omitempty"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	snap := s.broadcaster.Latest()
	resp := statsResponse{
		Match:          snap.Stats,
		ActiveCount:    len(snap.Active),
		PendingOrphans: snap.PendingOrphans,
	}
	if s.matches != nil {
		totals, err := s.matches.AdminTotals(r.Context(), defaultMatchLimit)
		if err != nil {
			logger.Error("loading admin totals", "error", err)
		} else {
			resp.AllTime = totals
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if s.matches == nil {
		http.Error(w, "archive not enabled", http.StatusServiceUnavailable)
		return
	}

	limit := defaultMatchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxMatchLimit)
	}

	matches, err := s.matches.ListMatches(r.Context(), limit)
	if err != nil {
		logger.Error("listing matches", "error", err)
		http.Error(w, "archive error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(matches))
}

func (s *Server) handleMatchSessions(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if s.matches == nil {
		http.Error(w, "archive not enabled", http.StatusServiceUnavailable)
		return
	}

	// Parse: /api/matches/{id}
	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/api/matches/"), 10, 64)
	if err != nil {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}
	sessions, err := s.matches.MatchSessions(r.Context(), id)
	if err != nil {
		logger.Error("listing match sessions", "match", id, "error", err)
		http.Error(w, "archive error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(sessions))
}

type commandRequest struct {
	Player events.Player `json:"player"`
	// Text is the chat line as typed, e.g. "!cameraignore list".
	Text string `json:"text"`
}

type commandResponse struct {
	Replies []string `json:"replies"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.commands == nil {
		http.Error(w, "commands not available", http.StatusServiceUnavailable)
		return
	}

	var req commandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8<<10)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Player.EOSID == "" {
		http.Error(w, "player.eosId is required", http.StatusBadRequest)
		return
	}
	if s.operators != nil && !s.operators[req.Player.EOSID] {
		http.Error(w, "player is not a command operator", http.StatusForbidden)
		return
	}
	chat, ok := events.ParseChat("ChatAdmin", req.Text)
	if !ok {
		http.Error(w, "text must be a ! command", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
	defer cancel()
	replies, err := s.commands.RunCommand(ctx, req.Player, chat)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrUnknownCommand):
			status = http.StatusNotFound
		case errors.Is(err, context.DeadlineExceeded):
			status = http.StatusGatewayTimeout
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Replies: orEmpty(replies)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"clients": s.broadcaster.ClientCount(),
	}
	if s.health != nil {
		for k, v := range s.health() {
			body[k] = v
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) authorize(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}

	if r.URL.Query().Get("token") == s.authToken {
		return true
	}

	if r.Header.Get("X-Camwatch-Token") == s.authToken {
		return true
	}

	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.authToken {
		return true
	}

	return false
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	if parsed.Host == r.Host {
		return true
	}
	switch parsed.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Content-Security-Policy", "default-src 'self'")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("writing response", "error", err)
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ListenAndServe serves h on host:port until ctx is cancelled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, host string, port int, h http.Handler) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
