package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/admincam/camwatch/internal/archive"
	"github.com/admincam/camwatch/internal/camera"
	"github.com/admincam/camwatch/internal/events"
)

// HTTPClient makes REST calls to the camwatch server.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a client targeting the given base URL (e.g. "http://127.0.0.1:8080").
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// GetStats fetches /api/stats.
func (c *HTTPClient) GetStats(ctx context.Context) (*StatsResponse, error) {
	var s StatsResponse
	if err := c.get(ctx, "/api/stats", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetMatches fetches the most recent archived matches, newest first.
func (c *HTTPClient) GetMatches(ctx context.Context, limit int) ([]archive.Match, error) {
	var out []archive.Match
	if err := c.get(ctx, "/api/matches?limit="+strconv.Itoa(limit), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMatchSessions fetches the sessions of one archived match.
func (c *HTTPClient) GetMatchSessions(ctx context.Context, id int64) ([]*camera.Session, error) {
	var out []*camera.Session
	if err := c.get(ctx, "/api/matches/"+strconv.FormatInt(id, 10), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetHealth fetches /healthz.
func (c *HTTPClient) GetHealth(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.get(ctx, "/healthz", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// RunCommand runs a chat command such as "!camerastats" as player and
// returns the replies the server would whisper.
func (c *HTTPClient) RunCommand(ctx context.Context, player events.Player, text string) ([]string, error) {
	body := map[string]any{"player": player, "text": text}
	var out struct {
		Replies []string `json:"replies"`
	}
	if err := c.post(ctx, "/api/command", body, &out); err != nil {
		return nil, err
	}
	return out.Replies, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *HTTPClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return fmt.Errorf("%s %s: %d %s", req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(body))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
