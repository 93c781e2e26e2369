// Package rcon talks to the Squad server's RCON port: private admin warnings
// and the connected player list.
package rcon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorcon/rcon"
	"golang.org/x/time/rate"

	"github.com/admincam/camwatch/internal/config"
	"github.com/admincam/camwatch/internal/logger"
)

var ErrNoPassword = errors.New("rcon: password not configured")

// Conn is the subset of *rcon.Conn the client uses.
type Conn interface {
	Execute(command string) (string, error)
	Close() error
}

// DialFunc opens an authenticated connection.
type DialFunc func(address, password string, timeout time.Duration) (Conn, error)

func dialGorcon(address, password string, timeout time.Duration) (Conn, error) {
	return rcon.Dial(address, password,
		rcon.SetDialTimeout(timeout),
		rcon.SetDeadline(timeout),
	)
}

// Client serializes commands over one lazily opened connection and
// reconnects after a failed command.
type Client struct {
	address  string
	password string
	timeout  time.Duration
	maxLen   int
	dial     DialFunc
	limiter  *rate.Limiter

	mu   sync.Mutex
	conn Conn
}

func NewClient(cfg config.RCONConfig) *Client {
	return newClient(cfg, dialGorcon)
}

func newClient(cfg config.RCONConfig, dial DialFunc) *Client {
	limit := rate.Inf
	burst := 1
	if cfg.WarnsPerSecond > 0 {
		limit = rate.Limit(cfg.WarnsPerSecond)
		burst = max(1, int(cfg.WarnsPerSecond))
	}
	return &Client{
		address:  cfg.Address,
		password: cfg.Password,
		timeout:  cfg.DialTimeout,
		maxLen:   cfg.MaxMessageLength,
		dial:     dial,
		limiter:  rate.NewLimiter(limit, burst),
	}
}

// Execute runs one command, waiting for the rate limiter first. A command
// that fails on an existing connection is retried once on a fresh one.
func (c *Client) Execute(ctx context.Context, command string) (string, error) {
	if c.password == "" {
		return "", ErrNoPassword
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		reused := c.conn != nil
		if err := c.connectLocked(); err != nil {
			return "", err
		}
		resp, err := c.conn.Execute(command)
		if err == nil {
			return resp, nil
		}
		c.closeLocked()
		if !reused || attempt > 0 {
			return "", fmt.Errorf("rcon %q: %w", commandName(command), err)
		}
		logger.Debug("rcon command failed on stale connection, redialing", "error", err)
	}
}

func (c *Client) connectLocked() error {
	if c.conn != nil {
		return nil
	}
	conn, err := c.dial(c.address, c.password, c.timeout)
	if err != nil {
		return fmt.Errorf("rcon dial %s: %w", c.address, err)
	}
	c.conn = conn
	return nil
}

func (c *Client) closeLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// Warn sends text to one player as AdminWarn commands, split to fit the
// in-game message limit.
func (c *Client) Warn(ctx context.Context, playerID, text string) error {
	for _, chunk := range SplitMessage(text, c.maxLen) {
		if _, err := c.Execute(ctx, fmt.Sprintf("AdminWarn %q %s", playerID, chunk)); err != nil {
			return err
		}
	}
	return nil
}

// ListPlayers returns the currently connected players.
func (c *Client) ListPlayers(ctx context.Context) ([]Player, error) {
	resp, err := c.Execute(ctx, "ListPlayers")
	if err != nil {
		return nil, err
	}
	return ParsePlayers(resp), nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return nil
}

func commandName(cmd string) string {
	if i := strings.IndexByte(cmd, ' '); i > 0 {
		return cmd[:i]
	}
	return cmd
}
