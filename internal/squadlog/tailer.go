package squadlog

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/admincam/camwatch/internal/events"
	"github.com/admincam/camwatch/internal/logger"
)

// Tailer follows SquadGame.log and posts the events it describes. It polls
// the file rather than relying on filesystem notifications, and restarts
// from the top when the server rotates or truncates the log.
type Tailer struct {
	path      string
	interval  time.Duration
	fromStart bool
	parser    *Parser
	health    *Health

	file   os.FileInfo
	offset int64
}

func NewTailer(path string, interval time.Duration, fromStart bool) *Tailer {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Tailer{
		path:      path,
		interval:  interval,
		fromStart: fromStart,
		parser:    NewParser(),
		health:    newHealth(),
	}
}

func (t *Tailer) Name() string { return "squadlog" }

// Health reports the tailer's read status. Safe for concurrent use.
func (t *Tailer) Health() HealthSnapshot {
	return t.health.snapshot()
}

// Run polls the log until ctx is cancelled.
func (t *Tailer) Run(ctx context.Context, sink events.Sink) error {
	log := logger.With("source", t.Name(), "path", t.path)

	if fi, err := os.Stat(t.path); err == nil {
		t.file = fi
		if !t.fromStart {
			t.offset = fi.Size()
		}
	} else {
		log.Warn("squad log not found yet; waiting", "error", err)
	}
	log.Info("tailing squad log", "offset", t.offset)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		if err := t.poll(ctx, sink); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if t.health.recordFailure(err) {
				log.Error("reading squad log", "error", err, "failures", t.health.snapshot().ConsecutiveFailures)
			}
		} else {
			t.health.recordSuccess()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// poll reads complete lines appended since the last call.
func (t *Tailer) poll(ctx context.Context, sink events.Sink) error {
	fi, err := os.Stat(t.path)
	if err != nil {
		return err
	}
	if t.file == nil || !os.SameFile(t.file, fi) || fi.Size() < t.offset {
		if t.file != nil {
			logger.Info("squad log rotated; reading from start", "path", t.path)
		}
		t.offset = 0
	}
	t.file = fi
	if fi.Size() == t.offset {
		return nil
	}

	f, err := os.Open(t.path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return err
	}

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		// Incomplete lines are left for the next poll.
		if len(line) == 0 || line[len(line)-1] != '\n' {
			return nil
		}
		t.offset += int64(len(line))

		if ev, ok := t.parser.Parse(line); ok {
			t.health.recordEvent(ev.Time)
			if err := sink.Post(ctx, ev); err != nil {
				return err
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}
