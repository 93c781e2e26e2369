package watcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/admincam/camwatch/internal/camera"
	"github.com/admincam/camwatch/internal/events"
	"github.com/admincam/camwatch/internal/notify"
	"github.com/admincam/camwatch/internal/ws"
)

const (
	denied      = "You need admin permissions to use this command."
	ignoreUsage = "Usage: !cameraignore add <id> | remove <id> | list"
)

func (w *Watcher) onChatCommand(ctx context.Context, ev events.Event) {
	if ev.Chat == nil {
		return
	}
	lines, err := w.command(ctx, ev.Player, *ev.Chat)
	if err != nil {
		if !errors.Is(err, ws.ErrUnknownCommand) {
			w.log.Error("chat command failed", "command", ev.Chat.Command, "player", ev.Player.Name, "error", err)
		}
		return
	}
	if len(lines) == 0 {
		return
	}
	if err := w.dispatch.Reply(ctx, ev.Player.EOSID, lines...); err != nil {
		w.log.Warn("replying to chat command", "command", ev.Chat.Command, "player", ev.Player.Name, "error", err)
	}
}

// RunCommand executes a chat command on the loop goroutine and returns the
// reply lines instead of whispering them. It implements ws.Commander.
func (w *Watcher) RunCommand(ctx context.Context, player events.Player, chat events.Chat) ([]string, error) {
	type result struct {
		lines []string
		err   error
	}
	ch := make(chan result, 1)
	if !w.loop.Do(func() {
		lines, err := w.command(ctx, player, chat)
		ch <- result{lines, err}
	}) {
		return nil, events.ErrStopped
	}
	select {
	case r := <-ch:
		return r.lines, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (w *Watcher) command(ctx context.Context, player events.Player, chat events.Chat) ([]string, error) {
	switch chat.Command {
	case "cameratest", "camerastats", "cameradebug", "cameraignore":
	default:
		return nil, ws.ErrUnknownCommand
	}

	caller := adminFrom(player)
	if w.deps.Directory == nil {
		return []string{denied}, nil
	}
	ok, err := w.deps.Directory.IsAdmin(caller)
	if err != nil {
		return nil, fmt.Errorf("checking admin %s: %w", caller.ID, err)
	}
	if !ok {
		return []string{denied}, nil
	}

	w.log.Info("chat command", "command", chat.Command, "player", caller.Name, "args", chat.Args)

	switch chat.Command {
	case "cameratest":
		res := w.dispatch.Test(ctx, caller)
		return []string{fmt.Sprintf("Test notifications: %d sent, %d failed.", res.Warned, res.Failed)}, nil
	case "camerastats":
		return w.dispatch.StatsLines(w.tracker.Snapshot(w.now())), nil
	case "cameradebug":
		return w.debugLines(ctx), nil
	default:
		return w.ignoreCommand(caller, chat.Args)
	}
}

func (w *Watcher) debugLines(ctx context.Context) []string {
	ignored := len(w.cfg.Ignore.EOSIDs) + len(w.cfg.Ignore.SteamIDs)
	if w.deps.Ignore != nil {
		ignored += len(w.deps.Ignore.IDs())
	}

	var counts *notify.DebugCounts
	c, err := w.deps.Directory.Counts(ctx)
	if err != nil {
		w.log.Warn("reading admin counts", "error", err)
	} else {
		counts = &notify.DebugCounts{
			WithPermission: c.WithPermission,
			OnlinePlayers:  c.OnlinePlayers,
			OnlineAdmins:   c.OnlineAdmins,
		}
	}
	return w.dispatch.DebugLines(counts, ignored)
}

func (w *Watcher) ignoreCommand(caller camera.Admin, args []string) ([]string, error) {
	if w.deps.Ignore == nil {
		return []string{"The runtime ignore list is not available."}, nil
	}
	if len(args) == 0 {
		return []string{ignoreUsage}, nil
	}

	var lines []string
	switch strings.ToLower(args[0]) {
	case "list":
		entries := w.deps.Ignore.Entries()
		if len(entries) == 0 {
			return []string{"The camera ignore list is empty."}, nil
		}
		lines = append(lines, fmt.Sprintf("=== CAMERA IGNORE LIST (%d) ===", len(entries)))
		for _, e := range entries {
			lines = append(lines, fmt.Sprintf("%s (added by %s)", e.ID, e.AddedBy))
		}
		return lines, nil

	case "add":
		if len(args) != 2 {
			return []string{ignoreUsage}, nil
		}
		added, err := w.deps.Ignore.Add(args[1], caller.Name, w.now())
		if err != nil {
			return nil, fmt.Errorf("adding %s to ignore list: %w", args[1], err)
		}
		if !added {
			return []string{args[1] + " is already on the camera ignore list."}, nil
		}
		lines = append(lines, "Added "+args[1]+" to the camera ignore list.")

	case "remove":
		if len(args) != 2 {
			return []string{ignoreUsage}, nil
		}
		removed, err := w.deps.Ignore.Remove(args[1])
		if err != nil {
			return nil, fmt.Errorf("removing %s from ignore list: %w", args[1], err)
		}
		if !removed {
			return []string{args[1] + " is not on the camera ignore list."}, nil
		}
		lines = append(lines, "Removed "+args[1]+" from the camera ignore list.")

	default:
		return []string{ignoreUsage}, nil
	}

	if !w.cfg.Ignore.Enabled {
		lines = append(lines, "Note: ignore.enabled is false, so the list has no effect.")
	}
	return lines, nil
}
