package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/admincam/camwatch/internal/admins"
	"github.com/admincam/camwatch/internal/archive"
	"github.com/admincam/camwatch/internal/config"
	"github.com/admincam/camwatch/internal/discord"
	"github.com/admincam/camwatch/internal/events"
	"github.com/admincam/camwatch/internal/frontend"
	"github.com/admincam/camwatch/internal/ignorelist"
	"github.com/admincam/camwatch/internal/logger"
	"github.com/admincam/camwatch/internal/mock"
	"github.com/admincam/camwatch/internal/rcon"
	"github.com/admincam/camwatch/internal/squadlog"
	"github.com/admincam/camwatch/internal/watcher"
	"github.com/admincam/camwatch/internal/ws"
)

const (
	loopBuffer      = 256
	shutdownTimeout = 10 * time.Second
	mockInterval    = 3 * time.Second
)

func main() {
	mockMode := flag.Bool("mock", false, "Replay scripted camera activity instead of tailing the server log")
	configPath := flag.String("config", "", "Path to config file (defaults and environment only when empty)")
	port := flag.Int("port", 0, "Override server port")
	flag.Parse()

	config.LoadDotEnv()
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.FatalErr(err, "failed to load config", "path", *configPath)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	logger.Setup(os.Getenv("ENVIRONMENT") == "production", cfg.Log.Level)
	for _, warning := range cfg.Validate() {
		logger.Warn("config", "warning", warning)
	}

	loop := events.NewLoop(loopBuffer)
	deps := watcher.Deps{}

	var (
		source   events.Source
		roster   admins.Roster
		rconConn *rcon.Client
		health   func() map[string]any
	)
	adminsPath := cfg.Squad.AdminsCfg

	if *mockMode {
		logger.Info("starting in mock mode")
		gen := mock.NewGenerator(mockInterval)
		fake := mock.NewServer(gen)
		dir, err := os.MkdirTemp("", "camwatch-mock-")
		if err != nil {
			logger.FatalErr(err, "failed to create mock state dir")
		}
		defer os.RemoveAll(dir)
		if adminsPath, err = mock.WriteAdminsCfg(dir, cfg.Notifications.AdminPermission, gen); err != nil {
			logger.FatalErr(err, "failed to write mock admins")
		}
		source, roster, deps.Warner = gen, fake, fake
		health = func() map[string]any {
			return map[string]any{"source": gen.Name()}
		}
	} else {
		logger.Info("starting in real mode", "log", cfg.Squad.LogPath, "rcon", cfg.RCON.Address)
		tailer := squadlog.NewTailer(cfg.Squad.LogPath, cfg.Squad.PollInterval, cfg.Squad.ReadFromStart)
		rconConn = rcon.NewClient(cfg.RCON)
		source, roster, deps.Warner = tailer, rconConn, rconConn
		health = func() map[string]any {
			return map[string]any{"source": tailer.Name(), "sourceHealth": tailer.Health()}
		}
	}

	lister := admins.NewLister(adminsPath, cfg.Notifications.AdminPermission, roster, cfg.RCON.RosterInterval)
	deps.Lister = lister
	deps.Directory = lister

	if wantsDiscord(cfg) {
		sender, err := discord.New(cfg.Discord)
		if err != nil {
			logger.Warn("discord notifications disabled", "error", err)
		} else {
			deps.Embeds = sender
		}
	}

	if cfg.Ignore.Enabled {
		list, err := ignorelist.Open(cfg.Ignore.StateDir)
		if err != nil {
			logger.Warn("runtime ignore list unavailable", "error", err)
		} else {
			logger.Info("ignore list loaded", "path", list.Path(), "entries", len(list.Entries()))
			deps.Ignore = list
		}
	}

	var store *archive.Store
	if cfg.Archive.Enabled {
		if store, err = archive.Open(cfg.Archive.Path); err != nil {
			logger.Warn("match archive disabled", "path", cfg.Archive.Path, "error", err)
		} else {
			deps.Archive = store
		}
	}

	broadcaster := ws.NewBroadcaster(cfg.Squad.ServerName, cfg.Server.BroadcastThrottle, cfg.Server.SnapshotInterval, cfg.Server.MaxConnections)
	deps.Publisher = broadcaster

	w := watcher.New(cfg, loop, deps)

	server := ws.NewServer(cfg.Server, broadcaster)
	if store != nil {
		server.SetArchive(store)
	}
	server.SetCommander(w)
	server.SetHealth(health)
	server.SetStatic(frontend.Handler())

	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	srcCtx, stopSource := context.WithCancel(loopCtx)
	defer stopSource()
	httpCtx, stopHTTP := context.WithCancel(context.Background())
	defer stopHTTP()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := loop.Run(loopCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("event loop stopped", "error", err)
		}
	}()

	go func() {
		logger.Info("event source started", "source", source.Name())
		if err := source.Run(srcCtx, loop); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, events.ErrStopped) {
			logger.Error("event source stopped", "source", source.Name(), "error", err)
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- ws.ListenAndServe(httpCtx, cfg.Server.Host, cfg.Server.Port, server.Handler())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for running := true; running; {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				reload(w, *configPath, *port)
				continue
			}
			logger.Info("shutting down", "signal", sig.String())
			running = false
		case err := <-serveErr:
			if err != nil {
				logger.Error("server error", "error", err)
			}
			running = false
		}
	}

	stopSource()
	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := w.Close(closeCtx); err != nil {
		logger.Warn("final archive failed", "error", err)
	}
	cancel()
	stopLoop()
	<-loopDone

	stopHTTP()
	broadcaster.Stop()
	if rconConn != nil {
		rconConn.Close()
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Warn("closing archive", "error", err)
		}
	}
}

// wantsDiscord reports whether any notification needs the Discord sender.
// The first-entry and last-exit specials only require a channel.
func wantsDiscord(cfg *config.Config) bool {
	n := cfg.Notifications
	if !cfg.Discord.ChannelConfigured() {
		return false
	}
	return n.Discord || n.SessionSummary || n.FirstEntry || n.LastExit
}

// reload re-reads the config file and hands the result to the watcher.
// Transport settings such as the listen address and RCON credentials only
// take effect after a restart.
func reload(w *watcher.Watcher, path string, port int) {
	cfg, err := config.Load(path)
	if err != nil {
		logger.Error("reload failed", "path", path, "error", err)
		return
	}
	if port > 0 {
		cfg.Server.Port = port
	}
	for _, warning := range cfg.Validate() {
		logger.Warn("config", "warning", warning)
	}
	logger.SetLevel(cfg.Log.Level)
	if !w.Reload(cfg) {
		logger.Warn("reload skipped: event loop stopped")
	}
}
