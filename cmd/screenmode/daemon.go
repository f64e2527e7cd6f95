package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/1broseidon/screenmode/internal/api"
	"github.com/1broseidon/screenmode/internal/config"
	"github.com/1broseidon/screenmode/internal/daemon"
	"github.com/1broseidon/screenmode/internal/display"
	"github.com/1broseidon/screenmode/internal/hotkeys"
	"github.com/1broseidon/screenmode/internal/ipc"
	"github.com/1broseidon/screenmode/internal/keyboard"
	"github.com/1broseidon/screenmode/internal/logging"
	"github.com/1broseidon/screenmode/internal/platform"
	"github.com/1broseidon/screenmode/internal/settings"
	"github.com/1broseidon/screenmode/internal/x11"
)

// connectionProvider is implemented by providers backed by an X11
// connection; the keyboard toggler uses it to find its window.
type connectionProvider interface {
	Connection() *x11.Connection
}

// eventLooper is implemented by providers that own a blocking event loop.
type eventLooper interface {
	EventLoop()
	Quit()
}

// httpAPI runs the optional HTTP server and restarts it when the listen
// address changes.
type httpAPI struct {
	screens   api.ScreenService
	keyboard  api.KeyboardToggler
	sessionID string
	logger    *slog.Logger

	listen string
	server *api.Server
}

func (h *httpAPI) apply(listen string) {
	if listen == h.listen {
		return
	}
	h.stop()
	h.listen = listen
	if listen == "" {
		return
	}

	srv := api.NewServer(h.screens, h.keyboard, api.Options{SessionID: h.sessionID, AccessLog: os.Stderr})
	h.server = srv
	go func() {
		h.logger.Info("http api listening", "addr", listen)
		if err := srv.Start(listen); err != nil {
			h.logger.Error("http api stopped", "addr", listen, "err", err)
		}
	}()
}

func (h *httpAPI) stop() {
	if h.server == nil {
		return
	}
	if err := h.server.Shutdown(); err != nil {
		h.logger.Warn("http api shutdown", "err", err)
	}
	h.server = nil
}

// restartNotice tracks a setting that only takes effect after a restart.
type restartNotice struct {
	running int
	last    int
}

// changed reports whether value is a new pending change, so each edit is
// announced once.
func (n *restartNotice) changed(value int) bool {
	pending := value != n.last && value != n.running
	n.last = value
	return pending
}

type selectionReader interface {
	Selection(id string) (display.FrameLimit, bool, error)
}

// reportRestoredSelections logs the stored frame limit of screens that were
// just plugged in.
func reportRestoredSelections(screens selectionReader, logger *slog.Logger, r settings.RefreshResult) {
	for _, path := range r.Added {
		fl, ok, err := screens.Selection(path)
		if err != nil || !ok {
			continue
		}
		logger.Info("frame limit restored", "screen", path, "limit", fl.String())
	}
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "Config file path (default: $XDG_CONFIG_HOME/screenmode/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: screenmode daemon [--config PATH]")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	// Load configuration
	res, err := loadConfig(*path)
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}
	cfg := res.Config
	if err := cfg.LoadEnvFile(); err != nil {
		log.Printf("Warning: %v", err)
	}
	if cfg.Display != "" {
		os.Setenv("DISPLAY", cfg.Display)
	}
	if cfg.XAuthority != "" {
		os.Setenv("XAUTHORITY", cfg.XAuthority)
	}
	log.Printf("Configuration loaded (hotkey: %s, keyboard: %s)", cfg.KeyboardHotkey, cfg.KeyboardCommand)

	logger := logging.New(os.Stderr, cfg.LogLevel)

	// Connect to display server
	provider, err := platform.NewProvider(platform.Options{Display: cfg.Display})
	if err != nil {
		log.Printf("Failed to connect to display: %v", err)
		return 1
	}
	defer provider.Close()
	log.Printf("Display provider: %s (%s)", provider.Name(), platform.GOOS())

	store, err := settings.NewSelectionStore(filepath.Join(config.StateDir(), "selections.yaml"))
	if err != nil {
		log.Printf("Warning: frame-limit selections will not persist: %v", err)
		store, _ = settings.NewSelectionStore("")
	}
	service := settings.NewService(provider, settings.Options{
		Store:           store,
		Logger:          logger.With("component", "settings"),
		NativeRotations: cfg.NativeRotations,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if result, err := service.Refresh(ctx); err != nil {
		log.Printf("Warning: initial screen enumeration failed: %v", err)
	} else {
		log.Printf("Enumerated %d screen(s)", result.Screens)
	}

	// On-screen keyboard
	kbOpts := keyboard.Options{
		Command:       cfg.KeyboardCommand,
		ToggleCommand: cfg.KeyboardToggleCommand,
		WindowMatch:   cfg.KeyboardWindowMatch(),
		Logger:        logger.With("component", "keyboard"),
	}
	if cp, ok := provider.(connectionProvider); ok {
		kbOpts.Windows = cp.Connection()
	}
	kb := keyboard.New(kbOpts)
	defer kb.Close()

	// Setup hotkey handler
	hotkeyHandler, err := hotkeys.NewHandler(provider, kb, logger.With("component", "hotkeys"))
	if err != nil {
		log.Printf("Warning: global hotkey disabled: %v", err)
	} else if err := hotkeyHandler.Register(cfg.KeyboardHotkey); err != nil {
		log.Printf("Warning: failed to register keyboard hotkey: %v", err)
	} else {
		log.Printf("Keyboard hotkey registered: %s", cfg.KeyboardHotkey)
	}

	// Create config reload channel
	reloadChan := make(chan struct{}, 1)

	// Start IPC server
	reloadConfig := func() (*config.Config, error) {
		res, err := loadConfig(*path)
		if err != nil {
			return nil, err
		}
		return res.Config, nil
	}
	ipcServer, err := ipc.NewServer(cfg, reloadConfig, service, kb, reloadChan)
	if err != nil {
		log.Printf("Failed to create IPC server: %v", err)
		return 1
	}
	if err := ipcServer.Start(); err != nil {
		log.Printf("Failed to start IPC server: %v", err)
		return 1
	}
	defer ipcServer.Stop()

	httpServer := &httpAPI{
		screens:   service,
		keyboard:  kb,
		sessionID: ipcServer.SessionID(),
		logger:    logger.With("component", "api"),
	}
	httpServer.apply(cfg.HTTPListen)
	defer httpServer.stop()

	refresher := daemon.NewRefresher(daemon.RefresherConfig{
		Interval: time.Duration(cfg.RefreshInterval) * time.Second,
		Logger:   logger.With("component", "refresher"),
		OnChange: func(r settings.RefreshResult) {
			reportRestoredSelections(service, logger, r)
		},
	}, service)
	if cfg.RefreshInterval > 0 {
		go refresher.Run(ctx)
	}
	intervalNotice := &restartNotice{running: cfg.RefreshInterval, last: cfg.RefreshInterval}

	applyConfig := func(newCfg *config.Config) {
		service.SetNativeRotations(newCfg.NativeRotations)
		kb.Update(newCfg.KeyboardCommand, newCfg.KeyboardToggleCommand, newCfg.KeyboardWindowMatch())
		if hotkeyHandler != nil && newCfg.KeyboardHotkey != hotkeyHandler.Bound() {
			if err := hotkeyHandler.Register(newCfg.KeyboardHotkey); err != nil {
				log.Printf("Warning: failed to rebind keyboard hotkey: %v", err)
			}
		}
		httpServer.apply(newCfg.HTTPListen)
		if intervalNotice.changed(newCfg.RefreshInterval) {
			log.Printf("refresh_interval changes take effect after a daemon restart")
		}
		// Native rotations may have changed; re-enumerate so they apply.
		if cfg.RefreshInterval > 0 {
			refresher.Trigger()
		} else {
			refresher.RefreshNow(ctx)
		}
	}

	looper, hasLoop := provider.(eventLooper)

	// Setup signal handlers
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	// Handle signals and config reloads
	go func() {
		for {
			select {
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					log.Println("Received SIGHUP, reloading config...")
					newCfg, err := reloadConfig()
					if err != nil {
						log.Printf("Config reload failed: %v", err)
						continue
					}
					ipcServer.UpdateConfig(newCfg)
					applyConfig(newCfg)
					log.Println("Config reloaded successfully")

				case os.Interrupt, syscall.SIGTERM:
					log.Println("Shutting down screenmode daemon...")
					cancel()
					if hasLoop {
						looper.Quit()
					}
					return
				}

			case <-reloadChan:
				// Config was reloaded via IPC, update components
				applyConfig(ipcServer.GetConfig())

			case <-ctx.Done():
				return
			}
		}
	}()

	if hasLoop {
		log.Println("Entering event loop...")
		looper.EventLoop()
	} else {
		<-ctx.Done()
	}
	return 0
}
