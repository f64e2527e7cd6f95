// Package api serves the screen and frame-limit state over HTTP.
package api

import (
	"context"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/1broseidon/screenmode/internal/display"
	"github.com/1broseidon/screenmode/internal/keyboard"
	"github.com/1broseidon/screenmode/internal/platform"
	"github.com/1broseidon/screenmode/internal/settings"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

const requestTimeout = 10 * time.Second

// ScreenService is the part of settings.Service the API exposes.
type ScreenService interface {
	Screens() []settings.ScreenInfo
	Screen(id string) (settings.ScreenInfo, error)
	FrameLimits(id string) ([]display.FrameLimit, error)
	Closest(id string, fps int) (display.FrameLimit, error)
	Select(id string, fps int) (display.FrameLimit, error)
	Refresh(ctx context.Context) (settings.RefreshResult, error)
	RefreshedAt() time.Time
	ProviderName() string
}

// KeyboardToggler flips the on-screen keyboard.
type KeyboardToggler interface {
	Toggle(ctx context.Context) (keyboard.State, error)
}

// Options configures a Server.
type Options struct {
	SessionID string
	// AccessLog receives one line per request; nil uses stdout.
	AccessLog io.Writer
}

// Server represents the API server
type Server struct {
	app       *fiber.App
	screens   ScreenService
	keyboard  KeyboardToggler
	sessionID string
	startTime time.Time
}

// NewServer creates a new API server
func NewServer(screens ScreenService, kb KeyboardToggler, opts Options) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		ServerHeader:          "screenmode",
		AppName:               "screenmode",
		DisableStartupMessage: true,
		UnescapePath:          true,
	})

	out := opts.AccessLog
	if out == nil {
		out = os.Stdout
	}
	app.Use(logger.New(logger.Config{Output: out}))
	app.Use(cors.New(cors.Config{
		Next: func(c *fiber.Ctx) bool {
			return !loopbackOrigin(c.Get(fiber.HeaderOrigin))
		},
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
	}))

	server := &Server{
		app:       app,
		screens:   screens,
		keyboard:  kb,
		sessionID: opts.SessionID,
		startTime: time.Now(),
	}

	server.setupRoutes()
	return server
}

// loopbackOrigin admits browser pages served from this machine on any port.
func loopbackOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.app.Group("/api")

	api.Get("/screens", s.getScreens)
	api.Get("/screens/:id", s.getScreen)
	api.Get("/screens/:id/frame-limits", s.getFrameLimits)
	api.Get("/screens/:id/closest", s.getClosest)
	api.Post("/screens/:id/frame-limit", s.selectFrameLimit)
	api.Post("/refresh", s.refresh)
	api.Post("/keyboard/toggle", s.toggleKeyboard)

	api.Get("/health", s.healthCheck)
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the API server
func (s *Server) Start(address string) error {
	return s.app.Listen(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Health check endpoint
func (s *Server) healthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	resp := fiber.Map{
		"status":         "ok",
		"platform":       platform.GOOS(),
		"provider":       s.screens.ProviderName(),
		"session_id":     s.sessionID,
		"screens":        len(s.screens.Screens()),
		"last_refresh":   s.screens.RefreshedAt(),
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"timestamp":      time.Now().Unix(),
	}
	if host, err := hostInfo(ctx); err == nil {
		resp["host"] = host
	}
	return c.JSON(resp)
}
