// Package mcp exposes the daemon's screen and frame-limit operations as MCP
// tools over stdio.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/screenmode/internal/ipc"
	"github.com/1broseidon/screenmode/internal/logging"
	"github.com/1broseidon/screenmode/internal/settings"
)

const (
	ServerName    = "screenmode"
	ServerVersion = "0.1.0"
)

// Daemon is the subset of the IPC client the tools call.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	GetScreens() (*ipc.ScreensData, error)
	GetFrameLimits(screen string) (*ipc.FrameLimitsData, error)
	GetClosest(screen string, fps int) (*ipc.FrameLimitData, error)
	SelectFrameLimit(screen string, fps int) (*ipc.FrameLimitData, error)
	ToggleKeyboard() (*ipc.KeyboardData, error)
	Refresh() (*settings.RefreshResult, error)
}

// Server is the MCP server for screenmode.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	logger    *slog.Logger
}

// NewServer creates a new MCP server that forwards tool calls to daemon.
// A nil logger discards tool logs; stdout is reserved for the protocol.
func NewServer(daemon Daemon, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		daemon: daemon,
		logger: logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_screens",
		Description: "List the attached screens with their current mode, rotation and selected frame limit.",
	}, s.handleListScreens)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_frame_limits",
		Description: "Get the frame-limit menu derived from a screen's refresh rate. Index 0 is always the disabled entry.",
	}, s.handleGetFrameLimits)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_closest_frame_limit",
		Description: "Find the frame-limit menu entry closest to a requested FPS without changing anything.",
	}, s.handleGetClosest)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "select_frame_limit",
		Description: "Snap a requested FPS to the screen's frame-limit menu and store it as the screen's selection.",
	}, s.handleSelectFrameLimit)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_keyboard",
		Description: "Show or hide the on-screen keyboard.",
	}, s.handleToggleKeyboard)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "refresh_screens",
		Description: "Re-enumerate screens after a monitor was attached, removed or reconfigured.",
	}, s.handleRefresh)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "daemon_status",
		Description: "Report whether the screenmode daemon is running and which display provider it uses.",
	}, s.handleStatus)
}
