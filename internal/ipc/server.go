package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/screenmode/internal/config"
	"github.com/1broseidon/screenmode/internal/display"
	"github.com/1broseidon/screenmode/internal/keyboard"
	"github.com/1broseidon/screenmode/internal/runtimepath"
	"github.com/1broseidon/screenmode/internal/settings"
	"github.com/google/uuid"
)

// requestTimeout bounds commands that reach the display server.
const requestTimeout = 10 * time.Second

// ScreenService is the part of settings.Service the server exposes.
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

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	cfg          *config.Config
	cfgMu        sync.RWMutex
	screens      ScreenService
	keyboard     KeyboardToggler
	sessionID    string
	startTime    time.Time
	reloadChan   chan struct{}
	loadConfig   ConfigLoader
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// ConfigLoader reads the configuration the daemon was started with. RELOAD
// calls it again.
type ConfigLoader func() (*config.Config, error)

// NewServer creates a new IPC server on the standard socket path. A nil load
// reads the default config file.
func NewServer(cfg *config.Config, load ConfigLoader, screens ScreenService, kb KeyboardToggler, reloadChan chan struct{}) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return NewServerAt(socketPath, cfg, load, screens, kb, reloadChan), nil
}

// NewServerAt creates a new IPC server listening on socketPath.
func NewServerAt(socketPath string, cfg *config.Config, load ConfigLoader, screens ScreenService, kb KeyboardToggler, reloadChan chan struct{}) *Server {
	// Remove existing socket if present
	os.Remove(socketPath)

	if load == nil {
		load = config.Load
	}
	return &Server{
		socketPath: socketPath,
		cfg:        cfg,
		screens:    screens,
		keyboard:   kb,
		sessionID:  uuid.NewString(),
		startTime:  time.Now(),
		reloadChan: reloadChan,
		loadConfig: load,
	}
}

// SessionID identifies this daemon run.
func (s *Server) SessionID() string {
	return s.sessionID
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandRefresh:
		return s.handleRefresh()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetScreens:
		return s.handleGetScreens()
	case CommandGetScreen:
		return s.handleGetScreen(req.Payload)
	case CommandGetFrameLimits:
		return s.handleGetFrameLimits(req.Payload)
	case CommandGetClosest:
		return s.handleFrameLimit(req.Payload, false)
	case CommandSelectFrameLimit:
		return s.handleFrameLimit(req.Payload, true)
	case CommandToggleKeyboard:
		return s.handleToggleKeyboard()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// handleReload reloads the configuration
func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	newCfg, err := s.loadConfig()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	s.cfgMu.Lock()
	s.cfg = newCfg
	s.cfgMu.Unlock()

	// Notify the main daemon via channel (non-blocking)
	select {
	case s.reloadChan <- struct{}{}:
	default:
	}

	log.Println("IPC: Config reloaded successfully")

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleRefresh() *Response {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	result, err := s.screens.Refresh(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to refresh screens: %v", err))
	}
	resp, _ := NewOKResponse(result)
	return resp
}

// handleGetStatus returns current daemon status
func (s *Server) handleGetStatus() *Response {
	s.cfgMu.RLock()
	listen := s.cfg.HTTPListen
	s.cfgMu.RUnlock()

	status := StatusData{
		SessionID:     s.sessionID,
		Provider:      s.screens.ProviderName(),
		ScreenCount:   len(s.screens.Screens()),
		LastRefresh:   s.screens.RefreshedAt(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		HTTPListen:    listen,
		DaemonRunning: true,
	}

	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleGetScreens() *Response {
	resp, _ := NewOKResponse(ScreensData{Screens: s.screens.Screens()})
	return resp
}

func (s *Server) handleGetScreen(payload json.RawMessage) *Response {
	var req ScreenPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid screen payload: %v", err))
	}
	info, err := s.screens.Screen(req.Screen)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(info)
	return resp
}

func (s *Server) handleGetFrameLimits(payload json.RawMessage) *Response {
	var req ScreenPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid screen payload: %v", err))
	}
	info, err := s.screens.Screen(req.Screen)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	limits, err := s.screens.FrameLimits(req.Screen)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	resp, _ := NewOKResponse(FrameLimitsData{
		Screen:      info.DevicePath,
		Frequency:   info.Frequency,
		FrameLimits: limits,
	})
	return resp
}

func (s *Server) handleFrameLimit(payload json.RawMessage, sel bool) *Response {
	var req FrameLimitPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid frame limit payload: %v", err))
	}
	if req.Screen == "" {
		return NewErrorResponse("screen is required")
	}

	var (
		fl  display.FrameLimit
		err error
	)
	if sel {
		log.Printf("IPC: Select frame limit %d on %s", req.FPS, req.Screen)
		fl, err = s.screens.Select(req.Screen, req.FPS)
	} else {
		fl, err = s.screens.Closest(req.Screen, req.FPS)
	}
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	resp, _ := NewOKResponse(FrameLimitData{
		Screen:     req.Screen,
		Requested:  req.FPS,
		FrameLimit: fl,
	})
	return resp
}

func (s *Server) handleToggleKeyboard() *Response {
	if s.keyboard == nil {
		return NewErrorResponse("keyboard toggling is not available")
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	state, err := s.keyboard.Toggle(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to toggle keyboard: %v", err))
	}
	resp, _ := NewOKResponse(KeyboardData{State: string(state)})
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

// GetConfig returns the current config (thread-safe)
func (s *Server) GetConfig() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateConfig updates the config (thread-safe)
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.cfg = cfg
}
