package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/screenmode/internal/runtimepath"
	"github.com/1broseidon/screenmode/internal/settings"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for the daemon listening on socketPath.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    15 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) call(cmd CommandType, payload any, out any) error {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// Refresh asks the daemon to re-enumerate screens.
func (c *Client) Refresh() (*settings.RefreshResult, error) {
	var result settings.RefreshResult
	if err := c.call(CommandRefresh, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetScreens retrieves every known screen.
func (c *Client) GetScreens() (*ScreensData, error) {
	var data ScreensData
	if err := c.call(CommandGetScreens, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetScreen retrieves a single screen.
func (c *Client) GetScreen(screen string) (*settings.ScreenInfo, error) {
	var info settings.ScreenInfo
	if err := c.call(CommandGetScreen, ScreenPayload{Screen: screen}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetFrameLimits retrieves the frame-limit menu of a screen.
func (c *Client) GetFrameLimits(screen string) (*FrameLimitsData, error) {
	var data FrameLimitsData
	if err := c.call(CommandGetFrameLimits, ScreenPayload{Screen: screen}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetClosest asks for the menu entry nearest to fps.
func (c *Client) GetClosest(screen string, fps int) (*FrameLimitData, error) {
	var data FrameLimitData
	if err := c.call(CommandGetClosest, FrameLimitPayload{Screen: screen, FPS: fps}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// SelectFrameLimit snaps fps to the screen's menu and records it.
func (c *Client) SelectFrameLimit(screen string, fps int) (*FrameLimitData, error) {
	var data FrameLimitData
	if err := c.call(CommandSelectFrameLimit, FrameLimitPayload{Screen: screen, FPS: fps}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ToggleKeyboard flips the on-screen keyboard.
func (c *Client) ToggleKeyboard() (*KeyboardData, error) {
	var data KeyboardData
	if err := c.call(CommandToggleKeyboard, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
