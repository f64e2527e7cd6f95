package ipc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/1broseidon/screenmode/internal/display"
	"github.com/1broseidon/screenmode/internal/settings"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload           CommandType = "RELOAD"
	CommandRefresh          CommandType = "REFRESH"
	CommandGetStatus        CommandType = "GET_STATUS"
	CommandGetScreens       CommandType = "GET_SCREENS"
	CommandGetScreen        CommandType = "GET_SCREEN"
	CommandGetFrameLimits   CommandType = "GET_FRAME_LIMITS"
	CommandGetClosest       CommandType = "GET_CLOSEST"
	CommandSelectFrameLimit CommandType = "SELECT_FRAME_LIMIT"
	CommandToggleKeyboard   CommandType = "TOGGLE_KEYBOARD"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	SessionID     string    `json:"session_id"`
	Provider      string    `json:"provider"`
	ScreenCount   int       `json:"screen_count"`
	LastRefresh   time.Time `json:"last_refresh"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	HTTPListen    string    `json:"http_listen,omitempty"`
	DaemonRunning bool      `json:"daemon_running"`
}

// ScreensData represents the data returned by GET_SCREENS
type ScreensData struct {
	Screens []settings.ScreenInfo `json:"screens"`
}

// ScreenPayload addresses a single screen by device path, handle, name or
// "primary".
type ScreenPayload struct {
	Screen string `json:"screen"`
}

// FrameLimitPayload is the payload for GET_CLOSEST and SELECT_FRAME_LIMIT.
type FrameLimitPayload struct {
	Screen string `json:"screen"`
	FPS    int    `json:"fps"`
}

// FrameLimitsData represents the data returned by GET_FRAME_LIMITS
type FrameLimitsData struct {
	Screen      string               `json:"screen"`
	Frequency   int                  `json:"frequency"`
	FrameLimits []display.FrameLimit `json:"frame_limits"`
}

// FrameLimitData represents the data returned by GET_CLOSEST and
// SELECT_FRAME_LIMIT
type FrameLimitData struct {
	Screen     string             `json:"screen"`
	Requested  int                `json:"requested"`
	FrameLimit display.FrameLimit `json:"frame_limit"`
}

// KeyboardData represents the data returned by TOGGLE_KEYBOARD
type KeyboardData struct {
	State string `json:"state"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
