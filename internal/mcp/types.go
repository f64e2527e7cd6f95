package mcp

import (
	"github.com/1broseidon/screenmode/internal/display"
	"github.com/1broseidon/screenmode/internal/settings"
)

// ListScreensInput is the input for the list_screens tool.
type ListScreensInput struct {
	Verbose bool `json:"verbose,omitempty" jsonschema:"When true, include the supported resolutions of every screen"`
}

// ListScreensOutput is the output for the list_screens tool.
type ListScreensOutput struct {
	Screens []settings.ScreenInfo `json:"screens"`
}

// ScreenInput addresses one screen.
type ScreenInput struct {
	Screen string `json:"screen" jsonschema:"required,Screen to query: device path, output name, monitor name or primary"`
}

// FrameLimitsOutput is the output for the get_frame_limits tool.
type FrameLimitsOutput struct {
	Screen      string               `json:"screen"`
	Frequency   int                  `json:"frequency"`
	FrameLimits []display.FrameLimit `json:"frame_limits"`
}

// FrameLimitInput is the input for get_closest_frame_limit and select_frame_limit.
type FrameLimitInput struct {
	Screen string `json:"screen" jsonschema:"required,Screen to query: device path, output name, monitor name or primary"`
	FPS    int    `json:"fps" jsonschema:"required,Requested frames per second; 0 disables the limit"`
}

// FrameLimitOutput is the output for get_closest_frame_limit and select_frame_limit.
type FrameLimitOutput struct {
	Screen    string `json:"screen"`
	Requested int    `json:"requested"`
	Index     int    `json:"index"`
	Limit     int    `json:"limit"`
	Label     string `json:"label"`
}

// EmptyInput is used by tools without arguments.
type EmptyInput struct{}

// ToggleKeyboardOutput is the output for the toggle_keyboard tool.
type ToggleKeyboardOutput struct {
	State string `json:"state"`
}

// RefreshOutput is the output for the refresh_screens tool.
type RefreshOutput struct {
	Screens int      `json:"screens"`
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// StatusOutput is the output for the daemon_status tool.
type StatusOutput struct {
	SessionID     string `json:"session_id"`
	Provider      string `json:"provider"`
	ScreenCount   int    `json:"screen_count"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	HTTPListen    string `json:"http_listen,omitempty"`
}
