package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/screenmode/internal/ipc"
	"github.com/1broseidon/screenmode/internal/settings"
)

func requireScreen(tool, screen string) (string, error) {
	screen = strings.TrimSpace(screen)
	if screen == "" {
		return "", fmt.Errorf("%s: screen is required", tool)
	}
	return screen, nil
}

func frameLimitOutput(data *ipc.FrameLimitData) FrameLimitOutput {
	return FrameLimitOutput{
		Screen:    data.Screen,
		Requested: data.Requested,
		Index:     data.FrameLimit.Index,
		Limit:     data.FrameLimit.Limit,
		Label:     data.FrameLimit.String(),
	}
}

func (s *Server) handleListScreens(_ context.Context, _ *mcpsdk.CallToolRequest, args ListScreensInput) (*mcpsdk.CallToolResult, ListScreensOutput, error) {
	data, err := s.daemon.GetScreens()
	if err != nil {
		return nil, ListScreensOutput{}, err
	}
	screens := data.Screens
	if screens == nil {
		screens = []settings.ScreenInfo{}
	}
	if !args.Verbose {
		for i := range screens {
			screens[i].Resolutions = nil
		}
	}
	s.logger.Debug("list_screens", "count", len(screens))
	return nil, ListScreensOutput{Screens: screens}, nil
}

func (s *Server) handleGetFrameLimits(_ context.Context, _ *mcpsdk.CallToolRequest, args ScreenInput) (*mcpsdk.CallToolResult, FrameLimitsOutput, error) {
	screen, err := requireScreen("get_frame_limits", args.Screen)
	if err != nil {
		return nil, FrameLimitsOutput{}, err
	}
	data, err := s.daemon.GetFrameLimits(screen)
	if err != nil {
		return nil, FrameLimitsOutput{}, err
	}
	return nil, FrameLimitsOutput{
		Screen:      data.Screen,
		Frequency:   data.Frequency,
		FrameLimits: data.FrameLimits,
	}, nil
}

func (s *Server) handleGetClosest(_ context.Context, _ *mcpsdk.CallToolRequest, args FrameLimitInput) (*mcpsdk.CallToolResult, FrameLimitOutput, error) {
	screen, err := requireScreen("get_closest_frame_limit", args.Screen)
	if err != nil {
		return nil, FrameLimitOutput{}, err
	}
	data, err := s.daemon.GetClosest(screen, args.FPS)
	if err != nil {
		return nil, FrameLimitOutput{}, err
	}
	return nil, frameLimitOutput(data), nil
}

func (s *Server) handleSelectFrameLimit(_ context.Context, _ *mcpsdk.CallToolRequest, args FrameLimitInput) (*mcpsdk.CallToolResult, FrameLimitOutput, error) {
	screen, err := requireScreen("select_frame_limit", args.Screen)
	if err != nil {
		return nil, FrameLimitOutput{}, err
	}
	if args.FPS < 0 {
		return nil, FrameLimitOutput{}, fmt.Errorf("select_frame_limit: fps must not be negative, got %d", args.FPS)
	}
	data, err := s.daemon.SelectFrameLimit(screen, args.FPS)
	if err != nil {
		s.logger.Warn("select_frame_limit failed", "screen", screen, "fps", args.FPS, "err", err)
		return nil, FrameLimitOutput{}, err
	}
	s.logger.Info("frame limit selected", "screen", data.Screen, "limit", data.FrameLimit.String())
	return nil, frameLimitOutput(data), nil
}

func (s *Server) handleToggleKeyboard(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ToggleKeyboardOutput, error) {
	data, err := s.daemon.ToggleKeyboard()
	if err != nil {
		return nil, ToggleKeyboardOutput{}, err
	}
	return nil, ToggleKeyboardOutput{State: data.State}, nil
}

func (s *Server) handleRefresh(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, RefreshOutput, error) {
	res, err := s.daemon.Refresh()
	if err != nil {
		return nil, RefreshOutput{}, err
	}
	return nil, RefreshOutput{Screens: res.Screens, Added: res.Added, Removed: res.Removed}, nil
}

func (s *Server) handleStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	st, err := s.daemon.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{
		SessionID:     st.SessionID,
		Provider:      st.Provider,
		ScreenCount:   st.ScreenCount,
		UptimeSeconds: st.UptimeSeconds,
		HTTPListen:    st.HTTPListen,
	}, nil
}
