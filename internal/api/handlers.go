package api

import (
	"context"
	"errors"
	"strconv"

	"github.com/1broseidon/screenmode/internal/settings"
	"github.com/gofiber/fiber/v2"
	"github.com/shirou/gopsutil/v3/host"
)

// HostInfo is the subset of host details reported by /api/health.
type HostInfo struct {
	Hostname      string `json:"hostname"`
	OS            string `json:"os"`
	Platform      string `json:"platform"`
	KernelVersion string `json:"kernel_version"`
	UptimeSeconds uint64 `json:"uptime_seconds"`
}

func hostInfo(ctx context.Context) (*HostInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return &HostInfo{
		Hostname:      info.Hostname,
		OS:            info.OS,
		Platform:      info.Platform,
		KernelVersion: info.KernelVersion,
		UptimeSeconds: info.Uptime,
	}, nil
}

type selectRequest struct {
	FPS *int `json:"fps"`
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, settings.ErrUnknownScreen):
		return fiber.StatusNotFound
	case errors.Is(err, settings.ErrInvalidFrameLimit):
		return fiber.StatusBadRequest
	case errors.Is(err, settings.ErrNotEnumerated):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func sendError(c *fiber.Ctx, err error) error {
	return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) getScreens(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"screens": s.screens.Screens()})
}

func (s *Server) getScreen(c *fiber.Ctx) error {
	info, err := s.screens.Screen(c.Params("id"))
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(info)
}

func (s *Server) getFrameLimits(c *fiber.Ctx) error {
	id := c.Params("id")
	info, err := s.screens.Screen(id)
	if err != nil {
		return sendError(c, err)
	}
	limits, err := s.screens.FrameLimits(id)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(fiber.Map{
		"screen":       info.DevicePath,
		"frequency":    info.Frequency,
		"frame_limits": limits,
	})
}

func (s *Server) getClosest(c *fiber.Ctx) error {
	fps, err := strconv.Atoi(c.Query("fps"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "fps query parameter must be an integer"})
	}
	fl, err := s.screens.Closest(c.Params("id"), fps)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(fiber.Map{
		"requested":   fps,
		"frame_limit": fl,
	})
}

func (s *Server) selectFrameLimit(c *fiber.Ctx) error {
	var req selectRequest
	if err := c.BodyParser(&req); err != nil || req.FPS == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "body must be {\"fps\": <int>}"})
	}
	fl, err := s.screens.Select(c.Params("id"), *req.FPS)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(fiber.Map{
		"requested":   *req.FPS,
		"frame_limit": fl,
	})
}

func (s *Server) refresh(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	result, err := s.screens.Refresh(ctx)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(result)
}

func (s *Server) toggleKeyboard(c *fiber.Ctx) error {
	if s.keyboard == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "keyboard toggling is not available"})
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	state, err := s.keyboard.Toggle(ctx)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(fiber.Map{"state": string(state)})
}
