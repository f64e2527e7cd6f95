package settings

import (
	"github.com/1broseidon/screenmode/internal/display"
)

// ResolutionInfo is the serializable form of a display.Resolution.
type ResolutionInfo struct {
	Width       int   `json:"width"`
	Height      int   `json:"height"`
	BitsPerPel  int   `json:"bits_per_pel"`
	Frequencies []int `json:"frequencies"`
	Current     bool  `json:"current,omitempty"`
}

// ScreenInfo is the serializable snapshot of one screen, shared by the IPC,
// HTTP and MCP surfaces.
type ScreenInfo struct {
	Handle      string               `json:"handle"`
	Name        string               `json:"name"`
	DevicePath  string               `json:"device_path"`
	Primary     bool                 `json:"primary"`
	Mode        display.DeviceMode   `json:"mode"`
	Frequency   int                  `json:"frequency"`
	Rotation    int                  `json:"rotation"`
	Orientation string               `json:"orientation"`
	Resolutions []ResolutionInfo     `json:"resolutions,omitempty"`
	FrameLimits []display.FrameLimit `json:"frame_limits"`
	Selected    *display.FrameLimit  `json:"selected,omitempty"`
}

func (s *Service) info(e *entry) ScreenInfo {
	screen := e.screen
	info := ScreenInfo{
		Handle:      string(screen.Handle),
		Name:        screen.FriendlyName,
		DevicePath:  screen.DevicePath,
		Primary:     screen.IsPrimary(),
		Mode:        screen.Mode,
		Frequency:   screen.CurrentFrequency(),
		FrameLimits: screen.FrameLimits(),
	}

	if deg, err := e.rotation.Degrees(); err == nil {
		info.Rotation = deg
	}
	if o, err := e.rotation.Orientation(); err == nil {
		info.Orientation = string(o)
	}

	current, hasCurrent := screen.Resolution()
	for _, r := range screen.Resolutions() {
		info.Resolutions = append(info.Resolutions, ResolutionInfo{
			Width:       r.Width,
			Height:      r.Height,
			BitsPerPel:  r.BitsPerPel,
			Frequencies: r.Frequencies(),
			Current:     hasCurrent && r.DimensionsEqual(current),
		})
	}

	if fl, ok := s.selection(e); ok {
		info.Selected = &fl
	}
	return info
}
