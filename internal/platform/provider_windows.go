//go:build windows

package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/1broseidon/screenmode/internal/display"
	"github.com/StackExchange/wmi"
)

// WindowsProvider enumerates screens through WMI video controllers.
type WindowsProvider struct {
	mu          sync.RWMutex
	controllers map[display.Handle]Win32_VideoController
	names       map[display.Handle]string
	primary     display.Handle
}

var _ Provider = (*WindowsProvider)(nil)

func newPlatformProvider(_ Options) (Provider, error) {
	return &WindowsProvider{controllers: make(map[display.Handle]Win32_VideoController)}, nil
}

// Win32_VideoController represents the WMI video controller class.
type Win32_VideoController struct {
	DeviceID                    string
	Name                        string
	PNPDeviceID                 string
	CurrentHorizontalResolution uint32
	CurrentVerticalResolution   uint32
	CurrentBitsPerPixel         uint32
	CurrentRefreshRate          uint32
}

// Win32_DesktopMonitor represents the WMI monitor class.
type Win32_DesktopMonitor struct {
	Name        string
	ScreenWidth uint32
}

// CIM_VideoControllerResolution represents one advertised video mode.
type CIM_VideoControllerResolution struct {
	SettingID            string
	HorizontalResolution uint32
	VerticalResolution   uint32
	RefreshRate          uint32
	NumberOfColors       uint64
}

// Name implements Provider.
func (p *WindowsProvider) Name() string {
	return "wmi"
}

// Close implements Provider.
func (p *WindowsProvider) Close() {}

// Screens implements Provider.
func (p *WindowsProvider) Screens(ctx context.Context) ([]display.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var controllers []Win32_VideoController
	err := wmi.Query("SELECT DeviceID, Name, PNPDeviceID, CurrentHorizontalResolution, CurrentVerticalResolution, CurrentBitsPerPixel, CurrentRefreshRate FROM Win32_VideoController", &controllers)
	if err != nil {
		return nil, fmt.Errorf("failed to query WMI: %w", err)
	}

	snapshot := make(map[display.Handle]Win32_VideoController, len(controllers))
	var handles []display.Handle
	var controllerNames []string
	for _, c := range controllers {
		// Controllers without an attached desktop report no resolution.
		if c.DeviceID == "" || c.CurrentHorizontalResolution == 0 {
			continue
		}
		h := display.Handle(c.DeviceID)
		snapshot[h] = c
		handles = append(handles, h)
		controllerNames = append(controllerNames, c.Name)
	}

	names := make(map[display.Handle]string, len(handles))
	for i, name := range friendlyNames(controllerNames, activeMonitorNames()) {
		names[handles[i]] = name
	}

	p.mu.Lock()
	p.controllers = snapshot
	p.names = names
	p.primary = ""
	if len(handles) > 0 {
		p.primary = handles[0]
	}
	p.mu.Unlock()

	return handles, nil
}

// activeMonitorNames lists monitors attached to a desktop. Lookup failures
// leave the controller names in place.
func activeMonitorNames() []string {
	var monitors []Win32_DesktopMonitor
	if err := wmi.Query("SELECT Name, ScreenWidth FROM Win32_DesktopMonitor", &monitors); err != nil {
		return nil
	}
	var names []string
	for _, m := range monitors {
		if m.ScreenWidth > 0 {
			names = append(names, m.Name)
		}
	}
	return names
}

func (p *WindowsProvider) controller(h display.Handle) (Win32_VideoController, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.controllers[h]
	return c, ok
}

// DeviceMode implements display.ModeSource.
func (p *WindowsProvider) DeviceMode(_ context.Context, h display.Handle) (display.DeviceMode, error) {
	c, ok := p.controller(h)
	if !ok {
		return display.DeviceMode{}, fmt.Errorf("%w: %s", ErrScreenNotFound, h)
	}
	return display.DeviceMode{
		Width:      int(c.CurrentHorizontalResolution),
		Height:     int(c.CurrentVerticalResolution),
		BitsPerPel: int(c.CurrentBitsPerPixel),
		Frequency:  int(c.CurrentRefreshRate),
	}, nil
}

// FriendlyName implements display.ModeSource.
func (p *WindowsProvider) FriendlyName(_ context.Context, h display.Handle) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if name := p.names[h]; name != "" {
		return name
	}
	return string(h)
}

// DevicePath implements display.ModeSource.
func (p *WindowsProvider) DevicePath(_ context.Context, h display.Handle) string {
	if c, ok := p.controller(h); ok && c.PNPDeviceID != "" {
		return c.PNPDeviceID
	}
	return string(h)
}

// IsPrimary implements display.ModeSource. WMI does not expose the primary
// flag, so the first enumerated controller is treated as primary.
func (p *WindowsProvider) IsPrimary(h display.Handle) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return h != "" && h == p.primary
}

// Modes implements Provider.
func (p *WindowsProvider) Modes(ctx context.Context, h display.Handle) ([]display.DeviceMode, error) {
	if _, ok := p.controller(h); !ok {
		return nil, fmt.Errorf("%w: %s", ErrScreenNotFound, h)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var resolutions []CIM_VideoControllerResolution
	err := wmi.Query(resolutionQuery(string(h)), &resolutions)
	if err != nil {
		return nil, fmt.Errorf("failed to query WMI: %w", err)
	}

	modes := make([]display.DeviceMode, 0, len(resolutions))
	for _, r := range resolutions {
		modes = append(modes, display.DeviceMode{
			Width:      int(r.HorizontalResolution),
			Height:     int(r.VerticalResolution),
			BitsPerPel: bitsForColors(r.NumberOfColors),
			Frequency:  int(r.RefreshRate),
		})
	}
	return modes, nil
}

// Rotation implements Provider. WMI has no orientation data.
func (p *WindowsProvider) Rotation(_ context.Context, h display.Handle) (display.RotationValue, error) {
	if _, ok := p.controller(h); !ok {
		return display.Rotation0, fmt.Errorf("%w: %s", ErrScreenNotFound, h)
	}
	return display.Rotation0, nil
}

func bitsForColors(colors uint64) int {
	bits := 0
	for colors > 1 {
		colors >>= 1
		bits++
	}
	return bits
}
