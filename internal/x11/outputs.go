package x11

import (
	"fmt"
	"math"
	"strings"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xprop"
)

// Mode is a RandR mode with its refresh rate resolved to whole hertz.
type Mode struct {
	ID      randr.Mode
	Width   int
	Height  int
	Refresh int
}

// Output describes a connected RandR output driving an active CRTC.
type Output struct {
	ID   randr.Output
	Name string
	// MonitorName is the EDID display product name, empty when absent.
	MonitorName string
	Primary     bool

	// Width and Height are the CRTC size, i.e. after rotation.
	Width    int
	Height   int
	Refresh  int
	Depth    int
	Rotation int // quarter turns, 0..3

	Modes []Mode
}

// GetOutputs retrieves every connected output that drives an enabled CRTC.
func (c *Connection) GetOutputs() ([]Output, error) {
	conn := c.XUtil.Conn()
	if err := randr.Init(conn); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(conn, c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	modes := make(map[randr.Mode]Mode, len(resources.Modes))
	for _, info := range resources.Modes {
		modes[randr.Mode(info.Id)] = Mode{
			ID:      randr.Mode(info.Id),
			Width:   int(info.Width),
			Height:  int(info.Height),
			Refresh: refreshRate(info),
		}
	}

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(conn, c.Root).Reply(); err == nil {
		primary = reply.Output
	}

	depth := int(c.XUtil.Screen().RootDepth)

	var outputs []Output
	for _, id := range resources.Outputs {
		info, err := randr.GetOutputInfo(conn, id, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}

		crtc, err := randr.GetCrtcInfo(conn, info.Crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		// Skip disabled CRTCs
		if crtc.Width == 0 || crtc.Height == 0 || crtc.Mode == 0 {
			continue
		}

		out := Output{
			ID:       id,
			Name:     string(info.Name),
			Primary:  id == primary,
			Width:    int(crtc.Width),
			Height:   int(crtc.Height),
			Refresh:  modes[crtc.Mode].Refresh,
			Depth:    depth,
			Rotation: quarterTurns(crtc.Rotation),
		}
		for _, m := range info.Modes {
			if mode, ok := modes[m]; ok {
				out.Modes = append(out.Modes, mode)
			}
		}
		out.MonitorName = c.monitorName(id)

		outputs = append(outputs, out)
	}

	// Without an explicit primary the first active output stands in.
	if primary == 0 && len(outputs) > 0 {
		outputs[0].Primary = true
	}

	return outputs, nil
}

func (c *Connection) monitorName(output randr.Output) string {
	atom, err := xprop.Atm(c.XUtil, "EDID")
	if err != nil {
		return ""
	}
	reply, err := randr.GetOutputProperty(c.XUtil.Conn(), output, atom,
		xproto.GetPropertyTypeAny, 0, 128, false, false).Reply()
	if err != nil {
		return ""
	}
	return edidMonitorName(reply.Data)
}

// refreshRate computes the vertical refresh of a mode in whole hertz.
func refreshRate(info randr.ModeInfo) int {
	if info.Htotal == 0 || info.Vtotal == 0 {
		return 0
	}
	vtotal := float64(info.Vtotal)
	if info.ModeFlags&randr.ModeFlagDoubleScan != 0 {
		vtotal *= 2
	}
	if info.ModeFlags&randr.ModeFlagInterlace != 0 {
		vtotal /= 2
	}
	return int(math.Round(float64(info.DotClock) / (float64(info.Htotal) * vtotal)))
}

func quarterTurns(rotation uint16) int {
	switch {
	case rotation&randr.RotationRotate90 != 0:
		return 1
	case rotation&randr.RotationRotate180 != 0:
		return 2
	case rotation&randr.RotationRotate270 != 0:
		return 3
	default:
		return 0
	}
}

// edidMonitorName extracts the display product name descriptor (tag 0xFC)
// from a base EDID block.
func edidMonitorName(edid []byte) string {
	if len(edid) < 128 {
		return ""
	}
	for offset := 54; offset+18 <= 126; offset += 18 {
		d := edid[offset : offset+18]
		if d[0] != 0 || d[1] != 0 || d[3] != 0xFC {
			continue
		}
		name := string(d[5:18])
		if i := strings.IndexByte(name, '\n'); i >= 0 {
			name = name[:i]
		}
		return strings.TrimSpace(name)
	}
	return ""
}
