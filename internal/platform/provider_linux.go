//go:build linux

package platform

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/1broseidon/screenmode/internal/display"
	"github.com/1broseidon/screenmode/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// LinuxProvider enumerates screens through XRandR on an X11 connection.
type LinuxProvider struct {
	conn *x11.Connection

	mu      sync.RWMutex
	outputs map[display.Handle]x11.Output
}

var _ Provider = (*LinuxProvider)(nil)

func newPlatformProvider(opts Options) (Provider, error) {
	conn, err := x11.NewConnection(opts.Display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewLinuxProvider(conn), nil
}

// NewLinuxProvider creates a provider from an existing X11 connection.
func NewLinuxProvider(conn *x11.Connection) *LinuxProvider {
	return &LinuxProvider{
		conn:    conn,
		outputs: make(map[display.Handle]x11.Output),
	}
}

// Name implements Provider.
func (p *LinuxProvider) Name() string {
	return "xrandr"
}

// Close closes the underlying X11 connection.
func (p *LinuxProvider) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (p *LinuxProvider) EventLoop() {
	if p != nil && p.conn != nil {
		p.conn.EventLoop()
	}
}

// Quit stops EventLoop.
func (p *LinuxProvider) Quit() {
	if p != nil && p.conn != nil {
		p.conn.Quit()
	}
}

// Connection returns the underlying X11 connection.
func (p *LinuxProvider) Connection() *x11.Connection {
	if p == nil {
		return nil
	}
	return p.conn
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (p *LinuxProvider) XUtil() *xgbutil.XUtil {
	if p == nil || p.conn == nil {
		return nil
	}
	return p.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (p *LinuxProvider) RootWindow() xproto.Window {
	if p == nil || p.conn == nil {
		return 0
	}
	return p.conn.Root
}

// Screens implements Provider.
func (p *LinuxProvider) Screens(ctx context.Context) ([]display.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	outputs, err := p.conn.GetOutputs()
	if err != nil {
		return nil, err
	}

	snapshot := make(map[display.Handle]x11.Output, len(outputs))
	handles := make([]display.Handle, 0, len(outputs))
	for _, o := range outputs {
		h := display.Handle(o.Name)
		snapshot[h] = o
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })

	p.mu.Lock()
	p.outputs = snapshot
	p.mu.Unlock()

	return handles, nil
}

func (p *LinuxProvider) output(h display.Handle) (x11.Output, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	o, ok := p.outputs[h]
	return o, ok
}

// DeviceMode implements display.ModeSource.
func (p *LinuxProvider) DeviceMode(_ context.Context, h display.Handle) (display.DeviceMode, error) {
	o, ok := p.output(h)
	if !ok {
		return display.DeviceMode{}, fmt.Errorf("%w: %s", ErrScreenNotFound, h)
	}
	return display.DeviceMode{
		Width:      o.Width,
		Height:     o.Height,
		BitsPerPel: o.Depth,
		Frequency:  o.Refresh,
	}, nil
}

// FriendlyName implements display.ModeSource. The EDID product name is
// preferred; the output name is the fallback.
func (p *LinuxProvider) FriendlyName(_ context.Context, h display.Handle) string {
	o, ok := p.output(h)
	if !ok {
		return string(h)
	}
	if name := strings.TrimSpace(o.MonitorName); name != "" {
		return name
	}
	return o.Name
}

// DevicePath implements display.ModeSource.
func (p *LinuxProvider) DevicePath(_ context.Context, h display.Handle) string {
	return "randr/" + string(h)
}

// IsPrimary implements display.ModeSource.
func (p *LinuxProvider) IsPrimary(h display.Handle) bool {
	o, ok := p.output(h)
	return ok && o.Primary
}

// Modes implements Provider.
func (p *LinuxProvider) Modes(_ context.Context, h display.Handle) ([]display.DeviceMode, error) {
	o, ok := p.output(h)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrScreenNotFound, h)
	}
	modes := make([]display.DeviceMode, 0, len(o.Modes))
	for _, m := range o.Modes {
		modes = append(modes, display.DeviceMode{
			Width:      m.Width,
			Height:     m.Height,
			BitsPerPel: o.Depth,
			Frequency:  m.Refresh,
		})
	}
	return modes, nil
}

// Rotation implements Provider.
func (p *LinuxProvider) Rotation(_ context.Context, h display.Handle) (display.RotationValue, error) {
	o, ok := p.output(h)
	if !ok {
		return display.Rotation0, fmt.Errorf("%w: %s", ErrScreenNotFound, h)
	}
	return display.ParseRotation(o.Rotation)
}
