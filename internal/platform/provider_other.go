//go:build !linux && !windows

package platform

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/1broseidon/screenmode/internal/display"
	"github.com/kbinani/screenshot"
)

// BoundsProvider enumerates screens from their desktop bounds only. The
// refresh rate is unknown and reported as 0.
type BoundsProvider struct {
	mu     sync.RWMutex
	bounds map[display.Handle]image.Rectangle
}

var _ Provider = (*BoundsProvider)(nil)

func newPlatformProvider(_ Options) (Provider, error) {
	return &BoundsProvider{bounds: make(map[display.Handle]image.Rectangle)}, nil
}

// Name implements Provider.
func (p *BoundsProvider) Name() string {
	return "bounds"
}

// Close implements Provider.
func (p *BoundsProvider) Close() {}

// Screens implements Provider.
func (p *BoundsProvider) Screens(ctx context.Context) ([]display.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := screenshot.NumActiveDisplays()
	snapshot := make(map[display.Handle]image.Rectangle, n)
	handles := make([]display.Handle, 0, n)
	for i := 0; i < n; i++ {
		h := display.Handle(fmt.Sprintf("display%d", i))
		snapshot[h] = screenshot.GetDisplayBounds(i)
		handles = append(handles, h)
	}

	p.mu.Lock()
	p.bounds = snapshot
	p.mu.Unlock()

	return handles, nil
}

func (p *BoundsProvider) rect(h display.Handle) (image.Rectangle, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.bounds[h]
	return r, ok
}

// DeviceMode implements display.ModeSource.
func (p *BoundsProvider) DeviceMode(_ context.Context, h display.Handle) (display.DeviceMode, error) {
	r, ok := p.rect(h)
	if !ok {
		return display.DeviceMode{}, fmt.Errorf("%w: %s", ErrScreenNotFound, h)
	}
	return display.DeviceMode{Width: r.Dx(), Height: r.Dy(), BitsPerPel: 32}, nil
}

// FriendlyName implements display.ModeSource.
func (p *BoundsProvider) FriendlyName(_ context.Context, h display.Handle) string {
	return string(h)
}

// DevicePath implements display.ModeSource.
func (p *BoundsProvider) DevicePath(_ context.Context, h display.Handle) string {
	return "bounds/" + string(h)
}

// IsPrimary implements display.ModeSource. The display containing the
// origin is primary.
func (p *BoundsProvider) IsPrimary(h display.Handle) bool {
	r, ok := p.rect(h)
	return ok && image.Pt(0, 0).In(r)
}

// Modes implements Provider. Only the current mode is known.
func (p *BoundsProvider) Modes(ctx context.Context, h display.Handle) ([]display.DeviceMode, error) {
	mode, err := p.DeviceMode(ctx, h)
	if err != nil {
		return nil, err
	}
	return []display.DeviceMode{mode}, nil
}

// Rotation implements Provider.
func (p *BoundsProvider) Rotation(_ context.Context, h display.Handle) (display.RotationValue, error) {
	if _, ok := p.rect(h); !ok {
		return display.Rotation0, fmt.Errorf("%w: %s", ErrScreenNotFound, h)
	}
	return display.Rotation0, nil
}
