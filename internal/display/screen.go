package display

import (
	"context"
	"fmt"
	"sync"
)

// Handle is an opaque, provider-specific screen identifier.
type Handle string

// DeviceMode is the OS's live description of a screen's active mode.
type DeviceMode struct {
	Width      int `json:"width" yaml:"width"`
	Height     int `json:"height" yaml:"height"`
	BitsPerPel int `json:"bits_per_pel" yaml:"bits_per_pel"`
	Frequency  int `json:"frequency" yaml:"frequency"`
}

// ModeSource is the subset of a display provider a Screen needs.
// FriendlyName and DevicePath never fail; implementations return a
// best-effort fallback string instead.
type ModeSource interface {
	DeviceMode(ctx context.Context, h Handle) (DeviceMode, error)
	FriendlyName(ctx context.Context, h Handle) string
	DevicePath(ctx context.Context, h Handle) string
	IsPrimary(h Handle) bool
}

// Screen is the per-display aggregate. It is created once per enumerated
// display and discarded when the display goes away.
type Screen struct {
	Handle       Handle
	Mode         DeviceMode
	FriendlyName string
	DevicePath   string

	source ModeSource
	cache  *FrameLimitCache

	mu          sync.RWMutex
	resolutions []Resolution
	dividers    []Divider
}

// NewScreen resolves the current device mode and identity strings for h.
// A nil cache gets a private one.
func NewScreen(ctx context.Context, source ModeSource, h Handle, cache *FrameLimitCache) (*Screen, error) {
	mode, err := source.DeviceMode(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("failed to read device mode for %s: %w", h, err)
	}
	if cache == nil {
		cache = NewFrameLimitCache()
	}

	return &Screen{
		Handle:       h,
		Mode:         mode,
		FriendlyName: source.FriendlyName(ctx, h),
		DevicePath:   source.DevicePath(ctx, h),
		source:       source,
		cache:        cache,
	}, nil
}

// IsPrimary reports whether the provider considers this the primary display.
func (s *Screen) IsPrimary() bool {
	if s.source == nil {
		return false
	}
	return s.source.IsPrimary(s.Handle)
}

func (s *Screen) String() string {
	return s.FriendlyName
}

// AddResolution appends a candidate resolution. When a resolution with the
// same dimensions exists its frequencies are merged instead.
func (s *Screen) AddResolution(r Resolution) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.resolutions {
		if s.resolutions[i].DimensionsEqual(r) {
			for _, f := range r.frequencies {
				s.resolutions[i].AddFrequency(f)
			}
			return
		}
	}
	r.frequencies = append([]int(nil), r.frequencies...)
	s.resolutions = append(s.resolutions, r)
}

// Resolutions returns a copy of the candidate resolution list.
func (s *Screen) Resolutions() []Resolution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Resolution, len(s.resolutions))
	copy(out, s.resolutions)
	return out
}

// SortResolutions puts the candidate list in natural order.
func (s *Screen) SortResolutions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	SortResolutions(s.resolutions)
}

// AddDivider appends a divider entry.
func (s *Screen) AddDivider(d Divider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dividers = append(s.dividers, d)
}

// Dividers returns a copy of the divider list.
func (s *Screen) Dividers() []Divider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Divider, len(s.dividers))
	copy(out, s.dividers)
	return out
}

// HasResolution reports whether a candidate with r's width and height exists.
func (s *Screen) HasResolution(r Resolution) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.resolutions {
		if c.DimensionsEqual(r) {
			return true
		}
	}
	return false
}

// Resolution returns the candidate matching the live device mode. Rotated
// panels may report the device mode and the enumerated list in different
// orientations, so a swapped match is tried second. ok is false when
// neither matches.
func (s *Screen) Resolution() (res Resolution, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.resolutions {
		if c.Width == s.Mode.Width && c.Height == s.Mode.Height {
			return c, true
		}
	}
	for _, c := range s.resolutions {
		if c.Width == s.Mode.Height && c.Height == s.Mode.Width {
			return c, true
		}
	}
	return Resolution{}, false
}

// CurrentFrequency returns the live refresh rate without rounding.
func (s *Screen) CurrentFrequency() int {
	return s.Mode.Frequency
}

// FrameLimits returns the frame-limit menu for the current refresh rate.
// The slice is shared with every other caller for the same rate and must
// not be modified.
func (s *Screen) FrameLimits() []FrameLimit {
	return s.cache.Get(s.Mode.Frequency)
}

// Closest returns the frame limit that best approximates fps, preferring
// the higher limit when two are equally close.
func (s *Screen) Closest(fps int) FrameLimit {
	limit, _ := Closest(s.FrameLimits(), fps)
	return limit
}
