// Package settings keeps the live set of screens, their frame-limit menus and
// the user's frame-limit selections.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/1broseidon/screenmode/internal/display"
	"github.com/1broseidon/screenmode/internal/logging"
	"github.com/1broseidon/screenmode/internal/platform"
)

var (
	ErrUnknownScreen     = errors.New("unknown screen")
	ErrInvalidFrameLimit = errors.New("frame limit must be >= 0")
	ErrNotEnumerated     = errors.New("screens have not been enumerated")
)

// PrimaryScreen selects the primary screen wherever a screen id is accepted.
const PrimaryScreen = "primary"

// Options configures a Service.
type Options struct {
	// Cache is shared by every screen; nil creates one.
	Cache *display.FrameLimitCache
	// Store persists selections; nil keeps them in memory.
	Store  *SelectionStore
	Logger *slog.Logger
	// NativeRotations maps an output handle or friendly name to its native
	// rotation in degrees.
	NativeRotations map[string]int
}

type entry struct {
	screen   *display.Screen
	rotation display.Rotation
}

// Service enumerates screens through a platform provider and answers
// frame-limit queries against them.
type Service struct {
	provider platform.Provider
	cache    *display.FrameLimitCache
	store    *SelectionStore
	logger   *slog.Logger

	refreshMu sync.Mutex

	mu          sync.RWMutex
	native      map[string]int
	entries     []*entry
	refreshedAt time.Time
}

// RefreshResult describes what changed during a Refresh.
type RefreshResult struct {
	Screens int      `json:"screens"`
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// Changed reports whether the set of screens differs from the previous one.
func (r RefreshResult) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0
}

func NewService(provider platform.Provider, opts Options) *Service {
	cache := opts.Cache
	if cache == nil {
		cache = display.NewFrameLimitCache()
	}
	store := opts.Store
	if store == nil {
		store, _ = NewSelectionStore("")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		provider: provider,
		cache:    cache,
		store:    store,
		logger:   logger,
		native:   copyRotations(opts.NativeRotations),
	}
}

// Cache returns the frame-limit cache shared by all screens.
func (s *Service) Cache() *display.FrameLimitCache {
	return s.cache
}

// ProviderName identifies the backing platform provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// RefreshedAt returns the time of the last successful Refresh.
func (s *Service) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}

// Refresh re-enumerates screens. Screens that disappeared are discarded;
// screens that fail to resolve are skipped with a warning.
func (s *Service) Refresh(ctx context.Context) (RefreshResult, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	handles, err := s.provider.Screens(ctx)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("failed to enumerate screens: %w", err)
	}

	s.mu.RLock()
	native := s.native
	previous := make(map[string]struct{}, len(s.entries))
	for _, e := range s.entries {
		previous[e.screen.DevicePath] = struct{}{}
	}
	s.mu.RUnlock()

	entries := make([]*entry, 0, len(handles))
	current := make(map[string]struct{}, len(handles))
	var result RefreshResult
	for _, h := range handles {
		e, err := s.buildEntry(ctx, h, native)
		if err != nil {
			s.logger.Warn("skipping screen", "handle", string(h), "error", err)
			continue
		}
		entries = append(entries, e)
		current[e.screen.DevicePath] = struct{}{}
		if _, ok := previous[e.screen.DevicePath]; !ok {
			result.Added = append(result.Added, e.screen.DevicePath)
		}
	}
	for path := range previous {
		if _, ok := current[path]; !ok {
			result.Removed = append(result.Removed, path)
		}
	}
	result.Screens = len(entries)

	s.mu.Lock()
	s.entries = entries
	s.refreshedAt = time.Now()
	s.mu.Unlock()

	if result.Changed() {
		s.logger.Info("screens changed", "screens", result.Screens, "added", result.Added, "removed", result.Removed)
	} else {
		s.logger.Debug("screens refreshed", "screens", result.Screens)
	}
	return result, nil
}

func (s *Service) buildEntry(ctx context.Context, h display.Handle, native map[string]int) (*entry, error) {
	screen, err := display.NewScreen(ctx, s.provider, h, s.cache)
	if err != nil {
		return nil, err
	}

	modes, err := s.provider.Modes(ctx, h)
	if err != nil {
		s.logger.Warn("failed to list modes", "screen", screen.FriendlyName, "error", err)
	}
	for _, m := range modes {
		r := display.NewResolution(m.Width, m.Height, m.BitsPerPel)
		if m.Frequency > 0 {
			r.AddFrequency(m.Frequency)
		}
		screen.AddResolution(r)
	}
	screen.SortResolutions()

	requested, err := s.provider.Rotation(ctx, h)
	if err != nil {
		s.logger.Warn("failed to read rotation", "screen", screen.FriendlyName, "error", err)
		requested = display.Rotation0
	}

	return &entry{
		screen:   screen,
		rotation: display.NewRotation(requested, s.nativeBase(screen, native)),
	}, nil
}

func (s *Service) nativeBase(screen *display.Screen, native map[string]int) display.RotationValue {
	deg, ok := native[string(screen.Handle)]
	if !ok {
		deg, ok = native[screen.FriendlyName]
	}
	if !ok {
		return display.RotationUnset
	}
	v, err := display.RotationFromDegrees(deg)
	if err != nil {
		s.logger.Warn("ignoring native rotation", "screen", screen.FriendlyName, "degrees", deg, "error", err)
		return display.RotationUnset
	}
	return v
}

// SetNativeRotations replaces the native rotation table and recomputes the
// rotation of every known screen.
func (s *Service) SetNativeRotations(rotations map[string]int) {
	native := copyRotations(rotations)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.native = native
	for _, e := range s.entries {
		e.rotation = display.NewRotation(e.rotation.Unnormalized, s.nativeBase(e.screen, native))
	}
}

// Screens returns a snapshot of every known screen.
func (s *Service) Screens() []ScreenInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ScreenInfo, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, s.info(e))
	}
	return out
}

// Screen returns the screen matching id. See find for accepted selectors.
func (s *Service) Screen(id string) (ScreenInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := s.find(id)
	if err != nil {
		return ScreenInfo{}, err
	}
	return s.info(e), nil
}

// FrameLimits returns the frame-limit menu of the screen matching id.
func (s *Service) FrameLimits(id string) ([]display.FrameLimit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return e.screen.FrameLimits(), nil
}

// Closest returns the menu entry nearest to fps for the screen matching id.
func (s *Service) Closest(id string, fps int) (display.FrameLimit, error) {
	if fps < 0 {
		return display.FrameLimit{}, fmt.Errorf("%w: %d", ErrInvalidFrameLimit, fps)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := s.find(id)
	if err != nil {
		return display.FrameLimit{}, err
	}
	return e.screen.Closest(fps), nil
}

// Select snaps fps to the screen's menu and records the result.
func (s *Service) Select(id string, fps int) (display.FrameLimit, error) {
	if fps < 0 {
		return display.FrameLimit{}, fmt.Errorf("%w: %d", ErrInvalidFrameLimit, fps)
	}
	s.mu.RLock()
	e, err := s.find(id)
	s.mu.RUnlock()
	if err != nil {
		return display.FrameLimit{}, err
	}

	limit := e.screen.Closest(fps)
	if err := s.store.Set(e.screen.DevicePath, limit.Limit); err != nil {
		return display.FrameLimit{}, err
	}
	s.logger.Info("frame limit selected", "screen", e.screen.FriendlyName, "requested", fps, "limit", limit.Limit)
	return limit, nil
}

// Selection returns the recorded frame limit for the screen matching id,
// snapped to the screen's current menu.
func (s *Service) Selection(id string) (display.FrameLimit, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := s.find(id)
	if err != nil {
		return display.FrameLimit{}, false, err
	}
	fl, ok := s.selection(e)
	return fl, ok, nil
}

func (s *Service) selection(e *entry) (display.FrameLimit, bool) {
	fps, ok := s.store.Get(e.screen.DevicePath)
	if !ok {
		return display.FrameLimit{}, false
	}
	return e.screen.Closest(fps), true
}

// find resolves id against device path, handle and friendly name, in that
// order. "primary" selects the primary screen. Callers hold s.mu.
func (s *Service) find(id string) (*entry, error) {
	if s.entries == nil && s.refreshedAt.IsZero() {
		return nil, ErrNotEnumerated
	}
	id = strings.TrimSpace(id)
	if strings.EqualFold(id, PrimaryScreen) {
		for _, e := range s.entries {
			if e.screen.IsPrimary() {
				return e, nil
			}
		}
		if len(s.entries) > 0 {
			return s.entries[0], nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownScreen, id)
	}
	for _, e := range s.entries {
		if e.screen.DevicePath == id {
			return e, nil
		}
	}
	for _, e := range s.entries {
		if string(e.screen.Handle) == id {
			return e, nil
		}
	}
	for _, e := range s.entries {
		if strings.EqualFold(e.screen.FriendlyName, id) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownScreen, id)
}

func copyRotations(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
