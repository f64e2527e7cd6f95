package settings

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/1broseidon/screenmode/internal/display"
)

type fakeScreen struct {
	mode     display.DeviceMode
	name     string
	primary  bool
	modes    []display.DeviceMode
	rotation display.RotationValue
}

type fakeProvider struct {
	mu      sync.Mutex
	order   []display.Handle
	screens map[display.Handle]fakeScreen
	calls   int
	err     error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{screens: make(map[display.Handle]fakeScreen)}
}

func (p *fakeProvider) set(h display.Handle, s fakeScreen) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.screens[h]; !ok {
		p.order = append(p.order, h)
	}
	p.screens[h] = s
}

func (p *fakeProvider) remove(h display.Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.screens, h)
	for i, o := range p.order {
		if o == h {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

func (p *fakeProvider) get(h display.Handle) (fakeScreen, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.screens[h]
	return s, ok
}

func (p *fakeProvider) Name() string { return "fake" }
func (p *fakeProvider) Close()       {}

func (p *fakeProvider) Screens(context.Context) ([]display.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return append([]display.Handle(nil), p.order...), nil
}

func (p *fakeProvider) DeviceMode(_ context.Context, h display.Handle) (display.DeviceMode, error) {
	s, ok := p.get(h)
	if !ok {
		return display.DeviceMode{}, errors.New("gone")
	}
	return s.mode, nil
}

func (p *fakeProvider) FriendlyName(_ context.Context, h display.Handle) string {
	if s, ok := p.get(h); ok && s.name != "" {
		return s.name
	}
	return string(h)
}

func (p *fakeProvider) DevicePath(_ context.Context, h display.Handle) string {
	return "fake/" + string(h)
}

func (p *fakeProvider) IsPrimary(h display.Handle) bool {
	s, ok := p.get(h)
	return ok && s.primary
}

func (p *fakeProvider) Modes(_ context.Context, h display.Handle) ([]display.DeviceMode, error) {
	s, ok := p.get(h)
	if !ok {
		return nil, errors.New("gone")
	}
	return s.modes, nil
}

func (p *fakeProvider) Rotation(_ context.Context, h display.Handle) (display.RotationValue, error) {
	s, ok := p.get(h)
	if !ok {
		return 0, errors.New("gone")
	}
	return s.rotation, nil
}

func mode(w, h, hz int) display.DeviceMode {
	return display.DeviceMode{Width: w, Height: h, BitsPerPel: 24, Frequency: hz}
}

func twoScreenProvider() *fakeProvider {
	p := newFakeProvider()
	p.set("DP-1", fakeScreen{
		mode:    mode(2560, 1440, 144),
		name:    "DELL S2721DGF",
		primary: true,
		modes: []display.DeviceMode{
			mode(1920, 1080, 60),
			mode(2560, 1440, 144),
			mode(2560, 1440, 60),
			mode(1920, 1080, 144),
		},
	})
	p.set("HDMI-1", fakeScreen{
		mode:     mode(1080, 1920, 60),
		name:     "LG HDR 4K",
		modes:    []display.DeviceMode{mode(1920, 1080, 60), mode(1920, 1080, 50)},
		rotation: display.Rotation90,
	})
	return p
}

func TestService_QueriesBeforeRefresh(t *testing.T) {
	svc := NewService(newFakeProvider(), Options{})
	if _, err := svc.FrameLimits("DP-1"); !errors.Is(err, ErrNotEnumerated) {
		t.Fatalf("expected ErrNotEnumerated, got %v", err)
	}
}

func TestService_RefreshBuildsScreens(t *testing.T) {
	svc := NewService(twoScreenProvider(), Options{})

	res, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if res.Screens != 2 || len(res.Added) != 2 || len(res.Removed) != 0 {
		t.Fatalf("unexpected refresh result %+v", res)
	}

	screens := svc.Screens()
	if len(screens) != 2 {
		t.Fatalf("expected 2 screens, got %d", len(screens))
	}
	dp := screens[0]
	if dp.Name != "DELL S2721DGF" || !dp.Primary || dp.DevicePath != "fake/DP-1" {
		t.Fatalf("unexpected DP-1 identity %+v", dp)
	}
	if len(dp.Resolutions) != 2 {
		t.Fatalf("expected 2 merged resolutions, got %+v", dp.Resolutions)
	}
	if dp.Resolutions[0].Width != 2560 || !dp.Resolutions[0].Current {
		t.Fatalf("expected 2560x1440 first and current, got %+v", dp.Resolutions[0])
	}
	if got := dp.Resolutions[0].Frequencies; len(got) != 2 || got[0] != 144 || got[1] != 60 {
		t.Fatalf("expected frequencies [144 60], got %v", got)
	}
	if len(dp.FrameLimits) == 0 || dp.FrameLimits[1].Limit != 144 {
		t.Fatalf("expected 144 Hz menu, got %v", dp.FrameLimits)
	}

	hdmi := screens[1]
	if len(hdmi.Resolutions) != 1 || !hdmi.Resolutions[0].Current {
		t.Fatalf("expected swapped match to mark current resolution, got %+v", hdmi.Resolutions)
	}
}

func TestService_ScreenReportsLiveFrequency(t *testing.T) {
	p := newFakeProvider()
	p.set("eDP-1", fakeScreen{mode: mode(1920, 1080, 59), name: "Panel", primary: true})
	svc := NewService(p, Options{})
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	info, err := svc.Screen("eDP-1")
	if err != nil {
		t.Fatalf("screen: %v", err)
	}
	if info.Frequency != 59 {
		t.Fatalf("expected unrounded frequency 59, got %d", info.Frequency)
	}
	if len(info.FrameLimits) < 2 || info.FrameLimits[1].Limit != 60 {
		t.Fatalf("expected menu derived from 60 Hz, got %v", info.FrameLimits)
	}
}

func TestService_RefreshDiscardsRemovedScreens(t *testing.T) {
	p := twoScreenProvider()
	svc := NewService(p, Options{})
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	p.remove("HDMI-1")
	res, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(res.Removed) != 1 || res.Removed[0] != "fake/HDMI-1" {
		t.Fatalf("expected HDMI-1 removed, got %+v", res)
	}
	if _, err := svc.Screen("HDMI-1"); !errors.Is(err, ErrUnknownScreen) {
		t.Fatalf("expected ErrUnknownScreen, got %v", err)
	}
	if svc.Cache().Len() != 2 {
		t.Fatalf("expected cached menus to outlive screens, got %d entries", svc.Cache().Len())
	}
}

func TestService_RefreshError(t *testing.T) {
	p := twoScreenProvider()
	p.err = errors.New("display server gone")
	svc := NewService(p, Options{})
	if _, err := svc.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
}

func TestService_ScreenSelectors(t *testing.T) {
	svc := NewService(twoScreenProvider(), Options{})
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	for _, id := range []string{"fake/HDMI-1", "HDMI-1", "lg hdr 4k"} {
		info, err := svc.Screen(id)
		if err != nil {
			t.Fatalf("Screen(%q): %v", id, err)
		}
		if info.Handle != "HDMI-1" {
			t.Fatalf("Screen(%q) resolved %q", id, info.Handle)
		}
	}

	info, err := svc.Screen(PrimaryScreen)
	if err != nil || info.Handle != "DP-1" {
		t.Fatalf("expected primary to resolve DP-1, got %q (%v)", info.Handle, err)
	}
}

func TestService_Closest(t *testing.T) {
	svc := NewService(twoScreenProvider(), Options{})
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	fl, err := svc.Closest("HDMI-1", 35)
	if err != nil {
		t.Fatalf("closest: %v", err)
	}
	if fl.Limit != 40 || fl.Index != 2 {
		t.Fatalf("expected (2, 40), got %+v", fl)
	}

	if _, err := svc.Closest("HDMI-1", -5); !errors.Is(err, ErrInvalidFrameLimit) {
		t.Fatalf("expected ErrInvalidFrameLimit, got %v", err)
	}
}

func TestService_SelectPersistsAcrossServices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "selections.yaml")
	store, err := NewSelectionStore(path)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	p := twoScreenProvider()
	svc := NewService(p, Options{Store: store})
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	fl, err := svc.Select("DP-1", 70)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if fl.Limit != 72 {
		t.Fatalf("expected 70 to snap to 72, got %+v", fl)
	}

	reloaded, err := NewSelectionStore(path)
	if err != nil {
		t.Fatalf("reload store: %v", err)
	}
	svc2 := NewService(p, Options{Store: reloaded})
	if _, err := svc2.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	sel, ok, err := svc2.Selection("fake/DP-1")
	if err != nil || !ok || sel.Limit != 72 {
		t.Fatalf("expected persisted 72, got %+v ok=%v err=%v", sel, ok, err)
	}

	// Switching to 60 Hz re-snaps the stored selection to the new menu.
	dp, _ := p.get("DP-1")
	dp.mode = mode(2560, 1440, 60)
	p.set("DP-1", dp)
	if _, err := svc2.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	info, err := svc2.Screen("DP-1")
	if err != nil {
		t.Fatalf("screen: %v", err)
	}
	if info.Selected == nil || info.Selected.Limit != 60 {
		t.Fatalf("expected selection re-snapped to 60, got %+v", info.Selected)
	}
}

func TestService_Rotation(t *testing.T) {
	svc := NewService(twoScreenProvider(), Options{
		NativeRotations: map[string]int{"DP-1": 270},
	})
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	dp, _ := svc.Screen("DP-1")
	if dp.Rotation != 270 || dp.Orientation != string(display.OrientationPortraitFlipped) {
		t.Fatalf("expected DP-1 at 270° portrait-flipped, got %d %s", dp.Rotation, dp.Orientation)
	}

	// No native base: the requested rotation is cancelled out.
	hdmi, _ := svc.Screen("HDMI-1")
	if hdmi.Rotation != 0 || hdmi.Orientation != string(display.OrientationLandscape) {
		t.Fatalf("expected HDMI-1 landscape, got %d %s", hdmi.Rotation, hdmi.Orientation)
	}

	svc.SetNativeRotations(map[string]int{"LG HDR 4K": 0})
	hdmi, _ = svc.Screen("HDMI-1")
	if hdmi.Rotation != 90 || hdmi.Orientation != string(display.OrientationPortrait) {
		t.Fatalf("expected HDMI-1 portrait after reload, got %d %s", hdmi.Rotation, hdmi.Orientation)
	}
	dp, _ = svc.Screen("DP-1")
	if dp.Rotation != 0 {
		t.Fatalf("expected DP-1 native base cleared, got %d", dp.Rotation)
	}
}

func TestSelectionStore_MissingAndDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selections.yaml")
	store, err := NewSelectionStore(path)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, ok := store.Get("fake/DP-1"); ok {
		t.Fatalf("expected empty store")
	}
	if err := store.Set("fake/DP-1", 30); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Delete("fake/DP-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	reloaded, err := NewSelectionStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, ok := reloaded.Get("fake/DP-1"); ok {
		t.Fatalf("expected deleted selection to stay deleted")
	}
}
