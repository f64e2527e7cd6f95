package hotkeys

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/1broseidon/screenmode/internal/keyboard"
	"github.com/1broseidon/screenmode/internal/logging"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

type noX11 struct{}

type nilX11 struct{}

func (nilX11) XUtil() *xgbutil.XUtil     { return nil }
func (nilX11) RootWindow() xproto.Window { return 0 }

func TestNewHandler_RequiresX11(t *testing.T) {
	if _, err := NewHandler(noX11{}, nil, nil); err == nil {
		t.Fatalf("expected error for provider without X11 access")
	}
	if _, err := NewHandler(nilX11{}, nil, nil); err == nil {
		t.Fatalf("expected error for provider without a live X11 connection")
	}
}

type fakeToggler struct {
	calls int
	state keyboard.State
	err   error
}

func (f *fakeToggler) Toggle(ctx context.Context) (keyboard.State, error) {
	f.calls++
	if _, ok := ctx.Deadline(); !ok {
		return "", errors.New("toggle called without a deadline")
	}
	return f.state, f.err
}

func TestHandlerToggle_LogsState(t *testing.T) {
	var buf bytes.Buffer
	kb := &fakeToggler{state: keyboard.StateShown}
	h := &Handler{toggler: kb, logger: logging.New(&buf, "debug")}

	h.toggle()

	if kb.calls != 1 {
		t.Fatalf("expected one toggle, got %d", kb.calls)
	}
	if !strings.Contains(buf.String(), "keyboard hotkey triggered") {
		t.Fatalf("expected trigger log, got %q", buf.String())
	}
}

func TestHandlerToggle_LogsFailure(t *testing.T) {
	var buf bytes.Buffer
	kb := &fakeToggler{err: errors.New("no keyboard configured")}
	h := &Handler{toggler: kb, logger: logging.New(&buf, "info")}

	h.toggle()

	out := buf.String()
	if !strings.Contains(out, "keyboard toggle failed") || !strings.Contains(out, "no keyboard configured") {
		t.Fatalf("expected failure log, got %q", out)
	}
}

func TestIgnoreMasks(t *testing.T) {
	caps := uint16(xproto.ModMaskLock)
	num := uint16(xproto.ModMask2)
	scroll := uint16(xproto.ModMask5)

	got := ignoreMasks(caps, num, scroll)
	slices.Sort(got)
	want := []uint16{0, caps, num, caps | num, scroll, caps | scroll, num | scroll, caps | num | scroll}
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	// Missing or aliased lock keys add no extra combinations.
	got = ignoreMasks(caps, 0, caps)
	slices.Sort(got)
	if !slices.Equal(got, []uint16{0, caps}) {
		t.Fatalf("expected only none and caps, got %v", got)
	}
}
