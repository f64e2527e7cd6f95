package hotkeys

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/screenmode/internal/keyboard"
	"github.com/1broseidon/screenmode/internal/logging"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Toggler flips the on-screen keyboard.
type Toggler interface {
	Toggle(ctx context.Context) (keyboard.State, error)
}

// x11Accessor is an optional interface for providers that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// toggleTimeout bounds a keyboard toggle fired from the X event loop.
const toggleTimeout = 5 * time.Second

// Handler manages global keyboard shortcuts
type Handler struct {
	xu      *xgbutil.XUtil
	root    xproto.Window
	toggler Toggler
	logger  *slog.Logger

	mu    sync.Mutex
	bound string
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler. provider must expose X11
// internals; other providers have no global hotkeys.
func NewHandler(provider any, toggler Toggler, logger *slog.Logger) (*Handler, error) {
	accessor, ok := provider.(x11Accessor)
	if !ok || accessor.XUtil() == nil {
		return nil, fmt.Errorf("global hotkeys require an X11 display")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	xu := accessor.XUtil()

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:      xu,
		root:    accessor.RootWindow(),
		toggler: toggler,
		logger:  logger,
	}, nil
}

// Register binds the keyboard toggle hotkey, replacing any earlier binding.
func (h *Handler) Register(keySequence string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.bound == keySequence {
		return nil
	}
	if h.bound != "" {
		keybind.Detach(h.xu, h.root)
		h.bound = ""
	}

	if err := h.RegisterFunc(keySequence, h.toggle); err != nil {
		return fmt.Errorf("failed to register keyboard hotkey %q: %w", keySequence, err)
	}
	h.bound = keySequence
	return nil
}

// Bound returns the currently registered key sequence.
func (h *Handler) Bound() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bound
}

func (h *Handler) toggle() {
	ctx, cancel := context.WithTimeout(context.Background(), toggleTimeout)
	defer cancel()

	state, err := h.toggler.Toggle(ctx)
	if err != nil {
		h.logger.Warn("keyboard toggle failed", "error", err)
		return
	}
	h.logger.Debug("keyboard hotkey triggered", "state", string(state))
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)
	xevent.IgnoreMods = ignoreMasks(caps, modMaskForKeysym(xu, "Num_Lock"), modMaskForKeysym(xu, "Scroll_Lock"))
}

// ignoreMasks returns every combination of the lock modifiers, including
// none, so a hotkey fires whatever lock state is active.
func ignoreMasks(caps, numLock, scrollLock uint16) []uint16 {
	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}
	return ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
