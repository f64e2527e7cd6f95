package platform

import (
	"context"
	"errors"
	"runtime"

	"github.com/1broseidon/screenmode/internal/display"
)

// ErrScreenNotFound is returned for handles the provider no longer knows.
var ErrScreenNotFound = errors.New("screen not found")

// Options configures provider construction.
type Options struct {
	// Display is the X11 display name; empty uses $DISPLAY.
	Display string
}

// Provider abstracts OS display enumeration. DeviceMode, FriendlyName,
// DevicePath and IsPrimary describe the state captured by the most recent
// Screens call.
type Provider interface {
	display.ModeSource

	// Screens enumerates connected, active screens.
	Screens(ctx context.Context) ([]display.Handle, error)
	// Modes lists every mode the screen advertises.
	Modes(ctx context.Context, h display.Handle) ([]display.DeviceMode, error)
	// Rotation returns the OS-reported rotation of the screen.
	Rotation(ctx context.Context, h display.Handle) (display.RotationValue, error)
	// Name identifies the provider implementation.
	Name() string
	Close()
}

// NewProvider creates the display provider for the current platform.
func NewProvider(opts Options) (Provider, error) {
	return newPlatformProvider(opts)
}

// GOOS returns the operating system the binary was built for.
func GOOS() string {
	return runtime.GOOS
}
