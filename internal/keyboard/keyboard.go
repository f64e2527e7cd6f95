// Package keyboard shows and hides the on-screen keyboard.
package keyboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/1broseidon/screenmode/internal/logging"
	"github.com/BurntSushi/xgb/xproto"
)

// ErrNotConfigured is returned when neither a toggle command nor a keyboard
// command is set.
var ErrNotConfigured = errors.New("no keyboard command configured")

// State is the outcome of a Toggle.
type State string

const (
	StateToggled State = "toggled" // delegated to keyboard_toggle_command
	StateShown   State = "shown"
	StateHidden  State = "hidden"
	StateStarted State = "started"
	StateStopped State = "stopped"
)

// WindowController locates and shows or hides top-level windows.
type WindowController interface {
	FindWindow(match string) (xproto.Window, error)
	IsWindowHidden(win xproto.Window) bool
	ShowWindow(win xproto.Window) error
	HideWindow(win xproto.Window) error
}

// Options configures a Toggler.
type Options struct {
	Command       string
	ToggleCommand string
	WindowMatch   string
	// Windows is optional; without it Toggle starts and stops the process.
	Windows WindowController
	Logger  *slog.Logger
}

type process interface {
	Stop() error
	Done() <-chan struct{}
}

// Toggler flips the on-screen keyboard between visible and hidden.
type Toggler struct {
	mu   sync.Mutex
	opts Options
	proc process

	logger *slog.Logger
	run    func(ctx context.Context, command string) error
	start  func(command string) (process, error)
}

func New(opts Options) *Toggler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Toggler{
		opts:   opts,
		logger: logger,
		run:    runShell,
		start:  startProcess,
	}
}

// Update replaces the commands and window match, e.g. after a config reload.
// A running keyboard process is kept.
func (t *Toggler) Update(command, toggleCommand, windowMatch string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.opts.Command = command
	t.opts.ToggleCommand = toggleCommand
	t.opts.WindowMatch = windowMatch
}

// Toggle shows the keyboard if it is hidden or absent, and hides it
// otherwise.
func (t *Toggler) Toggle(ctx context.Context) (State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cmd := strings.TrimSpace(t.opts.ToggleCommand); cmd != "" {
		if err := t.run(ctx, cmd); err != nil {
			return "", fmt.Errorf("keyboard toggle command failed: %w", err)
		}
		return StateToggled, nil
	}

	if t.opts.Windows != nil && t.opts.WindowMatch != "" {
		if win, err := t.opts.Windows.FindWindow(t.opts.WindowMatch); err == nil {
			if t.opts.Windows.IsWindowHidden(win) {
				if err := t.opts.Windows.ShowWindow(win); err != nil {
					return "", fmt.Errorf("failed to show keyboard: %w", err)
				}
				t.logger.Debug("keyboard shown", "window", uint32(win))
				return StateShown, nil
			}
			if err := t.opts.Windows.HideWindow(win); err != nil {
				return "", fmt.Errorf("failed to hide keyboard: %w", err)
			}
			t.logger.Debug("keyboard hidden", "window", uint32(win))
			return StateHidden, nil
		}
	}

	if t.running() {
		if err := t.proc.Stop(); err != nil {
			return "", fmt.Errorf("failed to stop keyboard: %w", err)
		}
		t.proc = nil
		return StateStopped, nil
	}

	cmd := strings.TrimSpace(t.opts.Command)
	if cmd == "" {
		return "", ErrNotConfigured
	}
	proc, err := t.start(cmd)
	if err != nil {
		return "", fmt.Errorf("failed to start keyboard: %w", err)
	}
	t.proc = proc
	t.logger.Info("keyboard started", "command", cmd)
	return StateStarted, nil
}

// Close stops a keyboard process started by Toggle.
func (t *Toggler) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running() {
		_ = t.proc.Stop()
	}
	t.proc = nil
}

func (t *Toggler) running() bool {
	if t.proc == nil {
		return false
	}
	select {
	case <-t.proc.Done():
		t.proc = nil
		return false
	default:
		return true
	}
}

func runShell(ctx context.Context, command string) error {
	out, err := exec.CommandContext(ctx, "sh", "-c", command).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
}

// shellCommand runs command through sh like the toggle command. exec keeps
// the keyboard as the direct child so Stop reaches it.
func shellCommand(command string) *exec.Cmd {
	return exec.Command("sh", "-c", "exec "+command)
}

func startProcess(command string) (process, error) {
	cmd := shellCommand(command)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	p := &execProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

func (p *execProcess) Stop() error {
	if err := p.cmd.Process.Kill(); err != nil {
		select {
		case <-p.done:
			return nil
		default:
			return err
		}
	}
	<-p.done
	return nil
}

func (p *execProcess) Done() <-chan struct{} {
	return p.done
}
