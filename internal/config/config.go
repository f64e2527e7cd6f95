package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultKeyboardHotkey  = "Mod4-Mod1-k"
	DefaultKeyboardCommand = "onboard"
	DefaultRefreshInterval = 30
)

// ValidationError reports an invalid configuration value, optionally with the
// file position that set it.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Config holds the application configuration.
type Config struct {
	KeyboardHotkey        string `yaml:"keyboard_hotkey"`
	KeyboardCommand       string `yaml:"keyboard_command"`
	KeyboardToggleCommand string `yaml:"keyboard_toggle_command,omitempty"`
	// KeyboardWindow matches the keyboard window by WM_CLASS or title.
	// Empty falls back to the base name of keyboard_command.
	KeyboardWindow string `yaml:"keyboard_window,omitempty"`

	Display    string `yaml:"display,omitempty"`
	XAuthority string `yaml:"xauthority,omitempty"`
	EnvFile    string `yaml:"env_file,omitempty"`
	LogLevel   string `yaml:"log_level"`

	// RefreshInterval is the re-enumeration period in seconds; 0 disables it.
	RefreshInterval int    `yaml:"refresh_interval"`
	HTTPListen      string `yaml:"http_listen,omitempty"`

	// NativeRotations maps an output name to its native rotation in degrees.
	NativeRotations map[string]int `yaml:"native_rotations,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		KeyboardHotkey:  DefaultKeyboardHotkey,
		KeyboardCommand: DefaultKeyboardCommand,
		LogLevel:        "info",
		RefreshInterval: DefaultRefreshInterval,
		NativeRotations: make(map[string]int),
	}
}

// KeyboardWindowMatch returns the string used to locate the keyboard window.
func (c *Config) KeyboardWindowMatch() string {
	if c == nil {
		return ""
	}
	if w := strings.TrimSpace(c.KeyboardWindow); w != "" {
		return w
	}
	fields := strings.Fields(c.KeyboardCommand)
	if len(fields) == 0 {
		return ""
	}
	return filepath.Base(fields[0])
}

// SaveTo writes the configuration to path.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.KeyboardHotkey) == "" {
		return &ValidationError{Path: "keyboard_hotkey", Err: fmt.Errorf("keyboard_hotkey is required")}
	}
	if strings.TrimSpace(c.KeyboardCommand) == "" && strings.TrimSpace(c.KeyboardToggleCommand) == "" {
		return &ValidationError{Path: "keyboard_command", Err: fmt.Errorf("one of keyboard_command or keyboard_toggle_command is required")}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	if c.RefreshInterval < 0 {
		return &ValidationError{Path: "refresh_interval", Err: fmt.Errorf("refresh_interval must be >= 0")}
	}
	if c.HTTPListen != "" && !strings.Contains(c.HTTPListen, ":") {
		return &ValidationError{Path: "http_listen", Err: fmt.Errorf("http_listen must be host:port, got %q", c.HTTPListen)}
	}

	names := make([]string, 0, len(c.NativeRotations))
	for name := range c.NativeRotations {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Path: "native_rotations", Err: fmt.Errorf("native_rotations contains an empty output name")}
		}
		switch c.NativeRotations[name] {
		case 0, 90, 180, 270:
		default:
			return &ValidationError{Path: "native_rotations." + name, Err: fmt.Errorf("rotation must be one of: 0, 90, 180, 270")}
		}
	}

	return nil
}
