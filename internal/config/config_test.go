package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.KeyboardWindowMatch() != "onboard" {
		t.Fatalf("expected keyboard window match onboard, got %q", cfg.KeyboardWindowMatch())
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.KeyboardHotkey != DefaultKeyboardHotkey {
		t.Fatalf("expected default hotkey, got %q", res.Config.KeyboardHotkey)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files loaded, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.RefreshInterval != DefaultRefreshInterval {
		t.Fatalf("expected refresh_interval %d, got %d", DefaultRefreshInterval, res.Config.RefreshInterval)
	}
}

func TestLoadFromPath_DisplayAndXAuthority(t *testing.T) {
	data := strings.Join([]string{
		"display: \":1\"",
		"xauthority: \"/tmp/test-xauth\"",
		"",
	}, "\n")
	path := writeConfig(t, t.TempDir(), "config.yaml", data)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Display != ":1" {
		t.Fatalf("expected display :1, got %q", res.Config.Display)
	}
	if res.Config.XAuthority != "/tmp/test-xauth" {
		t.Fatalf("expected xauthority /tmp/test-xauth, got %q", res.Config.XAuthority)
	}
	if src, ok := res.Sources["display"]; !ok || src.Line != 1 {
		t.Fatalf("expected display source on line 1, got %#v", src)
	}
}

func TestLoadFromPath_NativeRotations(t *testing.T) {
	data := "native_rotations:\n  DP-1: 270\n  HDMI-1: 0\n"
	path := writeConfig(t, t.TempDir(), "config.yaml", data)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if deg, ok := res.Config.NativeRotations["DP-1"]; !ok || deg != 270 {
		t.Fatalf("expected DP-1 native rotation 270, got %d (%v)", deg, ok)
	}
	if _, ok := res.Config.NativeRotations["eDP-1"]; ok {
		t.Fatalf("expected no native rotation for eDP-1")
	}
}

func TestLoadFromPath_InvalidRotationHasSourceContext(t *testing.T) {
	data := "log_level: info\nnative_rotations:\n  DP-1: 45\n"
	path := writeConfig(t, t.TempDir(), "config.yaml", data)

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Path != "native_rotations.DP-1" {
		t.Fatalf("expected path native_rotations.DP-1, got %q", verr.Path)
	}
	if !strings.Contains(err.Error(), ":3:") {
		t.Fatalf("expected line 3 in error, got %v", err)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "unknown_key: 1\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()

	configD := filepath.Join(dir, "config.d")
	if err := os.MkdirAll(configD, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeConfig(t, configD, "10-base.yaml", "refresh_interval: 5\nhttp_listen: \"127.0.0.1:9000\"\n")
	writeConfig(t, configD, "20-override.yaml", "refresh_interval: 6\n")

	main := strings.Join([]string{
		"include:",
		"  - config.d",
		"refresh_interval: 7",
		"",
	}, "\n")
	path := writeConfig(t, dir, "config.yaml", main)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.RefreshInterval != 7 {
		t.Fatalf("expected refresh_interval 7, got %d", res.Config.RefreshInterval)
	}
	if res.Config.HTTPListen != "127.0.0.1:9000" {
		t.Fatalf("expected http_listen from include, got %q", res.Config.HTTPListen)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 files loaded, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeGlob(t *testing.T) {
	dir := t.TempDir()

	confD := filepath.Join(dir, "conf.d")
	if err := os.MkdirAll(filepath.Join(confD, "nested.yaml"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeConfig(t, confD, "20-late.yaml", "refresh_interval: 9\n")
	writeConfig(t, confD, "10-early.yaml", "refresh_interval: 4\nlog_level: debug\n")
	writeConfig(t, confD, "notes.txt", "not yaml: [\n")

	path := writeConfig(t, dir, "config.yaml", "include: conf.d/*.yaml\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.RefreshInterval != 9 || res.Config.LogLevel != "debug" {
		t.Fatalf("expected sorted glob merge, got refresh_interval=%d log_level=%q", res.Config.RefreshInterval, res.Config.LogLevel)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 files loaded, got %v", res.Files)
	}

	// A pattern without matches includes nothing.
	empty := writeConfig(t, dir, "empty.yaml", "include: none.d/*.yaml\n")
	if _, err := LoadFromPath(empty); err != nil {
		t.Fatalf("expected empty glob to load, got %v", err)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "include:\n  - missing.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
	if !strings.Contains(err.Error(), path+":") {
		t.Fatalf("expected error to include file:line:col prefix, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := writeConfig(t, dir, "a.yaml", "include: b.yaml\n")
	writeConfig(t, dir, "b.yaml", "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
		path string
	}{
		{"empty hotkey", func(c *Config) { c.KeyboardHotkey = " " }, "keyboard_hotkey"},
		{"no keyboard", func(c *Config) { c.KeyboardCommand = "" }, "keyboard_command"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"negative interval", func(c *Config) { c.RefreshInterval = -1 }, "refresh_interval"},
		{"bad listen", func(c *Config) { c.HTTPListen = "8080" }, "http_listen"},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mut(cfg)
		err := cfg.Validate()
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
		}
		if verr.Path != tc.path {
			t.Fatalf("%s: expected path %q, got %q", tc.name, tc.path, verr.Path)
		}
	}

	cfg := DefaultConfig()
	cfg.KeyboardCommand = ""
	cfg.KeyboardToggleCommand = "busctl call org.example.Keyboard Toggle"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected toggle command alone to be valid, got %v", err)
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.KeyboardCommand = "squeekboard"
	cfg.NativeRotations["DSI-1"] = 90

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.KeyboardCommand != "squeekboard" {
		t.Fatalf("expected keyboard_command squeekboard, got %q", res.Config.KeyboardCommand)
	}
	if deg := res.Config.NativeRotations["DSI-1"]; deg != 90 {
		t.Fatalf("expected DSI-1 rotation 90, got %d", deg)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeConfig(t, dir, "screenmode.env", "SCREENMODE_TEST_VAR=from-file\nSCREENMODE_PRESET=file\n")
	t.Setenv("SCREENMODE_PRESET", "env")
	t.Setenv("SCREENMODE_TEST_VAR", "")
	os.Unsetenv("SCREENMODE_TEST_VAR")

	cfg := DefaultConfig()
	cfg.EnvFile = envPath
	if err := cfg.LoadEnvFile(); err != nil {
		t.Fatalf("load env file: %v", err)
	}
	if got := os.Getenv("SCREENMODE_TEST_VAR"); got != "from-file" {
		t.Fatalf("expected SCREENMODE_TEST_VAR from file, got %q", got)
	}
	if got := os.Getenv("SCREENMODE_PRESET"); got != "env" {
		t.Fatalf("expected existing variable to win, got %q", got)
	}

	cfg.EnvFile = filepath.Join(dir, "missing.env")
	if err := cfg.LoadEnvFile(); err == nil {
		t.Fatalf("expected error for missing env file")
	}
}
