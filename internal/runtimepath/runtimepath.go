// Package runtimepath locates the daemon's IPC socket.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
)

// SocketEnv overrides the socket path for both daemon and clients.
const SocketEnv = "SCREENMODE_SOCKET"

const socketName = "screenmode.sock"

// Dir returns the directory holding the daemon socket, in order of
// preference: $XDG_RUNTIME_DIR, /run/user/<uid>, then a private
// screenmode-runtime-<uid> directory under the system temp dir.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}

	uid := os.Getuid()
	if dir := fmt.Sprintf("/run/user/%d", uid); isDir(dir) {
		return dir, nil
	}

	dir := filepath.Join(os.TempDir(), fmt.Sprintf("screenmode-runtime-%d", uid))
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return dir, nil
}

// SocketPath returns the daemon IPC socket path.
func SocketPath() (string, error) {
	if p := os.Getenv(SocketEnv); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, socketName), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
