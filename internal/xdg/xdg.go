// Package xdg resolves the per-user directories multifox stores its
// configuration and state in, honoring the XDG base directory overrides.
package xdg

import (
	"os"
	"path/filepath"
)

const app = "multifox"

// ConfigDir returns the directory searched for the instance configuration
// file: $XDG_CONFIG_HOME/multifox, or ~/.config/multifox when the override
// is unset.
func ConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, app), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", app), nil
}

// StateDir returns the directory holding profiles, locks, instance logs,
// and the journal: $XDG_STATE_HOME/multifox, or ~/.local/state/multifox.
func StateDir() (string, error) {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, app), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", app), nil
}
