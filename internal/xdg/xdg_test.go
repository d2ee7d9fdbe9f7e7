package xdg

import (
	"path/filepath"
	"testing"
)

func TestConfigDirHonorsOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test/config")

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-test/config", "multifox") {
		t.Errorf("unexpected config dir: %s", dir)
	}
}

func TestConfigDirFallsBackToHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/tmp/xdg-test/home")

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	want := filepath.Join("/tmp/xdg-test/home", ".config", "multifox")
	if dir != want {
		t.Errorf("expected %s, got %s", want, dir)
	}
}

func TestStateDirHonorsOverride(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg-test/state")

	dir, err := StateDir()
	if err != nil {
		t.Fatalf("StateDir: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-test/state", "multifox") {
		t.Errorf("unexpected state dir: %s", dir)
	}
}

func TestStateDirFallsBackToHome(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", "/tmp/xdg-test/home")

	dir, err := StateDir()
	if err != nil {
		t.Fatalf("StateDir: %v", err)
	}
	want := filepath.Join("/tmp/xdg-test/home", ".local", "state", "multifox")
	if dir != want {
		t.Errorf("expected %s, got %s", want, dir)
	}
}
