package launch

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/T0astBread/multifox/internal/browser"
	"github.com/T0astBread/multifox/internal/config"
	"github.com/T0astBread/multifox/internal/proc"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fakefox")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatalf("writing fake browser: %v", err)
	}
	return path
}

func testLauncher() *Launcher {
	return &Launcher{Log: zerolog.Nop()}
}

func TestSpawnBuildsFlagArgs(t *testing.T) {
	t.Parallel()

	script := writeScript(t, `echo "$@"`)
	def := config.Instance{
		Name:      "personal",
		Browser:   browser.Firefox,
		Profile:   "personal",
		Binary:    script,
		ExtraArgs: []string{"--new-window", "https://example.com"},
	}
	root := t.TempDir()

	p, err := testLauncher().Spawn(context.Background(), def, root, Options{
		ExtraArgs: []string{"--private-window"},
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if code, err := p.Wait(); err != nil || code != 0 {
		t.Fatalf("Wait = %d, %v, want 0, nil", code, err)
	}

	lines := p.Tail(1)
	if len(lines) != 1 {
		t.Fatalf("Tail returned %d lines, want 1", len(lines))
	}
	want := "--no-remote --profile " + root + " --new-window https://example.com --private-window"
	if lines[0] != want {
		t.Errorf("argv = %q, want %q", lines[0], want)
	}
}

func TestSpawnHomeMode(t *testing.T) {
	t.Parallel()

	script := writeScript(t, `echo "HOME=$HOME ARGS=$*"`)
	def := config.Instance{
		Name:    "anon",
		Browser: browser.TorBrowser,
		Profile: "anon",
		Binary:  script,
	}
	root := t.TempDir()

	p, err := testLauncher().Spawn(context.Background(), def, root, Options{})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if _, err := p.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	lines := p.Tail(1)
	if len(lines) != 1 {
		t.Fatalf("Tail returned %d lines, want 1", len(lines))
	}
	want := "HOME=" + root + " ARGS="
	if lines[0] != want {
		t.Errorf("output = %q, want %q", lines[0], want)
	}
}

func TestSpawnInstanceEnv(t *testing.T) {
	t.Parallel()

	script := writeScript(t, `echo "MOZ_LOG=$MOZ_LOG"`)
	def := config.Instance{
		Name:    "debugfox",
		Browser: browser.Firefox,
		Profile: "debugfox",
		Binary:  script,
		Env:     map[string]string{"MOZ_LOG": "timestamp,nsHttp:3"},
	}

	p, err := testLauncher().Spawn(context.Background(), def, t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if _, err := p.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	lines := p.Tail(1)
	if len(lines) != 1 || lines[0] != "MOZ_LOG=timestamp,nsHttp:3" {
		t.Errorf("output = %q, want env var passed through", lines)
	}
}

func TestSpawnWritesLogFile(t *testing.T) {
	t.Parallel()

	script := writeScript(t, `echo one; echo two 1>&2`)
	def := config.Instance{Name: "work", Browser: browser.Firefox, Profile: "work", Binary: script}
	logPath := filepath.Join(t.TempDir(), "logs", "work.log")

	p, err := testLauncher().Spawn(context.Background(), def, t.TempDir(), Options{LogPath: logPath})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if _, err := p.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "one") || !strings.Contains(string(data), "two") {
		t.Errorf("log file = %q, want both stdout and stderr lines", data)
	}
}

func TestSpawnDetachedWritesLogWithoutTee(t *testing.T) {
	t.Parallel()

	script := writeScript(t, `echo bg-one; echo bg-two 1>&2`)
	def := config.Instance{Name: "bg", Browser: browser.Firefox, Profile: "bg", Binary: script}
	logPath := filepath.Join(t.TempDir(), "logs", "bg.log")

	p, err := testLauncher().Spawn(context.Background(), def, t.TempDir(), Options{LogPath: logPath, Detach: true})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	// os/exec hands the child its own descriptor only for an *os.File;
	// any other writer is serviced through a pipe by this process, which
	// goes away when this process does.
	if _, ok := p.cmd.Stdout.(*os.File); !ok {
		t.Errorf("detached stdout = %T, want *os.File", p.cmd.Stdout)
	}
	if _, ok := p.cmd.Stderr.(*os.File); !ok {
		t.Errorf("detached stderr = %T, want *os.File", p.cmd.Stderr)
	}

	if _, err := p.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "bg-one") || !strings.Contains(string(data), "bg-two") {
		t.Errorf("log file = %q, want both output lines", data)
	}
	if lines := p.Tail(10); len(lines) != 0 {
		t.Errorf("Tail = %q, want no in-memory output for a detached spawn", lines)
	}
}

func TestSpawnExitCode(t *testing.T) {
	t.Parallel()

	script := writeScript(t, `exit 3`)
	def := config.Instance{Name: "crashy", Browser: browser.Firefox, Profile: "crashy", Binary: script}

	p, err := testLauncher().Spawn(context.Background(), def, t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	code, err := p.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
}

func TestSpawnMissingBinary(t *testing.T) {
	t.Parallel()

	def := config.Instance{Name: "ghost", Browser: browser.Firefox, Profile: "ghost"}
	l := &Launcher{
		LookPath: func(string) (string, error) { return "", exec.ErrNotFound },
		Log:      zerolog.Nop(),
	}

	_, err := l.Spawn(context.Background(), def, t.TempDir(), Options{})
	if err == nil {
		t.Fatal("Spawn with missing binary did not fail")
	}
	var lerr *Error
	if !errors.As(err, &lerr) {
		t.Fatalf("error = %T, want *Error", err)
	}
	if lerr.Instance != "ghost" {
		t.Errorf("Instance = %q, want %q", lerr.Instance, "ghost")
	}
}

func TestSpawnUnknownKind(t *testing.T) {
	t.Parallel()

	def := config.Instance{Name: "odd", Browser: browser.Kind("netscape"), Profile: "odd"}
	_, err := testLauncher().Spawn(context.Background(), def, t.TempDir(), Options{})
	var lerr *Error
	if !errors.As(err, &lerr) {
		t.Fatalf("error = %v, want *Error", err)
	}
}

func TestKillEndsProcessGroup(t *testing.T) {
	t.Parallel()

	script := writeScript(t, `sleep 30`)
	def := config.Instance{Name: "stuck", Browser: browser.Firefox, Profile: "stuck", Binary: script}

	p, err := testLauncher().Spawn(context.Background(), def, t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	pid := p.PID()
	if pid <= 0 {
		t.Fatalf("PID = %d, want > 0", pid)
	}
	if err := p.Kill(); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	done := make(chan struct{})
	go func() { p.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit after Kill")
	}
	if proc.Alive(pid) {
		t.Errorf("pid %d still alive after Kill", pid)
	}
}

func TestTerminateStopsDetachedProcess(t *testing.T) {
	t.Parallel()

	cmd := exec.Command("sleep", "30")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		t.Fatalf("starting sleep: %v", err)
	}
	pid := cmd.Process.Pid
	// Reap in the background so the PID leaves the process table.
	go cmd.Wait()

	if err := Terminate(context.Background(), pid, 5*time.Second); err != nil {
		t.Fatalf("Terminate: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for proc.Alive(pid) {
		if time.Now().After(deadline) {
			t.Fatalf("pid %d still alive after Terminate", pid)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestTerminateGoneProcess(t *testing.T) {
	t.Parallel()

	cmd := exec.Command("true")
	if err := cmd.Start(); err != nil {
		t.Fatalf("starting true: %v", err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Wait(); err != nil {
		t.Fatalf("waiting for true: %v", err)
	}

	if err := Terminate(context.Background(), pid, time.Second); err != nil {
		t.Errorf("Terminate on exited process = %v, want nil", err)
	}
}
