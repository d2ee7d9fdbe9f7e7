// Package launch builds browser command lines and spawns them. A spawned
// process is tracked only for the lifetime of the invoking command; the
// durable claim that an instance is running lives in the lock manager.
package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/T0astBread/multifox/internal/browser"
	"github.com/T0astBread/multifox/internal/config"
	"github.com/T0astBread/multifox/internal/logbuf"
	"github.com/T0astBread/multifox/internal/proc"
)

const (
	defaultRingLines = 200
	killPoll         = 50 * time.Millisecond
)

// Error means the browser binary could not be located or failed to start.
type Error struct {
	Instance string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("launching instance %q: %v", e.Instance, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Options adjust a single spawn.
type Options struct {
	// ExtraArgs are appended after the definition's own arguments.
	ExtraArgs []string
	// LogPath appends the child's output to a file when set.
	LogPath string
	// RingLines overrides the in-memory output tail size.
	RingLines int
	// Detach hands the child the log file descriptor directly instead of
	// teeing output through this process, so the log keeps filling after
	// the invoking command exits. The in-memory tail stays empty for
	// detached spawns.
	Detach bool
}

// Launcher spawns browser processes.
type Launcher struct {
	// LookPath locates a binary on the search path. Nil means
	// exec.LookPath; tests inject their own.
	LookPath func(string) (string, error)
	Log      zerolog.Logger
}

// Proc is a spawned browser process owned by this invocation.
type Proc struct {
	cmd  *exec.Cmd
	ring *logbuf.Ring
	logf *os.File

	mu       sync.Mutex
	exitCode int
	waitErr  error
	done     chan struct{}
}

// Spawn starts the browser for an instance definition with its profile
// root. The command line comes from the kind's lookup table: default args,
// then the profile flag, then the definition's args, then opts.ExtraArgs.
// Home-mode kinds get HOME pointed at the profile root instead of a flag.
func (l *Launcher) Spawn(ctx context.Context, def config.Instance, profileRoot string, opts Options) (*Proc, error) {
	spec, ok := browser.Lookup(def.Browser)
	if !ok {
		return nil, &Error{def.Name, fmt.Errorf("unknown browser %q", def.Browser)}
	}

	binary := def.Binary
	if binary == "" {
		binary = spec.Binary
	}
	lookPath := l.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(binary)
	if err != nil {
		return nil, &Error{def.Name, fmt.Errorf("locating %s: %w", binary, err)}
	}

	args := append([]string{}, spec.DefaultArgs...)
	if spec.Mode == browser.ProfileFlag {
		args = append(args, spec.Flag, profileRoot)
	}
	args = append(args, def.ExtraArgs...)
	args = append(args, opts.ExtraArgs...)

	cmd := exec.CommandContext(ctx, path, args...)

	env := os.Environ()
	if spec.Mode == browser.ProfileHome {
		env = append(env, "HOME="+profileRoot)
	}
	for k, v := range def.Env {
		env = append(env, k+"="+v)
	}
	cmd.Env = env

	ringLines := opts.RingLines
	if ringLines <= 0 {
		ringLines = defaultRingLines
	}
	p := &Proc{ring: logbuf.New(ringLines), done: make(chan struct{})}

	// os/exec passes an *os.File through to the child; every other writer
	// is serviced by a pipe owned by this process and dies with it.
	var sink io.Writer
	if !opts.Detach {
		sink = p.ring
	}
	if opts.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LogPath), 0700); err != nil {
			return nil, &Error{def.Name, err}
		}
		f, err := os.OpenFile(opts.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, &Error{def.Name, err}
		}
		p.logf = f
		if opts.Detach {
			sink = f
		} else {
			sink = io.MultiWriter(p.ring, f)
		}
	}
	cmd.Stdout = sink
	cmd.Stderr = sink

	// Own process group, so signals reach the browser's whole tree and
	// the browser survives signals aimed at the launching terminal.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGTERM)
	}
	cmd.WaitDelay = 10 * time.Second

	if err := cmd.Start(); err != nil {
		if p.logf != nil {
			p.logf.Close()
		}
		return nil, &Error{def.Name, err}
	}
	p.cmd = cmd

	l.Log.Debug().
		Str("instance", def.Name).
		Str("binary", path).
		Strs("args", args).
		Int("pid", cmd.Process.Pid).
		Msg("spawned browser")

	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		if err != nil {
			var exit *exec.ExitError
			if errors.As(err, &exit) {
				p.exitCode = exit.ExitCode()
			} else {
				p.exitCode = -1
			}
			p.waitErr = err
		}
		p.mu.Unlock()
		if p.logf != nil {
			p.logf.Close()
		}
		close(p.done)
	}()

	return p, nil
}

// PID returns the child's process id.
func (p *Proc) PID() int {
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Wait blocks until the process exits and returns its exit code. A normal
// nonzero exit is not an error; only wait failures unrelated to the exit
// status are.
func (p *Proc) Wait() (int, error) {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	var exit *exec.ExitError
	if p.waitErr != nil && !errors.As(p.waitErr, &exit) {
		return p.exitCode, p.waitErr
	}
	return p.exitCode, nil
}

// Kill force-terminates the process group. Used to roll back a spawn
// whose lock record could not be written.
func (p *Proc) Kill() error {
	pid := p.PID()
	if pid <= 0 {
		return nil
	}
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil {
		return unix.Kill(pid, unix.SIGKILL)
	}
	return nil
}

// Tail returns the most recent output lines.
func (p *Proc) Tail(n int) []string {
	return p.ring.Last(n)
}

// Terminate stops a process this invocation did not spawn: SIGTERM to its
// group, then poll for death since we cannot wait on a non-child, then
// SIGKILL once the timeout expires. Callers verify through the lock
// manager that the PID still belongs to the instance before calling.
func Terminate(ctx context.Context, pid int, timeout time.Duration) error {
	if err := unix.Kill(-pid, unix.SIGTERM); err != nil {
		if err := unix.Kill(pid, unix.SIGTERM); err != nil {
			// Already gone.
			return nil
		}
	}

	deadline := time.After(timeout)
	ticker := time.NewTicker(killPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !proc.Alive(pid) {
				return nil
			}
		case <-deadline:
			_ = unix.Kill(-pid, unix.SIGKILL)
			time.Sleep(100 * time.Millisecond)
			if proc.Alive(pid) {
				return fmt.Errorf("process %d survived SIGKILL", pid)
			}
			return nil
		case <-ctx.Done():
			_ = unix.Kill(-pid, unix.SIGKILL)
			return ctx.Err()
		}
	}
}
