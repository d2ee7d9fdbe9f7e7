// Package instance orchestrates the lifecycle of configured browser
// instances: resolving definitions, materializing profiles, acquiring
// locks, spawning browsers, and reporting state.
package instance

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/T0astBread/multifox/internal/browser"
	"github.com/T0astBread/multifox/internal/config"
	"github.com/T0astBread/multifox/internal/journal"
	"github.com/T0astBread/multifox/internal/launch"
	"github.com/T0astBread/multifox/internal/lock"
	"github.com/T0astBread/multifox/internal/profile"
)

const defaultStopTimeout = 10 * time.Second

// State of an instance as reported by status and list.
type State string

const (
	StateRunning State = "running"
	StateStopped State = "stopped"
)

// Status describes one configured instance at a point in time.
type Status struct {
	Name    string       `json:"name"`
	Browser browser.Kind `json:"browser"`
	Profile string       `json:"profile"`
	State   State        `json:"state"`
	PID     int          `json:"pid,omitempty"`
	Since   time.Time    `json:"since,omitzero"`
}

// StartOptions adjust a start.
type StartOptions struct {
	// Detach returns right after the spawn instead of waiting for the
	// browser to exit.
	Detach bool
	// ExtraArgs are passed to the browser after the definition's own
	// arguments.
	ExtraArgs []string
}

// StartResult reports what a start did.
type StartResult struct {
	Name string
	PID  int
	// ExitCode is the browser's exit code. Meaningful only for
	// foreground runs.
	ExitCode int
}

// Manager ties configuration, profiles, locks, and launches together.
type Manager struct {
	defs     []config.Instance
	stateDir string
	profiles *profile.Store
	locks    *lock.Manager
	launcher *launch.Launcher
	journal  *journal.Writer

	stopTimeout time.Duration
	log         zerolog.Logger
}

// New wires a manager over the given state directory. A journal that
// cannot be opened disables history recording but not the manager.
func New(stateDir string, defs []config.Instance, log zerolog.Logger) *Manager {
	m := &Manager{
		defs:        defs,
		stateDir:    stateDir,
		profiles:    profile.NewStore(stateDir),
		locks:       lock.NewManager(filepath.Join(stateDir, "locks"), log),
		launcher:    &launch.Launcher{Log: log},
		stopTimeout: defaultStopTimeout,
		log:         log,
	}
	jw, err := journal.NewWriter(m.JournalPath())
	if err != nil {
		log.Warn().Err(err).Msg("journal disabled")
	} else {
		m.journal = jw
	}
	m.locks.OnSweep = func(rec lock.Record) {
		m.record(journal.Entry{
			Event:    journal.EventStaleCleared,
			Instance: rec.Instance,
			PID:      rec.PID,
		})
	}
	return m
}

// Close releases the journal.
func (m *Manager) Close() error {
	if m.journal == nil {
		return nil
	}
	return m.journal.Close()
}

// Definitions returns the configured instances in configuration order.
func (m *Manager) Definitions() []config.Instance { return m.defs }

// LocksDir is the directory holding instance lock files.
func (m *Manager) LocksDir() string { return m.locks.Dir() }

// StateDir is the root of all persistent state.
func (m *Manager) StateDir() string { return m.stateDir }

// LogPath is where an instance's browser output is appended.
func (m *Manager) LogPath(name string) string {
	return filepath.Join(m.stateDir, "logs", name+".log")
}

// JournalPath is the lifecycle event journal.
func (m *Manager) JournalPath() string {
	return filepath.Join(m.stateDir, "journal.jsonl")
}

// ResolveProfile returns the profile directory an instance would use,
// without touching the filesystem.
func (m *Manager) ResolveProfile(def config.Instance) string {
	return m.profiles.ResolvePath(def)
}

// Start launches the named instance. Foreground starts block until the
// browser exits and release the lock afterwards; detached starts return
// as soon as the lock records the browser's PID.
func (m *Manager) Start(ctx context.Context, name string, opts StartOptions) (StartResult, error) {
	def, ok := config.Find(m.defs, name)
	if !ok {
		return StartResult{}, &UnknownError{name}
	}

	handle, err := m.profiles.EnsureExists(def)
	if err != nil {
		return StartResult{}, err
	}

	res, err := m.locks.TryAcquire(name)
	if err != nil {
		return StartResult{}, err
	}

	spawnCtx := ctx
	if opts.Detach {
		// The browser must outlive this invocation.
		spawnCtx = context.Background()
	}
	logPath := m.LogPath(name)
	proc, err := m.launcher.Spawn(spawnCtx, def, handle.Root, launch.Options{
		ExtraArgs: opts.ExtraArgs,
		LogPath:   logPath,
		Detach:    opts.Detach,
	})
	if err != nil {
		res.Abort()
		return StartResult{}, err
	}

	if _, err := res.Commit(proc.PID(), logPath); err != nil {
		if kerr := proc.Kill(); kerr != nil {
			m.log.Warn().Err(kerr).Str("instance", name).Msg("killing unrecorded browser")
		}
		res.Abort()
		return StartResult{}, fmt.Errorf("recording lock for %q: %w", name, err)
	}

	m.log.Info().Str("instance", name).Int("pid", proc.PID()).Msg("instance started")
	m.record(journal.Entry{Event: journal.EventStarted, Instance: name, PID: proc.PID()})

	result := StartResult{Name: name, PID: proc.PID()}
	if opts.Detach {
		return result, nil
	}

	code, waitErr := proc.Wait()
	if err := m.locks.Release(name); err != nil {
		m.log.Warn().Err(err).Str("instance", name).Msg("releasing lock")
	}
	m.record(journal.Entry{
		Event:    journal.EventExited,
		Instance: name,
		PID:      result.PID,
		Detail:   fmt.Sprintf("exit status %d", code),
	})
	m.log.Info().Str("instance", name).Int("exit_code", code).Msg("instance exited")

	result.ExitCode = code
	if waitErr != nil {
		return result, fmt.Errorf("waiting for %q: %w", name, waitErr)
	}
	return result, nil
}

// Stop terminates a running instance and clears its lock.
func (m *Manager) Stop(ctx context.Context, name string) error {
	if _, ok := config.Find(m.defs, name); !ok {
		return &UnknownError{name}
	}
	running, rec, err := m.locks.IsRunning(name)
	if err != nil {
		return err
	}
	if !running {
		return &NotRunningError{name}
	}

	if rec.PID > 0 {
		if err := launch.Terminate(ctx, rec.PID, m.stopTimeout); err != nil {
			return fmt.Errorf("stopping %q: %w", name, err)
		}
	}
	if err := m.locks.Release(name); err != nil {
		return err
	}

	m.log.Info().Str("instance", name).Int("pid", rec.PID).Msg("instance stopped")
	m.record(journal.Entry{Event: journal.EventStopped, Instance: name, PID: rec.PID})
	return nil
}

// Status reports the current state of one instance.
func (m *Manager) Status(name string) (Status, error) {
	def, ok := config.Find(m.defs, name)
	if !ok {
		return Status{}, &UnknownError{name}
	}
	return m.statusOf(def)
}

// List reports all configured instances in configuration order.
func (m *Manager) List() ([]Status, error) {
	out := make([]Status, 0, len(m.defs))
	for _, def := range m.defs {
		st, err := m.statusOf(def)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (m *Manager) statusOf(def config.Instance) (Status, error) {
	st := Status{
		Name:    def.Name,
		Browser: def.Browser,
		Profile: m.profiles.ResolvePath(def),
		State:   StateStopped,
	}
	running, rec, err := m.locks.IsRunning(def.Name)
	if err != nil {
		return Status{}, err
	}
	if running {
		st.State = StateRunning
		st.PID = rec.PID
		st.Since = rec.AcquiredAt
	}
	return st, nil
}

func (m *Manager) record(e journal.Entry) {
	if m.journal == nil {
		return
	}
	if err := m.journal.Append(e); err != nil {
		m.log.Warn().Err(err).Msg("appending journal entry")
	}
}
