// Package lock tracks which instances currently have a live browser
// process. Locks are per-instance files created with O_EXCL so that
// independent command invocations (separate processes sharing no memory)
// cannot both move an instance from unlocked to locked. A lock whose
// recorded process is gone, or whose PID now belongs to a different
// process, is stale and is cleared transparently on the next access.
// Inspecting and clearing run under a per-instance flock(2) guard, so
// two invocations cannot both sweep one stale lock and claim the
// instance twice.
package lock

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"

	"github.com/T0astBread/multifox/internal/proc"
)

// settleWindow bounds how long an unreadable lock file is given the
// benefit of the doubt: a concurrent acquirer writes its record within
// this window, anything older is debris.
const settleWindow = time.Second

// Record is the persisted claim that an instance is running.
type Record struct {
	Instance string `yaml:"instance"`
	PID      int    `yaml:"pid"`
	// ProcStart pins the identity of the PID at acquire time, guarding
	// against PID reuse. Command does the same on platforms without a
	// readable start time; it is ignored when ProcStart is set, since a
	// launcher script execing the browser in place changes the name of
	// a process that is still the holder.
	Command    string    `yaml:"command,omitempty"`
	ProcStart  int64     `yaml:"proc_start,omitempty"`
	AcquiredAt time.Time `yaml:"acquired_at"`
	LogFile    string    `yaml:"log_file,omitempty"`
}

// AlreadyRunningError means the instance has a live lock holder.
type AlreadyRunningError struct {
	Instance string
	PID      int
}

func (e *AlreadyRunningError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("instance %q is already running (pid %d)", e.Instance, e.PID)
	}
	return fmt.Sprintf("instance %q is already running", e.Instance)
}

// Manager owns the lock directory. It is meant to be used from a single
// goroutine; exclusion across processes comes from the filesystem.
type Manager struct {
	dir string
	log zerolog.Logger

	// OnSweep, if set, is called with the old record after a stale lock
	// has been cleared.
	OnSweep func(Record)
}

func NewManager(dir string, log zerolog.Logger) *Manager {
	return &Manager{dir: dir, log: log}
}

// Dir returns the lock directory, for callers that watch it for changes.
func (m *Manager) Dir() string { return m.dir }

func (m *Manager) path(name string) string {
	return filepath.Join(m.dir, name+".lock")
}

func (m *Manager) guardPath(name string) string {
	return filepath.Join(m.dir, name+".guard")
}

// guard serializes inspect-and-sweep sequences for one instance across
// processes. Without it two callers could each find the same lock stale,
// sweep it, and the one that lost the O_EXCL race would then sweep the
// winner's live lock. The guard file is never removed and carries no
// state; the kernel drops the flock when its holder exits, so unlike the
// lock itself it cannot go stale. Closing the returned file releases it.
func (m *Manager) guard(name string) (*os.File, error) {
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}
	f, err := os.OpenFile(m.guardPath(name), os.O_CREATE|os.O_RDONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening lock guard for %q: %w", name, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("locking guard for %q: %w", name, err)
	}
	return f, nil
}

// Reservation is a held lock whose final process is not yet known. It must
// be finished with Commit once the browser is spawned, or Abort if the
// spawn failed.
type Reservation struct {
	m    *Manager
	name string
}

// TryAcquire atomically claims the lock for an instance. While the claim is
// pending the record carries the calling process's own identity, so a
// concurrent acquirer sees a live holder instead of an empty file. A stale
// existing lock is cleared and acquisition retried; the per-instance guard
// is held for the whole attempt, so when several callers race over one
// stale lock exactly one acquires and the rest see AlreadyRunning.
func (m *Manager) TryAcquire(name string) (*Reservation, error) {
	g, err := m.guard(name)
	if err != nil {
		return nil, err
	}
	defer g.Close()

	path := m.path(name)
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			if err := writeRecord(f, m.selfRecord(name)); err != nil {
				_ = os.Remove(path)
				return nil, fmt.Errorf("writing lock for %q: %w", name, err)
			}
			return &Reservation{m: m, name: name}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("creating lock for %q: %w", name, err)
		}

		rec, state := m.inspect(name)
		switch state {
		case stateStale:
			m.sweep(name, rec)
		case stateGone:
			// Released between the failed create and the inspect.
		default:
			are := &AlreadyRunningError{Instance: name}
			if rec != nil {
				are.PID = rec.PID
			}
			return nil, are
		}
	}
	return nil, &AlreadyRunningError{Instance: name}
}

// Commit replaces the reservation's placeholder with the spawned process.
// Identity of the PID is captured best effort; without it staleness falls
// back to the liveness check alone.
func (r *Reservation) Commit(pid int, logFile string) (*Record, error) {
	rec := Record{
		Instance:   r.name,
		PID:        pid,
		AcquiredAt: time.Now().UTC(),
		LogFile:    logFile,
	}
	if name, err := proc.Name(pid); err == nil {
		rec.Command = name
	}
	if st, err := proc.StartTime(pid); err == nil {
		rec.ProcStart = st
	}

	data, err := yaml.Marshal(&rec)
	if err != nil {
		return nil, fmt.Errorf("encoding lock record: %w", err)
	}
	path := r.m.path(r.name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return nil, fmt.Errorf("writing lock record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, fmt.Errorf("writing lock record: %w", err)
	}
	return &rec, nil
}

// Abort removes a reservation after a failed spawn so the instance is left
// cleanly stopped.
func (r *Reservation) Abort() {
	if err := os.Remove(r.m.path(r.name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		r.m.log.Warn().Err(err).Str("instance", r.name).Msg("could not roll back lock")
	}
}

// Release removes the lock. Releasing an unlocked instance is a no-op.
func (m *Manager) Release(name string) error {
	if err := os.Remove(m.path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("releasing lock for %q: %w", name, err)
	}
	return nil
}

// IsRunning reports whether the instance has a live lock holder, sweeping
// a stale lock as a side effect. The record is returned for live holders.
// The sweep happens under the same per-instance guard as TryAcquire, so it
// cannot remove a lock a concurrent acquirer just re-created.
func (m *Manager) IsRunning(name string) (bool, *Record, error) {
	if _, err := os.Stat(m.path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil, nil
		}
		return false, nil, fmt.Errorf("checking lock for %q: %w", name, err)
	}

	g, err := m.guard(name)
	if err != nil {
		return false, nil, err
	}
	defer g.Close()

	rec, state := m.inspect(name)
	switch state {
	case stateStale:
		m.sweep(name, rec)
		return false, nil, nil
	case stateGone:
		return false, nil, nil
	}
	if rec == nil {
		// Settling: a concurrent acquirer has created the file but its
		// record is not readable yet.
		rec = &Record{Instance: name}
	}
	return true, rec, nil
}

type holderState int

const (
	stateLive holderState = iota
	stateSettling
	stateStale
	stateGone
)

func (m *Manager) inspect(name string) (*Record, holderState) {
	data, err := os.ReadFile(m.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, stateGone
		}
		return nil, stateStale
	}

	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil || rec.PID <= 0 {
		return nil, m.settleState(name)
	}
	if !proc.Alive(rec.PID) {
		return &rec, stateStale
	}
	if !proc.Matches(rec.PID, rec.Command, rec.ProcStart) {
		return &rec, stateStale
	}
	return &rec, stateLive
}

// settleState classifies a lock file without a usable record: young files
// belong to a concurrent acquisition still in flight, old ones are debris.
func (m *Manager) settleState(name string) holderState {
	st, err := os.Stat(m.path(name))
	if err != nil {
		return stateStale
	}
	if time.Since(st.ModTime()) < settleWindow {
		return stateSettling
	}
	return stateStale
}

func (m *Manager) sweep(name string, rec *Record) {
	if err := os.Remove(m.path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		m.log.Warn().Err(err).Str("instance", name).Msg("could not remove stale lock")
		return
	}
	pid := 0
	if rec != nil {
		pid = rec.PID
	}
	m.log.Debug().Str("instance", name).Int("pid", pid).Msg("cleared stale lock")
	if m.OnSweep != nil && rec != nil {
		m.OnSweep(*rec)
	}
}

func (m *Manager) selfRecord(name string) Record {
	rec := Record{
		Instance:   name,
		PID:        os.Getpid(),
		AcquiredAt: time.Now().UTC(),
	}
	if n, err := proc.Name(rec.PID); err == nil {
		rec.Command = n
	}
	if st, err := proc.StartTime(rec.PID); err == nil {
		rec.ProcStart = st
	}
	return rec
}

func writeRecord(f *os.File, rec Record) error {
	data, err := yaml.Marshal(&rec)
	if err != nil {
		f.Close()
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
