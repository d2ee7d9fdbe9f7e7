// Package journal records instance lifecycle events to an append-only
// JSONL file, one event per line.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event names a lifecycle transition.
type Event string

const (
	// EventStarted records a successful spawn.
	EventStarted Event = "started"
	// EventStopped records a stop requested through multifox.
	EventStopped Event = "stopped"
	// EventExited records a foreground browser exiting on its own.
	EventExited Event = "exited"
	// EventStaleCleared records a leftover lock swept for a dead process.
	EventStaleCleared Event = "stale-cleared"
)

// Entry is one journal line.
type Entry struct {
	Time     time.Time `json:"ts"`
	Event    Event     `json:"event"`
	Instance string    `json:"instance"`
	PID      int       `json:"pid,omitempty"`
	Detail   string    `json:"detail,omitempty"`
}

// Writer appends entries to a journal file. Safe for concurrent use.
type Writer struct {
	mu   sync.Mutex
	file *os.File
}

// NewWriter opens the journal at path for appending, creating parent
// directories as needed.
func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating journal dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	return &Writer{file: f}, nil
}

// Append writes one entry. A zero Time is stamped with the current time.
func (w *Writer) Append(e Entry) error {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding journal entry: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing journal entry: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// Tail reads the journal at path and returns its last n entries, oldest
// first. A missing journal yields no entries. Lines that fail to parse
// are skipped so one corrupt line cannot hide the rest of the history.
func Tail(path string, n int) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}
