// Package watch drives a live view of instance state off the locks
// directory.
package watch

import (
	"context"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	fallbackInterval = 2 * time.Second
	refreshRate      = 500 * time.Millisecond
)

// Watcher calls a refresh function whenever lock files change. A ticker
// covers changes fsnotify cannot see, such as a process dying without
// its lock file being touched.
type Watcher struct {
	dir      string
	interval time.Duration
	limiter  *rate.Limiter
	log      zerolog.Logger
}

// New watches dir for lock activity.
func New(dir string, log zerolog.Logger) *Watcher {
	return &Watcher{
		dir:      dir,
		interval: fallbackInterval,
		limiter:  rate.NewLimiter(rate.Every(refreshRate), 1),
		log:      log,
	}
}

// Run calls refresh once immediately, then on every relevant filesystem
// event and at a steady fallback interval, until ctx is canceled. Event
// bursts collapse into a single refresh; the ticker picks up whatever a
// collapsed burst left behind.
func (w *Watcher) Run(ctx context.Context, refresh func() error) error {
	if err := os.MkdirAll(w.dir, 0700); err != nil {
		return err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()
	if err := fsw.Add(w.dir); err != nil {
		return err
	}

	if err := refresh(); err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if !w.limiter.Allow() {
				continue
			}
			if err := refresh(); err != nil {
				return err
			}
		case <-ticker.C:
			if err := refresh(); err != nil {
				return err
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watching locks directory")
		}
	}
}
