package events

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of file writes (a transaction touches the
// WAL many times) into a single event.
const DefaultDebounce = 200 * time.Millisecond

// WatchFile watches the directory containing dbPath and publishes one
// EntityChangeSynced event on bus after writes to the database file or its
// rollback/WAL companions settle for debounce. It blocks until ctx is cancelled.
//
// This catches changes made by other processes sharing the same SQLite file;
// in-process writes are published directly by the store.
func WatchFile(ctx context.Context, dbPath string, debounce time.Duration, bus *Bus, logger *slog.Logger) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	base := filepath.Base(abs)
	tracked := map[string]struct{}{
		base:              {},
		base + "-wal":     {},
		base + "-journal": {},
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("path", abs))

	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			timer = nil
			fire = nil
			logger.Debug("watcher: store changed", slog.String("path", abs))
			bus.Publish(Event{Kind: EntityChangeSynced})

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if _, ok := tracked[filepath.Base(ev.Name)]; !ok {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
