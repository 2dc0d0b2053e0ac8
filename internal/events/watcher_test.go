package events

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestWatchFile_DebouncedPublish(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "notes.db")
	if err := os.WriteFile(dbPath, []byte("init"), 0o644); err != nil {
		t.Fatal(err)
	}

	bus := NewBus()
	var count atomic.Int32
	bus.Subscribe(func(ev Event) {
		if ev.Kind == EntityChangeSynced {
			count.Add(1)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go WatchFile(ctx, dbPath, 100*time.Millisecond, bus, quietLogger())
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		_ = os.WriteFile(dbPath+"-wal", []byte{byte(i)}, 0o644)
	}

	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool {
		return count.Load() >= 1
	}, "expected a change-synced event")

	time.Sleep(300 * time.Millisecond)
	if n := count.Load(); n != 1 {
		t.Errorf("events = %d, want 1 (debounced)", n)
	}
}

func TestWatchFile_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "notes.db")

	bus := NewBus()
	var count atomic.Int32
	bus.Subscribe(func(Event) { count.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go WatchFile(ctx, dbPath, 50*time.Millisecond, bus, quietLogger())
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644)
	_ = os.WriteFile(dbPath+"-shm", []byte("x"), 0o644)

	time.Sleep(300 * time.Millisecond)
	if n := count.Load(); n != 0 {
		t.Errorf("events = %d, want 0", n)
	}
}
