package internal

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/notegraph/internal/store"
)

func TestNewLogger_FansOutToFile(t *testing.T) {
	var stdout bytes.Buffer
	path := filepath.Join(t.TempDir(), "app.log")

	logger, closeLog, err := newLogger(ApplicationConfig{LogLevel: slog.LevelInfo, LogFile: path}, &stdout)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("graph: loaded", slog.Int("notes", 3))
	if err := closeLog(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for name, got := range map[string]string{"stdout": stdout.String(), "file": string(data)} {
		if !strings.Contains(got, `"msg":"graph: loaded"`) || !strings.Contains(got, `"notes":3`) {
			t.Errorf("%s = %q", name, got)
		}
		if strings.Contains(got, "hidden") {
			t.Errorf("%s contains a record below the level", name)
		}
	}
}

func TestNewLogger_BadFile(t *testing.T) {
	_, _, err := newLogger(ApplicationConfig{LogFile: filepath.Join(t.TempDir(), "missing", "app.log")}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for unwritable log file")
	}
}

func TestStart_RequiresConfig(t *testing.T) {
	if _, err := (&application{}).start(); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestSeed(t *testing.T) {
	dir := t.TempDir()
	fixturePath := filepath.Join(dir, "tree.yaml")
	content := `
notes:
  - id: _share
    title: Shared
    labels:
      - {name: color, value: blue, inheritable: true}
    children:
      - id: page
        title: Page
        content_file: page.html
`
	if err := os.WriteFile(fixturePath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "page.html"), []byte("<p>page</p>"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	cfg.Store.DSN = filepath.Join(dir, "seed.db")
	cfg.Watch.Enabled = false

	var logs bytes.Buffer
	if err := Seed(context.Background(), fixturePath, WithConfig(cfg), WithLogOutput(&logs)); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if !strings.Contains(logs.String(), `"msg":"graph after seeding"`) || !strings.Contains(logs.String(), `"notes":2`) {
		t.Errorf("logs = %s", logs.String())
	}

	db, err := store.Open(store.DriverSQLite, cfg.Store.DSN)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	content2, ok, err := db.Blob(context.Background(), "blob-page")
	if err != nil || !ok || string(content2) != "<p>page</p>" {
		t.Errorf("blob = %q, %v, %v", content2, ok, err)
	}
}

func TestSeed_InvalidFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("notes:\n  - {id: x}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	cfg.Store.DSN = filepath.Join(dir, "seed.db")

	if err := Seed(context.Background(), path, WithConfig(cfg), WithLogOutput(&bytes.Buffer{})); err == nil {
		t.Fatal("expected validation error")
	}
}
