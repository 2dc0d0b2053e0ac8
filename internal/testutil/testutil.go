// Package testutil provides shared test helpers for setting up databases and
// seeded note trees.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/notegraph/internal/events"
	"github.com/starford/notegraph/internal/fixture"
	"github.com/starford/notegraph/internal/graph"
	"github.com/starford/notegraph/internal/store"
)

// ShareTree is a small shared subtree covering the resolver's interesting
// cases: inheritable labels, a template relation, a clone, an image link,
// an alias, a protected note and an attachment.
const ShareTree = `
root: root
notes:
  - id: root
    title: root
  - id: _share
    title: Shared
    labels:
      - {name: shareRoot}
      - {name: color, value: red, inheritable: true}
    children:
      - id: guide
        title: Guide
        content: "<p>hello</p>"
        labels:
          - {name: shareAlias, value: getting-started}
        relations:
          - {name: template, target: tpl}
          - {name: imageLink, target: pic}
        attachments:
          - {id: att1, title: diagram.svg, role: image, mime: image/svg+xml, content: "<svg/>"}
        children:
          - id: pic
            title: Picture
            type: image
            mime: image/png
      - id: data
        title: Data
        type: code
        mime: application/json
        content: '{"answer": 42}'
      - id: secret
        title: Secret
        protected: true
        content: hidden
      - id: tpl
        title: Template
        labels:
          - {name: layout, value: wide, inheritable: true}
`

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
// When bus is non-nil every write publishes on it.
func TestDB(t *testing.T, bus *events.Bus) *store.DB {
	t.Helper()
	var opts []store.Option
	if bus != nil {
		opts = append(opts, store.WithBus(bus))
	}
	db, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "notegraph-test.db"), opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Seed writes the fixture document src into db.
func Seed(t *testing.T, db *store.DB, src string) {
	t.Helper()
	doc, err := fixture.Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fixture.Apply(context.Background(), db, doc, nil); err != nil {
		t.Fatal(err)
	}
}

// SeededCache returns a cache over a fresh database seeded with ShareTree.
// The cache is reset on every write to the returned db.
func SeededCache(t *testing.T) (*graph.Cache, *store.DB) {
	t.Helper()
	bus := events.NewBus()
	db := TestDB(t, bus)
	Seed(t, db, ShareTree)

	cache := graph.NewCache(db, graph.Config{RootNoteID: "_share"}, Logger())
	t.Cleanup(graph.Listen(bus, cache, Logger()))
	return cache, db
}
