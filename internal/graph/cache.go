package graph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Config selects the subtree a Cache serves.
type Config struct {
	// RootNoteID is the top of the loaded subtree.
	RootNoteID string
	// TreeRootID is the note that never inherits from parents.
	TreeRootID string
	// BlobCacheTTL bounds how long blob content is memoized. Zero keeps
	// blobs until the next Reset.
	BlobCacheTTL time.Duration
}

// Cache owns the current Graph. Readers get a consistent snapshot; Reset
// drops it and the next read rebuilds from the source.
type Cache struct {
	src    Source
	cfg    Config
	logger *slog.Logger
	blobs  *cachedBlobs

	current atomic.Pointer[Graph]

	// stateMu orders publishing a graph against Reset.
	stateMu    sync.Mutex
	generation uint64

	loadMu sync.Mutex
}

func NewCache(src Source, cfg Config, logger *slog.Logger) *Cache {
	if cfg.TreeRootID == "" {
		cfg.TreeRootID = DefaultTreeRootID
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cache{
		src:    src,
		cfg:    cfg,
		logger: logger,
		blobs: &cachedBlobs{
			src: src,
			cache: ttlcache.New(
				ttlcache.WithTTL[string, []byte](cfg.BlobCacheTTL),
			),
		},
	}
}

// Reset invalidates the current graph. The next read triggers a full reload.
func (c *Cache) Reset() {
	c.stateMu.Lock()
	c.generation++
	c.current.Store(nil)
	c.stateMu.Unlock()

	c.blobs.purge()
	resetCounter.Add(context.Background(), 1)
}

// Loaded reports whether a graph is currently published.
func (c *Cache) Loaded() bool {
	return c.current.Load() != nil
}

// EnsureLoaded returns the current graph, loading it first if needed. A load
// overtaken by Reset is returned to this caller but not published.
func (c *Cache) EnsureLoaded(ctx context.Context) (*Graph, error) {
	if g := c.current.Load(); g != nil {
		return g, nil
	}

	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	if g := c.current.Load(); g != nil {
		return g, nil
	}

	c.stateMu.Lock()
	gen := c.generation
	c.stateMu.Unlock()

	start := time.Now()
	rows, err := LoadRows(ctx, c.src, c.cfg.RootNoteID)
	if err != nil {
		loadFailureCounter.Add(ctx, 1)
		return nil, fmt.Errorf("graph: load: %w", err)
	}
	g := Build(rows, BuildOptions{
		Generation: gen,
		RootID:     c.cfg.RootNoteID,
		TreeRootID: c.cfg.TreeRootID,
		Blobs:      c.blobs,
		Logger:     c.logger,
	})
	elapsed := time.Since(start)
	loadCounter.Add(ctx, 1)
	loadDuration.Record(ctx, elapsed.Seconds())

	c.stateMu.Lock()
	published := c.generation == gen
	if published {
		c.current.Store(g)
	}
	c.stateMu.Unlock()

	stats := g.Stats()
	c.logger.Info("graph: loaded",
		"root_note_id", c.cfg.RootNoteID,
		"generation", gen,
		"notes", stats.Notes,
		"branches", stats.Branches,
		"attributes", stats.Attributes,
		"attachments", stats.Attachments,
		"published", published,
		"elapsed", elapsed,
	)
	return g, nil
}

// graph is EnsureLoaded for the read pass-throughs: failures are logged and
// reported as absent.
func (c *Cache) graph(ctx context.Context) *Graph {
	g, err := c.EnsureLoaded(ctx)
	if err != nil {
		c.logger.Error("graph: load failed", "error", err)
		return nil
	}
	return g
}

func (c *Cache) GetNote(ctx context.Context, noteID string) *Note {
	if g := c.graph(ctx); g != nil {
		return g.Note(noteID)
	}
	return nil
}

// GetNotes is Graph.Notes on the current graph. A failed load yields no notes
// and no error.
func (c *Cache) GetNotes(ctx context.Context, noteIDs []string, ignoreMissing bool) ([]*Note, error) {
	g := c.graph(ctx)
	if g == nil {
		return nil, nil
	}
	return g.Notes(noteIDs, ignoreMissing)
}

func (c *Cache) GetBranch(ctx context.Context, branchID string) *Branch {
	if g := c.graph(ctx); g != nil {
		return g.Branch(branchID)
	}
	return nil
}

func (c *Cache) GetBranchFromChildAndParent(ctx context.Context, childNoteID, parentNoteID string) *Branch {
	if g := c.graph(ctx); g != nil {
		return g.BranchFromChildAndParent(childNoteID, parentNoteID)
	}
	return nil
}

func (c *Cache) GetAttribute(ctx context.Context, attributeID string) *Attribute {
	if g := c.graph(ctx); g != nil {
		return g.Attribute(attributeID)
	}
	return nil
}

func (c *Cache) GetAttachment(ctx context.Context, attachmentID string) *Attachment {
	if g := c.graph(ctx); g != nil {
		return g.Attachment(attachmentID)
	}
	return nil
}

// GetEntity is Graph.Entity on the current graph. A failed load is reported
// as not found.
func (c *Cache) GetEntity(ctx context.Context, kind EntityKind, id string) (Entity, error) {
	g, err := c.EnsureLoaded(ctx)
	if err != nil {
		c.logger.Error("graph: load failed", "error", err)
		return (&Graph{}).Entity(kind, id)
	}
	return g.Entity(kind, id)
}

// cachedBlobs memoizes blob content across graphs. A read that started
// before the last purge does not repopulate the cache.
type cachedBlobs struct {
	src   BlobSource
	cache *ttlcache.Cache[string, []byte]

	mu         sync.Mutex
	generation uint64
}

func (b *cachedBlobs) purge() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generation++
	b.cache.DeleteAll()
}

func (b *cachedBlobs) Blob(ctx context.Context, blobID string) ([]byte, bool, error) {
	if item := b.cache.Get(blobID); item != nil {
		return item.Value(), true, nil
	}

	b.mu.Lock()
	gen := b.generation
	b.mu.Unlock()

	content, ok, err := b.src.Blob(ctx, blobID)
	if err != nil || !ok {
		return nil, ok, err
	}

	b.mu.Lock()
	if b.generation == gen {
		b.cache.Set(blobID, content, ttlcache.DefaultTTL)
	}
	b.mu.Unlock()
	return content, true, nil
}
