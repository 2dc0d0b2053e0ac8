// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-multierror"
	slogmulti "github.com/samber/slog-multi"
	"golang.org/x/sync/errgroup"

	"github.com/starford/notegraph/internal/api"
	"github.com/starford/notegraph/internal/events"
	"github.com/starford/notegraph/internal/fixture"
	"github.com/starford/notegraph/internal/graph"
	"github.com/starford/notegraph/internal/mcpserver"
	"github.com/starford/notegraph/internal/noteservice"
	"github.com/starford/notegraph/internal/sse"
	"github.com/starford/notegraph/internal/store"
)

// components are the long-lived parts shared by every command.
type components struct {
	cfg     *Config
	logger  *slog.Logger
	bus     *events.Bus
	db      *store.DB
	cache   *graph.Cache
	svc     *noteservice.Service
	closers []func() error
}

// newLogger builds the JSON logger. When app.log_file is set every record is
// also appended to that file.
func newLogger(cfg ApplicationConfig, out io.Writer) (*slog.Logger, func() error, error) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	primary := slog.NewJSONHandler(out, opts)
	if cfg.LogFile == "" {
		return slog.New(primary), func() error { return nil }, nil
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slogmulti.Fanout(primary, slog.NewJSONHandler(f, opts)))
	return logger, f.Close, nil
}

func (a *application) start() (*components, error) {
	if a.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := a.config

	out := a.logOutput
	if out == nil {
		out = os.Stdout
	}
	logger, closeLog, err := newLogger(cfg.App, out)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("root_note_id", cfg.Graph.RootNoteID),
		slog.String("log_level", cfg.App.LogLevel.String()))

	rt := &components{cfg: cfg, logger: logger, bus: events.NewBus()}
	rt.closers = append(rt.closers, closeLog)

	opts := []store.Option{store.WithBus(rt.bus)}
	if cfg.Store.ChunkSize > 0 {
		opts = append(opts, store.WithChunkSize(cfg.Store.ChunkSize))
	}
	rt.db, err = store.Open(cfg.Store.Driver, cfg.Store.DSN, opts...)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("init store: %w", err)
	}
	rt.closers = append(rt.closers, rt.db.Close)

	rt.cache = graph.NewCache(rt.db, graph.Config{
		RootNoteID:   cfg.Graph.RootNoteID,
		TreeRootID:   cfg.Graph.TreeRootID,
		BlobCacheTTL: cfg.Graph.BlobCacheTTL,
	}, logger)
	unlisten := graph.Listen(rt.bus, rt.cache, logger)
	rt.closers = append(rt.closers, func() error { unlisten(); return nil })

	rt.svc = noteservice.NewService(rt.cache)
	return rt, nil
}

// Close releases everything in reverse order of acquisition.
func (rt *components) Close() error {
	var result *multierror.Error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// watch publishes writes made to the SQLite file by other processes.
// It returns when ctx is done.
func (rt *components) watch(ctx context.Context) error {
	if !rt.cfg.Watch.Enabled {
		return nil
	}
	if rt.db.Driver() != store.DriverSQLite {
		rt.logger.Info("watcher: not available for driver", slog.String("driver", rt.db.Driver()))
		return nil
	}
	if err := events.WatchFile(ctx, rt.db.Path(), rt.cfg.Watch.Debounce, rt.bus, rt.logger); err != nil {
		rt.logger.Warn("watcher: disabled", slog.String("error", err.Error()))
	}
	return nil
}

// warm loads the graph once so the first request does not pay for it.
func (rt *components) warm(ctx context.Context) {
	if err := rt.svc.Ready(ctx); err != nil {
		rt.logger.Warn("initial graph load failed", slog.String("error", err.Error()))
	}
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}

	rt, err := app.start()
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			rt.logger.Error("close failed", slog.String("error", err.Error()))
		}
	}()
	cfg := rt.cfg
	logger := rt.logger

	rt.warm(ctx)

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	detach := broker.Attach(rt.bus)

	apiRouter := api.NewRouter(rt.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := rt.svc.Ready(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the database file for writes by other processes.
	g.Go(func() error {
		return rt.watch(gCtx)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// SSE streams never end on their own; close them first.
		detach()
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Stops the watcher.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(app)
	}

	rt, err := app.start()
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.warm(ctx)
	srv := mcpserver.New(rt.svc, app.version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rt.watch(gCtx)
	})
	g.Go(func() error {
		defer cancel()
		return srv.ServeStdio()
	})
	return g.Wait()
}

// Seed writes the fixture at path (a YAML file or a directory of them) into
// the configured store.
func Seed(ctx context.Context, path string, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}

	rt, err := app.start()
	if err != nil {
		return err
	}
	defer rt.Close()

	docs, files, err := fixture.Open(path)
	if err != nil {
		return err
	}
	for i, doc := range docs {
		stats, err := fixture.Apply(ctx, rt.db, doc, files)
		if err != nil {
			return fmt.Errorf("seed document %d: %w", i+1, err)
		}
		rt.logger.Info("fixture applied",
			slog.String("path", path),
			slog.Int("document", i+1),
			slog.Int("notes", stats.Notes),
			slog.Int("branches", stats.Branches),
			slog.Int("attributes", stats.Attributes),
			slog.Int("attachments", stats.Attachments))
	}

	// Report what the cache will see after the writes.
	g, err := rt.cache.EnsureLoaded(ctx)
	if err != nil {
		return err
	}
	s := g.Stats()
	rt.logger.Info("graph after seeding",
		slog.String("root_note_id", g.RootID()),
		slog.Int("notes", s.Notes),
		slog.Int("skeletons", s.Skeletons),
		slog.Int("attributes", s.Attributes))
	return nil
}
