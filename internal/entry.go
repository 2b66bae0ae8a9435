// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/berkana/internal/api"
	"github.com/starford/berkana/internal/index"
	"github.com/starford/berkana/internal/noteservice"
	"github.com/starford/berkana/internal/notestore"
	"github.com/starford/berkana/internal/sse"
	"github.com/starford/berkana/internal/storage"
)

// components are the long-lived objects shared by every command.
type components struct {
	logger *slog.Logger
	files  storage.Provider
	store  *notestore.Store
	db     *index.DB // nil when the SQLite mirror is disabled
	svc    *noteservice.Service
}

func (c *components) Close() {
	if c.db != nil {
		_ = c.db.Close()
	}
}

// setup validates options, installs the logger and builds the store, its
// mirror and the note service.
func setup(opts []Option) (*Config, *components, error) {
	app := &application{logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.Bool("sqlite_enabled", cfg.SQLite.Enabled),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("contact_zero", cfg.Store.ContactZeroID),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create vault dir: %w", err)
	}

	files, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	c := &components{
		logger: logger,
		files:  files,
		store:  notestore.New(notestore.WithContactZero(cfg.Store.ContactZeroID)),
	}

	if cfg.SQLite.Enabled {
		db, err := index.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("init index: %w", err)
		}
		c.db = db

		if err := index.Restore(db, c.store, logger); err != nil {
			logger.Warn("mirror restore failed", slog.String("error", err.Error()))
		}
		c.store.Subscribe(index.Follow(db, logger))
	}

	c.svc = noteservice.NewService(c.store,
		noteservice.WithFiles(files, cfg.Vault.ExportDir),
		noteservice.WithImportDefaults(notestore.ImportOptions{
			Overwrite:      cfg.Store.Import.Overwrite,
			GenerateNewIDs: cfg.Store.Import.GenerateNewIDs,
		}),
		noteservice.WithLogger(logger),
	)

	return cfg, c, nil
}

// newInbox wires the import inbox to the service. Imports are recorded in
// the mirror when it is enabled, in memory otherwise.
func newInbox(ctx context.Context, cfg *Config, c *components, broker *sse.Broker) *index.Inbox {
	var ledger index.Ledger
	if c.db != nil {
		ledger = c.db
	}
	importer := func(data []byte) (int, error) {
		notes, err := c.svc.Import(ctx, data, c.svc.ImportDefaults())
		return len(notes), err
	}
	return index.NewInbox(c.files, cfg.Vault.InboxDir, importer, ledger, c.logger,
		func(kind, path string, notes int) {
			broker.PublishChange(sse.TypeInbox, map[string]any{
				"status": kind,
				"path":   path,
				"notes":  notes,
			})
		})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// readyHandler reports the store counts and, when the mirror is enabled,
// the mirrored note count. An unreachable mirror makes the service unready.
func readyHandler(c *components) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		stats := c.store.Stats()
		body := map[string]any{
			"status": "ok",
			"notes":  stats.Notes,
			"topics": stats.Topics,
			"links":  stats.Links,
		}
		status := http.StatusOK
		if c.db != nil {
			mirrored, err := c.db.CountNotes()
			if err != nil {
				c.logger.Warn("readiness: mirror count failed", slog.String("error", err.Error()))
				body["status"] = "unavailable"
				status = http.StatusServiceUnavailable
			} else {
				body["mirrored"] = mirrored
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

// Run starts the HTTP server and the inbox watcher with the given options.
func Run(ctx context.Context, opts ...Option) error {
	cfg, c, err := setup(opts)
	if err != nil {
		return err
	}
	defer c.Close()
	logger := c.logger

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// SSE broker.
	broker := sse.NewBroker(cfg.Store.GraphThrottle)
	defer broker.Close()
	c.store.Subscribe(broker.Observer())

	// Build API router.
	apiRouter := api.NewRouter(c.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", healthHandler)
	r.Get("/health/ready", readyHandler(c))

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stats := c.store.Stats()
	logger.Info("Server starting...",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.Int("notes", stats.Notes),
		slog.Int("topics", stats.Topics),
		slog.Int("links", stats.Links))

	g, gCtx := errgroup.WithContext(ctx)

	// Start inbox watcher.
	inbox := newInbox(gCtx, cfg, c, broker)
	g.Go(func() error {
		if err := index.Watch(gCtx, inbox, logger); err != nil {
			// The API stays useful without the inbox.
			logger.Error("inbox watcher failed", slog.String("error", err.Error()))
		}
		return nil
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
		cancel()
		// Ends open SSE streams so Shutdown does not wait on them.
		broker.Close()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
