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
	"golang.org/x/sync/errgroup"

	"github.com/starford/alma/internal/api"
	"github.com/starford/alma/internal/cache"
	"github.com/starford/alma/internal/index"
	"github.com/starford/alma/internal/mcpserver"
	"github.com/starford/alma/internal/noteservice"
	"github.com/starford/alma/internal/projects"
	"github.com/starford/alma/internal/rebuild"
	"github.com/starford/alma/internal/sse"
	"github.com/starford/alma/internal/storage"
)

// core holds the components shared by every entry point.
type core struct {
	logger   *slog.Logger
	store    *storage.FS
	notes    *noteservice.Service
	projects *projects.Registry
}

func (c *core) Close() {
	if c.projects != nil {
		if err := c.projects.Close(); err != nil {
			c.logger.Warn("projects: close failed", slog.String("error", err.Error()))
		}
	}
}

func newApplication(opts []Option) (*application, error) {
	app := &application{out: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger builds the structured JSON logger. Log output goes to w so
// that the MCP stdio transport can keep stdout for itself.
func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func openCore(cfg *Config, logger *slog.Logger) (*core, error) {
	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	idx, err := index.Open(cfg.Index.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	notes := noteservice.New(store, idx, noteservice.WithLogger(logger))

	// Note counts go through the service so they never see a rebuild midway.
	reg, err := projects.Open(cfg.SQLite.Path, notes, store)
	if err != nil {
		return nil, fmt.Errorf("init projects: %w", err)
	}

	return &core{logger: logger, store: store, notes: notes, projects: reg}, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg, os.Stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("index_path", cfg.Index.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("watch", cfg.Vault.Watch),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c, err := openCore(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	readCache := cache.New(cfg.Cache.Size, cfg.Cache.TTL)

	h := api.NewHandler(c.notes, c.projects, readCache, broker, logger)
	apiRouter := api.NewRouter(h, api.AuthConfig{
		Enabled: cfg.Auth.AuthEnabled(),
		Token:   cfg.Auth.Token,
		User:    cfg.Auth.User,
	}, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Rebuild the indexes whenever note files change outside the API.
	if cfg.Vault.Watch {
		g.Go(func() error {
			err := rebuild.Watch(gCtx, c.store.Root(), cfg.Vault.WatchDebounce, logger, func(ctx context.Context) error {
				_, err := h.Regenerate(ctx)
				return err
			})
			if err != nil {
				logger.Warn("watcher: stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher exits with the server.
var errShutdown = errors.New("shutdown")

// RunRegenerate rebuilds every index from the note files once and prints
// the number of indexed notes.
func RunRegenerate(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	logger := newLogger(app.config, os.Stderr)

	c, err := openCore(app.config, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	res, err := c.notes.RegenerateAll(ctx)
	if err != nil {
		return fmt.Errorf("regenerate: %w", err)
	}

	_, err = fmt.Fprintf(app.out, "Regenerated indexes: %d notes (%d errors)\n", res.Indexed, res.Errors)
	return err
}

// RunMCP serves the note tools over MCP stdio until stdin closes.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	logger := newLogger(app.config, os.Stderr)

	c, err := openCore(app.config, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	logger.Info("mcp: serving on stdio", slog.String("vault_path", app.config.Vault.Path))

	return mcpserver.New(c.notes, app.config.Auth.User).ServeStdio()
}
