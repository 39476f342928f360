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

	"github.com/starford/mdview/internal/api"
	"github.com/starford/mdview/internal/filehistory"
	"github.com/starford/mdview/internal/mcpserver"
	"github.com/starford/mdview/internal/settings"
	"github.com/starford/mdview/internal/sse"
	"github.com/starford/mdview/internal/viewer"
	"github.com/starford/mdview/internal/watch"
	"github.com/starford/mdview/pkg/config"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger initializes the structured JSON logger. Logs go to stderr so
// stdout stays free for the MCP transport and command output.
func newLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func storageDir(cfg *Config) (string, error) {
	dir, err := config.ExpandHome(cfg.Storage.Dir)
	if err != nil {
		return "", fmt.Errorf("storage dir: %w", err)
	}
	return dir, nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(cfg)

	dir, err := storageDir(cfg)
	if err != nil {
		return err
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_dir", dir),
		slog.Bool("watch", cfg.Watch.Enabled),
		slog.Bool("mcp", app.mcp),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker. The latest location and theme are replayed to new shells.
	broker := sse.NewBroker(sse.EventLocationOpen, sse.EventThemeChanged)
	defer broker.Close()

	deps, err := viewer.Build(dir, cfg.Display.Display(), broker, logger)
	if err != nil {
		return fmt.Errorf("init viewer: %w", err)
	}
	deps.Retention = cfg.Retention.Policy()

	var (
		v       *viewer.Viewer
		watcher *watch.Watcher
	)
	if cfg.Watch.Enabled {
		watcher = watch.New(cfg.Watch.Debounce(), logger, func(path string) {
			v.ReloadIfChanged(path)
		})
		deps.Watcher = watcher
	}

	v, err = viewer.New(deps)
	if err != nil {
		return fmt.Errorf("init viewer: %w", err)
	}

	if app.file != "" {
		if err := v.Open(app.file); err != nil {
			return fmt.Errorf("open %s: %w", app.file, err)
		}
	}

	apiRouter := api.NewRouter(v, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)
	assets := api.NewAssetHandler(v)

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

	// Shell page and document assets.
	r.Get("/", api.ShellHandler("mdview", deps.App))
	r.Get("/assets/*", assets.ServeFile)

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	gCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(gCtx)

	// Follow the current document on disk.
	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(gCtx)
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

	// MCP over stdio. The session ends when the client closes stdin.
	if app.mcp {
		mcpSrv := mcpserver.New(v, app.version)
		g.Go(func() error {
			defer cancel()
			logger.Info("Starting MCP server on stdio")
			if err := mcpSrv.ServeStdio(); err != nil {
				return fmt.Errorf("MCP server error: %w", err)
			}
			return nil
		})
	}

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
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

// History prints the recent files list, most recent first. With clear the
// list is emptied first.
func History(clear bool, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(app.config)
	dir, err := storageDir(app.config)
	if err != nil {
		return err
	}

	appSettings, err := settings.OpenApplication(dir, nil, logger)
	if err != nil {
		return err
	}
	history, err := filehistory.Open(dir, appSettings, logger)
	if err != nil {
		return err
	}
	if clear {
		history.Clear("")
		logger.Info("File history cleared")
	}
	return printLines(app.out, history.Files())
}

func printLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
