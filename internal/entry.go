// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/do/v2"
	"golang.org/x/sync/errgroup"

	"github.com/starford/catadmin/internal/journal"
	"github.com/starford/catadmin/internal/mcpserver"
	pkgconfig "github.com/starford/catadmin/pkg/config"
)

type runtime struct {
	cfg      *Config
	logger   *slog.Logger
	level    *slog.LevelVar
	injector *do.RootScope
	app      *application
}

func setup(opts []Option) (*runtime, error) {
	app := &application{version: "dev", logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. The level can change on config reload.
	level := new(slog.LevelVar)
	level.Set(cfg.App.LogLevel)
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("api_base_url", cfg.API.BaseURL),
		slog.String("journal_path", cfg.Journal.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		level:    level,
		injector: newContainer(cfg, logger, app.version),
		app:      app,
	}, nil
}

func (rt *runtime) shutdown() {
	if err := rt.injector.Shutdown(); err != nil {
		rt.logger.Error("Container shutdown error", slog.String("error", err.Error()))
	}
}

// watchConfig applies log level changes from the config file until ctx is done.
func (rt *runtime) watchConfig(ctx context.Context) error {
	if rt.app.configPath == "" {
		return nil
	}
	err := pkgconfig.Watch(ctx, rt.app.configPath, NewDefaultConfig, func(next *Config) {
		if next.App.LogLevel != rt.level.Level() {
			rt.logger.Info("Log level changed",
				slog.String("from", rt.level.Level().String()),
				slog.String("to", next.App.LogLevel.String()))
			rt.level.Set(next.App.LogLevel)
		}
	}, rt.logger)
	if err != nil {
		rt.logger.Warn("config watcher disabled", slog.String("error", err.Error()))
	}
	return nil
}

// Run starts the admin HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.shutdown()

	cfg, logger := rt.cfg, rt.logger

	handler, err := do.Invoke[http.Handler](rt.injector)
	if err != nil {
		return fmt.Errorf("init router: %w", err)
	}
	db := do.MustInvoke[*journal.DB](rt.injector)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: handler,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Hot reload of the log level.
	g.Go(func() error {
		return rt.watchConfig(gCtx)
	})

	// Journal retention.
	g.Go(func() error {
		journal.RunPruner(gCtx, db, cfg.Journal.Retention, cfg.Journal.PruneInterval, logger)
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

// RunMCP serves the catalog tools over stdio until stdin closes or ctx is
// done. Logs must not go to stdout in this mode; pass WithLogOutput.
func RunMCP(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.shutdown()

	srv, err := do.Invoke[*mcpserver.Server](rt.injector)
	if err != nil {
		return fmt.Errorf("init mcp server: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rt.watchConfig(gCtx)
	})

	g.Go(func() error {
		rt.logger.Info("MCP server listening on stdio")
		if err := srv.ServeStdio(); err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		rt.logger.Error("MCP server error", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// errShutdown stops sibling goroutines once a terminal one returns.
var errShutdown = errors.New("shutdown")
