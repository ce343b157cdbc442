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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/vaultsite/internal/api"
	"github.com/starford/vaultsite/internal/index"
	"github.com/starford/vaultsite/internal/markdown"
	"github.com/starford/vaultsite/internal/mcpserver"
	"github.com/starford/vaultsite/internal/noteservice"
	"github.com/starford/vaultsite/internal/report"
	"github.com/starford/vaultsite/internal/site"
	"github.com/starford/vaultsite/internal/sse"
	"github.com/starford/vaultsite/internal/storage"
	"github.com/starford/vaultsite/internal/templates"
	"github.com/starford/vaultsite/internal/watch"
)

const shutdownTimeout = 10 * time.Second

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stderr, stdout: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func (a *application) logger() *slog.Logger {
	hopts := &slog.HandlerOptions{Level: a.config.App.LogLevel}
	var h slog.Handler
	if a.config.App.LogFormat == LogFormatJSON {
		h = slog.NewJSONHandler(a.logOutput, hopts)
	} else {
		h = slog.NewTextHandler(a.logOutput, hopts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// builder wires templates, the Markdown renderer and output storage into a
// site builder.
func (a *application) builder(logger *slog.Logger, liveReload bool) (*site.Builder, error) {
	cfg := a.config

	set, err := templates.Load(cfg.Site.Templates)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	out, err := storage.NewFS(cfg.Site.Output)
	if err != nil {
		return nil, fmt.Errorf("init output: %w", err)
	}
	return site.New(site.Options{
		VaultDir:  cfg.Vault.Path,
		Output:    out,
		Templates: set,
		Markdown: markdown.New(markdown.Options{
			HighlightStyle: cfg.Markdown.HighlightStyle,
			HardWraps:      cfg.Markdown.HardWraps,
		}),
		Title:      cfg.Site.Title,
		TagPages:   cfg.Site.TagPages,
		LiveReload: liveReload,
		Logger:     logger,
	})
}

// Build performs a single site build and, when an index path is configured,
// records it in the SQLite index.
func Build(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("output_path", cfg.Site.Output),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	b, err := app.builder(logger, false)
	if err != nil {
		return err
	}
	printer := report.New(app.stdout)
	printer.Heading(cfg.Site.Title)
	res, err := b.Build(ctx)
	if err != nil {
		printer.Failed(err)
		return err
	}
	printer.Built(res, b.OutputDir())

	if !cfg.SQLite.Enabled() {
		return nil
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()
	if err := index.Sync(db, res, logger); err != nil {
		return fmt.Errorf("sync index: %w", err)
	}
	logger.Info("Index updated", slog.String("sqlite_path", cfg.SQLite.Path), slog.Int("pages", len(res.Pages)))
	return nil
}

// Serve builds the site, serves it with the JSON API and, when enabled,
// rebuilds on vault changes until ctx is cancelled or a signal arrives.
func Serve(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.Serve.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("output_path", cfg.Site.Output),
		slog.Bool("watch", cfg.Serve.Watch),
		slog.String("log_level", cfg.App.LogLevel.String()))

	b, err := app.builder(logger, cfg.Serve.Watch)
	if err != nil {
		return err
	}

	db, err := index.Open(cfg.SQLite.DSN())
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	broker := sse.NewBroker(0)
	svc := noteservice.NewService(b, db, broker, logger)

	// A broken vault should not keep the server down; the watcher retries.
	if _, err := svc.Rebuild(ctx); err != nil {
		logger.Error("initial build failed", slog.String("error", err.Error()))
	}

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
		if _, err := svc.LastBuild(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"building"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", api.NewRouter(svc, cfg.Serve.Auth.AuthEnabled(), cfg.Serve.Auth.Token, broker))

	// Everything else is the generated site.
	r.Handle("/*", http.FileServer(http.Dir(b.OutputDir())))

	httpServer := &http.Server{
		Addr:              cfg.Serve.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Serve.Watch {
		g.Go(func() error {
			return watch.Watch(gCtx, watch.Options{
				Root:     b.VaultDir(),
				Ignore:   []string{b.OutputDir()},
				Debounce: cfg.Serve.Debounce,
				Logger:   logger,
			}, svc.OnChanges)
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.Serve.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")

		// Open event streams only end once the broker closes them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
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

// MCP builds the site and exposes build, search and wikilink tools over
// stdio.
func MCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	b, err := app.builder(logger, false)
	if err != nil {
		return err
	}
	db, err := index.Open(cfg.SQLite.DSN())
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	svc := noteservice.NewService(b, db, nil, logger)
	if _, err := svc.Rebuild(ctx); err != nil {
		logger.Error("initial build failed", slog.String("error", err.Error()))
	}

	logger.Info("MCP server starting on stdio", slog.String("version", app.version))
	return mcpserver.New(svc, app.version).ServeStdio()
}
