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

	"github.com/starford/sowilo/internal/api"
	"github.com/starford/sowilo/internal/assembler"
	"github.com/starford/sowilo/internal/catalog"
	"github.com/starford/sowilo/internal/collection"
	"github.com/starford/sowilo/internal/parser"
	"github.com/starford/sowilo/internal/recordservice"
	"github.com/starford/sowilo/internal/sse"
	"github.com/starford/sowilo/internal/vault"
)

// stack is the wired set of components shared by every command.
type stack struct {
	cfg     *Config
	logger  *slog.Logger
	db      *catalog.DB
	indexer *collection.Indexer
	svc     *recordservice.Service
}

func newApplication(opts []Option) (*application, error) {
	app := &application{logOut: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func (a *application) open(extra ...collection.Option) (*stack, error) {
	cfg := a.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(a.logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Int("base_folders", len(cfg.Collection.BaseFolders)),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	v, err := vault.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init vault: %w", err)
	}

	db, err := catalog.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init catalog: %w", err)
	}

	p := parser.New(cfg.Collection.SettingsKeys, logger)
	asm := assembler.New(v, p, logger)
	copts := append([]collection.Option{
		collection.WithWorkers(cfg.Collection.Workers),
		collection.WithCatalog(db),
		collection.WithLogger(logger),
	}, extra...)
	indexer := collection.New(v, asm, cfg.Collection.BaseFolders, copts...)

	return &stack{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		indexer: indexer,
		svc:     recordservice.NewService(v, asm, indexer, db),
	}, nil
}

func (s *stack) close() {
	if err := s.db.Close(); err != nil {
		s.logger.Warn("catalog close failed", slog.String("error", err.Error()))
	}
}

// Exec wires the components, runs fn against the record service, and
// releases everything afterwards. Batch CLI commands and the MCP server use it.
func Exec(ctx context.Context, fn func(ctx context.Context, svc *recordservice.Service) error, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	st, err := app.open()
	if err != nil {
		return err
	}
	defer st.close()
	return fn(ctx, st.svc)
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	// SSE broker, fed by collection change events.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	st, err := app.open(collection.WithEventFunc(broker.OnChange))
	if err != nil {
		return err
	}
	defer st.close()

	cfg, logger := st.cfg, st.logger

	if cfg.Collection.RebuildOnStart {
		report, err := st.indexer.RebuildAll(ctx, nil)
		switch {
		case err != nil:
			logger.Warn("initial rebuild failed", slog.String("error", err.Error()))
		case !report.OK():
			logger.Warn("initial rebuild had failures", slog.String("error", report.Err().Error()))
		}
	}

	apiRouter := api.NewRouter(st.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	// Event streams only end when their channel closes.
	httpServer.RegisterOnShutdown(broker.Close)

	g, gCtx := errgroup.WithContext(ctx)

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

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
