// Package app assembles the application: configuration, logging,
// metrics, the dashboard service, the websocket hub, and the HTTP
// router, plus server lifecycle with graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	gorillaws "github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"pmopulse/internal/config"
	apierrors "pmopulse/internal/errors"
	"pmopulse/internal/infrastructure"
	custommw "pmopulse/internal/middleware"
	"pmopulse/internal/services"
	handlers "pmopulse/internal/transport/http"
	ws "pmopulse/internal/websocket"
)

const AppName = "PMO Pulse"

// Application is the main application container
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	Metrics   *infrastructure.Metrics
	Router    *chi.Mux
	Server    *http.Server
	Dashboard *services.DashboardService
	Hub       *ws.Hub

	upgrader gorillaws.Upgrader
	frontend fs.FS
}

// NewApplication wires the application together. frontendFS, when not
// nil, is served at the root path as the dashboard UI shell.
func NewApplication(frontendFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", handlers.Version),
		slog.Int("port", cfg.Server.Port))

	metrics := infrastructure.NewMetrics()
	dashboard := services.NewDashboardService(cfg, logger, metrics)
	hub := ws.NewHub(logger)

	app := &Application{
		Config:    cfg,
		Logger:    logger,
		Metrics:   metrics,
		Dashboard: dashboard,
		Hub:       hub,
		upgrader:  ws.Upgrader(cfg.WebSocket, cfg.Security.AllowedOrigins),
		frontend:  frontendFS,
	}

	app.setupRouter()

	app.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        app.Router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return app, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)
	r.Use(custommw.StructuredLogger(a.Logger))
	r.Use(custommw.Recoverer(a.Logger))
	r.Use(custommw.SecurityHeaders)
	r.Use(custommw.Metrics(a.Metrics))

	if a.Config.Security.EnableCORS {
		r.Use(custommw.CORS(custommw.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
			Logger:         a.Logger,
		}))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(custommw.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	dashboardHandler := handlers.NewDashboardHandler(
		a.Dashboard, a.Logger, errorHandler, a.Config.Dataset.MaxUploadBytes)
	dashboardHandler.OnDatasetLoaded(a.Hub.DatasetReloaded)
	healthHandler := handlers.NewHealthHandler(a.Dashboard, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(custommw.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.VersionInfo)
		r.Mount("/", dashboardHandler.Routes())
	})

	r.Get("/ws", a.serveWebSocket)
	r.Handle("/metrics", a.Metrics.Handler())

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	if a.frontend != nil {
		r.Group(func(r chi.Router) {
			r.Use(custommw.Compress(5))
			r.Handle("/*", http.FileServer(http.FS(a.frontend)))
		})
	}

	a.Router = r
}

// serveWebSocket upgrades the connection and hands it to the hub
func (a *Application) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	ws.Serve(a.Hub, a.upgrader, a.Config.WebSocket, w, r)
}

// Run starts the hub and HTTP server and blocks until the context is
// cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Hub.Start()

	if err := a.Dashboard.LoadFallback(ctx); err != nil {
		// A broken fallback register should not keep the server down.
		a.Logger.Warn("fallback register load failed",
			slog.String("error", err.Error()))
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return a.shutdown()
	})

	return g.Wait()
}

// shutdown stops the server and hub within the configured timeout
func (a *Application) shutdown() error {
	a.Logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	err := a.Server.Shutdown(shutdownCtx)
	a.Hub.Stop()
	infrastructure.CloseLogFile()

	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
