package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"olist-dashboard/internal/config"
	"olist-dashboard/internal/dataset"
	"olist-dashboard/internal/middleware"
	"olist-dashboard/internal/observability"
	"olist-dashboard/internal/server"
	"olist-dashboard/internal/services"
	"olist-dashboard/internal/ui/templates"
)

const (
	pageTitle   = "Olist Store Dashboard"
	cacheMaxAge = "public, max-age=300"
)

func dashboardPage(dashboard *services.Dashboard, renderTimeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		bounds, err := dashboard.Bounds()
		if err != nil {
			http.Error(w, "dataset has no approved orders", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", cacheMaxAge)
		page := templates.Page{Title: pageTitle, Bounds: bounds, TopN: dashboard.TopN()}
		if err := templates.Dashboard(page).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"csv_file", cfg.Dataset.CSVFile,
		"addr", cfg.Address(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Dataset.LoadTimeout)
	defer cancel()

	start := time.Now()
	loader := dataset.NewLoader(cfg.Dataset.CacheDir, logger)
	snapshot, err := loader.LoadFile(ctx, cfg.Dataset.CSVFile)
	if err != nil {
		logger.Error("failed to load dataset", "path", cfg.Dataset.CSVFile, "error", err)
		os.Exit(1)
	}
	if _, ok := snapshot.Bounds(); !ok {
		logger.Error("dataset has no approved orders", "path", cfg.Dataset.CSVFile)
		os.Exit(1)
	}
	logger.Info("dataset loaded", "rows", snapshot.Len(), "duration", time.Since(start))

	dashboard := services.NewDashboard(snapshot, cfg.Dashboard.TopN, logger)

	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardPage(dashboard, cfg.Dashboard.RenderTimeout),
	}

	srv := server.NewServer(dashboard, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      middlewareChain(srv),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down dashboard", "stats", dashboard.Stats())
		return nil
	})

	if err := gracefulServer.ListenAndServe(context.Background()); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
