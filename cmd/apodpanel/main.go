package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	nasaadapter "github.com/apodpanel/apodpanel/internal/adapter/driven/nasa"
	sqliteadapter "github.com/apodpanel/apodpanel/internal/adapter/driven/sqlite"
	httphandler "github.com/apodpanel/apodpanel/internal/adapter/driving/http"
	"github.com/apodpanel/apodpanel/internal/adapter/driving/web"
	"github.com/apodpanel/apodpanel/internal/application"
	"github.com/apodpanel/apodpanel/internal/config"
	"github.com/apodpanel/apodpanel/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid values).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"key_storage", cfg.HasSecretKey(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Metrics registry and collector.
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 6. Wire driven adapters.
	keyStore := sqliteadapter.NewKeyRepo(db, cfg.SecretKey)
	prefStore := sqliteadapter.NewPreferenceRepo(db)
	baseURL := cfg.APODBaseURL
	if baseURL == "" {
		baseURL = nasaadapter.DefaultBaseURL
	}
	apodClient := nasaadapter.NewClientWithBaseURL(cfg.HTTPTimeout, collector, baseURL)
	if !cfg.HasSecretKey() {
		slog.Info("no secret key configured, personal key storage disabled, using the shared demo key")
	}

	// 7. Application services.
	keySvc := application.NewKeyService(keyStore)
	rangeSvc := application.NewRangeService()
	gallerySvc := application.NewGalleryService(apodClient, keySvc, rangeSvc, collector)
	factSvc := application.NewFactService()
	shareSvc := application.NewShareService()

	// 8. HTTP handler, API routes, GUI routes, metrics endpoint.
	apiHandler := httphandler.NewHandler(gallerySvc, keySvc, rangeSvc, factSvc, shareSvc, prefStore, slog.Default())
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, apiHandler)
	web.RegisterRoutes(mux)
	mux.Handle("GET /metrics", metrics.Handler(registry))

	handler := httphandler.ApplyMiddleware(mux, slog.Default(), collector)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("apodpanel started", "listen_addr", cfg.ListenAddr)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
