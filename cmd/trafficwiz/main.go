package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/WebbOfCode/TrafficWIz/internal/api"
	"github.com/WebbOfCode/TrafficWIz/internal/config"
	"github.com/WebbOfCode/TrafficWIz/internal/here"
	"github.com/WebbOfCode/TrafficWIz/internal/ingestion"
	"github.com/WebbOfCode/TrafficWIz/internal/logging"
	"github.com/WebbOfCode/TrafficWIz/internal/observability"
	"github.com/WebbOfCode/TrafficWIz/internal/repository"
	"github.com/WebbOfCode/TrafficWIz/internal/tomtom"
	"github.com/WebbOfCode/TrafficWIz/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	metrics := observability.NewMetrics()

	// Sources are built unconditionally from validated config; the
	// enabled flags only decide which ones participate.
	var sources []ingestion.Source
	if cfg.Sources.HereEnabled {
		sources = append(sources, here.NewClientWithBaseURL(
			cfg.Sources.HereAPIKey, cfg.Sources.HereBaseURL, cfg.Sources.RequestTimeout, slog.Default()))
	}
	if cfg.Sources.TomTomEnabled {
		sources = append(sources, tomtom.NewClientWithBaseURL(
			cfg.Sources.TomTomAPIKey, cfg.Sources.TomTomBaseURL, cfg.Sources.RequestTimeout, slog.Default()))
	}
	if len(sources) == 0 {
		slog.Warn("no incident sources configured; serving stored data only")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector := ingestion.NewCollector(cfg, db, metrics, sources...)
	collector.Start(ctx)

	pool := worker.NewFetchPool(cfg.Proxy.Workers, cfg.Proxy.QueueSize)
	pool.Start(ctx)

	var (
		ingestor *ingestion.Ingestor
		proxy    *ingestion.Proxy
	)
	if len(sources) > 0 {
		primary := sources[0]
		ingestor = ingestion.NewIngestor(primary, db, metrics, cfg.Center())
		proxy = ingestion.NewProxy(primary, pool, metrics, cfg.Center(), cfg.Proxy)
	}

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(10, 20))

	handler := api.NewHandler(db, ingestor, proxy, cfg)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	collector.Stop()
	pool.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
