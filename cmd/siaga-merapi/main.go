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

	"github.com/mr1hm/siaga-merapi/internal/api"
	"github.com/mr1hm/siaga-merapi/internal/backend"
	"github.com/mr1hm/siaga-merapi/internal/config"
	internalgrpc "github.com/mr1hm/siaga-merapi/internal/grpc"
	"github.com/mr1hm/siaga-merapi/internal/ingestion"
	"github.com/mr1hm/siaga-merapi/internal/logging"
	"github.com/mr1hm/siaga-merapi/internal/navigation"
	"github.com/mr1hm/siaga-merapi/internal/observability"
	"github.com/mr1hm/siaga-merapi/internal/repository"
	"github.com/mr1hm/siaga-merapi/internal/routing"
	"github.com/mr1hm/siaga-merapi/internal/status"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Tracing.Enabled, "siaga-merapi")
	if err != nil {
		logging.Fatalf("Failed to set up tracing: %v", err)
	}
	defer observability.ShutdownTracing(shutdownTracing)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	var persist status.Persistence = db
	if cfg.Status.Backend == "redis" {
		rc := status.OpenRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rc.Close()
		persist = status.NewRedisPersistence(rc)
		slog.Info("status persisted in redis", "addr", cfg.Redis.Addr)
	}

	store, err := status.NewStore(ctx, persist)
	if err != nil {
		logging.Fatalf("Failed to initialize status store: %v", err)
	}

	crud := backend.NewClient(cfg.Backend.URL, cfg.Backend.Token, cfg.Backend.Timeout)

	// Start shelter sync
	mgr := ingestion.NewManager(cfg, crud, db)
	mgr.Start(ctx)

	nav := navigation.NewManager(routing.NewOSRMClient(cfg.Routing.URL, cfg.Routing.Timeout), navigation.Options{
		Debounce: cfg.Routing.Debounce,
		Timeout:  cfg.Routing.Timeout,
		TTL:      cfg.Routing.SessionTTL,
	})
	nav.Start(ctx)

	// Start gRPC server
	grpcServer := internalgrpc.NewServer(store, db)
	go func() {
		grpcAddr := fmt.Sprintf(":%d", cfg.GRPC.Port)
		if err := grpcServer.Start(grpcAddr); err != nil {
			logging.Fatalf("gRPC server error: %v", err)
		}
	}()

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestLogger())
	router.Use(api.MetricsMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS))

	handler := api.NewHandler(api.Deps{
		Shelters:        db,
		Status:          store,
		Auth:            crud,
		Sync:            mgr,
		Navigation:      nav,
		LayersDir:       cfg.Server.LayersDir,
		CoverageRadiusM: cfg.Analysis.CoverageRadiusM,
	})
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
	mgr.Stop()
	nav.Stop()
	store.Close() // Close all status streams gracefully
	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
