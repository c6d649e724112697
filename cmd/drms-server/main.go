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
	"github.com/relieflabs/go-drms/internal/api"
	"github.com/relieflabs/go-drms/internal/auth"
	"github.com/relieflabs/go-drms/internal/config"
	"github.com/relieflabs/go-drms/internal/events"
	"github.com/relieflabs/go-drms/internal/locks"
	"github.com/relieflabs/go-drms/internal/logging"
	"github.com/relieflabs/go-drms/internal/metrics"
	"github.com/relieflabs/go-drms/internal/repository"
	"github.com/relieflabs/go-drms/internal/summary"
	"github.com/relieflabs/go-drms/internal/verification"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup("drms-server", cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broadcaster := events.NewBroadcaster()
	m := metrics.New()

	engine := verification.NewEngine(db, db, db, db, broadcaster, m)

	authSvc := auth.NewService(db, cfg.Auth.SessionTTL)
	if cfg.Auth.AdminEmail != "" {
		if err := authSvc.Bootstrap(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			logging.Fatalf("Failed to bootstrap admin user: %v", err)
		}
	}

	lockMgr := locks.NewManager(cfg.Locks.TTL)

	recomputer := summary.NewRecomputer(cfg.Summary.WorkerCount, cfg.Summary.BufferSize, db, db, broadcaster, m)
	recomputer.Start(ctx)

	// Periodic housekeeping: expired sessions and stale edit locks.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := authSvc.PurgeExpired(ctx); err != nil {
					slog.Warn("session purge failed", "error", err)
				}
				lockMgr.Sweep()
			}
		}
	}()

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RequestIDMiddleware())
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS))
	router.Use(api.MetricsMiddleware(m))

	handler := api.NewHandler(db, engine, authSvc, lockMgr, broadcaster)
	handler.RegisterRoutes(router, m)

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
	recomputer.Stop()
	broadcaster.Close() // Close all streams gracefully

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
