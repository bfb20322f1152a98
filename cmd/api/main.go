package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attendtrack/internal/attendance"
	"attendtrack/internal/auth"
	"attendtrack/internal/config"
	"attendtrack/internal/export"
	"attendtrack/internal/handler"
	"attendtrack/internal/httpmiddleware"
	"attendtrack/internal/metrics"
	"attendtrack/internal/queue"
	"attendtrack/internal/settings"
	"attendtrack/internal/share"
	"attendtrack/internal/store"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	debugf := cfg.Debugf(log.Default())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisClient *store.Redis
	if cfg.StoreBackend == store.BackendRedis || cfg.QueueBackend == "redis" {
		redisClient = store.NewRedis(cfg.RedisAddr)
		defer redisClient.Close()
	}

	opened, err := store.Open(ctx, store.Options{
		Backend:     cfg.StoreBackend,
		SQLitePath:  cfg.SQLitePath,
		DatabaseURL: cfg.DatabaseURL,
		Redis:       redisClient,
		RedisPrefix: cfg.RedisPrefix,
	})
	if err != nil {
		return err
	}
	defer func() { _ = opened.Close() }()
	log.Printf("store backend: %s", cfg.StoreBackend)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	repo := attendance.NewRepository(opened.KV, attendance.WithMetrics(m))
	if err := repo.Load(ctx); err != nil {
		// keep serving; /healthz reports the failure and /v1/refresh retries
		log.Printf("warning: initial load failed: %v", err)
	} else {
		courses, records := repo.Snapshot()
		debugf("loaded %d courses, %d records", len(courses), len(records))
	}

	// With the in-memory queue nobody else can see the changes, so the
	// exporter runs in this process.
	if cfg.QueueBackend == "memory" {
		msgs, err := q.Consume(ctx)
		if err != nil {
			return err
		}
		w := &export.Worker{Source: repo, Dir: cfg.ExportDir}
		if cfg.CloudinaryConfigured() {
			w.Uploader = share.New(cfg.Share())
		}
		go w.Run(ctx, msgs)
	}

	checks := map[string]handler.HealthCheck{"store": opened.Healthy}
	if cfg.QueueBackend == "redis" {
		checks["queue"] = redisClient.Healthy
	}
	h, err := handler.New(repo, settings.New(opened.KV), q, handler.Config{
		Issuer:     cfg.JWTIssuer,
		SigningKey: cfg.JWTSigningKey,
		AccessTTL:  cfg.AccessTTL,
	}, checks)
	if err != nil {
		return fmt.Errorf("handler setup: %w", err)
	}

	r := gin.New()

	// Recovery middleware
	r.Use(gin.Recovery())

	// Custom logger
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	r.Use(httpmiddleware.CORS(cfg.CORSOrigins))
	r.Use(httpmiddleware.SecurityHeaders())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin, m.RateLimited)
	h.Register(r, auth.ClientAuth(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.AuthRequired), limiter.GinMiddleware())

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}
