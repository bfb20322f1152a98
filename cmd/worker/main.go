package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"attendtrack/internal/attendance"
	"attendtrack/internal/config"
	"attendtrack/internal/export"
	"attendtrack/internal/queue"
	"attendtrack/internal/share"
	"attendtrack/internal/store"
)

// Worker consumes change messages and rewrites (and optionally shares) the
// export file.
func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if cfg.QueueBackend != "redis" {
		log.Fatalf("worker needs QUEUE_BACKEND=redis; the memory queue is drained inside the api")
	}
	if cfg.StoreBackend == store.BackendMemory {
		log.Fatalf("worker cannot read a memory store owned by another process")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	opened, err := store.Open(ctx, store.Options{
		Backend:     cfg.StoreBackend,
		SQLitePath:  cfg.SQLitePath,
		DatabaseURL: cfg.DatabaseURL,
		Redis:       redisClient,
		RedisPrefix: cfg.RedisPrefix,
	})
	if err != nil {
		log.Fatalf("store open failed: %v", err)
	}
	defer func() { _ = opened.Close() }()

	repo := attendance.NewRepository(opened.KV)
	w := &export.Worker{Source: repo, Dir: cfg.ExportDir, Reload: repo.Refresh}
	if cfg.CloudinaryConfigured() {
		w.Uploader = share.New(cfg.Share())
		log.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	} else {
		log.Println("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
	}

	q := queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)
	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	w.Run(ctx, messages)
	log.Println("worker stopped")
}
