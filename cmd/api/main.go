package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xelth-com/cotaqc/internal/buildinfo"
	"github.com/xelth-com/cotaqc/internal/config"
	"github.com/xelth-com/cotaqc/internal/database"
	"github.com/xelth-com/cotaqc/internal/handlers"
	"github.com/xelth-com/cotaqc/internal/repository"
	"github.com/xelth-com/cotaqc/internal/services/qc"
	"github.com/xelth-com/cotaqc/internal/storage"
	"github.com/xelth-com/cotaqc/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Versioned migrations
	log.Println("🚀 Migrating database schema...")
	if err := db.Migrate(); err != nil {
		db.Close()
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Schema up to date")

	// 4. Blob storage
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var blobs storage.BlobStore
	var closeBlobs func() error
	switch cfg.Storage.Driver {
	case "gcs":
		gcs, err := storage.NewGCSStore(ctx, cfg.Storage.GCSBucket, cfg.Storage.GCSCredentials)
		if err != nil {
			db.Close()
			log.Fatalf("❌ Failed to open bucket %s: %v", cfg.Storage.GCSBucket, err)
		}
		blobs, closeBlobs = gcs, gcs.Close
		log.Printf("☁️ Drawings stored in gs://%s", cfg.Storage.GCSBucket)
	default:
		local, err := storage.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.PublicBaseURL)
		if err != nil {
			db.Close()
			log.Fatalf("❌ Failed to prepare upload dir: %v", err)
		}
		blobs = local
		log.Printf("📁 Drawings stored in %s", cfg.Storage.UploadDir)
	}

	// 5. Live events, services and router
	hub := websocket.NewHub()
	go hub.Run(ctx)

	repo := repository.New(db.DB)
	svc := qc.NewService(repo, blobs, qc.WithPublisher(hub))
	router := handlers.NewRouter(cfg, svc, repo, hub)

	// 6. Start server with graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.Printf("🚀 cotaqc %s (%s) starting on port %s", buildinfo.Version, cfg.NodeEnv, cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Printf("⚠️  Received signal: %v. Shutting down gracefully...", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	stop()

	if closeBlobs != nil {
		if err := closeBlobs(); err != nil {
			log.Printf("Blob store close error: %v", err)
		}
	}

	// Close database (this also stops embedded PostgreSQL)
	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
