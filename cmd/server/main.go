package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tabtrail/tabtrail/internal/ai"
	"github.com/tabtrail/tabtrail/internal/api"
	"github.com/tabtrail/tabtrail/internal/command"
	"github.com/tabtrail/tabtrail/internal/ratelimit"
	"github.com/tabtrail/tabtrail/internal/reconcile"
	"github.com/tabtrail/tabtrail/internal/snapshot"
	"github.com/tabtrail/tabtrail/internal/store"
)

const (
	defaultAddr    = "127.0.0.1:21890"
	defaultDataDir = "./data"

	retentionDays   = 7
	cleanupInterval = 6 * time.Hour

	// The analyze and report endpoints hold the response open for the
	// whole model call, so the write timeout must outlast it.
	writeTimeout = ai.RequestTimeout + 30*time.Second
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	log.Println("Starting Tabtrail...")

	addr := envOr("TABTRAIL_ADDR", defaultAddr)
	dataDir := envOr("TABTRAIL_DATA_DIR", defaultDataDir)

	// Initialize snapshot store
	snaps, err := snapshot.New(dataDir)
	if err != nil {
		log.Fatalf("Failed to create snapshot store: %v", err)
	}
	log.Println("✓ Snapshot store initialized")

	// Initialize tab record store
	recordStore, err := store.New(dataDir)
	if err != nil {
		log.Fatalf("Failed to create tab store: %v", err)
	}
	log.Println("✓ Tab record store initialized")

	settings := store.NewSettingsStore(dataDir)
	reports := store.NewReportStore(dataDir)
	log.Println("✓ Settings and report stores initialized")

	// Initialize reconciliation engine
	engine := reconcile.New(recordStore, snaps)
	log.Println("✓ Reconciliation engine initialized")

	// Command hub for pushing refresh/close commands to the extension
	hub := command.NewHub()
	log.Println("✓ Command hub initialized")

	aiClient := ai.NewClient()

	// Rate limiter for the AI endpoints (100 requests/hour, burst of 10)
	rateLimiter := ratelimit.NewLimiter(100, 10)
	log.Println("✓ Rate limiter initialized (100 req/hour per client)")

	// Cleanup old closed tabs on startup
	go func() {
		if count := engine.Cleanup(retentionDays); count > 0 {
			if err := recordStore.Persist(); err != nil {
				log.Printf("Failed to persist tabs after cleanup: %v", err)
			}
			log.Printf("[Startup] Cleaned up %d old tabs", count)
		}
		total, open, closed := recordStore.Stats()
		log.Printf("[Startup] Storage stats: %d total, %d open, %d closed tabs", total, open, closed)
	}()

	// Periodic retention pass
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if count := engine.Cleanup(retentionDays); count > 0 {
					if err := recordStore.Persist(); err != nil {
						log.Printf("Failed to persist tabs after cleanup: %v", err)
					}
				}
				rateLimiter.Evict(cleanupInterval)
			case <-cleanupDone:
				return
			}
		}
	}()

	// Setup HTTP handlers
	handler := api.NewHandler(recordStore, snaps, engine, settings, reports, aiClient, hub)
	router := handler.SetupRoutes(rateLimiter)
	log.Println("✓ HTTP routes configured")

	// Create HTTP server
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("🚀 Extension server listening on http://%s", addr)
		log.Println("📍 API endpoints available at /v1")
		log.Println("🔌 Extension channel: POST /event /capture /sync, WS /ws")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("\n⏳ Shutting down server gracefully...")
	close(cleanupDone)

	// Shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Final flush so nothing applied since the last handler persist is lost
	if err := recordStore.Persist(); err != nil {
		log.Printf("Failed to persist tabs on shutdown: %v", err)
	}

	log.Println("✅ Server stopped cleanly")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
