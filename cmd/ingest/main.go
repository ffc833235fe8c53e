package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"ai-docchat-be/internal/bootstrap"
	"ai-docchat-be/internal/config"
	"ai-docchat-be/pkg/database"
)

// One-shot ingestion run: splits every source document into pages, extracts
// and packs chunks, and embeds them through the same pipeline the server uses.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Logger.Sync()

	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Fatalf("Failed to start consumer: %v", err)
	}

	log.Println("Starting document ingestion...")
	if err := container.IngestionService.IngestAll(ctx); err != nil {
		log.Fatalf("Ingestion failed: %v", err)
	}

	// Embed events are processed asynchronously; give the consumer time to
	// drain before the process exits.
	log.Println("Ingestion published; waiting for embedding consumer to drain...")
	select {
	case <-ctx.Done():
	case <-time.After(30 * time.Second):
	}
	log.Println("Done.")
}
