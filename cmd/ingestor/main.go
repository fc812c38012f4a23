package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rirts/attribution-os/internal/chain"
	"github.com/rirts/attribution-os/internal/config"
	"github.com/rirts/attribution-os/internal/logger"
	"github.com/rirts/attribution-os/internal/objectstore"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting onchain ingestor",
		zap.String("environment", cfg.Service.Environment),
		zap.String("api_base", cfg.Chain.APIBase),
		zap.String("bucket", cfg.S3.RawBucket))

	ctx := context.Background()

	// Initialize object store and raw landing bucket
	store, err := objectstore.NewClient(ctx, cfg.S3, log)
	if err != nil {
		log.Fatal("Failed to create S3 client", zap.Error(err))
	}
	if err := store.EnsureBucket(ctx, cfg.S3.RawBucket); err != nil {
		log.Fatal("Failed to ensure raw bucket", zap.Error(err))
	}

	ingestor := chain.NewIngestor(store, cfg.S3.RawBucket, cfg.Chain.APIBase, log)

	ingestorCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		ingestor.Start(ingestorCtx,
			time.Duration(cfg.Chain.MempoolPollSec)*time.Second,
			time.Duration(cfg.Chain.BlocksPollSec)*time.Second)
		close(done)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down onchain ingestor gracefully")
	cancel()
	<-done
}
