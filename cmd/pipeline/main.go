package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rirts/attribution-os/internal/attribution"
	"github.com/rirts/attribution-os/internal/bronze"
	"github.com/rirts/attribution-os/internal/config"
	"github.com/rirts/attribution-os/internal/gold"
	"github.com/rirts/attribution-os/internal/logger"
	"github.com/rirts/attribution-os/internal/objectstore"
	"github.com/rirts/attribution-os/internal/repository"
	"github.com/rirts/attribution-os/internal/repository/clickhouse"
	"github.com/rirts/attribution-os/internal/silver"
)

func main() {
	date := flag.String("date", time.Now().UTC().Format(attribution.DateLayout),
		"ingest date to process (YYYY-MM-DD, UTC)")
	skipServe := flag.Bool("skip-serve", false,
		"skip loading gold output into ClickHouse")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

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

	if _, err := time.Parse(attribution.DateLayout, *date); err != nil {
		log.Fatal("Invalid --date", zap.String("date", *date), zap.Error(err))
	}

	log.Info("Starting pipeline run",
		zap.String("environment", cfg.Service.Environment),
		zap.String("date", *date))

	ctx := context.Background()

	store, err := objectstore.NewClient(ctx, cfg.S3, log)
	if err != nil {
		log.Fatal("Failed to create S3 client", zap.Error(err))
	}

	// Bronze: raw JSONL to typed parquet
	bronzeKeys, err := bronze.NewStage(store, cfg.S3.RawBucket, cfg.S3.Bronze, log).Run(ctx, *date)
	if err != nil {
		log.Fatal("Bronze stage failed", zap.Error(err))
	}
	log.Info("Bronze stage complete", zap.Int("part_count", len(bronzeKeys)))

	// Silver: normalize and deduplicate
	silverKeys, err := silver.NewStage(store, cfg.S3.Bronze, cfg.S3.Silver, log).Run(ctx, *date)
	if err != nil {
		log.Fatal("Silver stage failed", zap.Error(err))
	}
	log.Info("Silver stage complete", zap.Int("part_count", len(silverKeys)))

	// Gold: sessionization and attribution over the full silver history
	var repo *clickhouse.Repository
	if !*skipServe {
		chClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
		if err != nil {
			log.Fatal("Failed to create ClickHouse client", zap.Error(err))
		}
		defer func() {
			if err := chClient.Close(); err != nil {
				log.Error("Failed to close ClickHouse client", zap.Error(err))
			}
		}()

		repo = clickhouse.NewRepository(chClient, log)
		if err := repo.InitSchema(ctx); err != nil {
			log.Fatal("Failed to initialize schema", zap.Error(err))
		}
	}

	attrCfg := attribution.Config{
		SessionTimeout: time.Duration(cfg.Attribution.SessionTimeoutMin) * time.Minute,
		Lookback:       time.Duration(cfg.Attribution.LookbackDays) * 24 * time.Hour,
		DecayHalfLife:  time.Duration(cfg.Attribution.TimeDecayHalflifeDays * float64(24*time.Hour)),
	}

	var goldRepo repository.GoldRepository
	if repo != nil {
		goldRepo = repo
	}
	builder := gold.NewBuilder(store, goldRepo, cfg.S3.Silver, cfg.S3.Gold,
		attrCfg, cfg.Attribution.GoldWorkers, log)

	result, err := builder.Run(ctx)
	if err != nil {
		log.Fatal("Gold stage failed", zap.Error(err))
	}

	log.Info("Pipeline run complete",
		zap.String("date", *date),
		zap.Int("events_seen", result.EventsSeen),
		zap.Int("users_seen", result.UsersSeen),
		zap.Int("session_count", result.Sessions),
		zap.Int("attribution_rows", result.Rows),
		zap.Strings("gold_parts", result.PartKeys))
}
