package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Service holds process-level settings shared by all binaries.
type Service struct {
	Environment string `envconfig:"SERVICE_ENVIRONMENT" default:"development"`
	APIPort     string `envconfig:"SERVICE_API_PORT" default:"8088"`
}

// SQS configures the ingest queue. Endpoint is only set for local
// development against ElasticMQ/LocalStack.
type SQS struct {
	Endpoint string `envconfig:"SQS_ENDPOINT"`
	QueueURL string `envconfig:"SQS_QUEUE_URL" required:"true"`
	Region   string `envconfig:"SQS_REGION" default:"us-east-1"`
}

// S3 configures the object store and the medallion buckets.
type S3 struct {
	Endpoint  string `envconfig:"S3_ENDPOINT" default:"http://localhost:9000"`
	Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	AccessKey string `envconfig:"MINIO_ROOT_USER" default:"admin"`
	SecretKey string `envconfig:"MINIO_ROOT_PASSWORD" default:"adminadmin"`
	RawBucket string `envconfig:"S3_BUCKET_RAW" default:"dp-raw"`
	Bronze    string `envconfig:"S3_BUCKET_BRONZE" default:"dp-bronze"`
	Silver    string `envconfig:"S3_BUCKET_SILVER" default:"dp-silver"`
	Gold      string `envconfig:"S3_BUCKET_GOLD" default:"dp-gold"`
}

// ClickHouse configures the gold serving store.
type ClickHouse struct {
	Host            string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port            string `envconfig:"CLICKHOUSE_PORT" default:"9440"`
	Database        string `envconfig:"CLICKHOUSE_DB" default:"attribution"`
	User            string `envconfig:"CLICKHOUSE_USER" default:""`
	Password        string `envconfig:"CLICKHOUSE_PASSWORD" default:""`
	UseTLS          bool   `envconfig:"CLICKHOUSE_USE_TLS" default:"false"`
	MaxOpenConns    int    `envconfig:"CLICKHOUSE_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int    `envconfig:"CLICKHOUSE_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime int    `envconfig:"CLICKHOUSE_CONN_MAX_LIFETIME_SEC" default:"3600"`
}

// Chain configures the onchain ingestor polling mempool.space.
type Chain struct {
	APIBase        string `envconfig:"MEMPOOL_API_BASE" default:"https://mempool.space/api"`
	MempoolPollSec int    `envconfig:"CHAIN_MEMPOOL_POLL_SEC" default:"5"`
	BlocksPollSec  int    `envconfig:"CHAIN_BLOCKS_POLL_SEC" default:"60"`
}

// Consumer configures the queue-draining pipeline.
type Consumer struct {
	BatchSizeMax    int    `envconfig:"CONSUMER_BATCH_SIZE_MAX" default:"500"`
	BatchTimeoutSec int    `envconfig:"CONSUMER_BATCH_TIMEOUT_SEC" default:"10"`
	HealthCheckPort string `envconfig:"CONSUMER_HEALTH_CHECK_PORT" default:"8081"`
}

// Attribution configures the analytical core. Non-positive values here are
// a fatal configuration error detected at startup.
type Attribution struct {
	SessionTimeoutMin     int     `envconfig:"SESSION_TIMEOUT_MIN" default:"30"`
	LookbackDays          int     `envconfig:"ATTR_LOOKBACK_DAYS" default:"7"`
	TimeDecayHalflifeDays float64 `envconfig:"ATTR_TIMEDECAY_HALFLIFE_D" default:"7"`
	GoldWorkers           int     `envconfig:"GOLD_WORKERS" default:"4"`
}

type Config struct {
	Service     Service
	SQS         SQS
	S3          S3
	Chain       Chain
	ClickHouse  ClickHouse
	Consumer    Consumer
	Attribution Attribution
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Attribution.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects attribution settings the core cannot run with.
func (a Attribution) Validate() error {
	if a.SessionTimeoutMin <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT_MIN must be positive, got %d", a.SessionTimeoutMin)
	}
	if a.LookbackDays <= 0 {
		return fmt.Errorf("ATTR_LOOKBACK_DAYS must be positive, got %d", a.LookbackDays)
	}
	if a.TimeDecayHalflifeDays <= 0 {
		return fmt.Errorf("ATTR_TIMEDECAY_HALFLIFE_D must be positive, got %v", a.TimeDecayHalflifeDays)
	}
	if a.GoldWorkers <= 0 {
		return fmt.Errorf("GOLD_WORKERS must be positive, got %d", a.GoldWorkers)
	}
	return nil
}
