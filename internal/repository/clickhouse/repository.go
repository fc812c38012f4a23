package clickhouse

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rirts/attribution-os/internal/domain"
)

// Repository implements repository.GoldRepository for ClickHouse
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new ClickHouse repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema creates the gold tables. Both are MergeTree tables partitioned
// by calendar date so a recomputed period replaces cheaply at the partition
// level.
func (r *Repository) InitSchema(ctx context.Context) error {
	queries := []string{
		`
	CREATE TABLE IF NOT EXISTS sessions (
		session_id String,
		user_key String,
		start_ts DateTime64(3, 'UTC'),
		end_ts DateTime64(3, 'UTC'),
		n_events UInt32,
		channels String,
		conv_count UInt32,
		conv_value_sum Float64
	) ENGINE = ReplacingMergeTree()
	PRIMARY KEY (session_id)
	ORDER BY (session_id, start_ts)
	PARTITION BY toDate(start_ts)
	SETTINGS index_granularity = 8192
	`,
		`
	CREATE TABLE IF NOT EXISTS attribution (
		conv_event_id String,
		conv_ts DateTime64(3, 'UTC'),
		conv_value Float64,
		model LowCardinality(String),
		channel LowCardinality(String),
		credit Float64
	) ENGINE = ReplacingMergeTree()
	PRIMARY KEY (conv_event_id, model, channel)
	ORDER BY (conv_event_id, model, channel)
	PARTITION BY toDate(conv_ts)
	SETTINGS index_granularity = 8192
	`,
	}

	for _, query := range queries {
		if err := r.client.Conn().Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to create gold table: %w", err)
		}
	}

	r.log.Info("ClickHouse schema initialized successfully")
	return nil
}

// InsertSessions inserts a batch of session summaries into ClickHouse
func (r *Repository) InsertSessions(ctx context.Context, sessions []domain.Session) (int, error) {
	if len(sessions) == 0 {
		return 0, nil
	}

	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO sessions")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare sessions batch: %w", err)
	}

	for _, s := range sessions {
		err := batch.Append(
			s.SessionID,
			s.UserKey,
			s.StartTS,
			s.EndTS,
			uint32(s.EventCount),
			s.Channels,
			uint32(s.ConversionCount),
			s.ConversionValueSum,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to append session to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send sessions batch: %w", err)
	}

	return len(sessions), nil
}

// InsertAttributionRows inserts a batch of attribution rows into ClickHouse
func (r *Repository) InsertAttributionRows(ctx context.Context, rows []domain.AttributionRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO attribution")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare attribution batch: %w", err)
	}

	for _, row := range rows {
		err := batch.Append(
			row.ConversionEventID,
			row.ConversionTS,
			row.ConversionValue,
			string(row.Model),
			row.Channel,
			row.Credit,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to append attribution row to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send attribution batch: %w", err)
	}

	return len(rows), nil
}

// Ping checks if the ClickHouse connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Conn().Ping(ctx)
}

// Close closes the ClickHouse connection
func (r *Repository) Close() error {
	return r.client.Close()
}
