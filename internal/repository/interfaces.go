package repository

import (
	"context"

	"github.com/rirts/attribution-os/internal/domain"
)

// GoldRepository defines the serving store for the gold tables. The parquet
// parts in the gold bucket stay authoritative; this store exists for cheap
// querying of the same rows.
type GoldRepository interface {
	// InitSchema creates the sessions and attribution tables if absent.
	InitSchema(ctx context.Context) error

	// InsertSessions inserts a batch of session summaries.
	InsertSessions(ctx context.Context, sessions []domain.Session) (int, error)

	// InsertAttributionRows inserts a batch of attribution rows.
	InsertAttributionRows(ctx context.Context, rows []domain.AttributionRow) (int, error)

	// Ping checks if the database connection is alive.
	Ping(ctx context.Context) error

	// Close closes the repository and releases resources.
	Close() error
}
