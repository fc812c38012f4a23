package gold

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rirts/attribution-os/internal/attribution"
	"github.com/rirts/attribution-os/internal/domain"
	"github.com/rirts/attribution-os/internal/lake"
	"github.com/rirts/attribution-os/internal/objectstore"
	"github.com/rirts/attribution-os/internal/repository"
)

// Gold table names.
const (
	SessionsTable    = "web_sessions"
	AttributionTable = "web_attribution"
)

// Builder recomputes the gold layer: sessions and 4-model attribution over
// the full silver web history, written as date-partitioned parquet parts
// and mirrored into the serving store.
type Builder struct {
	store        objectstore.Store
	repo         repository.GoldRepository
	silverBucket string
	goldBucket   string
	cfg          attribution.Config
	workers      int
	log          *zap.Logger
}

// NewBuilder creates the gold builder. repo may be nil when no serving
// store is configured; parquet parts are then the only output.
func NewBuilder(store objectstore.Store, repo repository.GoldRepository, silverBucket, goldBucket string,
	cfg attribution.Config, workers int, log *zap.Logger) *Builder {
	if workers < 1 {
		workers = 1
	}
	return &Builder{
		store:        store,
		repo:         repo,
		silverBucket: silverBucket,
		goldBucket:   goldBucket,
		cfg:          cfg,
		workers:      workers,
		log:          log,
	}
}

// Result summarizes one gold run.
type Result struct {
	Sessions   int
	Rows       int
	PartKeys   []string
	UsersSeen  int
	EventsSeen int
}

// Run executes the full recomputation. Everything is aggregated in memory
// before any output is written, so a failed run emits nothing.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	// Fail fast on an unreachable serving store before spending the
	// compute.
	if b.repo != nil {
		if err := b.repo.Ping(ctx); err != nil {
			return nil, fmt.Errorf("serving store unreachable: %w", err)
		}
	}

	events, err := loadEvents(ctx, b.store, b.silverBucket, b.log)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		b.log.Info("No silver web events, nothing to build")
		return &Result{}, nil
	}

	shards := attribution.GroupByUser(events)
	sessions, rows := b.compute(shards)

	result := &Result{
		Sessions:   len(sessions),
		Rows:       len(rows),
		UsersSeen:  len(shards),
		EventsSeen: len(events),
	}

	if err := b.store.EnsureBucket(ctx, b.goldBucket); err != nil {
		return nil, err
	}

	keys, err := b.writeParts(ctx, sessions, rows)
	if err != nil {
		return nil, err
	}
	result.PartKeys = keys

	if b.repo != nil {
		if err := b.serve(ctx, sessions, rows); err != nil {
			return nil, err
		}
	}

	b.log.Info("Gold build complete",
		zap.Int("users", result.UsersSeen),
		zap.Int("sessions", result.Sessions),
		zap.Int("attribution_rows", result.Rows),
		zap.Int("parts", len(result.PartKeys)))
	return result, nil
}

// shardResult carries one user's output back from the pool.
type shardResult struct {
	sessions []domain.Session
	rows     []domain.AttributionRow
}

// compute fans user shards out over a fixed worker pool. Shards share no
// state; order across users is irrelevant, order within a user is preserved
// by sorting inside the worker. Results are concatenated in sorted user-key
// order so the merged output is reproducible.
func (b *Builder) compute(shards map[string][]domain.Event) ([]domain.Session, []domain.AttributionRow) {
	keys := attribution.UserKeys(shards)

	jobs := make(chan string)
	results := make(map[string]shardResult, len(keys))
	var mu sync.Mutex
	var wg sync.WaitGroup

	sessionizer := attribution.NewSessionizer(b.cfg.SessionTimeout)
	engine := attribution.NewEngine(b.cfg)

	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range jobs {
				shard := shards[key]
				attribution.SortEvents(shard)
				res := shardResult{
					sessions: sessionizer.Sessionize(shard),
					rows:     engine.Attribute(shard),
				}
				mu.Lock()
				results[key] = res
				mu.Unlock()
			}
		}()
	}

	for _, key := range keys {
		jobs <- key
	}
	close(jobs)
	wg.Wait()

	var sessions []domain.Session
	var rows []domain.AttributionRow
	for _, key := range keys {
		sessions = append(sessions, results[key].sessions...)
		rows = append(rows, results[key].rows...)
	}
	return sessions, rows
}

func (b *Builder) writeParts(ctx context.Context, sessions []domain.Session, rows []domain.AttributionRow) ([]string, error) {
	var keys []string

	for _, batch := range attribution.PartitionSessionsByDate(sessions) {
		records := make([]lake.SessionRow, 0, len(batch.Sessions))
		for _, s := range batch.Sessions {
			records = append(records, lake.SessionRow{
				SessionID:          s.SessionID,
				UserKey:            s.UserKey,
				StartTS:            s.StartTS.UnixMilli(),
				EndTS:              s.EndTS.UnixMilli(),
				EventCount:         int32(s.EventCount),
				Channels:           s.Channels,
				ConversionCount:    int32(s.ConversionCount),
				ConversionValueSum: s.ConversionValueSum,
			})
		}
		key, err := writePart(ctx, b, SessionsTable, batch.Date, records)
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}

	for _, batch := range attribution.PartitionRowsByDate(rows) {
		records := make([]lake.AttributionRow, 0, len(batch.Rows))
		for _, r := range batch.Rows {
			records = append(records, lake.AttributionRow{
				ConversionEventID: r.ConversionEventID,
				ConversionTS:      r.ConversionTS.UnixMilli(),
				ConversionValue:   r.ConversionValue,
				Model:             string(r.Model),
				Channel:           r.Channel,
				Credit:            r.Credit,
			})
		}
		key, err := writePart(ctx, b, AttributionTable, batch.Date, records)
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}

	return keys, nil
}

func writePart[T any](ctx context.Context, b *Builder, table, date string, records []T) (string, error) {
	body, err := lake.Marshal(records)
	if err != nil {
		return "", err
	}

	key := lake.PartKey(table, date, time.Now())
	if err := b.store.Put(ctx, b.goldBucket, key, body, lake.ContentType); err != nil {
		return "", err
	}
	b.log.Info("Gold part written", zap.String("key", key))
	return key, nil
}

func (b *Builder) serve(ctx context.Context, sessions []domain.Session, rows []domain.AttributionRow) error {
	if n, err := b.repo.InsertSessions(ctx, sessions); err != nil {
		return err
	} else if n > 0 {
		b.log.Info("Sessions inserted into serving store", zap.Int("count", n))
	}

	if n, err := b.repo.InsertAttributionRows(ctx, rows); err != nil {
		return err
	} else if n > 0 {
		b.log.Info("Attribution rows inserted into serving store", zap.Int("count", n))
	}
	return nil
}
