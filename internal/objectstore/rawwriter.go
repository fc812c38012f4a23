package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rirts/attribution-os/internal/domain"
)

// RawWriter lands batches of raw events as JSONL objects in the raw bucket,
// partitioned by the UTC date of the event timestamp.
type RawWriter struct {
	store  Store
	bucket string
	log    *zap.Logger
}

// NewRawWriter creates a raw-landing writer for the given bucket.
func NewRawWriter(store Store, bucket string, log *zap.Logger) *RawWriter {
	return &RawWriter{
		store:  store,
		bucket: bucket,
		log:    log,
	}
}

// WriteBatch writes one JSONL object per event date and returns the keys it
// wrote. Any write failure fails the whole batch so the queue redelivers it.
func (w *RawWriter) WriteBatch(ctx context.Context, events []*domain.RawEvent) ([]string, error) {
	if len(events) == 0 {
		return nil, nil
	}

	byDate := make(map[string][]*domain.RawEvent)
	for _, event := range events {
		byDate[eventDate(event)] = append(byDate[eventDate(event)], event)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	keys := make([]string, 0, len(dates))
	for _, date := range dates {
		key := fmt.Sprintf("web/date=%s/batch-%s.jsonl", date, uuid.NewString())
		body, err := encodeLines(byDate[date])
		if err != nil {
			return nil, fmt.Errorf("failed to encode raw batch for %s: %w", date, err)
		}
		if err := w.store.Put(ctx, w.bucket, key, body, "application/x-ndjson"); err != nil {
			return nil, fmt.Errorf("failed to write raw batch %s: %w", key, err)
		}
		w.log.Debug("Wrote raw batch",
			zap.String("key", key),
			zap.Int("event_count", len(byDate[date])))
		keys = append(keys, key)
	}

	return keys, nil
}

func encodeLines(events []*domain.RawEvent) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, event := range events {
		if err := enc.Encode(event); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// eventDate partitions by the event's own timestamp when it parses, and by
// arrival time when it does not. Raw keeps everything either way.
func eventDate(event *domain.RawEvent) string {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, event.TS); err == nil {
			return ts.UTC().Format("2006-01-02")
		}
	}
	return time.Now().UTC().Format("2006-01-02")
}
