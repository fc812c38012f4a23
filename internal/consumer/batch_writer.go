package consumer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rirts/attribution-os/internal/domain"
)

// BatchWriterConfig configures the batch writer
type BatchWriterConfig struct {
	MaxBatchSize int
	FlushTimeout time.Duration
}

// BatchWriter accumulates envelopes and flushes them to the raw sink in batches
type BatchWriter struct {
	sink   RawSink
	config BatchWriterConfig
	log    *zap.Logger
}

// NewBatchWriter creates a new batch writer
func NewBatchWriter(sink RawSink, config BatchWriterConfig, log *zap.Logger) *BatchWriter {
	return &BatchWriter{
		sink:   sink,
		config: config,
		log:    log,
	}
}

// Start consumes envelopes from the input channel and flushes batches when
// the batch is full or the flush timeout elapses
func (w *BatchWriter) Start(ctx context.Context, in <-chan *Envelope) {
	batch := make([]*Envelope, 0, w.config.MaxBatchSize)
	ticker := time.NewTicker(w.config.FlushTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Batch writer shutting down, flushing remaining events",
				zap.Int("batch_size", len(batch)))
			w.flush(context.Background(), batch)
			return
		case envelope, ok := <-in:
			if !ok {
				w.log.Info("Batch writer input channel closed, flushing remaining events",
					zap.Int("batch_size", len(batch)))
				w.flush(context.Background(), batch)
				return
			}

			batch = append(batch, envelope)
			if len(batch) >= w.config.MaxBatchSize {
				w.flush(ctx, batch)
				batch = batch[:0]
				ticker.Reset(w.config.FlushTimeout)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				w.flush(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

func (w *BatchWriter) flush(ctx context.Context, batch []*Envelope) {
	if len(batch) == 0 {
		return
	}

	events := make([]*domain.RawEvent, len(batch))
	for i, envelope := range batch {
		events[i] = envelope.Event
	}

	keys, err := w.sink.WriteBatch(ctx, events)
	if err != nil {
		w.log.Error("Failed to write batch to raw storage",
			zap.Int("batch_size", len(batch)),
			zap.Error(err))
		w.nackAll(ctx, batch)
		return
	}

	w.log.Info("Wrote batch to raw storage",
		zap.Int("event_count", len(events)),
		zap.Strings("keys", keys))
	w.ackAll(ctx, batch)
}

func (w *BatchWriter) ackAll(ctx context.Context, batch []*Envelope) {
	for _, envelope := range batch {
		if err := envelope.Ack(ctx); err != nil {
			w.log.Error("Failed to ack message", zap.Error(err))
		}
	}
}

func (w *BatchWriter) nackAll(ctx context.Context, batch []*Envelope) {
	for _, envelope := range batch {
		if err := envelope.Nack(ctx); err != nil {
			w.log.Error("Failed to nack message", zap.Error(err))
		}
	}
}
