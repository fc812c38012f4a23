package consumer

import (
	"context"

	"github.com/rirts/attribution-os/internal/domain"
)

// MessageParser defines the interface for parsing raw message bytes into events
type MessageParser interface {
	Parse(body []byte) (*domain.RawEvent, error)
}

// RawSink persists a batch of raw events and returns the keys it wrote.
type RawSink interface {
	WriteBatch(ctx context.Context, events []*domain.RawEvent) ([]string, error)
}
