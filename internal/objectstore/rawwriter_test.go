package objectstore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rirts/attribution-os/internal/domain"
)

// memStore is an in-memory Store for writer tests.
type memStore struct {
	objects map[string][]byte
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (m *memStore) List(_ context.Context, _, prefix, suffix string) ([]string, error) {
	var keys []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) && strings.HasSuffix(key, suffix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (m *memStore) Get(_ context.Context, _, key string) ([]byte, error) {
	return m.objects[key], nil
}

func (m *memStore) Put(_ context.Context, _, key string, body []byte, _ string) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[key] = body
	return nil
}

func (m *memStore) EnsureBucket(_ context.Context, _ string) error {
	return nil
}

func rawEvent(id, ts string) *domain.RawEvent {
	return &domain.RawEvent{
		EventID: id,
		TS:      ts,
		Type:    "pageview",
		URL:     "https://shop.example/p/1",
	}
}

func TestRawWriter_WriteBatch_PartitionsByDate(t *testing.T) {
	store := newMemStore()
	writer := NewRawWriter(store, "dp-raw", zap.NewNop())

	keys, err := writer.WriteBatch(context.Background(), []*domain.RawEvent{
		rawEvent("e1", "2025-03-01T10:00:00Z"),
		rawEvent("e2", "2025-03-02T00:30:00Z"),
		rawEvent("e3", "2025-03-01T23:59:59Z"),
	})
	require.NoError(t, err)
	require.Len(t, keys, 2)

	assert.True(t, strings.HasPrefix(keys[0], "web/date=2025-03-01/batch-"), "key %q", keys[0])
	assert.True(t, strings.HasPrefix(keys[1], "web/date=2025-03-02/batch-"), "key %q", keys[1])
	assert.True(t, strings.HasSuffix(keys[0], ".jsonl"))

	scanner := bufio.NewScanner(bytes.NewReader(store.objects[keys[0]]))
	var ids []string
	for scanner.Scan() {
		var ev domain.RawEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		ids = append(ids, ev.EventID)
	}
	assert.Equal(t, []string{"e1", "e3"}, ids)
}

func TestRawWriter_WriteBatch_UTCDateFromOffsetTimestamp(t *testing.T) {
	store := newMemStore()
	writer := NewRawWriter(store, "dp-raw", zap.NewNop())

	// 01:00+02:00 is 23:00 UTC the previous day
	keys, err := writer.WriteBatch(context.Background(), []*domain.RawEvent{
		rawEvent("e1", "2025-03-02T01:00:00+02:00"),
	})
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "date=2025-03-01")
}

func TestRawWriter_WriteBatch_Empty(t *testing.T) {
	store := newMemStore()
	writer := NewRawWriter(store, "dp-raw", zap.NewNop())

	keys, err := writer.WriteBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRawWriter_WriteBatch_PutFailure(t *testing.T) {
	store := newMemStore()
	store.putErr = errors.New("bucket unavailable")
	writer := NewRawWriter(store, "dp-raw", zap.NewNop())

	_, err := writer.WriteBatch(context.Background(), []*domain.RawEvent{
		rawEvent("e1", "2025-03-01T10:00:00Z"),
	})
	assert.Error(t, err)
}
