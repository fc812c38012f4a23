package gold

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rirts/attribution-os/internal/attribution"
	"github.com/rirts/attribution-os/internal/domain"
	"github.com/rirts/attribution-os/internal/lake"
)

// memStore is an in-memory object store for builder tests.
type memStore struct {
	objects map[string]map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: map[string]map[string][]byte{}}
}

func (m *memStore) List(_ context.Context, bucket, prefix, suffix string) ([]string, error) {
	var keys []string
	for key := range m.objects[bucket] {
		if strings.HasPrefix(key, prefix) && strings.HasSuffix(key, suffix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (m *memStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	return m.objects[bucket][key], nil
}

func (m *memStore) Put(_ context.Context, bucket, key string, body []byte, _ string) error {
	if m.objects[bucket] == nil {
		m.objects[bucket] = map[string][]byte{}
	}
	m.objects[bucket][key] = body
	return nil
}

func (m *memStore) EnsureBucket(_ context.Context, bucket string) error {
	if m.objects[bucket] == nil {
		m.objects[bucket] = map[string][]byte{}
	}
	return nil
}

// MockGoldRepository is a mock implementation of repository.GoldRepository
type MockGoldRepository struct {
	mock.Mock
}

func (m *MockGoldRepository) InitSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGoldRepository) InsertSessions(ctx context.Context, sessions []domain.Session) (int, error) {
	args := m.Called(ctx, sessions)
	return args.Int(0), args.Error(1)
}

func (m *MockGoldRepository) InsertAttributionRows(ctx context.Context, rows []domain.AttributionRow) (int, error) {
	args := m.Called(ctx, rows)
	return args.Int(0), args.Error(1)
}

func (m *MockGoldRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGoldRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

func silverRow(id string, ts time.Time, eventType, source, medium, uid, props string) lake.SilverWebRow {
	return lake.SilverWebRow{
		EventID:        id,
		TS:             ts.Format(time.RFC3339Nano),
		Type:           eventType,
		UTMSource:      source,
		UTMMedium:      medium,
		IDsUID:         uid,
		PropertiesJSON: props,
	}
}

func seedSilver(t *testing.T, store *memStore, rows []lake.SilverWebRow) {
	t.Helper()
	body, err := lake.Marshal(rows)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "dp-silver",
		"web/date=2025-03-01/part-000000000000.parquet", body, lake.ContentType))
}

func testRows() []lake.SilverWebRow {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return []lake.SilverWebRow{
		silverRow("e1", base, "pageview", "google", "cpc", "u1", "{}"),
		silverRow("e2", base.Add(10*time.Minute), "click", "facebook", "social", "u1", "{}"),
		silverRow("e3", base.Add(20*time.Minute), "purchase", "", "", "u1", `{"value": 100}`),
		// Second user, over an hour later, no conversion
		silverRow("e4", base.Add(2*time.Hour), "pageview", "newsletter", "email", "u2", "{}"),
	}
}

func TestBuilder_Run_EndToEnd(t *testing.T) {
	store := newMemStore()
	seedSilver(t, store, testRows())

	builder := NewBuilder(store, nil, "dp-silver", "dp-gold",
		attribution.DefaultConfig(), 4, zap.NewNop())

	result, err := builder.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, result.EventsSeen)
	assert.Equal(t, 2, result.UsersSeen)
	assert.Equal(t, 2, result.Sessions)
	// One conversion with two touchpoints in window: last_touch emits one
	// row, the spread models two each
	assert.Equal(t, 7, result.Rows)

	// One sessions part and one attribution part, both dated 2025-03-01
	require.Len(t, result.PartKeys, 2)
	assert.True(t, strings.HasPrefix(result.PartKeys[0], SessionsTable+"/date=2025-03-01/"))
	assert.True(t, strings.HasPrefix(result.PartKeys[1], AttributionTable+"/date=2025-03-01/"))
}

func TestBuilder_Run_EmptySilver(t *testing.T) {
	store := newMemStore()

	builder := NewBuilder(store, nil, "dp-silver", "dp-gold",
		attribution.DefaultConfig(), 4, zap.NewNop())

	result, err := builder.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Sessions)
	assert.Zero(t, result.Rows)
	assert.Empty(t, result.PartKeys)
}

func TestBuilder_Run_DeterministicAcrossWorkerCounts(t *testing.T) {
	run := func(workers int) []lake.AttributionRow {
		store := newMemStore()
		seedSilver(t, store, testRows())

		builder := NewBuilder(store, nil, "dp-silver", "dp-gold",
			attribution.DefaultConfig(), workers, zap.NewNop())

		result, err := builder.Run(context.Background())
		require.NoError(t, err)

		var rows []lake.AttributionRow
		for _, key := range result.PartKeys {
			if !strings.HasPrefix(key, AttributionTable+"/") {
				continue
			}
			body, err := store.Get(context.Background(), "dp-gold", key)
			require.NoError(t, err)
			part, err := lake.Unmarshal[lake.AttributionRow](body)
			require.NoError(t, err)
			rows = append(rows, part...)
		}
		return rows
	}

	assert.Equal(t, run(1), run(8))
}

func TestBuilder_Run_ServesGoldTables(t *testing.T) {
	store := newMemStore()
	seedSilver(t, store, testRows())

	mockRepo := new(MockGoldRepository)
	mockRepo.On("Ping", mock.Anything).Return(nil)
	mockRepo.On("InsertSessions", mock.Anything, mock.MatchedBy(func(sessions []domain.Session) bool {
		return len(sessions) == 2
	})).Return(2, nil)
	mockRepo.On("InsertAttributionRows", mock.Anything, mock.MatchedBy(func(rows []domain.AttributionRow) bool {
		return len(rows) == 7
	})).Return(7, nil)

	builder := NewBuilder(store, mockRepo, "dp-silver", "dp-gold",
		attribution.DefaultConfig(), 2, zap.NewNop())

	_, err := builder.Run(context.Background())
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestBuilder_Run_UnreachableServingStoreFailsFast(t *testing.T) {
	store := newMemStore()
	seedSilver(t, store, testRows())

	mockRepo := new(MockGoldRepository)
	mockRepo.On("Ping", mock.Anything).Return(errors.New("connection refused"))

	builder := NewBuilder(store, mockRepo, "dp-silver", "dp-gold",
		attribution.DefaultConfig(), 2, zap.NewNop())

	_, err := builder.Run(context.Background())
	require.Error(t, err)

	// Nothing computed or written against a dead store
	mockRepo.AssertNotCalled(t, "InsertSessions", mock.Anything, mock.Anything)
	assert.Empty(t, store.objects["dp-gold"])
}
