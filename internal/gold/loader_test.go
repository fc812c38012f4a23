package gold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rirts/attribution-os/internal/domain"
	"github.com/rirts/attribution-os/internal/lake"
)

func TestNormalizeRow(t *testing.T) {
	row := lake.SilverWebRow{
		EventID:        "evt-1",
		TS:             "2025-03-01T10:00:00Z",
		Type:           "purchase",
		UTMSource:      "Google",
		UTMMedium:      "CPC",
		IDsUID:         "u1",
		PropertiesJSON: `{"value": 99.5}`,
	}

	ev, ok := normalizeRow(row)
	require.True(t, ok)
	assert.Equal(t, "evt-1", ev.EventID)
	assert.Equal(t, domain.EventPurchase, ev.Type)
	assert.Equal(t, "google/cpc", ev.Channel)
	assert.Equal(t, "ids_uid:u1", ev.UserKey)
	assert.Equal(t, 99.5, ev.ConvValue)
}

func TestNormalizeRow_UnparseableTimestamp(t *testing.T) {
	_, ok := normalizeRow(lake.SilverWebRow{EventID: "evt-1", TS: "bad"})
	assert.False(t, ok)
}

func TestNormalizeRow_FingerprintFallback(t *testing.T) {
	row := lake.SilverWebRow{
		EventID:    "evt-1",
		TS:         "2025-03-01T10:00:00Z",
		Type:       "pageview",
		ClientUA:   "Mozilla/5.0",
		ClientLang: "en-US",
	}

	ev, ok := normalizeRow(row)
	require.True(t, ok)
	assert.Equal(t, domain.DirectChannel, ev.Channel)
	assert.Contains(t, ev.UserKey, "ua:")
}

func TestConversionValue(t *testing.T) {
	tests := []struct {
		name  string
		props string
		want  float64
	}{
		{"present", `{"value": 42}`, 42},
		{"fractional", `{"value": 19.99}`, 19.99},
		{"missing", `{"sku": "abc"}`, 0},
		{"empty", "", 0},
		{"malformed", `{value:`, 0},
		{"non numeric", `{"value": "lots"}`, 0},
		{"negative clamped", `{"value": -5}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, conversionValue(tt.props))
		})
	}
}
