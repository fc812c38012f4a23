package consumer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONEventParser_Parse_ValidEvent(t *testing.T) {
	parser := NewJSONEventParser()

	body := []byte(`{
		"event_id": "evt-1",
		"ts": "2025-03-01T10:00:00Z",
		"type": "pageview",
		"url": "https://shop.example/p/1",
		"utm": {"source": "Google", "medium": "CPC"},
		"ids": {"uid": "u1"},
		"properties": {"value": 10}
	}`)

	event, err := parser.Parse(body)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", event.EventID)
	assert.Equal(t, "pageview", event.Type)
	assert.Equal(t, "Google", event.UTM.Source)
	assert.Equal(t, "u1", event.IDs.UID)
}

func TestJSONEventParser_Parse_InvalidJSON(t *testing.T) {
	parser := NewJSONEventParser()

	_, err := parser.Parse([]byte(`{not json`))
	assert.Error(t, err)
}

func TestJSONEventParser_Parse_MissingFields(t *testing.T) {
	parser := NewJSONEventParser()

	tests := []struct {
		name string
		body string
	}{
		{"missing event_id", `{"ts": "2025-03-01T10:00:00Z", "type": "pageview"}`},
		{"missing ts", `{"event_id": "evt-1", "type": "pageview"}`},
		{"missing type", `{"event_id": "evt-1", "ts": "2025-03-01T10:00:00Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}
