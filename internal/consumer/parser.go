package consumer

import (
	"encoding/json"
	"fmt"

	"github.com/rirts/attribution-os/internal/domain"
)

// JSONEventParser implements MessageParser for JSON-formatted raw events
type JSONEventParser struct{}

// NewJSONEventParser creates a new JSON event parser
func NewJSONEventParser() *JSONEventParser {
	return &JSONEventParser{}
}

// Parse parses a JSON message body into a RawEvent. The ingest API already
// normalized the payload, so anything missing its identity here is
// malformed.
func (p *JSONEventParser) Parse(body []byte) (*domain.RawEvent, error) {
	var event domain.RawEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message body: %w", err)
	}

	if event.EventID == "" {
		return nil, fmt.Errorf("message missing event_id")
	}
	if event.TS == "" {
		return nil, fmt.Errorf("message missing ts")
	}
	if event.Type == "" {
		return nil, fmt.Errorf("message missing type")
	}

	return &event, nil
}
