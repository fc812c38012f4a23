package gold

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/rirts/attribution-os/internal/bronze"
	"github.com/rirts/attribution-os/internal/domain"
	"github.com/rirts/attribution-os/internal/lake"
	"github.com/rirts/attribution-os/internal/objectstore"
	"github.com/rirts/attribution-os/internal/silver"
)

// loadEvents reads every silver web part across all dates, since the gold
// build is a full recomputation over the history snapshot, and normalizes rows
// into core events. Rows without a parseable timestamp are excluded rather
// than failing the run.
func loadEvents(ctx context.Context, store objectstore.Store, silverBucket string, log *zap.Logger) ([]domain.Event, error) {
	keys, err := store.List(ctx, silverBucket, bronze.WebTable+"/", ".parquet")
	if err != nil {
		return nil, err
	}

	var events []domain.Event
	dropped := 0
	for _, key := range keys {
		body, err := store.Get(ctx, silverBucket, key)
		if err != nil {
			return nil, err
		}
		rows, err := lake.Unmarshal[lake.SilverWebRow](body)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			ev, ok := normalizeRow(row)
			if !ok {
				dropped++
				continue
			}
			events = append(events, ev)
		}
	}

	if dropped > 0 {
		log.Warn("Excluded rows without a usable timestamp", zap.Int("count", dropped))
	}
	log.Info("Loaded silver web events",
		zap.Int("parts", len(keys)),
		zap.Int("events", len(events)))
	return events, nil
}

// normalizeRow converts one silver row into the fixed-field core event:
// channel from the utm pair, user key by identifier priority, conversion
// value from the "value" property.
func normalizeRow(row lake.SilverWebRow) (domain.Event, bool) {
	ts, ok := silver.ParseTimestamp(row.TS)
	if !ok {
		return domain.Event{}, false
	}

	return domain.Event{
		EventID:   row.EventID,
		Timestamp: ts,
		Type:      domain.ParseEventType(row.Type),
		Channel:   domain.Channel(row.UTMSource, row.UTMMedium),
		UserKey:   domain.ResolveUserKey(row.IDsUID, row.IDsCookie, row.IDsGA, row.ClientUA, row.ClientLang),
		ConvValue: conversionValue(row.PropertiesJSON),
	}, true
}

// conversionValue extracts the monetary value from the properties JSON.
// Missing, malformed, or negative values count as zero.
func conversionValue(propertiesJSON string) float64 {
	if propertiesJSON == "" {
		return 0
	}
	var props map[string]interface{}
	if err := json.Unmarshal([]byte(propertiesJSON), &props); err != nil {
		return 0
	}
	v, ok := props["value"].(float64)
	if !ok || v < 0 {
		return 0
	}
	return v
}
