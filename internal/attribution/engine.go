package attribution

import (
	"time"

	"github.com/rirts/attribution-os/internal/domain"
)

// Engine distributes conversion credit across the channels a user touched
// in a trailing lookback window, under all four credit models.
type Engine struct {
	lookback time.Duration
	halfLife time.Duration
}

// NewEngine creates an attribution engine from the core config.
func NewEngine(cfg Config) *Engine {
	return &Engine{lookback: cfg.Lookback, halfLife: cfg.DecayHalfLife}
}

// Attribute computes credit rows for one user's chronologically ordered
// events. Rows are merged per (conversion, model, channel) so repeated
// channels within a window collapse into a single row. A user with no
// conversions contributes nothing.
func (e *Engine) Attribute(events []domain.Event) []domain.AttributionRow {
	var touchpoints, conversions []domain.Event
	for _, ev := range events {
		switch {
		case ev.Type.IsTouchpoint():
			touchpoints = append(touchpoints, ev)
		case ev.Type.IsConversion():
			conversions = append(conversions, ev)
		}
	}
	if len(conversions) == 0 {
		return nil
	}

	var raw []domain.AttributionRow
	for _, conv := range conversions {
		window := e.window(touchpoints, conv.Timestamp)
		raw = append(raw, e.creditConversion(conv, window)...)
	}
	return MergeCredits(raw)
}

// window selects the touchpoints inside [convTS - lookback, convTS],
// inclusive on both ends, keeping their inherited chronological order.
func (e *Engine) window(touchpoints []domain.Event, convTS time.Time) []domain.Event {
	start := convTS.Add(-e.lookback)
	var window []domain.Event
	for _, tp := range touchpoints {
		if tp.Timestamp.Before(start) || tp.Timestamp.After(convTS) {
			continue
		}
		window = append(window, tp)
	}
	return window
}

// creditConversion applies all four models to one conversion's window. An
// empty window attributes everything to the direct/none channel.
func (e *Engine) creditConversion(conv domain.Event, window []domain.Event) []domain.AttributionRow {
	if len(window) == 0 {
		rows := make([]domain.AttributionRow, 0, len(domain.Models))
		for _, model := range domain.Models {
			rows = append(rows, row(conv, model, domain.DirectChannel, conv.ConvValue))
		}
		return rows
	}

	var rows []domain.AttributionRow
	rows = append(rows, lastTouch(conv, window)...)
	rows = append(rows, linear(conv, window)...)
	rows = append(rows, uShaped(conv, window)...)
	rows = append(rows, timeDecay(conv, window, e.halfLife)...)
	return rows
}

func row(conv domain.Event, model domain.CreditModel, channel string, credit float64) domain.AttributionRow {
	return domain.AttributionRow{
		ConversionEventID: conv.EventID,
		ConversionTS:      conv.Timestamp,
		ConversionValue:   conv.ConvValue,
		Model:             model,
		Channel:           channel,
		Credit:            credit,
	}
}
