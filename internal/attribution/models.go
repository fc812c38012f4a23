package attribution

import (
	"math"
	"time"

	"github.com/rirts/attribution-os/internal/domain"
)

// The model functions each take a non-empty window of touchpoints in
// chronological order and return one raw credit row per touchpoint share.
// Every model conserves the conversion value exactly: the emitted credits
// sum to conv.ConvValue, including the zero-value case where every share is
// a share of zero.

// lastTouch assigns the full value to the last touchpoint before or at the
// conversion.
func lastTouch(conv domain.Event, window []domain.Event) []domain.AttributionRow {
	last := window[len(window)-1]
	return []domain.AttributionRow{row(conv, domain.ModelLastTouch, last.Channel, conv.ConvValue)}
}

// linear splits the value evenly across every touchpoint occurrence.
// Channels are not de-duplicated here; repeated channels receive multiple
// shares that merge during aggregation.
func linear(conv domain.Event, window []domain.Event) []domain.AttributionRow {
	per := conv.ConvValue / float64(len(window))
	rows := make([]domain.AttributionRow, 0, len(window))
	for _, tp := range window {
		rows = append(rows, row(conv, domain.ModelLinear, tp.Channel, per))
	}
	return rows
}

// uShaped gives 40% to the first and last touchpoints and splits the
// remaining 20% evenly over the middle. With a single touchpoint the full
// value goes to it; with exactly two, the middle share is folded evenly
// into first and last (50/50), keeping the credits summing to the value.
func uShaped(conv domain.Event, window []domain.Event) []domain.AttributionRow {
	n := len(window)
	if n == 1 {
		return []domain.AttributionRow{row(conv, domain.ModelUShaped, window[0].Channel, conv.ConvValue)}
	}
	if n == 2 {
		half := conv.ConvValue * 0.5
		return []domain.AttributionRow{
			row(conv, domain.ModelUShaped, window[0].Channel, half),
			row(conv, domain.ModelUShaped, window[1].Channel, half),
		}
	}

	rows := make([]domain.AttributionRow, 0, n)
	rows = append(rows, row(conv, domain.ModelUShaped, window[0].Channel, conv.ConvValue*0.4))
	rows = append(rows, row(conv, domain.ModelUShaped, window[n-1].Channel, conv.ConvValue*0.4))
	perMiddle := conv.ConvValue * 0.2 / float64(n-2)
	for _, tp := range window[1 : n-1] {
		rows = append(rows, row(conv, domain.ModelUShaped, tp.Channel, perMiddle))
	}
	return rows
}

// timeDecay weights each touchpoint by 0.5^(age_days/halflife) relative to
// the conversion and distributes the value proportionally. Touchpoints
// simultaneous with the conversion carry the maximal weight 1.0.
func timeDecay(conv domain.Event, window []domain.Event, halfLife time.Duration) []domain.AttributionRow {
	halfLifeDays := halfLife.Hours() / 24
	weights := make([]float64, len(window))
	var total float64
	for i, tp := range window {
		ageDays := conv.Timestamp.Sub(tp.Timestamp).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		weights[i] = math.Pow(0.5, ageDays/halfLifeDays)
		total += weights[i]
	}

	rows := make([]domain.AttributionRow, 0, len(window))
	for i, tp := range window {
		rows = append(rows, row(conv, domain.ModelTimeDecay, tp.Channel, conv.ConvValue*weights[i]/total))
	}
	return rows
}
