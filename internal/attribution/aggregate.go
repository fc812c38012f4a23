package attribution

import (
	"sort"

	"github.com/rirts/attribution-os/internal/domain"
)

type creditKey struct {
	conversionID string
	model        domain.CreditModel
	channel      string
}

// MergeCredits groups raw per-touchpoint credit rows by
// (conversion, model, channel) and sums their credit, so repeated channels
// inside a window collapse into one row and credit conservation holds per
// channel rather than per occurrence. Output order is deterministic:
// conversion timestamp, then conversion id, model, channel.
func MergeCredits(raw []domain.AttributionRow) []domain.AttributionRow {
	if len(raw) == 0 {
		return nil
	}

	merged := make(map[creditKey]domain.AttributionRow, len(raw))
	for _, r := range raw {
		key := creditKey{r.ConversionEventID, r.Model, r.Channel}
		if acc, ok := merged[key]; ok {
			acc.Credit += r.Credit
			merged[key] = acc
		} else {
			merged[key] = r
		}
	}

	rows := make([]domain.AttributionRow, 0, len(merged))
	for _, r := range merged {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.ConversionTS.Equal(b.ConversionTS) {
			return a.ConversionTS.Before(b.ConversionTS)
		}
		if a.ConversionEventID != b.ConversionEventID {
			return a.ConversionEventID < b.ConversionEventID
		}
		if a.Model != b.Model {
			return a.Model < b.Model
		}
		return a.Channel < b.Channel
	})
	return rows
}
