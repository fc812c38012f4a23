package attribution

import (
	"sort"

	"github.com/rirts/attribution-os/internal/domain"
)

// DateLayout is the UTC calendar-date key used for output partitioning.
const DateLayout = "2006-01-02"

// SessionBatch is one output partition of sessions, keyed by the UTC date
// of the session start.
type SessionBatch struct {
	Date     string
	Sessions []domain.Session
}

// RowBatch is one output partition of attribution rows, keyed by the UTC
// date of the conversion.
type RowBatch struct {
	Date string
	Rows []domain.AttributionRow
}

// PartitionSessionsByDate groups sessions by the calendar date of their
// start timestamp. Pure grouping; batches come back in date order.
func PartitionSessionsByDate(sessions []domain.Session) []SessionBatch {
	byDate := make(map[string][]domain.Session)
	for _, s := range sessions {
		date := s.StartTS.UTC().Format(DateLayout)
		byDate[date] = append(byDate[date], s)
	}

	batches := make([]SessionBatch, 0, len(byDate))
	for date, group := range byDate {
		batches = append(batches, SessionBatch{Date: date, Sessions: group})
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].Date < batches[j].Date })
	return batches
}

// PartitionRowsByDate groups attribution rows by the calendar date of their
// conversion timestamp.
func PartitionRowsByDate(rows []domain.AttributionRow) []RowBatch {
	byDate := make(map[string][]domain.AttributionRow)
	for _, r := range rows {
		date := r.ConversionTS.UTC().Format(DateLayout)
		byDate[date] = append(byDate[date], r)
	}

	batches := make([]RowBatch, 0, len(byDate))
	for date, group := range byDate {
		batches = append(batches, RowBatch{Date: date, Rows: group})
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].Date < batches[j].Date })
	return batches
}
