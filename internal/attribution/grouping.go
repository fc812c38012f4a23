package attribution

import (
	"sort"

	"github.com/rirts/attribution-os/internal/domain"
)

// SortEvents orders one user's events chronologically in place. The sort is
// stable so events sharing a timestamp keep their arrival order, which both
// the sessionizer and the engine rely on for determinism.
func SortEvents(events []domain.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}

// GroupByUser partitions events into per-user shards, preserving arrival
// order within each shard. User keys are the unit of parallelism: shards
// share no state and may be processed concurrently.
func GroupByUser(events []domain.Event) map[string][]domain.Event {
	shards := make(map[string][]domain.Event)
	for _, ev := range events {
		shards[ev.UserKey] = append(shards[ev.UserKey], ev)
	}
	return shards
}

// UserKeys returns the shard keys in sorted order so iteration over a
// grouped event set is reproducible.
func UserKeys(shards map[string][]domain.Event) []string {
	keys := make([]string, 0, len(shards))
	for k := range shards {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
