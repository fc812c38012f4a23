package attribution

import (
	"sort"
	"strings"
	"time"

	"github.com/rirts/attribution-os/internal/domain"
)

// Sessionizer partitions one user's chronologically ordered events into
// sessions using an inactivity timeout.
type Sessionizer struct {
	timeout time.Duration
}

// NewSessionizer creates a sessionizer with the given inactivity timeout.
func NewSessionizer(timeout time.Duration) *Sessionizer {
	return &Sessionizer{timeout: timeout}
}

// open accumulates the session currently being built.
type open struct {
	userKey    string
	start      time.Time
	end        time.Time
	eventCount int
	channels   map[string]struct{}
	convCount  int
	convSum    float64
}

// Sessionize folds the events into an ordered sequence of sessions covering
// every event exactly once. Input must already be sorted ascending by
// timestamp; zero events yield zero sessions.
func (s *Sessionizer) Sessionize(events []domain.Event) []domain.Session {
	var sessions []domain.Session
	var cur *open

	for _, ev := range events {
		// Strictly greater than: a gap equal to the timeout stays in
		// the same session.
		if cur == nil || ev.Timestamp.Sub(cur.end) > s.timeout {
			if cur != nil {
				sessions = append(sessions, cur.emit())
			}
			cur = &open{
				userKey:  ev.UserKey,
				start:    ev.Timestamp,
				channels: make(map[string]struct{}),
			}
		}
		cur.fold(ev)
	}
	if cur != nil {
		sessions = append(sessions, cur.emit())
	}
	return sessions
}

func (o *open) fold(ev domain.Event) {
	o.eventCount++
	o.channels[ev.Channel] = struct{}{}
	if ev.Type.IsConversion() {
		o.convCount++
		o.convSum += ev.ConvValue
	}
	o.end = ev.Timestamp
}

func (o *open) emit() domain.Session {
	return domain.Session{
		SessionID:          domain.SessionID(o.userKey, o.start),
		UserKey:            o.userKey,
		StartTS:            o.start,
		EndTS:              o.end,
		EventCount:         o.eventCount,
		Channels:           joinChannels(o.channels),
		ConversionCount:    o.convCount,
		ConversionValueSum: o.convSum,
	}
}

// joinChannels serializes the channel set sorted and comma-joined so the
// same input always produces the same string.
func joinChannels(set map[string]struct{}) string {
	channels := make([]string, 0, len(set))
	for ch := range set {
		channels = append(channels, ch)
	}
	sort.Strings(channels)
	return strings.Join(channels, ",")
}
