package attribution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rirts/attribution-os/internal/domain"
)

var sessionBase = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func pageview(id string, at time.Time, channel string) domain.Event {
	return domain.Event{
		EventID:   id,
		Timestamp: at,
		Type:      domain.EventPageview,
		Channel:   channel,
		UserKey:   "ids_uid:u1",
	}
}

func purchase(id string, at time.Time, channel string, value float64) domain.Event {
	return domain.Event{
		EventID:   id,
		Timestamp: at,
		Type:      domain.EventPurchase,
		Channel:   channel,
		UserKey:   "ids_uid:u1",
		ConvValue: value,
	}
}

func TestSessionizer_EmptyInput(t *testing.T) {
	s := NewSessionizer(30 * time.Minute)

	assert.Empty(t, s.Sessionize(nil))
}

func TestSessionizer_SingleEvent(t *testing.T) {
	s := NewSessionizer(30 * time.Minute)

	sessions := s.Sessionize([]domain.Event{pageview("e1", sessionBase, "google/cpc")})

	assert.Len(t, sessions, 1)
	assert.Equal(t, sessionBase, sessions[0].StartTS)
	assert.Equal(t, sessionBase, sessions[0].EndTS)
	assert.Equal(t, 1, sessions[0].EventCount)
	assert.Equal(t, "google/cpc", sessions[0].Channels)
}

func TestSessionizer_GapEqualToTimeoutStaysInSession(t *testing.T) {
	s := NewSessionizer(30 * time.Minute)

	sessions := s.Sessionize([]domain.Event{
		pageview("e1", sessionBase, "google/cpc"),
		pageview("e2", sessionBase.Add(30*time.Minute), "google/cpc"),
	})

	assert.Len(t, sessions, 1)
	assert.Equal(t, 2, sessions[0].EventCount)
}

func TestSessionizer_GapBeyondTimeoutOpensNewSession(t *testing.T) {
	s := NewSessionizer(30 * time.Minute)

	sessions := s.Sessionize([]domain.Event{
		pageview("e1", sessionBase, "google/cpc"),
		pageview("e2", sessionBase.Add(30*time.Minute+time.Second), "facebook/social"),
	})

	assert.Len(t, sessions, 2)
	assert.Equal(t, "google/cpc", sessions[0].Channels)
	assert.Equal(t, "facebook/social", sessions[1].Channels)
}

func TestSessionizer_CoverageAndContiguity(t *testing.T) {
	timeout := 30 * time.Minute
	s := NewSessionizer(timeout)

	events := []domain.Event{
		pageview("e1", sessionBase, "google/cpc"),
		pageview("e2", sessionBase.Add(5*time.Minute), "google/cpc"),
		purchase("e3", sessionBase.Add(10*time.Minute), "direct/none", 50),
		pageview("e4", sessionBase.Add(2*time.Hour), "facebook/social"),
		pageview("e5", sessionBase.Add(2*time.Hour+20*time.Minute), "facebook/social"),
		pageview("e6", sessionBase.Add(26*time.Hour), "direct/none"),
	}

	sessions := s.Sessionize(events)

	// Every event lands in exactly one session.
	total := 0
	for _, sess := range sessions {
		total += sess.EventCount
	}
	assert.Equal(t, len(events), total)
	assert.Len(t, sessions, 3)

	// Adjacent sessions of the same user are separated by more than the
	// timeout.
	for i := 1; i < len(sessions); i++ {
		gap := sessions[i].StartTS.Sub(sessions[i-1].EndTS)
		assert.Greater(t, gap, timeout)
	}
}

func TestSessionizer_FoldAccumulatesConversions(t *testing.T) {
	s := NewSessionizer(30 * time.Minute)

	sessions := s.Sessionize([]domain.Event{
		pageview("e1", sessionBase, "google/cpc"),
		purchase("e2", sessionBase.Add(time.Minute), "google/cpc", 100),
		purchase("e3", sessionBase.Add(2*time.Minute), "facebook/social", 25.5),
	})

	assert.Len(t, sessions, 1)
	assert.Equal(t, 2, sessions[0].ConversionCount)
	assert.InDelta(t, 125.5, sessions[0].ConversionValueSum, 1e-9)
	assert.Equal(t, "facebook/social,google/cpc", sessions[0].Channels)
}

func TestSessionizer_DeterministicSessionIDs(t *testing.T) {
	s := NewSessionizer(30 * time.Minute)
	events := []domain.Event{
		pageview("e1", sessionBase, "google/cpc"),
		pageview("e2", sessionBase.Add(time.Hour), "google/cpc"),
	}

	first := s.Sessionize(events)
	second := s.Sessionize(events)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first[0].SessionID, first[1].SessionID)
	assert.Equal(t, domain.SessionID("ids_uid:u1", sessionBase), first[0].SessionID)
}
