package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// DirectChannel is the synthetic channel credited when a conversion has no
// touchpoint in its lookback window, and the channel of untagged traffic.
const DirectChannel = "direct/none"

// EventType classifies a normalized interaction event.
type EventType string

const (
	EventPageview EventType = "pageview"
	EventClick    EventType = "click"
	EventLead     EventType = "lead"
	EventPurchase EventType = "purchase"
	EventOther    EventType = "other"
)

// ParseEventType maps a raw type string onto the event type enum.
// Anything unrecognized becomes EventOther.
func ParseEventType(s string) EventType {
	switch EventType(strings.ToLower(strings.TrimSpace(s))) {
	case EventPageview:
		return EventPageview
	case EventClick:
		return EventClick
	case EventLead:
		return EventLead
	case EventPurchase:
		return EventPurchase
	default:
		return EventOther
	}
}

// IsTouchpoint reports whether events of this type are eligible for
// attribution credit.
func (t EventType) IsTouchpoint() bool {
	return t == EventPageview || t == EventClick
}

// IsConversion reports whether events of this type trigger credit
// distribution.
func (t EventType) IsConversion() bool {
	return t == EventLead || t == EventPurchase
}

// Event is a normalized interaction event, the input shape of the
// sessionizer and the attribution engine. Timestamp is always UTC and
// non-zero; events without a parseable timestamp are dropped during
// refinement and never reach this type.
type Event struct {
	EventID   string
	Timestamp time.Time
	Type      EventType
	Channel   string
	UserKey   string
	ConvValue float64
}

// Channel derives the "{source}/{medium}" marketing channel from utm fields.
// Both fields empty means untagged direct traffic.
func Channel(source, medium string) string {
	src := strings.ToLower(strings.TrimSpace(source))
	med := strings.ToLower(strings.TrimSpace(medium))
	if src == "" && med == "" {
		return DirectChannel
	}
	if src == "" {
		src = "unknown"
	}
	if med == "" {
		med = "none"
	}
	return src + "/" + med
}

// ResolveUserKey picks the partition key for per-user processing: the first
// non-empty identifier in priority order, or a fingerprint derived from the
// user agent and language. The fingerprint is stable within a run but is not
// a reliable cross-session identity.
func ResolveUserKey(uid, cookie, ga, userAgent, lang string) string {
	ids := []struct{ prefix, value string }{
		{"ids_uid", uid},
		{"ids_cookie", cookie},
		{"ids_ga", ga},
	}
	for _, id := range ids {
		// Emptiness is judged after trimming, but the key carries the
		// identifier exactly as sent.
		if strings.TrimSpace(id.value) != "" {
			return id.prefix + ":" + id.value
		}
	}
	sum := sha256.Sum256([]byte(userAgent + "|" + lang))
	return "ua:" + hex.EncodeToString(sum[:])[:16]
}
