package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// CreditModel identifies one of the credit-assignment models. All four are
// always computed for every conversion.
type CreditModel string

const (
	ModelLastTouch CreditModel = "last_touch"
	ModelLinear    CreditModel = "linear"
	ModelUShaped   CreditModel = "u_shaped"
	ModelTimeDecay CreditModel = "time_decay"
)

// Models lists every credit model in output order.
var Models = []CreditModel{ModelLastTouch, ModelLinear, ModelUShaped, ModelTimeDecay}

// Session summarizes one contiguous burst of a user's activity. Immutable
// once emitted by the sessionizer.
type Session struct {
	SessionID          string
	UserKey            string
	StartTS            time.Time
	EndTS              time.Time
	EventCount         int
	Channels           string // sorted, comma-joined channel set
	ConversionCount    int
	ConversionValueSum float64
}

// SessionID derives the deterministic session identifier from the partition
// key and the session start, so recomputing over identical input reproduces
// identical ids.
func SessionID(userKey string, start time.Time) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%d", userKey, start.UnixNano())))
	return hex.EncodeToString(sum[:])
}

// AttributionRow is one (conversion, model, channel) credit assignment.
// For a fixed conversion and model, credits across channels sum to the
// conversion value.
type AttributionRow struct {
	ConversionEventID string
	ConversionTS      time.Time
	ConversionValue   float64
	Model             CreditModel
	Channel           string
	Credit            float64
}
