package attribution

import "time"

// Config carries the tunables of the analytical core. It is constructed once
// at startup and passed by reference; the core keeps no ambient state.
type Config struct {
	// SessionTimeout is the inactivity gap that closes a session. A gap
	// exactly equal to the timeout stays in the same session.
	SessionTimeout time.Duration

	// Lookback is the trailing window before a conversion within which
	// touchpoints are eligible for credit.
	Lookback time.Duration

	// DecayHalfLife is the time-decay half-life: a touchpoint this much
	// older than the conversion carries half the weight of a simultaneous
	// one.
	DecayHalfLife time.Duration
}

// DefaultConfig mirrors the documented defaults: 30 minute sessions, 7 day
// lookback, 7 day half-life.
func DefaultConfig() Config {
	return Config{
		SessionTimeout: 30 * time.Minute,
		Lookback:       7 * 24 * time.Hour,
		DecayHalfLife:  7 * 24 * time.Hour,
	}
}
