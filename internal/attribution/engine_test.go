package attribution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rirts/attribution-os/internal/domain"
)

var engineBase = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return NewEngine(DefaultConfig())
}

// creditsFor collects the merged rows of one model as channel → credit.
func creditsFor(rows []domain.AttributionRow, model domain.CreditModel) map[string]float64 {
	credits := make(map[string]float64)
	for _, r := range rows {
		if r.Model == model {
			credits[r.Channel] += r.Credit
		}
	}
	return credits
}

func TestEngine_NoConversions(t *testing.T) {
	engine := newTestEngine()

	rows := engine.Attribute([]domain.Event{
		pageview("e1", engineBase, "google/cpc"),
		pageview("e2", engineBase.Add(time.Hour), "facebook/social"),
	})

	assert.Empty(t, rows)
}

// The reference scenario: touchpoints at t0 (google/cpc) and t0+1d
// (facebook/social), purchase worth 100 at t0+2d.
func TestEngine_TwoTouchpointScenario(t *testing.T) {
	engine := newTestEngine()

	rows := engine.Attribute([]domain.Event{
		pageview("p1", engineBase, "google/cpc"),
		pageview("p2", engineBase.Add(24*time.Hour), "facebook/social"),
		purchase("c1", engineBase.Add(48*time.Hour), "direct/none", 100),
	})

	lastTouch := creditsFor(rows, domain.ModelLastTouch)
	assert.Equal(t, map[string]float64{"facebook/social": 100}, lastTouch)

	linear := creditsFor(rows, domain.ModelLinear)
	assert.InDelta(t, 50, linear["google/cpc"], 1e-9)
	assert.InDelta(t, 50, linear["facebook/social"], 1e-9)

	// n == 2: the 20% middle share folds evenly into first and last.
	uShaped := creditsFor(rows, domain.ModelUShaped)
	assert.InDelta(t, 50, uShaped["google/cpc"], 1e-9)
	assert.InDelta(t, 50, uShaped["facebook/social"], 1e-9)

	// Half-life 7d: weights 0.5^(2/7) and 0.5^(1/7); the newer touchpoint
	// earns more.
	timeDecay := creditsFor(rows, domain.ModelTimeDecay)
	assert.Greater(t, timeDecay["facebook/social"], timeDecay["google/cpc"])
	assert.InDelta(t, 100, timeDecay["google/cpc"]+timeDecay["facebook/social"], 1e-9)
}

func TestEngine_SingleTouchpointModelAgreement(t *testing.T) {
	engine := newTestEngine()

	rows := engine.Attribute([]domain.Event{
		pageview("p1", engineBase, "google/cpc"),
		purchase("c1", engineBase.Add(time.Hour), "direct/none", 42),
	})

	for _, model := range domain.Models {
		credits := creditsFor(rows, model)
		assert.Equal(t, map[string]float64{"google/cpc": 42.0}, credits,
			"model %s should assign everything to the single channel", model)
	}
}

func TestEngine_EmptyWindowFallsBackToDirect(t *testing.T) {
	engine := newTestEngine()

	// The only touchpoint is outside the 7 day lookback.
	rows := engine.Attribute([]domain.Event{
		pageview("p1", engineBase.Add(-8*24*time.Hour), "google/cpc"),
		purchase("c1", engineBase, "direct/none", 10),
	})

	for _, model := range domain.Models {
		credits := creditsFor(rows, model)
		assert.Equal(t, map[string]float64{domain.DirectChannel: 10.0}, credits)
	}
}

func TestEngine_LookbackBoundaryIsInclusive(t *testing.T) {
	engine := newTestEngine()

	rows := engine.Attribute([]domain.Event{
		pageview("p1", engineBase.Add(-7*24*time.Hour), "google/cpc"),
		purchase("c1", engineBase, "direct/none", 10),
	})

	credits := creditsFor(rows, domain.ModelLastTouch)
	assert.Equal(t, map[string]float64{"google/cpc": 10.0}, credits)
}

func TestEngine_UShaped_ThreeTouchpoints(t *testing.T) {
	engine := newTestEngine()

	rows := engine.Attribute([]domain.Event{
		pageview("p1", engineBase, "google/cpc"),
		pageview("p2", engineBase.Add(time.Hour), "newsletter/email"),
		pageview("p3", engineBase.Add(2*time.Hour), "facebook/social"),
		purchase("c1", engineBase.Add(3*time.Hour), "direct/none", 100),
	})

	uShaped := creditsFor(rows, domain.ModelUShaped)
	assert.InDelta(t, 40, uShaped["google/cpc"], 1e-9)
	assert.InDelta(t, 20, uShaped["newsletter/email"], 1e-9)
	assert.InDelta(t, 40, uShaped["facebook/social"], 1e-9)
}

func TestEngine_TimeDecay_SimultaneousTouchpointGetsMaxWeight(t *testing.T) {
	engine := newTestEngine()

	rows := engine.Attribute([]domain.Event{
		pageview("p1", engineBase.Add(-7*24*time.Hour), "google/cpc"),
		pageview("p2", engineBase, "facebook/social"),
		purchase("c1", engineBase, "direct/none", 90),
	})

	// Weights: 0.5 for the 7 day old touchpoint, 1.0 for the simultaneous
	// one; credit splits 30/60.
	timeDecay := creditsFor(rows, domain.ModelTimeDecay)
	assert.InDelta(t, 30, timeDecay["google/cpc"], 1e-9)
	assert.InDelta(t, 60, timeDecay["facebook/social"], 1e-9)
}

func TestEngine_RepeatedChannelsMergeIntoOneRow(t *testing.T) {
	engine := newTestEngine()

	rows := engine.Attribute([]domain.Event{
		pageview("p1", engineBase, "google/cpc"),
		pageview("p2", engineBase.Add(time.Minute), "google/cpc"),
		pageview("p3", engineBase.Add(2*time.Minute), "google/cpc"),
		purchase("c1", engineBase.Add(3*time.Minute), "direct/none", 100),
	})

	for _, r := range rows {
		if r.Model == domain.ModelLinear {
			assert.Equal(t, "google/cpc", r.Channel)
			assert.InDelta(t, 100, r.Credit, 1e-9)
		}
	}
	// One merged row per model, all on the same channel.
	assert.Len(t, rows, len(domain.Models))
}

func TestEngine_CreditConservation(t *testing.T) {
	engine := newTestEngine()

	events := []domain.Event{
		pageview("p1", engineBase, "google/cpc"),
		pageview("p2", engineBase.Add(6*time.Hour), "facebook/social"),
		pageview("p3", engineBase.Add(12*time.Hour), "google/cpc"),
		pageview("p4", engineBase.Add(24*time.Hour), "newsletter/email"),
		purchase("c1", engineBase.Add(30*time.Hour), "direct/none", 123.45),
		{
			EventID:   "c2",
			Timestamp: engineBase.Add(31 * time.Hour),
			Type:      domain.EventLead,
			Channel:   "direct/none",
			UserKey:   "ids_uid:u1",
		}, // zero-value conversion
	}

	rows := engine.Attribute(events)

	for _, conv := range []struct {
		id    string
		value float64
	}{{"c1", 123.45}, {"c2", 0}} {
		for _, model := range domain.Models {
			var sum float64
			for _, r := range rows {
				if r.ConversionEventID == conv.id && r.Model == model {
					sum += r.Credit
				}
			}
			assert.InDelta(t, conv.value, sum, 1e-9,
				"conversion %s model %s must conserve credit", conv.id, model)
		}
	}
}

func TestEngine_ZeroValueConversionEmitsZeroShares(t *testing.T) {
	engine := newTestEngine()

	rows := engine.Attribute([]domain.Event{
		pageview("p1", engineBase, "google/cpc"),
		pageview("p2", engineBase.Add(time.Hour), "facebook/social"),
		{
			EventID:   "c1",
			Timestamp: engineBase.Add(2 * time.Hour),
			Type:      domain.EventLead,
			Channel:   "direct/none",
			UserKey:   "ids_uid:u1",
		},
	})

	require.NotEmpty(t, rows)
	for _, r := range rows {
		assert.Zero(t, r.Credit)
		assert.Zero(t, r.ConversionValue)
	}
}

func TestEngine_Determinism(t *testing.T) {
	engine := newTestEngine()
	events := []domain.Event{
		pageview("p1", engineBase, "google/cpc"),
		pageview("p2", engineBase.Add(time.Hour), "facebook/social"),
		purchase("c1", engineBase.Add(2*time.Hour), "direct/none", 100),
		purchase("c2", engineBase.Add(3*time.Hour), "direct/none", 10),
	}

	first := engine.Attribute(events)
	second := engine.Attribute(events)

	assert.Equal(t, first, second)
}
