package exitrule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kryofly/freqtrade/internal/position"
)

func newOpenPosition(rate float64) *position.Position {
	return position.New("BTC/USDT", "binance", time.Now(), rate, 0.05, 0.001)
}

func TestMinROIReachedFiresEarliestEligibleTier(t *testing.T) {
	p := Params{RoiTiers: RoiTier{0: 0.04, 30: 0.02, 60: 0.0}}
	pos := newOpenPosition(100)

	reason := MinROIReached(p, pos, 105, 10, 0.05)
	assert.Equal(t, ReasonROI, reason)
}

func TestMinROIReachedRespectsTierOrdering(t *testing.T) {
	p := Params{RoiTiers: RoiTier{0: 0.04, 30: 0.02}}
	pos := newOpenPosition(100)

	// elapsed=10 only satisfies tier 0, and profit doesn't clear it.
	reason := MinROIReached(p, pos, 101, 10, 0.01)
	assert.Equal(t, ReasonNone, reason)
}

func TestMinROIReachedFallsBackToStopLoss(t *testing.T) {
	p := Params{RoiTiers: RoiTier{0: 0.04}, StopLoss: -0.05}
	pos := newOpenPosition(100)

	reason := MinROIReached(p, pos, 90, 1, -0.06)
	assert.Equal(t, ReasonStopLoss, reason)
}

func TestMinROIReachedFallsBackToTrailingStop(t *testing.T) {
	p := Params{RoiTiers: RoiTier{0: 0.04}, StopLoss: -0.10, TrailStop: -0.02}
	pos := newOpenPosition(100)
	ref := 110.0
	pos.StatTrailRef = &ref

	reason := MinROIReached(p, pos, 107, 1, 0.01)
	assert.Equal(t, ReasonTrailingStop, reason)
}

func TestMinROIReachedReturnsNoneWhenNothingTrips(t *testing.T) {
	p := Params{RoiTiers: RoiTier{0: 0.04}, StopLoss: -0.10}
	pos := newOpenPosition(100)

	reason := MinROIReached(p, pos, 101, 1, 0.01)
	assert.Equal(t, ReasonNone, reason)
}

func TestElapsedCandlesConvertsWallClockGap(t *testing.T) {
	open := time.Now().Add(-30 * time.Minute)
	now := open.Add(30 * time.Minute)
	got := ElapsedCandles(open, now, 5*time.Minute)
	assert.InDelta(t, 6, got, 1e-9)
}

func TestElapsedCandlesZeroIntervalIsZero(t *testing.T) {
	assert.Equal(t, 0.0, ElapsedCandles(time.Now(), time.Now(), 0))
}

func TestStepFrameInitializesRefOnFirstCall(t *testing.T) {
	pos := newOpenPosition(100)
	ref := StepFrame(pos, 105, 0.1)
	assert.Equal(t, 105.0, ref)
	assert.NotNil(t, pos.StatTrailRef)
	assert.Equal(t, 105.0, *pos.StatTrailRef)
}

func TestStepFrameTracksTowardMaxOfRateAndStatMax(t *testing.T) {
	pos := newOpenPosition(100)
	pos.UpdateStats(120)
	StepFrame(pos, 105, 1.0) // alpha=1 snaps directly to target

	// target = max(rate, StatMaxRate) = max(105, 120) = 120
	assert.Equal(t, 120.0, *pos.StatTrailRef)
}
