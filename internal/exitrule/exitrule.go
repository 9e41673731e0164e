// Package exitrule implements the single authority on exiting a
// position (spec.md §4.3): ROI-tier check, hard stop-loss, trailing
// stop, and the per-frame trailing-stop update (spec.md §4.4). No
// other component may close a position on its own timing criterion.
package exitrule

import (
	"sort"
	"time"

	"github.com/kryofly/freqtrade/internal/position"
)

// RoiTier maps elapsed-candles thresholds to a required profit ratio.
// An open position exits when elapsed > d && profit > threshold(d) for
// some tier d; ties resolve to the smaller d (spec.md §3, §4.3).
type RoiTier map[int]float64

// sortedKeys returns tier keys ascending, so the earliest eligible
// tier is the one that fires.
func (r RoiTier) sortedKeys() []int {
	keys := make([]int, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Reason names which rule tripped, used for reporting/ledger detail
// and to implement the ROI-precedes-sell-signal tie-break of spec §4.6.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonROI         Reason = "roi"
	ReasonStopLoss    Reason = "stop_loss"
	ReasonTrailingStop Reason = "trailing_stop"
	ReasonSellSignal  Reason = "sell_signal"
)

// Params bundles the per-strategy numbers the evaluator needs: ROI
// tiers, hard stop-loss (negative ratio), trailing-stop gap (negative
// ratio), and the tick interval used to convert wall-clock elapsed
// time into elapsed candles.
type Params struct {
	RoiTiers     RoiTier
	StopLoss     float64
	TrailStop    float64
	TrailEMA     float64
	TickInterval time.Duration
}

// MinROIReached implements spec.md §4.3's min_roi_reached: elapsed
// candles and current profit are computed by the caller (so live and
// backtest share one code path) and passed in. It returns the Reason
// the exit fired for, or ReasonNone if no rule tripped.
func MinROIReached(p Params, pos *position.Position, rate float64, elapsedCandles float64, profit float64) Reason {
	for _, d := range p.RoiTiers.sortedKeys() {
		threshold := p.RoiTiers[d]
		if elapsedCandles > float64(d) && profit > threshold {
			return ReasonROI
		}
	}
	if profit < p.StopLoss {
		return ReasonStopLoss
	}
	if pos.StatTrailRef != nil {
		if rate/(*pos.StatTrailRef)-1 < p.TrailStop {
			return ReasonTrailingStop
		}
	}
	return ReasonNone
}

// ElapsedCandles converts a wall-clock gap into a candle count, the
// first step of min_roi_reached (spec.md §4.3 step 1).
func ElapsedCandles(openDate, now time.Time, tickInterval time.Duration) float64 {
	if tickInterval <= 0 {
		return 0
	}
	return now.Sub(openDate).Seconds() / tickInterval.Seconds()
}

// StepFrame is the per-candle trailing-stop reference update (spec.md
// §4.4). alpha is trail_ema ∈ (0,1]. It mutates pos in place and
// returns the new reference for convenience.
//
// stat_trail_ref is initialized to rate when unset, then (on that same
// call too) updated as an exponential moving average toward
// max(rate, stat_max_rate) — this
// dampens a single spike from immediately enabling an exit on normal
// retracement, rather than snapping straight to the high-water mark.
func StepFrame(pos *position.Position, rate, alpha float64) float64 {
	target := rate
	if pos.StatMaxRate > target {
		target = pos.StatMaxRate
	}
	if pos.StatTrailRef == nil {
		ref := rate
		pos.StatTrailRef = &ref
	}
	next := (1-alpha)*(*pos.StatTrailRef) + alpha*target
	pos.StatTrailRef = &next
	return next
}
