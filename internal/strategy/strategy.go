// Package strategy defines the polymorphic Strategy contract
// (spec.md §4.2) a user implements. Strategies are modeled as an
// interface rather than a base class with reflection: the engine must
// tolerate several strategy instances living in the same process
// (hyperopt instantiates one per experiment), and dynamic loading is
// the concrete file the user supplies, not a shared global.
package strategy

import (
	"time"

	"github.com/kryofly/freqtrade/internal/candle"
	"github.com/kryofly/freqtrade/internal/exitrule"
)

// IndicatorSpec declares one indicator column a strategy needs
// populated before signal evaluation, with optional arguments (e.g.
// period) passed through to internal/indicators.
type IndicatorSpec struct {
	Name string
	Args map[string]interface{}
}

// Ticker is the {bid, ask, last} view the venue exposes for a pair,
// the input to TargetBid.
type Ticker struct {
	Bid  float64
	Ask  float64
	Last float64
}

// Strategy is the contract every trading strategy implements.
// Operations are pure given their inputs and bound hyper-parameters,
// except for parameter binding itself (BindParams).
type Strategy interface {
	// Name identifies the strategy for logging and reporting.
	Name() string

	// SchemaVersion reports the strategy's schema version, checked by
	// CheckCompatible before the engine loads it.
	SchemaVersion() string

	// SelectIndicators declares which indicator columns must be
	// populated (by the external indicator collaborator) before
	// PopulateBuyTrend/PopulateSellTrend run.
	SelectIndicators() []IndicatorSpec

	// PopulateBuyTrend sets buy[i]=1 on rows satisfying entry
	// conditions. Must not set sell. Idempotent: calling it twice
	// yields the same buy column (spec.md §8).
	PopulateBuyTrend(s *candle.Series) error

	// PopulateSellTrend sets sell[i]=1 symmetrically. Idempotent.
	PopulateSellTrend(s *candle.Series) error

	// RoiTiers returns the duration-to-profit-threshold table.
	RoiTiers() exitrule.RoiTier

	// ExitParams returns the hard stop-loss, trailing-stop gap and
	// tick interval the exit-rule evaluator needs.
	ExitParams() exitrule.Params

	// StakeCurrency, StakeAmount, MaxOpenTrades, Fee, AskLastBalance
	// and FreshnessWindow expose the remaining Strategy fields of
	// spec.md §3.
	StakeCurrency() string
	StakeAmount() float64
	MaxOpenTrades() int
	Fee() float64
	AskLastBalance() float64
	FreshnessWindow() time.Duration

	// TargetBid computes the bid price to submit an entry at
	// (spec.md §4.2): if ask < last, return ask; else
	// ask + ask_last_balance*(last-ask).
	TargetBid(t Ticker) float64

	// HyperSpace describes the strategy's tunable parameter space.
	// Opaque to the engine; consumed only by the hyperopt driver.
	HyperSpace() HyperSpace

	// BindParams applies a parameter assignment sampled from
	// HyperSpace, returning a new Strategy value bound to those
	// parameters (strategies must not mutate shared state across
	// concurrent hyperopt experiments).
	BindParams(p ParameterSet) (Strategy, error)
}

// TargetBid is the reference implementation of spec.md §4.2's bid
// formula, exported so strategies embedding a common base can reuse it
// without reimplementing the arithmetic.
func TargetBid(t Ticker, askLastBalance float64) float64 {
	if t.Ask < t.Last {
		return t.Ask
	}
	return t.Ask + askLastBalance*(t.Last-t.Ask)
}
