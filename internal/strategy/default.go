package strategy

import (
	"time"

	"github.com/kryofly/freqtrade/internal/candle"
	"github.com/kryofly/freqtrade/internal/exitrule"
)

// DefaultStrategy is a small RSI-based reference implementation,
// grounded in the teacher's SimpleStrategy (cmd/backtest/main.go):
// buy when RSI dips below an oversold threshold, sell when it climbs
// above an overbought one. It exists so the CLI has a working
// strategy out of the box and so tests can exercise the full engine
// without a user-supplied strategy file.
type DefaultStrategy struct {
	stakeCurrency    string
	stakeAmount      float64
	maxOpenTrades    int
	tickInterval     time.Duration
	fee              float64
	askLastBalance   float64
	freshnessWindow  time.Duration
	roiTiers         exitrule.RoiTier
	stopLoss         float64
	trailStop        float64
	trailEMA         float64
	rsiPeriod        int
	oversold         float64
	overbought       float64
}

// NewDefaultStrategy builds the reference strategy with the teacher's
// conventional defaults (2% stop-loss floor loosened to 10%, matching
// spec.md's scenario defaults).
func NewDefaultStrategy() *DefaultStrategy {
	return &DefaultStrategy{
		stakeCurrency:   "BTC",
		stakeAmount:     0.01,
		maxOpenTrades:   3,
		tickInterval:    5 * time.Minute,
		fee:             0.0025,
		askLastBalance:  0.0,
		freshnessWindow: 10 * time.Minute,
		roiTiers: exitrule.RoiTier{
			0:   0.04,
			30:  0.02,
			60:  0.01,
			120: 0.0,
		},
		stopLoss:   -0.10,
		trailStop:  -0.05,
		trailEMA:   0.1,
		rsiPeriod:  14,
		oversold:   30,
		overbought: 70,
	}
}

func (d *DefaultStrategy) Name() string          { return "default-rsi" }
func (d *DefaultStrategy) SchemaVersion() string { return SchemaVersion }

func (d *DefaultStrategy) SelectIndicators() []IndicatorSpec {
	return []IndicatorSpec{{Name: "rsi", Args: map[string]interface{}{"period": d.rsiPeriod}}}
}

func (d *DefaultStrategy) PopulateBuyTrend(s *candle.Series) error {
	rsi := s.Column("rsi")
	for i := 0; i < s.Len(); i++ {
		if rsi[i] != 0 && rsi[i] < d.oversold {
			s.SetBuy(i, 1)
		}
	}
	return nil
}

func (d *DefaultStrategy) PopulateSellTrend(s *candle.Series) error {
	rsi := s.Column("rsi")
	for i := 0; i < s.Len(); i++ {
		if rsi[i] > d.overbought {
			s.SetSell(i, 1)
		}
	}
	return nil
}

func (d *DefaultStrategy) RoiTiers() exitrule.RoiTier { return d.roiTiers }

func (d *DefaultStrategy) ExitParams() exitrule.Params {
	return exitrule.Params{
		RoiTiers:     d.roiTiers,
		StopLoss:     d.stopLoss,
		TrailStop:    d.trailStop,
		TrailEMA:     d.trailEMA,
		TickInterval: d.tickInterval,
	}
}

func (d *DefaultStrategy) StakeCurrency() string        { return d.stakeCurrency }
func (d *DefaultStrategy) StakeAmount() float64         { return d.stakeAmount }
func (d *DefaultStrategy) MaxOpenTrades() int           { return d.maxOpenTrades }
func (d *DefaultStrategy) Fee() float64                 { return d.fee }
func (d *DefaultStrategy) AskLastBalance() float64      { return d.askLastBalance }
func (d *DefaultStrategy) FreshnessWindow() time.Duration { return d.freshnessWindow }

// TrailEMA exposes the trailing-stop smoothing factor (spec.md §4.4's
// alpha) to callers that need it outside ExitParams, such as the
// backtest simulator's per-candle StepFrame call.
func (d *DefaultStrategy) TrailEMA() float64 { return d.trailEMA }

func (d *DefaultStrategy) TargetBid(t Ticker) float64 {
	return TargetBid(t, d.askLastBalance)
}

func (d *DefaultStrategy) HyperSpace() HyperSpace {
	return HyperSpace{Parameters: []Parameter{
		{Name: "rsi_period", Type: ParamTypeInt, Min: 7, Max: 21, Step: 1},
		{Name: "oversold", Type: ParamTypeFloat, Min: 10, Max: 40, Step: 1},
		{Name: "overbought", Type: ParamTypeFloat, Min: 60, Max: 90, Step: 1},
		{Name: "stop_loss", Type: ParamTypeFloat, Min: -0.20, Max: -0.02, Step: 0.01},
		{Name: "trail_ema", Type: ParamTypeFloat, Min: 0.02, Max: 0.3, Step: 0.01},
	}}
}

func (d *DefaultStrategy) BindParams(p ParameterSet) (Strategy, error) {
	bound := *d
	bound.rsiPeriod = p.Int("rsi_period", d.rsiPeriod)
	bound.oversold = p.Float("oversold", d.oversold)
	bound.overbought = p.Float("overbought", d.overbought)
	bound.stopLoss = p.Float("stop_loss", d.stopLoss)
	bound.trailEMA = p.Float("trail_ema", d.trailEMA)
	return &bound, nil
}
