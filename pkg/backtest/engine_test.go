package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kryofly/freqtrade/internal/candle"
	"github.com/kryofly/freqtrade/internal/exitrule"
	"github.com/kryofly/freqtrade/internal/strategy"
)

// buyEveryCandle is a minimal strategy.Strategy for exercising the
// simulator end to end without RSI/indicator plumbing.
type buyEveryCandle struct {
	roi       exitrule.RoiTier
	stopLoss  float64
	trailStop float64
	trailEMA  float64
	stake     float64
	fee       float64
	maxOpen   int
}

func (b buyEveryCandle) Name() string                               { return "buy-every-candle" }
func (b buyEveryCandle) SchemaVersion() string                      { return strategy.SchemaVersion }
func (b buyEveryCandle) SelectIndicators() []strategy.IndicatorSpec { return nil }
func (b buyEveryCandle) PopulateBuyTrend(s *candle.Series) error {
	for i := 0; i < s.Len(); i++ {
		s.SetBuy(i, 1)
	}
	return nil
}
func (b buyEveryCandle) PopulateSellTrend(s *candle.Series) error { return nil }
func (b buyEveryCandle) RoiTiers() exitrule.RoiTier               { return b.roi }
func (b buyEveryCandle) ExitParams() exitrule.Params {
	return exitrule.Params{
		RoiTiers:     b.roi,
		StopLoss:     b.stopLoss,
		TrailStop:    b.trailStop,
		TrailEMA:     b.trailEMA,
		TickInterval: time.Minute,
	}
}
func (b buyEveryCandle) StakeCurrency() string                 { return "USD" }
func (b buyEveryCandle) StakeAmount() float64                  { return b.stake }
func (b buyEveryCandle) MaxOpenTrades() int                    { return b.maxOpen }
func (b buyEveryCandle) Fee() float64                          { return b.fee }
func (b buyEveryCandle) AskLastBalance() float64               { return 0 }
func (b buyEveryCandle) FreshnessWindow() time.Duration        { return 10 * time.Minute }
func (b buyEveryCandle) TargetBid(t strategy.Ticker) float64   { return strategy.TargetBid(t, 0) }
func (b buyEveryCandle) HyperSpace() strategy.HyperSpace       { return strategy.HyperSpace{} }
func (b buyEveryCandle) BindParams(p strategy.ParameterSet) (strategy.Strategy, error) {
	return b, nil
}

func series(t *testing.T, closes []float64, interval time.Duration) *candle.Series {
	t.Helper()
	rows := make([]candle.Candle, len(closes))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		rows[i] = candle.Candle{Timestamp: base.Add(time.Duration(i) * interval), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	s, err := candle.NewSeries("PAIR", interval, rows)
	require.NoError(t, err)
	return s
}

func TestRun_MonotoneRising_ProducesProfitableTrade(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 0.001 + float64(i)*0.0001
	}
	s := series(t, closes, time.Minute)

	strat := buyEveryCandle{roi: exitrule.RoiTier{0: 0.04}, stopLoss: -0.10, trailStop: -0.5, trailEMA: 0.1, stake: 1, fee: 0.0, maxOpen: 1}
	require.NoError(t, strat.PopulateBuyTrend(s))

	ledger, e := Run(strat, map[string]*candle.Series{"PAIR": s}, Options{})
	require.NoError(t, e)
	require.NotEmpty(t, ledger)
	for _, row := range ledger {
		assert.GreaterOrEqual(t, row.ProfitRatio, 0.0)
		assert.Greater(t, row.ExitTime, row.EntryTime)
	}
}

func TestRun_MonotoneFalling_ExitsViaStopLoss(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 0.001 - float64(i)*0.0001
		if closes[i] <= 0 {
			closes[i] = 0.00001
		}
	}
	s := series(t, closes, time.Minute)

	strat := buyEveryCandle{roi: exitrule.RoiTier{0: 0.04}, stopLoss: -0.10, trailStop: -0.5, trailEMA: 0.1, stake: 1, fee: 0.0, maxOpen: 1}
	require.NoError(t, strat.PopulateBuyTrend(s))

	ledger, e := Run(strat, map[string]*candle.Series{"PAIR": s}, Options{})
	require.NoError(t, e)
	require.NotEmpty(t, ledger)
	for _, row := range ledger {
		assert.Equal(t, exitrule.ReasonStopLoss, row.Reason)
		assert.Less(t, row.ProfitRatio, 0.0)
	}
}

func TestRun_Deterministic(t *testing.T) {
	closes := []float64{1, 1.01, 1.02, 0.9, 1.1, 1.2, 0.8, 1.3}
	s1 := series(t, closes, time.Minute)
	s2 := series(t, closes, time.Minute)

	strat := buyEveryCandle{roi: exitrule.RoiTier{0: 0.01}, stopLoss: -0.2, trailStop: -0.5, trailEMA: 0.1, stake: 1, fee: 0.001, maxOpen: 1}
	require.NoError(t, strat.PopulateBuyTrend(s1))
	require.NoError(t, strat.PopulateBuyTrend(s2))

	l1, e1 := Run(strat, map[string]*candle.Series{"PAIR": s1}, Options{Realistic: true})
	l2, e2 := Run(strat, map[string]*candle.Series{"PAIR": s2}, Options{Realistic: true})
	require.NoError(t, e1)
	require.NoError(t, e2)
	assert.Equal(t, l1, l2)
}

func TestRun_Realistic_NoOverlappingTrades(t *testing.T) {
	closes := []float64{1, 1.05, 1, 1.05, 1, 1.05, 1, 1.05}
	s := series(t, closes, time.Minute)

	strat := buyEveryCandle{roi: exitrule.RoiTier{0: 0.01}, stopLoss: -0.5, trailStop: -0.9, trailEMA: 0.1, stake: 1, fee: 0.0, maxOpen: 10}
	require.NoError(t, strat.PopulateBuyTrend(s))

	ledger, e := Run(strat, map[string]*candle.Series{"PAIR": s}, Options{Realistic: true})
	require.NoError(t, e)
	for i := 1; i < len(ledger); i++ {
		assert.GreaterOrEqual(t, ledger[i].EntryTime, ledger[i-1].ExitTime)
	}
}

func TestRun_EmptyBuyColumn_ProducesEmptyLedger(t *testing.T) {
	closes := []float64{1, 1.01, 1.02}
	s := series(t, closes, time.Minute)
	strat := buyEveryCandle{roi: exitrule.RoiTier{0: 0.01}, stopLoss: -0.5, trailEMA: 0.1, stake: 1, maxOpen: 1}
	ledger, e := Run(strat, map[string]*candle.Series{"PAIR": s}, Options{})
	require.NoError(t, e)
	assert.Empty(t, ledger)
}
