package live

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kryofly/freqtrade/internal/candle"
	"github.com/kryofly/freqtrade/internal/exchange"
	"github.com/kryofly/freqtrade/internal/exitrule"
	"github.com/kryofly/freqtrade/internal/notify"
	"github.com/kryofly/freqtrade/internal/store/memstore"
	"github.com/kryofly/freqtrade/internal/strategy"
)

// fakeVenue is a minimal exchange.Venue with scriptable wallet health
// and candle history, used where internal/exchange/sim's
// GetTickerHistory ("unsupported, feed candles directly") doesn't fit.
type fakeVenue struct {
	health    map[string]bool
	summaries []exchange.MarketSummary
	history   []exchange.Candle
	ticker    strategy.Ticker
	fee       float64
}

func (f *fakeVenue) GetTicker(context.Context, string) (strategy.Ticker, error) { return f.ticker, nil }
func (f *fakeVenue) GetTickerHistory(context.Context, string, time.Duration, int) ([]exchange.Candle, error) {
	return f.history, nil
}
func (f *fakeVenue) Buy(context.Context, string, float64, float64) (exchange.Order, error) {
	return exchange.Order{ID: "buy-1", Status: exchange.OrderStatusFilled, Rate: f.ticker.Last, FilledAmt: 1}, nil
}
func (f *fakeVenue) Sell(context.Context, string, float64, float64) (exchange.Order, error) {
	return exchange.Order{ID: "sell-1", Status: exchange.OrderStatusFilled}, nil
}
func (f *fakeVenue) GetOrder(context.Context, string) (exchange.Order, error) {
	return exchange.Order{Status: exchange.OrderStatusFilled}, nil
}
func (f *fakeVenue) GetBalance(context.Context, string) (exchange.Balance, error) {
	return exchange.Balance{}, nil
}
func (f *fakeVenue) GetBalances(context.Context) ([]exchange.Balance, error) { return nil, nil }
func (f *fakeVenue) GetWalletHealth(context.Context) (map[string]bool, error) {
	return f.health, nil
}
func (f *fakeVenue) GetMarkets(context.Context) ([]string, error) { return nil, nil }
func (f *fakeVenue) GetMarketSummaries(context.Context) ([]exchange.MarketSummary, error) {
	return f.summaries, nil
}
func (f *fakeVenue) Fee() float64 { return f.fee }

// fakeStrategy never signals buy/sell, letting tests drive the live
// loop's plumbing without depending on default.go's RSI math.
type fakeStrategy struct{}

func (fakeStrategy) Name() string                               { return "fake" }
func (fakeStrategy) SchemaVersion() string                       { return "1" }
func (fakeStrategy) SelectIndicators() []strategy.IndicatorSpec  { return nil }
func (fakeStrategy) PopulateBuyTrend(*candle.Series) error       { return nil }
func (fakeStrategy) PopulateSellTrend(*candle.Series) error      { return nil }
func (fakeStrategy) RoiTiers() exitrule.RoiTier                  { return exitrule.RoiTier{0: 1} }
func (fakeStrategy) ExitParams() exitrule.Params {
	return exitrule.Params{RoiTiers: exitrule.RoiTier{0: 1}, StopLoss: -1, TickInterval: 5 * time.Minute}
}
func (fakeStrategy) StakeCurrency() string             { return "BTC" }
func (fakeStrategy) StakeAmount() float64              { return 0.05 }
func (fakeStrategy) MaxOpenTrades() int                { return 3 }
func (fakeStrategy) Fee() float64                      { return 0.001 }
func (fakeStrategy) AskLastBalance() float64           { return 0 }
func (fakeStrategy) FreshnessWindow() time.Duration    { return time.Hour }
func (fakeStrategy) TargetBid(t strategy.Ticker) float64 { return t.Ask }
func (fakeStrategy) HyperSpace() strategy.HyperSpace   { return strategy.HyperSpace{} }
func (fakeStrategy) BindParams(strategy.ParameterSet) (strategy.Strategy, error) {
	return fakeStrategy{}, nil
}

func testCandles(n int) []exchange.Candle {
	start := time.Now().Add(-time.Duration(n) * 5 * time.Minute)
	out := make([]exchange.Candle, n)
	for i := 0; i < n; i++ {
		out[i] = exchange.Candle{OpenTime: start.Add(time.Duration(i) * 5 * time.Minute), Open: 10, High: 12, Low: 9, Close: 11, Volume: 5}
	}
	return out
}

func newTestEngine(venue exchange.Venue, whitelist []string) *Engine {
	cfg := Config{
		Whitelist:       whitelist,
		ProcessThrottle: time.Millisecond,
		HistoryLimit:    10,
	}
	return New(cfg, venue, memstore.New(), fakeStrategy{}, notify.New(), nil, nil)
}

func TestStatusReportsStateAndStrategyName(t *testing.T) {
	e := newTestEngine(&fakeVenue{}, nil)
	assert.Contains(t, e.Status(), "fake")
}

func TestStopThenResumeTransitionsAppState(t *testing.T) {
	e := newTestEngine(&fakeVenue{}, nil)
	e.Stop()
	assert.Contains(t, e.Status(), "STOPPED")
	require.NoError(t, e.Resume())
	assert.Contains(t, e.Status(), "RUNNING")
}

func TestRunRespectsConfiguredInitialState(t *testing.T) {
	venue := &fakeVenue{health: map[string]bool{}}
	e := newTestEngine(venue, nil)
	e.initial = StateStopped

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_ = e.Run(ctx)

	assert.Equal(t, StateStopped, e.state.get())
}

func TestRunExitsWhenContextCancelled(t *testing.T) {
	venue := &fakeVenue{health: map[string]bool{}}
	e := newTestEngine(venue, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := e.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRefreshWhitelistFiltersByWalletHealth(t *testing.T) {
	venue := &fakeVenue{health: map[string]bool{"BTC/USDT": true, "ETH/USDT": false}}
	e := newTestEngine(venue, []string{"BTC/USDT", "ETH/USDT"})

	whitelist, err := e.refreshWhitelist(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC/USDT"}, whitelist)
}

func TestRefreshWhitelistRanksByDynamicTopN(t *testing.T) {
	venue := &fakeVenue{
		health: map[string]bool{"A": true, "B": true, "C": true},
		summaries: []exchange.MarketSummary{
			{Pair: "A", BaseVolume: 1},
			{Pair: "B", BaseVolume: 3},
			{Pair: "C", BaseVolume: 2},
		},
	}
	cfg := Config{Whitelist: []string{"A", "B", "C"}, DynamicTopN: 2, ProcessThrottle: time.Millisecond, HistoryLimit: 10}
	e := New(cfg, venue, memstore.New(), fakeStrategy{}, notify.New(), nil, nil)

	whitelist, err := e.refreshWhitelist(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, whitelist)
}

func TestIntersectReturnsCommonElements(t *testing.T) {
	got := intersect([]string{"A", "B", "C"}, []string{"B", "C", "D"})
	assert.Equal(t, []string{"B", "C"}, got)
}

func TestRoundAmountAppliesTieredPrecision(t *testing.T) {
	assert.Equal(t, 0.1235, roundAmount(0.1234567))
	assert.Equal(t, 6.0, roundAmount(6.0000001))
	assert.Equal(t, 0.0123, roundAmount(0.01234567))
}

func TestTickRunsEntryAndExitEvaluationWithoutError(t *testing.T) {
	venue := &fakeVenue{
		health:  map[string]bool{"BTC/USDT": true},
		history: testCandles(20),
		ticker:  strategy.Ticker{Bid: 99, Ask: 101, Last: 100},
		fee:     0.001,
	}
	e := newTestEngine(venue, []string{"BTC/USDT"})

	err := e.tick(context.Background())
	assert.NoError(t, err)
}
