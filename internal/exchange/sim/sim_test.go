package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kryofly/freqtrade/internal/exchange"
	"github.com/kryofly/freqtrade/internal/strategy"
)

// fakeFeed is a scriptable DataFeed standing in for a real Binance
// market-data client in tests.
type fakeFeed struct {
	ticker  strategy.Ticker
	history []exchange.Candle
}

func (f *fakeFeed) GetTicker(context.Context, string) (strategy.Ticker, error) { return f.ticker, nil }
func (f *fakeFeed) GetTickerHistory(context.Context, string, time.Duration, int) ([]exchange.Candle, error) {
	return f.history, nil
}
func (f *fakeFeed) GetMarketSummaries(context.Context) ([]exchange.MarketSummary, error) {
	return []exchange.MarketSummary{{Pair: "BTC/USDT", LastPrice: 100, BaseVolume: 5000}}, nil
}
func (f *fakeFeed) GetMarkets(context.Context) ([]string, error) {
	return []string{"BTC/USDT", "ETH/USDT"}, nil
}

func TestVenue_TickerSpreadsAroundFedPrice(t *testing.T) {
	v := New(0.001, 0.0005)
	v.SetPrice("BTC/USDT", 100)

	ticker, err := v.GetTicker(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	assert.Less(t, ticker.Bid, ticker.Last)
	assert.Greater(t, ticker.Ask, ticker.Last)
}

func TestVenue_BuyThenGetOrderRoundTrips(t *testing.T) {
	v := New(0.001, 0)
	v.SetPrice("BTC/USDT", 100)

	order, err := v.Buy(context.Background(), "BTC/USDT", 100, 1.5)
	require.NoError(t, err)
	assert.Equal(t, exchange.OrderStatusFilled, order.Status)

	got, err := v.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order, got)
}

func TestVenue_WalletHealthTracksFedPairs(t *testing.T) {
	v := New(0.001, 0)
	v.SetPrice("ETH/USDT", 10)

	health, err := v.GetWalletHealth(context.Background())
	require.NoError(t, err)
	assert.True(t, health["ETH/USDT"])
	assert.False(t, health["BTC/USDT"])
}

func TestVenue_WithoutFeedGetTickerHistoryErrors(t *testing.T) {
	v := New(0.001, 0)
	_, err := v.GetTickerHistory(context.Background(), "BTC/USDT", time.Minute, 10)
	assert.Error(t, err)
}

func TestVenue_WithFeedServesTickerAndHistory(t *testing.T) {
	feed := &fakeFeed{
		ticker:  strategy.Ticker{Bid: 99, Ask: 101, Last: 100},
		history: []exchange.Candle{{Open: 100, Close: 101}, {Open: 101, Close: 102}},
	}
	v := NewWithFeed(0.001, 0, feed)

	ticker, err := v.GetTicker(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, feed.ticker, ticker)

	history, err := v.GetTickerHistory(context.Background(), "BTC/USDT", time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, feed.history, history)
}

func TestVenue_WithFeedOrdersStillFillInMemory(t *testing.T) {
	feed := &fakeFeed{ticker: strategy.Ticker{Bid: 99, Ask: 101, Last: 100}}
	v := NewWithFeed(0.001, 0, feed)

	order, err := v.Buy(context.Background(), "BTC/USDT", 100, 1)
	require.NoError(t, err)
	assert.Equal(t, exchange.OrderStatusFilled, order.Status)

	got, err := v.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order, got)
}

func TestVenue_WithFeedDelegatesMarketsAndSummaries(t *testing.T) {
	feed := &fakeFeed{}
	v := NewWithFeed(0.001, 0, feed)

	markets, err := v.GetMarkets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, markets)

	summaries, err := v.GetMarketSummaries(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "BTC/USDT", summaries[0].Pair)
}
