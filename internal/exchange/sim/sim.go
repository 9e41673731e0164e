// Package sim implements a deterministic simulated venue used by
// live-mode dry runs (dry_run=true), grounded in the teacher's
// internal/exchange/mock.go paper-trading exchange: orders fill
// instantly at the rate the caller passes. The fee is only reported
// through Fee, and the slippage fraction only widens the bid/ask of a
// fed-price ticker; neither adjusts a fill.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kryofly/freqtrade/internal/exchange"
	"github.com/kryofly/freqtrade/internal/strategy"
)

// DataFeed is a read-only market-data source: the subset of
// exchange.Venue a dry run needs to evaluate real signals against,
// without the Buy/Sell/GetBalances methods that would touch a real
// account. internal/exchange/binance.Venue satisfies this with empty
// API credentials, since klines, book tickers and exchange info are
// all unauthenticated Binance endpoints.
type DataFeed interface {
	GetTicker(ctx context.Context, pair string) (strategy.Ticker, error)
	GetTickerHistory(ctx context.Context, pair string, interval time.Duration, limit int) ([]exchange.Candle, error)
	GetMarketSummaries(ctx context.Context) ([]exchange.MarketSummary, error)
	GetMarkets(ctx context.Context) ([]string, error)
}

// Venue is an in-memory exchange.Venue that fills every order
// instantly at the requested rate, with no fee or slippage applied.
// Order execution is always simulated; prices either come from fed
// values (SetPrice) or from an attached DataFeed (live dry runs,
// NewWithFeed).
type Venue struct {
	mu sync.RWMutex

	fee          float64
	baseSlippage float64
	feed         DataFeed

	prices   map[string]float64
	balances map[string]float64
	orders   map[string]exchange.Order
	wallet   map[string]bool
	markets  []string
}

// New builds a simulated venue with the given taker fee (a fraction,
// e.g. 0.001, reported by Fee) and a slippage fraction that sets the
// bid/ask spread GetTicker reports around a fed price.
// Price history comes entirely from SetPrice; GetTickerHistory is
// unsupported, matching the backtester which reads candles from its
// loaded files directly instead of through the venue.
func New(fee, slippage float64) *Venue {
	return &Venue{
		fee:          fee,
		baseSlippage: slippage,
		prices:       make(map[string]float64),
		balances:     make(map[string]float64),
		orders:       make(map[string]exchange.Order),
		wallet:       make(map[string]bool),
	}
}

// NewWithFeed builds a simulated venue that sources GetTicker and
// GetTickerHistory from feed instead of SetPrice, so a dry run
// (engine.dry_run=true) evaluates the live loop's entry/exit signals
// against real market data while every Buy/Sell still fills instantly
// in memory, never reaching the real account.
func NewWithFeed(fee, slippage float64, feed DataFeed) *Venue {
	v := New(fee, slippage)
	v.feed = feed
	return v
}

// SetPrice feeds the current price for pair, the input GetTicker and
// GetMarketSummaries read when no DataFeed is attached, and marks the
// pair wallet-healthy.
func (v *Venue) SetPrice(pair string, price float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.prices[pair] = price
	v.wallet[pair] = true
}

// SetMarkets seeds the venue's listed pairs, used by GetMarkets, and
// marks them wallet-healthy: a paper run has no real per-asset wallet
// to check, so every configured market is treated as tradable.
func (v *Venue) SetMarkets(pairs []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.markets = pairs
	for _, p := range pairs {
		v.wallet[p] = true
	}
}

// Credit adjusts a currency balance, used by tests and dry-run seeding.
func (v *Venue) Credit(currency string, amount float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balances[currency] += amount
}

func (v *Venue) GetTicker(ctx context.Context, pair string) (strategy.Ticker, error) {
	v.mu.RLock()
	feed := v.feed
	price, ok := v.prices[pair]
	v.mu.RUnlock()
	if feed != nil {
		ticker, err := feed.GetTicker(ctx, pair)
		if err != nil {
			return strategy.Ticker{}, err
		}
		v.SetPrice(pair, ticker.Last)
		return ticker, nil
	}
	if !ok {
		return strategy.Ticker{}, fmt.Errorf("sim: no price fed for %s", pair)
	}
	spread := price * v.baseSlippage
	return strategy.Ticker{Bid: price - spread, Ask: price + spread, Last: price}, nil
}

// GetTickerHistory serves candles from the attached DataFeed, if any.
// Without one, history is not meaningful for a price-fed simulation;
// the backtester reads candles from its loaded files directly instead
// of through the venue, so it never calls this.
func (v *Venue) GetTickerHistory(ctx context.Context, pair string, interval time.Duration, limit int) ([]exchange.Candle, error) {
	v.mu.RLock()
	feed := v.feed
	v.mu.RUnlock()
	if feed == nil {
		return nil, fmt.Errorf("sim: GetTickerHistory unsupported, feed candles directly or attach a DataFeed")
	}
	return feed.GetTickerHistory(ctx, pair, interval, limit)
}

func (v *Venue) Buy(_ context.Context, pair string, rate, amount float64) (exchange.Order, error) {
	return v.fill(pair, exchange.OrderSideBuy, rate, amount)
}

func (v *Venue) Sell(_ context.Context, pair string, rate, amount float64) (exchange.Order, error) {
	return v.fill(pair, exchange.OrderSideSell, rate, amount)
}

func (v *Venue) fill(pair string, side exchange.OrderSide, rate, amount float64) (exchange.Order, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	o := exchange.Order{
		ID:        uuid.NewString(),
		Pair:      pair,
		Side:      side,
		Rate:      rate,
		Amount:    amount,
		FilledAmt: amount,
		Status:    exchange.OrderStatusFilled,
		CreatedAt: timeNow(),
	}
	v.orders[o.ID] = o
	return o, nil
}

func (v *Venue) GetOrder(_ context.Context, orderID string) (exchange.Order, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	o, ok := v.orders[orderID]
	if !ok {
		return exchange.Order{}, fmt.Errorf("sim: unknown order %s", orderID)
	}
	return o, nil
}

func (v *Venue) GetBalance(_ context.Context, currency string) (exchange.Balance, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	bal := v.balances[currency]
	return exchange.Balance{Currency: currency, Free: bal, Total: bal}, nil
}

func (v *Venue) GetBalances(_ context.Context) ([]exchange.Balance, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]exchange.Balance, 0, len(v.balances))
	for c, b := range v.balances {
		out = append(out, exchange.Balance{Currency: c, Free: b, Total: b})
	}
	return out, nil
}

func (v *Venue) GetWalletHealth(_ context.Context) (map[string]bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]bool, len(v.wallet))
	for p, ok := range v.wallet {
		out[p] = ok
	}
	return out, nil
}

func (v *Venue) GetMarkets(ctx context.Context) ([]string, error) {
	v.mu.RLock()
	feed := v.feed
	v.mu.RUnlock()
	if feed != nil {
		return feed.GetMarkets(ctx)
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]string(nil), v.markets...), nil
}

// GetMarketSummaries serves real 24h volume/price stats from the
// attached DataFeed when present, so a dry run's dynamic top-N
// whitelist ranking (live.Config.DynamicTopN) reflects real market
// activity instead of the fed-price placeholder below.
func (v *Venue) GetMarketSummaries(ctx context.Context) ([]exchange.MarketSummary, error) {
	v.mu.RLock()
	feed := v.feed
	v.mu.RUnlock()
	if feed != nil {
		return feed.GetMarketSummaries(ctx)
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]exchange.MarketSummary, 0, len(v.prices))
	for pair, price := range v.prices {
		out = append(out, exchange.MarketSummary{Pair: pair, LastPrice: price})
	}
	return out, nil
}

func (v *Venue) Fee() float64 { return v.fee }

// timeNow is a seam so tests can't be tripped up by wall-clock reads;
// production always uses time.Now.
var timeNow = time.Now
