// Package exchange defines the venue adapter contract (spec.md §6):
// the engine only ever talks to a Venue, never to a concrete exchange
// client, so the same live loop runs against internal/exchange/binance
// (a real account) or internal/exchange/sim (backtest/dry-run)
// unchanged. Shape grounded in the teacher's
// internal/exchange/interface.go Exchange interface.
package exchange

import (
	"context"
	"time"

	"github.com/kryofly/freqtrade/internal/strategy"
)

// Venue is the engine's sole view of a trading venue.
type Venue interface {
	// GetTicker returns the current {bid, ask, last} for pair.
	GetTicker(ctx context.Context, pair string) (strategy.Ticker, error)

	// GetTickerHistory returns up to limit recent candles for pair at
	// the given interval, newest last.
	GetTickerHistory(ctx context.Context, pair string, interval time.Duration, limit int) ([]Candle, error)

	// Buy submits a market/limit buy of amount units of pair at rate,
	// returning the venue's order handle. The fill may be asynchronous
	// (live mode); callers reconcile via GetOrder.
	Buy(ctx context.Context, pair string, rate, amount float64) (Order, error)

	// Sell submits a sell closing amount units of pair at rate.
	Sell(ctx context.Context, pair string, rate, amount float64) (Order, error)

	// GetOrder reports the current state of a previously submitted order.
	GetOrder(ctx context.Context, orderID string) (Order, error)

	// GetBalance returns the free/used/total balance of one currency.
	GetBalance(ctx context.Context, currency string) (Balance, error)

	// GetBalances returns every non-zero balance in the account.
	GetBalances(ctx context.Context) ([]Balance, error)

	// GetWalletHealth reports which pairs the account currently holds
	// tradeable balances for, used to intersect the configured
	// whitelist (spec.md §4.7 step 1).
	GetWalletHealth(ctx context.Context) (map[string]bool, error)

	// GetMarkets returns every pair the venue lists.
	GetMarkets(ctx context.Context) ([]string, error)

	// GetMarketSummaries returns 24h volume/price summaries, the input
	// to dynamic-top-N whitelist ranking (spec.md §4.7 step 1).
	GetMarketSummaries(ctx context.Context) ([]MarketSummary, error)

	// Fee reports the venue's taker fee (a fraction, e.g. 0.001 for
	// 0.1%) charged per side of a trade.
	Fee() float64
}

// Candle is the venue's raw OHLCV reading for one interval.
type Candle struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// OrderSide distinguishes buy from sell orders.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderStatus tracks an order's life on the venue side.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRejected  OrderStatus = "rejected"
)

// Order is the venue's view of a submitted buy/sell.
type Order struct {
	ID        string
	Pair      string
	Side      OrderSide
	Rate      float64
	Amount    float64
	FilledAmt float64
	Status    OrderStatus
	CreatedAt time.Time
}

// Balance reports one currency's holdings.
type Balance struct {
	Currency string
	Free     float64
	Used     float64
	Total    float64
}

// MarketSummary is one pair's 24h trading summary, used to rank
// candidates for the dynamic-top-N whitelist.
type MarketSummary struct {
	Pair        string
	BaseVolume  float64
	LastPrice   float64
}
