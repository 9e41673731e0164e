// Package binance implements exchange.Venue against a real account via
// github.com/adshao/go-binance/v2, rate-limited with
// golang.org/x/time/rate and wrapped at the call boundary by
// github.com/sony/gobreaker so a string of venue failures trips
// engineerr.OperationalFault instead of hanging the live loop — the
// same circuit-breaker shape as the teacher's
// internal/risk/circuit_breaker.go.
package binance

import (
	"context"
	"errors"
	"time"

	binanceapi "github.com/adshao/go-binance/v2"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/kryofly/freqtrade/internal/engineerr"
	"github.com/kryofly/freqtrade/internal/exchange"
	"github.com/kryofly/freqtrade/internal/metrics"
	"github.com/kryofly/freqtrade/internal/strategy"
)

// Venue adapts a go-binance/v2 client to exchange.Venue.
type Venue struct {
	client  *binanceapi.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	fee     float64
}

// Config carries the credentials and tuning knobs for a live venue.
type Config struct {
	APIKey     string
	APISecret  string
	Fee        float64
	RatePerSec float64
	Burst      int
}

// New builds a live Binance venue. Credentials are resolved by the
// caller (internal/config falls back from Vault to environment
// variables) and passed in already-resolved.
func New(cfg Config) *Venue {
	client := binanceapi.NewClient(cfg.APIKey, cfg.APISecret)
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "binance_venue",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && ratio >= 0.6
		},
	})
	return &Venue{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		breaker: cb,
		fee:     cfg.Fee,
	}
}

// call runs fn through the rate limiter and circuit breaker, mapping
// breaker-open and context errors to engineerr.OperationalFault /
// NetworkTransient respectively so the live loop can react correctly.
func (v *Venue) call(ctx context.Context, op string, fn func() (interface{}, error)) (interface{}, error) {
	start := time.Now()
	if err := v.limiter.Wait(ctx); err != nil {
		metrics.RecordExchangeAPICall("binance", op, float64(time.Since(start).Milliseconds()), err)
		return nil, engineerr.New(engineerr.NetworkTransient, op, err)
	}
	result, err := v.breaker.Execute(fn)
	metrics.SetCircuitBreakerState("binance", int(v.breaker.State()))
	metrics.RecordExchangeAPICall("binance", op, float64(time.Since(start).Milliseconds()), err)
	if err == nil {
		return result, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, engineerr.New(engineerr.OperationalFault, op, err)
	}
	return nil, engineerr.New(engineerr.NetworkTransient, op, err)
}

func (v *Venue) GetTicker(ctx context.Context, pair string) (strategy.Ticker, error) {
	res, err := v.call(ctx, "GetTicker", func() (interface{}, error) {
		return v.client.NewBookTickerService().Symbol(pair).Do(ctx)
	})
	if err != nil {
		return strategy.Ticker{}, err
	}
	t, ok := res.(*binanceapi.BookTicker)
	if !ok || t == nil {
		return strategy.Ticker{}, engineerr.New(engineerr.MalformedResponse, "GetTicker", nil)
	}
	bid, err1 := parseFloat(t.BidPrice)
	ask, err2 := parseFloat(t.AskPrice)
	if err1 != nil || err2 != nil {
		return strategy.Ticker{}, engineerr.New(engineerr.MalformedResponse, "GetTicker", errors.Join(err1, err2))
	}
	return strategy.Ticker{Bid: bid, Ask: ask, Last: (bid + ask) / 2}, nil
}

func (v *Venue) GetTickerHistory(ctx context.Context, pair string, interval time.Duration, limit int) ([]exchange.Candle, error) {
	res, err := v.call(ctx, "GetTickerHistory", func() (interface{}, error) {
		return v.client.NewKlinesService().Symbol(pair).
			Interval(klineInterval(interval)).Limit(limit).Do(ctx)
	})
	if err != nil {
		return nil, err
	}
	klines, ok := res.([]*binanceapi.Kline)
	if !ok {
		return nil, engineerr.New(engineerr.MalformedResponse, "GetTickerHistory", nil)
	}
	out := make([]exchange.Candle, 0, len(klines))
	for _, k := range klines {
		o, _ := parseFloat(k.Open)
		h, _ := parseFloat(k.High)
		l, _ := parseFloat(k.Low)
		c, _ := parseFloat(k.Close)
		vol, _ := parseFloat(k.Volume)
		out = append(out, exchange.Candle{
			OpenTime: time.UnixMilli(k.OpenTime),
			Open:     o, High: h, Low: l, Close: c, Volume: vol,
		})
	}
	return out, nil
}

func (v *Venue) Buy(ctx context.Context, pair string, rate, amount float64) (exchange.Order, error) {
	return v.submit(ctx, pair, binanceapi.SideTypeBuy, rate, amount)
}

func (v *Venue) Sell(ctx context.Context, pair string, rate, amount float64) (exchange.Order, error) {
	return v.submit(ctx, pair, binanceapi.SideTypeSell, rate, amount)
}

func (v *Venue) submit(ctx context.Context, pair string, side binanceapi.SideType, price, amount float64) (exchange.Order, error) {
	res, err := v.call(ctx, "Submit", func() (interface{}, error) {
		return v.client.NewCreateOrderService().Symbol(pair).
			Side(side).Type(binanceapi.OrderTypeLimit).
			TimeInForce(binanceapi.TimeInForceTypeGTC).
			Quantity(formatFloat(amount)).
			Price(formatFloat(price)).
			Do(ctx)
	})
	if err != nil {
		return exchange.Order{}, err
	}
	o, ok := res.(*binanceapi.CreateOrderResponse)
	if !ok || o == nil {
		return exchange.Order{}, engineerr.New(engineerr.MalformedResponse, "Submit", nil)
	}
	filled, _ := parseFloat(o.ExecutedQuantity)
	return exchange.Order{
		ID:        formatInt(o.OrderID),
		Pair:      pair,
		Side:      orderSide(side),
		Rate:      price,
		Amount:    amount,
		FilledAmt: filled,
		Status:    orderStatus(o.Status),
		CreatedAt: time.UnixMilli(o.TransactTime),
	}, nil
}

func (v *Venue) GetOrder(ctx context.Context, orderID string) (exchange.Order, error) {
	res, err := v.call(ctx, "GetOrder", func() (interface{}, error) {
		return v.client.NewGetOrderService().OrderID(parseInt(orderID)).Do(ctx)
	})
	if err != nil {
		return exchange.Order{}, err
	}
	o, ok := res.(*binanceapi.Order)
	if !ok || o == nil {
		return exchange.Order{}, engineerr.New(engineerr.MalformedResponse, "GetOrder", nil)
	}
	rate, _ := parseFloat(o.Price)
	filled, _ := parseFloat(o.ExecutedQuantity)
	amount, _ := parseFloat(o.OrigQuantity)
	return exchange.Order{
		ID:        orderID,
		Pair:      o.Symbol,
		Side:      orderSide(o.Side),
		Rate:      rate,
		Amount:    amount,
		FilledAmt: filled,
		Status:    orderStatus(o.Status),
		CreatedAt: time.UnixMilli(o.Time),
	}, nil
}

func (v *Venue) GetBalance(ctx context.Context, currency string) (exchange.Balance, error) {
	balances, err := v.GetBalances(ctx)
	if err != nil {
		return exchange.Balance{}, err
	}
	for _, b := range balances {
		if b.Currency == currency {
			return b, nil
		}
	}
	return exchange.Balance{Currency: currency}, nil
}

func (v *Venue) GetBalances(ctx context.Context) ([]exchange.Balance, error) {
	res, err := v.call(ctx, "GetBalances", func() (interface{}, error) {
		return v.client.NewGetAccountService().Do(ctx)
	})
	if err != nil {
		return nil, err
	}
	acct, ok := res.(*binanceapi.Account)
	if !ok || acct == nil {
		return nil, engineerr.New(engineerr.MalformedResponse, "GetBalances", nil)
	}
	out := make([]exchange.Balance, 0, len(acct.Balances))
	for _, b := range acct.Balances {
		free, _ := parseFloat(b.Free)
		locked, _ := parseFloat(b.Locked)
		if free == 0 && locked == 0 {
			continue
		}
		out = append(out, exchange.Balance{Currency: b.Asset, Free: free, Used: locked, Total: free + locked})
	}
	return out, nil
}

func (v *Venue) GetWalletHealth(ctx context.Context) (map[string]bool, error) {
	balances, err := v.GetBalances(ctx)
	if err != nil {
		return nil, err
	}
	health := make(map[string]bool, len(balances))
	for _, b := range balances {
		health[b.Currency] = b.Total > 0
	}
	return health, nil
}

func (v *Venue) GetMarkets(ctx context.Context) ([]string, error) {
	res, err := v.call(ctx, "GetMarkets", func() (interface{}, error) {
		return v.client.NewExchangeInfoService().Do(ctx)
	})
	if err != nil {
		return nil, err
	}
	info, ok := res.(*binanceapi.ExchangeInfo)
	if !ok || info == nil {
		return nil, engineerr.New(engineerr.MalformedResponse, "GetMarkets", nil)
	}
	out := make([]string, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		out = append(out, s.Symbol)
	}
	return out, nil
}

func (v *Venue) GetMarketSummaries(ctx context.Context) ([]exchange.MarketSummary, error) {
	res, err := v.call(ctx, "GetMarketSummaries", func() (interface{}, error) {
		return v.client.NewListPriceChangeStatsService().Do(ctx)
	})
	if err != nil {
		return nil, err
	}
	stats, ok := res.([]*binanceapi.PriceChangeStats)
	if !ok {
		return nil, engineerr.New(engineerr.MalformedResponse, "GetMarketSummaries", nil)
	}
	out := make([]exchange.MarketSummary, 0, len(stats))
	for _, s := range stats {
		vol, _ := parseFloat(s.QuoteVolume)
		last, _ := parseFloat(s.LastPrice)
		out = append(out, exchange.MarketSummary{Pair: s.Symbol, BaseVolume: vol, LastPrice: last})
	}
	return out, nil
}

func (v *Venue) Fee() float64 { return v.fee }
