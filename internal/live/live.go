// Package live implements the throttled live-trading tick loop
// (spec.md §4.7), grounded in the teacher's internal/orchestrator.go
// Run(ctx) main loop (ticker + select, Pause/Resume under a mutex) but
// driving the exitrule/position/strategy decision path instead of the
// teacher's multi-agent consensus path.
package live

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/kryofly/freqtrade/internal/candle"
	"github.com/kryofly/freqtrade/internal/engineerr"
	"github.com/kryofly/freqtrade/internal/exchange"
	"github.com/kryofly/freqtrade/internal/exitrule"
	"github.com/kryofly/freqtrade/internal/indicators"
	"github.com/kryofly/freqtrade/internal/metrics"
	"github.com/kryofly/freqtrade/internal/notify"
	"github.com/kryofly/freqtrade/internal/position"
	"github.com/kryofly/freqtrade/internal/store"
	"github.com/kryofly/freqtrade/internal/strategy"
)

// Config carries the live loop's tuning knobs (spec.md §6).
type Config struct {
	// Whitelist is the configured set of pairs eligible to trade.
	Whitelist []string
	// DynamicTopN, when > 0, additionally ranks Whitelist down to the
	// top N pairs by 24h base volume (spec.md §4.7 step 1), cached in
	// Redis so repeated ticks don't re-rank on every call.
	DynamicTopN int
	// ProcessThrottle is the minimum tick interval; a tick completing
	// faster sleeps the remainder (spec.md §4.7 preamble).
	ProcessThrottle time.Duration
	// HistoryLimit is how many candles GetTickerHistory fetches per pair.
	HistoryLimit int
	// WhitelistCacheTTL controls how long a dynamic-top-N ranking is reused.
	WhitelistCacheTTL time.Duration
	// InitialState is the AppState Run starts in (spec.md §6's
	// engine.initial_state): StateStopped leaves the loop idling until
	// a control command (or Telegram /resume) calls Engine.Resume.
	InitialState AppState
}

// Engine runs the live loop against a Venue, a Store and a bound Strategy.
type Engine struct {
	cfg     Config
	venue   exchange.Venue
	st      store.Store
	strat   strategy.Strategy
	notif   *notify.Manager
	redis   *redis.Client
	state   *appState
	initial AppState
}

// New builds a live Engine. nc (NATS) and rdb (Redis) may be nil, in
// which case AppState broadcast and whitelist caching are skipped.
func New(cfg Config, venue exchange.Venue, st store.Store, strat strategy.Strategy, notif *notify.Manager, rdb *redis.Client, nc *nats.Conn) *Engine {
	return &Engine{
		cfg:     cfg,
		venue:   venue,
		st:      st,
		strat:   strat,
		notif:   notif,
		redis:   rdb,
		state:   newAppState(nc),
		initial: cfg.InitialState,
	}
}

// Status reports the current AppState as a human-readable line, the
// Controller.Status implementation notify/telegram dispatches /status to.
func (e *Engine) Status() string {
	return fmt.Sprintf("state=%s strategy=%s", e.state.get(), e.strat.Name())
}

// Stop transitions AppState to STOPPED; takes effect at the next tick
// boundary (spec.md §5's cancellation guarantee).
func (e *Engine) Stop() { e.state.set(StateStopped, "control_stop") }

// Resume transitions AppState to RUNNING.
func (e *Engine) Resume() error {
	e.state.set(StateRunning, "control_resume")
	return nil
}

// Run starts the tick loop. It blocks until ctx is cancelled; an
// OperationalFault or an unhandled tick error moves AppState to
// STOPPED, and the loop then idles until Resume or cancellation.
func (e *Engine) Run(ctx context.Context) error {
	startState := e.initial
	if startState == "" {
		startState = StateRunning
	}
	e.state.set(startState, "startup")
	metrics.SetEngineRunning(startState == StateRunning)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if e.state.get() != StateRunning {
			metrics.SetEngineRunning(false)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.cfg.ProcessThrottle):
				continue
			}
		}
		metrics.SetEngineRunning(true)

		start := time.Now()
		if err := e.tick(ctx); err != nil {
			if engineerr.IsTransient(err) {
				log.Error().Err(err).Msg("live: transient tick error, backing off")
				e.sleep(ctx, 30*time.Second)
				continue
			}
			if engineerr.IsOperational(err) {
				log.Error().Err(err).Msg("live: operational fault, stopping")
				e.notif.Notify(ctx, fmt.Sprintf("trading stopped: %v", err))
				e.state.set(StateStopped, "operational_fault")
				continue
			}
			log.Error().Err(err).Msg("live: unhandled tick error")
			e.state.set(StateStopped, "fatal_unhandled")
			continue
		}
		metrics.RecordTick(float64(time.Since(start).Milliseconds()))

		elapsed := time.Since(start)
		if remaining := e.cfg.ProcessThrottle - elapsed; remaining > 0 {
			e.sleep(ctx, remaining)
		}
	}
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// tick runs one full pass of spec.md §4.7 steps 1-5.
func (e *Engine) tick(ctx context.Context) error {
	whitelist, err := e.refreshWhitelist(ctx)
	if err != nil {
		return err
	}

	open, err := e.st.QueryOpen(ctx)
	if err != nil {
		return engineerr.New(engineerr.DependencyUnsatisfied, "QueryOpen", err)
	}
	metrics.OpenPositions.Set(float64(len(open)))

	if err := e.reconcilePending(ctx, open); err != nil {
		return err
	}

	if e.strat.MaxOpenTrades() <= 0 || len(open) < e.strat.MaxOpenTrades() {
		if err := e.evaluateEntries(ctx, whitelist, open); err != nil {
			return err
		}
	}

	return e.evaluateExits(ctx, open)
}

// refreshWhitelist implements spec.md §4.7 step 1: intersect the
// configured whitelist with wallet-active pairs, then optionally
// narrow to the top DynamicTopN by 24h base volume, caching the
// ranking in Redis for WhitelistCacheTTL.
func (e *Engine) refreshWhitelist(ctx context.Context) ([]string, error) {
	health, err := e.venue.GetWalletHealth(ctx)
	if err != nil {
		return nil, engineerr.New(engineerr.NetworkTransient, "GetWalletHealth", err)
	}

	active := make([]string, 0, len(e.cfg.Whitelist))
	for _, pair := range e.cfg.Whitelist {
		if health[pair] {
			active = append(active, pair)
		}
	}

	if e.cfg.DynamicTopN <= 0 || e.cfg.DynamicTopN >= len(active) {
		return active, nil
	}

	if cached, ok := e.cachedTopN(ctx); ok {
		return intersect(active, cached), nil
	}

	summaries, err := e.venue.GetMarketSummaries(ctx)
	if err != nil {
		return nil, engineerr.New(engineerr.NetworkTransient, "GetMarketSummaries", err)
	}
	byVolume := map[string]float64{}
	for _, s := range summaries {
		byVolume[s.Pair] = s.BaseVolume
	}
	sort.Slice(active, func(i, j int) bool { return byVolume[active[i]] > byVolume[active[j]] })
	top := active
	if len(top) > e.cfg.DynamicTopN {
		top = top[:e.cfg.DynamicTopN]
	}
	e.cacheTopN(ctx, top)
	return top, nil
}

func (e *Engine) cachedTopN(ctx context.Context) ([]string, bool) {
	if e.redis == nil {
		return nil, false
	}
	members, err := e.redis.SMembers(ctx, "freqtrade:whitelist:topn").Result()
	if err != nil || len(members) == 0 {
		return nil, false
	}
	return members, true
}

func (e *Engine) cacheTopN(ctx context.Context, pairs []string) {
	if e.redis == nil {
		return
	}
	key := "freqtrade:whitelist:topn"
	pipe := e.redis.TxPipeline()
	pipe.Del(ctx, key)
	if len(pairs) > 0 {
		members := make([]interface{}, len(pairs))
		for i, p := range pairs {
			members[i] = p
		}
		pipe.SAdd(ctx, key, members...)
		pipe.Expire(ctx, key, e.cfg.WhitelistCacheTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Error().Err(err).Msg("live: cache whitelist top-n")
	}
}

func intersect(a, b []string) []string {
	set := make(map[string]bool, len(b))
	for _, v := range b {
		set[v] = true
	}
	var out []string
	for _, v := range a {
		if set[v] {
			out = append(out, v)
		}
	}
	return out
}

// reconcilePending implements spec.md §4.7 step 4: positions with a
// pending order are polled; a fill rewrites open_rate/amount (entry)
// or close_rate/close_date/close_profit (exit) and flushes the store.
func (e *Engine) reconcilePending(ctx context.Context, open []*position.Position) error {
	for _, p := range open {
		if p.OpenOrderID == "" {
			continue
		}
		order, err := e.venue.GetOrder(ctx, p.OpenOrderID)
		if err != nil {
			return engineerr.New(engineerr.NetworkTransient, "GetOrder", err)
		}
		if order.Status != exchange.OrderStatusFilled {
			continue
		}
		switch p.State {
		case position.PendingBuy:
			p.OpenRate = order.Rate
			p.Amount = order.FilledAmt
			p.OpenOrderID = ""
			p.State = position.Open
		case position.PendingSell:
			profit := p.Profit(order.Rate)
			p.Close(order.Rate, time.Now(), profit)
			metrics.RecordTrade(p.Pair, "reconciled_fill", profit, profit*p.StakeAmount)
		}
		if err := e.st.Flush(ctx, p); err != nil {
			return engineerr.New(engineerr.DependencyUnsatisfied, "Flush", err)
		}
	}
	return nil
}

// evaluateEntries implements spec.md §4.7 step 3.
func (e *Engine) evaluateEntries(ctx context.Context, whitelist []string, open []*position.Position) error {
	held := make(map[string]bool, len(open))
	for _, p := range open {
		if p.IsOpen {
			held[p.Pair] = true
		}
	}

	specs := e.strat.SelectIndicators()
	for _, pair := range whitelist {
		if held[pair] {
			continue
		}
		candles, err := e.venue.GetTickerHistory(ctx, pair, e.strat.ExitParams().TickInterval, e.cfg.HistoryLimit)
		if err != nil {
			return engineerr.New(engineerr.NetworkTransient, "GetTickerHistory", err)
		}
		series, err := toSeries(pair, e.strat.ExitParams().TickInterval, candles)
		if err != nil {
			return engineerr.New(engineerr.MalformedResponse, "toSeries", err)
		}
		if err := indicators.Populate(series, specs); err != nil {
			return err
		}
		if err := e.strat.PopulateBuyTrend(series); err != nil {
			return err
		}

		last := series.Len() - 1
		if last < 0 || !series.Buy(last) {
			continue
		}
		if time.Since(series.Rows[last].Timestamp) > e.strat.FreshnessWindow() {
			continue
		}

		ticker, err := e.venue.GetTicker(ctx, pair)
		if err != nil {
			return engineerr.New(engineerr.NetworkTransient, "GetTicker", err)
		}
		bid := e.strat.TargetBid(ticker)
		amount := roundAmount(e.strat.StakeAmount() / bid)

		order, err := e.venue.Buy(ctx, pair, bid, amount)
		if err != nil {
			return engineerr.New(engineerr.OperationalFault, "Buy", err)
		}
		p := position.New(pair, "live", time.Now(), bid, e.strat.StakeAmount(), e.venue.Fee())
		p.Amount = amount
		if order.Status != exchange.OrderStatusFilled {
			p.State = position.PendingBuy
			p.OpenOrderID = order.ID
		}
		if err := e.st.Add(ctx, p); err != nil {
			return engineerr.New(engineerr.DependencyUnsatisfied, "Add", err)
		}
		e.notif.Notify(ctx, fmt.Sprintf("buy %s at %v", pair, bid))
		return nil // one entry per tick, matching "first pair where buy_signal holds"
	}
	return nil
}

// evaluateExits implements spec.md §4.7 step 5.
func (e *Engine) evaluateExits(ctx context.Context, open []*position.Position) error {
	ep := e.strat.ExitParams()
	for _, p := range open {
		if !p.IsOpen || p.State != position.Open {
			continue
		}
		ticker, err := e.venue.GetTicker(ctx, p.Pair)
		if err != nil {
			return engineerr.New(engineerr.NetworkTransient, "GetTicker", err)
		}
		rate := ticker.Last
		p.UpdateStats(rate)
		exitrule.StepFrame(p, rate, ep.TrailEMA)

		elapsed := exitrule.ElapsedCandles(p.OpenDate, time.Now(), ep.TickInterval)
		profit := p.Profit(rate)
		reason := exitrule.MinROIReached(ep, p, rate, elapsed, profit)

		if reason == exitrule.ReasonNone {
			sellSeries, err := e.sellSignal(ctx, p)
			if err != nil {
				return err
			}
			if sellSeries {
				reason = exitrule.ReasonSellSignal
			}
		}
		if reason == exitrule.ReasonNone {
			if err := e.st.Flush(ctx, p); err != nil {
				return engineerr.New(engineerr.DependencyUnsatisfied, "Flush", err)
			}
			continue
		}

		order, err := e.venue.Sell(ctx, p.Pair, rate, p.Amount)
		if err != nil {
			return engineerr.New(engineerr.OperationalFault, "Sell", err)
		}
		if order.Status == exchange.OrderStatusFilled {
			p.Close(rate, time.Now(), profit)
			metrics.RecordTrade(p.Pair, string(reason), profit, profit*p.StakeAmount)
		} else {
			p.State = position.PendingSell
			p.OpenOrderID = order.ID
		}
		if err := e.st.Flush(ctx, p); err != nil {
			return engineerr.New(engineerr.DependencyUnsatisfied, "Flush", err)
		}
		e.notif.Notify(ctx, fmt.Sprintf("sell %s reason=%s profit=%.4f", p.Pair, reason, profit))
	}
	return nil
}

func (e *Engine) sellSignal(ctx context.Context, p *position.Position) (bool, error) {
	candles, err := e.venue.GetTickerHistory(ctx, p.Pair, e.strat.ExitParams().TickInterval, e.cfg.HistoryLimit)
	if err != nil {
		return false, engineerr.New(engineerr.NetworkTransient, "GetTickerHistory", err)
	}
	series, err := toSeries(p.Pair, e.strat.ExitParams().TickInterval, candles)
	if err != nil {
		return false, engineerr.New(engineerr.MalformedResponse, "toSeries", err)
	}
	if err := indicators.Populate(series, e.strat.SelectIndicators()); err != nil {
		return false, err
	}
	if err := e.strat.PopulateSellTrend(series); err != nil {
		return false, err
	}
	last := series.Len() - 1
	if last < 0 || !series.Sell(last) {
		return false, nil
	}
	return time.Since(series.Rows[last].Timestamp) <= e.strat.FreshnessWindow(), nil
}

// roundAmount applies spec.md §4.7 step 3's successive rounding: to 6
// decimal places, then to 0 dp if the result exceeds 5 whole units,
// then to 4 dp if it exceeds 0.01.
func roundAmount(amount float64) float64 {
	amount = roundTo(amount, 6)
	if amount > 5 {
		amount = roundTo(amount, 0)
	}
	if amount > 0.01 {
		amount = roundTo(amount, 4)
	}
	return amount
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

// toSeries converts the venue's raw candle readings into the engine's
// column-store Series, the same shape the backtest simulator consumes,
// so indicator population and signal evaluation run identically in
// both paths.
func toSeries(pair string, interval time.Duration, candles []exchange.Candle) (*candle.Series, error) {
	if len(candles) == 0 {
		return nil, errEmptyHistory
	}
	rows := make([]candle.Candle, len(candles))
	for i, c := range candles {
		rows[i] = candle.Candle{
			Timestamp: c.OpenTime,
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
		}
	}
	return candle.NewSeries(pair, interval, rows)
}

var errEmptyHistory = errors.New("live: empty candle history")
