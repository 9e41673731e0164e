// Package backtest walks candle series deterministically through the
// same exit-rule evaluator the live loop uses (spec.md §4.6). It is
// reused, unmodified, by the hyperopt driver — hyperopt results are
// only meaningful if backtest and live share this one decision path.
package backtest

import (
	"fmt"
	"sort"
	"time"

	"github.com/kryofly/freqtrade/internal/candle"
	"github.com/kryofly/freqtrade/internal/exitrule"
	"github.com/kryofly/freqtrade/internal/metrics"
	"github.com/kryofly/freqtrade/internal/position"
	"github.com/kryofly/freqtrade/internal/strategy"
)

// TradeLedgerRow is one closed trade emitted by the simulator
// (spec.md §3's TradeLedgerRow).
type TradeLedgerRow struct {
	Pair              string
	EntryTime         int64 // unix seconds, for deterministic JSON export
	ExitTime          int64
	ProfitRatio       float64
	DurationCandles   int
	Reason            exitrule.Reason
}

// Options configures one simulator run.
type Options struct {
	// Realistic serializes trades per pair: a new entry is rejected
	// until the candle index strictly exceeds the index the previous
	// trade on that pair exited at. When false, re-entry is allowed on
	// the very next row (only active_pos==nil gates entries).
	Realistic bool
	// Record, when true, asks callers to persist the JSON trade log
	// (spec.md §4.6); the simulator itself only returns the ledger,
	// writing the file is the CLI's responsibility
	// (cmd/freqtrade/backtesting.go, via MarshalLedger).
	Record bool
}

// Run walks every pair's series and returns the combined trade ledger.
// Determinism (spec.md §8 property 4): given identical series and
// strategy parameters, two calls to Run produce bit-identical ledgers,
// because the ledger depends only on the inputs: the one wall-clock
// read times the run for the BacktestDuration metric and never reaches
// the ledger.
func Run(strat strategy.Strategy, series map[string]*candle.Series, opts Options) ([]TradeLedgerRow, error) {
	start := time.Now()
	defer func() { metrics.BacktestDuration.Observe(float64(time.Since(start).Milliseconds())) }()

	pairs := make([]string, 0, len(series))
	for p := range series {
		pairs = append(pairs, p)
	}
	sort.Strings(pairs)

	counts := &openCounts{counts: map[int64]int{}}
	maxOpen := strat.MaxOpenTrades()

	// Pairs are walked sequentially in sorted order, never concurrently
	// (spec.md §5: the backtest path is fully synchronous and allocates
	// no long-lived concurrency primitives). This also keeps the
	// max_open_trades reservation below deterministic: which pair wins
	// a contested slot on a tied candle timestamp depends only on pair
	// name ordering, never on goroutine scheduling, so the ledger is
	// bit-identical run to run (spec.md §8 property 4).
	var ledger []TradeLedgerRow
	for _, pair := range pairs {
		rows, err := runPair(strat, pair, series[pair], opts, counts, maxOpen)
		if err != nil {
			return nil, fmt.Errorf("pair %s: %w", pair, err)
		}
		ledger = append(ledger, rows...)
	}
	return ledger, nil
}

// openCounts tracks max_open_trades counted per-candle-timestamp
// (spec.md §4.6). Reservation order is the caller's sequential,
// sorted-pair iteration order — no concurrent access, no mutex.
type openCounts struct {
	counts map[int64]int
}

func (c *openCounts) tryReserve(ts int64, maxOpen int) bool {
	if maxOpen > 0 && c.counts[ts] >= maxOpen {
		return false
	}
	c.counts[ts]++
	return true
}

func runPair(strat strategy.Strategy, pair string, s *candle.Series, opts Options, counts *openCounts, maxOpen int) ([]TradeLedgerRow, error) {
	var ledger []TradeLedgerRow
	ep := strat.ExitParams()

	var activePos *position.Position
	var entryIndex int
	lockUntilIndex := -1

	for i := 0; i < s.Len(); i++ {
		row := s.Rows[i]
		ts := row.Timestamp.Unix()

		if activePos == nil && s.Buy(i) {
			if opts.Realistic && i <= lockUntilIndex {
				// still locked out after the previous exit on this pair
			} else if !counts.tryReserve(ts, maxOpen) {
				// global concurrently-open cap already reached for this timestamp
			} else {
				activePos = position.New(pair, "sim", row.Timestamp, row.Close, strat.StakeAmount(), strat.Fee())
				entryIndex = i
				continue
			}
		}

		if activePos == nil {
			continue
		}

		activePos.UpdateStats(row.Close)
		exitrule.StepFrame(activePos, row.Close, ep.TrailEMA)

		elapsed := float64(i - entryIndex)
		profit := activePos.Profit(row.Close)
		reason := exitrule.MinROIReached(ep, activePos, row.Close, elapsed, profit)
		if reason == exitrule.ReasonNone && s.Sell(i) {
			reason = exitrule.ReasonSellSignal
		}
		if reason != exitrule.ReasonNone {
			activePos.Close(row.Close, row.Timestamp, profit)
			ledger = append(ledger, TradeLedgerRow{
				Pair:            pair,
				EntryTime:       s.Rows[entryIndex].Timestamp.Unix(),
				ExitTime:        ts,
				ProfitRatio:     profit,
				DurationCandles: i - entryIndex,
				Reason:          reason,
			})
			activePos = nil
			lockUntilIndex = i
		}
	}
	return ledger, nil
}
