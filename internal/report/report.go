// Package report aggregates a backtest trade ledger into per-pair and
// total statistics (spec.md §4.9), grounded in the teacher's
// pkg/backtest/metrics.go + report.go (Sharpe/Sortino-style ratio,
// drawdown, text-table rendering) but recomputed directly from
// TradeLedgerRow instead of the teacher's Engine/ClosedPosition types.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kryofly/freqtrade/pkg/backtest"
)

// PairStats is the per-pair (or total) aggregate spec.md §4.9 names.
type PairStats struct {
	Pair            string
	Count           int
	MeanProfitPct   float64
	SumProfitPct    float64
	Sharpe          float64
	Drawdown        float64
	MeanDurationMin float64
}

// Report is the full aggregation: one PairStats per pair plus a totals
// row.
type Report struct {
	Pairs  []PairStats
	Totals PairStats
}

// Build computes the report from a trade ledger. tickInterval is the
// strategy's tick interval in minutes, used to convert mean duration
// in candles to mean duration in minutes (spec.md §4.9).
func Build(ledger []backtest.TradeLedgerRow, tickIntervalMinutes float64) Report {
	byPair := map[string][]backtest.TradeLedgerRow{}
	for _, row := range ledger {
		byPair[row.Pair] = append(byPair[row.Pair], row)
	}

	pairs := make([]string, 0, len(byPair))
	for p := range byPair {
		pairs = append(pairs, p)
	}
	sort.Strings(pairs)

	var out Report
	for _, p := range pairs {
		out.Pairs = append(out.Pairs, statsFor(p, byPair[p], tickIntervalMinutes))
	}
	out.Totals = statsFor("TOTAL", ledger, tickIntervalMinutes)
	return out
}

func statsFor(pair string, rows []backtest.TradeLedgerRow, tickIntervalMinutes float64) PairStats {
	s := PairStats{Pair: pair, Count: len(rows)}
	if len(rows) == 0 {
		return s
	}

	profits := make([]float64, len(rows))
	var sumProfit, sumDuration float64
	minProfit := math.Inf(1)
	for i, r := range rows {
		profits[i] = r.ProfitRatio
		sumProfit += r.ProfitRatio
		sumDuration += float64(r.DurationCandles)
		if r.ProfitRatio < minProfit {
			minProfit = r.ProfitRatio
		}
	}
	s.SumProfitPct = sumProfit * 100
	s.MeanProfitPct = (sumProfit / float64(len(rows))) * 100
	s.Drawdown = minProfit * 100

	meanCandles := sumDuration / float64(len(rows))
	dur := meanCandles * tickIntervalMinutes
	if math.IsNaN(dur) {
		dur = 0
	}
	s.MeanDurationMin = dur

	stddev := stddevOf(profits)
	if len(rows) < 20 {
		stddev = 1 // spec.md §8 boundary behaviour: stddev forced to 1 when count < 20
	}
	if stddev == 0 {
		stddev = 1
	}
	mean := sumProfit / float64(len(rows))
	s.Sharpe = mean / stddev

	return s
}

func stddevOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var sumSq float64
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

// Render produces the text table spec.md §4.9 requires.
func Render(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %6s %10s %10s %8s %10s %8s\n", "PAIR", "COUNT", "MEAN %", "SUM %", "SHARPE", "DRAWDOWN", "DUR(min)")
	for _, p := range r.Pairs {
		writeRow(&b, p)
	}
	fmt.Fprintln(&b, strings.Repeat("-", 70))
	writeRow(&b, r.Totals)
	return b.String()
}

func writeRow(b *strings.Builder, p PairStats) {
	fmt.Fprintf(b, "%-12s %6d %10.3f %10.3f %8.3f %10.3f %8.1f\n",
		p.Pair, p.Count, p.MeanProfitPct, p.SumProfitPct, p.Sharpe, p.Drawdown, p.MeanDurationMin)
}
