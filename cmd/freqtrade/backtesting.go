package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	backtestdata "github.com/kryofly/freqtrade/internal/backtest"
	"github.com/kryofly/freqtrade/internal/candle"
	"github.com/kryofly/freqtrade/internal/config"
	"github.com/kryofly/freqtrade/internal/exchange"
	"github.com/kryofly/freqtrade/internal/indicators"
	"github.com/kryofly/freqtrade/internal/report"
	"github.com/kryofly/freqtrade/internal/strategy"
	"github.com/kryofly/freqtrade/pkg/backtest"
)

// runBacktesting implements spec.md §6's "backtesting" subcommand:
// load candles, populate indicators and buy/sell trends once, run the
// deterministic simulator (pkg/backtest.Run), and render a report.
func runBacktesting(ctx context.Context, cfg *config.Config, strat strategy.Strategy, g *globalFlags, args []string) error {
	fs := flag.NewFlagSet("backtesting", flag.ExitOnError)
	liveData := fs.Bool("l", false, "fetch candles from the configured venue instead of the data directory")
	intervalMinutes := fs.Int("i", 5, "ticker interval in minutes")
	realistic := fs.Bool("realistic-simulation", false, "serialize trades per pair, matching live re-entry locking")
	export := fs.String("export", "", "comma-separated export targets: trades,result")
	timeperiod := fs.Int("timeperiod", 0, "limit each pair to its most recent N candles (0 = no limit)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pairs := cfg.Exchanges["binance"].PairWhitelist
	if len(pairs) == 0 {
		return fmt.Errorf("backtesting: no pairs configured under exchanges.binance.pair_whitelist")
	}

	interval := time.Duration(*intervalMinutes) * time.Minute
	series, err := loadBacktestSeries(ctx, cfg, pairs, interval, *intervalMinutes, *liveData, g.dataDir)
	if err != nil {
		return fmt.Errorf("load candle data: %w", err)
	}

	if *timeperiod > 0 {
		for pair, s := range series {
			if s.Len() > *timeperiod {
				trimmed, err := candle.NewSeries(pair, s.Interval, s.Rows[s.Len()-*timeperiod:])
				if err != nil {
					return err
				}
				series[pair] = trimmed
			}
		}
	}

	specs := strat.SelectIndicators()
	for pair, s := range series {
		if err := indicators.Populate(s, specs); err != nil {
			return fmt.Errorf("populate indicators for %s: %w", pair, err)
		}
		if err := strat.PopulateBuyTrend(s); err != nil {
			return fmt.Errorf("populate buy trend for %s: %w", pair, err)
		}
		if err := strat.PopulateSellTrend(s); err != nil {
			return fmt.Errorf("populate sell trend for %s: %w", pair, err)
		}
	}

	exports := parseExports(*export)
	ledger, err := backtest.Run(strat, series, backtest.Options{Realistic: *realistic, Record: exports["trades"]})
	if err != nil {
		return fmt.Errorf("run backtest: %w", err)
	}

	rpt := report.Build(ledger, float64(*intervalMinutes))
	fmt.Println(report.Render(rpt))

	if exports["trades"] {
		data, err := backtest.MarshalLedger(ledger, *intervalMinutes)
		if err != nil {
			log.Error().Err(err).Msg("export trades failed")
		} else if err := os.WriteFile("backtest_trades.json", data, 0644); err != nil {
			log.Error().Err(err).Msg("export trades failed")
		}
	}
	if exports["result"] {
		if err := writeJSON("backtest_result.json", rpt); err != nil {
			log.Error().Err(err).Msg("export result failed")
		}
	}
	return nil
}

func parseExports(s string) map[string]bool {
	out := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out[part] = true
		}
	}
	return out
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func loadBacktestSeries(ctx context.Context, cfg *config.Config, pairs []string, interval time.Duration, intervalMinutes int, live bool, dataDir string) (map[string]*candle.Series, error) {
	if !live {
		return backtestdata.LoadPairs(dataDir, pairs, intervalMinutes)
	}

	exch := cfg.Exchanges["binance"]
	venue, err := buildVenue(cfg, exch)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*candle.Series, len(pairs))
	for _, pair := range pairs {
		history, err := venue.GetTickerHistory(ctx, pair, interval, 500)
		if err != nil {
			return nil, fmt.Errorf("fetch history for %s: %w", pair, err)
		}
		rows := make([]candle.Candle, len(history))
		for i, c := range history {
			rows[i] = exchangeCandleToRow(c)
		}
		s, err := candle.NewSeries(pair, interval, rows)
		if err != nil {
			return nil, err
		}
		out[pair] = s
	}
	return out, nil
}

func exchangeCandleToRow(c exchange.Candle) candle.Candle {
	return candle.Candle{
		Timestamp: c.OpenTime,
		Open:      c.Open,
		High:      c.High,
		Low:       c.Low,
		Close:     c.Close,
		Volume:    c.Volume,
	}
}
