package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kryofly/freqtrade/internal/candle"
	"github.com/kryofly/freqtrade/internal/config"
	"github.com/kryofly/freqtrade/internal/hyperopt"
	"github.com/kryofly/freqtrade/internal/hyperopt/optimizer"
	"github.com/kryofly/freqtrade/internal/indicators"
	"github.com/kryofly/freqtrade/internal/strategy"
	"github.com/kryofly/freqtrade/pkg/backtest"
)

// runHyperopt implements spec.md §6's "hyperopt" subcommand: bind a
// sampled parameter assignment, re-populate indicators (they may
// depend on the assignment), re-run the simulator, and report the
// best-scoring trial (spec.md §4.8).
//
// --use-mongodb is accepted for CLI-surface parity with the original
// engine's trial-history backend but has no effect here: trial history
// only needs to survive one process lifetime (the Optimizer interface
// already carries it as []hyperopt.Trial), so there is no persistence
// layer to select between.
func runHyperopt(ctx context.Context, cfg *config.Config, strat strategy.Strategy, g *globalFlags, args []string) error {
	fs := flag.NewFlagSet("hyperopt", flag.ExitOnError)
	epochs := fs.Int("e", 100, "number of epochs to run")
	targetTrades := fs.Int("tt", 50, "target trade count for the loss function")
	intervalMinutes := fs.Int("i", 5, "ticker interval in minutes")
	useMongo := fs.Bool("use-mongodb", false, "accepted for CLI compatibility; no effect")
	timeperiod := fs.Int("timeperiod", 0, "limit each pair to its most recent N candles (0 = no limit)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *useMongo {
		log.Warn().Msg("hyperopt: --use-mongodb has no effect, trial history is kept in-process")
	}

	pairs := cfg.Exchanges["binance"].PairWhitelist
	if len(pairs) == 0 {
		return fmt.Errorf("hyperopt: no pairs configured under exchanges.binance.pair_whitelist")
	}

	series, err := loadBacktestSeries(ctx, cfg, pairs, time.Duration(*intervalMinutes)*time.Minute, *intervalMinutes, false, g.dataDir)
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

	results, err := hyperopt.Run(ctx, hyperopt.Params{
		Strategy:     strat,
		Series:       series,
		Optimizer:    optimizer.NewGenetic(20, 0.1, 1),
		Populate:     populateAll,
		TargetTrades: *targetTrades,
		Epochs:       *epochs,
		BacktestOpts: backtest.Options{Realistic: false},
	})
	if err != nil {
		return fmt.Errorf("run hyperopt: %w", err)
	}

	if len(results) == 0 {
		return fmt.Errorf("hyperopt: no epochs completed")
	}
	best := results[0]
	for _, r := range results[1:] {
		if r.Loss.Loss < best.Loss.Loss {
			best = r
		}
	}
	fmt.Printf("best epoch %d: loss=%.4f status=%s trades=%d params=%v\n",
		best.Epoch, best.Loss.Loss, best.Loss.Status, len(best.Ledger), best.Params)
	return nil
}

func populateAll(s strategy.Strategy, series map[string]*candle.Series) error {
	specs := s.SelectIndicators()
	for pair, cs := range series {
		if err := indicators.Populate(cs, specs); err != nil {
			return fmt.Errorf("populate indicators for %s: %w", pair, err)
		}
	}
	return nil
}
