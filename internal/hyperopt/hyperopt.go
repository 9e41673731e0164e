// Package hyperopt implements the driver of spec.md §4.8: repeatedly
// bind a strategy parameter assignment, re-run indicator population
// (mandatory — indicators may depend on the assignment) and the
// simulator, and hand a scalar loss back to an external optimizer.
// The search algorithm itself (grid, genetic, TPE, random...) is a
// black-box collaborator behind the Optimizer interface; it is never
// implemented in this package, only consumed.
package hyperopt

import (
	"context"
	"math"

	"github.com/kryofly/freqtrade/internal/candle"
	"github.com/kryofly/freqtrade/internal/metrics"
	"github.com/kryofly/freqtrade/internal/strategy"
	"github.com/kryofly/freqtrade/pkg/backtest"
)

// Status mirrors spec.md §4.8's loss-vector status: OK unless total
// profit is NaN.
type Status string

const (
	StatusOK   Status = "OK"
	StatusFail Status = "FAIL"
)

// Loss is the {loss, status} vector spec.md §4.8 returns to the
// optimizer for one epoch.
type Loss struct {
	Loss   float64
	Status Status
}

// Optimizer is the external collaborator spec.md §4.8 and §2 item 8
// name: given a strategy's hyper space and the losses observed so
// far, it samples the next parameter assignment to try. TPE/random
// search/grid search are all valid implementations.
type Optimizer interface {
	// Next returns the next ParameterSet to evaluate, given every
	// (params, loss) pair observed in prior epochs this run.
	Next(space strategy.HyperSpace, history []Trial) (strategy.ParameterSet, error)
}

// Trial records one epoch's parameter assignment and resulting loss,
// the optimizer's feedback signal.
type Trial struct {
	Params strategy.ParameterSet
	Loss   Loss
}

// IndicatorPopulator is the external indicator collaborator
// (spec.md §1): it fills the named columns a strategy's
// SelectIndicators declares. Re-run every epoch because indicator
// parameters (e.g. RSI period) may themselves be tuned.
type IndicatorPopulator func(strat strategy.Strategy, series map[string]*candle.Series) error

// Params bundles the fixed inputs to a hyperopt run.
type Params struct {
	Strategy      strategy.Strategy
	Series        map[string]*candle.Series // preprocessed, OHLCV only — indicators populated per epoch
	Optimizer     Optimizer
	Populate      IndicatorPopulator
	TargetTrades  int
	Epochs        int
	BacktestOpts  backtest.Options
}

// Result is one completed epoch.
type Result struct {
	Epoch  int
	Params strategy.ParameterSet
	Loss   Loss
	Ledger []backtest.TradeLedgerRow
}

// Run drives Epochs rounds of: sample params -> bind -> populate
// indicators -> simulate -> score -> feed back to the optimizer.
func Run(ctx context.Context, p Params) ([]Result, error) {
	space := p.Strategy.HyperSpace()
	var trials []Trial
	var results []Result

	for epoch := 0; epoch < p.Epochs; epoch++ {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		params, err := p.Optimizer.Next(space, trials)
		if err != nil {
			return results, err
		}

		bound, err := p.Strategy.BindParams(params)
		if err != nil {
			return results, err
		}

		if p.Populate != nil {
			if err := p.Populate(bound, p.Series); err != nil {
				return results, err
			}
		}
		for _, s := range p.Series {
			if err := bound.PopulateBuyTrend(s); err != nil {
				return results, err
			}
			if err := bound.PopulateSellTrend(s); err != nil {
				return results, err
			}
		}

		ledger, err := backtest.Run(bound, p.Series, p.BacktestOpts)
		if err != nil {
			return results, err
		}

		loss := Score(ledger, p.TargetTrades)
		metrics.RecordHyperoptTrial(loss.Loss)
		trials = append(trials, Trial{Params: params, Loss: loss})
		results = append(results, Result{Epoch: epoch, Params: params, Loss: loss, Ledger: ledger})
	}
	return results, nil
}

// Score implements spec.md §4.8's loss formula exactly:
//   trade_loss = 1 - 0.35*exp(-(n-target_trades)^2 / 10^5.2)
//   profit_loss = max(0, 1 - total_profit*1000/10000), capped at 1
//   loss = trade_loss + profit_loss
//   status = FAIL if total profit is NaN, else OK
func Score(ledger []backtest.TradeLedgerRow, targetTrades int) Loss {
	n := float64(len(ledger))
	var totalProfit float64
	for _, row := range ledger {
		totalProfit += row.ProfitRatio
	}

	if math.IsNaN(totalProfit) {
		return Loss{Loss: math.Inf(1), Status: StatusFail}
	}

	diff := n - float64(targetTrades)
	tradeLoss := 1 - 0.35*math.Exp(-(diff*diff)/math.Pow(10, 5.2))

	profitLoss := 1 - totalProfit*1000/10000
	if profitLoss < 0 {
		profitLoss = 0
	}
	if profitLoss > 1 {
		profitLoss = 1
	}

	return Loss{Loss: tradeLoss + profitLoss, Status: StatusOK}
}
