// Package indicators resolves a strategy.IndicatorSpec list into
// populated candle.Series columns, wrapping
// github.com/cinar/indicator/v2, adapted from the teacher's
// internal/indicators/{rsi,ema,macd,bollinger}.go (originally an HTTP
// calculation service returning one scalar result per call) into a
// batch populator that writes a value per candle row. The engine never
// computes an indicator itself — PopulateBuyTrend/PopulateSellTrend
// only ever read columns this package has already written.
package indicators

import (
	"fmt"

	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/cinar/indicator/v2/volatility"

	"github.com/kryofly/freqtrade/internal/candle"
	"github.com/kryofly/freqtrade/internal/strategy"
)

// Populate resolves every spec against s, writing the computed
// column(s) back into s. Strategies declare what they need via
// strategy.Strategy.SelectIndicators; the engine calls Populate once
// per tick/backtest run before invoking PopulateBuyTrend/PopulateSellTrend.
func Populate(s *candle.Series, specs []strategy.IndicatorSpec) error {
	closes := s.CloseValues()
	for _, spec := range specs {
		switch spec.Name {
		case "rsi":
			period := intArg(spec.Args, "period", 14)
			if err := s.SetColumn("rsi", rightAlign(rsi(closes, period), s.Len())); err != nil {
				return err
			}
		case "ema":
			period := intArg(spec.Args, "period", 0)
			if period == 0 {
				return fmt.Errorf("indicators: ema requires a period argument")
			}
			if err := s.SetColumn("ema", rightAlign(ema(closes, period), s.Len())); err != nil {
				return err
			}
		case "macd":
			fast := intArg(spec.Args, "fast_period", 12)
			slow := intArg(spec.Args, "slow_period", 26)
			sig := intArg(spec.Args, "signal_period", 9)
			macdVals, signalVals := macd(closes, fast, slow, sig)
			if err := s.SetColumn("macd", rightAlign(macdVals, s.Len())); err != nil {
				return err
			}
			if err := s.SetColumn("macd_signal", rightAlign(signalVals, s.Len())); err != nil {
				return err
			}
		case "bollinger":
			period := intArg(spec.Args, "period", 20)
			lower, middle, upper := bollinger(closes, period)
			if err := s.SetColumn("bollinger_lower", rightAlign(lower, s.Len())); err != nil {
				return err
			}
			if err := s.SetColumn("bollinger_middle", rightAlign(middle, s.Len())); err != nil {
				return err
			}
			if err := s.SetColumn("bollinger_upper", rightAlign(upper, s.Len())); err != nil {
				return err
			}
		case "adx":
			period := intArg(spec.Args, "period", 14)
			highs, lows := highLow(s)
			if err := s.SetColumn("adx", adx(highs, lows, closes, period)); err != nil {
				return err
			}
		case "heikin_ashi":
			o, h, l, c := heikinAshi(s)
			for name, col := range map[string][]float64{
				"ha_open": o, "ha_high": h, "ha_low": l, "ha_close": c,
			} {
				if err := s.SetColumn(name, col); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("indicators: unknown indicator %q", spec.Name)
		}
	}
	return nil
}

func intArg(args map[string]interface{}, key string, def int) int {
	if args == nil {
		return def
	}
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

func highLow(s *candle.Series) ([]float64, []float64) {
	highs := make([]float64, s.Len())
	lows := make([]float64, s.Len())
	for i, r := range s.Rows {
		highs[i] = r.High
		lows[i] = r.Low
	}
	return highs, lows
}

// rightAlign pads a cinar/indicator result (shorter than the input
// because of its warm-up window) with leading zeros so it lines up
// with the series' row indices; strategies treat 0 as "not yet ready"
// the same way DefaultStrategy.PopulateBuyTrend does for RSI.
func rightAlign(values []float64, n int) []float64 {
	out := make([]float64, n)
	offset := n - len(values)
	if offset < 0 {
		offset = 0
		values = values[len(values)-n:]
	}
	copy(out[offset:], values)
	return out
}

func toChan(values []float64) chan float64 {
	ch := make(chan float64, len(values))
	for _, v := range values {
		ch <- v
	}
	close(ch)
	return ch
}

func drain(ch chan float64) []float64 {
	var out []float64
	for v := range ch {
		out = append(out, v)
	}
	return out
}

func rsi(closes []float64, period int) []float64 {
	ind := momentum.NewRsiWithPeriod[float64](period)
	return drain(ind.Compute(toChan(closes)))
}

func ema(closes []float64, period int) []float64 {
	ind := trend.NewEmaWithPeriod[float64](period)
	return drain(ind.Compute(toChan(closes)))
}

func macd(closes []float64, fast, slow, signal int) ([]float64, []float64) {
	ind := trend.NewMacdWithPeriod[float64](fast, slow, signal)
	macdChan, signalChan := ind.Compute(toChan(closes))
	var macdVals, signalVals []float64
	for {
		m, mok := <-macdChan
		sg, sok := <-signalChan
		if !mok || !sok {
			break
		}
		macdVals = append(macdVals, m)
		signalVals = append(signalVals, sg)
	}
	return macdVals, signalVals
}

func bollinger(closes []float64, period int) (lower, middle, upper []float64) {
	ind := volatility.NewBollingerBandsWithPeriod[float64](period)
	lowerChan, middleChan, upperChan := ind.Compute(toChan(closes))
	for {
		l, lok := <-lowerChan
		m, mok := <-middleChan
		u, uok := <-upperChan
		if !lok || !mok || !uok {
			break
		}
		lower = append(lower, l)
		middle = append(middle, m)
		upper = append(upper, u)
	}
	return lower, middle, upper
}
