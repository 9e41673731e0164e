package indicators

import (
	"math"

	"github.com/kryofly/freqtrade/internal/candle"
)

// adx computes the Average Directional Index over the whole series,
// adapted from the teacher's calculateADXManual (ADX has no cinar/
// indicator v2 implementation) to return the full aligned array
// instead of only the most recent value.
func adx(high, low, close []float64, period int) []float64 {
	n := len(close)
	result := make([]float64, n)
	if n < period*2 {
		return result
	}

	tr := make([]float64, n)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)

	for i := 1; i < n; i++ {
		tr[i] = math.Max(high[i]-low[i],
			math.Max(math.Abs(high[i]-close[i-1]), math.Abs(low[i]-close[i-1])))

		upMove := high[i] - high[i-1]
		downMove := low[i-1] - low[i]
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	smoothTR := smoothWilder(tr, period)
	smoothPlusDM := smoothWilder(plusDM, period)
	smoothMinusDM := smoothWilder(minusDM, period)

	plusDI := make([]float64, n)
	minusDI := make([]float64, n)
	dx := make([]float64, n)
	for i := period; i < n; i++ {
		if smoothTR[i] != 0 {
			plusDI[i] = 100 * smoothPlusDM[i] / smoothTR[i]
			minusDI[i] = 100 * smoothMinusDM[i] / smoothTR[i]
			diSum := plusDI[i] + minusDI[i]
			if diSum != 0 {
				dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / diSum
			}
		}
	}

	return smoothWilder(dx, period)
}

// smoothWilder applies Wilder's smoothing method.
func smoothWilder(data []float64, period int) []float64 {
	n := len(data)
	result := make([]float64, n)
	if n < period {
		return result
	}
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	result[period-1] = sum / float64(period)
	for i := period; i < n; i++ {
		result[i] = (result[i-1]*float64(period-1) + data[i]) / float64(period)
	}
	return result
}

// heikinAshi derives smoothed candles from s, a supplemented feature
// (spec.md's distillation dropped it; the original implementation
// offers it as an optional derived-candle transform some strategies
// key their signals off of instead of raw OHLC).
func heikinAshi(s *candle.Series) (open, high, low, close []float64) {
	n := s.Len()
	open = make([]float64, n)
	high = make([]float64, n)
	low = make([]float64, n)
	close = make([]float64, n)
	for i, r := range s.Rows {
		close[i] = (r.Open + r.High + r.Low + r.Close) / 4
		if i == 0 {
			open[i] = (r.Open + r.Close) / 2
		} else {
			open[i] = (open[i-1] + close[i-1]) / 2
		}
		high[i] = math.Max(r.High, math.Max(open[i], close[i]))
		low[i] = math.Min(r.Low, math.Min(open[i], close[i]))
	}
	return open, high, low, close
}
