package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kryofly/freqtrade/internal/candle"
)

func buildSeries(t *testing.T) *candle.Series {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]candle.Candle, 3)
	for i := range rows {
		rows[i] = candle.Candle{Timestamp: start.Add(time.Duration(i) * 5 * time.Minute), Open: 10, High: 12, Low: 9, Close: 11, Volume: 5}
	}
	s, err := candle.NewSeries("BTC/USDT", 5*time.Minute, rows)
	require.NoError(t, err)
	return s
}

func TestLinearCombinationWeightsAndSumsColumns(t *testing.T) {
	s := buildSeries(t)
	require.NoError(t, s.SetColumn("rsi", []float64{1, 2, 3}))
	require.NoError(t, s.SetColumn("macd", []float64{10, 20, 30}))

	out := LinearCombination(s, []WeightedColumn{
		{Column: "rsi", Weight: 2},
		{Column: "macd", Weight: 0.5},
	})

	assert.Equal(t, []float64{2*1 + 0.5*10, 2*2 + 0.5*20, 2*3 + 0.5*30}, out)
}

func TestLinearCombinationWithNoTermsIsZero(t *testing.T) {
	s := buildSeries(t)
	out := LinearCombination(s, nil)
	assert.Equal(t, []float64{0, 0, 0}, out)
}
