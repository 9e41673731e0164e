package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kryofly/freqtrade/internal/candle"
	"github.com/kryofly/freqtrade/internal/strategy"
)

func buildSeries(t *testing.T, n int) *candle.Series {
	t.Helper()
	rows := make([]candle.Candle, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := range rows {
		price += float64(i%5) - 2
		rows[i] = candle.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      price, High: price + 1, Low: price - 1, Close: price, Volume: 10,
		}
	}
	s, err := candle.NewSeries("BTC/USDT", time.Minute, rows)
	require.NoError(t, err)
	return s
}

func TestPopulate_RSIWritesFullLengthColumn(t *testing.T) {
	s := buildSeries(t, 30)
	err := Populate(s, []strategy.IndicatorSpec{{Name: "rsi", Args: map[string]interface{}{"period": 14}}})
	require.NoError(t, err)
	assert.Len(t, s.Column("rsi"), s.Len())
}

func TestPopulate_MACDWritesBothColumns(t *testing.T) {
	s := buildSeries(t, 60)
	err := Populate(s, []strategy.IndicatorSpec{{Name: "macd"}})
	require.NoError(t, err)
	assert.Len(t, s.Column("macd"), s.Len())
	assert.Len(t, s.Column("macd_signal"), s.Len())
}

func TestPopulate_UnknownIndicatorErrors(t *testing.T) {
	s := buildSeries(t, 10)
	err := Populate(s, []strategy.IndicatorSpec{{Name: "nonexistent"}})
	assert.Error(t, err)
}

func TestPopulate_HeikinAshiDerivesFourColumns(t *testing.T) {
	s := buildSeries(t, 10)
	err := Populate(s, []strategy.IndicatorSpec{{Name: "heikin_ashi"}})
	require.NoError(t, err)
	assert.Len(t, s.Column("ha_close"), s.Len())
}
