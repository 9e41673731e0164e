package binance

import (
	"testing"
	"time"

	binanceapi "github.com/adshao/go-binance/v2"
	"github.com/stretchr/testify/assert"

	"github.com/kryofly/freqtrade/internal/exchange"
)

func TestParseFloatAndFormatFloatRoundTrip(t *testing.T) {
	f, err := parseFloat("0.00123400")
	assert.NoError(t, err)
	assert.Equal(t, "0.001234", formatFloat(f))
}

func TestFormatAndParseInt(t *testing.T) {
	assert.Equal(t, "42", formatInt(42))
	assert.Equal(t, int64(42), parseInt("42"))
}

func TestParseIntIgnoresErrorAndReturnsZero(t *testing.T) {
	assert.Equal(t, int64(0), parseInt("not-a-number"))
}

func TestOrderSideMapsSellExplicitlyAndDefaultsToBuy(t *testing.T) {
	assert.Equal(t, exchange.OrderSideSell, orderSide(binanceapi.SideTypeSell))
	assert.Equal(t, exchange.OrderSideBuy, orderSide(binanceapi.SideTypeBuy))
}

func TestOrderStatusMapping(t *testing.T) {
	assert.Equal(t, exchange.OrderStatusFilled, orderStatus(binanceapi.OrderStatusTypeFilled))
	assert.Equal(t, exchange.OrderStatusCancelled, orderStatus(binanceapi.OrderStatusTypeCanceled))
	assert.Equal(t, exchange.OrderStatusCancelled, orderStatus(binanceapi.OrderStatusTypeExpired))
	assert.Equal(t, exchange.OrderStatusRejected, orderStatus(binanceapi.OrderStatusTypeRejected))
	assert.Equal(t, exchange.OrderStatusOpen, orderStatus(binanceapi.OrderStatusTypeNew))
}

func TestKlineIntervalFormatsDaysHoursAndMinutes(t *testing.T) {
	assert.Equal(t, "1d", klineInterval(24*time.Hour))
	assert.Equal(t, "4h", klineInterval(4*time.Hour))
	assert.Equal(t, "5m", klineInterval(5*time.Minute))
}
